package api

import (
	"net/http"

	"gymtrack/internal/generate"
	"gymtrack/internal/service"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(
	router *gin.Engine,
	jwtSecret string,
	userService service.UserService,
	workoutService service.WorkoutService,
	progressService service.ProgressService,
	generator generate.Service,
) {
	userHandler := NewUserHandler(userService)
	workoutHandler := NewWorkoutHandler(workoutService)
	progressHandler := NewProgressHandler(progressService)
	generateHandler := NewGenerateHandler(generator)

	identity := IdentityMiddleware(jwtSecret)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := router.Group("/api/v1")
	protected := apiV1.Group("")
	protected.Use(identity)
	{
		// --- Profile Routes ---
		userGroup := protected.Group("/users")
		{
			userGroup.GET("/me", userHandler.GetMe)
			userGroup.POST("/me", userHandler.UpsertMe)
			userGroup.POST("/me/avatar-url", userHandler.AvatarUploadURL)
			userGroup.PUT("/me/avatar", userHandler.ConfirmAvatar)
		}

		// --- Workout Routes ---
		workoutGroup := protected.Group("/workouts")
		{
			workoutGroup.POST("", workoutHandler.Create)
			workoutGroup.GET("", workoutHandler.List)
			workoutGroup.GET("/latest", workoutHandler.Latest)
			workoutGroup.POST("/generate", generateHandler.Generate)
			workoutGroup.GET("/:id", workoutHandler.Get)
			workoutGroup.PUT("/:id", workoutHandler.Update)
			workoutGroup.DELETE("/:id", workoutHandler.Delete)
		}

		// --- Progress Routes ---
		progressGroup := protected.Group("/progress")
		{
			progressGroup.GET("/:year", progressHandler.YearlyTotal)
			progressGroup.GET("/:year/:month", progressHandler.GetDays)
			progressGroup.PUT("/:year/:month", progressHandler.SaveDays)
		}
	}
}
