package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gymtrack/internal/api"
	"gymtrack/internal/cache"
	"gymtrack/internal/config"
	"gymtrack/internal/generate"
	mongorepo "gymtrack/internal/repository/mongo"
	"gymtrack/internal/service"
	"gymtrack/internal/storage"

	"github.com/gin-gonic/gin"
)

func main() {
	log.Println("Starting GymTrack server...")

	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("FATAL: Could not load config: %v", err)
	}
	log.Println("Configuration loaded.")

	// --- Database Connection ---
	gateway := mongorepo.NewGateway(cfg.Database.URI)
	defer func() {
		log.Println("Disconnecting MongoDB...")
		if err := gateway.Close(); err != nil {
			log.Printf("ERROR: Failed to disconnect MongoDB: %v", err)
		}
	}()

	connectCtx, connectCancel := context.WithTimeout(context.Background(), 30*time.Second)
	appDB, err := gateway.Database(connectCtx, cfg.Database.Name)
	connectCancel()
	if err != nil {
		log.Fatalf("FATAL: Could not connect to MongoDB: %v", err)
	}
	log.Println("Database connection established.")

	// --- Ensure Indexes ---
	log.Println("Ensuring database indexes...")
	go func() { // Run index creation concurrently/in background
		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
		defer cancel()
		mongorepo.EnsureUserIndexes(ctx, appDB.Collection("users"))
		mongorepo.EnsureWorkoutIndexes(ctx, appDB.Collection("workouts"))
		mongorepo.EnsureProgressIndexes(ctx, appDB.Collection("progress"))
		log.Println("Index creation process completed.")
	}()

	// --- Initialize Storage ---
	log.Println("Initializing avatar storage...")
	fileStorage, err := storage.NewS3Storage(cfg.S3)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize S3 storage: %v", err)
	}

	// --- Initialize Cache ---
	var listCache cache.WorkoutListCache = cache.Noop{}
	if cfg.Redis.Address != "" {
		cacheCtx, cacheCancel := context.WithTimeout(context.Background(), 5*time.Second)
		redisCache, err := cache.NewRedis(cacheCtx, cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB)
		cacheCancel()
		if err != nil {
			// Degrade rather than refuse to start; correctness does not
			// depend on the view cache.
			log.Printf("WARN: Redis unavailable, workout list cache disabled: %v", err)
		} else {
			listCache = redisCache
			log.Println("Workout list cache enabled.")
		}
	}

	// --- Initialize Generation Client ---
	log.Println("Initializing generation client...")
	generator, err := generate.New(generate.Config{
		BaseURL:       cfg.LLM.BaseURL,
		APIKey:        cfg.LLM.APIKey,
		Model:         cfg.LLM.Model,
		MaxConcurrent: cfg.LLM.MaxConcurrent,
	})
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize generation client: %v", err)
	}

	// --- Initialize Repositories ---
	log.Println("Initializing repositories...")
	userRepo := mongorepo.NewMongoUserRepository(appDB)
	workoutRepo := mongorepo.NewMongoWorkoutRepository(appDB)
	progressRepo := mongorepo.NewMongoProgressRepository(appDB)

	// --- Initialize Services ---
	log.Println("Initializing services...")
	userService := service.NewUserService(userRepo, fileStorage)
	workoutService := service.NewWorkoutService(userRepo, workoutRepo, listCache)
	progressService := service.NewProgressService(userRepo, progressRepo)

	// --- Initialize Gin Engine ---
	router := gin.Default() // Includes Logger and Recovery middleware

	// --- Setup Routes ---
	log.Println("Setting up API routes...")
	api.SetupRoutes(router, cfg.Auth.JWTSecret, userService, workoutService, progressService, generator)

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second, // generation calls can be slow
		IdleTimeout:  120 * time.Second,
	}

	log.Printf("Server starting on %s", cfg.Server.Address)

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("FATAL: ListenAndServe Error: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Fatalf("FATAL: Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting.")
}
