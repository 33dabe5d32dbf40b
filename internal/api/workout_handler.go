package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"gymtrack/internal/domain"
	"gymtrack/internal/service"

	"github.com/gin-gonic/gin"
)

// WorkoutHandler holds the workout service dependency.
type WorkoutHandler struct {
	workoutService service.WorkoutService
}

// NewWorkoutHandler creates a new WorkoutHandler.
func NewWorkoutHandler(workoutService service.WorkoutService) *WorkoutHandler {
	return &WorkoutHandler{workoutService: workoutService}
}

// --- Request/Response Structs ---

type ExercisePayload struct {
	Name string `json:"name" binding:"required"`
	Sets int    `json:"sets" binding:"required,gt=0"`
	Reps int    `json:"reps" binding:"required,gt=0"`
}

type WorkoutRequest struct {
	Title       string            `json:"title" binding:"required,max=200"`
	Description string            `json:"description" binding:"max=1000"`
	Target      string            `json:"exerciseTarget" binding:"max=100"`
	Exercises   []ExercisePayload `json:"exercises"` // empty plan is allowed
}

type WorkoutResponse struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Description string            `json:"description,omitempty"`
	Target      string            `json:"exerciseTarget,omitempty"`
	Exercises   []domain.Exercise `json:"exercises"`
	Date        time.Time         `json:"date"`
}

func mapWorkoutToResponse(w *domain.Workout) WorkoutResponse {
	exercises := w.Exercises
	if exercises == nil {
		exercises = []domain.Exercise{}
	}
	return WorkoutResponse{
		ID:          w.ID.Hex(),
		Title:       w.Title,
		Description: w.Description,
		Target:      w.Target,
		Exercises:   exercises,
		Date:        w.Date,
	}
}

func (req WorkoutRequest) toInput() service.WorkoutInput {
	exercises := make([]domain.Exercise, 0, len(req.Exercises))
	for _, ex := range req.Exercises {
		exercises = append(exercises, domain.Exercise{Name: ex.Name, Sets: ex.Sets, Reps: ex.Reps})
	}
	return service.WorkoutInput{
		Title:       req.Title,
		Description: req.Description,
		Target:      req.Target,
		Exercises:   exercises,
	}
}

// --- Handler Methods ---

// Create saves a new workout plan for the caller.
func (h *WorkoutHandler) Create(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}

	var req WorkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	workout, err := h.workoutService.Create(c.Request.Context(), userID, req.toInput())
	if err != nil {
		h.mapServiceError(c, err, "Failed to create workout")
		return
	}

	c.JSON(http.StatusCreated, mapWorkoutToResponse(workout))
}

// List returns the caller's workouts, oldest first.
func (h *WorkoutHandler) List(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}

	workouts, err := h.workoutService.ListByUser(c.Request.Context(), userID)
	if err != nil {
		h.mapServiceError(c, err, "Failed to list workouts")
		return
	}

	responses := make([]WorkoutResponse, 0, len(workouts))
	for i := range workouts {
		responses = append(responses, mapWorkoutToResponse(&workouts[i]))
	}
	c.JSON(http.StatusOK, responses)
}

// Latest returns the caller's most recently created workout.
func (h *WorkoutHandler) Latest(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}

	workout, err := h.workoutService.Latest(c.Request.Context(), userID)
	if err != nil {
		h.mapServiceError(c, err, "Failed to fetch latest workout")
		return
	}

	c.JSON(http.StatusOK, mapWorkoutToResponse(workout))
}

// Get returns one of the caller's workouts by id.
func (h *WorkoutHandler) Get(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}

	workout, err := h.workoutService.Get(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		h.mapServiceError(c, err, "Failed to fetch workout")
		return
	}

	c.JSON(http.StatusOK, mapWorkoutToResponse(workout))
}

// Update replaces the editable fields of one of the caller's workouts.
func (h *WorkoutHandler) Update(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}

	var req WorkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	workout, err := h.workoutService.Update(c.Request.Context(), userID, c.Param("id"), req.toInput())
	if err != nil {
		h.mapServiceError(c, err, "Failed to update workout")
		return
	}

	c.JSON(http.StatusOK, mapWorkoutToResponse(workout))
}

// Delete removes one of the caller's workouts and its reference.
func (h *WorkoutHandler) Delete(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}

	if err := h.workoutService.Delete(c.Request.Context(), userID, c.Param("id")); err != nil {
		h.mapServiceError(c, err, "Failed to delete workout")
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *WorkoutHandler) mapServiceError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		abortWithError(c, http.StatusNotFound, "User not found")
	case errors.Is(err, service.ErrWorkoutNotFound):
		abortWithError(c, http.StatusNotFound, "Workout not found")
	case errors.Is(err, service.ErrNotWorkoutOwner):
		abortWithError(c, http.StatusForbidden, "Workout does not belong to this user")
	case errors.Is(err, service.ErrInvalidWorkout):
		abortWithError(c, http.StatusBadRequest, err.Error())
	default:
		abortWithError(c, http.StatusInternalServerError, fallback)
	}
}
