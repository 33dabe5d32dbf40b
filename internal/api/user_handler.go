package api

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"gymtrack/internal/domain"
	"gymtrack/internal/service"

	"github.com/gin-gonic/gin"
)

// UserHandler holds the user service dependency.
type UserHandler struct {
	userService service.UserService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(userService service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// --- Request/Response Structs ---

type UpsertProfileRequest struct {
	Username string `json:"username" binding:"required,min=3,max=30"`
	Name     string `json:"name" binding:"required,max=100"`
	Bio      string `json:"bio" binding:"max=500"`
	Image    string `json:"image"`
}

type AvatarUploadURLRequest struct {
	ContentType string `json:"contentType" binding:"required"`
}

type ConfirmAvatarRequest struct {
	ObjectKey string `json:"objectKey" binding:"required"`
}

type UserResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Name      string    `json:"name"`
	Bio       string    `json:"bio,omitempty"`
	Image     string    `json:"image,omitempty"`
	ImageURL  string    `json:"imageUrl,omitempty"`
	Workouts  []string  `json:"workouts"`
	Onboarded bool      `json:"onboarded"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (h *UserHandler) mapUserToResponse(c *gin.Context, user *domain.User) UserResponse {
	workouts := make([]string, 0, len(user.WorkoutIDs))
	for _, id := range user.WorkoutIDs {
		workouts = append(workouts, id.Hex())
	}

	imageURL, err := h.userService.AvatarViewURL(c.Request.Context(), user)
	if err != nil {
		// The profile is still usable without a resolvable avatar.
		log.Printf("WARN: could not resolve avatar URL for %s: %v", user.ExternalID, err)
	}

	return UserResponse{
		ID:        user.ExternalID,
		Username:  user.Username,
		Name:      user.Name,
		Bio:       user.Bio,
		Image:     user.Image,
		ImageURL:  imageURL,
		Workouts:  workouts,
		Onboarded: user.Onboarded,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}

// --- Handler Methods ---

// GetMe returns the caller's profile, 404 when they have not onboarded yet.
func (h *UserHandler) GetMe(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}

	user, err := h.userService.Get(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			abortWithError(c, http.StatusNotFound, "Profile not found; complete onboarding first")
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to fetch profile")
		}
		return
	}

	c.JSON(http.StatusOK, h.mapUserToResponse(c, user))
}

// UpsertMe creates the profile on first save (onboarding) and updates it
// afterwards.
func (h *UserHandler) UpsertMe(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}

	var req UpsertProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	user, err := h.userService.Upsert(c.Request.Context(), userID, service.ProfileInput{
		Username: req.Username,
		Name:     req.Name,
		Bio:      req.Bio,
		Image:    req.Image,
	})
	if err != nil {
		if errors.Is(err, service.ErrInvalidProfile) {
			abortWithError(c, http.StatusBadRequest, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to save profile")
		}
		return
	}

	c.JSON(http.StatusOK, h.mapUserToResponse(c, user))
}

// AvatarUploadURL hands out a presigned PUT URL for a new profile image.
func (h *UserHandler) AvatarUploadURL(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}

	var req AvatarUploadURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	resp, err := h.userService.AvatarUploadURL(c.Request.Context(), userID, req.ContentType)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAvatarContentType):
			abortWithError(c, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrUserNotFound):
			abortWithError(c, http.StatusNotFound, "Profile not found")
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to generate upload URL")
		}
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ConfirmAvatar records a completed avatar upload on the profile.
func (h *UserHandler) ConfirmAvatar(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}

	var req ConfirmAvatarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	if err := h.userService.SetAvatar(c.Request.Context(), userID, req.ObjectKey); err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			abortWithError(c, http.StatusNotFound, "Profile not found")
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to update avatar")
		}
		return
	}

	c.Status(http.StatusNoContent)
}
