package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"gymtrack/internal/service"

	"github.com/gin-gonic/gin"
)

// ProgressHandler holds the progress service dependency.
type ProgressHandler struct {
	progressService service.ProgressService
}

// NewProgressHandler creates a new ProgressHandler.
func NewProgressHandler(progressService service.ProgressService) *ProgressHandler {
	return &ProgressHandler{progressService: progressService}
}

// --- Request/Response Structs ---

type SaveDaysRequest struct {
	Days []int `json:"days" binding:"required"`
}

type DaysResponse struct {
	Year  int   `json:"year"`
	Month int   `json:"month"`
	Days  []int `json:"days"`
	Count int   `json:"count"`
}

type YearlyTotalResponse struct {
	Year  int `json:"year"`
	Total int `json:"total"`
}

// --- Handler Methods ---

// GetDays returns the marked days for the caller's (year, month).
func (h *ProgressHandler) GetDays(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}

	year, month, ok := h.yearMonthParams(c)
	if !ok {
		return
	}

	days, err := h.progressService.GetDays(c.Request.Context(), userID, year, month)
	if err != nil {
		h.mapServiceError(c, err, "Failed to fetch workout days")
		return
	}

	c.JSON(http.StatusOK, DaysResponse{Year: year, Month: month, Days: days, Count: len(days)})
}

// SaveDays replaces the caller's day-set for (year, month).
func (h *ProgressHandler) SaveDays(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}

	year, month, ok := h.yearMonthParams(c)
	if !ok {
		return
	}

	var req SaveDaysRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	if err := h.progressService.SaveDays(c.Request.Context(), userID, year, month, req.Days); err != nil {
		h.mapServiceError(c, err, "Failed to save workout days")
		return
	}

	c.Status(http.StatusNoContent)
}

// YearlyTotal returns the recomputed workout-day total for the year.
func (h *ProgressHandler) YearlyTotal(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}

	year, ok := h.yearParam(c)
	if !ok {
		return
	}

	total, err := h.progressService.YearlyTotal(c.Request.Context(), userID, year)
	if err != nil {
		h.mapServiceError(c, err, "Failed to compute yearly total")
		return
	}

	c.JSON(http.StatusOK, YearlyTotalResponse{Year: year, Total: total})
}

func (h *ProgressHandler) yearParam(c *gin.Context) (int, bool) {
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil || year <= 0 {
		abortWithError(c, http.StatusBadRequest, "Invalid year")
		return 0, false
	}
	return year, true
}

func (h *ProgressHandler) yearMonthParams(c *gin.Context) (int, int, bool) {
	year, ok := h.yearParam(c)
	if !ok {
		return 0, 0, false
	}
	month, err := strconv.Atoi(c.Param("month"))
	if err != nil || month < 1 || month > 12 {
		abortWithError(c, http.StatusBadRequest, "Invalid month")
		return 0, 0, false
	}
	return year, month, true
}

func (h *ProgressHandler) mapServiceError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		abortWithError(c, http.StatusNotFound, "User not found")
	case errors.Is(err, service.ErrInvalidYear),
		errors.Is(err, service.ErrInvalidMonth),
		errors.Is(err, service.ErrInvalidDay):
		abortWithError(c, http.StatusBadRequest, err.Error())
	default:
		abortWithError(c, http.StatusInternalServerError, fallback)
	}
}
