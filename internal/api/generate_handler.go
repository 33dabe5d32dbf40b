package api

import (
	"errors"
	"fmt"
	"net/http"

	"gymtrack/internal/domain"
	"gymtrack/internal/generate"

	"github.com/gin-gonic/gin"
)

// GenerateHandler holds the generation service dependency.
type GenerateHandler struct {
	generator generate.Service
}

// NewGenerateHandler creates a new GenerateHandler.
func NewGenerateHandler(generator generate.Service) *GenerateHandler {
	return &GenerateHandler{generator: generator}
}

type GenerateResponse struct {
	Exercises []domain.Exercise `json:"exercises"`
}

// Generate produces an AI-assisted exercise list from the body's plan
// parameters. Nothing is persisted; the client reviews the plan and saves
// it through the workout endpoint. A failed or unparsable generation fails
// the whole request.
func (h *GenerateHandler) Generate(c *gin.Context) {
	var req generate.PlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	exercises, err := h.generator.Generate(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, generate.ErrInvalidRequest) {
			abortWithError(c, http.StatusBadRequest, err.Error())
		} else {
			abortWithError(c, http.StatusBadGateway, "Failed to generate workout.")
		}
		return
	}

	c.JSON(http.StatusOK, GenerateResponse{Exercises: exercises})
}
