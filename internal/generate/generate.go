// Package generate talks to the external text-generation service and turns
// its free-form replies into validated workout plans.
package generate

import (
	"context"
	"errors"
	"fmt"
	"log"

	"gymtrack/internal/domain"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"golang.org/x/sync/semaphore"
)

// --- Error Definitions ---
var (
	ErrGenerationFailed = errors.New("workout generation failed")
	ErrInvalidRequest   = errors.New("invalid generation request")
)

// PlanRequest is the structured payload sent to the generation boundary.
type PlanRequest struct {
	Age         int    `json:"age" binding:"required,gt=0"`
	Weight      int    `json:"weight" binding:"required,gt=0"` // kg
	Height      int    `json:"height" binding:"required,gt=0"` // cm
	Gender      string `json:"gender" binding:"required"`
	Goal        string `json:"goal" binding:"required"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Target      string `json:"exerciseTarget"`
}

// Config holds the settings for the OpenAI-compatible endpoint.
type Config struct {
	BaseURL       string
	APIKey        string
	Model         string
	MaxConcurrent int64
}

// Service generates exercise lists from plan requests.
type Service interface {
	Generate(ctx context.Context, req PlanRequest) ([]domain.Exercise, error)
}

type service struct {
	model llms.Model
	name  string
	sem   *semaphore.Weighted
}

// New dials the configured OpenAI-compatible endpoint.
func New(cfg Config) (Service, error) {
	opts := []openai.Option{
		openai.WithModel(cfg.Model),
		openai.WithToken(cfg.APIKey),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}

	model, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("init generation client: %w", err)
	}
	return NewWithModel(model, cfg.Model, cfg.MaxConcurrent), nil
}

// NewWithModel wires the service onto an existing model, which is also the
// seam tests use.
func NewWithModel(model llms.Model, name string, maxConcurrent int64) Service {
	if maxConcurrent <= 0 {
		maxConcurrent = 4
	}
	return &service{
		model: model,
		name:  name,
		sem:   semaphore.NewWeighted(maxConcurrent),
	}
}

// Generate builds the plan prompt, calls the model, and parses the reply
// into exercises. Nothing is persisted here; a reply that can not be parsed
// and validated fails the whole operation.
func (s *service) Generate(ctx context.Context, req PlanRequest) ([]domain.Exercise, error) {
	if req.Age <= 0 || req.Weight <= 0 || req.Height <= 0 {
		return nil, fmt.Errorf("%w: age, weight, and height must be positive", ErrInvalidRequest)
	}

	if err := s.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	defer s.sem.Release(1)

	resp, err := llms.GenerateFromSinglePrompt(ctx, s.model, buildPrompt(req),
		llms.WithModel(s.name),
		llms.WithTemperature(0.7),
	)
	if err != nil {
		log.Printf("ERROR: generation call failed: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	exercises, err := ParseExercises(resp)
	if err != nil {
		log.Printf("ERROR: could not parse generated plan: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	return exercises, nil
}

// buildPrompt matches the contract the parser expects: a bare JSON array of
// {name, sets, reps} with numeric sets and reps.
func buildPrompt(req PlanRequest) string {
	return fmt.Sprintf(`Create a detailed workout plan for a %d-year-old %s weighing %d kg and %d cm tall, with the goal of %s.
Focus on targeting the following muscle group(s) or exercises: %s. Please pay special attention to %s.
If the target or description don't make sense, please generate a general focused workout.

The workout should be formatted as an array of exercises, with each exercise containing:
- Exercise name
- Number of sets
- Number of reps
Please format the response as JSON, like this. This is very important! For reps and sets I only want a number, nothing else.
[
    { "name": "Exercise 1", "sets": 3, "reps": 10},
    { "name": "Exercise 2", "sets": 4, "reps": 12}
]
If you have any exercises that are measured in seconds or minutes, please include that only in the title of the exercise, so Cardio (minutes).
Do not include that next to reps, as that should be a number only.
Generate a workout plan as a JSON array with only the exercises, sets, and reps. Do not include any additional text, disclaimers, or explanations outside the JSON structure.`,
		req.Age, req.Gender, req.Weight, req.Height, req.Goal, req.Target, req.Description)
}
