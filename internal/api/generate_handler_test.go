package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"gymtrack/internal/domain"
	"gymtrack/internal/generate"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGenerator struct {
	exercises []domain.Exercise
	err       error
	lastReq   generate.PlanRequest
}

func (f *fakeGenerator) Generate(ctx context.Context, req generate.PlanRequest) ([]domain.Exercise, error) {
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return f.exercises, nil
}

func newGenerateRouter(gen generate.Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/workouts/generate", NewGenerateHandler(gen).Generate)
	return router
}

func TestGenerateEndpoint_Success(t *testing.T) {
	gen := &fakeGenerator{exercises: []domain.Exercise{
		{Name: "Squat", Sets: 3, Reps: 10},
		{Name: "Leg Press", Sets: 4, Reps: 12},
	}}
	router := newGenerateRouter(gen)

	body := `{"age":30,"weight":80,"height":180,"gender":"male","goal":"build muscle","exerciseTarget":"legs"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/workouts/generate", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp GenerateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Exercises, 2)
	assert.Equal(t, "Squat", resp.Exercises[0].Name)

	assert.Equal(t, "legs", gen.lastReq.Target)
	assert.Equal(t, 30, gen.lastReq.Age)
}

func TestGenerateEndpoint_ValidationError(t *testing.T) {
	gen := &fakeGenerator{}
	router := newGenerateRouter(gen)

	// Missing required fields must be rejected before the generator runs.
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/workouts/generate", strings.NewReader(`{"age":30}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, gen.lastReq.Age)
}

func TestGenerateEndpoint_UpstreamFailure(t *testing.T) {
	gen := &fakeGenerator{err: generate.ErrGenerationFailed}
	router := newGenerateRouter(gen)

	body := `{"age":30,"weight":80,"height":180,"gender":"male","goal":"build muscle"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/workouts/generate", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadGateway, w.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp["error"], "Failed to generate")
}
