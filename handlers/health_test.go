package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"student-api-server-go/config"
)

func TestHealth(t *testing.T) {
	router, _ := setupRouter(loadTable(t, studentsCSV), nil, config.RateLimitConfig{})

	rec := get(t, router, "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
}

func TestReadiness(t *testing.T) {
	router, health := setupRouter(loadTable(t, studentsCSV), nil, config.RateLimitConfig{})

	rec := get(t, router, "/readyz")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ready", resp.Status)
	require.NotNil(t, resp.Students)
	assert.Equal(t, 3, *resp.Students)

	health.SetReady(false)
	rec = get(t, router, "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestPing(t *testing.T) {
	router, _ := setupRouter(loadTable(t, studentsCSV), nil, config.RateLimitConfig{})

	rec := get(t, router, "/api/ping")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"pong"}`, rec.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	router, _ := setupRouter(loadTable(t, studentsCSV), nil, config.RateLimitConfig{})
	get(t, router, "/api?class=1A")

	rec := get(t, router, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "student_api_students_loaded")
	assert.Contains(t, rec.Body.String(), `student_api_http_requests_total{method="GET",path="/api",status="200"}`)
}
