package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fincast/pkg/contracts"
)

func TestHealthHandler_HealthCheck(t *testing.T) {
	router := newTestRouter(t, "")
	rec := getJSON(t, router, "/api/health")

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, contracts.Version, body["version"])
}

func TestHealthHandler_LivenessCheck(t *testing.T) {
	router := newTestRouter(t, "")
	rec := getJSON(t, router, "/api/health/live")

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "alive", body["status"])

	runtime, ok := body["runtime"].(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, runtime, "go_version")
	assert.Contains(t, runtime, "goroutines")
}

func TestHealthHandler_ReadinessCheck(t *testing.T) {
	t.Run("without model runner", func(t *testing.T) {
		router := newTestRouter(t, "")
		rec := getJSON(t, router, "/api/health/ready")

		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, "ready", body["status"])

		servicesMap, ok := body["services"].(map[string]interface{})
		require.True(t, ok)
		runnerHealth, ok := servicesMap["model_runner"].(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, "not_configured", runnerHealth["status"])
	})

	t.Run("with reachable model runner", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		router := newTestRouter(t, server.URL)
		rec := getJSON(t, router, "/api/health/ready")

		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)

		servicesMap, ok := body["services"].(map[string]interface{})
		require.True(t, ok)
		runnerHealth, ok := servicesMap["model_runner"].(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, "ready", runnerHealth["status"])
	})
}

func TestHealthHandler_Version(t *testing.T) {
	router := newTestRouter(t, "")
	rec := getJSON(t, router, "/api/version")

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, contracts.Version, body["version"])
	assert.Equal(t, contracts.APIVersion, body["api_version"])
	assert.Contains(t, body, "go_version")
	assert.Contains(t, body, "uptime")
}

func TestRoutes_MethodNotAllowed(t *testing.T) {
	router := newTestRouter(t, "")

	req := httptest.NewRequest(http.MethodGet, "/api/regressors", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
