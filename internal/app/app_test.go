package app

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestEnv(t *testing.T) {
	t.Helper()
	t.Setenv("ATTSUM_SERVER_PORT", "18573")
	t.Setenv("ATTSUM_LOGGING_LEVEL", "error")
	t.Setenv("ATTSUM_LOGGING_OUTPUT", "console")
	t.Setenv("ATTSUM_CONFIG_FILE", "/nonexistent/attendsum.yaml")
}

func TestNewApplication(t *testing.T) {
	setupTestEnv(t)

	app, err := NewApplication()
	require.NoError(t, err)
	require.NotNil(t, app)

	assert.NotNil(t, app.Config)
	assert.NotNil(t, app.Logger)
	assert.NotNil(t, app.Router)
	assert.NotNil(t, app.Server)
	assert.NotNil(t, app.Metrics)
	assert.NotNil(t, app.SummaryService)
	assert.NotNil(t, app.ErrorHandler)
}

func TestNewApplication_InvalidConfig(t *testing.T) {
	setupTestEnv(t)
	t.Setenv("ATTSUM_SERVER_PORT", "-1")

	app, err := NewApplication()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "config validation failed")
	assert.Nil(t, app)
}

func TestApplication_Routes(t *testing.T) {
	setupTestEnv(t)

	app, err := NewApplication()
	require.NoError(t, err)

	server := httptest.NewServer(app.Router)
	defer server.Close()

	t.Run("health endpoint", func(t *testing.T) {
		resp, err := http.Get(server.URL + "/api/health")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("metrics endpoint", func(t *testing.T) {
		resp, err := http.Get(server.URL + "/metrics")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("unknown route is a problem response", func(t *testing.T) {
		resp, err := http.Get(server.URL + "/nope")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Contains(t, resp.Header.Get("Content-Type"), "application/problem+json")
	})

	t.Run("summary upload end to end", func(t *testing.T) {
		var body bytes.Buffer
		mw := multipart.NewWriter(&body)
		part, err := mw.CreateFormFile("file", "export.csv")
		require.NoError(t, err)
		_, err = part.Write([]byte("First Name,Email,Phone,Attendance_Day\nA,a@example.com,123,Mon\n"))
		require.NoError(t, err)
		require.NoError(t, mw.Close())

		resp, err := http.Post(server.URL+"/api/summaries/growthflow", mw.FormDataContentType(), &body)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})
}

func TestApplication_CORSEnabled(t *testing.T) {
	setupTestEnv(t)
	t.Setenv("ATTSUM_SECURITY_ENABLE_CORS", "true")
	t.Setenv("ATTSUM_SECURITY_ALLOWED_ORIGINS", "http://localhost:3000")

	app, err := NewApplication()
	require.NoError(t, err)

	server := httptest.NewServer(app.Router)
	defer server.Close()

	req, err := http.NewRequest(http.MethodGet, server.URL+"/api/health", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:3000")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "http://localhost:3000", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestApplication_createServer(t *testing.T) {
	setupTestEnv(t)

	app, err := NewApplication()
	require.NoError(t, err)

	assert.Equal(t, fmt.Sprintf(":%d", app.Config.Server.Port), app.Server.Addr)
	assert.Equal(t, app.Router, app.Server.Handler)
	assert.Equal(t, app.Config.Server.ReadTimeout, app.Server.ReadTimeout)
	assert.Equal(t, app.Config.Server.WriteTimeout, app.Server.WriteTimeout)
	assert.Equal(t, app.Config.Server.IdleTimeout, app.Server.IdleTimeout)
}

func TestApplication_StartStop(t *testing.T) {
	setupTestEnv(t)

	app, err := NewApplication()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, app.Start(ctx, cancel))

	// Wait for the listener to come up
	url := fmt.Sprintf("http://localhost:%d/api/health", app.Config.Server.Port)
	var resp *http.Response
	for i := 0; i < 20; i++ {
		resp, err = http.Get(url)
		if err == nil {
			break
		}
		time.Sleep(100 * time.Millisecond)
	}
	if err == nil {
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	assert.NoError(t, app.Stop(shutdownCtx))
}
