package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mcdev12/pokerclock/go/internal/config"
	"github.com/mcdev12/pokerclock/go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (http.Handler, *Services) {
	t.Helper()
	cfg, err := config.Parse()
	require.NoError(t, err)

	services, err := setupServices(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = services.Close() })

	return setupHandler(cfg, services), services
}

func TestServer_Health(t *testing.T) {
	h, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestServer_StartedClockShowsInMetrics(t *testing.T) {
	h, services := newTestServer(t)

	body := `{"name":"Friday Turbo","buy_in":20,"starting_chips":5000,"max_players":10,"preset_id":"turbo"}`
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/tournaments", strings.NewReader(body)))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created models.Tournament
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/tournaments/"+created.ID.String()+"/start", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, services.Clocks.IsActive(created.ID))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "clock_active_engines 1")
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestLoadPresets(t *testing.T) {
	presets, err := loadPresets("")
	require.NoError(t, err)
	assert.NotEmpty(t, presets)

	_, err = loadPresets("does-not-exist.yaml")
	assert.Error(t, err)
}
