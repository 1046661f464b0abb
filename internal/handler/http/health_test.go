package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConfigStatus struct {
	loaded    bool
	loadedAt  time.Time
	endpoints int
}

func (f fakeConfigStatus) Loaded() bool          { return f.loaded }
func (f fakeConfigStatus) LoadedAt() time.Time   { return f.loadedAt }
func (f fakeConfigStatus) EndpointCount() int    { return f.endpoints }

type fakeCacheStatus struct {
	entries int
	bytes   int64
}

func (f fakeCacheStatus) Entries() int  { return f.entries }
func (f fakeCacheStatus) Bytes() int64  { return f.bytes }

func TestHealthHandler_ServeHTTP(t *testing.T) {
	tests := []struct {
		name           string
		config         ConfigStatus
		expectedStatus int
		expectHealthy  bool
	}{
		{
			name:           "config loaded",
			config:         fakeConfigStatus{loaded: true, loadedAt: time.Now(), endpoints: 3},
			expectedStatus: http.StatusOK,
			expectHealthy:  true,
		},
		{
			name:           "config not loaded",
			config:         fakeConfigStatus{loaded: false},
			expectedStatus: http.StatusServiceUnavailable,
			expectHealthy:  false,
		},
		{
			name:           "no config provider configured",
			config:         nil,
			expectedStatus: http.StatusServiceUnavailable,
			expectHealthy:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := &HealthHandler{
				Config:  tt.config,
				Cache:   fakeCacheStatus{entries: 2, bytes: 4096},
				Version: "test",
			}

			req := httptest.NewRequest(http.MethodGet, "/health-check", nil)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)

			var resp HealthResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

			if tt.expectHealthy {
				assert.Equal(t, "healthy", resp.Status)
			} else {
				assert.Equal(t, "unhealthy", resp.Status)
			}
			assert.Equal(t, "test", resp.Version)
		})
	}
}

func TestHealthHandler_ReportsCacheStats(t *testing.T) {
	handler := &HealthHandler{
		Config: fakeConfigStatus{loaded: true, loadedAt: time.Now(), endpoints: 1},
		Cache:  fakeCacheStatus{entries: 7, bytes: 1024},
	}

	req := httptest.NewRequest(http.MethodGet, "/health-check", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	cacheCheck, ok := resp.Checks["fetch_cache"]
	require.True(t, ok)
	assert.Equal(t, "healthy", cacheCheck.Status)
	assert.EqualValues(t, 7, cacheCheck.Details["entries"])
}

func TestReadyHandler_ServeHTTP(t *testing.T) {
	tests := []struct {
		name           string
		config         ConfigStatus
		expectedStatus int
	}{
		{
			name:           "ready when config loaded",
			config:         fakeConfigStatus{loaded: true},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "not ready when config missing",
			config:         fakeConfigStatus{loaded: false},
			expectedStatus: http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := &ReadyHandler{Config: tt.config}
			req := httptest.NewRequest(http.MethodGet, "/ready", nil)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)
			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestLiveHandler_ServeHTTP(t *testing.T) {
	handler := &LiveHandler{}
	req := httptest.NewRequest(http.MethodGet, "/live", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alive", w.Body.String())
}
