package handlers_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ammerola/stock-ledger/internal/handlers"
	"github.com/ammerola/stock-ledger/test/helpers"
	"github.com/ammerola/stock-ledger/test/mocks"
)

type fakeInspector struct {
	err error
}

func (f fakeInspector) Queues() ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []string{"critical"}, nil
}

func (f fakeInspector) GetQueueInfo(queue string) (*asynq.QueueInfo, error) {
	return &asynq.QueueInfo{Queue: queue, Size: 3, Pending: 2, Active: 1}, nil
}

func TestHealthHandler_Health(t *testing.T) {
	tests := []struct {
		name           string
		withDB         bool
		setupMocks     func(*mocks.MockDatabase, *mocks.MockCacheRepository)
		inspector      handlers.QueueInspector
		expectedStatus int
		expectedHealth string
		serviceStatus  map[string]string
	}{
		{
			name:   "all_healthy",
			withDB: true,
			setupMocks: func(db *mocks.MockDatabase, cache *mocks.MockCacheRepository) {
				db.EXPECT().Ping(gomock.Any()).Return(nil)
				db.EXPECT().Health(gomock.Any()).Return(map[string]interface{}{"total_conns": 4})
				cache.EXPECT().Ping(gomock.Any()).Return(nil)
			},
			inspector:      fakeInspector{},
			expectedStatus: http.StatusOK,
			expectedHealth: "healthy",
			serviceStatus:  map[string]string{"database": "healthy", "redis": "healthy", "asynq": "healthy"},
		},
		{
			name: "memory_mode_without_database",
			setupMocks: func(_ *mocks.MockDatabase, cache *mocks.MockCacheRepository) {
				cache.EXPECT().Ping(gomock.Any()).Return(nil)
			},
			expectedStatus: http.StatusOK,
			expectedHealth: "healthy",
			serviceStatus:  map[string]string{"database": "disabled", "asynq": "disabled"},
		},
		{
			name:   "database_down",
			withDB: true,
			setupMocks: func(db *mocks.MockDatabase, cache *mocks.MockCacheRepository) {
				db.EXPECT().Ping(gomock.Any()).Return(errors.New("connection refused"))
				cache.EXPECT().Ping(gomock.Any()).Return(nil)
			},
			inspector:      fakeInspector{},
			expectedStatus: http.StatusServiceUnavailable,
			expectedHealth: "degraded",
			serviceStatus:  map[string]string{"database": "unhealthy"},
		},
		{
			name:   "queue_inspector_failing",
			withDB: true,
			setupMocks: func(db *mocks.MockDatabase, cache *mocks.MockCacheRepository) {
				db.EXPECT().Ping(gomock.Any()).Return(nil)
				db.EXPECT().Health(gomock.Any()).Return(nil)
				cache.EXPECT().Ping(gomock.Any()).Return(nil)
			},
			inspector:      fakeInspector{err: errors.New("redis down")},
			expectedStatus: http.StatusServiceUnavailable,
			expectedHealth: "degraded",
			serviceStatus:  map[string]string{"asynq": "unhealthy"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			db := mocks.NewMockDatabase(ctrl)
			cache := mocks.NewMockCacheRepository(ctrl)
			tt.setupMocks(db, cache)

			h := handlers.NewHealthHandler(nil, cache, tt.inspector, helpers.LoadTestConfig(), helpers.TestLogger())
			if tt.withDB {
				h = handlers.NewHealthHandler(db, cache, tt.inspector, helpers.LoadTestConfig(), helpers.TestLogger())
			}

			w := httptest.NewRecorder()
			h.Health(w, httptest.NewRequest(http.MethodGet, "/health", nil))

			assert.Equal(t, tt.expectedStatus, w.Code)

			var resp handlers.HealthStatus
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.expectedHealth, resp.Status)
			assert.Equal(t, "memory", resp.StorageDriver)
			for svc, status := range tt.serviceStatus {
				assert.Equal(t, status, resp.Services[svc].Status, svc)
			}
		})
	}
}

func TestHealthHandler_Readiness(t *testing.T) {
	ctrl := gomock.NewController(t)
	db := mocks.NewMockDatabase(ctrl)
	cache := mocks.NewMockCacheRepository(ctrl)

	db.EXPECT().Ping(gomock.Any()).Return(nil)
	cache.EXPECT().Ping(gomock.Any()).Return(errors.New("timeout"))

	h := handlers.NewHealthHandler(db, cache, nil, helpers.LoadTestConfig(), helpers.TestLogger())

	w := httptest.NewRecorder()
	h.Readiness(w, httptest.NewRequest(http.MethodGet, "/ready", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var resp struct {
		Ready   bool              `json:"ready"`
		Details map[string]string `json:"details"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Ready)
	assert.Equal(t, "ready", resp.Details["database"])
	assert.Equal(t, "not ready", resp.Details["redis"])
}
