package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	appprogress "github.com/hsa8903-tech/ulsan-daun/internal/application/progress"
	"github.com/hsa8903-tech/ulsan-daun/internal/domain/progress"
	"github.com/hsa8903-tech/ulsan-daun/internal/infrastructure/persistence"
	"github.com/hsa8903-tech/ulsan-daun/internal/interfaces/http/dto"
	"github.com/hsa8903-tech/ulsan-daun/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var (
	kst     = time.FixedZone("KST", 9*60*60)
	testNow = time.Date(2026, 10, 18, 20, 0, 0, 0, time.UTC)
)

func openService(t *testing.T, repo progress.SnapshotRepository) *appprogress.Service {
	t.Helper()
	if repo == nil {
		repo = persistence.NewFileSnapshotRepository(filepath.Join(t.TempDir(), "snapshot.json"))
	}
	svc, err := appprogress.Open(context.Background(), appprogress.Deps{
		Repository: repo,
		Clock:      func() time.Time { return testNow },
		Location:   kst,
		Buildings:  progress.BuildingRange(101, 103),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close(context.Background()) })
	return svc
}

func newTestEngine(registrars ...interface{ RegisterRoutes(*gin.RouterGroup) }) *gin.Engine {
	middleware.SetupValidator()
	engine := gin.New()
	engine.Use(middleware.RequestID())
	api := engine.Group("/api/v1")
	for _, r := range registrars {
		r.RegisterRoutes(api)
	}
	return engine
}

func doRequest(t *testing.T, engine *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

// decode unmarshals the envelope and, when out is non-nil, its data field
func decode(t *testing.T, w *httptest.ResponseRecorder, out any) dto.Response {
	t.Helper()
	var raw struct {
		dto.Response
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &raw))
	if out != nil {
		require.NoError(t, json.Unmarshal(raw.Data, out))
	}
	return raw.Response
}

func intPtr(v int) *int { return &v }
