package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/krishimitra/api/database"
	"github.com/krishimitra/api/testutils"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxtest"
)

func probe(t *testing.T, handler echo.HandlerFunc) (int, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	require.NoError(t, handler(c))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec.Code, body
}

func TestLiveness(t *testing.T) {
	svc := NewService(testutils.SetupTestDB(t), nil)

	code, body := probe(t, svc.Liveness)

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])
}

func TestReadiness(t *testing.T) {
	t.Run("not started", func(t *testing.T) {
		svc := NewService(testutils.SetupTestDB(t), nil)

		code, body := probe(t, svc.Readiness)

		assert.Equal(t, http.StatusServiceUnavailable, code)
		assert.Equal(t, map[string]any{"app": "starting"}, body["checks"])
	})

	t.Run("ready", func(t *testing.T) {
		svc := NewService(testutils.SetupTestDB(t), nil)
		svc.SetReady(true)

		code, body := probe(t, svc.Readiness)

		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "ready", body["status"])
	})

	t.Run("database closed", func(t *testing.T) {
		db := testutils.SetupTestDB(t)
		svc := NewService(db, nil)
		svc.SetReady(true)
		require.NoError(t, database.Close(db))

		code, body := probe(t, svc.Readiness)

		assert.Equal(t, http.StatusServiceUnavailable, code)
		assert.Equal(t, map[string]any{"database": "unreachable"}, body["checks"])
	})
}

func TestLifecycle(t *testing.T) {
	svc := NewService(testutils.SetupTestDB(t), nil)
	lc := fxtest.NewLifecycle(t)
	registerLifecycle(lc, svc)

	assert.False(t, svc.IsReady())
	lc.RequireStart()
	assert.True(t, svc.IsReady())
	assert.Nil(t, svc.Check(context.Background()))
	lc.RequireStop()
	assert.False(t, svc.IsReady())
}
