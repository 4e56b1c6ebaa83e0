package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idilsaglam/summit/internal/app"
	"github.com/idilsaglam/summit/internal/goals"
	"github.com/idilsaglam/summit/internal/model"
	"github.com/idilsaglam/summit/internal/progress"
	"github.com/idilsaglam/summit/internal/store"
)

func newTestServer(t *testing.T) (*app.App, http.Handler) {
	t.Helper()
	logger, _ := test.NewNullLogger()
	now := func() time.Time { return time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC) }
	a, err := app.New(context.Background(), store.NewMemory(), app.Options{Now: now, Log: logger})
	require.NoError(t, err)
	return a, New(a, logger, prometheus.NewRegistry()).Handler()
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestCreateListToggle(t *testing.T) {
	_, h := newTestServer(t)

	rec := do(t, h, http.MethodPost, "/api/goals", `{"text":"Run 5k","tags":["#Health"],"time":"7:30"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created model.Goal
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "Run 5k", created.Text)
	assert.Equal(t, []string{"health"}, created.Tags)
	assert.Equal(t, "07:30", created.Time)

	do(t, h, http.MethodPost, "/api/goals", `{"text":"Read"}`)

	rec = do(t, h, http.MethodGet, "/api/goals", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []model.Goal
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 2)

	rec = do(t, h, http.MethodGet, "/api/goals?tag=health", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)

	rec = do(t, h, http.MethodPost, "/api/goals/"+itoa(created.ID)+"/toggle", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/progress", "")
	var snap progress.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, 50, snap.Percent)
	assert.Equal(t, 1, snap.Done)
}

func TestCreate_Validation(t *testing.T) {
	_, h := newTestServer(t)

	rec := do(t, h, http.MethodPost, "/api/goals", `{"text":"   "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"error"`)

	rec = do(t, h, http.MethodPost, "/api/goals", `{"text":"x","recurring":"hourly"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/goals", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestToggleDelete_NotFound(t *testing.T) {
	_, h := newTestServer(t)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodPost, "/api/goals/42/toggle", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodDelete, "/api/goals/42", "").Code)
}

func TestDelete(t *testing.T) {
	a, h := newTestServer(t)
	g, err := a.Add(context.Background(), goalDraft("Stretch"))
	require.NoError(t, err)

	rec := do(t, h, http.MethodDelete, "/api/goals/"+itoa(g.ID), "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, 0, a.Goals.Len())
}

func TestStreakAndHistory(t *testing.T) {
	a, h := newTestServer(t)
	g, err := a.Add(context.Background(), goalDraft("Stretch"))
	require.NoError(t, err)
	_, err = a.Toggle(context.Background(), g.ID)
	require.NoError(t, err)

	rec := do(t, h, http.MethodGet, "/api/streak", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var st app.StreakStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	assert.Equal(t, 1, st.Current)
	assert.Equal(t, 80, st.Threshold)

	rec = do(t, h, http.MethodGet, "/api/history?days=3", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var days []progress.Day
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &days))
	require.Len(t, days, 3)
	assert.Equal(t, "2025-03-10", days[2].Date)
	assert.Equal(t, 100, days[2].Percent)

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/api/history?days=0", "").Code)
}

func TestMetricsEndpoint(t *testing.T) {
	_, h := newTestServer(t)
	do(t, h, http.MethodGet, "/api/progress", "")

	rec := do(t, h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `summit_http_requests_total{method="GET",route="/api/progress",status="200"} 1`)
}

func itoa(id int64) string { return strconv.FormatInt(id, 10) }

func goalDraft(text string) goals.Draft { return goals.Draft{Text: text} }
