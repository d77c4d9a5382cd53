package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	config "github.com/maheshrc27/postcraft/configs"
	"github.com/maheshrc27/postcraft/internal/api/middleware"
	job "github.com/maheshrc27/postcraft/internal/jobs"
	"github.com/maheshrc27/postcraft/internal/models"
	"github.com/maheshrc27/postcraft/internal/service"
	"github.com/maheshrc27/postcraft/internal/testutil"
	"github.com/maheshrc27/postcraft/internal/timezone"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAI struct {
	err error
}

func (f *fakeAI) Generate(_ context.Context, req service.GenerateRequest) (*service.GeneratedPost, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &service.GeneratedPost{Hook: "Hook", Content: req.Topic, CallToAction: "Go"}, nil
}

type testApp struct {
	app   *fiber.App
	clock *testutil.Clock
	store *testutil.Store
	ai    *fakeAI
}

func newTestApp(t *testing.T, start time.Time) *testApp {
	t.Helper()
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	clock := testutil.NewClock(start)
	store := testutil.NewStore(clock.Now)
	ai := &fakeAI{}

	settingsService := service.NewSettingsService(store.Settings())
	postService := service.NewPostService(store.Posts(), store.Schedules(), ai)
	scheduleService := service.NewScheduleService(store.Posts(), store.Schedules(), settingsService, timezone.NewCalendar(ny, clock.Now))
	sweeper := job.NewDuePostSweeper(config.Sweep{Concurrency: 2, MaxAttempts: 1}, store.Schedules(), store.Reconciliations(), nil, clock.Now)

	app := fiber.New()

	cron := NewCronHandler(sweeper, store.Reconciliations())
	cronGroup := app.Group("/api/cron", middleware.CronSecret("s3cret"))
	cronGroup.Post("/process-scheduled-posts", cron.ProcessScheduledPosts)
	cronGroup.Get("/reconciliations", cron.ListReconciliations)

	api := app.Group("/api", func(c *fiber.Ctx) error {
		// header values point into a buffer fasthttp reuses across requests
		c.Locals("user_id", utils.CopyString(c.Get("X-Test-User")))
		return c.Next()
	}, middleware.ViewerTimezone())

	post := NewPostHandler(postService)
	api.Post("/posts/create", post.CreatePost)
	api.Post("/posts/generate", post.GeneratePost)
	api.Post("/posts/regenerate", post.RegeneratePost)
	api.Get("/posts", post.ListPosts)
	api.Post("/posts/update", post.UpdatePost)
	api.Post("/posts/publish", post.PublishPost)
	api.Post("/posts/remove", post.RemovePost)

	schedule := NewScheduleHandler(scheduleService)
	api.Post("/posts/schedule", schedule.SchedulePost)
	api.Get("/posts/scheduled", schedule.ListScheduled)

	settings := NewSettingsHandler(settingsService)
	api.Get("/settings/preferences", settings.GetPreferences)
	api.Post("/settings/update", settings.UpdateSettings)

	return &testApp{app: app, clock: clock, store: store, ai: ai}
}

func (a *testApp) do(t *testing.T, method, target, user string, payload any) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, target, reader)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != "" {
		req.Header.Set("X-Test-User", user)
	}

	resp, err := a.app.Test(req)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	out := map[string]any{}
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return resp.StatusCode, out
}

func (a *testApp) createPost(t *testing.T, user, content string) string {
	t.Helper()
	status, body := a.do(t, http.MethodPost, "/api/posts/create", user, map[string]any{"content": content})
	require.Equal(t, fiber.StatusCreated, status)
	return body["id"].(string)
}

func TestRespondError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		status    int
		retryable bool
	}{
		{"not found", models.NewNotFoundError("post", "p1"), fiber.StatusNotFound, false},
		{"invalid state", models.NewInvalidStateError("published"), fiber.StatusConflict, false},
		{"validation", models.NewValidationError("bad"), fiber.StatusBadRequest, false},
		{"upstream", models.NewUpstreamError("ai down", errors.New("eof")), fiber.StatusBadGateway, true},
		{"persistence", models.NewPersistenceError("posts.create", errors.New("conn")), fiber.StatusInternalServerError, true},
		{"unauthorized", models.NewUnauthorizedError("no"), fiber.StatusUnauthorized, false},
		{"plain error", errors.New("boom"), fiber.StatusInternalServerError, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/", func(c *fiber.Ctx) error { return respondError(c, tt.err) })

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)

			var body map[string]any
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.NotEmpty(t, body["error"])
			assert.Equal(t, tt.retryable, body["retryable"] == true)
		})
	}
}

func TestPostHandler_Lifecycle(t *testing.T) {
	a := newTestApp(t, time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC))
	id := a.createPost(t, "user-1", "first draft")

	status, body := a.do(t, http.MethodGet, "/api/posts?id="+id, "user-1", nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "draft", body["status"])

	status, _ = a.do(t, http.MethodGet, "/api/posts?id="+id, "user-2", nil)
	assert.Equal(t, fiber.StatusNotFound, status)

	status, body = a.do(t, http.MethodPost, "/api/posts/update?id="+id, "user-1", map[string]any{"content": "second draft"})
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "second draft", body["content"])

	status, body = a.do(t, http.MethodPost, "/api/posts/publish?id="+id, "user-1", nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "published", body["status"])
	assert.NotNil(t, body["published_at"])

	status, _ = a.do(t, http.MethodPost, "/api/posts/remove?id="+id, "user-1", nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Nil(t, a.store.Post(id))
}

func TestPostHandler_OwnershipSurvivesLaterRequests(t *testing.T) {
	a := newTestApp(t, time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC))
	id := a.createPost(t, "user-1", "mine")

	for i := 0; i < 3; i++ {
		status, _ := a.do(t, http.MethodGet, "/api/posts?id="+id, "user-2", nil)
		assert.Equal(t, fiber.StatusNotFound, status)
		status, _ = a.do(t, http.MethodPost, "/api/posts/schedule?id="+id, "user-2", nil)
		assert.Equal(t, fiber.StatusNotFound, status)
	}

	assert.Equal(t, "user-1", a.store.Post(id).UserID)
	assert.Empty(t, a.store.SchedulesFor(id))
}

func TestPostHandler_Generate(t *testing.T) {
	a := newTestApp(t, time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC))

	status, body := a.do(t, http.MethodPost, "/api/posts/generate", "user-1", map[string]any{"topic": "launch", "tone": "casual"})
	assert.Equal(t, fiber.StatusCreated, status)
	assert.Equal(t, "Hook\n\nlaunch\n\nGo", body["content"])

	status, _ = a.do(t, http.MethodPost, "/api/posts/generate", "user-1", map[string]any{"tone": "casual"})
	assert.Equal(t, fiber.StatusBadRequest, status)

	a.ai.err = models.NewUpstreamError("AI service unavailable", errors.New("503"))
	status, body = a.do(t, http.MethodPost, "/api/posts/generate", "user-1", map[string]any{"topic": "launch", "tone": "casual"})
	assert.Equal(t, fiber.StatusBadGateway, status)
	assert.Equal(t, true, body["retryable"])
}

func TestScheduleHandler_ScheduleAndSweep(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	a := newTestApp(t, time.Date(2025, 1, 1, 10, 0, 0, 0, ny))
	id := a.createPost(t, "user-1", "Launch day!")

	status, body := a.do(t, http.MethodPost, "/api/posts/schedule?id="+id, "user-1", map[string]any{"custom_time": "2025-01-02T09:00"})
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, false, body["rescheduled"])
	assert.Equal(t, "Post scheduled successfully", body["message"])

	status, body = a.do(t, http.MethodPost, "/api/posts/schedule?id="+id, "user-1", map[string]any{"date": "2025-01-02", "time": "10:00"})
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, true, body["rescheduled"])
	assert.Len(t, a.store.SchedulesFor(id), 1)

	a.clock.Set(time.Date(2025, 1, 2, 10, 0, 1, 0, ny))

	req := httptest.NewRequest(http.MethodPost, "/api/cron/process-scheduled-posts", nil)
	resp, err := a.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	req = httptest.NewRequest(http.MethodPost, "/api/cron/process-scheduled-posts", nil)
	req.Header.Set("Authorization", "Bearer s3cret")
	resp, err = a.app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var summary map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&summary))
	assert.Equal(t, true, summary["success"])
	assert.EqualValues(t, 1, summary["processed"])
	assert.Len(t, summary["posts"], 1)

	assert.Equal(t, models.PostStatusPublished, a.store.Post(id).Status)

	status, _ = a.do(t, http.MethodPost, "/api/posts/schedule?id="+id, "user-1", nil)
	assert.Equal(t, fiber.StatusConflict, status)
}

func TestScheduleHandler_BadInput(t *testing.T) {
	a := newTestApp(t, time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC))
	id := a.createPost(t, "user-1", "draft")

	status, _ := a.do(t, http.MethodPost, "/api/posts/schedule?id="+id, "user-1", map[string]any{"custom_time": "tomorrow"})
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, _ = a.do(t, http.MethodPost, "/api/posts/schedule?id="+id, "user-1", map[string]any{"date": "2025-01-02"})
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, _ = a.do(t, http.MethodPost, "/api/posts/schedule?id=missing", "user-1", nil)
	assert.Equal(t, fiber.StatusNotFound, status)

	status, _ = a.do(t, http.MethodPost, "/api/posts/schedule?id="+id, "user-2", nil)
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestScheduleHandler_ListScheduledInViewerZone(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	a := newTestApp(t, time.Date(2025, 1, 1, 10, 0, 0, 0, ny))
	id := a.createPost(t, "user-1", "draft")

	// no preference on record: next 9am
	status, _ := a.do(t, http.MethodPost, "/api/posts/schedule?id="+id, "user-1", nil)
	require.Equal(t, fiber.StatusOK, status)

	req := httptest.NewRequest(http.MethodGet, "/api/posts/scheduled", nil)
	req.Header.Set("X-Test-User", "user-1")
	req.Header.Set(middleware.TimezoneHeader, "America/New_York")
	resp, err := a.app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var list []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	require.Len(t, list, 1)
	assert.Equal(t, "Tomorrow, 9:00 AM", list[0]["display_time"])
	assert.Equal(t, "23h 0m remaining", list[0]["time_remaining"])
}

func TestSettingsHandler(t *testing.T) {
	a := newTestApp(t, time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC))

	status, body := a.do(t, http.MethodGet, "/api/settings/preferences", "user-1", nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "9am", body["preferred_posting_time"])
	assert.Equal(t, "professional", body["content_tone"])

	status, body = a.do(t, http.MethodPost, "/api/settings/update", "user-1", map[string]any{"preferred_posting_time": "3pm", "content_tone": "witty"})
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "3pm", body["preferred_posting_time"])

	status, _ = a.do(t, http.MethodPost, "/api/settings/update", "user-1", map[string]any{"preferred_posting_time": "3am"})
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestCronHandler_Reconciliations(t *testing.T) {
	a := newTestApp(t, time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC))
	_, err := a.store.Reconciliations().Create(context.Background(), &models.PublishReconciliation{ScheduleID: "s1", PostID: "p1", UserID: "u1", ErrorMessage: "boom"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/cron/reconciliations", nil)
	req.Header.Set("Authorization", "Bearer s3cret")
	resp, err := a.app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var recs []models.PublishReconciliation
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&recs))
	require.Len(t, recs, 1)
	assert.Equal(t, "s1", recs[0].ScheduleID)
}
