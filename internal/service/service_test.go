package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/maheshrc27/postcraft/internal/testutil"
	"github.com/maheshrc27/postcraft/internal/timezone"
	"github.com/stretchr/testify/require"
)

// stubAI returns a canned draft and records every request.
type stubAI struct {
	mu    sync.Mutex
	calls []GenerateRequest
	post  *GeneratedPost
	err   error
}

func (s *stubAI) Generate(_ context.Context, req GenerateRequest) (*GeneratedPost, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, req)
	if s.err != nil {
		return nil, s.err
	}
	return s.post, nil
}

type harness struct {
	clock     *testutil.Clock
	store     *testutil.Store
	ai        *stubAI
	posts     PostService
	schedules ScheduleService
	settings  SettingsService
	loc       *time.Location
}

func newHarness(t *testing.T, start time.Time) *harness {
	t.Helper()
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	clock := testutil.NewClock(start)
	store := testutil.NewStore(clock.Now)
	ai := &stubAI{post: &GeneratedPost{
		Hook:         "Big news.",
		Content:      "We shipped it.",
		Hashtags:     []string{"#launch", "#golang"},
		CallToAction: "Try it today.",
	}}
	settings := NewSettingsService(store.Settings())

	return &harness{
		clock:     clock,
		store:     store,
		ai:        ai,
		posts:     NewPostService(store.Posts(), store.Schedules(), ai),
		schedules: NewScheduleService(store.Posts(), store.Schedules(), settings, timezone.NewCalendar(loc, clock.Now)),
		settings:  settings,
		loc:       loc,
	}
}
