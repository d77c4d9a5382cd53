package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/maheshrc27/postcraft/internal/models"
	"github.com/maheshrc27/postcraft/internal/repository"
)

// Store is an in-memory stand-in for the Postgres schema. It keeps the same
// guarantees the SQL layer gives: one active schedule per post, published
// posts and schedules never regress, and deleting a post removes its
// schedules. Each repository view shares the same data and lock.
type Store struct {
	mu    sync.Mutex
	clock func() time.Time

	posts     map[string]*models.Post
	schedules map[string]*models.ScheduledPost
	prefs     map[string]*models.UserPreferences
	recs      []*models.PublishReconciliation
	order     map[string]int
	seq       int

	// Optional fault hooks. A non-nil error aborts the write before anything
	// is changed.
	OnSetStatus     func(postID string, status models.PostStatus) error
	OnMarkPublished func(scheduleID string) error
	// OnCommit fails PublishDue as an unacknowledged commit. Nothing is
	// applied.
	OnCommit func(scheduleID string) error
}

func NewStore(clock func() time.Time) *Store {
	return &Store{
		clock:     clock,
		posts:     make(map[string]*models.Post),
		schedules: make(map[string]*models.ScheduledPost),
		prefs:     make(map[string]*models.UserPreferences),
		order:     make(map[string]int),
	}
}

func (s *Store) Posts() *PostStore                     { return &PostStore{s} }
func (s *Store) Schedules() *ScheduleStore             { return &ScheduleStore{s} }
func (s *Store) Settings() *SettingsStore              { return &SettingsStore{s} }
func (s *Store) Reconciliations() *ReconciliationStore { return &ReconciliationStore{s} }

var (
	_ repository.PostRepository                  = (*PostStore)(nil)
	_ repository.ScheduledPostRepository         = (*ScheduleStore)(nil)
	_ repository.SettingsRepository              = (*SettingsStore)(nil)
	_ repository.PublishReconciliationRepository = (*ReconciliationStore)(nil)
)

func (s *Store) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%d", prefix, s.seq)
}

func (s *Store) now() time.Time {
	return s.clock().UTC()
}

// Post returns a copy of the stored post, or nil.
func (s *Store) Post(id string) *models.Post {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[id]
	if !ok {
		return nil
	}
	cp := *p
	return &cp
}

// SchedulesFor returns copies of every schedule row for postID, active or not.
func (s *Store) SchedulesFor(postID string) []models.ScheduledPost {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.ScheduledPost
	for _, sp := range s.schedules {
		if sp.PostID == postID {
			out = append(out, *sp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// ReconciliationLog returns copies of every reconciliation record.
func (s *Store) ReconciliationLog() []models.PublishReconciliation {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.PublishReconciliation, len(s.recs))
	for i, r := range s.recs {
		out[i] = *r
	}
	return out
}

func (s *Store) activeScheduleLocked(postID string) *models.ScheduledPost {
	for _, sp := range s.schedules {
		if sp.PostID == postID && !sp.IsPublished {
			return sp
		}
	}
	return nil
}

func (s *Store) setStatusLocked(id string, status models.PostStatus) error {
	if !status.Valid() {
		return models.NewValidationError(fmt.Sprintf("unknown post status %q", status))
	}
	if s.OnSetStatus != nil {
		if err := s.OnSetStatus(id, status); err != nil {
			return err
		}
	}
	return s.applyStatusLocked(id, status)
}

func (s *Store) applyStatusLocked(id string, status models.PostStatus) error {
	p, ok := s.posts[id]
	if !ok {
		return models.NewNotFoundError("post", id)
	}
	if p.Status == models.PostStatusPublished {
		if status == models.PostStatusPublished {
			return nil
		}
		return models.NewInvalidStateError(fmt.Sprintf("post %s is already published", id))
	}

	now := s.now()
	p.Status = status
	p.UpdatedAt = now
	if status == models.PostStatusPublished {
		p.PublishedAt = &now
	} else {
		p.PublishedAt = nil
	}
	return nil
}

func (s *Store) ownedPostLocked(id, ownerID string) (*models.Post, error) {
	p, ok := s.posts[id]
	if !ok || p.UserID != ownerID {
		return nil, models.NewNotFoundError("post", id)
	}
	return p, nil
}

type PostStore struct{ s *Store }

func (r *PostStore) Create(_ context.Context, _ *sql.Tx, post *models.Post) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if post.ID == "" {
		post.ID = s.nextID("post")
	}
	now := s.now()
	post.Status = models.PostStatusDraft
	post.PublishedAt = nil
	post.CreatedAt = now
	post.UpdatedAt = now

	cp := *post
	s.posts[post.ID] = &cp
	s.seq++
	s.order[post.ID] = s.seq
	return nil
}

func (r *PostStore) GetByID(_ context.Context, id, ownerID string) (*models.Post, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.ownedPostLocked(id, ownerID)
	if err != nil {
		return nil, err
	}
	cp := *p
	return &cp, nil
}

func (r *PostStore) Update(_ context.Context, id, ownerID string, patch models.PostPatch) (*models.Post, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.ownedPostLocked(id, ownerID)
	if err != nil {
		return nil, err
	}
	if patch.Content != nil {
		p.Content = *patch.Content
	}
	if patch.WrittenTone != nil {
		p.WrittenTone = emptyToNil(*patch.WrittenTone)
	}
	if patch.AssociatedAccount != nil {
		p.AssociatedAccount = emptyToNil(*patch.AssociatedAccount)
	}
	p.UpdatedAt = s.now()

	cp := *p
	return &cp, nil
}

func (r *PostStore) SetStatus(_ context.Context, _ *sql.Tx, id string, status models.PostStatus) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setStatusLocked(id, status)
}

func (r *PostStore) ListByOwner(_ context.Context, ownerID string) ([]*models.Post, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	posts := []*models.Post{}
	for _, p := range s.posts {
		if p.UserID == ownerID {
			cp := *p
			posts = append(posts, &cp)
		}
	}
	sort.Slice(posts, func(i, j int) bool {
		if !posts[i].CreatedAt.Equal(posts[j].CreatedAt) {
			return posts[i].CreatedAt.After(posts[j].CreatedAt)
		}
		return s.order[posts[i].ID] > s.order[posts[j].ID]
	})
	return posts, nil
}

func (r *PostStore) Remove(_ context.Context, id, ownerID string) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.ownedPostLocked(id, ownerID); err != nil {
		return err
	}
	delete(s.posts, id)
	for sid, sp := range s.schedules {
		if sp.PostID == id {
			delete(s.schedules, sid)
		}
	}
	return nil
}

type ScheduleStore struct{ s *Store }

func (r *ScheduleStore) FindActiveByPost(_ context.Context, postID string) (*models.ScheduledPost, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	sp := s.activeScheduleLocked(postID)
	if sp == nil {
		return nil, nil
	}
	cp := *sp
	return &cp, nil
}

func (r *ScheduleStore) Upsert(_ context.Context, postID, ownerID string, instant time.Time) (*models.ScheduledPost, bool, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.ownedPostLocked(postID, ownerID)
	if err != nil {
		return nil, false, err
	}
	if p.Status == models.PostStatusPublished {
		return nil, false, models.NewInvalidStateError(fmt.Sprintf("post %s is already published", postID))
	}
	if err := s.setStatusLocked(postID, models.PostStatusScheduled); err != nil {
		return nil, false, err
	}

	now := s.now()
	if sp := s.activeScheduleLocked(postID); sp != nil {
		sp.ScheduleTime = instant.UTC()
		sp.UpdatedAt = now
		cp := *sp
		return &cp, true, nil
	}

	sp := &models.ScheduledPost{
		ID:           s.nextID("sched"),
		PostID:       postID,
		UserID:       ownerID,
		ScheduleTime: instant.UTC(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.schedules[sp.ID] = sp
	cp := *sp
	return &cp, false, nil
}

func (r *ScheduleStore) MarkPublished(_ context.Context, _ *sql.Tx, id string) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.OnMarkPublished != nil {
		if err := s.OnMarkPublished(id); err != nil {
			return err
		}
	}
	sp, ok := s.schedules[id]
	if !ok {
		return models.NewNotFoundError("scheduled post", id)
	}
	if !sp.IsPublished {
		sp.IsPublished = true
		sp.UpdatedAt = s.now()
	}
	return nil
}

func (r *ScheduleStore) PublishPost(_ context.Context, postID, ownerID string) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.ownedPostLocked(postID, ownerID); err != nil {
		return err
	}
	if err := s.setStatusLocked(postID, models.PostStatusPublished); err != nil {
		return err
	}
	if sp := s.activeScheduleLocked(postID); sp != nil {
		sp.IsPublished = true
		sp.UpdatedAt = s.now()
	}
	return nil
}

func (r *ScheduleStore) PublishDue(_ context.Context, entry *models.DuePost, asOf time.Time) (bool, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.ownedPostLocked(entry.PostID, entry.UserID); err != nil {
		return false, nil
	}
	sp, ok := s.schedules[entry.ScheduleID]
	if !ok || sp.PostID != entry.PostID || sp.IsPublished || sp.ScheduleTime.After(asOf) {
		return false, nil
	}

	if s.OnMarkPublished != nil {
		if err := s.OnMarkPublished(sp.ID); err != nil {
			return false, err
		}
	}
	if s.OnSetStatus != nil {
		if err := s.OnSetStatus(entry.PostID, models.PostStatusPublished); err != nil {
			return false, err
		}
	}
	if s.OnCommit != nil {
		if err := s.OnCommit(sp.ID); err != nil {
			return false, models.NewPersistenceError("scheduled_posts.publish_due", fmt.Errorf("%w: %v", repository.ErrCommitOutcomeUnknown, err))
		}
	}

	if err := s.applyStatusLocked(entry.PostID, models.PostStatusPublished); err != nil {
		return false, err
	}
	sp.IsPublished = true
	sp.UpdatedAt = s.now()
	return true, nil
}

func (r *ScheduleStore) ListDueUnpublished(_ context.Context, asOf time.Time) ([]*models.DuePost, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	due := []*models.DuePost{}
	for _, sp := range s.schedules {
		if sp.IsPublished || sp.ScheduleTime.After(asOf) {
			continue
		}
		p, ok := s.posts[sp.PostID]
		if !ok {
			continue
		}
		due = append(due, &models.DuePost{
			ScheduleID:   sp.ID,
			PostID:       sp.PostID,
			UserID:       sp.UserID,
			ScheduleTime: sp.ScheduleTime,
			Content:      p.Content,
		})
	}
	sort.Slice(due, func(i, j int) bool { return due[i].ScheduleTime.Before(due[j].ScheduleTime) })
	return due, nil
}

func (r *ScheduleStore) ListByOwner(_ context.Context, ownerID string) ([]*models.ScheduledPostView, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	views := []*models.ScheduledPostView{}
	for _, sp := range s.schedules {
		if sp.UserID != ownerID {
			continue
		}
		p := s.posts[sp.PostID]
		views = append(views, &models.ScheduledPostView{
			ID:           sp.ID,
			PostID:       sp.PostID,
			ScheduleTime: sp.ScheduleTime,
			IsPublished:  sp.IsPublished,
			CreatedAt:    sp.CreatedAt,
			Content:      p.Content,
			Status:       p.Status,
			PublishedAt:  p.PublishedAt,
		})
	}
	sort.Slice(views, func(i, j int) bool { return views[i].ScheduleTime.Before(views[j].ScheduleTime) })
	return views, nil
}

type SettingsStore struct{ s *Store }

func (r *SettingsStore) GetByUserID(_ context.Context, userID string) (*models.UserPreferences, bool, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.prefs[userID]
	if !ok {
		return nil, false, nil
	}
	cp := *p
	return &cp, true, nil
}

func (r *SettingsStore) Upsert(_ context.Context, prefs *models.UserPreferences) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	existing, ok := s.prefs[prefs.UserID]
	if !ok {
		existing = &models.UserPreferences{ID: s.nextID("pref"), UserID: prefs.UserID, CreatedAt: now}
		s.prefs[prefs.UserID] = existing
	}
	existing.PreferredPostingTime = prefs.PreferredPostingTime
	existing.ContentTone = prefs.ContentTone
	existing.UpdatedAt = now

	*prefs = *existing
	return nil
}

type ReconciliationStore struct{ s *Store }

func (r *ReconciliationStore) Create(_ context.Context, rec *models.PublishReconciliation) (int64, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	rec.ID = int64(len(s.recs) + 1)
	rec.CreatedAt = s.now()
	cp := *rec
	s.recs = append(s.recs, &cp)
	return rec.ID, nil
}

func (r *ReconciliationStore) ListRecent(_ context.Context, limit int) ([]*models.PublishReconciliation, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 {
		limit = 100
	}
	out := []*models.PublishReconciliation{}
	for i := len(s.recs) - 1; i >= 0 && len(out) < limit; i-- {
		cp := *s.recs[i]
		out = append(out, &cp)
	}
	return out, nil
}

func emptyToNil(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
