package job

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	config "github.com/maheshrc27/postcraft/configs"
	"github.com/maheshrc27/postcraft/internal/models"
	"github.com/maheshrc27/postcraft/internal/observability"
	"github.com/maheshrc27/postcraft/internal/repository"
	"golang.org/x/sync/errgroup"
)

const previewLength = 100

// SummaryArchiver stores a copy of a sweep summary.
type SummaryArchiver interface {
	ArchiveSweepReport(ctx context.Context, runAt time.Time, report any) error
}

type PublishedEntry struct {
	ScheduleID    string    `json:"id"`
	PostID        string    `json:"post_id"`
	Content       string    `json:"content"`
	ScheduledTime time.Time `json:"scheduledTime"`
}

type FailedEntry struct {
	ScheduleID string `json:"id"`
	PostID     string `json:"post_id"`
	Op         string `json:"op"`
	Error      string `json:"error"`
	// NeedsReconciliation is set when the publish commit failed without a
	// clear outcome.
	NeedsReconciliation bool `json:"needs_reconciliation"`
}

type SweepSummary struct {
	RunAt     time.Time        `json:"run_at"`
	Found     int              `json:"found"`
	Processed int              `json:"processed"`
	// Skipped counts listed entries that were no longer due when processed,
	// for example rescheduled or published by another run.
	Skipped   int              `json:"skipped"`
	Posts     []PublishedEntry `json:"posts"`
	Failed    []FailedEntry    `json:"failed"`
}

// DuePostSweeper publishes every unpublished schedule whose time has passed.
// Each run is stateless: everything it needs is read from the store, so runs
// can be repeated or overlap without double publishing.
type DuePostSweeper struct {
	sr       repository.ScheduledPostRepository
	rr       repository.PublishReconciliationRepository
	archiver SummaryArchiver
	cfg      config.Sweep
	now      func() time.Time

	scheduled sync.Mutex
}

func NewDuePostSweeper(
	cfg config.Sweep,
	sr repository.ScheduledPostRepository,
	rr repository.PublishReconciliationRepository,
	archiver SummaryArchiver,
	now func() time.Time) *DuePostSweeper {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	if cfg.EntryTimeout <= 0 {
		cfg.EntryTimeout = 10 * time.Second
	}
	if now == nil {
		now = time.Now
	}
	return &DuePostSweeper{
		sr:       sr,
		rr:       rr,
		archiver: archiver,
		cfg:      cfg,
		now:      now,
	}
}

// RunScheduled is the cron entry point. A tick that fires while the previous
// run is still going is skipped.
func (j *DuePostSweeper) RunScheduled() {
	if !j.scheduled.TryLock() {
		slog.Warn("previous sweep still running, skipping tick")
		return
	}
	defer j.scheduled.Unlock()

	if _, err := j.Run(context.Background()); err != nil {
		slog.Error("scheduled sweep failed", "error", err)
	}
}

// Run performs one sweep. It fails only when the due list cannot be read;
// per-entry failures are reported in the summary.
func (j *DuePostSweeper) Run(ctx context.Context) (*SweepSummary, error) {
	started := time.Now()
	defer func() { observability.SweepDuration.Observe(time.Since(started).Seconds()) }()

	now := j.now()
	due, err := j.sr.ListDueUnpublished(ctx, now)
	if err != nil {
		observability.SweepRunsTotal.WithLabelValues("error").Inc()
		slog.Error("listing due posts failed", "error", err)
		return nil, err
	}

	summary := &SweepSummary{
		RunAt:  now,
		Found:  len(due),
		Posts:  []PublishedEntry{},
		Failed: []FailedEntry{},
	}

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(j.cfg.Concurrency)

	for _, entry := range due {
		g.Go(func() error {
			published, failed := j.processEntry(ctx, entry, now)

			mu.Lock()
			defer mu.Unlock()
			if failed != nil {
				summary.Failed = append(summary.Failed, *failed)
				observability.SweepEntriesTotal.WithLabelValues("failed").Inc()
				return nil
			}
			if !published {
				summary.Skipped++
				observability.SweepEntriesTotal.WithLabelValues("skipped").Inc()
				return nil
			}
			summary.Processed++
			summary.Posts = append(summary.Posts, PublishedEntry{
				ScheduleID:    entry.ScheduleID,
				PostID:        entry.PostID,
				Content:       Preview(entry.Content),
				ScheduledTime: entry.ScheduleTime,
			})
			observability.SweepEntriesTotal.WithLabelValues("published").Inc()
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(summary.Posts, func(a, b int) bool {
		return lessEntry(summary.Posts[a].ScheduledTime, summary.Posts[a].ScheduleID, summary.Posts[b].ScheduledTime, summary.Posts[b].ScheduleID)
	})
	sort.Slice(summary.Failed, func(a, b int) bool { return summary.Failed[a].ScheduleID < summary.Failed[b].ScheduleID })

	outcome := "ok"
	if len(summary.Failed) > 0 {
		outcome = "partial"
	}
	observability.SweepRunsTotal.WithLabelValues(outcome).Inc()

	slog.Info("sweep finished",
		"found", summary.Found,
		"processed", summary.Processed,
		"skipped", summary.Skipped,
		"failed", len(summary.Failed),
	)

	if j.archiver != nil && summary.Found > 0 {
		if err := j.archiver.ArchiveSweepReport(ctx, now, summary); err != nil {
			slog.Warn("archiving sweep report failed", "error", err)
		}
	}

	return summary, nil
}

func lessEntry(ta time.Time, ida string, tb time.Time, idb string) bool {
	if !ta.Equal(tb) {
		return ta.Before(tb)
	}
	return ida < idb
}

// processEntry publishes the schedule and its post in one store transaction.
// An entry that stopped being due after it was listed is skipped. When the
// commit outcome is unknown a reconciliation record is written, since the
// pair may or may not have been published.
func (j *DuePostSweeper) processEntry(parent context.Context, entry *models.DuePost, asOf time.Time) (bool, *FailedEntry) {
	ctx, cancel := context.WithTimeout(parent, j.cfg.EntryTimeout)
	defer cancel()

	log := slog.With("schedule_id", entry.ScheduleID, "post_id", entry.PostID)

	var published bool
	err := j.retry(ctx, func() error {
		var err error
		published, err = j.sr.PublishDue(ctx, entry, asOf)
		return err
	})
	if err != nil {
		failed := &FailedEntry{ScheduleID: entry.ScheduleID, PostID: entry.PostID, Op: "publish_due", Error: err.Error()}
		if errors.Is(err, repository.ErrCommitOutcomeUnknown) {
			log.Error("reconciliation required", "op", "publish_due", "user_id", entry.UserID, "error", err)
			j.recordReconciliation(parent, entry, err)
			failed.NeedsReconciliation = true
			return false, failed
		}
		log.Error("publishing due post failed", "op", "publish_due", "error", err)
		return false, failed
	}

	if !published {
		log.Info("schedule no longer due, skipped")
		return false, nil
	}

	log.Info("post published", "preview", Preview(entry.Content))
	return true, nil
}

func (j *DuePostSweeper) recordReconciliation(parent context.Context, entry *models.DuePost, cause error) {
	observability.ReconciliationsTotal.Inc()
	if j.rr == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), j.cfg.EntryTimeout)
	defer cancel()

	_, err := j.rr.Create(ctx, &models.PublishReconciliation{
		ScheduleID:   entry.ScheduleID,
		PostID:       entry.PostID,
		UserID:       entry.UserID,
		ErrorMessage: cause.Error(),
	})
	if err != nil {
		slog.Error("writing reconciliation record failed",
			"schedule_id", entry.ScheduleID,
			"post_id", entry.PostID,
			"error", err,
		)
	}
}

// retry runs op with exponential backoff. NotFound, InvalidState and
// validation errors are not retried.
func (j *DuePostSweeper) retry(ctx context.Context, op func() error) error {
	b := backoff.NewExponentialBackOff()
	if j.cfg.InitialBackoff > 0 {
		b.InitialInterval = j.cfg.InitialBackoff
	}

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		err := op()
		if err == nil {
			return struct{}{}, nil
		}
		if models.HasCode(err, models.CodeNotFound) ||
			models.HasCode(err, models.CodeInvalidState) ||
			models.HasCode(err, models.CodeValidation) {
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	}, backoff.WithBackOff(b), backoff.WithMaxTries(uint(j.cfg.MaxAttempts)))

	return err
}

// Preview shortens content to its first 100 characters for logs and summaries.
func Preview(content string) string {
	runes := []rune(content)
	if len(runes) <= previewLength {
		return content
	}
	return string(runes[:previewLength]) + "..."
}
