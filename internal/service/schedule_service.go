package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/maheshrc27/postcraft/internal/models"
	"github.com/maheshrc27/postcraft/internal/observability"
	"github.com/maheshrc27/postcraft/internal/repository"
	"github.com/maheshrc27/postcraft/internal/timezone"
)

// CustomTime is a wall-clock date and time picked by the caller, without a zone.
type CustomTime struct {
	Date string
	Time string
}

type ScheduleResult struct {
	ScheduledPost *models.ScheduledPost `json:"scheduled_post"`
	// Rescheduled is true when the post already had an active schedule
	// before this call.
	Rescheduled bool `json:"rescheduled"`
}

type ScheduledPostDisplay struct {
	*models.ScheduledPostView
	DisplayTime   string  `json:"display_time"`
	TimeRemaining *string `json:"time_remaining"`
}

type ScheduleService interface {
	SchedulePost(ctx context.Context, postID, requesterID string, custom *CustomTime) (*ScheduleResult, error)
	ListScheduled(ctx context.Context, userID string, viewer *time.Location) ([]*ScheduledPostDisplay, error)
}

type scheduleService struct {
	pr  repository.PostRepository
	sr  repository.ScheduledPostRepository
	ss  SettingsService
	cal *timezone.Calendar
}

func NewScheduleService(
	pr repository.PostRepository,
	sr repository.ScheduledPostRepository,
	ss SettingsService,
	cal *timezone.Calendar) ScheduleService {
	return &scheduleService{
		pr:  pr,
		sr:  sr,
		ss:  ss,
		cal: cal,
	}
}

// SchedulePost sets the publish instant of a post. An explicit custom time is
// read as wall clock in the server's zone, not the viewer's. Without one the
// next occurrence of the user's preferred posting time is used.
func (s *scheduleService) SchedulePost(ctx context.Context, postID, requesterID string, custom *CustomTime) (*ScheduleResult, error) {
	if postID == "" {
		return nil, validationError("post id is not valid")
	}

	post, err := s.pr.GetByID(ctx, postID, requesterID)
	if err != nil {
		return nil, err
	}
	if post.Status == models.PostStatusPublished {
		err := models.NewInvalidStateError(fmt.Sprintf("post %s is already published", postID))
		slog.Info(err.Error())
		return nil, err
	}

	instant, err := s.targetInstant(ctx, requesterID, custom)
	if err != nil {
		return nil, err
	}

	sp, rescheduled, err := s.sr.Upsert(ctx, postID, requesterID, instant)
	if err != nil {
		return nil, err
	}

	kind := "new"
	if rescheduled {
		kind = "reschedule"
	}
	observability.PostsScheduledTotal.WithLabelValues(kind).Inc()

	slog.Info("post scheduled",
		"post_id", postID,
		"schedule_id", sp.ID,
		"schedule_time", sp.ScheduleTime,
		"rescheduled", rescheduled,
	)

	return &ScheduleResult{ScheduledPost: sp, Rescheduled: rescheduled}, nil
}

func (s *scheduleService) targetInstant(ctx context.Context, userID string, custom *CustomTime) (time.Time, error) {
	if custom != nil {
		instant, err := s.cal.LocalWallClockToInstant(custom.Date, custom.Time)
		if err != nil {
			return time.Time{}, validationError(fmt.Sprintf("invalid custom time %q %q", custom.Date, custom.Time))
		}
		return instant, nil
	}

	label, err := s.ss.PreferredPostingTime(ctx, userID)
	if err != nil {
		return time.Time{}, err
	}

	instant, err := s.cal.NextOccurrenceOfDailyTime(label)
	if err != nil {
		if errors.Is(err, timezone.ErrUnknownPostingTime) {
			return time.Time{}, validationError(fmt.Sprintf("preferred posting time %q is not supported", label))
		}
		return time.Time{}, err
	}

	return instant, nil
}

// ListScheduled returns the user's schedules with display strings rendered
// in the viewer's zone.
func (s *scheduleService) ListScheduled(ctx context.Context, userID string, viewer *time.Location) ([]*ScheduledPostDisplay, error) {
	views, err := s.sr.ListByOwner(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]*ScheduledPostDisplay, 0, len(views))
	for _, v := range views {
		d := &ScheduledPostDisplay{
			ScheduledPostView: v,
			DisplayTime:       s.cal.FormatRelative(v.ScheduleTime, viewer),
		}
		if !v.IsPublished {
			if remaining, ok := s.cal.RemainingDuration(v.ScheduleTime); ok {
				d.TimeRemaining = &remaining
			}
		}
		out = append(out, d)
	}

	return out, nil
}
