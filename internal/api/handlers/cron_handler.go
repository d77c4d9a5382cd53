package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	job "github.com/maheshrc27/postcraft/internal/jobs"
	"github.com/maheshrc27/postcraft/internal/repository"
)

type Sweeper interface {
	Run(ctx context.Context) (*job.SweepSummary, error)
}

type CronHandler struct {
	sweeper Sweeper
	rr      repository.PublishReconciliationRepository
}

func NewCronHandler(sweeper Sweeper, rr repository.PublishReconciliationRepository) *CronHandler {
	return &CronHandler{sweeper: sweeper, rr: rr}
}

// ProcessScheduledPosts runs one sweep synchronously for an external scheduler.
func (h *CronHandler) ProcessScheduledPosts(c *fiber.Ctx) error {
	summary, err := h.sweeper.Run(c.UserContext())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to process scheduled posts",
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success":   true,
		"found":     summary.Found,
		"processed": summary.Processed,
		"skipped":   summary.Skipped,
		"posts":     summary.Posts,
		"failed":    summary.Failed,
	})
}

func (h *CronHandler) ListReconciliations(c *fiber.Ctx) error {
	recs, err := h.rr.ListRecent(c.UserContext(), c.QueryInt("limit", 100))
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(recs)
}
