package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/postcraft/internal/api/middleware"
	"github.com/maheshrc27/postcraft/internal/service"
	"github.com/maheshrc27/postcraft/internal/timezone"
	"github.com/maheshrc27/postcraft/internal/transfer"
)

type ScheduleHandler struct {
	s service.ScheduleService
}

func NewScheduleHandler(service service.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{s: service}
}

// SchedulePost schedules the post named by ?id. The body is optional; without
// a custom time the user's preferred posting time applies.
func (h *ScheduleHandler) SchedulePost(c *fiber.Ctx) error {
	userID := GetUserID(c)
	postID := c.Query("id")

	var in transfer.SchedulePost
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return badRequest(c, "Unable to parse json")
		}
	}

	custom, err := customTime(&in)
	if err != nil {
		return badRequest(c, err.Error())
	}

	result, err := h.s.SchedulePost(c.UserContext(), postID, userID, custom)
	if err != nil {
		return respondError(c, err)
	}

	message := "Post scheduled successfully"
	if result.Rescheduled {
		message = "Post rescheduled successfully"
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message":        message,
		"scheduled_post": result.ScheduledPost,
		"rescheduled":    result.Rescheduled,
	})
}

func customTime(in *transfer.SchedulePost) (*service.CustomTime, error) {
	if in.CustomTime != "" {
		date, clock, err := timezone.ParseWallClock(in.CustomTime)
		if err != nil {
			return nil, err
		}
		return &service.CustomTime{Date: date, Time: clock}, nil
	}
	if in.Date == "" && in.Time == "" {
		return nil, nil
	}
	if in.Date == "" || in.Time == "" {
		return nil, fiber.NewError(fiber.StatusBadRequest, "date and time must be given together")
	}
	return &service.CustomTime{Date: in.Date, Time: in.Time}, nil
}

func (h *ScheduleHandler) ListScheduled(c *fiber.Ctx) error {
	userID := GetUserID(c)

	posts, err := h.s.ListScheduled(c.UserContext(), userID, middleware.ViewerLocation(c))
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(posts)
}
