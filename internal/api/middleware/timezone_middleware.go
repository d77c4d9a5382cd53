package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/postcraft/internal/timezone"
)

const (
	TimezoneHeader = "X-Timezone"
	viewerLocation = "viewer_location"
)

// ViewerTimezone resolves the viewer's zone from the X-Timezone header or the
// tz query parameter. Unknown or missing names resolve to UTC.
func ViewerTimezone() fiber.Handler {
	return func(c *fiber.Ctx) error {
		name := c.Get(TimezoneHeader)
		if name == "" {
			name = c.Query("tz")
		}
		c.Locals(viewerLocation, timezone.ResolveViewerTimezone(name))
		return c.Next()
	}
}

// ViewerLocation returns the zone stored by ViewerTimezone, or UTC.
func ViewerLocation(c *fiber.Ctx) *time.Location {
	if loc, ok := c.Locals(viewerLocation).(*time.Location); ok && loc != nil {
		return loc
	}
	return time.UTC
}
