package http

import (
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"routelayer/internal/core/domain"
)

// legacyShapeSunset is the date after which the flattened data shape and
// null waypoints stop being accepted.
var legacyShapeSunset = time.Date(2027, time.March, 1, 0, 0, 0, 0, time.UTC)

// setDeprecationHeaders marks a response whose request used a deprecated
// input shape. The request still succeeded; the headers tell the client to
// migrate before the sunset date.
// Deprecation and Sunset follow RFC 8594, Warning follows RFC 7234.
func setDeprecationHeaders(c *fiber.Ctx, deps []domain.Deprecation) {
	if len(deps) == 0 {
		return
	}

	c.Set("Deprecation", "true")
	c.Set("Sunset", legacyShapeSunset.Format(time.RFC1123))

	msgs := make([]string, 0, len(deps))
	for _, d := range deps {
		msgs = append(msgs, d.Message)
	}
	c.Set("Warning", fmt.Sprintf(`299 - %q`, strings.Join(msgs, "; ")))
}
