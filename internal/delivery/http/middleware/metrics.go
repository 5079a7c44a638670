package middleware

import (
	"time"

	"github.com/gofiber/fiber/v3"
)

type httpObserver interface {
	ObserveHTTP(method, route string, status int, elapsed time.Duration)
}

type MetricsMiddleware struct {
	observer httpObserver
}

func NewMetricsMiddleware(observer httpObserver) *MetricsMiddleware {
	return &MetricsMiddleware{observer: observer}
}

// Middleware labels requests by route pattern, not raw path, so slugs and
// tokens do not blow up label cardinality.
func (m *MetricsMiddleware) Middleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		if m == nil || m.observer == nil {
			return err
		}

		route := "unmatched"
		if r := c.Route(); r != nil && r.Path != "" {
			route = r.Path
		}
		status := c.Response().StatusCode()
		if err != nil {
			status = statusOf(err)
		}
		m.observer.ObserveHTTP(c.Method(), route, status, time.Since(start))
		return err
	}
}

func statusOf(err error) int {
	status, _, _ := normalizeError(err)
	return status
}
