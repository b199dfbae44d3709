package middleware

import (
	"bytes"
	"crypto/sha1"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/evelinagr/apartment-booking/internal/config"
)

// bodyCapture tees the response body so a successful render can be
// stored after it has been sent to the client.
type bodyCapture struct {
	http.ResponseWriter
	status int
	buf    bytes.Buffer
}

func (w *bodyCapture) WriteHeader(code int) { w.status = code; w.ResponseWriter.WriteHeader(code) }
func (w *bodyCapture) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

// ResponseCache caches successful GET responses in Redis for cfg.TTL.
// Availability answers tolerate the short staleness: the booking path
// always re-checks inside its own transaction, so a stale calendar can
// only ever cost the guest a 409 on submit.  Redis errors fail open.
// Intended for the apartment calendar routes.
func ResponseCache(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error { return next(c) }
		}
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Method != http.MethodGet {
				return next(c)
			}
			r := c.Request()
			sum := sha1.Sum([]byte(r.URL.Path + "?" + r.URL.RawQuery))
			key := fmt.Sprintf("%s:%x", cfg.Prefix, sum)

			ctx := r.Context()
			if cached, err := rdb.Get(ctx, key).Bytes(); err == nil {
				return c.JSONBlob(http.StatusOK, cached)
			}

			cap := &bodyCapture{ResponseWriter: c.Response().Writer, status: http.StatusOK}
			c.Response().Writer = cap
			if err := next(c); err != nil {
				return err
			}
			if cap.status == http.StatusOK && cap.buf.Len() > 0 {
				_ = rdb.Set(ctx, key, cap.buf.Bytes(), cfg.TTL).Err()
			}
			return nil
		}
	}
}
