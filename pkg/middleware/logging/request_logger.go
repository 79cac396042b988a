package loggingmw

import (
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/phonehub/pkg/logging"
)

// Context and header keys read after the handler chain has run.
const (
	ctxUserID         = "user_id"
	headerTokenStatus = "X-Token-Status"
	headerNewToken    = "X-New-Access-Token"
)

// RequestLogger stores a request-scoped logger in the request context and
// writes one line per completed request. Errors are rendered here so the
// logged status is the one the client saw.
func RequestLogger(base *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			rid := req.Header.Get(echo.HeaderXRequestID)
			if rid == "" {
				rid = c.Response().Header().Get(echo.HeaderXRequestID)
			}

			l := base.With(
				"method", req.Method,
				"path", c.Path(),
				"url", req.URL.Path,
				"remote_ip", c.RealIP(),
				"user_agent", req.UserAgent(),
			)
			if rid != "" {
				l = l.With("request_id", rid)
			}
			c.SetRequest(req.WithContext(logging.IntoContext(req.Context(), l)))

			start := time.Now()
			err := next(c)
			if err != nil {
				c.Echo().HTTPErrorHandler(err, c)
			}

			res := c.Response()
			attrs := []any{"status", res.Status, "duration_ms", time.Since(start).Milliseconds()}
			if id, ok := c.Get(ctxUserID).(uint); ok {
				attrs = append(attrs, "user_id", id)
			}
			if st := res.Header().Get(headerTokenStatus); st != "" {
				attrs = append(attrs, "token_status", st)
			}
			if res.Header().Get(headerNewToken) != "" {
				attrs = append(attrs, "silent_refresh", true)
			}

			switch {
			case res.Status >= 500:
				attrs = append(attrs, "error", errString(err))
				l.Error("request completed", attrs...)
			case res.Status >= 400:
				l.Warn("request completed", attrs...)
			default:
				attrs = append(attrs, "bytes", res.Size)
				l.Info("request completed", attrs...)
			}
			return nil
		}
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
