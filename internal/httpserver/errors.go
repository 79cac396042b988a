package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/phonehub/internal/service"
	"github.com/Skotchmaster/phonehub/internal/transport"
	"github.com/Skotchmaster/phonehub/pkg/logging"
)

const msgInternal = "internal server error"

var kindStatus = []struct {
	kind   error
	status int
}{
	{service.ErrAuthentication, http.StatusUnauthorized},
	{service.ErrAuthorization, http.StatusForbidden},
	{service.ErrValidation, http.StatusBadRequest},
	{service.ErrConflict, http.StatusConflict},
	{service.ErrNotFound, http.StatusNotFound},
}

// toHTTPError maps a service error to its status. Unclassified errors
// become a redacted 500 that keeps the cause as Internal.
func toHTTPError(err error) *echo.HTTPError {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he
	}
	for _, ks := range kindStatus {
		if errors.Is(err, ks.kind) {
			msg := service.PublicMessage(err)
			if msg == "" {
				msg = ks.kind.Error()
			}
			return echo.NewHTTPError(ks.status, msg)
		}
	}
	return echo.NewHTTPError(http.StatusInternalServerError, msgInternal).SetInternal(err)
}

// ErrorHandler renders every error as a failed APIResponse.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	he := toHTTPError(err)
	msg, ok := he.Message.(string)
	if !ok || msg == "" {
		msg = http.StatusText(he.Code)
	}
	if he.Code >= http.StatusInternalServerError {
		msg = msgInternal
		logging.FromContext(c.Request().Context()).Error("unhandled_error", "status", he.Code, "error", err)
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(he.Code)
		return
	}
	_ = c.JSON(he.Code, transport.Failure(he.Code, msg))
}
