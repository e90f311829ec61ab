package rest

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/tipkeeper/internal/common"
	"github.com/labstack/echo/v4"
)

type errorBody struct {
	Message string `json:"message"`
}

var statusBySentinel = []struct {
	err    error
	status int
}{
	{common.ErrValidation, http.StatusBadRequest},
	{common.ErrTokenExpired, http.StatusUnauthorized},
	{common.ErrInvalidToken, http.StatusUnauthorized},
	{common.ErrorUnauthorized, http.StatusUnauthorized},
	{common.ErrForbiddenRole, http.StatusForbidden},
	{common.ErrorNotFound, http.StatusNotFound},
	{common.ErrTransferReverted, http.StatusUnprocessableEntity},
	{common.ErrAmbiguousEvent, http.StatusBadGateway},
	{common.ErrSecretUnavailable, http.StatusInternalServerError},
	{common.ErrIntegrityViolation, http.StatusInternalServerError},
	{common.ErrLayerMismatch, http.StatusInternalServerError},
}

// statusOf maps err to a response status and the message shown to the
// caller. Unrecognised errors become a bare 500 so driver or RPC details
// stay in the log.
func statusOf(err error) (int, string) {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg, ok := he.Message.(string)
		if !ok {
			msg = http.StatusText(he.Code)
		}
		return he.Code, msg
	}
	for _, m := range statusBySentinel {
		if errors.Is(err, m.err) {
			if m.status == http.StatusInternalServerError {
				return m.status, m.err.Error()
			}
			return m.status, err.Error()
		}
	}
	return http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError)
}

func (s *Server) errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	status, msg := statusOf(err)
	ctx := c.Request().Context()
	if status >= http.StatusInternalServerError {
		s.logger.Error(ctx, "request failed", "route", c.Path(), "status", status, "error", err)
	} else {
		s.logger.Debug(ctx, "request rejected", "route", c.Path(), "status", status, "error", err)
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, errorBody{Message: msg})
	}
	if err != nil {
		s.logger.Error(ctx, "write error response", "error", err)
	}
}
