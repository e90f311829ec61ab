package rest

import (
	"strings"
	"time"

	"github.com/dmitrijs2005/tipkeeper/internal/common"
	"github.com/dmitrijs2005/tipkeeper/internal/server/auth"
	"github.com/labstack/echo/v4"
)

const (
	ctxUserID = "uid"
	ctxAdmin  = "admin"
)

// bearerToken takes the token from "Authorization: Bearer ..." and falls
// back to the id-token header.
func bearerToken(c echo.Context) string {
	h := c.Request().Header
	if v := h.Get(echo.HeaderAuthorization); v != "" {
		if tok, ok := strings.CutPrefix(v, "Bearer "); ok {
			return strings.TrimSpace(tok)
		}
	}
	return strings.TrimSpace(h.Get(common.IDTokenHeaderName))
}

func (s *Server) authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		tok := bearerToken(c)
		if tok == "" {
			return common.ErrorUnauthorized
		}
		claims, err := auth.ParseToken(tok, s.jwtSecret)
		if err != nil {
			return err
		}
		c.Set(ctxUserID, claims.UserID)
		c.Set(ctxAdmin, claims.Admin)
		return next(c)
	}
}

func userID(c echo.Context) string {
	uid, _ := c.Get(ctxUserID).(string)
	return uid
}

// observe logs and counts each request once the error handler has
// settled its status.
func (s *Server) observe(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		if err != nil {
			c.Error(err)
		}

		req := c.Request()
		status := c.Response().Status
		route := c.Path()
		s.metrics.HTTPRequest(req.Method, route, status)
		s.logger.Debug(req.Context(), "request",
			"method", req.Method,
			"route", route,
			"status", status,
			"duration", time.Since(start),
		)
		return nil
	}
}
