package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/in-nis/classplan/internal/apperr"
	"github.com/in-nis/classplan/internal/auth"
	"github.com/in-nis/classplan/internal/metrics"
	"github.com/in-nis/classplan/internal/models"
)

const (
	RequestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
	userKey         = "user"
)

// requestID reuses an incoming X-Request-ID or mints one.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

func requestLogger(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := log.WithFields(logrus.Fields{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"latency":    time.Since(start).String(),
			"request_id": c.GetString(requestIDKey),
		})
		if len(c.Errors) > 0 {
			entry.WithField("errors", c.Errors.String()).Error("Request failed")
			return
		}
		entry.Info("Request")
	}
}

// observe records request counts by route template, not raw path.
func observe(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.ObserveRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}

// requireUser loads the caller's user row. Only GET /me creates it.
func (h *Handler) requireUser(create bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := auth.FromContext(c)
		if !ok {
			fail(c, apperr.E(apperr.Unauthenticated))
			return
		}

		var (
			user *models.User
			err  error
		)
		if create {
			user, err = h.svc.EnsureUser(c.Request.Context(), id.TokenIdentifier, id.Nickname)
		} else {
			user, err = h.svc.LookupUser(c.Request.Context(), id.TokenIdentifier)
		}
		if err != nil {
			fail(c, err)
			return
		}
		c.Set(userKey, user)
		c.Next()
	}
}

// optionalUser attaches the user when the request carries a known identity.
func (h *Handler) optionalUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if id, ok := auth.FromContext(c); ok {
			if user, err := h.svc.LookupUser(c.Request.Context(), id.TokenIdentifier); err == nil {
				c.Set(userKey, user)
			}
		}
		c.Next()
	}
}

func currentUser(c *gin.Context) *models.User {
	v, ok := c.Get(userKey)
	if !ok {
		return nil
	}
	user, _ := v.(*models.User)
	return user
}
