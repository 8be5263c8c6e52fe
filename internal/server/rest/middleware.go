package rest

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/farmhand/internal/common"
	"github.com/dmitrijs2005/farmhand/internal/logging"
	"github.com/dmitrijs2005/farmhand/internal/server/auth"
	"github.com/dmitrijs2005/farmhand/internal/server/metrics"
	"github.com/dmitrijs2005/farmhand/internal/server/models"
	"github.com/dmitrijs2005/farmhand/internal/server/repositories/users"
	"github.com/gin-gonic/gin"
)

// TokenValidator is the part of auth.TokenCodec the request filter needs.
type TokenValidator interface {
	Parse(token string) (*auth.Claims, error)
	IsValidFor(token string, user *models.User) bool
}

const requestIDHeader = "X-Request-Id"

// Authenticator resolves a bearer token into an identity on the request
// context. It never rejects a request and never writes a response; routes
// that need an identity are guarded by RequireIdentity.
func Authenticator(tokens TokenValidator, repo users.Repository, storeTimeout time.Duration, log logging.Logger, m *metrics.Metrics) gin.HandlerFunc {
	log = log.With("module", "rest.authenticator")

	return func(c *gin.Context) {
		defer c.Next()

		ctx := c.Request.Context()
		if _, ok := auth.IdentityFromContext(ctx); ok {
			return
		}

		token, ok := bearerToken(c.GetHeader(common.AuthorizationHeaderName))
		if !ok {
			m.RecordTokenResolution(metrics.TokenAbsent)
			return
		}

		claims, err := tokens.Parse(token)
		if err != nil {
			log.Debug(ctx, "token rejected", "error", err)
			m.RecordTokenResolution(metrics.TokenRejected)
			return
		}

		user, err := lookupUser(ctx, repo, claims.Subject, storeTimeout)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				m.RecordTokenResolution(metrics.TokenUnknownSubject)
			} else {
				log.Error(ctx, "identity lookup failed", "error", err)
				m.RecordTokenResolution(metrics.TokenStoreError)
			}
			return
		}

		if !tokens.IsValidFor(token, user) {
			log.Debug(ctx, "token not valid for subject")
			m.RecordTokenResolution(metrics.TokenInvalid)
			return
		}

		m.RecordTokenResolution(metrics.TokenResolved)
		c.Request = c.Request.WithContext(auth.WithIdentity(ctx, user))
	}
}

// bearerToken extracts the token from an Authorization header value. The
// header must start with "Bearer"; everything after the seventh character
// is the token.
func bearerToken(header string) (string, bool) {
	if !strings.HasPrefix(header, strings.TrimSpace(common.BearerPrefix)) {
		return "", false
	}
	if len(header) < len(common.BearerPrefix) {
		return "", true
	}
	return header[len(common.BearerPrefix):], true
}

func lookupUser(ctx context.Context, repo users.Repository, username string, timeout time.Duration) (*models.User, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return repo.FindByUsername(ctx, username)
}

// RequireIdentity aborts with 401 when the request carries no identity.
func RequireIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := auth.IdentityFromContext(c.Request.Context()); !ok {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		c.Next()
	}
}

// RequestLogger tags each request with an ID, logs its outcome and
// records it in m.
func RequestLogger(log logging.Logger, m *metrics.Metrics) gin.HandlerFunc {
	log = log.With("module", "rest.access")

	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id, _ = common.MakeRandHexString(8)
		}
		c.Header(requestIDHeader, id)

		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		latency := time.Since(start)
		args := []any{
			"request_id", id,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"latency", latency.String(),
		}

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.RecordRequest(c.Request.Method, route, status, latency)

		ctx := c.Request.Context()
		switch {
		case status >= http.StatusInternalServerError:
			log.Error(ctx, "request completed", args...)
		case status >= http.StatusBadRequest:
			log.Warn(ctx, "request completed", args...)
		default:
			log.Info(ctx, "request completed", args...)
		}
	}
}
