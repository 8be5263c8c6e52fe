package rest

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/farmhand/internal/common"
	"github.com/dmitrijs2005/farmhand/internal/server/auth"
	"github.com/gin-gonic/gin"
)

// AuthService is implemented by services.UserService.
type AuthService interface {
	Register(ctx context.Context, username, email, password string) (string, error)
	Login(ctx context.Context, username, password string) (string, error)
}

const (
	msgDuplicateUsername  = "A user with this username already exists"
	msgDuplicateEmail     = "A user with this email already exists"
	msgInvalidCredentials = "Invalid username or password."
	msgInvalidBody        = "invalid request body"
	msgInternal           = "internal error"
)

type registerRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// tokenResponse keeps the capitalised field name clients already depend on.
type tokenResponse struct {
	Token string `json:"Token"`
}

type meResponse struct {
	ID          string   `json:"id"`
	Username    string   `json:"username"`
	Email       string   `json:"email"`
	Role        string   `json:"role"`
	Authorities []string `json:"authorities"`
}

func (s *HTTPServer) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.String(http.StatusBadRequest, msgInvalidBody)
		return
	}

	token, err := s.users.Register(c.Request.Context(), req.Username, req.Email, req.Password)
	s.metrics.RecordAuth("register", outcome(err))
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, tokenResponse{Token: token})
}

func (s *HTTPServer) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.String(http.StatusBadRequest, msgInvalidBody)
		return
	}

	token, err := s.users.Login(c.Request.Context(), req.Username, req.Password)
	s.metrics.RecordAuth("login", outcome(err))
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, tokenResponse{Token: token})
}

func (s *HTTPServer) hello(c *gin.Context) {
	user, _ := auth.IdentityFromContext(c.Request.Context())
	c.String(http.StatusOK, fmt.Sprintf("Hello %s!", user.UserName))
}

func (s *HTTPServer) me(c *gin.Context) {
	user, _ := auth.IdentityFromContext(c.Request.Context())
	c.JSON(http.StatusOK, meResponse{
		ID:          user.ID,
		Username:    user.UserName,
		Email:       user.Email,
		Role:        string(user.Role),
		Authorities: user.Authorities(),
	})
}

// outcome labels a register or login result for metrics.
func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, common.ErrDuplicateUsername), errors.Is(err, common.ErrDuplicateEmail):
		return "duplicate"
	case errors.Is(err, common.ErrorValidation):
		return "invalid_input"
	case errors.Is(err, common.ErrInvalidCredentials):
		return "invalid_credentials"
	default:
		return "error"
	}
}

func (s *HTTPServer) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, common.ErrDuplicateUsername):
		c.String(http.StatusBadRequest, msgDuplicateUsername)
	case errors.Is(err, common.ErrDuplicateEmail):
		c.String(http.StatusBadRequest, msgDuplicateEmail)
	case errors.Is(err, common.ErrorValidation):
		c.String(http.StatusBadRequest, msgInvalidBody)
	case errors.Is(err, common.ErrInvalidCredentials):
		c.String(http.StatusUnauthorized, msgInvalidCredentials)
	default:
		s.logger.Error(c.Request.Context(), "request failed", "error", err)
		c.String(http.StatusInternalServerError, msgInternal)
	}
}
