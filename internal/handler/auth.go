package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/ip-manager/internal/middleware"
	"github.com/iliyamo/ip-manager/internal/session"
	"github.com/iliyamo/ip-manager/internal/utils"
)

// Sessions is the part of *session.Manager the auth endpoints use.
type Sessions interface {
	LoginWithPassword(ctx context.Context, username, password string) (session.Session, error)
	LoginWithPin(ctx context.Context, pin string) (session.Session, error)
	RestoreUser(ctx context.Context, userID string) (*session.Session, error)
	LogoutUser(ctx context.Context, userID string) error
	ChangeCredentials(ctx context.Context, s *session.Session, newUsername, newPassword string) error
}

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Secret   string
	Sessions Sessions
	Log      *zap.Logger
}

func NewAuthHandler(secret string, sessions Sessions, log *zap.Logger) *AuthHandler {
	if sessions == nil {
		panic("nil session manager passed to NewAuthHandler")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthHandler{Secret: secret, Sessions: sessions, Log: log}
}

// ----- DTOs -----

type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type pinReq struct {
	Pin string `json:"pin"`
}

type accountReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}

type authResp struct {
	User      any       `json:"user"`
	Access    tokenPart `json:"access"`
	CreatedAt time.Time `json:"created_at"`
}

// Login authenticates with username and password.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	if req.Username == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username/password required"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	s, err := h.Sessions.LoginWithPassword(ctx, req.Username, req.Password)
	if err != nil {
		return h.loginFailed(c, err)
	}
	return h.issue(c, s)
}

// Pin authenticates with a PIN alone.
func (h *AuthHandler) Pin(c echo.Context) error {
	var req pinReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	if req.Pin == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "pin required"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	s, err := h.Sessions.LoginWithPin(ctx, req.Pin)
	if err != nil {
		return h.loginFailed(c, err)
	}
	return h.issue(c, s)
}

func (h *AuthHandler) loginFailed(c echo.Context, err error) error {
	switch {
	case errors.Is(err, session.ErrUserNotFound):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "user not found"})
	case errors.Is(err, session.ErrInvalidCredential):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}
	h.Log.Error("login", zap.Error(err))
	return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "login unavailable"})
}

// issue signs an access token that expires together with s.
func (h *AuthHandler) issue(c echo.Context, s session.Session) error {
	tok, err := utils.NewAccessToken(h.Secret, s.ID, s.User.ID, s.User.Username, s.User.Role, s.CreatedAt, s.ExpiresAt())
	if err != nil {
		h.Log.Error("sign access token", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not issue token"})
	}
	return c.JSON(http.StatusOK, authResp{
		User:      s.User,
		Access:    tokenPart{Token: tok.Token, Expires: tok.Exp},
		CreatedAt: s.CreatedAt,
	})
}

// Logout clears the caller's session slot. Tokens of older sessions are
// accepted but do not clear a newer session. Logging out twice is fine.
func (h *AuthHandler) Logout(c echo.Context) error {
	auth := c.Request().Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
	}
	claims, err := utils.ParseAccessToken(h.Secret, strings.TrimPrefix(auth, "Bearer "))
	if err != nil {
		// expired tokens have nothing left to log out
		return c.NoContent(http.StatusNoContent)
	}
	ctx := c.Request().Context()
	s, err := h.Sessions.RestoreUser(ctx, claims.Subject)
	if err != nil {
		return fail(c, h.Log, err)
	}
	if s != nil && s.ID == claims.SessionID {
		if err := h.Sessions.LogoutUser(ctx, claims.Subject); err != nil {
			return fail(c, h.Log, err)
		}
	}
	return c.NoContent(http.StatusNoContent)
}

// Me returns the profile of the current session and when it expires.
func (h *AuthHandler) Me(c echo.Context) error {
	s := middleware.CurrentSession(c)
	if s == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "not authenticated"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"user":       s.User,
		"created_at": s.CreatedAt,
		"expires_at": s.ExpiresAt(),
	})
}

// Account changes the username and, optionally, the password of the
// current user.
func (h *AuthHandler) Account(c echo.Context) error {
	var req accountReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username required"})
	}
	if err := h.Sessions.ChangeCredentials(c.Request().Context(), middleware.CurrentSession(c), req.Username, req.Password); err != nil {
		return fail(c, h.Log, err)
	}
	return c.NoContent(http.StatusNoContent)
}
