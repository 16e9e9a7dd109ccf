package httpserver

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/read1store/backoffice/internal/auth"
	"github.com/read1store/backoffice/internal/hash"
	"github.com/read1store/backoffice/internal/repo"
	"github.com/read1store/backoffice/internal/transport"
	"github.com/read1store/backoffice/pkg/logging"
)

type AuthHTTP struct {
	Repo      *repo.GormRepo
	JWTSecret []byte
	Now       func() time.Time
}

func (h *AuthHTTP) timeNow() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.login")

	var req transport.LoginRequest
	if err := c.Bind(&req); err != nil || req.Username == "" || req.Password == "" {
		l.Warn("login_error", "status", 400, "reason", "invalid body")
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	user, err := h.Repo.GetUserByUsername(ctx, req.Username)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		l.Warn("login_error", "status", 401, "reason", "unknown user")
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	}
	if err != nil {
		l.Error("login_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	if !hash.CheckPassword(user.PasswordHash, req.Password) {
		l.Warn("login_error", "status", 401, "reason", "bad password", "user_id", user.ID)
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	}

	expiresAt := h.timeNow().Add(auth.AccessTokenTTL)
	token, err := auth.CreateAccessToken(h.JWTSecret, strconv.FormatUint(uint64(user.ID), 10), user.Role, expiresAt)
	if err != nil {
		l.Error("login_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	l.Info("login_success", "user_id", user.ID)
	return c.JSON(http.StatusOK, transport.LoginResponse{
		AccessToken: token,
		ExpiresAt:   expiresAt.Unix(),
	})
}
