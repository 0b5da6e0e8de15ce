package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/box-builder/internal/config"
	"github.com/iliyamo/box-builder/internal/middleware"
	"github.com/iliyamo/box-builder/internal/model"
	"github.com/iliyamo/box-builder/internal/repository"
	"github.com/iliyamo/box-builder/internal/utils"
)

const minPasswordLen = 8

// AuthHandler bundles dependencies for operator auth endpoints.
type AuthHandler struct {
	Cfg       config.Config
	Operators repository.OperatorStore
	Logger    *log.Logger
}

func NewAuthHandler(cfg config.Config, ops repository.OperatorStore, logger *log.Logger) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Operators: ops, Logger: logger}
}

type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type changePasswordReq struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

type loginResp struct {
	Operator model.Operator `json:"operator"`
	Access   tokenPart      `json:"access"`
}

var errBadCredentials = echo.Map{"error": "invalid_credentials", "message": "invalid username or password"}

// Login verifies credentials and issues an access token. Hashes made with
// an outdated bcrypt cost are upgraded on the way.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	req.Username = strings.ToLower(strings.TrimSpace(req.Username))
	if req.Username == "" || req.Password == "" {
		return badRequest(c, "username and password are required")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()
	op, err := h.Operators.GetOperatorByUsername(ctx, req.Username)
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusUnauthorized, errBadCredentials)
	}
	if err != nil {
		return fail(c, h.Logger, err)
	}
	if !utils.VerifyPassword(op.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, errBadCredentials)
	}

	if utils.NeedsRehash(op.PasswordHash, h.Cfg.BcryptCost) {
		if hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost); err == nil {
			if err := h.Operators.UpdatePassword(ctx, op.ID, hash); err != nil {
				h.Logger.Warn("rehash password", "operator", op.ID, "err", err)
			}
		}
	}

	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, op.ID, op.Username, op.Role, h.Cfg.AccessTTLMin)
	if err != nil {
		return fail(c, h.Logger, err)
	}
	return c.JSON(http.StatusOK, loginResp{
		Operator: op,
		Access:   tokenPart{Token: access.Token, Expires: access.Exp.Format(time.RFC3339)},
	})
}

// Me returns the authenticated operator.
func (h *AuthHandler) Me(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	op, err := h.Operators.GetOperator(ctx, middleware.OperatorID(c))
	if err != nil {
		return fail(c, h.Logger, err)
	}
	return c.JSON(http.StatusOK, op)
}

// ChangePassword replaces the operator's password after checking the old
// one.
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	var req changePasswordReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if req.OldPassword == "" || len(req.NewPassword) < minPasswordLen {
		return badRequest(c, "old_password is required and new_password needs at least 8 characters")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()
	op, err := h.Operators.GetOperator(ctx, middleware.OperatorID(c))
	if err != nil {
		return fail(c, h.Logger, err)
	}
	if !utils.VerifyPassword(op.PasswordHash, req.OldPassword) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "wrong_password", "message": "old password does not match"})
	}
	hash, err := utils.HashPassword(req.NewPassword, h.Cfg.BcryptCost)
	if err != nil {
		return fail(c, h.Logger, err)
	}
	if err := h.Operators.UpdatePassword(ctx, op.ID, hash); err != nil {
		return fail(c, h.Logger, err)
	}
	h.Logger.Info("password changed", "operator", op.ID)
	return c.NoContent(http.StatusNoContent)
}
