package controller

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/practicehq/auth-service/internal/models"
	"github.com/practicehq/auth-service/internal/service"
)

type Controller struct {
	zapLogger   *zap.SugaredLogger
	authService *service.AuthService
}

func NewController(logger *zap.SugaredLogger, authService *service.AuthService) *Controller {
	return &Controller{
		zapLogger:   logger,
		authService: authService,
	}
}

// (GET /api/ping).
func (c *Controller) CheckServer(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, "ok")
}

// (POST /api/auth/login).
func (c *Controller) Login(ctx echo.Context) error {
	var req models.LoginRequest
	if err := ctx.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Email == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "email and password are required")
	}

	pair, err := c.authService.Login(ctx.Request().Context(), req.Email, req.Password, clientMeta(ctx))
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, pair)
}

// (POST /api/auth/refresh).
func (c *Controller) Refresh(ctx echo.Context) error {
	var req models.TokenRefreshRequest
	if err := ctx.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.RefreshToken == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "refresh_token is required")
	}

	pair, err := c.authService.Refresh(ctx.Request().Context(), req.RefreshToken, clientMeta(ctx))
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, pair)
}

// (POST /api/auth/logout).
func (c *Controller) Logout(ctx echo.Context) error {
	var req models.LogoutRequest
	if err := ctx.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	accessToken, _ := ctx.Get(models.MwTokenKey).(string)
	if err := c.authService.Logout(ctx.Request().Context(), accessToken, req.RefreshToken); err != nil {
		return err
	}

	return ctx.NoContent(http.StatusNoContent)
}

// (POST /api/auth/logout_all).
func (c *Controller) LogoutAll(ctx echo.Context) error {
	userID, _ := ctx.Get(models.MwUserIDKey).(string)
	if userID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	}

	count, err := c.authService.LogoutEverywhere(ctx.Request().Context(), userID)
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, map[string]int64{"revoked": count})
}

func clientMeta(ctx echo.Context) models.ClientMeta {
	return models.ClientMeta{
		IPAddress: ctx.RealIP(),
		UserAgent: ctx.Request().UserAgent(),
	}
}
