package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/practicehq/auth-service/internal/models"
	"github.com/practicehq/auth-service/internal/service"
	"github.com/practicehq/auth-service/internal/util"
)

// ErrorHandler maps service errors to responses. Every expected auth
// rejection becomes the same shape of 401; only unexpected failures reach
// the 500 path and the error log.
func ErrorHandler(log *zap.SugaredLogger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		if isAuthRejection(err) {
			writeJSON(log, c, http.StatusUnauthorized, service.ErrAuthenticationFailed.Error())
			return
		}

		var respErr util.ResponseError
		if errors.As(err, &respErr) {
			writeJSON(log, c, respErr.Status, respErr.Msg)
			return
		}

		var he *echo.HTTPError
		if errors.As(err, &he) {
			if he.Code == http.StatusInternalServerError {
				log.Errorw("HTTP error", "error", err, "uri", c.Request().RequestURI)
			}
			msg, ok := he.Message.(string)
			if !ok {
				msg = http.StatusText(he.Code)
			}
			writeJSON(log, c, he.Code, msg)
			return
		}

		log.Errorw("unhandled error", "error", err, "uri", c.Request().RequestURI)
		writeJSON(log, c, http.StatusInternalServerError, "internal server error")
	}
}

func writeJSON(log *zap.SugaredLogger, c echo.Context, status int, reason string) {
	if err := c.JSON(status, models.ErrorResponse{Reason: reason}); err != nil {
		log.Errorw("failed to write json response", "error", err)
	}
}

// isAuthRejection collapses every expected validation outcome into the one
// uniform outward message. Token errors never leak whether a token existed.
func isAuthRejection(err error) bool {
	return errors.Is(err, service.ErrAuthenticationFailed) ||
		errors.Is(err, service.ErrTokenInvalid) ||
		errors.Is(err, service.ErrTokenExpired) ||
		errors.Is(err, service.ErrTokenRevoked)
}
