package http

import (
	"errors"
	"log/slog"
	"net/http"

	"jobboard/auth-service/internal/pkg/log"
	"jobboard/auth-service/internal/service"

	"github.com/gin-gonic/gin"
)

type errorResponse struct {
	Error string `json:"error"`
}

// abortWithError маппит ошибки сервиса на HTTP-статусы. Неопознанные
// ошибки — инфраструктурные сбои: клиенту нейтральный 500, подробности
// только в лог.
func abortWithError(c *gin.Context, err error) {
	status, msg := mapError(err)

	if status == http.StatusInternalServerError {
		log.From(c.Request.Context()).Error("internal_error",
			slog.String("err", err.Error()),
		)
	}

	c.AbortWithStatusJSON(status, errorResponse{Error: msg})
}

func mapError(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrInvalidEmail),
		errors.Is(err, service.ErrWeakPassword),
		errors.Is(err, service.ErrEmptyPassword):
		return http.StatusBadRequest, unwrapMessage(err)

	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, service.ErrInvalidCredentials.Error()
	case errors.Is(err, service.ErrTokenExpired):
		return http.StatusUnauthorized, service.ErrTokenExpired.Error()
	case errors.Is(err, service.ErrInvalidToken):
		return http.StatusUnauthorized, service.ErrInvalidToken.Error()
	case errors.Is(err, service.ErrRefreshTokenExpired):
		return http.StatusUnauthorized, service.ErrRefreshTokenExpired.Error()
	case errors.Is(err, service.ErrInvalidRefreshToken):
		return http.StatusUnauthorized, service.ErrInvalidRefreshToken.Error()

	case errors.Is(err, service.ErrAccountNotVerified):
		return http.StatusForbidden, service.ErrAccountNotVerified.Error()
	case errors.Is(err, service.ErrPermissionDenied):
		return http.StatusForbidden, service.ErrPermissionDenied.Error()

	case errors.Is(err, service.ErrUserNotFound):
		return http.StatusNotFound, service.ErrUserNotFound.Error()

	case errors.Is(err, service.ErrEmailTaken):
		return http.StatusConflict, service.ErrEmailTaken.Error()

	case errors.Is(err, service.ErrInvalidVerificationCode):
		return http.StatusUnprocessableEntity, service.ErrInvalidVerificationCode.Error()

	default:
		return http.StatusInternalServerError, "internal error"
	}
}

// unwrapMessage возвращает текст последней сентинели в цепочке без
// префиксов операций.
func unwrapMessage(err error) string {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err.Error()
		}
		err = next
	}
}
