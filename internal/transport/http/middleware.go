package http

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"jobboard/auth-service/internal/pkg/log"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	headerRequestID = "X-Request-Id"

	// Ключ в gin.Context, под которым authMiddleware кладёт субъекта.
	ctxKeyPrincipal = "principal"
	// Ключ с сырым bearer-токеном — нужен Logout для denylist.
	ctxKeyRawToken = "raw_token"
)

// requestLogMiddleware назначает запросу request_id, кладёт в контекст
// логгер с полями запроса и пишет итоговую строку по завершении.
func requestLogMiddleware(base *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(headerRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(headerRequestID, requestID)

		lg := base.With(
			slog.String("request_id", requestID),
			slog.String("method", c.Request.Method),
			slog.String("path", c.FullPath()),
		)

		c.Request = c.Request.WithContext(log.Into(c.Request.Context(), lg))

		start := time.Now()
		c.Next()

		lg.Info("request_handled",
			slog.Int("status", c.Writer.Status()),
			slog.Duration("duration", time.Since(start)),
		)
	}
}

// recoveryMiddleware перехватывает панику обработчика: стек — в лог,
// клиенту — нейтральный 500 без деталей.
func recoveryMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.From(c.Request.Context()).Error("handler_panic",
					slog.Any("panic", r),
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError, errorResponse{Error: "internal error"})
			}
		}()

		c.Next()
	}
}

// authMiddleware извлекает bearer-токен, аутентифицирует субъекта и
// кладёт Principal в контекст запроса. Запрос без валидного токена
// дальше по цепочке не проходит.
func (s *Server) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearerToken(c.GetHeader("Authorization"))

		principal, err := s.svc.Authenticate(c.Request.Context(), raw)
		if err != nil {
			abortWithError(c, err)
			return
		}

		c.Set(ctxKeyPrincipal, principal)
		c.Set(ctxKeyRawToken, raw)
		c.Next()
	}
}

// bearerToken выделяет токен из заголовка Authorization.
// Пустая строка — заголовок отсутствует или схема не Bearer.
func bearerToken(header string) string {
	const prefix = "Bearer "

	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}

	return strings.TrimSpace(header[len(prefix):])
}
