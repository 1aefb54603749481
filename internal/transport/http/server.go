// Package http реализует HTTP-поверхность сервиса аутентификации:
// публичные операции (регистрация, вход, refresh, коды подтверждения)
// и защищённые bearer-токеном (logout, текущий субъект, карточка
// пользователя). Ошибки сервиса маппятся на статусы в errors.go.
package http

import (
	"log/slog"

	"jobboard/auth-service/internal/service"

	"github.com/gin-gonic/gin"
)

// Server связывает маршруты с бизнес-логикой.
type Server struct {
	svc *service.Service
}

// NewServer создаёт Server поверх сервиса.
func NewServer(svc *service.Service) *Server {
	return &Server{svc: svc}
}

// Router собирает gin-маршрутизатор со всеми middleware и маршрутами.
// Маршруты за authMiddleware требуют валидного access-токена.
func (s *Server) Router(logger *slog.Logger) *gin.Engine {
	router := gin.New()
	router.Use(requestLogMiddleware(logger), recoveryMiddleware())

	auth := router.Group("/auth")
	{
		auth.POST("/register", s.handleRegister)
		auth.POST("/login", s.handleLogin)
		auth.POST("/refresh", s.handleRefresh)

		auth.POST("/email/request", s.handleEmailRequest)
		auth.POST("/email/confirm", s.handleEmailConfirm)
		auth.POST("/password/request", s.handlePasswordRequest)
		auth.POST("/password/confirm", s.handlePasswordConfirm)

		protected := auth.Group("")
		protected.Use(s.authMiddleware())
		{
			protected.POST("/logout", s.handleLogout)
			protected.GET("/me", s.handleMe)
			protected.GET("/users/:id", s.handleUserByID)
		}
	}

	return router
}
