package http

import (
	"net/http"
	"time"

	"jobboard/auth-service/internal/models"
	"jobboard/auth-service/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type registerRequest struct {
	Email    string   `json:"email" binding:"required"`
	Password string   `json:"password" binding:"required"`
	Roles    []string `json:"roles"`
}

type registerResponse struct {
	UserID string `json:"user_id"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginResponse struct {
	UserID          string   `json:"user_id"`
	DisplayName     string   `json:"display_name"`
	Roles           []string `json:"roles"`
	AccessToken     string   `json:"access_token"`
	RefreshToken    string   `json:"refresh_token"`
	AccessExpiresAt string   `json:"access_expires_at"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type refreshResponse struct {
	AccessToken     string `json:"access_token"`
	AccessExpiresAt string `json:"access_expires_at"`
}

type principalResponse struct {
	UserID    string   `json:"user_id"`
	Roles     []string `json:"roles"`
	ExpiresAt string   `json:"expires_at"`
}

type emailRequest struct {
	Email string `json:"email" binding:"required"`
}

type confirmCodeRequest struct {
	Email string `json:"email" binding:"required"`
	Code  string `json:"code" binding:"required"`
}

type resetPasswordRequest struct {
	Email       string `json:"email" binding:"required"`
	Code        string `json:"code" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

type statusResponse struct {
	Status string `json:"status"`
}

// handleRegister — POST /auth/register.
func (s *Server) handleRegister(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	roles, err := models.RoleSetFromStrings(req.Roles)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "unknown role"})
		return
	}

	userID, err := s.svc.RegisterUser(c.Request.Context(), req.Email, req.Password, roles)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, registerResponse{UserID: userID.String()})
}

// handleLogin — POST /auth/login.
func (s *Server) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	result, err := s.svc.LoginUser(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, loginResponse{
		UserID:          result.UserID.String(),
		DisplayName:     result.DisplayName,
		Roles:           result.Roles.Strings(),
		AccessToken:     result.Tokens.AccessToken,
		RefreshToken:    result.Tokens.RefreshToken,
		AccessExpiresAt: result.Tokens.AccessExpiresAt.Format(time.RFC3339),
	})
}

// handleRefresh — POST /auth/refresh.
func (s *Server) handleRefresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	accessToken, expiresAt, err := s.svc.RefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, refreshResponse{
		AccessToken:     accessToken,
		AccessExpiresAt: expiresAt.Format(time.RFC3339),
	})
}

// handleLogout — POST /auth/logout (требует bearer-токен).
func (s *Server) handleLogout(c *gin.Context) {
	principal := principalFrom(c)
	raw := c.GetString(ctxKeyRawToken)

	if err := s.svc.Logout(c.Request.Context(), principal.UserID, raw); err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, statusResponse{Status: "logged out"})
}

// handleMe — GET /auth/me: субъект текущего токена.
func (s *Server) handleMe(c *gin.Context) {
	principal := principalFrom(c)

	c.JSON(http.StatusOK, principalResponse{
		UserID:    principal.UserID.String(),
		Roles:     principal.Roles.Strings(),
		ExpiresAt: principal.ExpiresAt.Format(time.RFC3339),
	})
}

// handleUserByID — GET /auth/users/:id: владелец ресурса либо admin.
func (s *Server) handleUserByID(c *gin.Context) {
	principal := principalFrom(c)

	targetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid user id"})
		return
	}

	if err := service.RequireOwnerOrAdmin(principal, targetID); err != nil {
		abortWithError(c, err)
		return
	}

	user, err := s.svc.UserByID(c.Request.Context(), targetID)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id":        user.ID.String(),
		"email":          user.Email,
		"status":         string(user.Status),
		"email_verified": user.EmailVerified,
		"roles":          user.Roles.Strings(),
		"created_at":     user.CreatedAt.Format(time.RFC3339),
	})
}

// handleEmailRequest — POST /auth/email/request: повторная отправка кода.
func (s *Server) handleEmailRequest(c *gin.Context) {
	var req emailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	if _, err := s.svc.IssueVerificationCode(c.Request.Context(), service.PurposeEmailVerify, req.Email); err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, statusResponse{Status: "code sent"})
}

// handleEmailConfirm — POST /auth/email/confirm.
func (s *Server) handleEmailConfirm(c *gin.Context) {
	var req confirmCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	if err := s.svc.VerifyEmail(c.Request.Context(), req.Email, req.Code); err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, statusResponse{Status: "email verified"})
}

// handlePasswordRequest — POST /auth/password/request. Ответ одинаков для
// существующего и несуществующего адреса.
func (s *Server) handlePasswordRequest(c *gin.Context) {
	var req emailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	if err := s.svc.RequestPasswordReset(c.Request.Context(), req.Email); err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, statusResponse{Status: "code sent"})
}

// handlePasswordConfirm — POST /auth/password/confirm.
func (s *Server) handlePasswordConfirm(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	if err := s.svc.ResetPassword(c.Request.Context(), req.Email, req.Code, req.NewPassword); err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, statusResponse{Status: "password updated"})
}

// principalFrom достаёт субъекта, положенного authMiddleware.
func principalFrom(c *gin.Context) *models.Principal {
	v, ok := c.Get(ctxKeyPrincipal)
	if !ok {
		return nil
	}

	principal, _ := v.(*models.Principal)

	return principal
}
