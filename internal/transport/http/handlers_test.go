package http

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"jobboard/auth-service/internal/config"
	"jobboard/auth-service/internal/models"
	"jobboard/auth-service/internal/service"
	"jobboard/auth-service/internal/storage"
	"jobboard/auth-service/mocks"

	"github.com/gin-gonic/gin"
	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testCfg() config.AuthConfig {
	return config.AuthConfig{
		JWTSecret:       "transport-secret",
		AccessTokenTTL:  30 * time.Second,
		RefreshTokenTTL: 24 * time.Hour,
		CodeTTL:         600 * time.Second,
		Issuer:          "auth-service",
		Audience:        []string{"jobboard-api"},
	}
}

type env struct {
	router *gin.Engine
	svc    *service.Service
	st     *mocks.MockStorage
	sc     *mocks.MockSessionCache
}

func newEnv(t *testing.T) *env {
	t.Helper()

	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	st := mocks.NewMockStorage(ctrl)
	sc := mocks.NewMockSessionCache(ctrl)
	svc := service.New(st, sc, testCfg())

	logger := slog.New(slog.DiscardHandler)

	return &env{
		router: NewServer(svc).Router(logger),
		svc:    svc,
		st:     st,
		sc:     sc,
	}
}

func (e *env) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

// login прогоняет полный вход через сервис и возвращает пару токенов.
func (e *env) login(t *testing.T, user *models.User, password string) models.TokenPair {
	t.Helper()

	e.st.EXPECT().UserByEmail(gomock.Any(), user.Email).Return(user, nil)
	e.st.EXPECT().RolesByUserID(gomock.Any(), user.ID).Return(user.Roles, nil)
	e.sc.EXPECT().SetRefreshToken(gomock.Any(), user.ID, gomock.Any(), gomock.Any()).Return(nil)
	e.st.EXPECT().DisplayNameByUserID(gomock.Any(), user.ID).Return("", nil)

	result, err := e.svc.LoginUser(context.Background(), user.Email, password)
	require.NoError(t, err)
	return result.Tokens
}

func testUser(t *testing.T, email, password string, roles ...models.Role) *models.User {
	t.Helper()

	svcUser := &models.User{
		ID:            uuid.New(),
		Email:         email,
		Status:        models.StatusActive,
		EmailVerified: true,
		Roles:         models.NewRoleSet(roles...),
		CreatedAt:     time.Now().UTC(),
		UpdatedAt:     time.Now().UTC(),
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	svcUser.PasswordHash = string(hash)
	return svcUser
}

func TestRegister_Created(t *testing.T) {
	t.Parallel()

	e := newEnv(t)

	e.st.EXPECT().UserByEmail(gomock.Any(), "new@example.com").Return(nil, storage.ErrNotFound)
	e.st.EXPECT().SaveUser(gomock.Any(), gomock.Any()).Return(nil)
	e.sc.EXPECT().SetVerificationCode(gomock.Any(), "email_verify", "new@example.com", gomock.Any(), gomock.Any()).Return(nil)

	rec := e.do(t, http.MethodPost, "/auth/register", registerRequest{
		Email:    "new@example.com",
		Password: "Abcdef1!",
	}, "")

	require.Equal(t, http.StatusCreated, rec.Code)

	var resp registerResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.UserID)
}

func TestRegister_EmailTaken(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	existing := testUser(t, "taken@example.com", "Abcdef1!", models.RoleSeeker)

	e.st.EXPECT().UserByEmail(gomock.Any(), existing.Email).Return(existing, nil)

	rec := e.do(t, http.MethodPost, "/auth/register", registerRequest{
		Email:    existing.Email,
		Password: "Abcdef1!",
	}, "")

	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestRegister_UnknownRole(t *testing.T) {
	t.Parallel()

	e := newEnv(t)

	rec := e.do(t, http.MethodPost, "/auth/register", registerRequest{
		Email:    "new@example.com",
		Password: "Abcdef1!",
		Roles:    []string{"superuser"},
	}, "")

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogin_OK(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	user := testUser(t, "user@example.com", "Abcdef1!", models.RoleSeeker)

	e.st.EXPECT().UserByEmail(gomock.Any(), user.Email).Return(user, nil)
	e.st.EXPECT().RolesByUserID(gomock.Any(), user.ID).Return(user.Roles, nil)
	e.sc.EXPECT().SetRefreshToken(gomock.Any(), user.ID, gomock.Any(), gomock.Any()).Return(nil)
	e.st.EXPECT().DisplayNameByUserID(gomock.Any(), user.ID).Return("Ivan Petrov", nil)

	rec := e.do(t, http.MethodPost, "/auth/login", loginRequest{
		Email:    user.Email,
		Password: "Abcdef1!",
	}, "")

	require.Equal(t, http.StatusOK, rec.Code)

	var resp loginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, user.ID.String(), resp.UserID)
	require.Equal(t, "Ivan Petrov", resp.DisplayName)
	require.NotEmpty(t, resp.AccessToken)
	require.NotEmpty(t, resp.RefreshToken)
}

func TestLogin_WrongPassword(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	user := testUser(t, "user@example.com", "Abcdef1!", models.RoleSeeker)

	e.st.EXPECT().UserByEmail(gomock.Any(), user.Email).Return(user, nil)

	rec := e.do(t, http.MethodPost, "/auth/login", loginRequest{
		Email:    user.Email,
		Password: "Wrong-pass1",
	}, "")

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogin_NotVerified(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	user := testUser(t, "user@example.com", "Abcdef1!", models.RoleSeeker)
	user.EmailVerified = false
	user.Status = models.StatusPending

	e.st.EXPECT().UserByEmail(gomock.Any(), user.Email).Return(user, nil)

	rec := e.do(t, http.MethodPost, "/auth/login", loginRequest{
		Email:    user.Email,
		Password: "Abcdef1!",
	}, "")

	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRefresh_InvalidToken(t *testing.T) {
	t.Parallel()

	e := newEnv(t)

	rec := e.do(t, http.MethodPost, "/auth/refresh", refreshRequest{
		RefreshToken: "garbage",
	}, "")

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRefresh_OK(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	user := testUser(t, "user@example.com", "Abcdef1!", models.RoleSeeker)
	tokens := e.login(t, user, "Abcdef1!")

	e.sc.EXPECT().RefreshToken(gomock.Any(), user.ID).Return(tokens.RefreshToken, true, nil)
	e.st.EXPECT().UserByID(gomock.Any(), user.ID).Return(user, nil)
	e.st.EXPECT().RolesByUserID(gomock.Any(), user.ID).Return(user.Roles, nil)

	rec := e.do(t, http.MethodPost, "/auth/refresh", refreshRequest{
		RefreshToken: tokens.RefreshToken,
	}, "")

	require.Equal(t, http.StatusOK, rec.Code)

	var resp refreshResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.AccessToken)
}

func TestMe_RequiresToken(t *testing.T) {
	t.Parallel()

	e := newEnv(t)

	rec := e.do(t, http.MethodGet, "/auth/me", nil, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMe_OK(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	user := testUser(t, "user@example.com", "Abcdef1!", models.RoleSeeker)
	tokens := e.login(t, user, "Abcdef1!")

	e.sc.EXPECT().IsDenylisted(gomock.Any(), tokens.AccessToken).Return(false, nil)

	rec := e.do(t, http.MethodGet, "/auth/me", nil, tokens.AccessToken)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp principalResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, user.ID.String(), resp.UserID)
	require.Contains(t, resp.Roles, "seeker")
}

func TestMe_DenylistedToken(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	user := testUser(t, "user@example.com", "Abcdef1!", models.RoleSeeker)
	tokens := e.login(t, user, "Abcdef1!")

	e.sc.EXPECT().IsDenylisted(gomock.Any(), tokens.AccessToken).Return(true, nil)

	rec := e.do(t, http.MethodGet, "/auth/me", nil, tokens.AccessToken)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUserByID_OwnerAllowed(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	user := testUser(t, "user@example.com", "Abcdef1!", models.RoleSeeker)
	tokens := e.login(t, user, "Abcdef1!")

	e.sc.EXPECT().IsDenylisted(gomock.Any(), tokens.AccessToken).Return(false, nil)
	e.st.EXPECT().UserByID(gomock.Any(), user.ID).Return(user, nil)

	rec := e.do(t, http.MethodGet, "/auth/users/"+user.ID.String(), nil, tokens.AccessToken)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestUserByID_StrangerForbidden(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	user := testUser(t, "user@example.com", "Abcdef1!", models.RoleSeeker)
	tokens := e.login(t, user, "Abcdef1!")

	e.sc.EXPECT().IsDenylisted(gomock.Any(), tokens.AccessToken).Return(false, nil)

	rec := e.do(t, http.MethodGet, "/auth/users/"+uuid.NewString(), nil, tokens.AccessToken)
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestUserByID_AdminAllowed(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	admin := testUser(t, "admin@example.com", "Abcdef1!", models.RoleAdmin)
	target := testUser(t, "user@example.com", "Abcdef1!", models.RoleSeeker)
	tokens := e.login(t, admin, "Abcdef1!")

	e.sc.EXPECT().IsDenylisted(gomock.Any(), tokens.AccessToken).Return(false, nil)
	e.st.EXPECT().UserByID(gomock.Any(), target.ID).Return(target, nil)

	rec := e.do(t, http.MethodGet, "/auth/users/"+target.ID.String(), nil, tokens.AccessToken)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestLogout_OK_ThenSecondFails(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	user := testUser(t, "user@example.com", "Abcdef1!", models.RoleSeeker)
	tokens := e.login(t, user, "Abcdef1!")

	e.sc.EXPECT().IsDenylisted(gomock.Any(), tokens.AccessToken).Return(false, nil)
	e.sc.EXPECT().DeleteRefreshToken(gomock.Any(), user.ID).Return(true, nil)
	e.sc.EXPECT().DenylistAccessToken(gomock.Any(), tokens.AccessToken, gomock.Any()).Return(nil)

	rec := e.do(t, http.MethodPost, "/auth/logout", nil, tokens.AccessToken)
	require.Equal(t, http.StatusOK, rec.Code)

	// Повторный logout: токен уже в denylist — отказ на аутентификации.
	e.sc.EXPECT().IsDenylisted(gomock.Any(), tokens.AccessToken).Return(true, nil)

	rec = e.do(t, http.MethodPost, "/auth/logout", nil, tokens.AccessToken)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestEmailConfirm_WrongCode(t *testing.T) {
	t.Parallel()

	e := newEnv(t)

	e.sc.EXPECT().VerificationCode(gomock.Any(), "email_verify", "user@example.com").Return("123456", true, nil)

	rec := e.do(t, http.MethodPost, "/auth/email/confirm", confirmCodeRequest{
		Email: "user@example.com",
		Code:  "000000",
	}, "")

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestEmailConfirm_OK(t *testing.T) {
	t.Parallel()

	e := newEnv(t)

	e.sc.EXPECT().VerificationCode(gomock.Any(), "email_verify", "user@example.com").Return("123456", true, nil)
	e.sc.EXPECT().DeleteVerificationCode(gomock.Any(), "email_verify", "user@example.com").Return(nil)
	e.st.EXPECT().MarkEmailVerified(gomock.Any(), "user@example.com").Return(nil)

	rec := e.do(t, http.MethodPost, "/auth/email/confirm", confirmCodeRequest{
		Email: "user@example.com",
		Code:  "123456",
	}, "")

	require.Equal(t, http.StatusOK, rec.Code)
}

func TestEmailRequest_MixedCaseStoredUnderCanonicalKey(t *testing.T) {
	t.Parallel()

	e := newEnv(t)

	// Повторный запрос кода в смешанном регистре хранит код под
	// канонической формой адреса — той же, по которой ищет confirm.
	e.sc.EXPECT().SetVerificationCode(gomock.Any(), "email_verify", "user@example.com", gomock.Any(), gomock.Any()).Return(nil)

	rec := e.do(t, http.MethodPost, "/auth/email/request", emailRequest{
		Email: "User@Example.com",
	}, "")

	require.Equal(t, http.StatusAccepted, rec.Code)
}

func TestPasswordRequest_UnknownEmailStillAccepted(t *testing.T) {
	t.Parallel()

	e := newEnv(t)

	e.st.EXPECT().UserByEmail(gomock.Any(), "absent@example.com").Return(nil, storage.ErrNotFound)

	rec := e.do(t, http.MethodPost, "/auth/password/request", emailRequest{
		Email: "absent@example.com",
	}, "")

	require.Equal(t, http.StatusAccepted, rec.Code)
}

func TestBearerToken_Parsing(t *testing.T) {
	t.Parallel()

	require.Equal(t, "abc", bearerToken("Bearer abc"))
	require.Equal(t, "abc", bearerToken("bearer abc"))
	require.Empty(t, bearerToken(""))
	require.Empty(t, bearerToken("Basic abc"))
	require.Empty(t, bearerToken("Bearer"))
}
