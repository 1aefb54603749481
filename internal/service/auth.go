package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"
	"unicode"

	"jobboard/auth-service/internal/models"
	"jobboard/auth-service/internal/pkg/log"
	"jobboard/auth-service/internal/pkg/redact"
	"jobboard/auth-service/internal/storage"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// RegisterUser регистрирует новую учётную запись в статусе pending и
// отправляет код подтверждения e-mail. Роль admin самостоятельной
// регистрации не подлежит.
func (s *Service) RegisterUser(ctx context.Context, email, password string, roles models.RoleSet) (uuid.UUID, error) {
	const op = "service.auth.RegisterUser"

	normEmail, err := validateEmail(email)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s: %w", op, ErrInvalidEmail)
	}

	if err := validatePassword(password); err != nil {
		return uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	if roles.IsEmpty() {
		roles = models.NewRoleSet(models.RoleSeeker)
	}
	if roles.Has(models.RoleAdmin) {
		return uuid.Nil, fmt.Errorf("%s: %w", op, ErrPermissionDenied)
	}

	_, err = s.storage.UserByEmail(ctx, normEmail)
	if err == nil {
		return uuid.Nil, fmt.Errorf("%s: %w", op, ErrEmailTaken)
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	hashedPassword, err := hashPassword(password)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	now := time.Now().UTC()
	user := &models.User{
		ID:            uuid.New(),
		Email:         normEmail,
		PasswordHash:  hashedPassword,
		Status:        models.StatusPending,
		EmailVerified: false,
		Roles:         roles,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.storage.SaveUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return uuid.Nil, fmt.Errorf("%s: %w", op, ErrEmailTaken)
		}

		return uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	// Сбой выпуска/доставки кода НЕ откатывает созданную запись: она
	// остаётся в pending и не пропускает вход, а новый код запрашивается
	// через повторный запрос кода подтверждения без повторной регистрации.
	if _, err := s.IssueVerificationCode(ctx, PurposeEmailVerify, normEmail); err != nil {
		log.From(ctx).Error("issue_verification_code_failed",
			slog.String("op", op),
			slog.String("email", redact.Email(normEmail)),
			slog.String("err", err.Error()),
		)
		return uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	return user.ID, nil
}

// LoginUser выполняет вход по email+пароль.
//
// Порядок проверок фиксирован:
//  1. поиск записи (ErrInvalidCredentials при отсутствии);
//  2. e-mail подтверждён и статус active (иначе ErrAccountNotVerified);
//  3. проверка пароля (ErrInvalidCredentials при несовпадении);
//  4. множество ролей собирается заново (запись ∪ профили);
//  5. выпуск пары токенов; refresh сохраняется в Revocation Store под
//     ключом пользователя с TTL = времени жизни refresh-токена;
//  6. отображаемое имя — из профиля той роли, что существует.
func (s *Service) LoginUser(ctx context.Context, email, password string) (*models.AuthResult, error) {
	const op = "service.auth.LoginUser"

	lg := log.From(ctx)

	normEmail, err := validateEmail(email)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	if len(password) == 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	user, err := s.storage.UserByEmail(ctx, normEmail)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !user.EmailVerified || user.Status != models.StatusActive {
		lg.Warn("login_account_not_verified",
			slog.String("op", op),
			slog.String("email", redact.Email(normEmail)),
			slog.String("status", string(user.Status)),
		)
		return nil, fmt.Errorf("%s: %w", op, ErrAccountNotVerified)
	}

	if !checkPassword(user.PasswordHash, password) {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	roles, err := s.storage.RolesByUserID(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	now := time.Now().UTC()

	accessToken, accessExpiresAt, err := s.generateAccessToken(ctx, user.ID, roles, now)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	refreshToken, _, err := s.generateRefreshToken(ctx, user.ID, now)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	// Последний вход побеждает: предыдущий refresh-токен вытесняется
	// и конкурентный refresh по нему завершится ErrInvalidRefreshToken.
	if err := s.cache.SetRefreshToken(ctx, user.ID, refreshToken, s.cfg.RefreshTokenTTL); err != nil {
		lg.Error("store_refresh_token_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	displayName, err := s.storage.DisplayNameByUserID(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if displayName == "" {
		displayName = localPart(normEmail)
	}

	return &models.AuthResult{
		UserID:      user.ID,
		DisplayName: displayName,
		Roles:       roles,
		Tokens: models.TokenPair{
			AccessToken:     accessToken,
			RefreshToken:    refreshToken,
			AccessExpiresAt: accessExpiresAt,
		},
	}, nil
}

// RefreshToken выпускает новый access-токен по действительному
// refresh-токену. Сам refresh-токен НЕ ротируется: он остаётся валидным
// до собственного истечения либо до вытеснения новым входом.
func (s *Service) RefreshToken(ctx context.Context, presented string) (string, time.Time, error) {
	const op = "service.auth.RefreshToken"

	lg := log.From(ctx)

	userID, err := s.parseRefreshToken(presented)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("%s: %w", op, err)
	}

	stored, ok, err := s.cache.RefreshToken(ctx, userID)
	if err != nil {
		lg.Error("refresh_lookup_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return "", time.Time{}, fmt.Errorf("%s: %w", op, err)
	}

	// Точное совпадение с сохранённым значением: предъявление
	// вытесненного токена — отказ.
	if !ok || stored != presented {
		lg.Warn("refresh_token_superseded_or_missing",
			slog.String("op", op),
			slog.String("user_id", userID.String()),
		)
		return "", time.Time{}, fmt.Errorf("%s: %w", op, ErrInvalidRefreshToken)
	}

	// Перечитываем учётную запись: смена ролей/статуса после входа
	// должна подхватиться здесь, а не реплеиться из токена.
	user, err := s.storage.UserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", time.Time{}, fmt.Errorf("%s: %w", op, ErrInvalidRefreshToken)
		}

		return "", time.Time{}, fmt.Errorf("%s: %w", op, err)
	}

	if user.Status != models.StatusActive {
		lg.Warn("refresh_account_inactive",
			slog.String("op", op),
			slog.String("user_id", userID.String()),
			slog.String("status", string(user.Status)),
		)
		return "", time.Time{}, fmt.Errorf("%s: %w", op, ErrInvalidRefreshToken)
	}

	roles, err := s.storage.RolesByUserID(ctx, user.ID)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("%s: %w", op, err)
	}

	accessToken, expiresAt, err := s.generateAccessToken(ctx, user.ID, roles, time.Now().UTC())
	if err != nil {
		return "", time.Time{}, fmt.Errorf("%s: %w", op, err)
	}

	return accessToken, expiresAt, nil
}

// Logout завершает сессию: удаляет сохранённый refresh-токен и помещает
// предъявленный access-токен в denylist на остаток его жизни.
// Повторный Logout завершается ErrInvalidToken — идемпотентность
// намеренно не гарантируется.
func (s *Service) Logout(ctx context.Context, userID uuid.UUID, rawAccessToken string) error {
	const op = "service.auth.Logout"

	lg := log.From(ctx)

	existed, err := s.cache.DeleteRefreshToken(ctx, userID)
	if err != nil {
		lg.Error("delete_refresh_token_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return fmt.Errorf("%s: %w", op, err)
	}

	if !existed {
		return fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	principal, err := s.parseAccessToken(rawAccessToken)
	if err != nil {
		// Естественно истёкший токен денилистить незачем.
		if errors.Is(err, ErrTokenExpired) {
			return nil
		}

		return fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	remaining := time.Until(principal.ExpiresAt)
	if remaining <= 0 {
		return nil
	}

	if err := s.cache.DenylistAccessToken(ctx, rawAccessToken, remaining); err != nil {
		lg.Error("denylist_access_token_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// hashPassword хэширует пароль с помощью bcrypt.
func hashPassword(password string) (string, error) {
	const op = "service.auth.hashPassword"

	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return string(bytes), nil
}

// checkPassword сравнивает пароль с хэшем. Несовпадение — false,
// без различения причин (единое сообщение об ошибке для клиента).
func checkPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// validateEmail проверяет базовый формат email и обрезает пробелы снаружи.
func validateEmail(raw string) (string, error) {
	const op = "service.auth.validateEmail"

	email := strings.TrimSpace(raw)
	if email == "" {
		return "", fmt.Errorf("%s: %w", op, ErrInvalidEmail)
	}

	if _, err := mail.ParseAddress(email); err != nil {
		return "", fmt.Errorf("%s: %w", op, ErrInvalidEmail)
	}

	return strings.ToLower(email), nil
}

// validatePassword проверяет минимальные требования к паролю.
// Политика по умолчанию: длина >= 8, хотя бы одна строчная, заглавная и цифра.
func validatePassword(pw string) error {
	const op = "service.auth.validatePassword"

	if len(pw) == 0 {
		return fmt.Errorf("%s: %w", op, ErrEmptyPassword)
	}

	if len([]rune(pw)) < 8 {
		return fmt.Errorf("%s: %w", op, ErrWeakPassword)
	}

	var hasLower, hasUpper, hasDigit bool
	for _, r := range pw {
		switch {
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}

	if !(hasLower && hasUpper && hasDigit) {
		return fmt.Errorf("%s: %w", op, ErrWeakPassword)
	}

	return nil
}

// localPart возвращает часть адреса до @ — fallback для отображаемого
// имени, когда профилей ещё нет.
func localPart(email string) string {
	if i := strings.IndexByte(email, '@'); i > 0 {
		return email[:i]
	}

	return email
}
