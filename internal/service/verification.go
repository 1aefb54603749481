package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"

	"jobboard/auth-service/internal/pkg/log"
	"jobboard/auth-service/internal/pkg/redact"
	"jobboard/auth-service/internal/storage"
)

// Purpose — назначение кода подтверждения; входит в ключ Revocation Store,
// поэтому коды разных назначений для одного адреса не пересекаются.
type Purpose string

const (
	PurposeEmailVerify   Purpose = "email_verify"
	PurposePasswordReset Purpose = "password_reset"
)

// IssueVerificationCode генерирует шестизначный код, сохраняет его с TTL
// и, если сконфигурирован Mailer, отправляет адресату. Повторный вызов
// перезаписывает предыдущий код того же назначения.
//
// Адрес нормализуется здесь же: ключ в Revocation Store всегда строится
// по канонической (lowercase) форме, независимо от того, в каком регистре
// адрес пришёл от вызывающего.
func (s *Service) IssueVerificationCode(ctx context.Context, purpose Purpose, email string) (string, error) {
	const op = "service.verification.IssueVerificationCode"

	lg := log.From(ctx)

	normEmail, err := validateEmail(email)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, ErrInvalidEmail)
	}

	code, err := generateCode()
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if err := s.cache.SetVerificationCode(ctx, string(purpose), normEmail, code, s.cfg.CodeTTL); err != nil {
		lg.Error("store_verification_code_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if s.mailer != nil {
		if err := s.mailer.SendVerificationCode(ctx, normEmail, purpose, code); err != nil {
			lg.Error("send_verification_code_failed",
				slog.String("op", op),
				slog.String("email", redact.Email(normEmail)),
				slog.String("err", err.Error()),
			)
			return "", fmt.Errorf("%s: %w", op, err)
		}
	}

	lg.Info("verification_code_issued",
		slog.String("op", op),
		slog.String("purpose", string(purpose)),
		slog.String("email", redact.Email(normEmail)),
	)

	return code, nil
}

// CheckVerificationCode сверяет предъявленный код с сохранённым.
// Совпадение одноразово: код удаляется. Несовпадение кода НЕ удаляет —
// запись живёт до истечения TTL, опечатка не сжигает код.
func (s *Service) CheckVerificationCode(ctx context.Context, purpose Purpose, email, code string) error {
	const op = "service.verification.CheckVerificationCode"

	stored, ok, err := s.cache.VerificationCode(ctx, string(purpose), email)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if !ok || stored != code {
		return fmt.Errorf("%s: %w", op, ErrInvalidVerificationCode)
	}

	if err := s.cache.DeleteVerificationCode(ctx, string(purpose), email); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// VerifyEmail подтверждает e-mail по коду: запись переводится из pending
// в active и вход становится возможен.
func (s *Service) VerifyEmail(ctx context.Context, email, code string) error {
	const op = "service.verification.VerifyEmail"

	normEmail, err := validateEmail(email)
	if err != nil {
		return fmt.Errorf("%s: %w", op, ErrInvalidVerificationCode)
	}

	if err := s.CheckVerificationCode(ctx, PurposeEmailVerify, normEmail, code); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.storage.MarkEmailVerified(ctx, normEmail); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, ErrInvalidVerificationCode)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	log.From(ctx).Info("email_verified",
		slog.String("op", op),
		slog.String("email", redact.Email(normEmail)),
	)

	return nil
}

// RequestPasswordReset выпускает код сброса пароля. Для несуществующего
// адреса молча возвращает nil — ответ не раскрывает, зарегистрирован ли
// e-mail (защита от перебора адресов).
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	const op = "service.verification.RequestPasswordReset"

	normEmail, err := validateEmail(email)
	if err != nil {
		return fmt.Errorf("%s: %w", op, ErrInvalidEmail)
	}

	_, err = s.storage.UserByEmail(ctx, normEmail)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	if _, err := s.IssueVerificationCode(ctx, PurposePasswordReset, normEmail); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// ResetPassword устанавливает новый пароль по коду сброса.
func (s *Service) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	const op = "service.verification.ResetPassword"

	normEmail, err := validateEmail(email)
	if err != nil {
		return fmt.Errorf("%s: %w", op, ErrInvalidEmail)
	}

	if err := validatePassword(newPassword); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.CheckVerificationCode(ctx, PurposePasswordReset, normEmail, code); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	user, err := s.storage.UserByEmail(ctx, normEmail)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, ErrInvalidVerificationCode)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	hashedPassword, err := hashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.storage.UpdatePassword(ctx, user.ID, hashedPassword); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	log.From(ctx).Info("password_reset",
		slog.String("op", op),
		slog.String("email", redact.Email(normEmail)),
	)

	return nil
}

// generateCode возвращает равномерно распределённый шестизначный код
// (100000..999999) на криптографическом источнике случайности.
func generateCode() (string, error) {
	const op = "service.verification.generateCode"

	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
