package service

import (
	"context"
	"fmt"
	"log/slog"

	"jobboard/auth-service/internal/models"
	"jobboard/auth-service/internal/pkg/log"

	"github.com/google/uuid"
)

// Authenticate валидирует предъявленный access-токен и восстанавливает
// субъекта запроса. Проверка denylist выполняется после криптографической
// валидации: на каждый запрос — ровно одно обращение к Revocation Store,
// и только для токенов, которые вообще могли бы быть приняты.
func (s *Service) Authenticate(ctx context.Context, rawToken string) (*models.Principal, error) {
	const op = "service.authz.Authenticate"

	if rawToken == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	principal, err := s.parseAccessToken(rawToken)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	denied, err := s.cache.IsDenylisted(ctx, rawToken)
	if err != nil {
		log.From(ctx).Error("denylist_check_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if denied {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	return principal, nil
}

// RequireRole требует наличия роли у субъекта.
func RequireRole(p *models.Principal, role models.Role) error {
	const op = "service.authz.RequireRole"

	if p == nil || !p.Roles.Has(role) {
		return fmt.Errorf("%s: %w", op, ErrPermissionDenied)
	}

	return nil
}

// RequireOwnerOrAdmin пропускает владельца ресурса либо администратора.
func RequireOwnerOrAdmin(p *models.Principal, ownerID uuid.UUID) error {
	const op = "service.authz.RequireOwnerOrAdmin"

	if p == nil {
		return fmt.Errorf("%s: %w", op, ErrPermissionDenied)
	}

	if p.UserID == ownerID || p.Roles.Has(models.RoleAdmin) {
		return nil
	}

	return fmt.Errorf("%s: %w", op, ErrPermissionDenied)
}
