package service

import (
	"context"
	"errors"
	"fmt"

	"jobboard/auth-service/internal/models"
	"jobboard/auth-service/internal/storage"

	"github.com/google/uuid"
)

// UserByID возвращает учётную запись по идентификатору. Проверка прав
// (владелец либо admin) — обязанность вызывающего слоя.
func (s *Service) UserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	const op = "service.user.UserByID"

	user, err := s.storage.UserByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}
