package storage

import (
	"context"
	"errors"

	"jobboard/auth-service/internal/models"

	"github.com/google/uuid"
)

var (
	// ErrNotFound — запись не найдена (пользователь/профиль).
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists — нарушение уникальности (email).
	ErrAlreadyExists = errors.New("already exists")
)

// UserStorage выполняет операции над учётными записями.
// Сервис читает записи при входе/refresh; из мутаций ему принадлежат
// только подтверждение e-mail и смена пароля.
type UserStorage interface {
	// SaveUser создаёт новую учётную запись.
	SaveUser(ctx context.Context, user *models.User) error
	// UserByEmail находит учётную запись по email.
	UserByEmail(ctx context.Context, email string) (*models.User, error)
	// UserByID находит учётную запись по ID.
	UserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	// RolesByUserID возвращает полное множество ролей пользователя:
	// базовые роли записи, объединённые с ролями, выводимыми из
	// существующих профилей (seeker/business).
	RolesByUserID(ctx context.Context, id uuid.UUID) (models.RoleSet, error)
	// DisplayNameByUserID возвращает отображаемое имя из профиля той
	// роли, что существует; пустая строка — профилей нет.
	DisplayNameByUserID(ctx context.Context, id uuid.UUID) (string, error)
	// MarkEmailVerified помечает e-mail подтверждённым и переводит
	// запись из pending в active.
	MarkEmailVerified(ctx context.Context, email string) error
	// UpdatePassword заменяет хэш пароля пользователя.
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
}

// Storage задаёт контракт работы с БД.
type Storage interface {
	UserStorage
	Close()
}
