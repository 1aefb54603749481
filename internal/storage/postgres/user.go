package postgres

import (
	"context"
	"errors"
	"fmt"

	"jobboard/auth-service/internal/models"
	"jobboard/auth-service/internal/storage"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// SaveUser создаёт новую учётную запись.
func (s *Storage) SaveUser(ctx context.Context, user *models.User) error {
	const op = "storage.postgres.SaveUser"

	query := `
		INSERT INTO users(id, email, password_hash, status, email_verified, roles, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := s.db.Exec(ctx, query,
		user.ID,
		user.Email,
		user.PasswordHash,
		string(user.Status),
		user.EmailVerified,
		user.Roles.Strings(),
		user.CreatedAt,
		user.UpdatedAt,
	)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return fmt.Errorf("%s: %w", op, storage.ErrAlreadyExists)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// scanUser — общий скан строки users в модель.
func scanUser(row pgx.Row) (*models.User, error) {
	var (
		user   models.User
		status string
		roles  []string
	)

	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&status,
		&user.EmailVerified,
		&roles,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	user.Status = models.AccountStatus(status)

	set, err := models.RoleSetFromStrings(roles)
	if err != nil {
		return nil, err
	}
	user.Roles = set

	return &user, nil
}

const userColumns = `id, email, password_hash, status, email_verified, roles, created_at, updated_at`

// UserByEmail находит учётную запись по email.
func (s *Storage) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.postgres.UserByEmail"

	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE email = $1
	`

	user, err := scanUser(s.db.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

// UserByID находит учётную запись по ID.
func (s *Storage) UserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	const op = "storage.postgres.UserByID"

	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE id = $1
	`

	user, err := scanUser(s.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

// RolesByUserID возвращает полное множество ролей: базовые роли записи,
// объединённые с ролями, выводимыми из существующих профилей.
func (s *Storage) RolesByUserID(ctx context.Context, id uuid.UUID) (models.RoleSet, error) {
	const op = "storage.postgres.RolesByUserID"

	query := `
		SELECT u.roles,
		       EXISTS(SELECT 1 FROM seeker_profiles sp WHERE sp.user_id = u.id),
		       EXISTS(SELECT 1 FROM business_profiles bp WHERE bp.user_id = u.id)
		FROM users u
		WHERE u.id = $1
	`

	var (
		base        []string
		hasSeeker   bool
		hasBusiness bool
	)
	err := s.db.QueryRow(ctx, query, id).Scan(&base, &hasSeeker, &hasBusiness)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	set, err := models.RoleSetFromStrings(base)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	derived := models.NewRoleSet()
	if hasSeeker {
		derived.Add(models.RoleSeeker)
	}
	if hasBusiness {
		derived.Add(models.RoleBusiness)
	}

	return set.Union(derived), nil
}

// DisplayNameByUserID возвращает отображаемое имя из профиля той роли,
// что существует (приоритет у профиля соискателя); пустая строка — профилей нет.
func (s *Storage) DisplayNameByUserID(ctx context.Context, id uuid.UUID) (string, error) {
	const op = "storage.postgres.DisplayNameByUserID"

	query := `
		SELECT COALESCE(sp.name, bp.company_name, '')
		FROM users u
		LEFT JOIN seeker_profiles sp ON sp.user_id = u.id
		LEFT JOIN business_profiles bp ON bp.user_id = u.id
		WHERE u.id = $1
	`

	var name string
	err := s.db.QueryRow(ctx, query, id).Scan(&name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return "", fmt.Errorf("%s: %w", op, err)
	}

	return name, nil
}

// MarkEmailVerified помечает e-mail подтверждённым; запись в статусе
// pending переводится в active.
func (s *Storage) MarkEmailVerified(ctx context.Context, email string) error {
	const op = "storage.postgres.MarkEmailVerified"

	query := `
		UPDATE users
		SET email_verified = TRUE,
		    status = CASE WHEN status = 'pending' THEN 'active' ELSE status END,
		    updated_at = now()
		WHERE email = $1
	`

	cmdTag, err := s.db.Exec(ctx, query, email)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return nil
}

// UpdatePassword заменяет хэш пароля пользователя.
func (s *Storage) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	const op = "storage.postgres.UpdatePassword"

	query := `
		UPDATE users
		SET password_hash = $2,
		    updated_at = now()
		WHERE id = $1
	`

	cmdTag, err := s.db.Exec(ctx, query, id, passwordHash)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return nil
}
