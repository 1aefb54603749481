package models

import (
	"time"

	"github.com/google/uuid"
)

// AccountStatus — статус учётной записи.
type AccountStatus string

const (
	// StatusPending — запись создана, e-mail ещё не подтверждён.
	StatusPending AccountStatus = "pending"
	// StatusActive — запись активна, вход разрешён.
	StatusActive AccountStatus = "active"
	// StatusSuspended — запись заблокирована администратором.
	StatusSuspended AccountStatus = "suspended"
	// StatusDeleted — запись удалена (мягкое удаление).
	StatusDeleted AccountStatus = "deleted"
)

// User — учётная запись (credential record). Сервис читает её при входе и
// обновлении токенов; из мутаций ему принадлежат только подтверждение
// e-mail и смена пароля — остальной жизненный цикл ведут коллабораторы.
type User struct {
	ID            uuid.UUID
	Email         string
	PasswordHash  string
	Status        AccountStatus
	EmailVerified bool
	// Roles — базовые роли из самой записи; полное множество ролей
	// собирается объединением с ролями, выводимыми из профилей
	// (см. storage.RolesByUserID).
	Roles     RoleSet
	CreatedAt time.Time
	UpdatedAt time.Time
}
