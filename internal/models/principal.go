package models

import (
	"time"

	"github.com/google/uuid"
)

// Principal — разрешённая личность текущего запроса, восстановленная из
// валидного access-токена. Не персистится; собирается заново на каждый
// запрос (парсинг подписи + проверка denylist).
type Principal struct {
	// UserID — идентификатор субъекта (claim sub).
	UserID uuid.UUID
	// Roles — множество ролей из claims access-токена.
	Roles RoleSet
	// IssuedAt — момент выпуска токена (UTC).
	IssuedAt time.Time
	// ExpiresAt — момент истечения токена (UTC).
	ExpiresAt time.Time
}
