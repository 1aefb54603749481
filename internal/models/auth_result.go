package models

import "github.com/google/uuid"

// AuthResult — результат успешного входа: идентификатор пользователя,
// отображаемое имя (из профиля той роли, что существует), множество ролей
// и пара токенов.
type AuthResult struct {
	UserID      uuid.UUID
	DisplayName string
	Roles       RoleSet
	Tokens      TokenPair
}
