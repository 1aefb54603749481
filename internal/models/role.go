package models

import (
	"fmt"
	"sort"
	"strings"
)

// Role — тег роли пользователя. Пользователь может одновременно иметь
// несколько ролей (например, соискатель и работодатель), поэтому роли
// моделируются как множество, а не как взаимоисключающий enum.
type Role string

const (
	// RoleSeeker — соискатель (личный кабинет, резюме, отклики).
	RoleSeeker Role = "seeker"
	// RoleBusiness — работодатель (вакансии, компания).
	RoleBusiness Role = "business"
	// RoleAdmin — администратор платформы.
	RoleAdmin Role = "admin"
)

// ParseRole проверяет, что строка — известный тег роли.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleSeeker, RoleBusiness, RoleAdmin:
		return Role(s), nil
	}

	return "", fmt.Errorf("unknown role %q", s)
}

// RoleSet — множество ролей пользователя. Нулевое значение (nil) — пустое
// множество; перед Add необходимо создать через NewRoleSet.
type RoleSet map[Role]struct{}

// NewRoleSet создаёт множество из перечисленных ролей.
func NewRoleSet(roles ...Role) RoleSet {
	set := make(RoleSet, len(roles))
	for _, r := range roles {
		set[r] = struct{}{}
	}

	return set
}

// RoleSetFromStrings собирает множество из строковых тегов.
// Неизвестный тег — ошибка (защита от опечаток в БД/claims).
func RoleSetFromStrings(tags []string) (RoleSet, error) {
	set := make(RoleSet, len(tags))
	for _, t := range tags {
		r, err := ParseRole(strings.TrimSpace(t))
		if err != nil {
			return nil, err
		}
		set[r] = struct{}{}
	}

	return set, nil
}

// Has проверяет принадлежность роли множеству.
func (s RoleSet) Has(r Role) bool {
	_, ok := s[r]
	return ok
}

// Add добавляет роль.
func (s RoleSet) Add(r Role) {
	s[r] = struct{}{}
}

// Union возвращает объединение множеств (исходные не изменяются).
func (s RoleSet) Union(other RoleSet) RoleSet {
	out := make(RoleSet, len(s)+len(other))
	for r := range s {
		out[r] = struct{}{}
	}
	for r := range other {
		out[r] = struct{}{}
	}

	return out
}

// Strings возвращает отсортированный срез тегов — детерминированное
// представление для claims токена и для логов.
func (s RoleSet) Strings() []string {
	out := make([]string, 0, len(s))
	for r := range s {
		out = append(out, string(r))
	}
	sort.Strings(out)

	return out
}

// IsEmpty сообщает, что у пользователя нет ни одной роли.
func (s RoleSet) IsEmpty() bool {
	return len(s) == 0
}
