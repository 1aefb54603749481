// redact маскирует чувствительные значения перед записью в лог.
// Сервис аутентификации по определению работает с адресами, паролями и
// токенами — в логи они попадают только через эти хелперы.
package redact

import "strings"

// Email оставляет первые два символа локальной части и домен целиком:
// достаточно для корреляции инцидента, недостаточно для восстановления
// адреса. Строка без ровно одного '@' маскируется полностью.
func Email(s string) string {
	parts := strings.Split(s, "@")
	if len(parts) != 2 {
		return "***"
	}

	local, domain := parts[0], parts[1]
	if len(local) > 2 {
		local = local[:2] + "***"
	} else {
		local = "***"
	}

	return local + "@" + domain
}

// Token и Password — плейсхолдеры: сами значения в лог не попадают никогда.
func Token() string    { return "[REDACTED_TOKEN]" }
func Password() string { return "[REDACTED_PASSWORD]" }
