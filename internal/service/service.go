// service содержит бизнес-логику подсистемы аутентификации и жизненного
// цикла сессий: проверку учётных данных, выпуск/валидацию токенов,
// ротацию refresh-токена с отзывом, авторизационные примитивы и коды
// подтверждения e-mail / сброса пароля.
//
// Основные аспекты:
//   - Пакет не хранит состояние запроса внутри Service; экземпляр Service
//     безопасен для конкурентного использования из разных горутин — всё
//     межзапросное состояние живёт в Revocation Store (Redis) и в БД.
//   - Ошибки возвращаются и далее маппятся транспортом на HTTP-коды
//     (см. комментарии к переменным ошибок ниже). Инфраструктурные сбои
//     (БД/Redis недоступны) никогда не маппятся на ошибки аутентификации:
//     они уходят наверх обёрнутыми и превращаются в 500.
package service

import (
	"context"
	"errors"

	"jobboard/auth-service/internal/cache"
	"jobboard/auth-service/internal/config"
	"jobboard/auth-service/internal/storage"
)

var (
	// ErrInvalidCredentials — пара логин/пароль неверна или пользователь
	// не найден (оба случая намеренно неразличимы для клиента).
	// Транспорт: HTTP 401.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrAccountNotVerified — вход до подтверждения e-mail либо запись
	// не в статусе active. Сигнал отличен от ErrInvalidCredentials,
	// чтобы клиент вёл пользователя на подтверждение, а не на повтор
	// пароля. Транспорт: HTTP 403.
	ErrAccountNotVerified = errors.New("account not verified")

	// ErrInvalidToken — access-токен отсутствует, некорректен по
	// формату/подписи или находится в denylist. Транспорт: HTTP 401.
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenExpired — срок действия access-токена истёк. Отличается от
	// ErrInvalidToken, чтобы клиент знал, что refresh может помочь.
	// Транспорт: HTTP 401.
	ErrTokenExpired = errors.New("token expired")

	// ErrInvalidRefreshToken — refresh-токен не прошёл проверку подписи
	// или не совпал с сохранённым (в т.ч. вытеснен новым входом).
	// Клиент обязан пройти полный вход заново. Транспорт: HTTP 401.
	ErrInvalidRefreshToken = errors.New("invalid refresh token")

	// ErrRefreshTokenExpired — срок действия refresh-токена истёк.
	// Транспорт: HTTP 401.
	ErrRefreshTokenExpired = errors.New("refresh token expired")

	// ErrPermissionDenied — субъект аутентифицирован, но не имеет нужной
	// роли либо не владеет ресурсом. Транспорт: HTTP 403.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrInvalidVerificationCode — код подтверждения отсутствует или не
	// совпал; при несовпадении запись остаётся до истечения TTL.
	// Транспорт: HTTP 422.
	ErrInvalidVerificationCode = errors.New("invalid verification code")

	// ErrEmailTaken — e-mail уже занят другим пользователем.
	// Транспорт: HTTP 409.
	ErrEmailTaken = errors.New("email already taken")

	// ErrInvalidEmail — e-mail имеет некорректный формат.
	// Транспорт: HTTP 400.
	ErrInvalidEmail = errors.New("invalid email format")

	// ErrWeakPassword — пароль не удовлетворяет политикам сложности.
	// Транспорт: HTTP 400.
	ErrWeakPassword = errors.New("password is too weak")

	// ErrEmptyPassword — пароль пустой.
	// Транспорт: HTTP 400.
	ErrEmptyPassword = errors.New("password is empty")

	// ErrUserNotFound — запрошенная учётная запись не существует.
	// Транспорт: HTTP 404.
	ErrUserNotFound = errors.New("user not found")
)

// Mailer доставляет коды подтверждения адресату. Сама доставка (SMTP,
// шаблоны писем) — зона ответственности внешнего коллаборатора.
type Mailer interface {
	SendVerificationCode(ctx context.Context, email string, purpose Purpose, code string) error
}

// Service описывает бизнес-логику подсистемы аутентификации.
type Service struct {
	storage storage.Storage
	cache   cache.SessionCache
	cfg     config.AuthConfig
	mailer  Mailer // может быть nil, если доставка не сконфигурирована
}

// New создаёт новый экземпляр Service.
func New(storage storage.Storage, cache cache.SessionCache, cfg config.AuthConfig) *Service {
	return &Service{
		storage: storage,
		cache:   cache,
		cfg:     cfg,
	}
}

// SetMailer устанавливает доставщик кодов подтверждения (опционально).
func (s *Service) SetMailer(m Mailer) {
	s.mailer = m
}
