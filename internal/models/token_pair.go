package models

import "time"

// TokenPair — пара токенов, выдаваемая при входе.
//
// Описание:
//   - AccessToken — короткоживущий JWT с множеством ролей в claims;
//   - RefreshToken — более долгоживущий JWT только с субъектом (без ролей:
//     смена ролей между выпуском и refresh подхватывается заново из
//     хранилища учётных записей, а не реплеится из устаревшего токена);
//   - AccessExpiresAt — момент истечения access-токена (UTC).
type TokenPair struct {
	// AccessToken — JWT для авторизации запросов.
	AccessToken string
	// RefreshToken — JWT для выпуска новых access-токенов;
	// на сервере хранится в Revocation Store под ключом пользователя.
	RefreshToken string
	// AccessExpiresAt — время истечения действия access-токена (UTC).
	AccessExpiresAt time.Time
}
