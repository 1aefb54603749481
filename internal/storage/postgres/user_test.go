package postgres

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"jobboard/auth-service/internal/models"
	"jobboard/auth-service/internal/storage"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// Файл интеграционных тестов для пакета postgres (репозиторий user.go):
// - поднимает реальный PostgreSQL через testcontainers-go (образ postgres:16-alpine);
// - применяет миграции из ./migrations (users + profiles);
// - проверяет happy-path (создание и поиск по email/ID), уникальность email (CITEXT),
//   агрегацию ролей из записи и профилей, подтверждение e-mail и смену пароля;
// - валидирует сценарии отсутствия записей (storage.ErrNotFound).
//
// Запуск локально:
//   GO_TEST_INTEGRATION=1 go test ./internal/storage/postgres -v -race -count=1

// repoRootFromThisFile — определяет корень репозитория относительно текущего файла тестов.
// Используется для поиска SQL-миграций в каталоге ./migrations независимо от текущего рабочего каталога.
func repoRootFromThisFile() string {
	// internal/storage/postgres/... -> подняться на 3 уровня до корня.
	_, thisFile, _, _ := runtime.Caller(0)
	return filepath.Clean(filepath.Join(filepath.Dir(thisFile), "..", "..", ".."))
}

// readMigration — читает содержимое SQL-миграции из подкаталога ./migrations.
func readMigration(t *testing.T, name string) string {
	t.Helper()
	root := repoRootFromThisFile()
	path := filepath.Join(root, "migrations", name)
	b, err := os.ReadFile(path)
	require.NoError(t, err, "read migration %s", path)
	return string(b)
}

// startPostgres — поднимает временный экземпляр PostgreSQL через testcontainers-go,
// применяет миграции и возвращает инициализированное хранилище и функцию очистки.
// Если переменная окружения GO_TEST_INTEGRATION не установлена — тест пропускается.
func startPostgres(t *testing.T) (*Storage, *pgxpool.Pool, func()) {
	t.Helper()
	if os.Getenv("GO_TEST_INTEGRATION") == "" {
		t.Skip("integration tests are disabled (set GO_TEST_INTEGRATION=1)")
	}

	ctx := context.Background()
	req := tc.ContainerRequest{
		Image:        "postgres:16-alpine",
		Env:          map[string]string{"POSTGRES_USER": "user", "POSTGRES_PASSWORD": "pass", "POSTGRES_DB": "db"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	require.NoError(t, err)

	host, _ := c.Host(ctx)
	port, _ := c.MappedPort(ctx, "5432/tcp")
	dsn := fmt.Sprintf("postgres://user:pass@%s:%s/db?sslmode=disable", host, port.Port())

	// применяем миграции.
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)

	_, err = pool.Exec(ctx, readMigration(t, "1_init_users.up.sql"))
	require.NoError(t, err)
	_, err = pool.Exec(ctx, readMigration(t, "2_init_profiles.up.sql"))
	require.NoError(t, err)

	st, err := New(ctx, dsn)
	require.NoError(t, err)

	cleanup := func() {
		st.Close()
		pool.Close()
		_ = c.Terminate(context.Background())
	}
	return st, pool, cleanup
}

func newTestUser(email string) *models.User {
	now := time.Now().UTC()
	return &models.User{
		ID:            uuid.New(),
		Email:         email,
		PasswordHash:  "hash",
		Status:        models.StatusPending,
		EmailVerified: false,
		Roles:         models.NewRoleSet(models.RoleSeeker),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// TestIntegration_SaveUser_And_GetByEmail_And_ByID_OK — happy-path:
// сохранение пользователя и последующий поиск по email и ID; проверка CITEXT (регистронезависимо).
func TestIntegration_SaveUser_And_GetByEmail_And_ByID_OK(t *testing.T) {
	st, _, cleanup := startPostgres(t)
	defer cleanup()

	u := newTestUser("User@Example.Com")
	require.NoError(t, st.SaveUser(context.Background(), u))

	gotByEmail, err := st.UserByEmail(context.Background(), strings.ToLower(u.Email))
	require.NoError(t, err)
	require.Equal(t, strings.ToLower(u.Email), strings.ToLower(gotByEmail.Email))
	require.Equal(t, models.StatusPending, gotByEmail.Status)
	require.False(t, gotByEmail.EmailVerified)
	require.True(t, gotByEmail.Roles.Has(models.RoleSeeker))
	require.WithinDuration(t, u.CreatedAt, gotByEmail.CreatedAt, time.Second)

	gotByID, err := st.UserByID(context.Background(), u.ID)
	require.NoError(t, err)
	require.Equal(t, u.ID, gotByID.ID)
}

// TestIntegration_SaveUser_UniqueEmail_CaseInsensitive_Violation — конфликт уникальности по email
// при различии только в регистре, ожидаем storage.ErrAlreadyExists.
func TestIntegration_SaveUser_UniqueEmail_CaseInsensitive_Violation(t *testing.T) {
	st, _, cleanup := startPostgres(t)
	defer cleanup()

	a := newTestUser("user@example.com")
	require.NoError(t, st.SaveUser(context.Background(), a))

	b := newTestUser("USER@EXAMPLE.COM") // тот же email, другой регистр
	err := st.SaveUser(context.Background(), b)
	require.Error(t, err)
	require.ErrorIs(t, err, storage.ErrAlreadyExists)
}

// TestIntegration_RolesByUserID_MergesProfiles — роли из записи объединяются
// с ролями, выводимыми из существующих профилей.
func TestIntegration_RolesByUserID_MergesProfiles(t *testing.T) {
	st, pool, cleanup := startPostgres(t)
	defer cleanup()

	ctx := context.Background()
	u := newTestUser("roles@example.com")
	require.NoError(t, st.SaveUser(ctx, u))

	_, err := pool.Exec(ctx,
		`INSERT INTO business_profiles (user_id, company_name) VALUES ($1, $2)`,
		u.ID, "Acme GmbH",
	)
	require.NoError(t, err)

	roles, err := st.RolesByUserID(ctx, u.ID)
	require.NoError(t, err)
	require.True(t, roles.Has(models.RoleSeeker))
	require.True(t, roles.Has(models.RoleBusiness))
	require.False(t, roles.Has(models.RoleAdmin))
}

// TestIntegration_DisplayNameByUserID — имя берётся из существующего профиля;
// без профилей — пустая строка.
func TestIntegration_DisplayNameByUserID(t *testing.T) {
	st, pool, cleanup := startPostgres(t)
	defer cleanup()

	ctx := context.Background()
	u := newTestUser("name@example.com")
	require.NoError(t, st.SaveUser(ctx, u))

	name, err := st.DisplayNameByUserID(ctx, u.ID)
	require.NoError(t, err)
	require.Empty(t, name)

	_, err = pool.Exec(ctx,
		`INSERT INTO seeker_profiles (user_id, name) VALUES ($1, $2)`,
		u.ID, "Ivan Petrov",
	)
	require.NoError(t, err)

	name, err = st.DisplayNameByUserID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, "Ivan Petrov", name)
}

// TestIntegration_MarkEmailVerified_ActivatesPending — подтверждение e-mail
// переводит запись из pending в active.
func TestIntegration_MarkEmailVerified_ActivatesPending(t *testing.T) {
	st, _, cleanup := startPostgres(t)
	defer cleanup()

	ctx := context.Background()
	u := newTestUser("pending@example.com")
	require.NoError(t, st.SaveUser(ctx, u))

	require.NoError(t, st.MarkEmailVerified(ctx, u.Email))

	got, err := st.UserByEmail(ctx, u.Email)
	require.NoError(t, err)
	require.True(t, got.EmailVerified)
	require.Equal(t, models.StatusActive, got.Status)
}

// TestIntegration_MarkEmailVerified_NotFound — подтверждение для отсутствующего
// адреса, ожидаем storage.ErrNotFound.
func TestIntegration_MarkEmailVerified_NotFound(t *testing.T) {
	st, _, cleanup := startPostgres(t)
	defer cleanup()

	err := st.MarkEmailVerified(context.Background(), "absent@example.com")
	require.Error(t, err)
	require.ErrorIs(t, err, storage.ErrNotFound)
}

// TestIntegration_UpdatePassword_OK — смена хэша пароля.
func TestIntegration_UpdatePassword_OK(t *testing.T) {
	st, _, cleanup := startPostgres(t)
	defer cleanup()

	ctx := context.Background()
	u := newTestUser("pw@example.com")
	require.NoError(t, st.SaveUser(ctx, u))

	require.NoError(t, st.UpdatePassword(ctx, u.ID, "new-hash"))

	got, err := st.UserByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, "new-hash", got.PasswordHash)
}

// TestIntegration_UserByEmail_NotFound — поиск по email для отсутствующей записи,
// ожидаем storage.ErrNotFound.
func TestIntegration_UserByEmail_NotFound(t *testing.T) {
	st, _, cleanup := startPostgres(t)
	defer cleanup()

	_, err := st.UserByEmail(context.Background(), "absent@example.com")
	require.Error(t, err)
	require.ErrorIs(t, err, storage.ErrNotFound)
}

// TestIntegration_UserByID_NotFound — поиск по ID для отсутствующей записи,
// ожидаем storage.ErrNotFound.
func TestIntegration_UserByID_NotFound(t *testing.T) {
	st, _, cleanup := startPostgres(t)
	defer cleanup()

	_, err := st.UserByID(context.Background(), uuid.New())
	require.Error(t, err)
	require.ErrorIs(t, err, storage.ErrNotFound)
}

// TestIntegration_UserQueries_ContextCanceled — отменённый контекст должен «просочиться» в ошибки
// чтения (UserByEmail, UserByID) как context.Canceled.
func TestIntegration_UserQueries_ContextCanceled(t *testing.T) {
	st, _, cleanup := startPostgres(t)
	defer cleanup()

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // отменяем заранее

	_, err := st.UserByEmail(ctx, "user@example.com")
	require.Error(t, err)
	require.ErrorIs(t, err, context.Canceled)

	_, err = st.UserByID(ctx, uuid.New())
	require.Error(t, err)
	require.ErrorIs(t, err, context.Canceled)
}
