package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"jobboard/auth-service/internal/models"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestAuthenticate_OK(t *testing.T) {
	t.Parallel()

	svc, _, sc, ctrl := newSvc(t)
	defer ctrl.Finish()

	ctx := context.Background()
	userID := uuid.New()

	token, _, err := svc.generateAccessToken(ctx, userID, models.NewRoleSet(models.RoleBusiness), time.Now().UTC())
	require.NoError(t, err)

	sc.EXPECT().IsDenylisted(gomock.Any(), token).Return(false, nil)

	principal, err := svc.Authenticate(ctx, token)
	require.NoError(t, err)
	require.Equal(t, userID, principal.UserID)
	require.True(t, principal.Roles.Has(models.RoleBusiness))
}

func TestAuthenticate_EmptyToken(t *testing.T) {
	t.Parallel()

	svc, _, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	_, err := svc.Authenticate(context.Background(), "")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthenticate_Denylisted(t *testing.T) {
	t.Parallel()

	svc, _, sc, ctrl := newSvc(t)
	defer ctrl.Finish()

	ctx := context.Background()

	token, _, err := svc.generateAccessToken(ctx, uuid.New(), models.NewRoleSet(models.RoleSeeker), time.Now().UTC())
	require.NoError(t, err)

	sc.EXPECT().IsDenylisted(gomock.Any(), token).Return(true, nil)

	_, err = svc.Authenticate(ctx, token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthenticate_ExpiredSkipsDenylist(t *testing.T) {
	t.Parallel()

	svc, _, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	ctx := context.Background()
	issuedAt := time.Now().UTC().Add(-2 * svc.cfg.AccessTokenTTL)

	token, _, err := svc.generateAccessToken(ctx, uuid.New(), models.NewRoleSet(models.RoleSeeker), issuedAt)
	require.NoError(t, err)

	// IsDenylisted не вызывается: токен отвергнут ещё на валидации.
	_, err = svc.Authenticate(ctx, token)
	require.ErrorIs(t, err, ErrTokenExpired)
}

func TestAuthenticate_DenylistInfraError(t *testing.T) {
	t.Parallel()

	svc, _, sc, ctrl := newSvc(t)
	defer ctrl.Finish()

	ctx := context.Background()
	infraErr := errors.New("redis down")

	token, _, err := svc.generateAccessToken(ctx, uuid.New(), models.NewRoleSet(models.RoleSeeker), time.Now().UTC())
	require.NoError(t, err)

	sc.EXPECT().IsDenylisted(gomock.Any(), token).Return(false, infraErr)

	// Сбой инфраструктуры не маскируется под ошибку аутентификации.
	_, err = svc.Authenticate(ctx, token)
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrInvalidToken)
}

func TestRequireRole(t *testing.T) {
	t.Parallel()

	p := &models.Principal{
		UserID: uuid.New(),
		Roles:  models.NewRoleSet(models.RoleSeeker),
	}

	require.NoError(t, RequireRole(p, models.RoleSeeker))
	require.ErrorIs(t, RequireRole(p, models.RoleAdmin), ErrPermissionDenied)
	require.ErrorIs(t, RequireRole(nil, models.RoleSeeker), ErrPermissionDenied)
}

func TestRequireOwnerOrAdmin(t *testing.T) {
	t.Parallel()

	ownerID := uuid.New()

	owner := &models.Principal{UserID: ownerID, Roles: models.NewRoleSet(models.RoleSeeker)}
	admin := &models.Principal{UserID: uuid.New(), Roles: models.NewRoleSet(models.RoleAdmin)}
	other := &models.Principal{UserID: uuid.New(), Roles: models.NewRoleSet(models.RoleSeeker)}

	require.NoError(t, RequireOwnerOrAdmin(owner, ownerID))
	require.NoError(t, RequireOwnerOrAdmin(admin, ownerID))
	require.ErrorIs(t, RequireOwnerOrAdmin(other, ownerID), ErrPermissionDenied)
	require.ErrorIs(t, RequireOwnerOrAdmin(nil, ownerID), ErrPermissionDenied)
}
