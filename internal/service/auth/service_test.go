package auth

import (
	"context"
	"testing"

	"listkeeper/internal/apperr"
	"listkeeper/internal/repository"
	"listkeeper/internal/util"

	"github.com/stretchr/testify/require"
)

func TestRegisterAndLogin(t *testing.T) {
	svc := NewService(repository.NewMemoryUserStore(), "test-secret")
	ctx := context.Background()

	u, err := svc.Register(ctx, "owner", "correct horse battery")
	require.NoError(t, err)
	require.NotZero(t, u.ID)

	tokenStr, err := svc.Login(ctx, "owner", "correct horse battery")
	require.NoError(t, err)

	userID, err := util.ParseLoginJWT(tokenStr, "test-secret")
	require.NoError(t, err)
	require.Equal(t, u.ID, userID)
}

func TestRegisterValidation(t *testing.T) {
	svc := NewService(repository.NewMemoryUserStore(), "test-secret")
	ctx := context.Background()

	_, err := svc.Register(ctx, "", "long enough password")
	require.ErrorIs(t, err, apperr.ErrValidation)

	_, err = svc.Register(ctx, "owner", "short")
	require.ErrorIs(t, err, apperr.ErrValidation)

	_, err = svc.Register(ctx, "owner", "long enough password")
	require.NoError(t, err)
	_, err = svc.Register(ctx, "owner", "long enough password")
	require.ErrorIs(t, err, apperr.ErrValidation)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc := NewService(repository.NewMemoryUserStore(), "test-secret")
	ctx := context.Background()

	_, err := svc.Register(ctx, "owner", "correct horse battery")
	require.NoError(t, err)

	_, err = svc.Login(ctx, "owner", "wrong password")
	require.ErrorIs(t, err, apperr.ErrValidation)

	_, err = svc.Login(ctx, "nobody", "correct horse battery")
	require.ErrorIs(t, err, apperr.ErrValidation)
}
