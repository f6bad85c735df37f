package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jackyckma/baudagain/internal/model"
)

type memUserRepo struct {
	users map[string]*model.User // id -> user
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[string]*model.User)}
}

func (r *memUserRepo) Create(ctx context.Context, user *model.User) error {
	r.users[user.ID] = user
	return nil
}

func (r *memUserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	return r.users[id], nil
}

func (r *memUserRepo) GetByHandle(ctx context.Context, handle string) (*model.User, error) {
	for _, u := range r.users {
		if u.Handle == handle {
			return u, nil
		}
	}
	return nil, nil
}

func (r *memUserRepo) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	if u, ok := r.users[id]; ok {
		u.LastLoginAt = &at
	}
	return nil
}

func newTestAuth() *AuthService {
	return NewAuthService(newMemUserRepo(), "test-secret", zap.NewNop())
}

func TestSignupAndLogin(t *testing.T) {
	svc := newTestAuth()
	ctx := context.Background()

	user, err := svc.Signup(ctx, "Alice", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Handle)
	assert.NotEqual(t, "hunter2", user.PasswordHash)

	resp, err := svc.Login(ctx, "alice", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, user.ID, resp.UserID)
	assert.NotEmpty(t, resp.Token)

	claims, err := svc.ValidateToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, "alice", claims.Handle)
}

func TestSignupDuplicateHandle(t *testing.T) {
	svc := newTestAuth()
	ctx := context.Background()

	_, err := svc.Signup(ctx, "alice", "hunter2")
	require.NoError(t, err)

	_, err = svc.Signup(ctx, "ALICE", "different")
	assert.ErrorIs(t, err, ErrHandleTaken)
}

func TestLoginWrongPassword(t *testing.T) {
	svc := newTestAuth()
	ctx := context.Background()

	_, err := svc.Signup(ctx, "alice", "hunter2")
	require.NoError(t, err)

	_, err = svc.Login(ctx, "alice", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, "nobody", "hunter2")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestValidateGarbageToken(t *testing.T) {
	svc := newTestAuth()

	_, err := svc.ValidateToken("not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
