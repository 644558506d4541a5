package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyp-portal/fyp-admin-api/internal/models"
	"github.com/fyp-portal/fyp-admin-api/pkg/config"
	appErrors "github.com/fyp-portal/fyp-admin-api/pkg/errors"
)

type mockAdminRepo struct {
	admins map[string]models.Admin
}

func newMockAdminRepo(admins ...models.Admin) *mockAdminRepo {
	m := &mockAdminRepo{admins: make(map[string]models.Admin)}
	for _, a := range admins {
		m.admins[a.ID] = a
	}
	return m
}

func (m *mockAdminRepo) FindByID(ctx context.Context, id string) (*models.Admin, error) {
	if a, ok := m.admins[id]; ok {
		return &a, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAdminRepo) FindByEmail(ctx context.Context, email string) (*models.Admin, error) {
	for _, a := range m.admins {
		if a.Email == email {
			return &a, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockAdminRepo) Create(ctx context.Context, admin *models.Admin) error {
	if admin.ID == "" {
		admin.ID = "admin-new"
	}
	m.admins[admin.ID] = *admin
	return nil
}

func (m *mockAdminRepo) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	a := m.admins[id]
	a.PasswordHash = passwordHash
	m.admins[id] = a
	return nil
}

func authFixture(t *testing.T, admins ...models.Admin) (*AuthService, *mockAdminRepo, *TokenService) {
	t.Helper()
	repo := newMockAdminRepo(admins...)
	tokens := NewTokenService(config.JWTConfig{Secret: "test-secret", Expiration: time.Hour, Issuer: "test"})
	return NewAuthService(repo, tokens, nil, nil), repo, tokens
}

func TestAuthServiceRegisterAndLogin(t *testing.T) {
	svc, _, tokens := authFixture(t)

	admin, err := svc.Register(context.Background(), models.RegisterAdminRequest{
		Email: "admin@college.edu", Password: "secret123", Name: "Coordinator",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, admin.ID)

	resp, err := svc.Login(context.Background(), models.LoginRequest{
		Email: "admin@college.edu", Password: "secret123",
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, resp.Actor.Role)

	claims, err := tokens.Validate(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, admin.ID, claims.ActorID)
	assert.Equal(t, models.RoleAdmin, claims.Role)
}

func TestAuthServiceRegisterDuplicateEmail(t *testing.T) {
	svc, _, _ := authFixture(t, models.Admin{ID: "a1", Email: "admin@college.edu"})

	_, err := svc.Register(context.Background(), models.RegisterAdminRequest{
		Email: "admin@college.edu", Password: "secret123", Name: "Another",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLoginInvalidCredentials(t *testing.T) {
	svc, _, _ := authFixture(t, models.Admin{
		ID: "a1", Email: "admin@college.edu", PasswordHash: hashed(t, "secret123"),
	})

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "admin@college.edu", Password: "nope"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)

	_, err = svc.Login(context.Background(), models.LoginRequest{Email: "ghost@college.edu", Password: "secret123"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceChangePassword(t *testing.T) {
	svc, repo, _ := authFixture(t, models.Admin{
		ID: "a1", Email: "admin@college.edu", PasswordHash: hashed(t, "oldpass123"),
	})

	err := svc.ChangePassword(context.Background(), "a1", models.ChangePasswordRequest{
		OldPassword: "wrong", NewPassword: "newpass123",
	})
	require.Error(t, err)

	require.NoError(t, svc.ChangePassword(context.Background(), "a1", models.ChangePasswordRequest{
		OldPassword: "oldpass123", NewPassword: "newpass123",
	}))
	assert.NotEqual(t, repo.admins["a1"].PasswordHash, "")
}

func TestTokenServiceRejectsTampering(t *testing.T) {
	tokens := NewTokenService(config.JWTConfig{Secret: "test-secret", Expiration: time.Hour})
	other := NewTokenService(config.JWTConfig{Secret: "other-secret", Expiration: time.Hour})

	signed, _, err := tokens.Issue("a1", models.RoleAdmin, "admin@college.edu")
	require.NoError(t, err)

	_, err = other.Validate(signed)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}
