package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/northgate/helpdesk/internal/auth"
	"github.com/northgate/helpdesk/internal/config"
	"github.com/northgate/helpdesk/internal/domain"
	"github.com/northgate/helpdesk/internal/repository/memstore"
	apperrors "github.com/northgate/helpdesk/pkg/util/errorutil"
)

func newAuthService(t *testing.T) (*AuthService, *memstore.Store) {
	t.Helper()
	store := memstore.New()
	svc := NewAuthService(config.AuthConfig{JWTSecret: "test-secret", AccessTokenTTLMinutes: 5, BcryptCost: 4}, store, nil)
	return svc, store
}

func TestAuthService_CreateUserAndLogin(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	user, err := svc.CreateUser(ctx, "Ana", "ana@northgate.local", domain.RoleTechnician, "s3cret-pass")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-pass", user.PasswordHash)

	loggedIn, token, exp, err := svc.Login(ctx, "ANA@northgate.local", "s3cret-pass")
	require.NoError(t, err)
	assert.Equal(t, user.ID, loggedIn.ID)
	assert.NotEmpty(t, token)
	assert.False(t, exp.IsZero())

	claims, err := svc.TokenManager().ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, domain.RoleTechnician, claims.Role)
}

func TestAuthService_Login_Rejections(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()
	_, err := svc.CreateUser(ctx, "Luis", "luis@northgate.local", domain.RoleUser, "correct-horse")
	require.NoError(t, err)

	_, _, _, err = svc.Login(ctx, "luis@northgate.local", "wrong-horse")
	assert.Equal(t, apperrors.CodeUnauthorized, errCode(t, err))

	_, _, _, err = svc.Login(ctx, "nadie@northgate.local", "correct-horse")
	assert.Equal(t, apperrors.CodeUnauthorized, errCode(t, err))
}

func TestAuthService_Login_UnknownEmailStillComparesHash(t *testing.T) {
	svc, _ := newAuthService(t)
	var hashes []string
	svc.compare = func(hashed, plain string) error {
		hashes = append(hashes, hashed)
		return auth.ComparePassword(hashed, plain)
	}

	_, _, _, err := svc.Login(context.Background(), "nadie@northgate.local", "correct-horse")
	assert.Equal(t, apperrors.CodeUnauthorized, errCode(t, err))
	_, _, _, err = svc.Login(context.Background(), "otro@northgate.local", "correct-horse")
	assert.Equal(t, apperrors.CodeUnauthorized, errCode(t, err))

	require.Len(t, hashes, 2)
	assert.True(t, strings.HasPrefix(hashes[0], "$2a$04$"), "dummy hash uses the configured cost")
	assert.Equal(t, hashes[0], hashes[1])
}

func TestAuthService_CreateUser_Validation(t *testing.T) {
	tests := []struct {
		name     string
		userName string
		email    string
		role     domain.Role
		password string
		code     string
	}{
		{"missing name", "", "a@b.co", domain.RoleUser, "12345678", apperrors.CodeValidation},
		{"bad email", "A", "not-an-email", domain.RoleUser, "12345678", apperrors.CodeValidation},
		{"bad role", "A", "a@b.co", "root", "12345678", apperrors.CodeValidation},
		{"short password", "A", "a@b.co", domain.RoleUser, "1234", apperrors.CodeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newAuthService(t)
			_, err := svc.CreateUser(context.Background(), tt.userName, tt.email, tt.role, tt.password)
			assert.Equal(t, tt.code, errCode(t, err))
		})
	}
}

func TestAuthService_CreateUser_DuplicateEmail(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()
	_, err := svc.CreateUser(ctx, "Ana", "ana@northgate.local", domain.RoleAdmin, "12345678")
	require.NoError(t, err)

	_, err = svc.CreateUser(ctx, "Ana Bis", "Ana@Northgate.local", domain.RoleUser, "12345678")
	assert.Equal(t, apperrors.CodeConflict, errCode(t, err))
}

func TestAuthService_ChangePassword(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()
	user, err := svc.CreateUser(ctx, "Luis", "luis@northgate.local", domain.RoleUser, "old-password")
	require.NoError(t, err)

	err = svc.ChangePassword(ctx, user, "not-it", "new-password")
	assert.Equal(t, apperrors.CodeUnauthorized, errCode(t, err))

	err = svc.ChangePassword(ctx, user, "old-password", "short")
	assert.Equal(t, apperrors.CodeValidation, errCode(t, err))

	require.NoError(t, svc.ChangePassword(ctx, user, "old-password", "new-password"))

	_, _, _, err = svc.Login(ctx, "luis@northgate.local", "old-password")
	assert.Error(t, err)
	_, _, _, err = svc.Login(ctx, "luis@northgate.local", "new-password")
	assert.NoError(t, err)
}
