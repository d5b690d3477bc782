package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/northgate/helpdesk/internal/domain"
	apperrors "github.com/northgate/helpdesk/pkg/util/errorutil"
)

type userLookupFunc func(ctx context.Context, id int64) (*domain.User, error)

func (f userLookupFunc) GetByID(ctx context.Context, id int64) (*domain.User, error) { return f(ctx, id) }

func TestTokenManager_RoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", 15)
	user := &domain.User{ID: 42, Role: domain.RoleAdmin}

	token, exp, err := tm.GenerateToken(user)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), exp, 5*time.Second)

	claims, err := tm.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, domain.RoleAdmin, claims.Role)
	assert.Equal(t, "42", claims.Subject)
}

func TestTokenManager_Rejections(t *testing.T) {
	tm := NewTokenManager("secret", 15)
	token, _, err := tm.GenerateToken(&domain.User{ID: 1, Role: domain.RoleUser})
	require.NoError(t, err)

	_, err = NewTokenManager("other-secret", 15).ParseToken(token)
	assert.Error(t, err, "wrong key")

	expired := NewTokenManager("secret", 1)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, _, err := expired.GenerateToken(&domain.User{ID: 1})
	require.NoError(t, err)
	_, err = tm.ParseToken(old)
	assert.Error(t, err, "expired")

	_, err = tm.ParseToken("garbage")
	assert.Error(t, err)
}

func TestPassword_HashAndCompare(t *testing.T) {
	hash, err := HashPassword("correct-horse", 4)
	require.NoError(t, err)
	assert.NoError(t, ComparePassword(hash, "correct-horse"))
	assert.Error(t, ComparePassword(hash, "battery-staple"))

	// Out-of-range costs fall back to the library default.
	_, err = HashPassword("x", 99)
	assert.NoError(t, err)
}

func newTestApp(users UserLookup, tm *TokenManager, guards ...fiber.Handler) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			domainErr := apperrors.ToDomainError(err)
			return c.Status(domainErr.HTTPStatus).JSON(fiber.Map{"code": domainErr.Code})
		},
	})
	handlers := append([]fiber.Handler{NewAuthMiddleware(tm, users).Handle}, guards...)
	handlers = append(handlers, func(c *fiber.Ctx) error {
		user, ok := UserFromContext(c)
		if !ok {
			return errors.New("no user in context")
		}
		return c.SendString(user.Name)
	})
	app.Get("/protected", handlers...)
	return app
}

func TestAuthMiddleware(t *testing.T) {
	tm := NewTokenManager("secret", 15)
	users := map[int64]*domain.User{
		1: {ID: 1, Name: "Luis", Role: domain.RoleUser},
		2: {ID: 2, Name: "Ana", Role: domain.RoleTechnician},
	}
	lookup := userLookupFunc(func(_ context.Context, id int64) (*domain.User, error) {
		if u, ok := users[id]; ok {
			return u, nil
		}
		return nil, pgx.ErrNoRows
	})
	tokenFor := func(u *domain.User) string {
		token, _, err := tm.GenerateToken(u)
		require.NoError(t, err)
		return token
	}

	tests := []struct {
		name   string
		header string
		guards []fiber.Handler
		status int
		body   string
	}{
		{name: "missing header", status: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic abc", status: http.StatusUnauthorized},
		{name: "bad token", header: "Bearer nope", status: http.StatusUnauthorized},
		{name: "deleted user", header: "Bearer " + tokenFor(&domain.User{ID: 9, Role: domain.RoleAdmin}), status: http.StatusUnauthorized},
		{name: "valid token", header: "Bearer " + tokenFor(users[1]), status: http.StatusOK, body: "Luis"},
		{
			name:   "role guard rejects user",
			header: "Bearer " + tokenFor(users[1]),
			guards: []fiber.Handler{RequirePrivileged()},
			status: http.StatusForbidden,
		},
		{
			name:   "role guard admits technician",
			header: "Bearer " + tokenFor(users[2]),
			guards: []fiber.Handler{RequirePrivileged()},
			status: http.StatusOK,
			body:   "Ana",
		},
		{
			// The token claims admin, but the stored role wins.
			name:   "stale role claim is not trusted",
			header: "Bearer " + tokenFor(&domain.User{ID: 1, Role: domain.RoleAdmin}),
			guards: []fiber.Handler{RequireRole(domain.RoleAdmin)},
			status: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(lookup, tm, tt.guards...)
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tt.header != "" {
				req.Header.Set(fiber.HeaderAuthorization, tt.header)
			}

			resp, err := app.Test(req)
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tt.status, resp.StatusCode)
			if tt.body != "" {
				buf := make([]byte, 64)
				n, _ := resp.Body.Read(buf)
				assert.Equal(t, tt.body, string(buf[:n]))
			}
		})
	}
}

func TestAuthMiddleware_StoreFailureIsNotUnauthorized(t *testing.T) {
	tm := NewTokenManager("secret", 15)
	lookup := userLookupFunc(func(context.Context, int64) (*domain.User, error) {
		return nil, errors.New("connection refused")
	})
	token, _, err := tm.GenerateToken(&domain.User{ID: 1})
	require.NoError(t, err)

	app := newTestApp(lookup, tm)
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestRequireAnyRole(t *testing.T) {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.SendStatus(apperrors.ToDomainError(err).HTTPStatus)
		},
	})
	app.Get("/", RequireAnyRole(), func(c *fiber.Ctx) error { return c.SendStatus(http.StatusOK) })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
