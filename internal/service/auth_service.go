package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/northgate/helpdesk/internal/auth"
	"github.com/northgate/helpdesk/internal/config"
	"github.com/northgate/helpdesk/internal/domain"
	"github.com/northgate/helpdesk/internal/repository"
	apperrors "github.com/northgate/helpdesk/pkg/util/errorutil"
)

// MinPasswordLength is enforced on every new password.
const MinPasswordLength = 8

var fieldValidator = validator.New()

// AuthService coordinates login and credential flows.
type AuthService struct {
	store      repository.Store
	tokenMgr   *auth.TokenManager
	bcryptCost int
	logger     *zap.Logger

	compare   func(hashed, plain string) error
	dummyOnce sync.Once
	dummyHash string
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, store repository.Store, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		store:      store,
		tokenMgr:   auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTLMinutes),
		bcryptCost: cfg.BcryptCost,
		logger:     logger,
		compare:    auth.ComparePassword,
	}
}

// Login authenticates a user by e-mail and password. Unknown e-mails and
// wrong passwords are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, string, time.Time, error) {
	user, err := s.store.Repos().Users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Spend the same bcrypt work as a real account.
			_ = s.compare(s.unknownUserHash(), password)
			return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, "", time.Time{}, apperrors.FromStore(err, "usuario")
	}
	if err := s.compare(user.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}

	token, exp, err := s.tokenMgr.GenerateToken(user)
	if err != nil {
		return nil, "", time.Time{}, apperrors.NewInternalError(err)
	}
	s.logger.Info("user logged in", zap.Int64("user_id", user.ID), zap.String("role", string(user.Role)))
	return user, token, exp, nil
}

// unknownUserHash is a hash at the configured cost that no password matches.
func (s *AuthService) unknownUserHash() string {
	s.dummyOnce.Do(func() {
		hash, err := auth.HashPassword(uuid.NewString(), s.bcryptCost)
		if err != nil {
			s.logger.Warn("dummy password hash failed", zap.Error(err))
			return
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}

// ChangePassword verifies the current password before storing the new hash.
func (s *AuthService) ChangePassword(ctx context.Context, caller *domain.User, currentPassword, newPassword string) error {
	if caller == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	if len(newPassword) < MinPasswordLength {
		return apperrors.NewValidationError("password too short", map[string]any{"password_nuevo": "min=8"})
	}

	users := s.store.Repos().Users
	user, err := users.GetByID(ctx, caller.ID)
	if err != nil {
		return apperrors.FromStore(err, "usuario")
	}
	if err := s.compare(user.PasswordHash, currentPassword); err != nil {
		return apperrors.NewUnauthorized("invalid credentials")
	}

	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	if err := users.UpdatePassword(ctx, user.ID, hash); err != nil {
		return apperrors.FromStore(err, "usuario")
	}
	return nil
}

// CreateUser provisions an account. It backs the out-of-band CLI.
func (s *AuthService) CreateUser(ctx context.Context, name, email string, role domain.Role, password string) (*domain.User, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" {
		return nil, apperrors.NewValidationError("nombre is required", map[string]any{"nombre": "required"})
	}
	if err := fieldValidator.Var(email, "required,email"); err != nil {
		return nil, apperrors.NewValidationError("invalid email", map[string]any{"email": email})
	}
	if !role.Valid() {
		return nil, apperrors.NewValidationError("invalid role", map[string]any{"rol": string(role)})
	}
	if len(password) < MinPasswordLength {
		return nil, apperrors.NewValidationError("password too short", map[string]any{"password": "min=8"})
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	user := &domain.User{Name: name, Email: email, Role: role, PasswordHash: hash}
	if err := s.store.Repos().Users.Create(ctx, user); err != nil {
		if apperrors.IsUniqueViolation(err) {
			return nil, apperrors.NewConflict("email already registered", map[string]any{"email": email})
		}
		return nil, apperrors.FromStore(err, "usuario")
	}
	return user, nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}
