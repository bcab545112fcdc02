package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"profilehub/api/internal/apperr"
	"profilehub/api/internal/config"
	"profilehub/api/internal/ids"
	"profilehub/api/internal/models"
	"profilehub/api/internal/security"
)

// AuthStore is the persistence contract the session manager depends on.
// Create must be atomic with the linked profile: both rows or neither.
type AuthStore interface {
	FindByEmail(ctx context.Context, email string) (models.Account, error)
	FindByUsername(ctx context.Context, username string) (models.Account, error)
	FindByID(ctx context.Context, id string) (models.Account, error)
	Create(ctx context.Context, account models.Account, profile models.Profile) (models.Account, error)
	UpdateByID(ctx context.Context, id string, patch models.AccountPatch) (models.Account, error)
	RemoveRefreshTokenByID(ctx context.Context, id string) (models.Account, error)
	DeleteByID(ctx context.Context, id string) (models.Account, error)
}

// AuthService owns every auth state transition: registration, login,
// logout, token refresh and password changes. It is the only caller of
// the hasher and token issuer, and it never returns password hashes or
// refresh tokens to transport.
type AuthService struct {
	store AuthStore
	cfg   *config.AppConfig
	log   zerolog.Logger
}

func NewAuthService(store AuthStore, cfg *config.AppConfig, log zerolog.Logger) *AuthService {
	return &AuthService{store: store, cfg: cfg, log: log}
}

type RegisterInput struct {
	Email    string
	Username string
	Password string
	Role     models.AccountRole
}

type LoginResult struct {
	Account      models.Account
	AccessToken  string
	RefreshToken string
}

// Register creates the account and its linked profile in one store
// transaction and leaves the account with no active session. The two
// existence lookups are a fast path only; the store's unique indexes are
// the authority, so a duplicate race still fails with AlreadyExists.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (models.Account, error) {
	email := normalize(input.Email)
	username := normalize(input.Username)

	if email == "" || username == "" || input.Password == "" {
		return models.Account{}, apperr.New(apperr.KindValidation, "email, username, and password are required")
	}

	if _, err := s.store.FindByEmail(ctx, email); err == nil {
		return models.Account{}, apperr.New(apperr.KindAlreadyExists, "email already exists")
	} else if !errors.Is(err, apperr.ErrNotFound) {
		return models.Account{}, apperr.Wrap(apperr.KindInternal, "email lookup failed", err)
	}

	if _, err := s.store.FindByUsername(ctx, username); err == nil {
		return models.Account{}, apperr.New(apperr.KindAlreadyExists, "username already exists")
	} else if !errors.Is(err, apperr.ErrNotFound) {
		return models.Account{}, apperr.Wrap(apperr.KindInternal, "username lookup failed", err)
	}

	hash, err := security.HashPassword(input.Password)
	if err != nil {
		return models.Account{}, apperr.Wrap(apperr.KindHashFailure, "failed to hash password", err)
	}

	role := input.Role
	if role == "" {
		role = models.AccountRoleUser
	}

	account := models.Account{
		ID:           ids.New(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Status:       models.AccountStatusActive,
	}
	profile := models.Profile{
		ID:          account.ID,
		FullName:    username,
		Preferences: models.DefaultPreferences(),
	}

	created, err := s.store.Create(ctx, account, profile)
	if err != nil {
		if errors.Is(err, apperr.ErrDuplicate) {
			return models.Account{}, apperr.New(apperr.KindAlreadyExists, "email or username already exists")
		}
		return models.Account{}, apperr.Wrap(apperr.KindRegistrationFailed, "user registration failed", err)
	}

	s.log.Info().Str("account_id", created.ID).Str("username", created.Username).Msg("account registered")
	return created.Sanitized(), nil
}

// Login verifies credentials and starts a session. The freshly issued
// refresh token overwrites any previous one, so a second login terminates
// the first session.
func (s *AuthService) Login(ctx context.Context, email, password string) (LoginResult, error) {
	email = normalize(email)
	if email == "" || password == "" {
		return LoginResult{}, apperr.New(apperr.KindValidation, "email and password are required")
	}

	account, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return LoginResult{}, apperr.New(apperr.KindNotFound, "user not found")
		}
		return LoginResult{}, apperr.Wrap(apperr.KindInternal, "email lookup failed", err)
	}

	ok, err := security.VerifyPassword(password, account.PasswordHash)
	if err != nil || !ok {
		return LoginResult{}, apperr.New(apperr.KindInvalidCredentials, "invalid credentials")
	}

	if account.Status != models.AccountStatusActive {
		return LoginResult{}, apperr.New(apperr.KindInactiveAccount, "user account is not active")
	}

	accessToken, refreshToken, err := s.issueTokens(ctx, account)
	if err != nil {
		return LoginResult{}, err
	}

	// Re-read so the caller gets the post-issuance snapshot.
	updated, err := s.store.FindByID(ctx, account.ID)
	if err != nil {
		return LoginResult{}, apperr.Wrap(apperr.KindInternal, "reload after login failed", err)
	}

	s.log.Info().Str("account_id", account.ID).Msg("login succeeded")
	return LoginResult{
		Account:      updated.Sanitized(),
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// Logout clears the stored refresh token. Logging out an account with no
// active session succeeds, so the operation is idempotent.
func (s *AuthService) Logout(ctx context.Context, accountID string) (models.Account, error) {
	if accountID == "" {
		return models.Account{}, apperr.New(apperr.KindValidation, "account id is required")
	}

	account, err := s.store.RemoveRefreshTokenByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return models.Account{}, apperr.New(apperr.KindNotFound, "user not found")
		}
		return models.Account{}, apperr.Wrap(apperr.KindInternal, "failed to log out user", err)
	}
	return account.Sanitized(), nil
}

// RefreshAccessToken mints a new access token for a presented refresh
// token. The refresh token itself is not rotated. The presented token must
// exactly equal the stored one; a token from a superseded session fails
// with RefreshMismatch.
func (s *AuthService) RefreshAccessToken(ctx context.Context, refreshToken string) (string, error) {
	if refreshToken == "" {
		return "", apperr.New(apperr.KindTokenMissing, "refresh token missing")
	}

	claims, err := security.ParseRefreshToken(refreshToken, s.cfg.Security.JWTRefreshSecret)
	if err != nil || claims.AccountID == "" {
		return "", apperr.New(apperr.KindTokenInvalid, "invalid refresh token")
	}

	account, err := s.store.FindByID(ctx, claims.AccountID)
	if err != nil {
		return "", apperr.New(apperr.KindTokenInvalid, "invalid refresh token")
	}

	if account.RefreshToken == nil || *account.RefreshToken != refreshToken {
		return "", apperr.New(apperr.KindRefreshMismatch, "refresh token mismatch or expired")
	}

	// The stored expiry can lapse before the maintenance sweep clears it.
	if account.SessionExpired(time.Now()) {
		return "", apperr.New(apperr.KindRefreshMismatch, "refresh token mismatch or expired")
	}

	if account.Status != models.AccountStatusActive {
		return "", apperr.New(apperr.KindInactiveAccount, "user account is not active")
	}

	accessToken, err := security.GenerateAccessToken(s.cfg.Security.JWTAccessSecret, account, s.cfg.Security.JWTAccessTTL)
	if err != nil {
		return "", apperr.Wrap(apperr.KindInternal, "failed to sign access token", err)
	}
	return accessToken, nil
}

// ChangePassword is the administrative path, keyed by account id.
// The existing refresh token is left in place, so an active session
// survives a password change.
func (s *AuthService) ChangePassword(ctx context.Context, accountID, newPassword string) (bool, error) {
	account, err := s.store.FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return false, apperr.New(apperr.KindNotFound, "user not found or invalid")
		}
		return false, apperr.Wrap(apperr.KindInternal, "account lookup failed", err)
	}
	return s.setPassword(ctx, account, newPassword)
}

// ResetPassword is the self-service path, keyed by email.
func (s *AuthService) ResetPassword(ctx context.Context, email, newPassword string) (bool, error) {
	account, err := s.store.FindByEmail(ctx, normalize(email))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return false, apperr.New(apperr.KindNotFound, "user not found or invalid")
		}
		return false, apperr.Wrap(apperr.KindInternal, "account lookup failed", err)
	}
	return s.setPassword(ctx, account, newPassword)
}

// CurrentAccount returns the sanitized account for an authenticated id.
func (s *AuthService) CurrentAccount(ctx context.Context, accountID string) (models.Account, error) {
	account, err := s.store.FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return models.Account{}, apperr.New(apperr.KindNotFound, "user not found")
		}
		return models.Account{}, apperr.Wrap(apperr.KindInternal, "account lookup failed", err)
	}
	return account.Sanitized(), nil
}

// DeleteAccount removes the account and, through the store, its profile.
func (s *AuthService) DeleteAccount(ctx context.Context, accountID string) (models.Account, error) {
	account, err := s.store.DeleteByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return models.Account{}, apperr.New(apperr.KindNotFound, "user not found")
		}
		return models.Account{}, apperr.Wrap(apperr.KindInternal, "failed to delete account", err)
	}
	return account.Sanitized(), nil
}

func (s *AuthService) setPassword(ctx context.Context, account models.Account, newPassword string) (bool, error) {
	if account.Status != models.AccountStatusActive {
		return false, apperr.New(apperr.KindInactiveAccount, "user account is not active")
	}

	hash, err := security.HashPassword(newPassword)
	if err != nil {
		return false, apperr.Wrap(apperr.KindHashFailure, "password hashing failed", err)
	}

	if _, err := s.store.UpdateByID(ctx, account.ID, models.AccountPatch{PasswordHash: &hash}); err != nil {
		return false, apperr.Wrap(apperr.KindInternal, "failed to change password", err)
	}

	s.log.Info().Str("account_id", account.ID).Msg("password updated")
	return true, nil
}

// issueTokens signs the pair and persists the refresh token on the
// account, invalidating whatever token was stored before.
func (s *AuthService) issueTokens(ctx context.Context, account models.Account) (string, string, error) {
	accessToken, err := security.GenerateAccessToken(s.cfg.Security.JWTAccessSecret, account, s.cfg.Security.JWTAccessTTL)
	if err != nil {
		return "", "", apperr.Wrap(apperr.KindInternal, "failed to sign access token", err)
	}

	refreshToken, err := security.GenerateRefreshToken(s.cfg.Security.JWTRefreshSecret, account.ID, s.cfg.Security.JWTRefreshTTL)
	if err != nil {
		return "", "", apperr.Wrap(apperr.KindInternal, "failed to sign refresh token", err)
	}

	expiresAt := time.Now().Add(s.cfg.Security.JWTRefreshTTL)
	if _, err := s.store.UpdateByID(ctx, account.ID, models.AccountPatch{
		RefreshToken:     &refreshToken,
		RefreshExpiresAt: &expiresAt,
	}); err != nil {
		return "", "", apperr.Wrap(apperr.KindInternal, "failed to persist refresh token", err)
	}

	return accessToken, refreshToken, nil
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
