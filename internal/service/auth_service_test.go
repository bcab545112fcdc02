package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"profilehub/api/internal/apperr"
	"profilehub/api/internal/config"
	"profilehub/api/internal/models"
	"profilehub/api/internal/security"
	"profilehub/api/internal/service"
)

// memStore is an in-memory AuthStore. Create mimics the transactional
// store: when failProfile is set, the account insert is rolled back along
// with the profile, leaving no trace.
type memStore struct {
	mu          sync.Mutex
	accounts    map[string]models.Account
	profiles    map[string]models.Profile
	failProfile bool
	createErr   error
	updateErr   error
}

func newMemStore() *memStore {
	return &memStore{
		accounts: make(map[string]models.Account),
		profiles: make(map[string]models.Profile),
	}
}

func (m *memStore) FindByEmail(ctx context.Context, email string) (models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, account := range m.accounts {
		if account.Email == email {
			return account, nil
		}
	}
	return models.Account{}, apperr.ErrNotFound
}

func (m *memStore) FindByUsername(ctx context.Context, username string) (models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, account := range m.accounts {
		if account.Username == username {
			return account, nil
		}
	}
	return models.Account{}, apperr.ErrNotFound
}

func (m *memStore) FindByID(ctx context.Context, id string) (models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	account, ok := m.accounts[id]
	if !ok {
		return models.Account{}, apperr.ErrNotFound
	}
	return account, nil
}

func (m *memStore) Create(ctx context.Context, account models.Account, profile models.Profile) (models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return models.Account{}, m.createErr
	}
	for _, existing := range m.accounts {
		if existing.Email == account.Email || existing.Username == account.Username {
			return models.Account{}, apperr.ErrDuplicate
		}
	}
	if m.failProfile {
		return models.Account{}, errors.New("profile insert failed")
	}
	now := time.Now()
	account.CreatedAt = now
	account.UpdatedAt = now
	m.accounts[account.ID] = account
	m.profiles[profile.ID] = profile
	return account, nil
}

func (m *memStore) UpdateByID(ctx context.Context, id string, patch models.AccountPatch) (models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return models.Account{}, m.updateErr
	}
	account, ok := m.accounts[id]
	if !ok {
		return models.Account{}, apperr.ErrNotFound
	}
	if patch.PasswordHash != nil {
		account.PasswordHash = *patch.PasswordHash
	}
	if patch.RefreshToken != nil {
		account.RefreshToken = patch.RefreshToken
	}
	if patch.RefreshExpiresAt != nil {
		account.RefreshExpiresAt = patch.RefreshExpiresAt
	}
	if patch.Status != nil {
		account.Status = *patch.Status
	}
	if patch.IsVerified != nil {
		account.IsVerified = *patch.IsVerified
	}
	account.UpdatedAt = time.Now()
	m.accounts[id] = account
	return account, nil
}

func (m *memStore) RemoveRefreshTokenByID(ctx context.Context, id string) (models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return models.Account{}, m.updateErr
	}
	account, ok := m.accounts[id]
	if !ok {
		return models.Account{}, apperr.ErrNotFound
	}
	account.RefreshToken = nil
	account.RefreshExpiresAt = nil
	account.UpdatedAt = time.Now()
	m.accounts[id] = account
	return account, nil
}

func (m *memStore) DeleteByID(ctx context.Context, id string) (models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	account, ok := m.accounts[id]
	if !ok {
		return models.Account{}, apperr.ErrNotFound
	}
	delete(m.accounts, id)
	delete(m.profiles, id)
	return account, nil
}

func (m *memStore) setStatus(id string, status models.AccountStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	account := m.accounts[id]
	account.Status = status
	m.accounts[id] = account
}

func (m *memStore) setRefreshExpiry(id string, at time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	account := m.accounts[id]
	account.RefreshExpiresAt = &at
	m.accounts[id] = account
}

func (m *memStore) storedRefreshToken(id string) *string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.accounts[id].RefreshToken
}

func newTestConfig() *config.AppConfig {
	return &config.AppConfig{
		Environment: "test",
		Security: config.SecurityConfig{
			JWTAccessSecret:  "access-secret-for-tests",
			JWTRefreshSecret: "refresh-secret-for-tests",
			JWTAccessTTL:     15 * time.Minute,
			JWTRefreshTTL:    720 * time.Hour,
		},
	}
}

func newAuthService(store *memStore) *service.AuthService {
	return service.NewAuthService(store, newTestConfig(), zerolog.Nop())
}

func register(t *testing.T, svc *service.AuthService, username, email, password string) models.Account {
	t.Helper()
	account, err := svc.Register(context.Background(), service.RegisterInput{
		Email:    email,
		Username: username,
		Password: password,
	})
	require.NoError(t, err)
	return account
}

func TestRegisterLeavesNoSession(t *testing.T) {
	store := newMemStore()
	svc := newAuthService(store)

	account := register(t, svc, "alice", "alice@x.com", "Abcdef1!")

	assert.Equal(t, "alice", account.Username)
	assert.Equal(t, "alice@x.com", account.Email)
	assert.Equal(t, models.AccountRoleUser, account.Role)
	assert.Equal(t, models.AccountStatusActive, account.Status)
	assert.False(t, account.IsVerified)
	assert.Nil(t, account.RefreshToken, "no session after registration")
	assert.Empty(t, account.PasswordHash, "sanitized entity must not carry the hash")

	stored, err := store.FindByID(context.Background(), account.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, stored.PasswordHash)
	assert.NotEqual(t, "Abcdef1!", stored.PasswordHash)

	_, ok := store.profiles[account.ID]
	assert.True(t, ok, "linked profile created with the account")
}

func TestRegisterNormalizesEmailAndUsername(t *testing.T) {
	store := newMemStore()
	svc := newAuthService(store)

	account := register(t, svc, "  Alice_99 ", "  Alice@X.com ", "Abcdef1!")
	assert.Equal(t, "alice_99", account.Username)
	assert.Equal(t, "alice@x.com", account.Email)

	_, err := svc.Login(context.Background(), "ALICE@X.COM", "Abcdef1!")
	assert.NoError(t, err)
}

func TestRegisterMissingFields(t *testing.T) {
	svc := newAuthService(newMemStore())

	_, err := svc.Register(context.Background(), service.RegisterInput{Email: "a@x.com", Username: "a"})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestRegisterDuplicateEmail(t *testing.T) {
	store := newMemStore()
	svc := newAuthService(store)
	register(t, svc, "alice", "alice@x.com", "Abcdef1!")

	_, err := svc.Register(context.Background(), service.RegisterInput{
		Email:    "alice@x.com",
		Username: "different",
		Password: "Abcdef1!",
	})
	assert.Equal(t, apperr.KindAlreadyExists, apperr.KindOf(err))
}

func TestRegisterDuplicateUsername(t *testing.T) {
	store := newMemStore()
	svc := newAuthService(store)
	register(t, svc, "alice", "alice@x.com", "Abcdef1!")

	_, err := svc.Register(context.Background(), service.RegisterInput{
		Email:    "different@x.com",
		Username: "alice",
		Password: "Abcdef1!",
	})
	assert.Equal(t, apperr.KindAlreadyExists, apperr.KindOf(err))
}

func TestRegisterDuplicateRaceHitsStoreConstraint(t *testing.T) {
	// The pre-check lookups pass (store empty at check time) but the
	// create itself reports the unique violation: still AlreadyExists.
	store := newMemStore()
	store.createErr = apperr.ErrDuplicate
	svc := newAuthService(store)

	_, err := svc.Register(context.Background(), service.RegisterInput{
		Email:    "alice@x.com",
		Username: "alice",
		Password: "Abcdef1!",
	})
	assert.Equal(t, apperr.KindAlreadyExists, apperr.KindOf(err))
}

func TestRegisterAtomicProfileFailure(t *testing.T) {
	store := newMemStore()
	store.failProfile = true
	svc := newAuthService(store)

	_, err := svc.Register(context.Background(), service.RegisterInput{
		Email:    "alice@x.com",
		Username: "alice",
		Password: "Abcdef1!",
	})
	assert.Equal(t, apperr.KindRegistrationFailed, apperr.KindOf(err))

	_, err = store.FindByEmail(context.Background(), "alice@x.com")
	assert.ErrorIs(t, err, apperr.ErrNotFound, "no orphan account after failed profile create")
}

func TestLoginIssuesTokenPair(t *testing.T) {
	store := newMemStore()
	svc := newAuthService(store)
	account := register(t, svc, "alice", "alice@x.com", "Abcdef1!")

	result, err := svc.Login(context.Background(), "alice@x.com", "Abcdef1!")
	require.NoError(t, err)
	assert.NotEmpty(t, result.AccessToken)
	assert.NotEmpty(t, result.RefreshToken)
	assert.NotEqual(t, result.AccessToken, result.RefreshToken)

	assert.Empty(t, result.Account.PasswordHash)
	assert.Nil(t, result.Account.RefreshToken, "sanitized snapshot hides the refresh token")

	stored := store.storedRefreshToken(account.ID)
	require.NotNil(t, stored)
	assert.Equal(t, result.RefreshToken, *stored)

	cfg := newTestConfig()
	claims, err := security.ParseAccessToken(result.AccessToken, cfg.Security.JWTAccessSecret)
	require.NoError(t, err)
	assert.Equal(t, account.ID, claims.AccountID)
	assert.Equal(t, "alice@x.com", claims.Email)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, string(models.AccountRoleUser), claims.Role)
	assert.Equal(t, string(models.AccountStatusActive), claims.Status)
	assert.False(t, claims.IsVerified)

	refreshClaims, err := security.ParseRefreshToken(result.RefreshToken, cfg.Security.JWTRefreshSecret)
	require.NoError(t, err)
	assert.Equal(t, account.ID, refreshClaims.AccountID)
}

func TestLoginFailures(t *testing.T) {
	store := newMemStore()
	svc := newAuthService(store)
	account := register(t, svc, "alice", "alice@x.com", "Abcdef1!")

	_, err := svc.Login(context.Background(), "nobody@x.com", "Abcdef1!")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	_, err = svc.Login(context.Background(), "alice@x.com", "WrongPass1!")
	assert.Equal(t, apperr.KindInvalidCredentials, apperr.KindOf(err))

	store.setStatus(account.ID, models.AccountStatusSuspended)
	_, err = svc.Login(context.Background(), "alice@x.com", "Abcdef1!")
	assert.Equal(t, apperr.KindInactiveAccount, apperr.KindOf(err))
}

func TestSecondLoginInvalidatesFirstSession(t *testing.T) {
	store := newMemStore()
	svc := newAuthService(store)
	register(t, svc, "alice", "alice@x.com", "Abcdef1!")

	first, err := svc.Login(context.Background(), "alice@x.com", "Abcdef1!")
	require.NoError(t, err)

	// Refresh tokens embed issue time at second granularity; make sure
	// the second login signs a distinct token.
	time.Sleep(1100 * time.Millisecond)

	second, err := svc.Login(context.Background(), "alice@x.com", "Abcdef1!")
	require.NoError(t, err)
	require.NotEqual(t, first.RefreshToken, second.RefreshToken)

	_, err = svc.RefreshAccessToken(context.Background(), first.RefreshToken)
	assert.Equal(t, apperr.KindRefreshMismatch, apperr.KindOf(err))

	accessToken, err := svc.RefreshAccessToken(context.Background(), second.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, accessToken)
}

func TestRefreshDoesNotRotateRefreshToken(t *testing.T) {
	store := newMemStore()
	svc := newAuthService(store)
	account := register(t, svc, "alice", "alice@x.com", "Abcdef1!")

	result, err := svc.Login(context.Background(), "alice@x.com", "Abcdef1!")
	require.NoError(t, err)

	_, err = svc.RefreshAccessToken(context.Background(), result.RefreshToken)
	require.NoError(t, err)

	stored := store.storedRefreshToken(account.ID)
	require.NotNil(t, stored)
	assert.Equal(t, result.RefreshToken, *stored, "refresh flow rotates only the access token")
}

func TestRefreshFailures(t *testing.T) {
	store := newMemStore()
	svc := newAuthService(store)
	account := register(t, svc, "alice", "alice@x.com", "Abcdef1!")

	_, err := svc.RefreshAccessToken(context.Background(), "")
	assert.Equal(t, apperr.KindTokenMissing, apperr.KindOf(err))

	_, err = svc.RefreshAccessToken(context.Background(), "not-a-jwt")
	assert.Equal(t, apperr.KindTokenInvalid, apperr.KindOf(err))

	cfg := newTestConfig()
	ghost, err := security.GenerateRefreshToken(cfg.Security.JWTRefreshSecret, "missing-account", time.Hour)
	require.NoError(t, err)
	_, err = svc.RefreshAccessToken(context.Background(), ghost)
	assert.Equal(t, apperr.KindTokenInvalid, apperr.KindOf(err))

	result, err := svc.Login(context.Background(), "alice@x.com", "Abcdef1!")
	require.NoError(t, err)

	store.setStatus(account.ID, models.AccountStatusSuspended)
	_, err = svc.RefreshAccessToken(context.Background(), result.RefreshToken)
	assert.Equal(t, apperr.KindInactiveAccount, apperr.KindOf(err))
}

func TestRefreshRejectsLapsedStoredSession(t *testing.T) {
	store := newMemStore()
	svc := newAuthService(store)
	account := register(t, svc, "alice", "alice@x.com", "Abcdef1!")

	result, err := svc.Login(context.Background(), "alice@x.com", "Abcdef1!")
	require.NoError(t, err)

	// The token still verifies as a JWT; only the stored expiry lapsed.
	store.setRefreshExpiry(account.ID, time.Now().Add(-time.Minute))
	_, err = svc.RefreshAccessToken(context.Background(), result.RefreshToken)
	assert.Equal(t, apperr.KindRefreshMismatch, apperr.KindOf(err))

	store.setRefreshExpiry(account.ID, time.Now().Add(time.Hour))
	accessToken, err := svc.RefreshAccessToken(context.Background(), result.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, accessToken)
}

func TestLogoutIsIdempotent(t *testing.T) {
	store := newMemStore()
	svc := newAuthService(store)
	account := register(t, svc, "alice", "alice@x.com", "Abcdef1!")

	_, err := svc.Login(context.Background(), "alice@x.com", "Abcdef1!")
	require.NoError(t, err)
	require.NotNil(t, store.storedRefreshToken(account.ID))

	out, err := svc.Logout(context.Background(), account.ID)
	require.NoError(t, err)
	assert.Nil(t, out.RefreshToken)
	assert.Nil(t, store.storedRefreshToken(account.ID))

	out, err = svc.Logout(context.Background(), account.ID)
	require.NoError(t, err, "second logout must succeed")
	assert.Nil(t, out.RefreshToken)
	assert.Nil(t, store.storedRefreshToken(account.ID))
}

func TestChangePassword(t *testing.T) {
	store := newMemStore()
	svc := newAuthService(store)
	account := register(t, svc, "alice", "alice@x.com", "Abcdef1!")

	ok, err := svc.ChangePassword(context.Background(), account.ID, "Newpass1!")
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = svc.Login(context.Background(), "alice@x.com", "Abcdef1!")
	assert.Equal(t, apperr.KindInvalidCredentials, apperr.KindOf(err))

	_, err = svc.Login(context.Background(), "alice@x.com", "Newpass1!")
	assert.NoError(t, err)

	_, err = svc.ChangePassword(context.Background(), "missing", "Newpass1!")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	store.setStatus(account.ID, models.AccountStatusSuspended)
	_, err = svc.ChangePassword(context.Background(), account.ID, "Another1!")
	assert.Equal(t, apperr.KindInactiveAccount, apperr.KindOf(err))
}

func TestPasswordChangeKeepsSessionAlive(t *testing.T) {
	// Changing the password does not clear the stored refresh token, so
	// the existing session survives.
	store := newMemStore()
	svc := newAuthService(store)
	account := register(t, svc, "alice", "alice@x.com", "Abcdef1!")

	result, err := svc.Login(context.Background(), "alice@x.com", "Abcdef1!")
	require.NoError(t, err)

	ok, err := svc.ChangePassword(context.Background(), account.ID, "Newpass1!")
	require.NoError(t, err)
	require.True(t, ok)

	accessToken, err := svc.RefreshAccessToken(context.Background(), result.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, accessToken)
}

func TestResetPassword(t *testing.T) {
	store := newMemStore()
	svc := newAuthService(store)
	account := register(t, svc, "alice", "alice@x.com", "Abcdef1!")

	ok, err := svc.ResetPassword(context.Background(), "Alice@X.com", "Newpass1!")
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = svc.Login(context.Background(), "alice@x.com", "Newpass1!")
	assert.NoError(t, err)

	_, err = svc.ResetPassword(context.Background(), "nobody@x.com", "Newpass1!")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	store.setStatus(account.ID, models.AccountStatusSuspended)
	_, err = svc.ResetPassword(context.Background(), "alice@x.com", "Another1!")
	assert.Equal(t, apperr.KindInactiveAccount, apperr.KindOf(err))
}

func TestEndToEndSessionLifecycle(t *testing.T) {
	store := newMemStore()
	svc := newAuthService(store)

	account := register(t, svc, "alice", "alice@x.com", "Abcdef1!")
	assert.Equal(t, models.AccountStatusActive, account.Status)
	assert.Nil(t, store.storedRefreshToken(account.ID))

	first, err := svc.Login(context.Background(), "alice@x.com", "Abcdef1!")
	require.NoError(t, err)
	require.NotNil(t, store.storedRefreshToken(account.ID))

	time.Sleep(1100 * time.Millisecond)

	_, err = svc.Login(context.Background(), "alice@x.com", "Abcdef1!")
	require.NoError(t, err)

	_, err = svc.RefreshAccessToken(context.Background(), first.RefreshToken)
	assert.Equal(t, apperr.KindRefreshMismatch, apperr.KindOf(err))

	_, err = svc.Logout(context.Background(), account.ID)
	require.NoError(t, err)
	assert.Nil(t, store.storedRefreshToken(account.ID))

	_, err = svc.Logout(context.Background(), account.ID)
	require.NoError(t, err)
	assert.Nil(t, store.storedRefreshToken(account.ID))
}
