package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"profilehub/api/internal/apperr"
	"profilehub/api/internal/models"
)

const uniqueViolation = "23505"

const accountColumns = `
	id, username, email, password_hash, role, status, is_verified,
	refresh_token, refresh_expires_at, created_at, updated_at
`

// AuthRepository owns the accounts table and the transactional
// account+profile create. It never reports "no rows" as a plain error:
// callers get apperr.ErrNotFound and can tell it apart from I/O failure.
type AuthRepository struct {
	pool *pgxpool.Pool
	log  zerolog.Logger
}

func NewAuthRepository(pool *pgxpool.Pool, log zerolog.Logger) *AuthRepository {
	return &AuthRepository{pool: pool, log: log}
}

func (r *AuthRepository) FindByEmail(ctx context.Context, email string) (models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE email = $1`
	return r.scanAccount(r.pool.QueryRow(ctx, query, normalize(email)))
}

func (r *AuthRepository) FindByUsername(ctx context.Context, username string) (models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE username = $1`
	return r.scanAccount(r.pool.QueryRow(ctx, query, normalize(username)))
}

func (r *AuthRepository) FindByID(ctx context.Context, id string) (models.Account, error) {
	if id == "" {
		return models.Account{}, apperr.ErrNotFound
	}
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	return r.scanAccount(r.pool.QueryRow(ctx, query, id))
}

// Create inserts the account and its linked profile in one transaction.
// Either both rows land or neither does; a concurrent reader never sees
// an account without its profile. Unique-index violations surface as
// apperr.ErrDuplicate, the authoritative duplicate signal regardless of
// any earlier existence pre-check.
func (r *AuthRepository) Create(ctx context.Context, account models.Account, profile models.Profile) (models.Account, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return models.Account{}, fmt.Errorf("begin create tx: %w", err)
	}
	defer tx.Rollback(ctx)

	const insertAccount = `
		INSERT INTO accounts (
			id, username, email, password_hash, role, status, is_verified, refresh_token, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, NULL, NOW(), NOW()
		)
		RETURNING ` + accountColumns

	created, err := r.scanAccount(tx.QueryRow(ctx, insertAccount,
		account.ID,
		normalize(account.Username),
		normalize(account.Email),
		account.PasswordHash,
		account.Role,
		account.Status,
		account.IsVerified,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return models.Account{}, apperr.ErrDuplicate
		}
		r.log.Error().Err(err).Str("email", account.Email).Msg("insert account failed")
		return models.Account{}, err
	}

	const insertProfile = `
		INSERT INTO profiles (
			id, full_name, avatar, bio, social_links, preferences, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, NOW(), NOW()
		)
	`
	if _, err := tx.Exec(ctx, insertProfile,
		created.ID,
		profile.FullName,
		profile.Avatar,
		profile.Bio,
		profile.SocialLinks,
		profile.Preferences,
	); err != nil {
		r.log.Error().Err(err).Str("account_id", created.ID).Msg("insert profile failed, rolling back account")
		return models.Account{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return models.Account{}, fmt.Errorf("commit create tx: %w", err)
	}
	return created, nil
}

// UpdateByID applies a partial update and returns the refreshed row.
func (r *AuthRepository) UpdateByID(ctx context.Context, id string, patch models.AccountPatch) (models.Account, error) {
	sets := []string{"updated_at = NOW()"}
	args := []any{id}

	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.PasswordHash != nil {
		add("password_hash", *patch.PasswordHash)
	}
	if patch.RefreshToken != nil {
		add("refresh_token", *patch.RefreshToken)
	}
	if patch.RefreshExpiresAt != nil {
		add("refresh_expires_at", *patch.RefreshExpiresAt)
	}
	if patch.Status != nil {
		add("status", *patch.Status)
	}
	if patch.IsVerified != nil {
		add("is_verified", *patch.IsVerified)
	}

	query := `UPDATE accounts SET ` + strings.Join(sets, ", ") + ` WHERE id = $1 RETURNING ` + accountColumns
	return r.scanAccount(r.pool.QueryRow(ctx, query, args...))
}

// RemoveRefreshTokenByID ends the account's session. Clearing an already
// cleared token succeeds, which makes logout idempotent.
func (r *AuthRepository) RemoveRefreshTokenByID(ctx context.Context, id string) (models.Account, error) {
	const query = `
		UPDATE accounts
		SET refresh_token = NULL, refresh_expires_at = NULL, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + accountColumns
	return r.scanAccount(r.pool.QueryRow(ctx, query, id))
}

func (r *AuthRepository) DeleteByID(ctx context.Context, id string) (models.Account, error) {
	// The profile row goes with it via ON DELETE CASCADE.
	const query = `DELETE FROM accounts WHERE id = $1 RETURNING ` + accountColumns
	return r.scanAccount(r.pool.QueryRow(ctx, query, id))
}

// ClearExpiredRefreshTokens nulls refresh tokens whose recorded expiry has
// passed. Run by the maintenance sweep, not by request flows. The WHERE
// clause is the SQL form of models.Account.SessionExpired.
func (r *AuthRepository) ClearExpiredRefreshTokens(ctx context.Context) (int64, error) {
	const query = `
		UPDATE accounts
		SET refresh_token = NULL, refresh_expires_at = NULL, updated_at = NOW()
		WHERE refresh_token IS NOT NULL AND refresh_expires_at < NOW()
	`
	cmd, err := r.pool.Exec(ctx, query)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func (r *AuthRepository) scanAccount(row pgx.Row) (models.Account, error) {
	var account models.Account
	if err := row.Scan(
		&account.ID,
		&account.Username,
		&account.Email,
		&account.PasswordHash,
		&account.Role,
		&account.Status,
		&account.IsVerified,
		&account.RefreshToken,
		&account.RefreshExpiresAt,
		&account.CreatedAt,
		&account.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Account{}, apperr.ErrNotFound
		}
		return models.Account{}, err
	}
	return account, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
