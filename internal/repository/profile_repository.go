package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"profilehub/api/internal/apperr"
	"profilehub/api/internal/models"
)

const profileColumns = `
	id, full_name, avatar, bio, social_links, preferences, created_at, updated_at
`

// ListParams drives the paginated profile listing.
type ListParams struct {
	Page      int
	Limit     int
	Search    string
	SortBy    string // "fullName" or "createdAt"
	SortOrder string // "asc" or "desc"
}

type Page struct {
	Page       int
	Limit      int
	Total      int
	TotalPages int
}

type ProfileRepository struct {
	pool *pgxpool.Pool
	log  zerolog.Logger
}

func NewProfileRepository(pool *pgxpool.Pool, log zerolog.Logger) *ProfileRepository {
	return &ProfileRepository{pool: pool, log: log}
}

func (r *ProfileRepository) FindByID(ctx context.Context, id string) (models.Profile, error) {
	if id == "" {
		return models.Profile{}, apperr.ErrNotFound
	}
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE id = $1`
	return r.scanProfile(r.pool.QueryRow(ctx, query, id))
}

func (r *ProfileRepository) List(ctx context.Context, params ListParams) ([]models.Profile, Page, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.Limit < 1 || params.Limit > 100 {
		params.Limit = 10
	}

	where := ""
	args := []any{}
	if s := strings.TrimSpace(params.Search); s != "" {
		args = append(args, "%"+s+"%")
		where = fmt.Sprintf("WHERE full_name ILIKE $%d", len(args))
	}

	sortColumn := "created_at"
	if params.SortBy == "fullName" {
		sortColumn = "full_name"
	}
	direction := "DESC"
	if strings.EqualFold(params.SortOrder, "asc") {
		direction = "ASC"
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM profiles ` + where
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, Page{}, err
	}

	args = append(args, params.Limit, (params.Page-1)*params.Limit)
	query := fmt.Sprintf(
		`SELECT %s FROM profiles %s ORDER BY %s %s LIMIT $%d OFFSET $%d`,
		profileColumns, where, sortColumn, direction, len(args)-1, len(args),
	)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, Page{}, err
	}
	defer rows.Close()

	var profiles []models.Profile
	for rows.Next() {
		profile, err := r.scanProfile(rows)
		if err != nil {
			return nil, Page{}, err
		}
		profiles = append(profiles, profile)
	}
	if err := rows.Err(); err != nil {
		return nil, Page{}, err
	}

	page := Page{
		Page:       params.Page,
		Limit:      params.Limit,
		Total:      total,
		TotalPages: (total + params.Limit - 1) / params.Limit,
	}
	return profiles, page, nil
}

func (r *ProfileRepository) UpdateByID(ctx context.Context, id string, patch models.ProfilePatch) (models.Profile, error) {
	sets := []string{"updated_at = NOW()"}
	args := []any{id}

	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.FullName != nil {
		add("full_name", *patch.FullName)
	}
	if patch.Bio != nil {
		add("bio", *patch.Bio)
	}
	if patch.SocialLinks != nil {
		add("social_links", *patch.SocialLinks)
	}
	if patch.Preferences != nil {
		add("preferences", *patch.Preferences)
	}

	query := `UPDATE profiles SET ` + strings.Join(sets, ", ") + ` WHERE id = $1 RETURNING ` + profileColumns
	return r.scanProfile(r.pool.QueryRow(ctx, query, args...))
}

func (r *ProfileRepository) SetAvatar(ctx context.Context, id string, avatarURL string) (models.Profile, error) {
	const query = `
		UPDATE profiles SET avatar = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + profileColumns
	return r.scanProfile(r.pool.QueryRow(ctx, query, id, avatarURL))
}

// Follow records followerID following followeeID. Re-following is a no-op,
// matching set semantics.
func (r *ProfileRepository) Follow(ctx context.Context, followerID, followeeID string) error {
	const query = `
		INSERT INTO follows (follower_id, followee_id, created_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (follower_id, followee_id) DO NOTHING
	`
	_, err := r.pool.Exec(ctx, query, followerID, followeeID)
	return err
}

func (r *ProfileRepository) Unfollow(ctx context.Context, followerID, followeeID string) error {
	const query = `DELETE FROM follows WHERE follower_id = $1 AND followee_id = $2`
	_, err := r.pool.Exec(ctx, query, followerID, followeeID)
	return err
}

func (r *ProfileRepository) Followers(ctx context.Context, id string) ([]models.FollowUser, error) {
	const query = `
		SELECT p.id, p.full_name, p.avatar
		FROM follows f
		JOIN profiles p ON p.id = f.follower_id
		WHERE f.followee_id = $1
		ORDER BY f.created_at DESC
	`
	return r.queryFollowUsers(ctx, query, id)
}

func (r *ProfileRepository) Following(ctx context.Context, id string) ([]models.FollowUser, error) {
	const query = `
		SELECT p.id, p.full_name, p.avatar
		FROM follows f
		JOIN profiles p ON p.id = f.followee_id
		WHERE f.follower_id = $1
		ORDER BY f.created_at DESC
	`
	return r.queryFollowUsers(ctx, query, id)
}

func (r *ProfileRepository) IsFollowing(ctx context.Context, followerID, followeeID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM follows WHERE follower_id = $1 AND followee_id = $2)`
	var following bool
	if err := r.pool.QueryRow(ctx, query, followerID, followeeID).Scan(&following); err != nil {
		return false, err
	}
	return following, nil
}

func (r *ProfileRepository) FollowCounts(ctx context.Context, id string) (models.FollowCounts, error) {
	const query = `
		SELECT
			(SELECT COUNT(*) FROM follows WHERE followee_id = $1),
			(SELECT COUNT(*) FROM follows WHERE follower_id = $1)
	`
	var counts models.FollowCounts
	if err := r.pool.QueryRow(ctx, query, id).Scan(&counts.Followers, &counts.Following); err != nil {
		return models.FollowCounts{}, err
	}
	return counts, nil
}

func (r *ProfileRepository) queryFollowUsers(ctx context.Context, query string, id string) ([]models.FollowUser, error) {
	rows, err := r.pool.Query(ctx, query, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]models.FollowUser, 0)
	for rows.Next() {
		var user models.FollowUser
		if err := rows.Scan(&user.ID, &user.FullName, &user.Avatar); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (r *ProfileRepository) scanProfile(row pgx.Row) (models.Profile, error) {
	var profile models.Profile
	if err := row.Scan(
		&profile.ID,
		&profile.FullName,
		&profile.Avatar,
		&profile.Bio,
		&profile.SocialLinks,
		&profile.Preferences,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Profile{}, apperr.ErrNotFound
		}
		return models.Profile{}, err
	}
	return profile, nil
}
