package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"profilehub/api/internal/apperr"
	"profilehub/api/internal/models"
	"profilehub/api/internal/repository"
)

// ProfileStore is the persistence contract for profiles and the follow
// graph.
type ProfileStore interface {
	FindByID(ctx context.Context, id string) (models.Profile, error)
	List(ctx context.Context, params repository.ListParams) ([]models.Profile, repository.Page, error)
	UpdateByID(ctx context.Context, id string, patch models.ProfilePatch) (models.Profile, error)
	SetAvatar(ctx context.Context, id string, avatarURL string) (models.Profile, error)
	Follow(ctx context.Context, followerID, followeeID string) error
	Unfollow(ctx context.Context, followerID, followeeID string) error
	IsFollowing(ctx context.Context, followerID, followeeID string) (bool, error)
	Followers(ctx context.Context, id string) ([]models.FollowUser, error)
	Following(ctx context.Context, id string) ([]models.FollowUser, error)
	FollowCounts(ctx context.Context, id string) (models.FollowCounts, error)
}

// UserService covers the profile read/update paths and follow-list
// bookkeeping around the auth core.
type UserService struct {
	profiles ProfileStore
	log      zerolog.Logger
}

func NewUserService(profiles ProfileStore, log zerolog.Logger) *UserService {
	return &UserService{profiles: profiles, log: log}
}

func (s *UserService) GetProfile(ctx context.Context, id string) (models.Profile, error) {
	profile, err := s.profiles.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return models.Profile{}, apperr.New(apperr.KindNotFound, "user not found")
		}
		return models.Profile{}, apperr.Wrap(apperr.KindInternal, "profile lookup failed", err)
	}
	return profile, nil
}

func (s *UserService) ListProfiles(ctx context.Context, params repository.ListParams) ([]models.Profile, repository.Page, error) {
	profiles, page, err := s.profiles.List(ctx, params)
	if err != nil {
		return nil, repository.Page{}, apperr.Wrap(apperr.KindInternal, "profile listing failed", err)
	}
	return profiles, page, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, id string, patch models.ProfilePatch) (models.Profile, error) {
	profile, err := s.profiles.UpdateByID(ctx, id, patch)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return models.Profile{}, apperr.New(apperr.KindNotFound, "user not found")
		}
		return models.Profile{}, apperr.Wrap(apperr.KindInternal, "profile update failed", err)
	}
	return profile, nil
}

func (s *UserService) SetAvatar(ctx context.Context, id string, avatarURL string) (models.Profile, error) {
	profile, err := s.profiles.SetAvatar(ctx, id, avatarURL)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return models.Profile{}, apperr.New(apperr.KindNotFound, "user not found")
		}
		return models.Profile{}, apperr.Wrap(apperr.KindInternal, "avatar update failed", err)
	}
	return profile, nil
}

// Follow wires both directions of the graph: the target gains a follower,
// the actor gains a following entry. Following yourself is rejected.
func (s *UserService) Follow(ctx context.Context, followerID, targetID string) error {
	if followerID == targetID {
		return apperr.New(apperr.KindValidation, "cannot follow yourself")
	}
	if _, err := s.GetProfile(ctx, targetID); err != nil {
		return err
	}
	if err := s.profiles.Follow(ctx, followerID, targetID); err != nil {
		return apperr.Wrap(apperr.KindInternal, "follow failed", err)
	}
	return nil
}

func (s *UserService) Unfollow(ctx context.Context, followerID, targetID string) error {
	if followerID == targetID {
		return apperr.New(apperr.KindValidation, "cannot unfollow yourself")
	}
	if err := s.profiles.Unfollow(ctx, followerID, targetID); err != nil {
		return apperr.Wrap(apperr.KindInternal, "unfollow failed", err)
	}
	return nil
}

// IsFollowing reports whether follower already follows the target. An
// account never follows itself.
func (s *UserService) IsFollowing(ctx context.Context, followerID, targetID string) (bool, error) {
	if followerID == "" || followerID == targetID {
		return false, nil
	}
	following, err := s.profiles.IsFollowing(ctx, followerID, targetID)
	if err != nil {
		return false, apperr.Wrap(apperr.KindInternal, "follow lookup failed", err)
	}
	return following, nil
}

func (s *UserService) Followers(ctx context.Context, id string) ([]models.FollowUser, error) {
	users, err := s.profiles.Followers(ctx, id)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "followers lookup failed", err)
	}
	return users, nil
}

func (s *UserService) Following(ctx context.Context, id string) ([]models.FollowUser, error) {
	users, err := s.profiles.Following(ctx, id)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "following lookup failed", err)
	}
	return users, nil
}

func (s *UserService) FollowCounts(ctx context.Context, id string) (models.FollowCounts, error) {
	counts, err := s.profiles.FollowCounts(ctx, id)
	if err != nil {
		return models.FollowCounts{}, apperr.Wrap(apperr.KindInternal, "follow counts failed", err)
	}
	return counts, nil
}
