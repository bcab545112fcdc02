package models

import "time"

type SocialLinks struct {
	Twitter  *string `json:"twitter"`
	LinkedIn *string `json:"linkedin"`
	GitHub   *string `json:"github"`
	Website  *string `json:"website"`
}

type Preferences struct {
	EmailNotifications bool `json:"emailNotifications"`
	MarketingUpdates   bool `json:"marketingUpdates"`
	TwoFactorAuth      bool `json:"twoFactorAuth"`
}

// DefaultPreferences matches the values a profile is created with.
func DefaultPreferences() Preferences {
	return Preferences{EmailNotifications: true}
}

// Profile shares its id with the Account it belongs to. The two rows are
// created in the same transaction at registration.
type Profile struct {
	ID          string
	FullName    string
	Avatar      *string
	Bio         string
	SocialLinks SocialLinks
	Preferences Preferences
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ProfilePatch is a partial profile update. Nil fields are left untouched.
type ProfilePatch struct {
	FullName    *string
	Bio         *string
	SocialLinks *SocialLinks
	Preferences *Preferences
}

// FollowCounts is the dashboard follower/following summary.
type FollowCounts struct {
	Followers int
	Following int
}

// FollowUser is the compact card rendered in follower/following listings.
type FollowUser struct {
	ID       string
	FullName string
	Avatar   *string
}
