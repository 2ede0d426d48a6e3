package player

import (
	"time"

	"tapper/internal/game"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// OnlineWindow is how recently a player must have been seen to count as
// online in contact lists.
const OnlineWindow = 2 * time.Minute

// MaxAvatarBytes bounds avatar data URLs, matching the inline image limit
// in chat.
const MaxAvatarBytes = 5 << 20

// User is one account row: identity, profile, and the last persisted
// progression snapshot.
type User struct {
	ID           string        `json:"id"`
	Username     string        `json:"username"`
	Role         string        `json:"role"`
	AvatarURL    string        `json:"avatar_url,omitempty"`
	PasswordHash string        `json:"-"`
	Progression  game.Snapshot `json:"progression"`
	CreatedAt    time.Time     `json:"created_at"`
	LastActive   time.Time     `json:"last_active"`
}

// IsAdmin reports whether the account carries the admin role.
func (u User) IsAdmin() bool { return u.Role == RoleAdmin }

// Online reports presence relative to now.
func (u User) Online(now time.Time) bool {
	return !u.LastActive.IsZero() && now.Sub(u.LastActive) <= OnlineWindow
}

// LeaderboardRow is the public projection used by the ranked listing.
type LeaderboardRow struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	AvatarURL  string `json:"avatar_url,omitempty"`
	Balance    string `json:"balance"`
	ClickPower int64  `json:"click_power"`
	Rebirths   int64  `json:"rebirths"`
}
