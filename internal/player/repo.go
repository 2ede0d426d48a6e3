package player

import (
	"context"
	"errors"
	"time"

	"tapper/internal/game"
)

var (
	ErrNotFound      = errors.New("user not found")
	ErrUsernameTaken = errors.New("username already exists")
)

// LeaderboardLimit caps the ranked listing.
const LeaderboardLimit = 50

// Repo is the account store. SaveProgression is a full-snapshot,
// last-write-wins overwrite: the core requires no partial-field update
// semantics from the sink.
type Repo interface {
	Create(ctx context.Context, u User) (User, error)
	ByID(ctx context.Context, id string) (User, error)
	ByUsername(ctx context.Context, username string) (User, error)

	SaveProgression(ctx context.Context, id string, sn game.Snapshot) error
	UpdateProfile(ctx context.Context, id, username, avatarURL string) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	SetRole(ctx context.Context, id, role string) error
	Touch(ctx context.Context, id string, seen time.Time) error

	List(ctx context.Context) ([]User, error)
	Count(ctx context.Context) (int, error)
	Leaderboard(ctx context.Context, limit int) ([]LeaderboardRow, error)
}
