package quest

import (
	"context"
	"errors"
)

var (
	ErrNotFound  = errors.New("quest not found")
	ErrDuplicate = errors.New("quest id already exists")
)

// Repo is the authored quest catalog. Mutation is admin-only; the quest
// engine itself never writes here.
type Repo interface {
	Seed(ctx context.Context, quests []Quest) error

	List(ctx context.Context) ([]Quest, error)
	Get(ctx context.Context, id string) (Quest, bool, error)

	Create(ctx context.Context, q Quest) error
	Update(ctx context.Context, q Quest) error
	Delete(ctx context.Context, id string) error
}
