package quest

import (
	"math/big"
	"strings"

	"tapper/internal/game"
)

// ConditionType selects which progression field a quest threshold compares
// against.
type ConditionType string

const (
	ConditionBalance    ConditionType = "balance"
	ConditionClickPower ConditionType = "click_power"
)

// Status is the lifecycle of a quest for one player. Claimed is terminal.
type Status string

const (
	StatusLocked   Status = "locked"
	StatusUnlocked Status = "unlocked"
	StatusClaimed  Status = "claimed"
)

// DailyPrefix marks synthesized daily quests. Identifiers under this prefix
// are generated per-session and never live in the authored catalog.
const DailyPrefix = "daily_random_"

// Quest is a named unlock condition over progression state with a one-time
// currency reward.
type Quest struct {
	ID             string        `json:"id" toml:"id"`
	Title          string        `json:"title" toml:"title"`
	Description    string        `json:"description" toml:"description"`
	ConditionType  ConditionType `json:"condition_type" toml:"condition_type"`
	ConditionValue int64         `json:"condition_value" toml:"condition_value"`
	RewardAmount   int64         `json:"reward_amount" toml:"reward_amount"`
}

// IsDaily reports whether the quest is a synthesized daily quest.
func (q Quest) IsDaily() bool {
	return strings.HasPrefix(q.ID, DailyPrefix)
}

// ConditionMet evaluates the unlock predicate against progression state.
// Unknown condition types never unlock.
func (q Quest) ConditionMet(st *game.State) bool {
	switch q.ConditionType {
	case ConditionBalance:
		return st.Balance.Cmp(big.NewInt(q.ConditionValue)) >= 0
	case ConditionClickPower:
		return st.ClickPower >= q.ConditionValue
	default:
		return false
	}
}

// StatusFor derives the quest's lifecycle state for a player.
func (q Quest) StatusFor(st *game.State) Status {
	if st.HasClaimed(q.ID) {
		return StatusClaimed
	}
	if q.ConditionMet(st) {
		return StatusUnlocked
	}
	return StatusLocked
}

// View pairs a quest with its derived status for rendering.
type View struct {
	Quest
	Status Status `json:"status"`
}
