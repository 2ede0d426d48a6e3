package quest

import (
	"fmt"
	"strings"

	"tapper/internal/game"
)

// Engine drives the per-player quest state machine: it derives
// locked/unlocked/claimed status from progression state, applies claims
// exactly once, and synthesizes daily quests once the authored catalog is
// exhausted.
//
// The engine owns no durable state of its own: claims live in the
// progression state, and the synthesized batch is session-lived. It is not
// safe for concurrent use; the owning session serializes access.
type Engine struct {
	catalog []Quest
	daily   []Quest
}

// NewEngine builds an engine over the ordered finite catalog.
func NewEngine(catalog []Quest) *Engine {
	return &Engine{catalog: append([]Quest(nil), catalog...)}
}

// dailyFactor scales synthesized quest thresholds with click power:
// max(1, floor(clickPower * 1.5)).
func dailyFactor(clickPower int64) int64 {
	f := clickPower + clickPower/2
	if f < 1 {
		f = 1
	}
	return f
}

// satMul multiplies non-negative int64s, saturating instead of wrapping.
func satMul(a, b int64) int64 {
	if a == 0 || b == 0 {
		return 0
	}
	p := a * b
	if p/b != a || p < 0 {
		return 1<<63 - 1
	}
	return p
}

// SynthesizeDaily builds the three-quest daily batch for a click power
// level. Identifiers embed the click power, so a new batch appears whenever
// click power changes after catalog exhaustion.
func SynthesizeDaily(clickPower int64) []Quest {
	factor := dailyFactor(clickPower)
	batch := make([]Quest, 0, 3)
	for i := int64(1); i <= 3; i++ {
		threshold := satMul(satMul(1000, factor), i)
		reward := satMul(satMul(500, factor), i)
		batch = append(batch, Quest{
			ID:             fmt.Sprintf("%s%d_%d", DailyPrefix, clickPower, i),
			Title:          fmt.Sprintf("Daily quest %d", i),
			Description:    fmt.Sprintf("Bank %d coins (reward: +%d coins)", threshold, reward),
			ConditionType:  ConditionBalance,
			ConditionValue: threshold,
			RewardAmount:   reward,
		})
	}
	return batch
}

// catalogExhausted reports whether every authored quest has been claimed.
// An empty catalog counts as exhausted, so dailies are the whole game when
// no quests are authored.
func (e *Engine) catalogExhausted(st *game.State) bool {
	for _, q := range e.catalog {
		if !st.HasClaimed(q.ID) {
			return false
		}
	}
	return true
}

// Refresh re-evaluates daily-quest synthesis. Once the catalog is exhausted
// it keeps exactly one batch alive, keyed to the current click power:
// re-running with unchanged click power is a no-op, and when click power
// moves on, the stale unclaimed batch is pruned rather than accumulated.
// Claimed identifiers are kept in the progression state regardless.
func (e *Engine) Refresh(st *game.State) {
	if !e.catalogExhausted(st) {
		return
	}
	if len(e.daily) > 0 {
		want := fmt.Sprintf("%s%d_", DailyPrefix, st.ClickPower)
		if strings.HasPrefix(e.daily[0].ID, want) {
			return
		}
	}
	e.daily = SynthesizeDaily(st.ClickPower)
}

// Active returns every quest currently in play, with derived status: the
// authored catalog in order, then the live daily batch.
func (e *Engine) Active(st *game.State) []View {
	e.Refresh(st)
	out := make([]View, 0, len(e.catalog)+len(e.daily))
	for _, q := range e.catalog {
		out = append(out, View{Quest: q, Status: q.StatusFor(st)})
	}
	for _, q := range e.daily {
		out = append(out, View{Quest: q, Status: q.StatusFor(st)})
	}
	return out
}

// Claim grants a quest's reward exactly once. Claiming an unknown, locked,
// or already-claimed quest is a no-op returning false; the state mutates
// only on a successful first claim, which also re-runs synthesis so a fresh
// daily batch can appear immediately.
func (e *Engine) Claim(st *game.State, id string) bool {
	if st.HasClaimed(id) {
		return false
	}
	var target *Quest
	for i := range e.catalog {
		if e.catalog[i].ID == id {
			target = &e.catalog[i]
			break
		}
	}
	if target == nil {
		for i := range e.daily {
			if e.daily[i].ID == id {
				target = &e.daily[i]
				break
			}
		}
	}
	if target == nil || !target.ConditionMet(st) {
		return false
	}
	st.MarkClaimed(id)
	st.GrantReward(target.RewardAmount)
	e.Refresh(st)
	return true
}

// ReplaceCatalog swaps in a new authored catalog, used when an admin edits
// quests while sessions are live.
func (e *Engine) ReplaceCatalog(catalog []Quest) {
	e.catalog = append([]Quest(nil), catalog...)
}
