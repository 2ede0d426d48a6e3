package session

import (
	"context"
	"math/big"
	"sync"

	"go.uber.org/zap"

	"tapper/internal/game"
	"tapper/internal/player"
	"tapper/internal/quest"
)

// Session owns the live progression of one logged-in player: the mutable
// state, the quest engine evaluating against it, and the debouncer that
// flushes snapshots to the account store. All commands serialize on the
// session mutex; the flush is the only asynchronous path and it never
// blocks a command.
type Session struct {
	mu     sync.Mutex
	userID string
	state  *game.State
	engine *quest.Engine
	eco    game.Economy
	saver  *Debouncer
	repo   player.Repo
	logger *zap.Logger

	onSave func(err error)
}

// StateView is the render projection of a session: the snapshot plus
// everything the UI derives from it.
type StateView struct {
	game.Snapshot
	UpgradePrice      string       `json:"upgrade_price"`
	RebirthPrice      string       `json:"rebirth_price"`
	TapEarnings       string       `json:"tap_earnings"`
	RebirthMultiplier int64        `json:"rebirth_multiplier"`
	Quests            []quest.View `json:"quests"`
}

func (s *Session) snapshotLocked() game.Snapshot {
	return s.state.Snapshot()
}

// flush writes the current snapshot through the persistence sink. Failures
// are logged and swallowed: in-memory state stays authoritative for this
// session, and the next mutation schedules a fresh attempt.
func (s *Session) flush() {
	s.mu.Lock()
	sn := s.snapshotLocked()
	s.mu.Unlock()

	err := s.repo.SaveProgression(context.Background(), s.userID, sn)
	if err != nil {
		s.logger.Warn("progress flush failed",
			zap.String("user_id", s.userID),
			zap.Error(err))
	}
	if s.onSave != nil {
		s.onSave(err)
	}
}

// Tap credits one input event with the given number of simultaneous touch
// points and returns the total earned.
func (s *Session) Tap(touches int) *big.Int {
	s.mu.Lock()
	defer s.mu.Unlock()

	earned := s.state.ApplyTap(s.eco, touches)
	s.saver.Touch()
	return earned
}

// BuyUpgrade attempts the upgrade purchase. A refusal (insufficient funds)
// does not schedule a save since nothing changed.
func (s *Session) BuyUpgrade() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	ok := s.state.BuyUpgrade(s.eco)
	if ok {
		s.saver.Touch()
	}
	return ok
}

// BuyRebirthsMax greedily buys rebirths and returns how many were bought.
func (s *Session) BuyRebirthsMax() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	bought := s.state.BuyRebirthsMax(s.eco)
	if bought > 0 {
		s.saver.Touch()
	}
	return bought
}

// Claim applies a quest claim. Duplicate, locked, and unknown claims are
// no-ops returning false.
func (s *Session) Claim(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	claimed := s.engine.Claim(s.state, id)
	if claimed {
		s.saver.Touch()
	}
	return claimed
}

// Replace overwrites the session state with a client-supplied snapshot
// (the /api/save path: the client is authoritative for its own session,
// last write wins) and schedules a flush.
func (s *Session) Replace(sn game.Snapshot) error {
	st, err := game.FromSnapshot(sn)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = st
	s.saver.Touch()
	return nil
}

// Snapshot returns the current serializable progression.
func (s *Session) Snapshot() game.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// View builds the full render projection, re-evaluating quest statuses and
// daily-quest synthesis.
func (s *Session) View() StateView {
	s.mu.Lock()
	defer s.mu.Unlock()

	return StateView{
		Snapshot:          s.snapshotLocked(),
		UpgradePrice:      s.eco.UpgradePrice(s.state.ClickPower).String(),
		RebirthPrice:      s.eco.RebirthPrice(s.state.Rebirths).String(),
		TapEarnings:       s.eco.TapEarnings(s.state.ClickPower, s.state.Rebirths).String(),
		RebirthMultiplier: 1 + s.state.Rebirths,
		Quests:            s.engine.Active(s.state),
	}
}

// ReplaceCatalog propagates an admin catalog edit into the live engine.
func (s *Session) ReplaceCatalog(catalog []quest.Quest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.engine.ReplaceCatalog(catalog)
}

// Close flushes any pending state synchronously and stops the debouncer.
func (s *Session) Close() {
	s.saver.FlushNow()
}
