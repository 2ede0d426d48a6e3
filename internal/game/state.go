package game

import (
	"fmt"
	"math/big"
	"sort"
)

// State is the mutable progression record for one player. Balance is kept as
// a big.Int so a price clamped at the cap is still representable and payable.
// It is not safe for concurrent use; the owning session serializes access.
type State struct {
	Balance    *big.Int
	ClickPower int64
	Rebirths   int64

	claimed map[string]struct{}
}

// Snapshot is the wire/storage form of a State. Balance travels as a decimal
// string so it survives JSON without float truncation.
type Snapshot struct {
	Balance        string   `json:"balance"`
	ClickPower     int64    `json:"click_power"`
	Rebirths       int64    `json:"rebirths"`
	ClaimedRewards []string `json:"claimed_rewards"`
}

// NewState returns the progression of a freshly registered player.
func NewState() *State {
	return &State{
		Balance:    big.NewInt(0),
		ClickPower: 1,
		Rebirths:   0,
		claimed:    map[string]struct{}{},
	}
}

// FromSnapshot restores a State, normalizing out-of-range values the same
// way a fresh record is shaped: balance floors at 0, click power at 1.
func FromSnapshot(sn Snapshot) (*State, error) {
	st := NewState()
	if sn.Balance != "" {
		b, ok := new(big.Int).SetString(sn.Balance, 10)
		if !ok {
			return nil, fmt.Errorf("malformed balance %q", sn.Balance)
		}
		if b.Sign() >= 0 {
			st.Balance = b
		}
	}
	if sn.ClickPower > 1 {
		st.ClickPower = sn.ClickPower
	}
	if sn.Rebirths > 0 {
		st.Rebirths = sn.Rebirths
	}
	for _, id := range sn.ClaimedRewards {
		if id != "" {
			st.claimed[id] = struct{}{}
		}
	}
	return st, nil
}

// Snapshot copies the state into its serializable form. Claimed identifiers
// come out sorted so snapshots are stable across calls.
func (s *State) Snapshot() Snapshot {
	ids := make([]string, 0, len(s.claimed))
	for id := range s.claimed {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return Snapshot{
		Balance:        s.Balance.String(),
		ClickPower:     s.ClickPower,
		Rebirths:       s.Rebirths,
		ClaimedRewards: ids,
	}
}

// HasClaimed reports whether a reward identifier has been claimed.
func (s *State) HasClaimed(id string) bool {
	_, ok := s.claimed[id]
	return ok
}

// MarkClaimed records a reward identifier. Returns false if it was already
// present.
func (s *State) MarkClaimed(id string) bool {
	if _, ok := s.claimed[id]; ok {
		return false
	}
	s.claimed[id] = struct{}{}
	return true
}

// ClaimedCount reports how many reward identifiers have been claimed.
func (s *State) ClaimedCount() int {
	return len(s.claimed)
}
