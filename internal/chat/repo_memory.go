package chat

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo is an in-memory message store used by tests.
type MemoryRepo struct {
	mu       sync.RWMutex
	messages []Message
	blocks   map[string]map[string]bool // blocker -> blocked
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{blocks: make(map[string]map[string]bool)}
}

func (r *MemoryRepo) Send(ctx context.Context, m Message) error {
	_ = ctx

	if err := m.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.blocks[m.SenderID][m.ReceiverID] || r.blocks[m.ReceiverID][m.SenderID] {
		return ErrBlocked
	}
	r.messages = append(r.messages, m)
	return nil
}

func (r *MemoryRepo) Conversation(ctx context.Context, viewerID, peerID string) ([]Message, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Message
	for _, m := range r.messages {
		if (m.SenderID == viewerID && m.ReceiverID == peerID) ||
			(m.SenderID == peerID && m.ReceiverID == viewerID) {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SentAt.Before(out[j].SentAt) })
	return out, nil
}

func (r *MemoryRepo) Contacts(ctx context.Context, viewerID string) ([]string, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	// Walk newest-first so contacts come out ordered by latest exchange.
	seen := map[string]bool{}
	var out []string
	for i := len(r.messages) - 1; i >= 0; i-- {
		m := r.messages[i]
		var peer string
		switch viewerID {
		case m.SenderID:
			peer = m.ReceiverID
		case m.ReceiverID:
			peer = m.SenderID
		default:
			continue
		}
		if !seen[peer] {
			seen[peer] = true
			out = append(out, peer)
		}
	}
	return out, nil
}

func (r *MemoryRepo) Block(ctx context.Context, blockerID, blockedID string) error {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.blocks[blockerID] == nil {
		r.blocks[blockerID] = make(map[string]bool)
	}
	r.blocks[blockerID][blockedID] = true
	return nil
}

func (r *MemoryRepo) Unblock(ctx context.Context, blockerID, blockedID string) error {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.blocks[blockerID], blockedID)
	return nil
}

func (r *MemoryRepo) Blocks(ctx context.Context, viewerID, peerID string) (BlockState, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	return BlockState{
		IBlockedThem:  r.blocks[viewerID][peerID],
		TheyBlockedMe: r.blocks[peerID][viewerID],
	}, nil
}
