package chat

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	ErrEmptyMessage = errors.New("message needs text or an image")
	ErrBlocked      = errors.New("recipient has closed direct messages")
	ErrImageTooBig  = errors.New("image exceeds the size limit")
	ErrSelfMessage  = errors.New("cannot message yourself")
)

// MaxImageBytes bounds inline image attachments (base64 data URLs).
const MaxImageBytes = 5 << 20

// Message is one direct message between two players. Images travel inline
// as data URLs, mirroring how avatars are stored.
type Message struct {
	ID         string    `json:"id"`
	SenderID   string    `json:"sender_id"`
	ReceiverID string    `json:"receiver_id"`
	Text       string    `json:"text,omitempty"`
	ImageURL   string    `json:"image_url,omitempty"`
	SentAt     time.Time `json:"sent_at"`
}

// Validate applies the send rules shared by every repo implementation.
func (m Message) Validate() error {
	if m.SenderID == m.ReceiverID {
		return ErrSelfMessage
	}
	if strings.TrimSpace(m.Text) == "" && m.ImageURL == "" {
		return ErrEmptyMessage
	}
	if len(m.ImageURL) > MaxImageBytes {
		return ErrImageTooBig
	}
	return nil
}

// BlockState describes the block relation between the viewer and a peer.
type BlockState struct {
	IBlockedThem  bool `json:"iBlockedThem"`
	TheyBlockedMe bool `json:"theyBlockedMe"`
}

// Blocked reports whether sending in either direction is closed.
func (b BlockState) Blocked() bool { return b.IBlockedThem || b.TheyBlockedMe }

// Repo stores direct messages and block relations. Readers poll
// Conversation at a fixed interval; there is no push.
type Repo interface {
	Send(ctx context.Context, m Message) error
	Conversation(ctx context.Context, viewerID, peerID string) ([]Message, error)

	// Contacts lists peer user IDs the viewer has exchanged messages
	// with, most recent conversation first.
	Contacts(ctx context.Context, viewerID string) ([]string, error)

	Block(ctx context.Context, blockerID, blockedID string) error
	Unblock(ctx context.Context, blockerID, blockedID string) error
	Blocks(ctx context.Context, viewerID, peerID string) (BlockState, error)
}
