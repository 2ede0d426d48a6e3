package chat

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func msg(id, from, to, text string, at time.Time) Message {
	return Message{ID: id, SenderID: from, ReceiverID: to, Text: text, SentAt: at}
}

func TestMessage_Validate(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	assert.ErrorIs(t, msg("m1", "a", "a", "hi", base).Validate(), ErrSelfMessage)
	assert.ErrorIs(t, msg("m2", "a", "b", "   ", base).Validate(), ErrEmptyMessage)

	big := Message{ID: "m3", SenderID: "a", ReceiverID: "b", ImageURL: strings.Repeat("x", MaxImageBytes+1)}
	assert.ErrorIs(t, big.Validate(), ErrImageTooBig)

	imageOnly := Message{ID: "m4", SenderID: "a", ReceiverID: "b", ImageURL: "data:image/png;base64,AAAA"}
	assert.NoError(t, imageOnly.Validate())
}

func TestMemoryRepo_ConversationAndContacts(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Send(ctx, msg("m1", "a", "b", "hey", base)))
	require.NoError(t, repo.Send(ctx, msg("m2", "b", "a", "yo", base.Add(time.Minute))))
	require.NoError(t, repo.Send(ctx, msg("m3", "a", "c", "hi c", base.Add(2*time.Minute))))

	conv, err := repo.Conversation(ctx, "a", "b")
	require.NoError(t, err)
	require.Len(t, conv, 2)
	assert.Equal(t, "m1", conv[0].ID)
	assert.Equal(t, "m2", conv[1].ID)

	contacts, err := repo.Contacts(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "b"}, contacts, "most recent conversation first")

	contacts, err = repo.Contacts(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, contacts)
}

func TestMemoryRepo_BlockStopsBothDirections(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Block(ctx, "a", "b"))

	st, err := repo.Blocks(ctx, "a", "b")
	require.NoError(t, err)
	assert.True(t, st.IBlockedThem)
	assert.False(t, st.TheyBlockedMe)
	assert.True(t, st.Blocked())

	st, err = repo.Blocks(ctx, "b", "a")
	require.NoError(t, err)
	assert.True(t, st.TheyBlockedMe)

	assert.ErrorIs(t, repo.Send(ctx, msg("m1", "a", "b", "hi", base)), ErrBlocked)
	assert.ErrorIs(t, repo.Send(ctx, msg("m2", "b", "a", "hi", base)), ErrBlocked)

	require.NoError(t, repo.Unblock(ctx, "a", "b"))
	assert.NoError(t, repo.Send(ctx, msg("m3", "a", "b", "hi again", base)))
}
