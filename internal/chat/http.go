package chat

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"tapper/internal/auth"
	"tapper/internal/game"
	"tapper/internal/metrics"
	"tapper/internal/player"
)

// Handler exposes direct messaging: contacts, conversations, sends, and
// block management. Clients poll Conversation; there is no push.
type Handler struct {
	repo    Repo
	players player.Repo
	clock   game.Clock
}

func NewHandler(repo Repo, players player.Repo, clock game.Clock) *Handler {
	if clock == nil {
		clock = game.RealClock{}
	}
	return &Handler{repo: repo, players: players, clock: clock}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]any{"error": msg})
}

func viewer(w http.ResponseWriter, r *http.Request) (player.User, bool) {
	u, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "access denied")
	}
	return u, ok
}

// Contact is one entry in the viewer's chat list.
type Contact struct {
	ID        string     `json:"id"`
	Username  string     `json:"username"`
	AvatarURL string     `json:"avatar_url,omitempty"`
	Online    bool       `json:"online"`
	Blocks    BlockState `json:"blocks"`
}

// Contacts lists peers the viewer has exchanged messages with, most
// recent conversation first. Deleted peers are skipped.
func (h *Handler) Contacts(w http.ResponseWriter, r *http.Request) {
	u, ok := viewer(w, r)
	if !ok {
		return
	}

	peerIDs, err := h.repo.Contacts(r.Context(), u.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "contacts unavailable")
		return
	}

	now := h.clock.Now()
	contacts := make([]Contact, 0, len(peerIDs))
	for _, peerID := range peerIDs {
		peer, err := h.players.ByID(r.Context(), peerID)
		if err != nil {
			if errors.Is(err, player.ErrNotFound) {
				continue
			}
			writeError(w, http.StatusInternalServerError, "contacts unavailable")
			return
		}
		bs, err := h.repo.Blocks(r.Context(), u.ID, peerID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "contacts unavailable")
			return
		}
		contacts = append(contacts, Contact{
			ID:        peer.ID,
			Username:  peer.Username,
			AvatarURL: peer.AvatarURL,
			Online:    peer.Online(now),
			Blocks:    bs,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"contacts": contacts})
}

// Conversation returns the full message history with one peer, oldest
// first, plus the current block state.
func (h *Handler) Conversation(w http.ResponseWriter, r *http.Request) {
	u, ok := viewer(w, r)
	if !ok {
		return
	}
	peerID := chi.URLParam(r, "userID")

	msgs, err := h.repo.Conversation(r.Context(), u.ID, peerID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "conversation unavailable")
		return
	}
	if msgs == nil {
		msgs = []Message{}
	}
	bs, err := h.repo.Blocks(r.Context(), u.ID, peerID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "conversation unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": msgs, "blocks": bs})
}

type sendRequest struct {
	ReceiverID       string `json:"receiver_id"`
	ReceiverUsername string `json:"receiver_username"`
	Text             string `json:"text"`
	ImageURL         string `json:"image_url"`
}

// Send delivers a message, addressed by peer ID or, for starting a fresh
// conversation, by username.
func (h *Handler) Send(w http.ResponseWriter, r *http.Request) {
	u, ok := viewer(w, r)
	if !ok {
		return
	}

	var req sendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	receiverID := req.ReceiverID
	if receiverID == "" && req.ReceiverUsername != "" {
		peer, err := h.players.ByUsername(r.Context(), req.ReceiverUsername)
		if err != nil {
			writeError(w, http.StatusNotFound, "recipient not found")
			return
		}
		receiverID = peer.ID
	}
	if receiverID == "" {
		writeError(w, http.StatusBadRequest, "receiver required")
		return
	}
	if _, err := h.players.ByID(r.Context(), receiverID); err != nil {
		writeError(w, http.StatusNotFound, "recipient not found")
		return
	}

	m := Message{
		ID:         uuid.NewString(),
		SenderID:   u.ID,
		ReceiverID: receiverID,
		Text:       req.Text,
		ImageURL:   req.ImageURL,
		SentAt:     h.clock.Now().UTC().Truncate(time.Millisecond),
	}
	err := h.repo.Send(r.Context(), m)
	switch {
	case err == nil:
		metrics.MessagesSent.Inc()
		writeJSON(w, http.StatusCreated, m)
	case errors.Is(err, ErrBlocked):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, ErrEmptyMessage),
		errors.Is(err, ErrSelfMessage),
		errors.Is(err, ErrImageTooBig):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "send failed")
	}
}

func (h *Handler) Block(w http.ResponseWriter, r *http.Request) {
	h.setBlock(w, r, true)
}

func (h *Handler) Unblock(w http.ResponseWriter, r *http.Request) {
	h.setBlock(w, r, false)
}

func (h *Handler) setBlock(w http.ResponseWriter, r *http.Request, blocked bool) {
	u, ok := viewer(w, r)
	if !ok {
		return
	}
	peerID := chi.URLParam(r, "userID")
	if peerID == u.ID {
		writeError(w, http.StatusBadRequest, "cannot block yourself")
		return
	}
	if _, err := h.players.ByID(r.Context(), peerID); err != nil {
		if errors.Is(err, player.ErrNotFound) {
			writeError(w, http.StatusNotFound, "player not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "block update failed")
		return
	}

	var err error
	if blocked {
		err = h.repo.Block(r.Context(), u.ID, peerID)
	} else {
		err = h.repo.Unblock(r.Context(), u.ID, peerID)
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "block update failed")
		return
	}
	bs, err := h.repo.Blocks(r.Context(), u.ID, peerID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "block update failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"blocks": bs})
}
