package session

import (
	"encoding/json"
	"errors"
	"net/http"

	"tapper/internal/auth"
	"tapper/internal/game"
	"tapper/internal/metrics"
	"tapper/internal/player"
)

// Handler exposes the game commands. Every endpoint operates on the
// session of the authenticated account; mutations answer with the fresh
// state view so the client never needs a follow-up read.
type Handler struct {
	mgr *Manager
}

func NewHandler(mgr *Manager) *Handler {
	return &Handler{mgr: mgr}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]any{"error": msg})
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*Session, bool) {
	u, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "access denied")
		return nil, false
	}
	s, err := h.mgr.Get(r.Context(), u.ID)
	if err != nil {
		if errors.Is(err, player.ErrNotFound) {
			writeError(w, http.StatusForbidden, "invalid token")
			return nil, false
		}
		writeError(w, http.StatusInternalServerError, "session load failed")
		return nil, false
	}
	return s, true
}

func (h *Handler) State(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.View())
}

type tapRequest struct {
	Touches int `json:"touches"`
}

type tapResponse struct {
	Earned string `json:"earned"`
	StateView
}

func (h *Handler) Tap(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	// An absent or empty body counts as a single touch.
	var req tapRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	earned := s.Tap(req.Touches)
	metrics.TapsTotal.Inc()
	writeJSON(w, http.StatusOK, tapResponse{Earned: earned.String(), StateView: s.View()})
}

type purchaseResponse struct {
	Purchased bool `json:"purchased"`
	StateView
}

func (h *Handler) BuyUpgrade(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	purchased := s.BuyUpgrade()
	writeJSON(w, http.StatusOK, purchaseResponse{Purchased: purchased, StateView: s.View()})
}

type rebirthResponse struct {
	Bought int `json:"bought"`
	StateView
}

func (h *Handler) Rebirth(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	bought := s.BuyRebirthsMax()
	writeJSON(w, http.StatusOK, rebirthResponse{Bought: bought, StateView: s.View()})
}

type claimRequest struct {
	QuestID string `json:"quest_id"`
}

type claimResponse struct {
	Claimed bool `json:"claimed"`
	StateView
}

func (h *Handler) Claim(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req claimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.QuestID == "" {
		writeError(w, http.StatusBadRequest, "quest_id required")
		return
	}

	claimed := s.Claim(req.QuestID)
	if claimed {
		metrics.ClaimsTotal.Inc()
	}
	writeJSON(w, http.StatusOK, claimResponse{Claimed: claimed, StateView: s.View()})
}

// Quests returns the active quest list (catalog plus the synthesized
// daily batch) with per-quest status.
func (h *Handler) Quests(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"quests": s.View().Quests})
}

// Save accepts a full client snapshot and overwrites the session with it.
// The client is authoritative for its own session; last write wins.
func (h *Handler) Save(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var sn game.Snapshot
	if err := json.NewDecoder(r.Body).Decode(&sn); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.Replace(sn); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}
