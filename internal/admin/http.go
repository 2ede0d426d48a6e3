// Package admin exposes the moderation surface: instance stats, account
// editing, and quest catalog management. Every route sits behind the
// admin-role middleware.
package admin

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"tapper/internal/game"
	"tapper/internal/player"
	"tapper/internal/quest"
	"tapper/internal/session"
)

type Handler struct {
	players  player.Repo
	catalog  quest.Repo
	sessions *session.Manager
	logger   *zap.Logger
}

func NewHandler(players player.Repo, catalog quest.Repo, sessions *session.Manager, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{players: players, catalog: catalog, sessions: sessions, logger: logger}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]any{"error": msg})
}

// Stats reports instance-wide counters.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	users, err := h.players.Count(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "stats unavailable")
		return
	}
	quests, err := h.catalog.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "stats unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"total_users":     users,
		"total_quests":    len(quests),
		"active_sessions": h.sessions.Active(),
	})
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.players.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "users unavailable")
		return
	}
	if users == nil {
		users = []player.User{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": users})
}

type userUpdateRequest struct {
	Role        string         `json:"role,omitempty"`
	Progression *game.Snapshot `json:"progression,omitempty"`
}

// UpdateUser edits an account's role and/or rewrites its progression.
// A progression rewrite also evicts the live session so the next command
// starts from the stored record.
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req userUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Role != "" {
		if req.Role != player.RoleUser && req.Role != player.RoleAdmin {
			writeError(w, http.StatusBadRequest, "unknown role")
			return
		}
		if err := h.players.SetRole(r.Context(), id, req.Role); err != nil {
			h.userUpdateError(w, err)
			return
		}
		h.logger.Info("role changed", zap.String("user_id", id), zap.String("role", req.Role))
	}

	if req.Progression != nil {
		// Normalize through the same path a session restore uses.
		st, err := game.FromSnapshot(*req.Progression)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		// Evict before writing: Drop would flush the live session's
		// stale state over the rewrite.
		h.sessions.Evict(id)
		if err := h.players.SaveProgression(r.Context(), id, st.Snapshot()); err != nil {
			h.userUpdateError(w, err)
			return
		}
		h.logger.Info("progression rewritten", zap.String("user_id", id))
	}

	u, err := h.players.ByID(r.Context(), id)
	if err != nil {
		h.userUpdateError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *Handler) userUpdateError(w http.ResponseWriter, err error) {
	if errors.Is(err, player.ErrNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, "user update failed")
}

func validQuest(q quest.Quest) error {
	switch {
	case strings.TrimSpace(q.ID) == "":
		return errors.New("quest id required")
	case strings.HasPrefix(q.ID, quest.DailyPrefix):
		return errors.New("quest id collides with the generated daily range")
	case strings.TrimSpace(q.Title) == "":
		return errors.New("quest title required")
	case q.ConditionType != quest.ConditionBalance && q.ConditionType != quest.ConditionClickPower:
		return errors.New("unknown condition type")
	case q.ConditionValue <= 0:
		return errors.New("condition value must be positive")
	case q.RewardAmount <= 0:
		return errors.New("reward amount must be positive")
	}
	return nil
}

// pushCatalog reloads the authored list and propagates it into every
// live session.
func (h *Handler) pushCatalog(r *http.Request) error {
	catalog, err := h.catalog.List(r.Context())
	if err != nil {
		return err
	}
	h.sessions.ReplaceCatalog(catalog)
	return nil
}

func (h *Handler) CreateQuest(w http.ResponseWriter, r *http.Request) {
	var q quest.Quest
	if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validQuest(q); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	err := h.catalog.Create(r.Context(), q)
	switch {
	case err == nil:
	case errors.Is(err, quest.ErrDuplicate):
		writeError(w, http.StatusConflict, err.Error())
		return
	default:
		writeError(w, http.StatusInternalServerError, "quest create failed")
		return
	}

	if err := h.pushCatalog(r); err != nil {
		writeError(w, http.StatusInternalServerError, "quest create failed")
		return
	}
	h.logger.Info("quest created", zap.String("quest_id", q.ID))
	writeJSON(w, http.StatusCreated, q)
}

func (h *Handler) UpdateQuest(w http.ResponseWriter, r *http.Request) {
	var q quest.Quest
	if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	q.ID = chi.URLParam(r, "id")
	if err := validQuest(q); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	err := h.catalog.Update(r.Context(), q)
	switch {
	case err == nil:
	case errors.Is(err, quest.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
		return
	default:
		writeError(w, http.StatusInternalServerError, "quest update failed")
		return
	}

	if err := h.pushCatalog(r); err != nil {
		writeError(w, http.StatusInternalServerError, "quest update failed")
		return
	}
	h.logger.Info("quest updated", zap.String("quest_id", q.ID))
	writeJSON(w, http.StatusOK, q)
}

func (h *Handler) DeleteQuest(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	err := h.catalog.Delete(r.Context(), id)
	switch {
	case err == nil:
	case errors.Is(err, quest.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
		return
	default:
		writeError(w, http.StatusInternalServerError, "quest delete failed")
		return
	}

	if err := h.pushCatalog(r); err != nil {
		writeError(w, http.StatusInternalServerError, "quest delete failed")
		return
	}
	h.logger.Info("quest deleted", zap.String("quest_id", id))
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}
