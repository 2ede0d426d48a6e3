package player

import (
	"encoding/json"
	"net/http"
)

// Handler exposes the public ranked listing.
type Handler struct {
	repo Repo
}

func NewHandler(repo Repo) *Handler {
	return &Handler{repo: repo}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// Leaderboard lists the top accounts by balance, capped at
// LeaderboardLimit.
func (h *Handler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	rows, err := h.repo.Leaderboard(r.Context(), LeaderboardLimit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "leaderboard unavailable"})
		return
	}
	if rows == nil {
		rows = []LeaderboardRow{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"leaderboard": rows})
}
