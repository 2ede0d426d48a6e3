package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"tapper/internal/player"
)

// Handler exposes account endpoints: register, login, the current
// account, and profile edits.
type Handler struct {
	svc     *Service
	players player.Repo
}

func NewHandler(svc *Service, players player.Repo) *Handler {
	return &Handler{svc: svc, players: players}
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string      `json:"token"`
	User  player.User `json:"user"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]any{"error": msg})
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	u, token, err := h.svc.Register(r.Context(), req.Username, req.Password)
	switch {
	case err == nil:
		writeJSON(w, http.StatusCreated, authResponse{Token: token, User: u})
	case errors.Is(err, player.ErrUsernameTaken):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, ErrCredentialsRequired),
		errors.Is(err, ErrPasswordTooShort),
		errors.Is(err, ErrUsernameTooLong):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "registration failed")
	}
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	u, token, err := h.svc.Login(r.Context(), req.Username, req.Password)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, authResponse{Token: token, User: u})
	case errors.Is(err, ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "login failed")
	}
}

// Me returns the account resolved by the bearer middleware.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	u, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "access denied")
		return
	}
	writeJSON(w, http.StatusOK, u)
}

type profileRequest struct {
	Username  string `json:"username"`
	AvatarURL string `json:"avatar_url"`
}

// UpdateProfile renames the account and/or replaces the avatar data URL.
// Omitted fields keep their current value.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	u, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "access denied")
		return
	}

	var req profileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	username := strings.TrimSpace(req.Username)
	if username == "" {
		username = u.Username
	}
	if len(username) > maxUsernameLen {
		writeError(w, http.StatusBadRequest, ErrUsernameTooLong.Error())
		return
	}
	avatar := req.AvatarURL
	if len(avatar) > player.MaxAvatarBytes {
		writeError(w, http.StatusBadRequest, "avatar too large")
		return
	}
	if avatar == "" {
		avatar = u.AvatarURL
	}

	err := h.players.UpdateProfile(r.Context(), u.ID, username, avatar)
	switch {
	case err == nil:
		updated, err := h.players.ByID(r.Context(), u.ID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "profile update failed")
			return
		}
		writeJSON(w, http.StatusOK, updated)
	case errors.Is(err, player.ErrUsernameTaken):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "profile update failed")
	}
}

type passwordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	u, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "access denied")
		return
	}

	var req passwordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	err := h.svc.ChangePassword(r.Context(), u.ID, req.OldPassword, req.NewPassword)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	case errors.Is(err, ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, ErrPasswordTooShort):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "password change failed")
	}
}
