package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tapper/internal/chat"
	"tapper/internal/config"
	"tapper/internal/player"
	"tapper/internal/quest"
)

type testEnv struct {
	t       *testing.T
	ts      *httptest.Server
	players player.Repo
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	players := player.NewMemoryRepo()
	catalog := quest.NewMemoryRepo()
	require.NoError(t, quest.SeedDefaults(context.Background(), catalog))

	cfg := &config.Config{
		Addr:      ":0",
		Env:       "test",
		JWTSecret: "test_secret",
		Balance:   config.DefaultBalance(),
	}
	srv, err := New(Options{
		Config:  cfg,
		Players: players,
		Catalog: catalog,
		Chats:   chat.NewMemoryRepo(),
	})
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return &testEnv{t: t, ts: ts, players: players}
}

// do sends a JSON request and decodes the response into a generic map.
func (e *testEnv) do(method, path, token string, body any) (int, map[string]any) {
	e.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(e.t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, e.ts.URL+path, &buf)
	require.NoError(e.t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := e.ts.Client().Do(req)
	require.NoError(e.t, err)
	defer res.Body.Close()

	var decoded map[string]any
	_ = json.NewDecoder(res.Body).Decode(&decoded)
	return res.StatusCode, decoded
}

func (e *testEnv) register(username string) string {
	e.t.Helper()
	code, body := e.do(http.MethodPost, "/api/register", "", map[string]string{
		"username": username,
		"password": "secret123",
	})
	require.Equal(e.t, http.StatusCreated, code)
	token, _ := body["token"].(string)
	require.NotEmpty(e.t, token)
	return token
}

func TestServer_Health(t *testing.T) {
	env := newTestEnv(t)

	code, body := env.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["ok"])

	code, _ = env.do(http.MethodGet, "/readyz", "", nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestServer_RequiresBearer(t *testing.T) {
	env := newTestEnv(t)

	code, _ := env.do(http.MethodGet, "/api/game/state", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = env.do(http.MethodGet, "/api/game/state", "not-a-token", nil)
	assert.Equal(t, http.StatusForbidden, code)
}

func TestServer_TapAndUpgradeFlow(t *testing.T) {
	env := newTestEnv(t)
	token := env.register("alice")

	code, body := env.do(http.MethodGet, "/api/game/state", token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "0", body["balance"])
	assert.Equal(t, "10", body["upgrade_price"])

	for i := 0; i < 12; i++ {
		code, body = env.do(http.MethodPost, "/api/game/tap", token, map[string]int{"touches": 1})
		require.Equal(t, http.StatusOK, code)
	}
	assert.Equal(t, "12", body["balance"])
	assert.Equal(t, "1", body["earned"])

	code, body = env.do(http.MethodPost, "/api/game/upgrade", token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["purchased"])
	assert.Equal(t, "2", body["balance"])
	assert.Equal(t, float64(2), body["click_power"])

	// Too poor for the next one.
	code, body = env.do(http.MethodPost, "/api/game/upgrade", token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, false, body["purchased"])
	assert.Equal(t, "2", body["balance"])
}

func TestServer_SaveRebirthAndClaim(t *testing.T) {
	env := newTestEnv(t)
	token := env.register("bob")

	// Last write wins: the client may push a full snapshot.
	code, _ := env.do(http.MethodPost, "/api/save", token, map[string]any{
		"balance":     "100000",
		"click_power": 1,
		"rebirths":    0,
	})
	require.Equal(t, http.StatusOK, code)

	code, body := env.do(http.MethodPost, "/api/game/rebirth", token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(4), body["bought"])
	assert.Equal(t, "18750", body["balance"])
	assert.Equal(t, float64(5), body["rebirth_multiplier"])

	// 18750 clears the first_100 and rich_10k thresholds.
	code, body = env.do(http.MethodPost, "/api/game/claim", token, map[string]string{"quest_id": "first_100"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["claimed"])
	assert.Equal(t, "18800", body["balance"])

	// Claims are idempotent.
	code, body = env.do(http.MethodPost, "/api/game/claim", token, map[string]string{"quest_id": "first_100"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, false, body["claimed"])
	assert.Equal(t, "18800", body["balance"])

	code, _ = env.do(http.MethodPost, "/api/save", token, map[string]any{"balance": "NaN"})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestServer_QuestsAndLeaderboard(t *testing.T) {
	env := newTestEnv(t)
	token := env.register("carol")

	code, body := env.do(http.MethodGet, "/api/quests", token, nil)
	require.Equal(t, http.StatusOK, code)
	quests, _ := body["quests"].([]any)
	assert.Len(t, quests, 4)

	code, body = env.do(http.MethodGet, "/api/leaderboard", "", nil)
	require.Equal(t, http.StatusOK, code)
	rows, _ := body["leaderboard"].([]any)
	require.Len(t, rows, 1)
	row := rows[0].(map[string]any)
	assert.Equal(t, "carol", row["username"])
}

func TestServer_ProfileEndpoints(t *testing.T) {
	env := newTestEnv(t)
	token := env.register("dave")

	code, body := env.do(http.MethodGet, "/api/me", token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "dave", body["username"])

	code, body = env.do(http.MethodPut, "/api/profile", token, map[string]string{
		"username":   "david",
		"avatar_url": "data:image/png;base64,aGk=",
	})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "david", body["username"])

	code, _ = env.do(http.MethodPut, "/api/profile", token, map[string]string{
		"avatar_url": "data:image/png;base64," + strings.Repeat("A", 5<<20),
	})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = env.do(http.MethodPost, "/api/profile/password", token, map[string]string{
		"old_password": "secret123",
		"new_password": "evenmoresecret",
	})
	require.Equal(t, http.StatusOK, code)

	code, _ = env.do(http.MethodPost, "/api/login", "", map[string]string{
		"username": "david",
		"password": "evenmoresecret",
	})
	assert.Equal(t, http.StatusOK, code)

	code, _ = env.do(http.MethodPost, "/api/login", "", map[string]string{
		"username": "david",
		"password": "secret123",
	})
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestServer_ChatFlow(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register("alice")
	bob := env.register("bob")

	code, body := env.do(http.MethodPost, "/api/messages", alice, map[string]string{
		"receiver_username": "bob",
		"text":              "hi bob",
	})
	require.Equal(t, http.StatusCreated, code)
	bobID, _ := body["receiver_id"].(string)
	require.NotEmpty(t, bobID)

	code, body = env.do(http.MethodGet, "/api/chats", bob, nil)
	require.Equal(t, http.StatusOK, code)
	contacts, _ := body["contacts"].([]any)
	require.Len(t, contacts, 1)
	assert.Equal(t, "alice", contacts[0].(map[string]any)["username"])

	code, body = env.do(http.MethodGet, "/api/messages/"+bobID, alice, nil)
	require.Equal(t, http.StatusOK, code)
	msgs, _ := body["messages"].([]any)
	require.Len(t, msgs, 1)

	code, _ = env.do(http.MethodPost, "/api/chats/no-such-user/block", alice, nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = env.do(http.MethodPost, "/api/chats/"+bobID+"/block", alice, nil)
	require.Equal(t, http.StatusOK, code)

	code, _ = env.do(http.MethodPost, "/api/messages", alice, map[string]string{
		"receiver_id": bobID,
		"text":        "still there?",
	})
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = env.do(http.MethodPost, "/api/chats/"+bobID+"/unblock", alice, nil)
	require.Equal(t, http.StatusOK, code)

	code, _ = env.do(http.MethodPost, "/api/messages", alice, map[string]string{
		"receiver_id": bobID,
		"text":        "back again",
	})
	assert.Equal(t, http.StatusCreated, code)
}

func TestServer_AdminSurface(t *testing.T) {
	env := newTestEnv(t)
	token := env.register("eve")

	code, _ := env.do(http.MethodGet, "/api/admin/stats", token, nil)
	assert.Equal(t, http.StatusForbidden, code)

	// Promote through the store; the next request re-resolves the role.
	u, err := env.players.ByUsername(context.Background(), "eve")
	require.NoError(t, err)
	require.NoError(t, env.players.SetRole(context.Background(), u.ID, player.RoleAdmin))

	code, body := env.do(http.MethodGet, "/api/admin/stats", token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(1), body["total_users"])
	assert.Equal(t, float64(4), body["total_quests"])

	code, body = env.do(http.MethodPost, "/api/admin/quests", token, map[string]any{
		"id":              "billionaire",
		"title":           "Billionaire",
		"condition_type":  "balance",
		"condition_value": 1000000000,
		"reward_amount":   1000000,
	})
	require.Equal(t, http.StatusCreated, code, fmt.Sprint(body))

	code, body = env.do(http.MethodGet, "/api/quests", token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["quests"], 5)

	code, _ = env.do(http.MethodDelete, "/api/admin/quests/billionaire", token, nil)
	require.Equal(t, http.StatusOK, code)

	// A live session with unsaved taps must not clobber the rewrite.
	code, body = env.do(http.MethodPost, "/api/game/tap", token, map[string]int{"touches": 1})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "1", body["balance"])

	code, _ = env.do(http.MethodPut, "/api/admin/users/"+u.ID, token, map[string]any{
		"progression": map[string]any{"balance": "777", "click_power": 3, "rebirths": 0},
	})
	require.Equal(t, http.StatusOK, code)

	stored, err := env.players.ByID(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, "777", stored.Progression.Balance)

	code, body = env.do(http.MethodGet, "/api/game/state", token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "777", body["balance"])
	assert.Equal(t, float64(3), body["click_power"])
}
