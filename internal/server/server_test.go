package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lanebattle/internal/auth"
	"lanebattle/internal/combat"
	"lanebattle/internal/config"
	"lanebattle/internal/match"
)

func init() { gin.SetMode(gin.TestMode) }

type fixture struct {
	srv *httptest.Server
	run *Runner
	hub *Hub
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := config.Default()
	cfg.Match.SurvivalSeconds = 0
	cfg.Match.PreparationSeconds = 600
	hub := NewHub(nil)
	ctl, err := match.New(cfg, hub.Publish, nil)
	require.NoError(t, err)
	run := NewRunner(ctl, 200, nil)

	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	go run.Run(ctx)
	srv := httptest.NewServer(NewRouter(run, hub, auth.NewIssuer("test-secret", time.Hour), nil))
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	require.Eventually(t, func() bool { return run.Snapshot().Phase == match.PhasePreparation },
		2*time.Second, 5*time.Millisecond)
	return &fixture{srv: srv, run: run, hub: hub}
}

func (f *fixture) call(t *testing.T, method, path, token string, body any) (int, map[string]any) {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, f.srv.URL+path, rd)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	out := map[string]any{}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

func (f *fixture) token(t *testing.T, team string) string {
	t.Helper()
	code, out := f.call(t, http.MethodPost, "/api/tokens", "", map[string]any{"team": team})
	require.Equal(t, http.StatusOK, code, out)
	tok, _ := out["token"].(string)
	require.NotEmpty(t, tok)
	return tok
}

func TestStateEndpoint(t *testing.T) {
	f := newFixture(t)
	code, out := f.call(t, http.MethodGet, "/api/state", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "preparation", out["phase"])
	assert.Equal(t, f.run.MatchID(), out["match_id"])
	assert.Len(t, out["structures"], 8)
}

func TestTokenValidation(t *testing.T) {
	f := newFixture(t)
	code, _ := f.call(t, http.MethodPost, "/api/tokens", "", map[string]any{"team": "p3"})
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = f.call(t, http.MethodPost, "/api/tokens", "", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestMutationsRequireToken(t *testing.T) {
	f := newFixture(t)
	body := map[string]any{"lane": "center", "slot": 0, "def": "footman"}
	code, _ := f.call(t, http.MethodPost, "/api/deploy", "", body)
	assert.Equal(t, http.StatusUnauthorized, code)
	code, _ = f.call(t, http.MethodPost, "/api/deploy", "garbage", body)
	assert.Equal(t, http.StatusUnauthorized, code)

	other := auth.NewIssuer("test-secret", time.Hour)
	foreign, err := other.Issue("another-match", combat.TeamP1, "")
	require.NoError(t, err)
	code, _ = f.call(t, http.MethodPost, "/api/deploy", foreign, body)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestDeployAndRemove(t *testing.T) {
	f := newFixture(t)
	tok := f.token(t, "p1")
	body := map[string]any{"lane": "center", "slot": 0, "def": "footman"}

	code, out := f.call(t, http.MethodPost, "/api/deploy", tok, body)
	require.Equal(t, http.StatusCreated, code, out)
	assert.EqualValues(t, 1, out["unit"])

	code, _ = f.call(t, http.MethodPost, "/api/deploy", tok, body)
	assert.Equal(t, http.StatusUnprocessableEntity, code, "occupied")

	code, _ = f.call(t, http.MethodPost, "/api/deploy", tok, map[string]any{"lane": "center", "slot": 1, "def": "dragon"})
	assert.Equal(t, http.StatusUnprocessableEntity, code)

	code, _ = f.call(t, http.MethodPost, "/api/deploy", tok, map[string]any{"lane": "middle", "slot": 0, "def": "footman"})
	assert.Equal(t, http.StatusBadRequest, code)

	require.Eventually(t, func() bool { return len(f.run.Snapshot().Slots) == 1 }, time.Second, 5*time.Millisecond)

	code, out = f.call(t, http.MethodDelete, "/api/deploy", tok, map[string]any{"lane": "center", "slot": 0})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, out["removed"])
	assert.Equal(t, "footman", out["def"])

	code, out = f.call(t, http.MethodDelete, "/api/deploy", tok, map[string]any{"lane": "center", "slot": 0})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, false, out["removed"])
}

func TestReadyStartsBattleThenRetreat(t *testing.T) {
	f := newFixture(t)
	p1, p2 := f.token(t, "p1"), f.token(t, "p2")

	code, _ := f.call(t, http.MethodPost, "/api/retreat", p1, nil)
	assert.Equal(t, http.StatusConflict, code, "no battle yet")

	code, _ = f.call(t, http.MethodPost, "/api/deploy", p1, map[string]any{"lane": "left", "slot": 0, "def": "footman"})
	require.Equal(t, http.StatusCreated, code)
	code, _ = f.call(t, http.MethodPost, "/api/deploy", p2, map[string]any{"lane": "left", "slot": 0, "def": "footman"})
	require.Equal(t, http.StatusCreated, code)

	code, out := f.call(t, http.MethodPost, "/api/ready", p1, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, out["ready"])
	code, _ = f.call(t, http.MethodPost, "/api/ready", p2, map[string]any{"ready": true})
	require.Equal(t, http.StatusOK, code)

	require.Eventually(t, func() bool { return f.run.Snapshot().Phase == match.PhaseBattle }, 2*time.Second, 5*time.Millisecond)
	code, _ = f.call(t, http.MethodPost, "/api/retreat", p1, nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestWebsocketStreamsEvents(t *testing.T) {
	f := newFixture(t)
	url := "ws" + strings.TrimPrefix(f.srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return f.hub.Clients() == 1 }, time.Second, 5*time.Millisecond)

	tok := f.token(t, "p2")
	code, _ := f.call(t, http.MethodPost, "/api/deploy", tok, map[string]any{"lane": "right", "slot": 3, "def": "scout"})
	require.Equal(t, http.StatusCreated, code)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	for {
		_, msg, err := conn.ReadMessage()
		require.NoError(t, err)
		var ev combat.Event
		require.NoError(t, json.Unmarshal(msg, &ev))
		if ev.Type == match.EvDeployed {
			assert.Equal(t, "p2", ev.Payload["team"])
			assert.Equal(t, "scout", ev.Payload["def"])
			return
		}
	}
}

func TestHubDropsWhenSaturated(t *testing.T) {
	h := NewHub(nil)
	for i := 0; i < cap(h.broadcast)+10; i++ {
		h.Publish(combat.Event{Type: "x"})
	}
	assert.EqualValues(t, 10, h.Dropped())
}
