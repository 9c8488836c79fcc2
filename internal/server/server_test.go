package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pefman/void-duel/internal/match"
	"github.com/pefman/void-duel/internal/models"
	"github.com/pefman/void-duel/internal/stats"
	"github.com/pefman/void-duel/internal/turn"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	s := New(Options{Logger: zerolog.Nop(), Recorder: stats.NewMemory(), Seed: 7, Version: "test"})
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

func do(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, url, rd)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func createMatch(t *testing.T, base string, req any) match.Snapshot {
	t.Helper()
	resp := do(t, http.MethodPost, base+"/api/matches", req)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decodeBody[match.Snapshot](t, resp)
}

func TestHealthAndVersion(t *testing.T) {
	_, ts := newTestServer(t)

	resp := do(t, http.MethodGet, ts.URL+"/healthz", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = do(t, http.MethodGet, ts.URL+"/version", nil)
	v := decodeBody[models.Version](t, resp)
	assert.Equal(t, "test", v.Version)
}

func TestCatalog(t *testing.T) {
	_, ts := newTestServer(t)

	resp := do(t, http.MethodGet, ts.URL+"/api/catalog", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	cat := decodeBody[models.Catalog](t, resp)
	assert.Len(t, cat.Weapons, 5)
	assert.Equal(t, 150.0, cat.Hulls["heavy"].MaxHull)
}

func TestMatchLifecycle(t *testing.T) {
	s, ts := newTestServer(t)

	snap := createMatch(t, ts.URL, nil)
	require.NotEmpty(t, snap.ID)
	assert.Equal(t, turn.Movement, snap.Phase)
	assert.Equal(t, 1, s.sessions.Len())
	base := ts.URL + "/api/matches/" + snap.ID

	resp := do(t, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, snap.ID, decodeBody[match.Snapshot](t, resp).ID)

	resp = do(t, http.MethodPost, base+"/select", models.SelectRequest{Unit: "player"})
	act := decodeBody[models.ActionResponse](t, resp)
	assert.True(t, act.Applied)
	assert.Equal(t, "player", act.State.SelectedUnit)

	resp = do(t, http.MethodPost, base+"/move", models.MoveRequest{X: 9, Y: 5})
	act = decodeBody[models.ActionResponse](t, resp)
	assert.False(t, act.Applied, "four cells is too far")

	resp = do(t, http.MethodPost, base+"/move", models.MoveRequest{X: 4, Y: 4})
	act = decodeBody[models.ActionResponse](t, resp)
	assert.True(t, act.Applied)
	assert.Equal(t, 4, act.State.Player.Pos.X)

	resp = do(t, http.MethodPost, base+"/fire", models.FireRequest{Target: "enemy-1"})
	assert.False(t, decodeBody[models.ActionResponse](t, resp).Applied, "no firing during movement")

	resp = do(t, http.MethodPost, base+"/advance", nil)
	act = decodeBody[models.ActionResponse](t, resp)
	assert.True(t, act.Applied)
	assert.Equal(t, turn.Shooting, act.State.Phase)

	resp = do(t, http.MethodPost, base+"/weapon", models.WeaponRequest{Weapon: "torpedo"})
	assert.True(t, decodeBody[models.ActionResponse](t, resp).Applied)

	resp = do(t, http.MethodPost, base+"/fire", models.FireRequest{Target: "enemy-1"})
	act = decodeBody[models.ActionResponse](t, resp)
	assert.True(t, act.Applied)
	assert.Less(t, act.State.Opponents[0].Shield, 100.0)

	resp = do(t, http.MethodGet, base+"/log?since=1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	events := decodeBody[[]match.Event](t, resp)
	require.NotEmpty(t, events)
	assert.Equal(t, 2, events[0].Seq)

	resp = do(t, http.MethodDelete, base, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp = do(t, http.MethodGet, base, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, 0, s.sessions.Len())
}

func TestBadRequests(t *testing.T) {
	_, ts := newTestServer(t)
	snap := createMatch(t, ts.URL, nil)
	base := ts.URL + "/api/matches/" + snap.ID

	resp := do(t, http.MethodPost, ts.URL+"/api/matches/nope/advance", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	e := decodeBody[models.ErrorResponse](t, resp)
	assert.Equal(t, http.StatusNotFound, e.Status)
	assert.Contains(t, e.Message, "nope")

	resp = do(t, http.MethodPost, base+"/weapon", models.WeaponRequest{Weapon: "banana"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = do(t, http.MethodPost, base+"/customize", map[string]any{"hullType": "paper"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = do(t, http.MethodGet, base+"/log?since=-1", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = do(t, http.MethodPost, ts.URL+"/api/matches", map[string]any{
		"scenario": map[string]any{"player": map[string]any{"id": "player", "hull": "medium"}},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = do(t, http.MethodGet, ts.URL+"/api/results?limit=zero", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = do(t, http.MethodGet, ts.URL+"/nowhere", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestVictoryIsRecorded(t *testing.T) {
	_, ts := newTestServer(t)

	snap := createMatch(t, ts.URL, map[string]any{
		"scenario": map[string]any{
			"name":      "duel",
			"grid":      map[string]any{"width": 8, "height": 8},
			"player":    map[string]any{"id": "player", "x": 1, "y": 1, "hull": "medium"},
			"opponents": []any{map[string]any{"id": "scout", "x": 2, "y": 2, "hull": "light"}},
		},
	})
	assert.Equal(t, "duel", snap.Scenario)
	base := ts.URL + "/api/matches/" + snap.ID

	resp := do(t, http.MethodPost, base+"/customize", map[string]any{
		"color":                 "#ffffff",
		"hullType":              "medium",
		"shieldCapacity":        100,
		"shieldRegen":           5,
		"weaponDamagePrimary":   500,
		"weaponDamageSecondary": 25,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, decodeBody[models.ActionResponse](t, resp).Applied)

	do(t, http.MethodPost, base+"/advance", nil)
	resp = do(t, http.MethodPost, base+"/fire", models.FireRequest{Target: "scout"})
	act := decodeBody[models.ActionResponse](t, resp)
	require.True(t, act.Applied)
	assert.True(t, act.State.Result.Finished)
	assert.Equal(t, "player", act.State.Result.Winner)

	resp = do(t, http.MethodGet, ts.URL+"/api/results?limit=5", nil)
	recs := decodeBody[[]stats.MatchRecord](t, resp)
	require.Len(t, recs, 1)
	assert.Equal(t, snap.ID, recs[0].MatchID)
	assert.Equal(t, 175.0, recs[0].Weapons["laser"], "only the scout's shield and hull count")
	assert.Equal(t, 175.0, recs[0].DamageDealt)

	resp = do(t, http.MethodGet, ts.URL+"/leaderboard/daily", nil)
	board := decodeBody[models.DailyLeaderboard](t, resp)
	require.NotNil(t, board.TopAttack)
	assert.Equal(t, 175.0, board.TopAttack.Damage)
	assert.True(t, board.TopAttack.Destroyed)
}

func TestReap_DropsIdleAndFinishedMatches(t *testing.T) {
	s, ts := newTestServer(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	s.now = clock
	s.sessions.now = clock

	idle := createMatch(t, ts.URL, nil)
	busy := createMatch(t, ts.URL, nil)
	won := createMatch(t, ts.URL, map[string]any{
		"scenario": map[string]any{
			"player":    map[string]any{"x": 1, "y": 1},
			"opponents": []any{map[string]any{"id": "scout", "x": 2, "y": 2, "hull": "light"}},
		},
	})
	wonBase := ts.URL + "/api/matches/" + won.ID
	do(t, http.MethodPost, wonBase+"/customize", map[string]any{
		"hullType":              "medium",
		"shieldCapacity":        100,
		"shieldRegen":           5,
		"weaponDamagePrimary":   500,
		"weaponDamageSecondary": 25,
	})
	do(t, http.MethodPost, wonBase+"/advance", nil)
	resp := do(t, http.MethodPost, wonBase+"/fire", models.FireRequest{Target: "scout"})
	require.True(t, decodeBody[models.ActionResponse](t, resp).State.Result.Finished)

	assert.Zero(t, s.reap(), "nothing has been idle yet")

	now = now.Add(10 * time.Minute)
	do(t, http.MethodGet, ts.URL+"/api/matches/"+busy.ID, nil)
	assert.Equal(t, 1, s.reap(), "the finished match goes after its grace period")
	resp = do(t, http.MethodGet, wonBase, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	now = now.Add(25 * time.Minute)
	assert.Equal(t, 1, s.reap())
	resp = do(t, http.MethodGet, ts.URL+"/api/matches/"+idle.ID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp = do(t, http.MethodGet, ts.URL+"/api/matches/"+busy.ID, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, s.sessions.Len())
}

type wsIn struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func readWS(t *testing.T, c *websocket.Conn) wsIn {
	t.Helper()
	require.NoError(t, c.SetReadDeadline(time.Now().Add(5*time.Second)))
	var m wsIn
	require.NoError(t, c.ReadJSON(&m))
	return m
}

func TestWebsocket(t *testing.T) {
	s, ts := newTestServer(t)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	c, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)

	you := readWS(t, c)
	require.Equal(t, models.MsgYou, you.Type)
	var id map[string]string
	require.NoError(t, json.Unmarshal(you.Data, &id))
	require.NotEmpty(t, id["id"])

	assert.Equal(t, models.MsgState, readWS(t, c).Type)
	assert.Equal(t, models.MsgLog, readWS(t, c).Type)

	require.NoError(t, c.WriteJSON(models.ClientIn{Type: models.MsgAdvance}))
	st := readWS(t, c)
	require.Equal(t, models.MsgState, st.Type)
	var snap match.Snapshot
	require.NoError(t, json.Unmarshal(st.Data, &snap))
	assert.Equal(t, turn.Shooting, snap.Phase)

	lg := readWS(t, c)
	require.Equal(t, models.MsgLog, lg.Type)
	var events []match.Event
	require.NoError(t, json.Unmarshal(lg.Data, &events))
	require.Len(t, events, 1)
	assert.Equal(t, "Entering shooting phase.", events[0].Message)

	require.NoError(t, c.WriteJSON(models.ClientIn{Type: "dance"}))
	assert.Equal(t, models.MsgError, readWS(t, c).Type)

	resp := do(t, http.MethodGet, ts.URL+"/api/matches/"+id["id"], nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, c.Close())
	assert.Eventually(t, func() bool { return s.sessions.Len() == 0 }, 5*time.Second, 20*time.Millisecond)
}

func TestOriginAllowed(t *testing.T) {
	s := New(Options{Logger: zerolog.Nop(), AllowedOrigins: []string{"https://duel.example"}})

	req := httptest.NewRequest(http.MethodGet, "http://game.local/ws", nil)
	assert.True(t, s.originAllowed(req), "no origin header")

	req.Header.Set("Origin", "https://duel.example")
	assert.True(t, s.originAllowed(req))

	req.Header.Set("Origin", "http://localhost:3000")
	assert.True(t, s.originAllowed(req))

	req.Header.Set("Origin", "http://game.local")
	assert.True(t, s.originAllowed(req))

	req.Header.Set("Origin", "https://evil.example")
	assert.False(t, s.originAllowed(req))
}
