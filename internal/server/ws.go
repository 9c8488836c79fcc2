package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pefman/void-duel/internal/engine"
	"github.com/pefman/void-duel/internal/game"
	"github.com/pefman/void-duel/internal/match"
	"github.com/pefman/void-duel/internal/models"
	"github.com/pefman/void-duel/internal/weapons"
)

const (
	wsReadTimeout = 5 * time.Minute
	wsReadLimit   = 64 << 10
)

// originAllowed accepts same-host, localhost and configured origins.
func (s *Server) originAllowed(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, o := range s.origins {
		if o == "*" || strings.EqualFold(o, origin) {
			return true
		}
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if u.Host == r.Host {
		return true
	}
	switch u.Hostname() {
	case "localhost", "127.0.0.1":
		return true
	}
	s.log.Warn().Str("origin", origin).Msg("ws: rejected origin")
	return false
}

// wsConn is one browser connection and the match it owns. Only the reader
// goroutine writes to conn.
type wsConn struct {
	conn    *websocket.Conn
	sess    *Session
	id      string
	lastLog int
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{CheckOrigin: s.originAllowed}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Str("from", r.RemoteAddr).Msg("ws: upgrade failed")
		return
	}
	sess := s.newMatch(r.Context(), s.scenario, 0)
	c := &wsConn{conn: conn, sess: sess}
	sess.Do(func(m *match.Match) { c.id = m.ID() })
	s.log.Info().Str("match", c.id).Str("from", r.RemoteAddr).Msg("ws: connect")

	c.send(models.WsMsg{Type: models.MsgYou, Data: map[string]string{"id": c.id}})
	c.push()
	go s.wsReader(c)
}

func (s *Server) wsReader(c *wsConn) {
	defer func() {
		_ = c.conn.Close()
		s.dropMatch(c.id)
		s.log.Info().Str("match", c.id).Msg("ws: closed")
	}()
	c.conn.SetReadLimit(wsReadLimit)
	for {
		_ = c.conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
		var in models.ClientIn
		if err := c.conn.ReadJSON(&in); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Warn().Err(err).Str("match", c.id).Msg("ws: read error")
			}
			return
		}
		s.log.Debug().Str("match", c.id).Str("type", in.Type).Msg("ws: recv")

		var err error
		c.sess.Do(func(m *match.Match) { _, err = apply(m, in) })
		if err != nil {
			c.send(models.WsMsg{Type: models.MsgError, Data: err.Error()})
			continue
		}
		c.push()
	}
}

// apply runs one client message against m.
func apply(m *match.Match, in models.ClientIn) (bool, error) {
	switch in.Type {
	case models.MsgSelect:
		var req models.SelectRequest
		if err := json.Unmarshal(in.Data, &req); err != nil {
			return false, fmt.Errorf("bad %s payload: %w", in.Type, err)
		}
		return m.SelectUnit(req.Unit), nil
	case models.MsgMove:
		var req models.MoveRequest
		if err := json.Unmarshal(in.Data, &req); err != nil {
			return false, fmt.Errorf("bad %s payload: %w", in.Type, err)
		}
		return m.MoveSelectedUnit(engine.Cell{X: req.X, Y: req.Y}), nil
	case models.MsgWeapon:
		var req models.WeaponRequest
		if err := json.Unmarshal(in.Data, &req); err != nil {
			return false, fmt.Errorf("bad %s payload: %w", in.Type, err)
		}
		t, err := weapons.ParseType(req.Weapon)
		if err != nil {
			return false, err
		}
		return m.SelectWeapon(t), nil
	case models.MsgFire:
		var req models.FireRequest
		if err := json.Unmarshal(in.Data, &req); err != nil {
			return false, fmt.Errorf("bad %s payload: %w", in.Type, err)
		}
		return m.FireAt(req.Target), nil
	case models.MsgAdvance:
		return m.AdvancePhase(), nil
	case models.MsgCustomize:
		var cfg game.CustomizationConfig
		if err := json.Unmarshal(in.Data, &cfg); err != nil {
			return false, fmt.Errorf("bad %s payload: %w", in.Type, err)
		}
		if err := cfg.Validate(); err != nil {
			return false, err
		}
		return m.Customize(cfg), nil
	case models.MsgState:
		return false, nil
	}
	return false, fmt.Errorf("unknown message type %q", in.Type)
}

// push sends the current state and any events the client has not seen.
func (c *wsConn) push() {
	var (
		snap   match.Snapshot
		events []match.Event
	)
	c.sess.Do(func(m *match.Match) {
		snap = m.State()
		events = m.LogSince(c.lastLog)
	})
	c.send(models.WsMsg{Type: models.MsgState, Data: snap})
	if len(events) > 0 {
		c.lastLog = events[len(events)-1].Seq
		c.send(models.WsMsg{Type: models.MsgLog, Data: events})
	}
}

func (c *wsConn) send(m models.WsMsg) {
	_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	_ = c.conn.WriteJSON(m)
}
