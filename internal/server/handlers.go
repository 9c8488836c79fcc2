package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/pefman/void-duel/internal/engine"
	"github.com/pefman/void-duel/internal/game"
	"github.com/pefman/void-duel/internal/match"
	"github.com/pefman/void-duel/internal/models"
	"github.com/pefman/void-duel/internal/stats"
	"github.com/pefman/void-duel/internal/weapons"
)

const (
	maxBody        = 64 << 10
	defaultResults = 20
	maxResults     = 100
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(models.ErrorResponse{
		Error:   http.StatusText(code),
		Message: msg,
		Status:  code,
	})
}

// decode reads a JSON body into v. An empty body leaves v untouched.
func decode(r *http.Request, v any) error {
	err := json.NewDecoder(io.LimitReader(r.Body, maxBody)).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func (s *Server) session(w http.ResponseWriter, r *http.Request) (*Session, bool) {
	id := mux.Vars(r)["id"]
	sess, ok := s.sessions.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "match not found: "+id)
		return nil, false
	}
	return sess, true
}

// act applies one player action and answers with the resulting state.
func (s *Server) act(w http.ResponseWriter, r *http.Request, do func(m *match.Match) bool) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var resp models.ActionResponse
	sess.Do(func(m *match.Match) {
		resp.Applied = do(m)
		resp.State = m.State()
	})
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "matches": s.sessions.Len()})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.Version{Version: s.version, Time: s.built})
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.Catalog{
		Weapons: weapons.NewCatalog().List(),
		Hulls:   game.HullTable(),
	})
}

func (s *Server) handleCreateMatch(w http.ResponseWriter, r *http.Request) {
	var req models.NewMatchRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	sc := s.scenario
	if req.Scenario != nil {
		req.Scenario.Normalize()
		if err := req.Scenario.Validate(); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		sc = *req.Scenario
	}
	sess := s.newMatch(r.Context(), sc, req.Seed)
	var snap match.Snapshot
	sess.Do(func(m *match.Match) { snap = m.State() })
	writeJSON(w, http.StatusCreated, snap)
}

func (s *Server) handleGetMatch(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var snap match.Snapshot
	sess.Do(func(m *match.Match) { snap = m.State() })
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleDeleteMatch(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if !s.dropMatch(id) {
		writeError(w, http.StatusNotFound, "match not found: "+id)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMatchLog(w http.ResponseWriter, r *http.Request) {
	since := 0
	if v := r.URL.Query().Get("since"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "since must be a non-negative integer")
			return
		}
		since = n
	}
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var events []match.Event
	sess.Do(func(m *match.Match) { events = m.LogSince(since) })
	writeJSON(w, http.StatusOK, events)
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	var req models.SelectRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.act(w, r, func(m *match.Match) bool { return m.SelectUnit(req.Unit) })
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	var req models.MoveRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.act(w, r, func(m *match.Match) bool {
		return m.MoveSelectedUnit(engine.Cell{X: req.X, Y: req.Y})
	})
}

func (s *Server) handleWeapon(w http.ResponseWriter, r *http.Request) {
	var req models.WeaponRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	t, err := weapons.ParseType(req.Weapon)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.act(w, r, func(m *match.Match) bool { return m.SelectWeapon(t) })
}

func (s *Server) handleFire(w http.ResponseWriter, r *http.Request) {
	var req models.FireRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.act(w, r, func(m *match.Match) bool { return m.FireAt(req.Target) })
}

func (s *Server) handleAdvance(w http.ResponseWriter, r *http.Request) {
	s.act(w, r, func(m *match.Match) bool { return m.AdvancePhase() })
}

func (s *Server) handleCustomize(w http.ResponseWriter, r *http.Request) {
	var cfg game.CustomizationConfig
	if err := decode(r, &cfg); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := cfg.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.act(w, r, func(m *match.Match) bool { return m.Customize(cfg) })
}

func (s *Server) handleLeaderboardDaily(w http.ResponseWriter, r *http.Request) {
	now := s.now()
	out := models.DailyLeaderboard{Date: stats.DayKey(now)}
	top, ok, err := s.rec.DailyTop(r.Context(), now)
	if err != nil {
		s.log.Error().Err(err).Msg("daily leaderboard")
		writeError(w, http.StatusInternalServerError, "leaderboard unavailable")
		return
	}
	if ok {
		out.TopAttack = &top
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	limit := defaultResults
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxResults)
	}
	recs, err := s.rec.Recent(r.Context(), limit)
	if err != nil {
		s.log.Error().Err(err).Msg("list results")
		writeError(w, http.StatusInternalServerError, "results unavailable")
		return
	}
	writeJSON(w, http.StatusOK, recs)
}
