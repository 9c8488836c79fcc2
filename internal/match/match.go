// Package match runs one player-versus-opponent engagement: the turn cycle,
// player actions, the scripted opponent turn and the narrated event log.
//
// A Match is not safe for concurrent use; callers serialize access.
package match

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pefman/void-duel/internal/ai"
	"github.com/pefman/void-duel/internal/engine"
	"github.com/pefman/void-duel/internal/game"
	"github.com/pefman/void-duel/internal/scenario"
	"github.com/pefman/void-duel/internal/turn"
	"github.com/pefman/void-duel/internal/weapons"
)

// MaxMove is the furthest a ship may move in one movement phase, in
// Manhattan grid cells.
const MaxMove = 3

// Observer is told about every resolved attack and about the end of the
// match. Calls happen synchronously under the caller's lock.
type Observer interface {
	AttackResolved(matchID string, out game.AttackOutcome)
	MatchFinished(matchID string, res Result)
}

// Result is the match outcome. Winner is empty while the match runs.
type Result struct {
	Finished    bool      `json:"finished"`
	Winner      string    `json:"winner,omitempty"`
	Rounds      int       `json:"rounds"`
	DamageDealt float64   `json:"damage_dealt"`
	DamageTaken float64   `json:"damage_taken"`
	Criticals   int       `json:"criticals"`
	EndedAt     time.Time `json:"ended_at"`
}

type Match struct {
	id       string
	scenario string
	machine  *turn.Machine
	grid     engine.Grid
	catalog  *weapons.Catalog

	player    *game.Unit
	opponents *game.Fleet
	selected  string
	weapon    weapons.Type

	round  int
	result Result
	log    eventLog

	rng       engine.Source
	policy    ai.Policy
	logger    zerolog.Logger
	observers []Observer
	now       func() time.Time
}

type Option func(*Match)

// WithRNG sets the randomness source. The default is seeded from the clock.
func WithRNG(src engine.Source) Option { return func(m *Match) { m.rng = src } }

func WithPolicy(p ai.Policy) Option { return func(m *Match) { m.policy = p } }

func WithLogger(l zerolog.Logger) Option { return func(m *Match) { m.logger = l } }

func WithObserver(o Observer) Option {
	return func(m *Match) {
		if o != nil {
			m.observers = append(m.observers, o)
		}
	}
}

func WithID(id string) Option { return func(m *Match) { m.id = id } }

func WithClock(now func() time.Time) Option { return func(m *Match) { m.now = now } }

// New starts a match from sc at the player's first movement phase.
func New(sc scenario.Scenario, opts ...Option) *Match {
	m := &Match{
		id:        uuid.NewString(),
		scenario:  sc.Name,
		machine:   turn.NewMachine(),
		grid:      sc.Grid,
		catalog:   weapons.NewCatalog(),
		weapon:    weapons.Default,
		round:     1,
		rng:       engine.NewRNG(0),
		policy:    ai.NewChaser(),
		logger:    zerolog.Nop(),
		now:       time.Now,
	}
	for _, o := range opts {
		o(m)
	}
	m.log.now = m.now
	m.logger = m.logger.With().Str("match", m.id).Logger()

	player, opps := sc.Units()
	m.player = player
	m.opponents = game.NewFleet(opps...)

	m.narrate(game.KindSystem, "Battle stations! Your turn, commander.")
	m.logger.Debug().Str("scenario", sc.Name).Int("opponents", len(opps)).Msg("match started")
	return m
}

func (m *Match) ID() string { return m.id }

// Result returns the outcome so far.
func (m *Match) Result() Result { return m.result }

// Log returns every event so far.
func (m *Match) Log() []Event { return m.log.since(0) }

// LogSince returns the events newer than seq.
func (m *Match) LogSince(seq int) []Event { return m.log.since(seq) }

func (m *Match) Over() bool { return m.result.Finished }

func (m *Match) narrate(kind game.NarrationKind, msg string) {
	m.log.append(kind, msg)
}

func (m *Match) playerTurn() bool {
	return !m.result.Finished && m.player != nil && m.machine.Active() == game.PlayerSide
}

// SelectUnit selects one of the player's ships during the player's
// movement phase.
func (m *Match) SelectUnit(id string) bool {
	if !m.playerTurn() || m.machine.Phase() != turn.Movement {
		return false
	}
	if id != m.player.ID {
		return false
	}
	m.selected = id
	return true
}

// MoveSelectedUnit moves the selected ship up to MaxMove cells and clears
// the selection.
func (m *Match) MoveSelectedUnit(to engine.Cell) bool {
	if !m.playerTurn() || m.machine.Phase() != turn.Movement || m.selected == "" {
		return false
	}
	u := m.player
	if u.ID != m.selected {
		return false
	}
	if engine.Manhattan(u.Pos, to) > MaxMove || !m.grid.Contains(to) {
		return false
	}
	from := u.Pos
	m.relocate(u, to)
	m.selected = ""
	m.narrate(game.KindSystem, fmt.Sprintf("Ship moved from %s to %s.", from, to))
	return true
}

// SelectWeapon arms the player's weapon for subsequent shots.
func (m *Match) SelectWeapon(t weapons.Type) bool {
	if !m.playerTurn() {
		return false
	}
	w, ok := m.catalog.Get(t)
	if !ok {
		return false
	}
	m.weapon = t
	msg := w.Armed
	if msg == "" {
		msg = fmt.Sprintf("%s armed.", w.Name)
	}
	m.narrate(game.KindSystem, msg)
	return true
}

// FireAt shoots the selected weapon at a living opponent within range.
func (m *Match) FireAt(targetID string) bool {
	if !m.playerTurn() || m.machine.Phase() != turn.Shooting {
		return false
	}
	target, ok := m.opponents.Get(targetID)
	if !ok {
		return false
	}
	w, ok := m.catalog.Get(m.weapon)
	if !ok || !engine.InRange(m.player.Pos, target.Pos, w.Range) {
		return false
	}
	m.resolve(m.player, target, w)
	return true
}

// Customize refits the player's ship. The primary and secondary damage
// values replace the laser and torpedo damage in this match's catalog.
func (m *Match) Customize(cfg game.CustomizationConfig) bool {
	if !m.playerTurn() {
		return false
	}
	if err := cfg.Validate(); err != nil {
		m.logger.Debug().Err(err).Msg("customization rejected")
		return false
	}
	m.player.ApplyCustomization(cfg)
	m.catalog.Override(weapons.Laser, cfg.WeaponDamagePrimary)
	m.catalog.Override(weapons.Torpedo, cfg.WeaponDamageSecondary)
	m.narrate(game.KindSystem, fmt.Sprintf("Ship refitted: %s hull, shields %.0f.", m.player.HullClass, m.player.MaxShield))
	return true
}

// AdvancePhase ends the current phase. The critical phase resolves on
// entry. Handing the turn to the opponent plays its whole turn before
// returning, so the player always gets control back in their own movement
// phase unless the match has ended.
func (m *Match) AdvancePhase() bool {
	if !m.playerTurn() {
		return false
	}
	tr := m.step()
	if tr.SideFlipped && tr.Side == game.OpponentSide {
		m.opponentTurn()
	}
	return true
}

func (m *Match) opponentTurn() {
	m.policy.TakeTurn(m)
	for i := 0; i < m.machine.Len() && !m.result.Finished; i++ {
		if m.machine.Active() == game.PlayerSide {
			return
		}
		m.step()
	}
}

// step performs one machine transition plus its side effects.
func (m *Match) step() turn.Transition {
	tr := m.machine.Advance()
	m.selected = ""
	m.logger.Debug().Stringer("from", tr.From).Stringer("to", tr.To).Stringer("side", tr.Side).Msg("phase advanced")

	if tr.SideFlipped {
		if tr.Side == game.PlayerSide {
			m.round++
			m.regenerate()
			m.narrate(game.KindSystem, "Your turn, commander.")
		} else {
			m.narrate(game.KindSystem, "Enemy turn beginning.")
		}
	}
	if tr.To == turn.Critical {
		m.narrate(game.KindSystem, "Resolving critical system damage...")
		return m.step()
	}
	m.narrate(game.KindSystem, fmt.Sprintf("Entering %s phase.", tr.To))
	return tr
}

func (m *Match) regenerate() {
	if m.player != nil {
		m.player.RegenerateShields()
	}
	for _, u := range m.opponents.Units() {
		u.RegenerateShields()
	}
}

func (m *Match) relocate(u *game.Unit, to engine.Cell) {
	if u.Pos != to {
		u.Angle = engine.Heading(u.Pos, to)
	}
	u.Pos = to
}

func (m *Match) resolve(attacker, target *game.Unit, w weapons.Weapon) game.AttackOutcome {
	var owner game.Remover = m.opponents
	if target.Side == game.PlayerSide {
		owner = playerSlot{m}
	}
	out := game.ResolveAttack(m.rng, attacker, target, attacker.Armament(w), owner)
	for _, n := range out.Logs {
		m.narrate(n.Kind, n.Message)
	}
	if attacker.Side == game.PlayerSide {
		m.result.DamageDealt += out.Applied
		if out.Critical {
			m.result.Criticals++
		}
	} else {
		m.result.DamageTaken += out.Applied
	}
	m.logger.Debug().
		Str("attacker", out.AttackerID).
		Str("target", out.TargetID).
		Stringer("weapon", out.Weapon).
		Float64("damage", out.Damage).
		Float64("applied", out.Applied).
		Bool("critical", out.Critical).
		Bool("destroyed", out.Destroyed).
		Msg("attack resolved")
	for _, o := range m.observers {
		o.AttackResolved(m.id, out)
	}
	m.checkOver()
	return out
}

func (m *Match) checkOver() {
	if m.result.Finished {
		return
	}
	switch {
	case m.player == nil:
		m.result.Winner = game.OpponentSide.String()
		m.narrate(game.KindSystem, "Defeat. Your fleet has been lost.")
	case m.opponents.Len() == 0:
		m.result.Winner = game.PlayerSide.String()
		m.narrate(game.KindSystem, "Victory! All enemy vessels destroyed.")
	default:
		return
	}
	m.result.Finished = true
	m.result.Rounds = m.round
	m.result.EndedAt = m.now().UTC()
	m.selected = ""
	m.logger.Info().Str("winner", m.result.Winner).Int("rounds", m.round).Msg("match finished")
	for _, o := range m.observers {
		o.MatchFinished(m.id, m.result)
	}
}

// playerSlot removes the player's ship when it is destroyed.
type playerSlot struct{ m *Match }

func (p playerSlot) Remove(id string) bool {
	if p.m.player == nil || p.m.player.ID != id {
		return false
	}
	p.m.player = nil
	return true
}

// Battlefield, as seen by the opponent policy.

func (m *Match) Player() *game.Unit { return m.player }

func (m *Match) Opponents() []*game.Unit { return m.opponents.Units() }

func (m *Match) Weapon(t weapons.Type) (weapons.Weapon, bool) { return m.catalog.Get(t) }

func (m *Match) MoveUnit(u *game.Unit, to engine.Cell) {
	if !m.grid.Contains(to) || u.Pos == to {
		return
	}
	from := u.Pos
	m.relocate(u, to)
	m.narrate(game.KindSystem, fmt.Sprintf("Enemy moved from %s to %s.", from, to))
}

func (m *Match) Fire(attacker, target *game.Unit, t weapons.Type) game.AttackOutcome {
	w, ok := m.catalog.Get(t)
	if !ok || m.result.Finished {
		return game.AttackOutcome{}
	}
	m.narrate(game.KindSystem, "Enemy vessel opening fire!")
	return m.resolve(attacker, target, w)
}

var _ ai.Battlefield = (*Match)(nil)
