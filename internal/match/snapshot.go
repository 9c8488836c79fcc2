package match

import (
	"github.com/pefman/void-duel/internal/engine"
	"github.com/pefman/void-duel/internal/game"
	"github.com/pefman/void-duel/internal/turn"
	"github.com/pefman/void-duel/internal/weapons"
)

// UnitView is the read-only rendering of a unit.
type UnitView struct {
	ID                 string              `json:"id"`
	Side               game.Side           `json:"side"`
	Pos                engine.Cell         `json:"pos"`
	Angle              float64             `json:"angle"`
	IsPlayerControlled bool                `json:"is_player_controlled"`
	Color              string              `json:"color"`
	HullClass          game.HullClass      `json:"hull_class"`
	Hull               float64             `json:"hull"`
	MaxHull            float64             `json:"max_hull"`
	Shield             float64             `json:"shield"`
	MaxShield          float64             `json:"max_shield"`
	ShieldRegenRate    float64             `json:"shield_regen_rate"`
	Armor              float64             `json:"armor"`
	Evasion            float64             `json:"evasion"`
	Speed              float64             `json:"speed"`
	Damaged            game.SystemsDamaged `json:"damaged"`
	Multipliers        game.Multipliers    `json:"multipliers"`
}

func viewOf(u *game.Unit) UnitView {
	return UnitView{
		ID:                 u.ID,
		Side:               u.Side,
		Pos:                u.Pos,
		Angle:              u.Angle,
		IsPlayerControlled: u.IsPlayerControlled,
		Color:              u.Color,
		HullClass:          u.HullClass,
		Hull:               u.Hull,
		MaxHull:            u.MaxHull,
		Shield:             u.Shield,
		MaxShield:          u.MaxShield,
		ShieldRegenRate:    u.ShieldRegenRate,
		Armor:              u.Armor,
		Evasion:            u.Evasion,
		Speed:              u.Speed,
		Damaged:            u.Damaged,
		Multipliers:        u.Multipliers,
	}
}

// Snapshot is a copy of the match state for rendering. Player is nil once
// the player's ship is destroyed.
type Snapshot struct {
	ID             string           `json:"id"`
	Scenario       string           `json:"scenario"`
	Phase          turn.Phase       `json:"phase"`
	ActiveSide     game.Side        `json:"active_side"`
	Round          int              `json:"round"`
	SelectedUnit   string           `json:"selected_unit,omitempty"`
	SelectedWeapon weapons.Type     `json:"selected_weapon"`
	Grid           engine.Grid      `json:"grid"`
	Player         *UnitView        `json:"player"`
	Opponents      []UnitView       `json:"opponents"`
	Catalog        []weapons.Weapon `json:"catalog"`
	Result         Result           `json:"result"`
	LastEvent      int              `json:"last_event"`
}

// State returns a snapshot of the match.
func (m *Match) State() Snapshot {
	s := Snapshot{
		ID:             m.id,
		Scenario:       m.scenario,
		Phase:          m.machine.Phase(),
		ActiveSide:     m.machine.Active(),
		Round:          m.round,
		SelectedUnit:   m.selected,
		SelectedWeapon: m.weapon,
		Grid:           m.grid,
		Opponents:      make([]UnitView, 0, m.opponents.Len()),
		Catalog:        m.catalog.List(),
		Result:         m.result,
		LastEvent:      m.log.last(),
	}
	if m.player != nil {
		v := viewOf(m.player)
		s.Player = &v
	}
	for _, u := range m.opponents.Units() {
		s.Opponents = append(s.Opponents, viewOf(u))
	}
	return s
}
