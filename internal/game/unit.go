package game

import (
	"fmt"
	"math"

	"github.com/pefman/void-duel/internal/engine"
	"github.com/pefman/void-duel/internal/weapons"
)

// Side owns units and takes turns.
type Side int

const (
	PlayerSide Side = iota
	OpponentSide
)

func (s Side) String() string {
	if s == OpponentSide {
		return "opponent"
	}
	return "player"
}

// Other returns the opposing side.
func (s Side) Other() Side {
	if s == PlayerSide {
		return OpponentSide
	}
	return PlayerSide
}

func (s Side) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Side) UnmarshalText(b []byte) error {
	switch string(b) {
	case "player":
		*s = PlayerSide
	case "opponent":
		*s = OpponentSide
	default:
		return fmt.Errorf("unknown side %q", b)
	}
	return nil
}

// System is a subsystem a critical hit can degrade.
type System string

const (
	Engines System = "engines"
	Weapons System = "weapons"
	Shields System = "shields"
)

var criticalSystems = []System{Engines, Weapons, Shields}

// SystemsDamaged marks subsystems hit by criticals.
type SystemsDamaged struct {
	Engines bool `json:"engines"`
	Weapons bool `json:"weapons"`
	Shields bool `json:"shields"`
}

// Multipliers scale the damage of weapons mounted in each slot.
type Multipliers struct {
	Primary   float64 `json:"primary"`
	Secondary float64 `json:"secondary"`
}

// Unit is a ship's combat state.
type Unit struct {
	ID                 string
	Side               Side
	Pos                engine.Cell
	Angle              float64
	IsPlayerControlled bool
	Color              string
	HullClass          HullClass

	Hull            float64
	MaxHull         float64
	Shield          float64
	MaxShield       float64
	ShieldRegenRate float64
	Armor           float64
	Evasion         float64
	Speed           float64

	Damaged     SystemsDamaged
	Multipliers Multipliers
}

// NewUnit builds a unit with stock shields and the given hull class applied.
// An unknown class falls back to medium.
func NewUnit(id string, side Side, pos engine.Cell, class HullClass) *Unit {
	u := &Unit{
		ID:                 id,
		Side:               side,
		Pos:                pos,
		IsPlayerControlled: side == PlayerSide,
		Color:              "#ff0000",
		HullClass:          class,
		MaxShield:          100,
		Shield:             100,
		ShieldRegenRate:    5,
		Evasion:            0.1,
		Multipliers:        Multipliers{Primary: 1, Secondary: 1},
	}
	if side == PlayerSide {
		u.Color = "#00ff00"
	}
	if _, ok := class.Stats(); !ok {
		u.HullClass = Medium
	}
	u.applyHullClass()
	return u
}

func (u *Unit) applyHullClass() {
	s, _ := u.HullClass.Stats()
	u.MaxHull = s.MaxHull
	u.Hull = s.MaxHull
	u.Speed = s.Speed
	u.Armor = s.Armor
}

// ApplyDamage drains shields first. Damage that overflows the shield, or
// lands while shields are down, is reduced by armor before reaching the hull.
func (u *Unit) ApplyDamage(amount float64) {
	if amount <= 0 {
		return
	}
	if u.Shield > 0 {
		u.Shield -= amount
		if u.Shield < 0 {
			overflow := -u.Shield
			u.Shield = 0
			u.Hull -= math.Max(overflow-u.Armor, 0)
		}
	} else {
		u.Hull -= math.Max(amount-u.Armor, 0)
	}
	if u.Hull < 0 {
		u.Hull = 0
	}
}

// ApplyCriticalEffect degrades one uniformly chosen subsystem. Repeat hits
// on the same system compound.
func (u *Unit) ApplyCriticalEffect(rng engine.Source) System {
	sys := criticalSystems[rng.Intn(len(criticalSystems))]
	switch sys {
	case Engines:
		u.Damaged.Engines = true
		u.Speed *= 0.7
	case Weapons:
		u.Damaged.Weapons = true
		u.Multipliers.Primary *= 0.8
		u.Multipliers.Secondary *= 0.8
	case Shields:
		u.Damaged.Shields = true
		u.ShieldRegenRate = math.Max(1, u.ShieldRegenRate-2)
	}
	return sys
}

// RegenerateShields restores one round's worth of shield.
func (u *Unit) RegenerateShields() {
	if u.Shield < u.MaxShield {
		u.Shield = math.Min(u.MaxShield, u.Shield+u.ShieldRegenRate)
	}
}

func (u *Unit) IsDestroyed() bool { return u.Hull <= 0 }

// Armament returns w as fired by this unit: damage scaled by the slot
// multiplier.
func (u *Unit) Armament(w weapons.Weapon) weapons.Weapon {
	m := u.Multipliers.Primary
	if w.Slot == weapons.Secondary {
		m = u.Multipliers.Secondary
	}
	w.Damage *= m
	return w
}

// HullPct is hull as a percentage of max hull.
func (u *Unit) HullPct() float64 { return pct(u.Hull, u.MaxHull) }

// ShieldPct is shield as a percentage of max shield.
func (u *Unit) ShieldPct() float64 { return pct(u.Shield, u.MaxShield) }

func pct(v, max float64) float64 {
	if max <= 0 {
		return 0
	}
	return v / max * 100
}
