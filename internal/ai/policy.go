// Package ai holds the scripted opponent.
package ai

import (
	"github.com/pefman/void-duel/internal/engine"
	"github.com/pefman/void-duel/internal/game"
	"github.com/pefman/void-duel/internal/weapons"
)

// Battlefield is what a policy may observe and do during its turn.
type Battlefield interface {
	// Player returns the human unit, or nil once it is destroyed.
	Player() *game.Unit
	// Opponents returns the living opponent units in fleet order.
	Opponents() []*game.Unit
	Weapon(t weapons.Type) (weapons.Weapon, bool)
	MoveUnit(u *game.Unit, to engine.Cell)
	Fire(attacker, target *game.Unit, t weapons.Type) game.AttackOutcome
}

// Policy plays one full opponent turn.
type Policy interface {
	TakeTurn(b Battlefield)
}

// Chaser closes one cell per turn on each axis toward the player and fires
// its weapon whenever the player is in range after moving.
type Chaser struct {
	Weapon weapons.Type
}

// NewChaser returns the stock opponent armed with the default weapon.
func NewChaser() *Chaser { return &Chaser{Weapon: weapons.Default} }

func (c *Chaser) TakeTurn(b Battlefield) {
	w, ok := b.Weapon(c.Weapon)
	if !ok {
		return
	}
	for _, u := range b.Opponents() {
		p := b.Player()
		if p == nil {
			return
		}
		b.MoveUnit(u, engine.StepToward(u.Pos, p.Pos))
		if engine.InRange(u.Pos, p.Pos, w.Range) {
			b.Fire(u, p, c.Weapon)
		}
	}
}
