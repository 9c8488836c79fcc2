// Package scenario loads starting layouts for a match.
package scenario

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pefman/void-duel/internal/engine"
	"github.com/pefman/void-duel/internal/game"
)

// Ship is one starting unit.
type Ship struct {
	ID   string `yaml:"id" json:"id"`
	X    int    `yaml:"x" json:"x"`
	Y    int    `yaml:"y" json:"y"`
	Hull string `yaml:"hull" json:"hull"`
}

func (s Ship) Cell() engine.Cell { return engine.Cell{X: s.X, Y: s.Y} }

// Scenario is a grid plus both starting fleets.
type Scenario struct {
	Name      string      `yaml:"name" json:"name"`
	Grid      engine.Grid `yaml:"grid" json:"grid"`
	Player    Ship        `yaml:"player" json:"player"`
	Opponents []Ship      `yaml:"opponents" json:"opponents"`
}

// Default is the stock engagement: one player ship against two raiders.
func Default() Scenario {
	return Scenario{
		Name:   "default",
		Grid:   engine.Grid{Width: 16, Height: 12},
		Player: Ship{ID: "player", X: 5, Y: 5, Hull: string(game.Medium)},
		Opponents: []Ship{
			{ID: "enemy-1", X: 2, Y: 2, Hull: string(game.Medium)},
			{ID: "enemy-2", X: 8, Y: 2, Hull: string(game.Medium)},
		},
	}
}

// Load reads and validates a scenario file.
func Load(path string) (Scenario, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Scenario{}, fmt.Errorf("read scenario %s: %w", path, err)
	}
	return Parse(b)
}

// Parse decodes YAML and validates the normalized result.
func Parse(b []byte) (Scenario, error) {
	var s Scenario
	if err := yaml.Unmarshal(b, &s); err != nil {
		return Scenario{}, fmt.Errorf("decode scenario: %w", err)
	}
	s.Normalize()
	if err := s.Validate(); err != nil {
		return Scenario{}, err
	}
	return s, nil
}

// Normalize fills in omitted ids and hull types.
func (s *Scenario) Normalize() {
	if s.Player.ID == "" {
		s.Player.ID = "player"
	}
	if s.Player.Hull == "" {
		s.Player.Hull = string(game.Medium)
	}
	for i := range s.Opponents {
		if s.Opponents[i].Hull == "" {
			s.Opponents[i].Hull = string(game.Medium)
		}
		if s.Opponents[i].ID == "" {
			s.Opponents[i].ID = fmt.Sprintf("enemy-%d", i+1)
		}
	}
}

// Validate rejects layouts a match cannot start from.
func (s Scenario) Validate() error {
	var errs []error
	if len(s.Opponents) == 0 {
		errs = append(errs, errors.New("scenario has no opponents"))
	}
	seen := map[string]bool{}
	for _, sh := range append([]Ship{s.Player}, s.Opponents...) {
		if seen[sh.ID] {
			errs = append(errs, fmt.Errorf("duplicate ship id %q", sh.ID))
		}
		seen[sh.ID] = true
		if _, err := game.ParseHullClass(sh.Hull); err != nil {
			errs = append(errs, fmt.Errorf("ship %q: %w", sh.ID, err))
		}
		if !s.Grid.Contains(sh.Cell()) {
			errs = append(errs, fmt.Errorf("ship %q at %s is off the grid", sh.ID, sh.Cell()))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid scenario %q: %w", s.Name, err)
	}
	return nil
}

// Units builds fresh units for a match.
func (s Scenario) Units() (*game.Unit, []*game.Unit) {
	mk := func(sh Ship, side game.Side) *game.Unit {
		h, _ := game.ParseHullClass(sh.Hull)
		return game.NewUnit(sh.ID, side, sh.Cell(), h)
	}
	player := mk(s.Player, game.PlayerSide)
	opps := make([]*game.Unit, 0, len(s.Opponents))
	for _, sh := range s.Opponents {
		opps = append(opps, mk(sh, game.OpponentSide))
	}
	return player, opps
}
