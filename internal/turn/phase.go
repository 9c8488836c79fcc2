package turn

import (
	"fmt"

	"github.com/pefman/void-duel/internal/game"
)

// Phase is one step of a side's turn.
type Phase int

const (
	Movement Phase = iota
	Shooting
	Critical
	Boarding
)

var phaseNames = map[Phase]string{
	Movement: "movement",
	Shooting: "shooting",
	Critical: "critical",
	Boarding: "boarding",
}

func (p Phase) String() string {
	if s, ok := phaseNames[p]; ok {
		return s
	}
	return "unknown"
}

func (p Phase) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// Order is the phase cycle every side walks through.
var Order = []Phase{Movement, Shooting, Critical, Boarding}

// Transition describes one Advance.
type Transition struct {
	From, To    Phase
	Side        game.Side
	SideFlipped bool
}

// Machine tracks the current phase and the side allowed to act. It has no
// side effects of its own; the match reacts to each Transition.
type Machine struct {
	phases []Phase
	index  int
	active game.Side
}

// NewMachine starts at the first phase of Order with the player active.
func NewMachine() *Machine {
	return &Machine{phases: append([]Phase(nil), Order...), active: game.PlayerSide}
}

func (m *Machine) Phase() Phase { return m.phases[m.index] }

func (m *Machine) Active() game.Side { return m.active }

// Len is the number of phases in one side's turn.
func (m *Machine) Len() int { return len(m.phases) }

// Advance moves to the next phase. Wrapping back to the first phase hands
// the turn to the other side.
func (m *Machine) Advance() Transition {
	from := m.Phase()
	m.index = (m.index + 1) % len(m.phases)
	tr := Transition{From: from, To: m.Phase()}
	if m.index == 0 {
		m.active = m.active.Other()
		tr.SideFlipped = true
	}
	tr.Side = m.active
	return tr
}

func (p *Phase) UnmarshalText(b []byte) error {
	for ph, name := range phaseNames {
		if name == string(b) {
			*p = ph
			return nil
		}
	}
	return fmt.Errorf("unknown phase %q", b)
}
