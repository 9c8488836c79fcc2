package game

import "github.com/pefman/void-duel/internal/weapons"

// NarrationKind classifies a narrated line for the log panel.
type NarrationKind string

const (
	KindSystem   NarrationKind = "system"
	KindShield   NarrationKind = "shield"
	KindHit      NarrationKind = "hit"
	KindCritical NarrationKind = "critical"
)

// Narration is one line of combat narration.
type Narration struct {
	Kind    NarrationKind `json:"kind"`
	Message string        `json:"message"`
}

// OutcomeKind says which layer an attack registered on.
type OutcomeKind string

const (
	ShieldHit OutcomeKind = "shield_hit"
	HullHit   OutcomeKind = "hull_hit"
)

// AttackOutcome is the immutable record of one resolved attack. Before and
// After hold the shield values for a shield hit and hull values otherwise.
type AttackOutcome struct {
	Kind       OutcomeKind  `json:"kind"`
	AttackerID string       `json:"attacker"`
	TargetID   string       `json:"target"`
	TargetSide Side         `json:"target_side"`
	Weapon     weapons.Type `json:"weapon"`
	Damage     float64      `json:"damage"`
	Before     float64      `json:"before"`
	After      float64      `json:"after"`
	BeforePct  float64      `json:"before_pct"`
	AfterPct   float64      `json:"after_pct"`
	// HullLost counts hull removed by this attack, whatever the kind.
	HullLost float64 `json:"hull_lost"`
	// Applied is the shield and hull actually removed. Armor and overkill
	// make it smaller than Damage.
	Applied   float64     `json:"applied"`
	Critical  bool        `json:"critical"`
	System    System      `json:"system,omitempty"`
	Destroyed bool        `json:"destroyed"`
	Logs      []Narration `json:"logs"`
}
