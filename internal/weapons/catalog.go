package weapons

import (
	"fmt"
	"sort"
	"strings"
)

// Type tags a weapon archetype.
type Type int

const (
	Laser Type = iota
	Torpedo
	Plasma
	Railgun
	Missile
)

var typeNames = map[Type]string{
	Laser:   "laser",
	Torpedo: "torpedo",
	Plasma:  "plasma",
	Railgun: "railgun",
	Missile: "missile",
}

func (t Type) String() string {
	if s, ok := typeNames[t]; ok {
		return s
	}
	return "unknown"
}

// ParseType maps a name like "Torpedo" to its Type.
func ParseType(s string) (Type, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for t, name := range typeNames {
		if name == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown weapon type %q", s)
}

func (t Type) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *Type) UnmarshalText(b []byte) error {
	v, err := ParseType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// Slot is the hardpoint a weapon draws its damage multiplier from.
type Slot int

const (
	Primary Slot = iota
	Secondary
)

func (s Slot) String() string {
	if s == Secondary {
		return "secondary"
	}
	return "primary"
}

func (s Slot) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Slot) UnmarshalText(b []byte) error {
	switch string(b) {
	case "primary":
		*s = Primary
	case "secondary":
		*s = Secondary
	default:
		return fmt.Errorf("unknown slot %q", b)
	}
	return nil
}

// Weapon is an immutable archetype. Range is in grid cells.
type Weapon struct {
	Type       Type    `json:"type"`
	Name       string  `json:"name"`
	Damage     float64 `json:"damage"`
	Speed      float64 `json:"speed"`
	Range      float64 `json:"range"`
	CritChance float64 `json:"crit_chance"`
	Accuracy   float64 `json:"accuracy"`
	AreaEffect float64 `json:"area_effect"`
	Slot       Slot    `json:"slot"`
	// Armed is narrated when the weapon is selected.
	Armed string `json:"-"`
}

var defaults = []Weapon{
	{Type: Laser, Name: "Macro batteries", Damage: 10, Speed: 6, Range: 8, CritChance: 0.1, Accuracy: 1, Slot: Primary,
		Armed: "Macro batteries armed and ready."},
	{Type: Torpedo, Name: "Torpedo", Damage: 25, Speed: 4, Range: 12, CritChance: 0.2, Accuracy: 1, Slot: Secondary,
		Armed: "Torpedo tubes loaded and ready to fire."},
	{Type: Plasma, Name: "Plasma lance", Damage: 18, Speed: 5, Range: 6, CritChance: 0.15, Accuracy: 1, Slot: Primary,
		Armed: "Plasma lance charged."},
	{Type: Railgun, Name: "Railgun", Damage: 30, Speed: 9, Range: 14, CritChance: 0.05, Accuracy: 1, Slot: Primary,
		Armed: "Railgun capacitors at full charge."},
	{Type: Missile, Name: "Missile rack", Damage: 20, Speed: 5, Range: 10, CritChance: 0.25, Accuracy: 1, Slot: Secondary,
		Armed: "Missile racks primed."},
}

// Default is the weapon the scripted opponent fires.
const Default = Laser

// Catalog holds the archetypes for one match. Only damage can change after
// construction, through Override.
type Catalog struct {
	byType map[Type]Weapon
}

// NewCatalog returns the stock catalog.
func NewCatalog() *Catalog {
	c := &Catalog{byType: make(map[Type]Weapon, len(defaults))}
	for _, w := range defaults {
		c.byType[w.Type] = w
	}
	return c
}

// Get returns a copy of the archetype.
func (c *Catalog) Get(t Type) (Weapon, bool) {
	w, ok := c.byType[t]
	return w, ok
}

// Override replaces the base damage of one archetype.
func (c *Catalog) Override(t Type, damage float64) bool {
	w, ok := c.byType[t]
	if !ok || damage <= 0 {
		return false
	}
	w.Damage = damage
	c.byType[t] = w
	return true
}

// List returns every archetype ordered by type.
func (c *Catalog) List() []Weapon {
	out := make([]Weapon, 0, len(c.byType))
	for _, w := range c.byType {
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out
}
