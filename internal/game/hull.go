package game

import (
	"fmt"
	"strings"
)

// HullClass selects a fixed row of the hull table.
type HullClass string

const (
	Light  HullClass = "light"
	Medium HullClass = "medium"
	Heavy  HullClass = "heavy"
)

// HullStats are the values a hull class imposes on a unit.
type HullStats struct {
	MaxHull float64 `json:"max_hull"`
	Speed   float64 `json:"speed"`
	Armor   float64 `json:"armor"`
}

var hullTable = map[HullClass]HullStats{
	Light:  {MaxHull: 75, Speed: 1.5, Armor: 2},
	Medium: {MaxHull: 100, Speed: 1.0, Armor: 5},
	Heavy:  {MaxHull: 150, Speed: 0.7, Armor: 8},
}

// Stats returns the table row for the class.
func (h HullClass) Stats() (HullStats, bool) {
	s, ok := hullTable[h]
	return s, ok
}

// ParseHullClass accepts any casing of light, medium or heavy.
func ParseHullClass(s string) (HullClass, error) {
	h := HullClass(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := hullTable[h]; !ok {
		return "", fmt.Errorf("unknown hull type %q", s)
	}
	return h, nil
}

// HullTable returns a copy of the class table.
func HullTable() map[HullClass]HullStats {
	out := make(map[HullClass]HullStats, len(hullTable))
	for k, v := range hullTable {
		out[k] = v
	}
	return out
}
