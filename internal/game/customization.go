package game

import (
	"errors"
	"fmt"
)

// CustomizationConfig is what the ship customization form submits.
type CustomizationConfig struct {
	Color                 string  `json:"color"`
	HullType              string  `json:"hullType"`
	ShieldCapacity        float64 `json:"shieldCapacity"`
	ShieldRegen           float64 `json:"shieldRegen"`
	WeaponDamagePrimary   float64 `json:"weaponDamagePrimary"`
	WeaponDamageSecondary float64 `json:"weaponDamageSecondary"`
}

// Validate checks the ranges the core relies on.
func (c CustomizationConfig) Validate() error {
	var errs []error
	if _, err := ParseHullClass(c.HullType); err != nil {
		errs = append(errs, err)
	}
	if c.ShieldCapacity <= 0 {
		errs = append(errs, fmt.Errorf("shield capacity must be positive, got %v", c.ShieldCapacity))
	}
	if c.ShieldRegen < 0 {
		errs = append(errs, fmt.Errorf("shield regen must not be negative, got %v", c.ShieldRegen))
	}
	if c.WeaponDamagePrimary <= 0 {
		errs = append(errs, fmt.Errorf("primary weapon damage must be positive, got %v", c.WeaponDamagePrimary))
	}
	if c.WeaponDamageSecondary <= 0 {
		errs = append(errs, fmt.Errorf("secondary weapon damage must be positive, got %v", c.WeaponDamageSecondary))
	}
	return errors.Join(errs...)
}

// ApplyCustomization refits the unit. Hull and shields come back to full,
// weapon multipliers reset and every damaged system is repaired.
// Weapon damage values are catalog overrides and are applied by the match.
func (u *Unit) ApplyCustomization(cfg CustomizationConfig) {
	if cfg.Color != "" {
		u.Color = cfg.Color
	}
	if h, err := ParseHullClass(cfg.HullType); err == nil {
		u.HullClass = h
	}
	u.MaxShield = cfg.ShieldCapacity
	u.Shield = u.MaxShield
	u.ShieldRegenRate = cfg.ShieldRegen
	u.Multipliers = Multipliers{Primary: 1, Secondary: 1}
	u.applyHullClass()
	u.Damaged = SystemsDamaged{}
}
