package game

import (
	"fmt"

	"github.com/pefman/void-duel/internal/engine"
	"github.com/pefman/void-duel/internal/weapons"
)

// Remover is the owning side's unit collection.
type Remover interface {
	Remove(id string) bool
}

// ResolveAttack applies one shot of w from attacker to target and narrates
// it. Range is the caller's precondition. A destroyed target is removed
// from owner.
func ResolveAttack(rng engine.Source, attacker, target *Unit, w weapons.Weapon, owner Remover) AttackOutcome {
	oldShield, oldHull := target.Shield, target.Hull
	oldShieldPct, oldHullPct := target.ShieldPct(), target.HullPct()

	target.ApplyDamage(w.Damage)
	shieldLost := oldShield - target.Shield

	out := AttackOutcome{
		AttackerID: attacker.ID,
		TargetID:   target.ID,
		TargetSide: target.Side,
		Weapon:     w.Type,
		Damage:     w.Damage,
	}

	if rng.Float64() < w.CritChance {
		out.Critical = true
		out.Logs = append(out.Logs, Narration{KindCritical, fmt.Sprintf("Critical hit by %s! Systems may be impaired.", w.Type)})
		out.System = target.ApplyCriticalEffect(rng)
		out.Logs = append(out.Logs, Narration{KindCritical, criticalText(out.System)})
	}

	who := "enemy"
	if target.Side == PlayerSide {
		who = "your"
	}
	if oldShield > 0 && target.Shield < oldShield {
		out.Kind = ShieldHit
		out.Before, out.After = oldShield, target.Shield
		out.BeforePct, out.AfterPct = oldShieldPct, target.ShieldPct()
		out.Logs = append(out.Logs, Narration{KindShield, fmt.Sprintf("%s hit %s shields! Shield reduced from %.0f%% to %.0f%%.",
			weaponLabel(w), who, out.BeforePct, out.AfterPct)})
	} else {
		out.Kind = HullHit
		out.Before, out.After = oldHull, target.Hull
		out.BeforePct, out.AfterPct = oldHullPct, target.HullPct()
		out.Logs = append(out.Logs, Narration{KindHit, fmt.Sprintf("Direct hit on %s hull! Hull integrity reduced from %.0f%% to %.0f%%.",
			who, out.BeforePct, out.AfterPct)})
	}
	out.HullLost = oldHull - target.Hull
	out.Applied = shieldLost + out.HullLost

	if target.IsDestroyed() {
		out.Destroyed = true
		if owner != nil {
			owner.Remove(target.ID)
		}
		if target.Side == PlayerSide {
			out.Logs = append(out.Logs, Narration{KindHit, "Your vessel has been destroyed!"})
		} else {
			out.Logs = append(out.Logs, Narration{KindHit, "Enemy vessel destroyed!"})
		}
	}
	return out
}

func weaponLabel(w weapons.Weapon) string {
	if w.Name != "" {
		return w.Name
	}
	return w.Type.String()
}

func criticalText(s System) string {
	switch s {
	case Engines:
		return "Engine damage: speed reduced."
	case Weapons:
		return "Weapon systems impaired: damage output reduced."
	case Shields:
		return "Shield generator damaged: slower regeneration."
	}
	return "Systems damaged."
}
