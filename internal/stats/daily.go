package stats

import "time"

// DayKey is the UTC date an attack counts towards.
func DayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// beats reports whether a should replace the current record. Higher damage
// wins; on a tie a destroying hit beats one that did not destroy.
func beats(a, cur Attack) bool {
	if a.Damage != cur.Damage {
		return a.Damage > cur.Damage
	}
	return a.Destroyed && !cur.Destroyed
}
