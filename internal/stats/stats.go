// Package stats keeps finished match results and the daily record for the
// hardest single hit. Backends are in memory or SQL through gorm.
package stats

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// MatchRecord is one finished match.
type MatchRecord struct {
	MatchID     string             `json:"match_id"`
	Winner      string             `json:"winner"`
	Rounds      int                `json:"rounds"`
	DamageDealt float64            `json:"damage_dealt"`
	DamageTaken float64            `json:"damage_taken"`
	Criticals   int                `json:"criticals"`
	Weapons     map[string]float64 `json:"weapons"`
	EndedAt     time.Time          `json:"ended_at"`
}

// Attack is a single player hit considered for the daily record.
type Attack struct {
	MatchID   string    `json:"match_id"`
	Attacker  string    `json:"attacker"`
	Target    string    `json:"target"`
	Weapon    string    `json:"weapon"`
	Damage    float64   `json:"damage"`
	Critical  bool      `json:"critical"`
	Destroyed bool      `json:"destroyed"`
	At        time.Time `json:"at"`
}

// Recorder stores results. Implementations are safe for concurrent use.
type Recorder interface {
	RecordMatch(ctx context.Context, rec MatchRecord) error
	// RecordAttack keeps a for its UTC day if it beats the current record.
	RecordAttack(ctx context.Context, a Attack) error
	// DailyTop returns the record for the UTC day containing day.
	DailyTop(ctx context.Context, day time.Time) (Attack, bool, error)
	// Recent returns up to limit matches, newest first.
	Recent(ctx context.Context, limit int) ([]MatchRecord, error)
	Close() error
}

// Open returns the recorder for driver: memory, sqlite or postgres.
func Open(driver, dsn string, log zerolog.Logger) (Recorder, error) {
	switch driver {
	case "", "memory":
		return NewMemory(), nil
	case "sqlite":
		if dsn == "" {
			dsn = "void-duel.db"
		}
		l, err := OpenSQLite(dsn, log)
		if err != nil {
			return nil, err
		}
		return l, nil
	case "postgres":
		if dsn == "" {
			return nil, fmt.Errorf("stats driver postgres needs a dsn")
		}
		l, err := OpenPostgres(dsn, log)
		if err != nil {
			return nil, err
		}
		return l, nil
	}
	return nil, fmt.Errorf("unknown stats driver %q", driver)
}
