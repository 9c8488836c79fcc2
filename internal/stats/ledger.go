package stats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type matchRow struct {
	ID          uint   `gorm:"primarykey"`
	MatchID     string `gorm:"size:64;uniqueIndex"`
	Winner      string `gorm:"size:16"`
	Rounds      int
	DamageDealt float64
	DamageTaken float64
	Criticals   int
	Weapons     datatypes.JSON
	EndedAt     time.Time `gorm:"index"`
}

func (matchRow) TableName() string { return "match_results" }

type attackRow struct {
	Day       string `gorm:"primaryKey;size:10"`
	MatchID   string `gorm:"size:64"`
	Attacker  string `gorm:"size:64"`
	Target    string `gorm:"size:64"`
	Weapon    string `gorm:"size:16"`
	Damage    float64
	Critical  bool
	Destroyed bool
	At        time.Time
}

func (attackRow) TableName() string { return "daily_top_attacks" }

// Ledger stores results in a SQL database.
type Ledger struct {
	db  *gorm.DB
	log zerolog.Logger
}

// OpenSQLite opens (or creates) a SQLite ledger at path.
func OpenSQLite(path string, log zerolog.Logger) (*Ledger, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite ledger %s: %w", path, err)
	}
	log.Info().Str("path", path).Msg("Using SQLite stats ledger")
	return newLedger(db, log)
}

// OpenPostgres connects to a Postgres ledger.
func OpenPostgres(dsn string, log zerolog.Logger) (*Ledger, error) {
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres ledger: %w", err)
	}
	log.Info().Msg("Using Postgres stats ledger")
	return newLedger(db, log)
}

func newLedger(db *gorm.DB, log zerolog.Logger) (*Ledger, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access sql interface: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("ping ledger: %w", err)
	}
	if err := db.AutoMigrate(&matchRow{}, &attackRow{}); err != nil {
		return nil, fmt.Errorf("migrate ledger: %w", err)
	}
	return &Ledger{db: db, log: log}, nil
}

func (l *Ledger) RecordMatch(ctx context.Context, rec MatchRecord) error {
	weapons, err := json.Marshal(rec.Weapons)
	if err != nil {
		return fmt.Errorf("encode weapon summary: %w", err)
	}
	row := matchRow{
		MatchID:     rec.MatchID,
		Winner:      rec.Winner,
		Rounds:      rec.Rounds,
		DamageDealt: rec.DamageDealt,
		DamageTaken: rec.DamageTaken,
		Criticals:   rec.Criticals,
		Weapons:     datatypes.JSON(weapons),
		EndedAt:     rec.EndedAt.UTC(),
	}
	if err := l.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("insert match %s: %w", rec.MatchID, err)
	}
	return nil
}

func (l *Ledger) RecordAttack(ctx context.Context, a Attack) error {
	key := DayKey(a.At)
	return l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cur attackRow
		err := tx.Where("day = ?", key).First(&cur).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
		case err != nil:
			return fmt.Errorf("load daily top %s: %w", key, err)
		case !beats(a, cur.attack()):
			return nil
		}
		row := attackRow{
			Day:       key,
			MatchID:   a.MatchID,
			Attacker:  a.Attacker,
			Target:    a.Target,
			Weapon:    a.Weapon,
			Damage:    a.Damage,
			Critical:  a.Critical,
			Destroyed: a.Destroyed,
			At:        a.At.UTC(),
		}
		if err := tx.Save(&row).Error; err != nil {
			return fmt.Errorf("save daily top %s: %w", key, err)
		}
		return nil
	})
}

func (l *Ledger) DailyTop(ctx context.Context, day time.Time) (Attack, bool, error) {
	var row attackRow
	err := l.db.WithContext(ctx).Where("day = ?", DayKey(day)).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Attack{}, false, nil
	}
	if err != nil {
		return Attack{}, false, fmt.Errorf("load daily top: %w", err)
	}
	return row.attack(), true, nil
}

func (l *Ledger) Recent(ctx context.Context, limit int) ([]MatchRecord, error) {
	q := l.db.WithContext(ctx).Order("ended_at desc").Order("id desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var rows []matchRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	out := make([]MatchRecord, 0, len(rows))
	for _, r := range rows {
		rec := MatchRecord{
			MatchID:     r.MatchID,
			Winner:      r.Winner,
			Rounds:      r.Rounds,
			DamageDealt: r.DamageDealt,
			DamageTaken: r.DamageTaken,
			Criticals:   r.Criticals,
			EndedAt:     r.EndedAt,
		}
		if len(r.Weapons) > 0 {
			if err := json.Unmarshal(r.Weapons, &rec.Weapons); err != nil {
				l.log.Warn().Err(err).Str("match", r.MatchID).Msg("bad weapon summary")
			}
		}
		out = append(out, rec)
	}
	return out, nil
}

func (l *Ledger) Close() error {
	sqlDB, err := l.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (r attackRow) attack() Attack {
	return Attack{
		MatchID:   r.MatchID,
		Attacker:  r.Attacker,
		Target:    r.Target,
		Weapon:    r.Weapon,
		Damage:    r.Damage,
		Critical:  r.Critical,
		Destroyed: r.Destroyed,
		At:        r.At,
	}
}
