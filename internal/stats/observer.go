package stats

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/pefman/void-duel/internal/game"
	"github.com/pefman/void-duel/internal/match"
)

// Observer feeds match events into a Recorder. One Observer serves every
// match on the server.
type Observer struct {
	rec Recorder
	log zerolog.Logger
	now func() time.Time

	mu      sync.Mutex
	weapons map[string]map[string]float64
}

func NewObserver(rec Recorder, log zerolog.Logger) *Observer {
	return &Observer{
		rec:     rec,
		log:     log,
		now:     time.Now,
		weapons: make(map[string]map[string]float64),
	}
}

// AttackResolved tallies player damage per weapon and offers the hit for
// the daily record.
func (o *Observer) AttackResolved(matchID string, out game.AttackOutcome) {
	if out.TargetSide != game.OpponentSide {
		return
	}
	o.mu.Lock()
	tally := o.weapons[matchID]
	if tally == nil {
		tally = make(map[string]float64)
		o.weapons[matchID] = tally
	}
	tally[out.Weapon.String()] += out.Applied
	o.mu.Unlock()

	a := Attack{
		MatchID:   matchID,
		Attacker:  out.AttackerID,
		Target:    out.TargetID,
		Weapon:    out.Weapon.String(),
		Damage:    out.Applied,
		Critical:  out.Critical,
		Destroyed: out.Destroyed,
		At:        o.now(),
	}
	if err := o.rec.RecordAttack(context.Background(), a); err != nil {
		o.log.Error().Err(err).Str("match", matchID).Msg("failed to record attack")
	}
}

func (o *Observer) MatchFinished(matchID string, res match.Result) {
	o.mu.Lock()
	tally := o.weapons[matchID]
	delete(o.weapons, matchID)
	o.mu.Unlock()

	rec := MatchRecord{
		MatchID:     matchID,
		Winner:      res.Winner,
		Rounds:      res.Rounds,
		DamageDealt: res.DamageDealt,
		DamageTaken: res.DamageTaken,
		Criticals:   res.Criticals,
		Weapons:     tally,
		EndedAt:     res.EndedAt,
	}
	if rec.Weapons == nil {
		rec.Weapons = map[string]float64{}
	}
	if err := o.rec.RecordMatch(context.Background(), rec); err != nil {
		o.log.Error().Err(err).Str("match", matchID).Msg("failed to record match")
	}
}

// Forget drops tallies for a match abandoned before it finished.
func (o *Observer) Forget(matchID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.weapons, matchID)
}

var _ match.Observer = (*Observer)(nil)
