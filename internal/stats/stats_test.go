package stats

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pefman/void-duel/internal/engine"
	"github.com/pefman/void-duel/internal/game"
	"github.com/pefman/void-duel/internal/match"
	"github.com/pefman/void-duel/internal/scenario"
	"github.com/pefman/void-duel/internal/weapons"
)

var day = time.Date(2026, 5, 1, 9, 30, 0, 0, time.UTC)

func backends(t *testing.T) map[string]Recorder {
	t.Helper()
	ledger, err := OpenSQLite(filepath.Join(t.TempDir(), "stats.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = ledger.Close() })
	return map[string]Recorder{
		"memory": NewMemory(),
		"sqlite": ledger,
	}
}

func TestRecorder_DailyTop(t *testing.T) {
	ctx := context.Background()
	for name, rec := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, ok, err := rec.DailyTop(ctx, day)
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, rec.RecordAttack(ctx, Attack{MatchID: "a", Weapon: "laser", Damage: 10, At: day}))
			require.NoError(t, rec.RecordAttack(ctx, Attack{MatchID: "b", Weapon: "railgun", Damage: 30, At: day.Add(time.Hour)}))
			require.NoError(t, rec.RecordAttack(ctx, Attack{MatchID: "c", Weapon: "torpedo", Damage: 25, At: day.Add(2 * time.Hour)}))
			require.NoError(t, rec.RecordAttack(ctx, Attack{MatchID: "d", Weapon: "laser", Damage: 5, At: day.Add(24 * time.Hour)}))

			top, ok, err := rec.DailyTop(ctx, day)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, "b", top.MatchID)
			assert.Equal(t, 30.0, top.Damage)

			// A tie only wins when it destroyed its target.
			require.NoError(t, rec.RecordAttack(ctx, Attack{MatchID: "e", Damage: 30, At: day}))
			top, _, _ = rec.DailyTop(ctx, day)
			assert.Equal(t, "b", top.MatchID)
			require.NoError(t, rec.RecordAttack(ctx, Attack{MatchID: "f", Damage: 30, Destroyed: true, At: day}))
			top, _, _ = rec.DailyTop(ctx, day)
			assert.Equal(t, "f", top.MatchID)

			next, ok, err := rec.DailyTop(ctx, day.Add(24*time.Hour))
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, "d", next.MatchID)
		})
	}
}

func TestRecorder_Recent(t *testing.T) {
	ctx := context.Background()
	for name, rec := range backends(t) {
		t.Run(name, func(t *testing.T) {
			for i, id := range []string{"m1", "m2", "m3"} {
				require.NoError(t, rec.RecordMatch(ctx, MatchRecord{
					MatchID: id,
					Winner:  "player",
					Rounds:  i + 1,
					Weapons: map[string]float64{"laser": float64(10 * (i + 1))},
					EndedAt: day.Add(time.Duration(i) * time.Minute),
				}))
			}

			got, err := rec.Recent(ctx, 2)
			require.NoError(t, err)
			require.Len(t, got, 2)
			assert.Equal(t, "m3", got[0].MatchID)
			assert.Equal(t, "m2", got[1].MatchID)
			assert.Equal(t, 30.0, got[0].Weapons["laser"])
			assert.Equal(t, 3, got[0].Rounds)

			all, err := rec.Recent(ctx, 0)
			require.NoError(t, err)
			assert.Len(t, all, 3)
		})
	}
}

func TestOpen(t *testing.T) {
	rec, err := Open("memory", "", zerolog.Nop())
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, rec)

	rec, err = Open("sqlite", filepath.Join(t.TempDir(), "x.db"), zerolog.Nop())
	require.NoError(t, err)
	assert.IsType(t, &Ledger{}, rec)
	require.NoError(t, rec.Close())

	_, err = Open("postgres", "", zerolog.Nop())
	require.Error(t, err)

	_, err = Open("mongo", "", zerolog.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown stats driver")
}

func TestObserver_RecordsFinishedMatch(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()
	obs := NewObserver(mem, zerolog.Nop())
	obs.now = func() time.Time { return day }

	sc := scenario.Scenario{
		Name:      "duel",
		Grid:      engine.Grid{Width: 10, Height: 10},
		Player:    scenario.Ship{ID: "player", X: 1, Y: 1, Hull: "medium"},
		Opponents: []scenario.Ship{{ID: "target", X: 2, Y: 1, Hull: "light"}},
	}
	m := match.New(sc, match.WithRNG(engine.Never()), match.WithObserver(obs), match.WithID("obs-1"))

	require.True(t, m.AdvancePhase())
	require.True(t, m.SelectWeapon(weapons.Railgun))
	for !m.Over() {
		require.True(t, m.FireAt("target"))
	}

	top, ok, err := mem.DailyTop(ctx, day)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "obs-1", top.MatchID)
	assert.Equal(t, "railgun", top.Weapon)
	assert.Equal(t, 30.0, top.Damage, "a full shield hit")
	assert.False(t, top.Destroyed, "the killing shot only removed the last hull point")

	recs, err := mem.Recent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "player", recs[0].Winner)
	assert.Equal(t, 175.0, recs[0].DamageDealt, "100 shield and 75 hull, armor and overkill excluded")
	assert.Equal(t, recs[0].DamageDealt, recs[0].Weapons["railgun"])
	assert.Empty(t, obs.weapons)
}

func TestObserver_IgnoresOpponentFire(t *testing.T) {
	mem := NewMemory()
	obs := NewObserver(mem, zerolog.Nop())

	obs.AttackResolved("m", game.AttackOutcome{TargetSide: game.PlayerSide, Damage: 99, Applied: 99, Weapon: weapons.Laser})
	_, ok, _ := mem.DailyTop(context.Background(), time.Now())
	assert.False(t, ok)

	obs.AttackResolved("m", game.AttackOutcome{TargetSide: game.OpponentSide, Damage: 1, Applied: 1, Weapon: weapons.Laser})
	obs.Forget("m")
	assert.Empty(t, obs.weapons)
}
