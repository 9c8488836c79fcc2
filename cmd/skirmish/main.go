// Command skirmish plays a match against a running void-duel server and
// prints the narration.
package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/pefman/void-duel/internal/api"
	"github.com/pefman/void-duel/internal/engine"
	"github.com/pefman/void-duel/internal/game"
	"github.com/pefman/void-duel/internal/logging"
	"github.com/pefman/void-duel/internal/match"
	"github.com/pefman/void-duel/internal/models"
	"github.com/pefman/void-duel/internal/turn"
	"github.com/pefman/void-duel/internal/weapons"
)

func main() {
	base := flag.String("server", "http://localhost:8081", "void-duel server URL")
	seed := flag.Int64("seed", 0, "match seed (0 = server default)")
	rounds := flag.Int("rounds", 30, "give up after this many rounds")
	weapon := flag.String("weapon", "laser", "weapon to fire")
	level := flag.String("log", "info", "log level")
	flag.Parse()

	log := logging.New(*level, "console", os.Stderr)
	wt, err := weapons.ParseType(*weapon)
	if err != nil {
		log.Fatal().Err(err).Msg("bad weapon")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p := &pilot{c: api.NewClient(*base), log: log, weapon: wt, maxRounds: *rounds}
	res, err := p.play(ctx, *seed)
	if err != nil {
		log.Fatal().Err(err).Msg("skirmish failed")
	}
	if !res.Finished {
		log.Warn().Int("rounds", *rounds).Msg("no decision, withdrawing")
		return
	}
	log.Info().
		Str("winner", res.Winner).
		Int("rounds", res.Rounds).
		Float64("dealt", res.DamageDealt).
		Float64("taken", res.DamageTaken).
		Msg("skirmish over")
}

type pilot struct {
	c         *api.Client
	log       zerolog.Logger
	weapon    weapons.Type
	maxRounds int
	seen      int
}

var errNoPlayer = errors.New("player ship missing from state")

func (p *pilot) play(ctx context.Context, seed int64) (match.Result, error) {
	snap, err := p.c.NewMatch(ctx, models.NewMatchRequest{Seed: seed})
	if err != nil {
		return match.Result{}, err
	}
	id := snap.ID
	defer func() { _ = p.c.DeleteMatch(context.Background(), id) }()
	p.log.Info().Str("match", id).Str("scenario", snap.Scenario).Msg("match started")

	if _, err := p.c.SelectWeapon(ctx, id, p.weapon); err != nil {
		return match.Result{}, err
	}
	for !snap.Result.Finished && snap.Round <= p.maxRounds {
		if snap, err = p.playTurn(ctx, snap); err != nil {
			return match.Result{}, err
		}
		if err := p.narrate(ctx, id); err != nil {
			return match.Result{}, err
		}
	}
	return snap.Result, nil
}

// playTurn plays one full player turn: close in, fire, end the turn.
func (p *pilot) playTurn(ctx context.Context, snap match.Snapshot) (match.Snapshot, error) {
	id := snap.ID
	if snap.Player == nil {
		return snap, errNoPlayer
	}
	if target, ok := nearest(snap); ok {
		to := approach(snap.Player.Pos, target.Pos, snap.Grid)
		if to != snap.Player.Pos {
			if _, err := p.c.Select(ctx, id, snap.Player.ID); err != nil {
				return snap, err
			}
			if _, err := p.c.Move(ctx, id, to); err != nil {
				return snap, err
			}
		}
	}

	r, err := p.c.Advance(ctx, id)
	if err != nil {
		return snap, err
	}
	snap = r.State
	if target, ok := nearest(snap); ok {
		if r, err = p.c.Fire(ctx, id, target.ID); err != nil {
			return snap, err
		}
		if !r.Applied {
			p.log.Debug().Str("target", target.ID).Msg("target out of range")
		}
		snap = r.State
	}
	for !snap.Result.Finished && !(snap.Phase == turn.Movement && snap.ActiveSide == game.PlayerSide) {
		if r, err = p.c.Advance(ctx, id); err != nil {
			return snap, err
		}
		snap = r.State
	}
	return snap, nil
}

func (p *pilot) narrate(ctx context.Context, id string) error {
	events, err := p.c.Log(ctx, id, p.seen)
	if err != nil {
		return err
	}
	for _, e := range events {
		p.log.Info().Str("kind", string(e.Kind)).Msg(e.Message)
		p.seen = e.Seq
	}
	return nil
}

func nearest(s match.Snapshot) (match.UnitView, bool) {
	if s.Player == nil || len(s.Opponents) == 0 {
		return match.UnitView{}, false
	}
	best := s.Opponents[0]
	for _, o := range s.Opponents[1:] {
		if engine.Distance(s.Player.Pos, o.Pos) < engine.Distance(s.Player.Pos, best.Pos) {
			best = o
		}
	}
	return best, true
}

// approach walks toward target without entering its cell or leaving the
// grid, within one movement allowance.
func approach(from, target engine.Cell, g engine.Grid) engine.Cell {
	cur := from
	for {
		next := engine.StepToward(cur, target)
		if next == cur || next == target || !g.Contains(next) || engine.Manhattan(from, next) > match.MaxMove {
			return cur
		}
		cur = next
	}
}
