// Package telemetry exposes match counters as OpenTelemetry instruments.
package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/pefman/void-duel/internal/game"
	"github.com/pefman/void-duel/internal/match"
)

const instrumentationName = "github.com/pefman/void-duel"

// Metrics counts match activity.
type Metrics struct {
	attacks   metric.Int64Counter
	criticals metric.Int64Counter
	destroyed metric.Int64Counter
	started   metric.Int64Counter
	finished  metric.Int64Counter
	damage    metric.Float64Counter
}

func New(m metric.Meter) (*Metrics, error) {
	var (
		t   Metrics
		err error
	)
	if t.attacks, err = m.Int64Counter("void_duel.attacks", metric.WithDescription("Resolved attacks")); err != nil {
		return nil, fmt.Errorf("create attacks counter: %w", err)
	}
	if t.criticals, err = m.Int64Counter("void_duel.criticals", metric.WithDescription("Critical hits")); err != nil {
		return nil, fmt.Errorf("create criticals counter: %w", err)
	}
	if t.destroyed, err = m.Int64Counter("void_duel.destroyed", metric.WithDescription("Ships destroyed")); err != nil {
		return nil, fmt.Errorf("create destroyed counter: %w", err)
	}
	if t.started, err = m.Int64Counter("void_duel.matches.started", metric.WithDescription("Matches started")); err != nil {
		return nil, fmt.Errorf("create started counter: %w", err)
	}
	if t.finished, err = m.Int64Counter("void_duel.matches.finished", metric.WithDescription("Matches finished")); err != nil {
		return nil, fmt.Errorf("create finished counter: %w", err)
	}
	if t.damage, err = m.Float64Counter("void_duel.damage", metric.WithDescription("Shield and hull removed by attacks")); err != nil {
		return nil, fmt.Errorf("create damage counter: %w", err)
	}
	return &t, nil
}

func (t *Metrics) MatchStarted(ctx context.Context) {
	t.started.Add(ctx, 1)
}

func (t *Metrics) AttackResolved(_ string, out game.AttackOutcome) {
	ctx := context.Background()
	attrs := metric.WithAttributes(
		attribute.String("weapon", out.Weapon.String()),
		attribute.String("target_side", out.TargetSide.String()),
	)
	t.attacks.Add(ctx, 1, attrs)
	t.damage.Add(ctx, out.Applied, attrs)
	if out.Critical {
		t.criticals.Add(ctx, 1, metric.WithAttributes(attribute.String("system", string(out.System))))
	}
	if out.Destroyed {
		t.destroyed.Add(ctx, 1, metric.WithAttributes(attribute.String("side", out.TargetSide.String())))
	}
}

func (t *Metrics) MatchFinished(_ string, res match.Result) {
	t.finished.Add(context.Background(), 1, metric.WithAttributes(attribute.String("winner", res.Winner)))
}

var _ match.Observer = (*Metrics)(nil)
