package workers

import (
	"context"
	"fmt"

	"github.com/aescanero/dropship/pkg/domain"
	"go.uber.org/zap"
)

// Tick carries the identity of one loop iteration into a pipeline
type Tick struct {
	ID       string
	Workflow string
	Logger   *zap.Logger

	onPhase func(State)
}

// Phase reports the state the pipeline has entered
func (t *Tick) Phase(s State) {
	if t.onPhase != nil {
		t.onPhase(s)
	}
}

// Pipeline is the body of one workflow tick
type Pipeline interface {
	Run(ctx context.Context, tick *Tick) (*Report, error)
}

// PipelineFunc adapts a function to Pipeline
type PipelineFunc func(ctx context.Context, tick *Tick) (*Report, error)

func (f PipelineFunc) Run(ctx context.Context, tick *Tick) (*Report, error) {
	return f(ctx, tick)
}

// ItemPipeline fetches a fresh batch of items, optionally narrows it and
// acts on every remaining item in order. A failing item never stops its
// siblings.
type ItemPipeline[T any] struct {
	// Fetch returns the candidates for this tick
	Fetch func(ctx context.Context) ([]T, error)
	// Select filters, sorts or caps the candidates. Optional.
	Select func(items []T) []T
	// Act processes one item
	Act func(ctx context.Context, item T) ItemResult
	// Key identifies an item in logs
	Key func(item T) string
}

// Run executes fetch, select and act for one tick
func (p *ItemPipeline[T]) Run(ctx context.Context, tick *Tick) (*Report, error) {
	tick.Phase(StateFetching)
	items, err := p.Fetch(ctx)
	if err != nil {
		return nil, classify(ctx, "fetch", err)
	}

	report := &Report{TickID: tick.ID, Fetched: len(items)}
	if p.Select != nil {
		items = p.Select(items)
	}
	report.Selected = len(items)

	tick.Phase(StateActing)
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return report, &TickError{Kind: KindCancelled, Op: "act", Err: err}
		}

		res := p.act(ctx, item)
		if ctx.Err() != nil && res.Failed() {
			return report, &TickError{Kind: KindCancelled, Op: "act", Err: ctx.Err()}
		}

		report.Items = append(report.Items, res)
		logItem(tick, res)
	}

	return report, nil
}

// act invokes Act, converting a panic into a failed item
func (p *ItemPipeline[T]) act(ctx context.Context, item T) (res ItemResult) {
	key := ""
	if p.Key != nil {
		key = p.Key(item)
	}

	defer func() {
		if r := recover(); r != nil {
			res = Failure(fmt.Errorf("panic: %v", r))
			res.Key = key
		}
	}()

	res = p.Act(ctx, item)
	if res.Key == "" {
		res.Key = key
	}
	if res.Outcome == "" {
		if res.Err != nil {
			res.Outcome = domain.OutcomeError
		} else {
			res.Outcome = domain.OutcomeSuccess
		}
	}
	return res
}

func logItem(tick *Tick, res ItemResult) {
	fields := []zap.Field{
		zap.String("tick_id", tick.ID),
		zap.String("item", res.Key),
		zap.String("outcome", string(res.Outcome)),
	}
	if res.Detail != "" {
		fields = append(fields, zap.String("detail", res.Detail))
	}

	switch res.Outcome {
	case domain.OutcomeSuccess, domain.OutcomeAlreadyAnswered:
		tick.Logger.Info("item processed", fields...)
	case domain.OutcomeDisabled:
		tick.Logger.Info("item skipped by policy", fields...)
	case domain.OutcomeError:
		tick.Logger.Error("item failed", append(fields, zap.Error(res.Err))...)
	default:
		if res.Err != nil {
			fields = append(fields, zap.Error(res.Err))
		}
		tick.Logger.Warn("item not fully processed", fields...)
	}
}
