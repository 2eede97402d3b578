package workers

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"

	"github.com/aescanero/dropship/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func newTick() *Tick {
	return &Tick{ID: "tick-1", Workflow: "test", Logger: zap.NewNop()}
}

func TestItemPipeline_SelectNarrowsBeforeActing(t *testing.T) {
	var acted []int
	p := &ItemPipeline[int]{
		Fetch: func(ctx context.Context) ([]int, error) { return []int{4, 1, 3, 2}, nil },
		Select: func(items []int) []int {
			sort.Sort(sort.Reverse(sort.IntSlice(items)))
			return items[:2]
		},
		Act: func(ctx context.Context, item int) ItemResult {
			acted = append(acted, item)
			return Success("")
		},
	}

	report, err := p.Run(context.Background(), newTick())
	require.NoError(t, err)

	assert.Equal(t, []int{4, 3}, acted)
	assert.Equal(t, 4, report.Fetched)
	assert.Equal(t, 2, report.Selected)
	assert.Equal(t, domain.OutcomeSuccess, report.Outcome())
}

func TestItemPipeline_FetchErrorIsTickLevel(t *testing.T) {
	p := &ItemPipeline[int]{
		Fetch: func(ctx context.Context) ([]int, error) { return nil, errors.New("timeout") },
		Act:   func(ctx context.Context, item int) ItemResult { return Success("") },
	}

	_, err := p.Run(context.Background(), newTick())
	require.Error(t, err)
	assert.Equal(t, KindTick, KindOf(err))
}

func TestItemPipeline_FetchAfterCancelIsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := &ItemPipeline[int]{
		Fetch: func(ctx context.Context) ([]int, error) {
			cancel()
			return nil, ctx.Err()
		},
		Act: func(ctx context.Context, item int) ItemResult { return Success("") },
	}

	_, err := p.Run(ctx, newTick())
	require.Error(t, err)
	assert.Equal(t, KindCancelled, KindOf(err))
}

func TestItemPipeline_WrappedCancelUnderLiveContextIsTickLevel(t *testing.T) {
	p := &ItemPipeline[int]{
		Fetch: func(ctx context.Context) ([]int, error) {
			return nil, fmt.Errorf("supplier: %w", context.Canceled)
		},
		Act: func(ctx context.Context, item int) ItemResult { return Success("") },
	}

	_, err := p.Run(context.Background(), newTick())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)

	var te *TickError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, KindTick, te.Kind)
}

func TestItemPipeline_ActDefaults(t *testing.T) {
	p := &ItemPipeline[string]{
		Fetch: func(ctx context.Context) ([]string, error) { return []string{"ok", "bad"}, nil },
		Act: func(ctx context.Context, item string) ItemResult {
			if item == "bad" {
				return ItemResult{Err: errors.New("nope")}
			}
			return ItemResult{}
		},
		Key: func(item string) string { return "key-" + item },
	}

	report, err := p.Run(context.Background(), newTick())
	require.NoError(t, err)
	require.Len(t, report.Items, 2)

	assert.Equal(t, "key-ok", report.Items[0].Key)
	assert.Equal(t, domain.OutcomeSuccess, report.Items[0].Outcome)
	assert.Equal(t, domain.OutcomeError, report.Items[1].Outcome)
	assert.Equal(t, domain.OutcomePartial, report.Outcome())
}

func TestReport_Outcome(t *testing.T) {
	tests := []struct {
		name  string
		items []ItemResult
		want  domain.Outcome
	}{
		{"empty", nil, domain.OutcomeSuccess},
		{"already answered counts as success", []ItemResult{
			{Outcome: domain.OutcomeSuccess},
			{Outcome: domain.OutcomeAlreadyAnswered},
		}, domain.OutcomeSuccess},
		{"all failed", []ItemResult{
			{Outcome: domain.OutcomeError},
			{Outcome: domain.OutcomeError},
		}, domain.OutcomeError},
		{"mixed", []ItemResult{
			{Outcome: domain.OutcomeSuccess},
			{Outcome: domain.OutcomeError},
		}, domain.OutcomePartial},
		{"partial item", []ItemResult{
			{Outcome: domain.OutcomePartial},
		}, domain.OutcomePartial},
		{"disabled items are ignored", []ItemResult{
			{Outcome: domain.OutcomeSuccess},
			{Outcome: domain.OutcomeDisabled},
		}, domain.OutcomeSuccess},
		{"failures beside disabled items", []ItemResult{
			{Outcome: domain.OutcomeError},
			{Outcome: domain.OutcomeDisabled},
		}, domain.OutcomeError},
		{"all disabled", []ItemResult{
			{Outcome: domain.OutcomeDisabled},
			{Outcome: domain.OutcomeDisabled},
		}, domain.OutcomeDisabled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &Report{Items: tt.items}
			assert.Equal(t, tt.want, r.Outcome())
		})
	}
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindTick, KindOf(errors.New("plain")))
	assert.Equal(t, KindCancelled, KindOf(context.Canceled))
	assert.Equal(t, KindItem, KindOf(&TickError{Kind: KindItem, Err: errors.New("x")}))
}

func TestItemPipeline_DisabledItemsAreNotWarnings(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	tick := &Tick{ID: "tick-1", Workflow: "test", Logger: zap.New(core)}

	p := &ItemPipeline[string]{
		Fetch: func(ctx context.Context) ([]string, error) { return []string{"o1", "o2"}, nil },
		Act: func(ctx context.Context, item string) ItemResult {
			return ItemResult{Outcome: domain.OutcomeDisabled, Detail: "auto-fulfill disabled"}
		},
		Key: func(item string) string { return item },
	}

	report, err := p.Run(context.Background(), tick)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeDisabled, report.Outcome())

	assert.Zero(t, logs.FilterLevelExact(zap.WarnLevel).Len())
	assert.Zero(t, logs.FilterLevelExact(zap.ErrorLevel).Len())
	assert.Equal(t, 2, logs.FilterMessage("item skipped by policy").Len())
}
