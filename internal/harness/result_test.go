package harness_test

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/randomizedcoder/lwl-queues/internal/harness"
	"github.com/randomizedcoder/lwl-queues/internal/queue"
)

func TestResult_OpsPerMilli(t *testing.T) {
	r := harness.Result{Ops: 5000, Elapsed: 10 * time.Millisecond}
	if got := r.OpsPerMilli(); got != 500 {
		t.Errorf("expected OpsPerMilli() = 500, got %v", got)
	}
	if got := (harness.Result{Ops: 1}).OpsPerMilli(); got != 0 {
		t.Errorf("expected 0 for zero elapsed, got %v", got)
	}
}

func TestSummarize(t *testing.T) {
	spin := harness.Combination{Kind: queue.KindSpin, Capacity: 4, Pairs: 1, Op: harness.OpTake}
	lock := harness.Combination{Kind: queue.KindLock, Capacity: 4, Pairs: 1, Op: harness.OpTake}

	result := func(c harness.Combination, i int, ops int64) harness.Result {
		return harness.Result{
			Kind: c.Kind, Capacity: c.Capacity, Pairs: c.Pairs, Op: c.Op,
			Iteration: i, Ops: ops, Elapsed: time.Millisecond,
		}
	}

	got := harness.Summarize([]harness.Result{
		result(spin, 0, 100),
		result(lock, 0, 40),
		result(spin, 1, 300),
		result(spin, 2, 200),
	})

	want := []harness.Summary{
		{Combination: spin, Iterations: 3, Mean: 200, StdDev: 100, Min: 100, Max: 300},
		{Combination: lock, Iterations: 1, Mean: 40, StdDev: 0, Min: 40, Max: 40},
	}
	if diff := cmp.Diff(want, got, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("Summarize mismatch (-want +got):\n%s", diff)
	}
}

func TestSummarize_Empty(t *testing.T) {
	if got := harness.Summarize(nil); len(got) != 0 {
		t.Errorf("expected no summaries, got %v", got)
	}
}
