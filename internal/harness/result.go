package harness

import (
	"math"
	"time"

	"github.com/randomizedcoder/lwl-queues/internal/queue"
)

// Result is one measured window of one combination.
type Result struct {
	Kind      queue.Kind
	Capacity  int
	Pairs     int
	Op        Op
	Iteration int

	// Ops is the number of operations completed by all measured goroutines.
	Ops     int64
	Elapsed time.Duration
}

// OpsPerMilli returns throughput in operations per millisecond, summed over
// the pairs of the window.
func (r Result) OpsPerMilli() float64 {
	if r.Elapsed <= 0 {
		return 0
	}
	return float64(r.Ops) / (float64(r.Elapsed) / float64(time.Millisecond))
}

// Combination identifies what a Result measured, independent of iteration.
type Combination struct {
	Kind     queue.Kind
	Capacity int
	Pairs    int
	Op       Op
}

func (r Result) combination() Combination {
	return Combination{Kind: r.Kind, Capacity: r.Capacity, Pairs: r.Pairs, Op: r.Op}
}

// Summary aggregates the iterations of one combination, in ops/ms.
type Summary struct {
	Combination
	Iterations int
	Mean       float64
	StdDev     float64
	Min        float64
	Max        float64
}

// Summarize groups results by combination, keeping the order in which each
// combination first appears.
func Summarize(results []Result) []Summary {
	var order []Combination
	groups := make(map[Combination][]float64)
	for _, r := range results {
		c := r.combination()
		if _, ok := groups[c]; !ok {
			order = append(order, c)
		}
		groups[c] = append(groups[c], r.OpsPerMilli())
	}

	summaries := make([]Summary, 0, len(order))
	for _, c := range order {
		summaries = append(summaries, summarize(c, groups[c]))
	}
	return summaries
}

func summarize(c Combination, samples []float64) Summary {
	s := Summary{
		Combination: c,
		Iterations:  len(samples),
		Min:         math.Inf(1),
		Max:         math.Inf(-1),
	}
	var sum float64
	for _, v := range samples {
		sum += v
		s.Min = min(s.Min, v)
		s.Max = max(s.Max, v)
	}
	s.Mean = sum / float64(len(samples))

	if len(samples) > 1 {
		var sq float64
		for _, v := range samples {
			d := v - s.Mean
			sq += d * d
		}
		s.StdDev = math.Sqrt(sq / float64(len(samples)-1))
	}
	return s
}
