// Package harness measures queue throughput in fixed time windows. Each
// measured goroutine owns a queue and is paired with a counterpart goroutine
// that keeps the queue moving, so a Take always has a producer and a Put
// always has a consumer.
//
// Every window runs on fresh queues. When the window ends the queues are
// closed, which is the only way a counterpart blocked in Put or Take is
// released; counterparts treat queue.ErrClosed as a normal exit.
package harness

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/randomizedcoder/lwl-queues/internal/park"
	"github.com/randomizedcoder/lwl-queues/internal/queue"
)

// Run measures every combination of cfg in turn and returns one Result per
// measured iteration. On error, or when ctx is cancelled, the results
// gathered so far are returned with the error.
func Run(ctx context.Context, cfg Config, log zerolog.Logger) ([]Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	r := &runner{cfg: cfg, log: log}
	release := r.stop.watch(ctx)
	defer release()

	var results []Result
	for _, kind := range cfg.Kinds {
		for _, capacity := range cfg.Capacities {
			for _, pairs := range cfg.Pairs {
				for _, op := range cfg.Ops {
					c := Combination{Kind: kind, Capacity: capacity, Pairs: pairs, Op: op}
					res, err := r.trial(ctx, c)
					results = append(results, res...)
					if err != nil {
						return results, err
					}
				}
			}
		}
	}
	return results, nil
}

type runner struct {
	cfg  Config
	log  zerolog.Logger
	stop stopFlag

	// lastStart is when the previous window began, for the cooldown.
	lastStart int64
}

func (r *runner) trial(ctx context.Context, c Combination) ([]Result, error) {
	log := r.log.With().
		Stringer("kind", c.Kind).
		Int("capacity", c.Capacity).
		Int("pairs", c.Pairs).
		Stringer("op", c.Op).
		Logger()

	if err := sleep(ctx, r.cfg.TrialCooldown.Duration); err != nil {
		return nil, err
	}
	r.lastStart = nanotime()

	sched := r.cfg.Schedule(c.Op)
	log.Debug().
		Int("iterations", sched.WarmupIterations).
		Dur("window", sched.Warmup.Duration).
		Msg("warmup")
	for i := 0; i < sched.WarmupIterations; i++ {
		if _, _, err := r.measure(ctx, c, sched.Warmup.Duration); err != nil {
			return nil, err
		}
	}

	results := make([]Result, 0, sched.Iterations)
	samples := make([]float64, 0, sched.Iterations)
	for i := 0; i < sched.Iterations; i++ {
		ops, elapsed, err := r.measure(ctx, c, sched.Measure.Duration)
		if err != nil {
			return results, err
		}
		res := Result{
			Kind:      c.Kind,
			Capacity:  c.Capacity,
			Pairs:     c.Pairs,
			Op:        c.Op,
			Iteration: i,
			Ops:       ops,
			Elapsed:   elapsed,
		}
		log.Debug().
			Int("iteration", i).
			Int64("ops", ops).
			Dur("elapsed", elapsed).
			Float64("ops_per_ms", res.OpsPerMilli()).
			Msg("iteration")
		results = append(results, res)
		samples = append(samples, res.OpsPerMilli())
	}

	s := summarize(c, samples)
	log.Info().
		Float64("mean_ops_per_ms", s.Mean).
		Float64("stddev", s.StdDev).
		Msg("measured")
	return results, nil
}

// measure runs one window on fresh queues and returns the operations done by
// all measured goroutines together.
func (r *runner) measure(ctx context.Context, c Combination, d time.Duration) (int64, time.Duration, error) {
	if err := sleep(ctx, r.cooldown(c.Pairs)); err != nil {
		return 0, 0, err
	}
	r.lastStart = nanotime()

	if c.Op == OpBaseline {
		ops, elapsed := r.baseline(c.Pairs, d)
		return ops, elapsed, ctx.Err()
	}

	queues := make([]queue.Queue, c.Pairs)
	for i := range queues {
		q, err := queue.New(c.Kind, c.Capacity)
		if err != nil {
			return 0, 0, err
		}
		queues[i] = q
	}

	var counterparts errgroup.Group
	for _, q := range queues {
		counterparts.Go(func() error {
			return counterpart(q, c.Op)
		})
	}

	counts := make([]int64, c.Pairs)
	var primaries errgroup.Group
	start := nanotime()
	for i, q := range queues {
		primaries.Go(func() error {
			n, err := drive(q, c.Op, newWindow(d, &r.stop))
			counts[i] = n
			return err
		})
	}
	err := primaries.Wait()
	elapsed := time.Duration(nanotime() - start)

	for _, q := range queues {
		q.Close()
	}
	if cerr := counterparts.Wait(); err == nil {
		err = cerr
	}
	if err != nil {
		return 0, elapsed, fmt.Errorf("harness: %v %s capacity=%d: %w", c.Kind, c.Op, c.Capacity, err)
	}

	var total int64
	for _, n := range counts {
		total += n
	}
	return total, elapsed, ctx.Err()
}

// cooldown is the pause before a window: as long as the previous window
// took, doubled when several goroutines were running, capped at MaxCooldown.
func (r *runner) cooldown(pairs int) time.Duration {
	d := time.Duration(nanotime() - r.lastStart)
	if pairs > 1 {
		d *= 2
	}
	return min(d, r.cfg.MaxCooldown.Duration)
}

func (r *runner) baseline(pairs int, d time.Duration) (int64, time.Duration) {
	counts := make([]int64, pairs)
	var g errgroup.Group
	start := nanotime()
	for i := range counts {
		g.Go(func() error {
			w := newWindow(d, &r.stop)
			var n int64
			for !w.expired() {
				n++
			}
			counts[i] = n
			return nil
		})
	}
	_ = g.Wait()
	elapsed := time.Duration(nanotime() - start)

	var total int64
	for _, n := range counts {
		total += n
	}
	return total, elapsed
}

// drive performs op on q until w expires and returns how many calls it made.
// Offer and Poll count every attempt, successful or not.
func drive(q queue.Queue, op Op, w *window) (int64, error) {
	var (
		n   int64
		sum int
	)
	switch op {
	case OpPut:
		put := putFunc(q)
		for ; !w.expired(); n++ {
			if err := put(int(n)); err != nil {
				return n, err
			}
		}
	case OpOffer:
		for ; !w.expired(); n++ {
			if _, err := q.Offer(int(n)); err != nil {
				return n, err
			}
		}
	case OpTake:
		take := takeFunc(q)
		for ; !w.expired(); n++ {
			v, err := take()
			if err != nil {
				return n, err
			}
			sum += v
		}
	case OpPoll:
		for ; !w.expired(); n++ {
			v, err := q.Poll(0)
			if err != nil {
				return n, err
			}
			sum += v
		}
	default:
		return 0, fmt.Errorf("harness: op %v does not use a queue", op)
	}
	runtime.KeepAlive(sum)
	return n, nil
}

// counterpart keeps q moving opposite to op until q is closed.
func counterpart(q queue.Queue, op Op) error {
	var err error
	if op.enqueues() {
		take := takeFunc(q)
		for err == nil {
			_, err = take()
		}
	} else {
		put := putFunc(q)
		for i := 0; err == nil; i++ {
			err = put(i)
		}
	}
	if errors.Is(err, queue.ErrClosed) {
		return nil
	}
	return err
}

type parkingPutter interface {
	PutWith(v int, self *park.Parker) error
}

type parkingTaker interface {
	TakeWith(self *park.Parker) (int, error)
}

// putFunc returns q.Put, or PutWith bound to a Parker owned by the caller
// when q supports it.
func putFunc(q queue.Queue) func(int) error {
	if p, ok := q.(parkingPutter); ok {
		self := park.New()
		return func(v int) error { return p.PutWith(v, self) }
	}
	return q.Put
}

func takeFunc(q queue.Queue) func() (int, error) {
	if p, ok := q.(parkingTaker); ok {
		self := park.New()
		return func() (int, error) { return p.TakeWith(self) }
	}
	return q.Take
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
