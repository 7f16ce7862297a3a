package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"fortio.org/safecast"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/joshuapare/boxkit/alloc"
	"github.com/joshuapare/boxkit/box"
	"github.com/joshuapare/boxkit/internal/writer"
)

var (
	stressWorkers    int
	stressIterations int
	stressSeed       int64
	stressTrace      string
)

func init() {
	cmd := newStressCmd()
	cmd.Flags().IntVarP(&stressWorkers, "workers", "w", 0, "Concurrent workers (default from config)")
	cmd.Flags().IntVarP(&stressIterations, "iterations", "n", 0, "Operations per worker (default from config)")
	cmd.Flags().Int64Var(&stressSeed, "seed", 0, "Random seed (default from config)")
	cmd.Flags().StringVar(&stressTrace, "trace", "", "Write the allocator event log to this file")
	rootCmd.AddCommand(cmd)
}

func newStressCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stress",
		Short: "Hammer one arena from several goroutines",
		Long: `The stress command starts several workers that share one arena and
repeatedly create, mutate, clone, upcast, leak and re-adopt boxes of random
sizes. Afterwards it checks that every block was released exactly once and
that the arena is consistent.

Example:
  boxctl stress
  boxctl stress --workers 8 --iterations 50000
  boxctl stress --trace run.trace`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStress(cmd.Context())
		},
	}
}

// maxHeld bounds the slices a worker keeps alive between iterations.
const maxHeld = 16

// record is the fixed-size payload the workers box.
type record struct {
	ID  uint64
	Sum uint64
	Pad [6]uint64
}

func (r *record) Checksum() uint64 {
	sum := r.ID * 0x9e3779b97f4a7c15
	for _, p := range r.Pad {
		sum = sum*31 + p
	}
	return sum
}

func (r *record) seal() { r.Sum = r.Checksum() }

type checksummer interface {
	Checksum() uint64
}

type stressParams struct {
	workers    int
	iterations int
	maxPayload int
	seed       int64
}

type workerStats struct {
	Ops       int64 `json:"ops"`
	Exhausted int64 `json:"exhausted"`
}

type stressReport struct {
	Workers    int           `json:"workers"`
	Iterations int           `json:"iterations"`
	Seed       int64         `json:"seed"`
	Ops        int64         `json:"ops"`
	Exhausted  int64         `json:"exhausted"`
	Elapsed    time.Duration `json:"elapsed_ns"`
	Tracker    alloc.Stats   `json:"tracker"`
	Arena      alloc.Stats   `json:"arena"`
}

func stressParamsFromConfig() (stressParams, error) {
	p := stressParams{
		workers:    cfg.Stress.Workers,
		iterations: cfg.Stress.Iterations,
		seed:       cfg.Stress.Seed,
	}
	maxPayload, err := safecast.Conv[int](cfg.Stress.MaxPayload)
	if err != nil {
		return p, fmt.Errorf("stress.max_payload: %w", err)
	}
	p.maxPayload = maxPayload
	if stressWorkers > 0 {
		p.workers = stressWorkers
	}
	if stressIterations > 0 {
		p.iterations = stressIterations
	}
	if stressSeed != 0 {
		p.seed = stressSeed
	}
	return p, nil
}

func runStress(ctx context.Context) error {
	params, err := stressParamsFromConfig()
	if err != nil {
		return err
	}

	arena, err := openArena(cfg)
	if err != nil {
		return fmt.Errorf("open arena: %w", err)
	}
	defer arena.Close()

	opts := []alloc.TrackingOption{
		alloc.WithViolationHook(func(v alloc.Violation) {
			logger.Error("allocator contract violation", zap.Error(v))
		}),
	}
	if stressTrace != "" {
		opts = append(opts, alloc.WithEvents())
	}
	tr := alloc.NewTracking(alloc.NewLogged(arena, logger), opts...)
	shared := alloc.NewLocked(tr)

	printVerbose("Starting %d workers x %d iterations (seed %d)\n", params.workers, params.iterations, params.seed)
	start := time.Now()
	per := make([]workerStats, params.workers)
	g, ctx := errgroup.WithContext(ctx)
	for w := range params.workers {
		g.Go(func() error {
			ws, err := stressWorker(ctx, shared, w, params)
			per[w] = ws
			return err
		})
	}
	werr := g.Wait()
	elapsed := time.Since(start)

	report := stressReport{
		Workers:    params.workers,
		Iterations: params.iterations,
		Seed:       params.seed,
		Elapsed:    elapsed,
		Arena:      arena.Stats(),
	}
	for _, ws := range per {
		report.Ops += ws.Ops
		report.Exhausted += ws.Exhausted
	}
	var violations []alloc.Violation
	var events []alloc.Event
	shared.With(func(alloc.Allocator) {
		report.Tracker = tr.Stats()
		violations = tr.Violations()
		events = tr.Events()
	})
	logger.Info("stress finished",
		zap.Int64("ops", report.Ops),
		zap.Int64("exhausted", report.Exhausted),
		zap.Duration("elapsed", elapsed))

	if stressTrace != "" {
		t := &traceFile{
			Version:  traceVersion,
			Created:  time.Now().UTC(),
			Workers:  params.workers,
			Seed:     params.seed,
			Capacity: report.Arena.Capacity,
			Stats:    report.Tracker,
			Events:   events,
		}
		if err := writeTrace(&writer.FileWriter{Path: stressTrace}, t); err != nil {
			return err
		}
		printVerbose("Wrote %d events to %s\n", len(events), stressTrace)
	}

	if werr != nil {
		return werr
	}
	if len(violations) > 0 {
		return fmt.Errorf("%d allocator contract violations, first: %w", len(violations), violations[0])
	}
	if report.Tracker.Live != 0 {
		return fmt.Errorf("%d blocks still live after all workers finished", report.Tracker.Live)
	}
	if err := arena.Verify(); err != nil {
		return fmt.Errorf("arena inconsistent: %w", err)
	}

	if jsonOut {
		return printJSON(report)
	}
	printReport(report)
	return nil
}

func printReport(r stressReport) {
	printInfo("Stress run: %d workers x %s iterations (seed %d)\n", r.Workers, formatNumber(int64(r.Iterations)), r.Seed)
	printInfo("  Elapsed:    %s\n", r.Elapsed.Round(time.Millisecond))
	printInfo("  Operations: %s\n", formatNumber(r.Ops))
	printInfo("  Exhausted:  %s\n\n", formatNumber(r.Exhausted))

	printInfo("Allocator:\n")
	printInfo("  Allocs:     %s\n", formatNumber(r.Tracker.Allocs))
	printInfo("  Releases:   %s\n", formatNumber(r.Tracker.Releases))
	printInfo("  Failed:     %s\n", formatNumber(r.Tracker.Failed))
	printInfo("  Peak bytes: %s\n\n", formatBytes(r.Tracker.Peak))

	printInfo("Arena:\n")
	printInfo("  Capacity:     %s\n", formatBytes(r.Arena.Capacity))
	printInfo("  Free blocks:  %d\n", r.Arena.FreeBlocks)
	printInfo("  Largest free: %s\n", formatBytes(r.Arena.LargestFree))
}

// stressWorker runs p.iterations random operations against a. Running out of
// arena space is counted, not fatal.
func stressWorker(ctx context.Context, a alloc.Allocator, id int, p stressParams) (workerStats, error) {
	rng := rand.New(rand.NewPCG(uint64(p.seed), uint64(id)))
	var held []*box.Slice[byte]
	defer func() {
		for _, s := range held {
			s.Drop()
		}
	}()

	var ws workerStats
	for i := range p.iterations {
		if err := ctx.Err(); err != nil {
			return ws, err
		}
		var err error
		switch rng.IntN(4) {
		case 0:
			err = stressClone(a, rng)
		case 1:
			held, err = stressSlice(a, rng, held, p.maxPayload)
		case 2:
			err = stressUpcast(a, rng)
		case 3:
			err = stressRaw(a, rng)
		}
		if errors.Is(err, box.ErrAlloc) {
			ws.Exhausted++
			continue
		}
		if err != nil {
			return ws, fmt.Errorf("worker %d iteration %d: %w", id, i, err)
		}
		ws.Ops++
	}
	return ws, nil
}

func newRecord(rng *rand.Rand) record {
	r := record{ID: rng.Uint64()}
	for i := range r.Pad {
		r.Pad[i] = rng.Uint64()
	}
	r.seal()
	return r
}

func stressClone(a alloc.Allocator, rng *rand.Rand) error {
	b, err := box.New(a, newRecord(rng))
	if err != nil {
		return err
	}
	defer b.Drop()

	c, err := b.TryClone()
	if err != nil {
		return err
	}
	defer c.Drop()

	if c.Get() != b.Get() {
		return errors.New("clone differs from source")
	}
	c.AsMut().ID++
	c.AsMut().seal()
	if b.AsRef().ID == c.AsRef().ID {
		return errors.New("clone shares storage with source")
	}
	if b.AsRef().Sum != b.AsRef().Checksum() {
		return errors.New("source corrupted by clone mutation")
	}
	return nil
}

func stressSlice(a alloc.Allocator, rng *rand.Rand, held []*box.Slice[byte], maxPayload int) ([]*box.Slice[byte], error) {
	data := make([]byte, 1+rng.IntN(maxPayload))
	for i := range data {
		data[i] = byte(rng.Uint32())
	}
	s, err := box.NewSlice(a, data)
	if err != nil {
		return held, err
	}
	if !bytes.Equal(s.Elems(), data) {
		s.Drop()
		return held, errors.New("slice contents differ from source")
	}

	held = append(held, s)
	if len(held) > maxHeld {
		j := rng.IntN(len(held))
		held[j].Drop()
		held[j] = held[len(held)-1]
		held = held[:len(held)-1]
	}
	return held, nil
}

func stressUpcast(a alloc.Allocator, rng *rand.Rand) error {
	b, err := box.New(a, newRecord(rng))
	if err != nil {
		return err
	}
	want := b.AsRef().Sum
	d := box.Upcast[checksummer](b)
	defer d.Drop()

	if got := d.Get().Checksum(); got != want {
		return fmt.Errorf("checksum through interface %#x, want %#x", got, want)
	}
	return nil
}

func stressRaw(a alloc.Allocator, rng *rand.Rand) error {
	v := rng.Uint64()
	b, err := box.New(a, v)
	if err != nil {
		return err
	}
	b.Leak()
	b.Drop()

	c := box.FromRaw[uint64](a, b.IntoRaw())
	c.Unleak()
	defer c.Drop()
	if got := c.Get(); got != v {
		return fmt.Errorf("re-adopted value %#x, want %#x", got, v)
	}
	return nil
}
