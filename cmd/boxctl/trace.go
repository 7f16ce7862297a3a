package main

import (
	"cmp"
	"errors"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/spf13/cobra"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/joshuapare/boxkit/alloc"
	"github.com/joshuapare/boxkit/internal/writer"
)

// traceVersion is bumped whenever traceFile changes shape.
const traceVersion = 1

var errTraceVersion = errors.New("unsupported trace version")

// traceFile is the msgpack document written by stress --trace.
type traceFile struct {
	Version  int           `msgpack:"version"`
	Created  time.Time     `msgpack:"created"`
	Workers  int           `msgpack:"workers"`
	Seed     int64         `msgpack:"seed"`
	Capacity int64         `msgpack:"capacity"`
	Stats    alloc.Stats   `msgpack:"stats"`
	Events   []alloc.Event `msgpack:"events"`
}

// writeTrace encodes t and hands it to w in one piece.
func writeTrace(w writer.Sink, t *traceFile) error {
	data, err := msgpack.Marshal(t)
	if err != nil {
		return fmt.Errorf("encode trace: %w", err)
	}
	if err := w.Put(data); err != nil {
		return fmt.Errorf("write trace: %w", err)
	}
	return nil
}

func readTrace(path string) (*traceFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open trace: %w", err)
	}
	t, err := decodeTrace(data)
	if err != nil {
		return nil, fmt.Errorf("trace %s: %w", path, err)
	}
	return t, nil
}

func decodeTrace(data []byte) (*traceFile, error) {
	var t traceFile
	if err := msgpack.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if t.Version != traceVersion {
		return nil, fmt.Errorf("%w: %d", errTraceVersion, t.Version)
	}
	return &t, nil
}

// traceSummary is the result of replaying a trace's event log.
type traceSummary struct {
	Events     int              `json:"events"`
	Allocs     int64            `json:"allocs"`
	Releases   int64            `json:"releases"`
	Failures   int64            `json:"failures"`
	Violations int64            `json:"violations"`
	Unmatched  int64            `json:"unmatched"` // releases of addresses not live in the replay
	PeakLive   int64            `json:"peak_live"`
	PeakBytes  int64            `json:"peak_bytes"`
	Leaked     int64            `json:"leaked"` // blocks live at the end of the log
	Largest    int64            `json:"largest"`
	Sizes      map[string]int64 `json:"sizes"`
}

var sizeBuckets = []struct {
	label string
	max   int64
}{
	{"<=16", 16},
	{"<=64", 64},
	{"<=256", 256},
	{"<=1K", 1024},
	{">1K", -1},
}

func sizeBucket(n int64) string {
	for _, b := range sizeBuckets {
		if b.max < 0 || n <= b.max {
			return b.label
		}
	}
	return sizeBuckets[len(sizeBuckets)-1].label
}

// summarize replays t.Events in sequence order.
func summarize(t *traceFile) traceSummary {
	events := slices.Clone(t.Events)
	slices.SortFunc(events, func(a, b alloc.Event) int { return cmp.Compare(a.Seq, b.Seq) })

	s := traceSummary{Events: len(events), Sizes: make(map[string]int64)}
	live := make(map[uint64]int64)
	var bytes int64
	for _, e := range events {
		size := int64(e.Size)
		switch e.Op {
		case alloc.OpAlloc:
			s.Allocs++
			s.Sizes[sizeBucket(size)]++
			s.Largest = max(s.Largest, size)
			live[e.Addr] = size
			bytes += size
			s.PeakLive = max(s.PeakLive, int64(len(live)))
			s.PeakBytes = max(s.PeakBytes, bytes)
		case alloc.OpRelease:
			s.Releases++
			n, ok := live[e.Addr]
			if !ok {
				s.Unmatched++
				continue
			}
			delete(live, e.Addr)
			bytes -= n
		case alloc.OpFail:
			s.Failures++
		case alloc.OpViolation:
			s.Violations++
		}
	}
	s.Leaked = int64(len(live))
	return s
}

func init() {
	rootCmd.AddCommand(newTraceCmd())
}

func newTraceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "trace <file>",
		Short: "Summarize an allocator trace",
		Long: `The trace command replays an event log written by stress --trace and
reports allocation counts, peaks, the size distribution and any blocks left
allocated at the end.

Example:
  boxctl stress --trace run.trace
  boxctl trace run.trace --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(args[0])
		},
	}
}

func runTrace(path string) error {
	printVerbose("Reading trace: %s\n", path)
	t, err := readTrace(path)
	if err != nil {
		return err
	}
	s := summarize(t)

	if jsonOut {
		return printJSON(s)
	}

	printInfo("Trace: %s\n", path)
	printInfo("  Recorded: %s (%d workers, seed %d)\n", t.Created.Format(time.RFC3339), t.Workers, t.Seed)
	printInfo("  Capacity: %s\n\n", formatBytes(t.Capacity))

	printInfo("Events: %s\n", formatNumber(int64(s.Events)))
	printInfo("  Allocs:     %s\n", formatNumber(s.Allocs))
	printInfo("  Releases:   %s\n", formatNumber(s.Releases))
	printInfo("  Failures:   %s\n", formatNumber(s.Failures))
	printInfo("  Violations: %s\n", formatNumber(s.Violations))
	printInfo("  Unmatched:  %s\n\n", formatNumber(s.Unmatched))

	printInfo("Peak live blocks: %s\n", formatNumber(s.PeakLive))
	printInfo("Peak live bytes:  %s\n", formatBytes(s.PeakBytes))
	printInfo("Largest request:  %s\n", formatBytes(s.Largest))
	printInfo("Leaked blocks:    %s\n\n", formatNumber(s.Leaked))

	if s.Allocs > 0 {
		printInfo("Request sizes:\n")
		for _, b := range sizeBuckets {
			if n := s.Sizes[b.label]; n > 0 {
				printInfo("  %-6s %s (%.1f%%)\n", b.label, formatNumber(n), float64(n)*100/float64(s.Allocs))
			}
		}
	}
	return nil
}
