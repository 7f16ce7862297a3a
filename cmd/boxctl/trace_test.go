package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/joshuapare/boxkit/alloc"
	"github.com/joshuapare/boxkit/internal/writer"
)

func sampleTrace() *traceFile {
	return &traceFile{
		Version:  traceVersion,
		Created:  time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Workers:  1,
		Seed:     7,
		Capacity: 4096,
		Events: []alloc.Event{
			{Seq: 1, Op: alloc.OpAlloc, Addr: 0x1000, Size: 8},
			{Seq: 2, Op: alloc.OpAlloc, Addr: 0x2000, Size: 2048},
			{Seq: 3, Op: alloc.OpFail, Size: 4096},
			{Seq: 4, Op: alloc.OpRelease, Addr: 0x1000, Size: 8},
			{Seq: 5, Op: alloc.OpViolation, Addr: 0x1000},
			{Seq: 6, Op: alloc.OpRelease, Addr: 0x3000, Size: 16},
			{Seq: 7, Op: alloc.OpAlloc, Addr: 0x1000, Size: 100},
		},
	}
}

func TestSummarize(t *testing.T) {
	got := summarize(sampleTrace())
	want := traceSummary{
		Events:     7,
		Allocs:     3,
		Releases:   2,
		Failures:   1,
		Violations: 1,
		Unmatched:  1,
		PeakLive:   2,
		PeakBytes:  2148,
		Leaked:     2,
		Largest:    2048,
		Sizes:      map[string]int64{"<=16": 1, "<=256": 1, ">1K": 1},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("summarize mismatch (-want +got):\n%s", diff)
	}
}

func TestSummarize_OrdersBySequence(t *testing.T) {
	tf := sampleTrace()
	tf.Events[0], tf.Events[3] = tf.Events[3], tf.Events[0]
	assert.Equal(t, summarize(sampleTrace()), summarize(tf))
}

func TestSizeBucket(t *testing.T) {
	cases := map[int64]string{1: "<=16", 16: "<=16", 17: "<=64", 256: "<=256", 1024: "<=1K", 1025: ">1K"}
	for n, want := range cases {
		assert.Equal(t, want, sizeBucket(n), "size %d", n)
	}
}

func TestTraceRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.trace")
	want := sampleTrace()
	require.NoError(t, writeTrace(&writer.FileWriter{Path: path}, want))

	got, err := readTrace(path)
	require.NoError(t, err)
	assert.True(t, want.Created.Equal(got.Created))
	got.Created = want.Created
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("trace mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteTrace_Memory(t *testing.T) {
	var w writer.MemWriter
	require.NoError(t, writeTrace(&w, sampleTrace()))
	assert.Equal(t, 1, w.Puts)

	got, err := decodeTrace(w.Buf)
	require.NoError(t, err)
	assert.Equal(t, summarize(sampleTrace()), summarize(got))
}

func TestWriteTrace_TrackedEvents(t *testing.T) {
	tr := alloc.NewTracking(alloc.Limit(alloc.NewHeap(), 2), alloc.WithEvents())
	p1 := tr.Alloc(24)
	p2 := tr.Alloc(3000)
	require.NotNil(t, p1)
	require.NotNil(t, p2)
	require.Nil(t, tr.Alloc(8))
	tr.Release(p1)

	tf := sampleTrace()
	tf.Stats = tr.Stats()
	tf.Events = tr.Events()

	var w writer.MemWriter
	require.NoError(t, writeTrace(&w, tf))
	got, err := decodeTrace(w.Buf)
	require.NoError(t, err)
	if diff := cmp.Diff(tf.Events, got.Events); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, tf.Stats, got.Stats)

	s := summarize(got)
	assert.Equal(t, int64(2), s.Allocs)
	assert.Equal(t, int64(1), s.Failures)
	assert.Equal(t, int64(1), s.Leaked)
	assert.Equal(t, int64(3000), s.Largest)
	assert.Equal(t, int64(3024), s.PeakBytes)
	tr.Release(p2)
}

func TestReadTrace_BadVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "future.trace")
	data, err := msgpack.Marshal(&traceFile{Version: traceVersion + 1})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	_, err = readTrace(path)
	require.ErrorIs(t, err, errTraceVersion)
}

func TestReadTrace_Garbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.trace")
	require.NoError(t, os.WriteFile(path, []byte{0xc1, 0x00}, 0o644))

	_, err := readTrace(path)
	require.Error(t, err)
}

func TestTraceCommand(t *testing.T) {
	useTestConfig(t)
	path := filepath.Join(t.TempDir(), "sample.trace")
	require.NoError(t, writeTrace(&writer.FileWriter{Path: path}, sampleTrace()))

	out, err := captureOutput(t, func() error { return runTrace(path) })
	require.NoError(t, err)
	assertContains(t, out, []string{"Events: 7", "Leaked blocks:    2", "Peak live bytes:  2.1 KB", ">1K"})

	jsonOut = true
	out, err = captureOutput(t, func() error { return runTrace(path) })
	require.NoError(t, err)
	assertJSON(t, out)
}
