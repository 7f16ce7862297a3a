package main

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/joshuapare/boxkit/internal/config"
)

// useTestConfig installs a small heap-backed arena config and a test logger
// for the duration of t, and resets the global flags afterwards.
func useTestConfig(t *testing.T) {
	t.Helper()
	prevCfg, prevLogger := cfg, logger
	prevJSON, prevQuiet, prevVerbose := jsonOut, quiet, verbose
	prevWorkers, prevIters, prevSeed, prevTrace := stressWorkers, stressIterations, stressSeed, stressTrace

	c := config.Default()
	c.Arena.Size = 256 << 10
	c.Arena.Backing = config.BackingHeap
	c.Stress.Workers = 4
	c.Stress.Iterations = 500
	c.Stress.MaxPayload = 128
	cfg = c
	logger = zaptest.NewLogger(t, zaptest.Level(zap.ErrorLevel))

	t.Cleanup(func() {
		cfg, logger = prevCfg, prevLogger
		jsonOut, quiet, verbose = prevJSON, prevQuiet, prevVerbose
		stressWorkers, stressIterations, stressSeed, stressTrace = prevWorkers, prevIters, prevSeed, prevTrace
	})
}

// captureOutput captures stdout while running a function
func captureOutput(t *testing.T, fn func() error) (string, error) {
	t.Helper()

	origStdout := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create pipe: %v", err)
	}
	os.Stdout = w

	// Drain concurrently so large outputs cannot fill the pipe.
	done := make(chan struct{})
	var buf bytes.Buffer
	go func() {
		_, _ = buf.ReadFrom(r)
		close(done)
	}()

	fnErr := fn()

	w.Close()
	os.Stdout = origStdout
	<-done
	r.Close()

	return buf.String(), fnErr
}

// assertJSON checks that output is valid JSON
func assertJSON(t *testing.T, output string) {
	t.Helper()
	var result any
	if err := json.Unmarshal([]byte(output), &result); err != nil {
		t.Errorf("invalid JSON output: %v\nOutput: %s", err, output)
	}
}

// assertContains checks that output contains all expected strings
func assertContains(t *testing.T, output string, expected []string) {
	t.Helper()
	for _, want := range expected {
		if !strings.Contains(output, want) {
			t.Errorf("output missing expected string %q\nGot: %s", want, output)
		}
	}
}
