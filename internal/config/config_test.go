package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "boxctl.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestLoad_EmptyPath(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Errorf("Load(\"\") mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
[arena]
size = 65536
backing = "heap"

[log]
level = "debug"

[stress]
workers = 2
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	want := Default()
	want.Arena.Size = 65536
	want.Arena.Backing = BackingHeap
	want.Log.Level = "debug"
	want.Stress.Workers = 2
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("Load mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_UnknownKey(t *testing.T) {
	path := writeConfig(t, "[arena]\nsise = 10\n")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "arena.sise")
}

func TestLoad_Invalid(t *testing.T) {
	path := writeConfig(t, "[arena]\nbacking = \"file\"\nsize = -1\n")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "arena.size must be positive")
	assert.Contains(t, err.Error(), "arena.path is required")
}

func TestLoad_Malformed(t *testing.T) {
	_, err := Load(writeConfig(t, "[arena\n"))
	require.Error(t, err)
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"bad backing", func(c *Config) { c.Arena.Backing = "tape" }, `arena.backing "tape"`},
		{"no workers", func(c *Config) { c.Stress.Workers = 0 }, "stress.workers"},
		{"negative iterations", func(c *Config) { c.Stress.Iterations = -1 }, "stress.iterations"},
		{"zero payload", func(c *Config) { c.Stress.MaxPayload = 0 }, "stress.max_payload"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}
