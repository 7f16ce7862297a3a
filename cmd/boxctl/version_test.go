package main

import (
	"runtime"
	"runtime/debug"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setStamp(t *testing.T, v, c, d string) {
	t.Helper()
	prevV, prevC, prevD := version, commit, date
	t.Cleanup(func() { version, commit, date = prevV, prevC, prevD })
	version, commit, date = v, c, d
}

func vcsInfo(modified string) *debug.BuildInfo {
	return &debug.BuildInfo{
		Main: debug.Module{Path: "github.com/joshuapare/boxkit", Version: "v0.2.1"},
		Settings: []debug.BuildSetting{
			{Key: "vcs", Value: "git"},
			{Key: "vcs.revision", Value: "4f1c2a9e7b3d5c6a8e9f0123456789abcdef0123"},
			{Key: "vcs.time", Value: "2026-10-01T09:30:00Z"},
			{Key: "vcs.modified", Value: modified},
		},
	}
}

func TestResolveStamp_NoInfo(t *testing.T) {
	setStamp(t, "", "", "")
	assert.Equal(t, buildStamp{Version: "dev", Commit: "none", Date: "unknown"}, resolveStamp(nil))
}

func TestResolveStamp_FromBuildInfo(t *testing.T) {
	setStamp(t, "", "", "")
	assert.Equal(t, buildStamp{Version: "v0.2.1", Commit: "4f1c2a9e7b3d", Date: "2026-10-01T09:30:00Z"},
		resolveStamp(vcsInfo("false")))
	assert.Equal(t, "4f1c2a9e7b3d-dirty", resolveStamp(vcsInfo("true")).Commit)
}

func TestResolveStamp_LdflagsWin(t *testing.T) {
	setStamp(t, "v1.0.0", "abc1234", "2026-10-19T00:00:00Z")
	assert.Equal(t, buildStamp{Version: "v1.0.0", Commit: "abc1234", Date: "2026-10-19T00:00:00Z"},
		resolveStamp(vcsInfo("true")))
}

func TestResolveStamp_DevelVersion(t *testing.T) {
	setStamp(t, "", "", "")
	info := vcsInfo("false")
	info.Main.Version = "(devel)"
	assert.Equal(t, "dev", resolveStamp(info).Version)
}

func TestVersionCommand(t *testing.T) {
	setStamp(t, "v1.0.0", "abc1234", "2026-10-19T00:00:00Z")
	out, err := captureOutput(t, func() error {
		versionCmd.Run(versionCmd, nil)
		return nil
	})
	require.NoError(t, err)
	assertContains(t, out, []string{"boxctl v1.0.0", "commit: abc1234", "built: 2026-10-19T00:00:00Z", runtime.Version()})
}
