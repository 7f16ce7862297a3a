package main

import (
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// Release builds stamp these with
//
//	go build -ldflags "-X main.version=v0.3.0 -X main.commit=$(git rev-parse --short HEAD) -X main.date=$(date -u +%Y-%m-%dT%H:%M:%SZ)" ./cmd/boxctl
//
// Anything left empty falls back to the module and VCS data go build embeds.
var (
	version = ""
	commit  = ""
	date    = ""
)

type buildStamp struct {
	Version string
	Commit  string
	Date    string
}

// resolveStamp merges the ldflags values with info, which may be nil.
func resolveStamp(info *debug.BuildInfo) buildStamp {
	s := buildStamp{Version: version, Commit: commit, Date: date}
	if info != nil {
		if s.Version == "" && info.Main.Version != "" && info.Main.Version != "(devel)" {
			s.Version = info.Main.Version
		}
		var rev, modified string
		for _, kv := range info.Settings {
			switch kv.Key {
			case "vcs.revision":
				rev = kv.Value
			case "vcs.modified":
				modified = kv.Value
			case "vcs.time":
				if s.Date == "" {
					s.Date = kv.Value
				}
			}
		}
		if s.Commit == "" && rev != "" {
			s.Commit = rev[:min(len(rev), 12)]
			if modified == "true" {
				s.Commit += "-dirty"
			}
		}
	}
	if s.Version == "" {
		s.Version = "dev"
	}
	if s.Commit == "" {
		s.Commit = "none"
	}
	if s.Date == "" {
		s.Date = "unknown"
	}
	return s
}

func currentStamp() buildStamp {
	info, _ := debug.ReadBuildInfo()
	return resolveStamp(info)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		s := currentStamp()
		fmt.Printf("boxctl %s\n", s.Version)
		fmt.Printf("  commit: %s\n", s.Commit)
		fmt.Printf("  built: %s\n", s.Date)
		fmt.Printf("  go: %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
