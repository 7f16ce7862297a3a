package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/joshuapare/boxkit/alloc"
	"github.com/joshuapare/boxkit/internal/config"
	"github.com/joshuapare/boxkit/internal/logging"
)

var (
	// Global flags
	verbose    bool
	quiet      bool
	jsonOut    bool
	noColor    bool
	configPath string

	// Set up by the root command before any subcommand runs.
	cfg    = config.Default()
	logger = zap.NewNop()
)

var printer = message.NewPrinter(language.English)

var rootCmd = &cobra.Command{
	Use:   "boxctl",
	Short: "Exercise and inspect boxkit allocators",
	Long: `boxctl drives the boxkit ownership primitives against a real arena.
It runs the ownership scenarios, stress tests concurrent allocation and
summarizes recorded allocator traces.`,
	Version:       currentStamp().Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a TOML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output and debug logging")
	rootCmd.PersistentFlags().
		BoolVarP(&quiet, "quiet", "q", false, "Suppress all output except errors")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
}

func execute() {
	err := rootCmd.Execute()
	_ = logger.Sync()
	if err != nil {
		printError("%v\n", err)
		os.Exit(1)
	}
}

// setup loads the config and builds the logger shared by every command.
func setup() error {
	c, err := config.Load(configPath)
	if err != nil {
		return err
	}
	l, err := logging.New(logging.Verbose(c.Log, verbose))
	if err != nil {
		return err
	}
	cfg, logger = c, l
	if noColor {
		color.NoColor = true
	}
	logger.Debug("config loaded",
		zap.String("path", configPath),
		zap.Int64("arena_size", cfg.Arena.Size),
		zap.String("backing", string(cfg.Arena.Backing)))
	return nil
}

// openArena builds the arena described by c.Arena.
func openArena(c config.Config) (*alloc.Arena, error) {
	size, err := c.ArenaSize()
	if err != nil {
		return nil, err
	}
	switch c.Arena.Backing {
	case config.BackingHeap:
		return alloc.NewHeapArena(size)
	case config.BackingMmap:
		return alloc.NewMappedArena(size)
	case config.BackingFile:
		r, err := alloc.MapFileRegion(c.Arena.Path, size)
		if err != nil {
			return nil, err
		}
		a, err := alloc.NewArena(r)
		if err != nil {
			_ = r.Close()
			return nil, err
		}
		return a, nil
	default:
		return nil, fmt.Errorf("unknown arena backing %q", c.Arena.Backing)
	}
}

// Helper functions for output

// printInfo prints an info message if not in quiet mode
func printInfo(format string, args ...any) {
	if !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printError prints an error message
func printError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format, args...)
}

// printVerbose prints a verbose message if verbose mode is enabled
func printVerbose(format string, args ...any) {
	if verbose && !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printJSON outputs data as JSON
func printJSON(v any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

func formatNumber(n int64) string {
	return printer.Sprintf("%d", n)
}
