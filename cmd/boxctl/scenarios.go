package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/joshuapare/boxkit/alloc"
)

func init() {
	rootCmd.AddCommand(newScenariosCmd())
}

func newScenariosCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scenarios [name...]",
		Short: "Run the ownership scenarios",
		Long: `The scenarios command runs every ownership scenario and property check
against the configured arena and reports PASS or FAIL for each. It exits with
status 1 when any check fails. Names select a subset of checks.

Example:
  boxctl scenarios
  boxctl scenarios leak raw-round-trip
  boxctl scenarios --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarios(args)
		},
	}
	return cmd
}

type checkResult struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Passed      bool   `json:"passed"`
	Error       string `json:"error,omitempty"`
}

func selectChecks(names []string) ([]check, error) {
	if len(names) == 0 {
		return checks, nil
	}
	selected := make([]check, 0, len(names))
	for _, name := range names {
		found := false
		for _, c := range checks {
			if strings.EqualFold(c.name, name) {
				selected = append(selected, c)
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("unknown check %q", name)
		}
	}
	return selected, nil
}

func runScenarios(names []string) error {
	selected, err := selectChecks(names)
	if err != nil {
		return err
	}

	arena, err := openArena(cfg)
	if err != nil {
		return fmt.Errorf("open arena: %w", err)
	}
	defer arena.Close()
	base := alloc.NewLogged(arena, logger)

	results := make([]checkResult, 0, len(selected)+1)
	for _, c := range selected {
		err := runCheck(c, base)
		logger.Debug("check finished", zap.String("check", c.name), zap.Error(err))
		results = append(results, newResult(c.name, c.desc, err))
	}

	integrity := arena.Verify()
	if integrity == nil {
		if live := arena.Stats().Live; live != 0 {
			integrity = fmt.Errorf("%d blocks still allocated", live)
		}
	}
	results = append(results, newResult("arena", "arena headers and free list stay consistent", integrity))

	failed := 0
	for _, r := range results {
		if !r.Passed {
			failed++
		}
	}

	if jsonOut {
		if err := printJSON(results); err != nil {
			return err
		}
	} else {
		printResults(results, failed)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d checks failed", failed, len(results))
	}
	return nil
}

func newResult(name, desc string, err error) checkResult {
	r := checkResult{Name: name, Description: desc, Passed: err == nil}
	if err != nil {
		r.Error = err.Error()
	}
	return r
}

func printResults(results []checkResult, failed int) {
	pass := color.New(color.FgGreen, color.Bold).SprintFunc()
	fail := color.New(color.FgRed, color.Bold).SprintFunc()

	for _, r := range results {
		status := pass("PASS")
		if !r.Passed {
			status = fail("FAIL")
		}
		printInfo("%s  %-15s %s\n", status, r.Name, r.Description)
		if r.Error != "" {
			printInfo("      %-15s %s\n", "", r.Error)
		}
	}
	printInfo("\n%d checks, %d failed\n", len(results), failed)
}
