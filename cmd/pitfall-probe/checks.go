package main

import (
	"fmt"
	"os"
	"time"

	"github.com/sagarc03/pitfall/probe"
	"github.com/spf13/cobra"
)

var (
	traversalValid string
	traversalNames []string
	raceRequests   int
	perfExcellent  time.Duration
	perfGood       time.Duration
	perfWarning    time.Duration
)

var traversalCmd = &cobra.Command{
	Use:   "traversal",
	Short: "Request malicious file names and expect 400 for each",
	Long: `Request /file with path traversal names and expect every one to be rejected.

Default names:
  ../../../etc/passwd
  ../../app.js
  ../secret.txt
  valid.txt/../../etc/passwd

Examples:
  pitfall-probe traversal
  pitfall-probe traversal --valid sample.txt
  pitfall-probe traversal --name ../x --name ..%2fy`,
	Args: cobra.NoArgs,
	RunE: runTraversal,
}

var raceCmd = &cobra.Command{
	Use:   "race",
	Short: "Fire concurrent increments and expect distinct values",
	Args:  cobra.NoArgs,
	RunE:  runRace,
}

var perfCmd = &cobra.Command{
	Use:   "perf",
	Short: "Time /duplicates and grade the response",
	Long: `Time one /duplicates request and grade it.

  < excellent threshold (100ms)  excellent
  < good threshold      (500ms)  good
  < warning threshold   (1s)     warning
  otherwise                      fail`,
	Args: cobra.NoArgs,
	RunE: runPerf,
}

var allCmd = &cobra.Command{
	Use:   "all",
	Short: "Run traversal, race and perf",
	Args:  cobra.NoArgs,
	RunE:  runAll,
}

func init() {
	for _, cmd := range []*cobra.Command{traversalCmd, allCmd} {
		cmd.Flags().StringVar(&traversalValid, "valid", "", "existing file that must be served with 200")
		cmd.Flags().StringArrayVar(&traversalNames, "name", nil, "name to request instead of the defaults (repeatable)")
	}
	for _, cmd := range []*cobra.Command{raceCmd, allCmd} {
		cmd.Flags().IntVarP(&raceRequests, "requests", "n", probe.DefaultRaceConcurrency, "concurrent increments")
	}
	for _, cmd := range []*cobra.Command{perfCmd, allCmd} {
		cmd.Flags().DurationVar(&perfExcellent, "excellent", probe.DefaultExcellent, "excellent threshold")
		cmd.Flags().DurationVar(&perfGood, "good", probe.DefaultGood, "good threshold")
		cmd.Flags().DurationVar(&perfWarning, "warning", probe.DefaultWarning, "warning threshold")
	}
}

func traversalOptions() probe.TraversalOptions {
	return probe.TraversalOptions{Names: traversalNames, ValidName: traversalValid}
}

func perfOptions() probe.PerfOptions {
	return probe.PerfOptions{Excellent: perfExcellent, Good: perfGood, Warning: perfWarning}
}

// verdict turns a failed check into a non-zero exit without printing a
// second error line.
func verdict(passed bool, check string) error {
	if passed {
		return nil
	}
	return fmt.Errorf("%s: %w", check, probe.ErrCheckFailed)
}

func runTraversal(cmd *cobra.Command, _ []string) error {
	client, err := getClient()
	if err != nil {
		return err
	}

	formatter := getFormatter()
	report, err := probe.CheckTraversal(cmd.Context(), client, traversalOptions())
	if err != nil {
		_ = formatter.FormatError(os.Stderr, err)
		return err
	}

	if err := formatter.FormatTraversal(os.Stdout, report); err != nil {
		return err
	}
	return verdict(report.Passed, "traversal")
}

func runRace(cmd *cobra.Command, _ []string) error {
	client, err := getClient()
	if err != nil {
		return err
	}

	formatter := getFormatter()
	report, err := probe.CheckRace(cmd.Context(), client, probe.RaceOptions{Concurrency: raceRequests})
	if err != nil {
		_ = formatter.FormatError(os.Stderr, err)
		return err
	}

	if err := formatter.FormatRace(os.Stdout, report); err != nil {
		return err
	}
	return verdict(report.Passed, "race")
}

func runPerf(cmd *cobra.Command, _ []string) error {
	client, err := getClient()
	if err != nil {
		return err
	}

	formatter := getFormatter()
	report, err := probe.CheckPerf(cmd.Context(), client, perfOptions())
	if err != nil {
		_ = formatter.FormatError(os.Stderr, err)
		return err
	}

	if err := formatter.FormatPerf(os.Stdout, report); err != nil {
		return err
	}
	return verdict(report.Passed, "perf")
}

func runAll(cmd *cobra.Command, _ []string) error {
	client, err := getClient()
	if err != nil {
		return err
	}

	report := probe.RunAll(cmd.Context(), client, probe.AllOptions{
		Traversal: traversalOptions(),
		Race:      probe.RaceOptions{Concurrency: raceRequests},
		Perf:      perfOptions(),
	})

	if err := getFormatter().FormatReport(os.Stdout, report); err != nil {
		return err
	}
	return verdict(report.Passed(), "all")
}
