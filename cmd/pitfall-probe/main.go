package main

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sagarc03/pitfall/probe"
	"github.com/spf13/cobra"
)

var (
	version = "dev"

	cfgFile     string
	profileName string
	endpoint    string
	timeout     time.Duration
	jsonOutput  bool
	quiet       bool
)

var rootCmd = &cobra.Command{
	Use:     "pitfall-probe",
	Version: version,
	Short:   "Exercise a running pitfall server",
	Long: `pitfall-probe - checks a running pitfall server over HTTP

Checks:
  - traversal: malicious /file names must be rejected with 400
  - race:      concurrent /increment calls must all return distinct values
  - perf:      /duplicates must answer within the grading thresholds
  - all:       runs the three checks in order

Each check exits non-zero when it fails.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "profile file (default: ~/.pitfall/probe.yaml, env: PITFALL_PROBE_CONFIG)")
	rootCmd.PersistentFlags().StringVarP(&profileName, "profile", "p", "", "profile name (env: PITFALL_PROFILE)")
	rootCmd.PersistentFlags().StringVarP(&endpoint, "endpoint", "e", "", "server URL (default: http://localhost:3000, env: PITFALL_ENDPOINT)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "HTTP timeout (default: 30s)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "print only verdicts")

	rootCmd.AddCommand(traversalCmd)
	rootCmd.AddCommand(raceCmd)
	rootCmd.AddCommand(perfCmd)
	rootCmd.AddCommand(allCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(configureCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

// getConfigPath resolves the profile file: flag, then env, then default.
func getConfigPath() string {
	switch env := probe.LookupEnv(); {
	case cfgFile != "":
		return cfgFile
	case env.ProfilesPath != "":
		return env.ProfilesPath
	default:
		return probe.ProfilesPath()
	}
}

// buildConfig layers the selected profile, then PITFALL_ENDPOINT, then flags.
// A missing profile file is only an error when a profile or file was asked for.
func buildConfig() (*probe.Config, error) {
	env := probe.LookupEnv()
	name := cmp.Or(profileName, env.Profile)

	var cfg probe.Config
	if path := getConfigPath(); path != "" {
		target, err := selectTarget(path, name)
		if err != nil {
			return nil, err
		}
		cfg = target.Config()
	}

	cfg = cfg.Override(probe.Config{Endpoint: env.Endpoint}).
		Override(probe.Config{Endpoint: endpoint, Timeout: timeout})
	return &cfg, nil
}

func selectTarget(path, name string) (probe.Profile, error) {
	explicit := name != "" || cfgFile != ""

	profiles, err := probe.ReadProfiles(path)
	if err != nil {
		if explicit {
			return probe.Profile{}, fmt.Errorf("load profiles: %w", err)
		}
		return probe.Profile{}, nil
	}

	target, err := profiles.Lookup(name)
	if errors.Is(err, probe.ErrNoProfiles) && name == "" {
		return probe.Profile{}, nil
	}
	return target, err
}

func getFormatter() probe.Formatter {
	return probe.NewFormatter(jsonOutput, quiet)
}

func getClient() (*probe.Client, error) {
	cfg, err := buildConfig()
	if err != nil {
		return nil, err
	}
	return probe.New(cfg)
}
