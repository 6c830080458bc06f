package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/manifoldco/promptui"
	"github.com/sagarc03/pitfall/probe"
	"github.com/spf13/cobra"
)

var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Manage saved probe targets",
	Long: `Manage the pitfall servers saved in the profile file.

A profile holds a server endpoint and an optional request timeout. Select
one with --profile or PITFALL_PROFILE; without either the default profile
is used.

Profiles are stored in ~/.pitfall/probe.yaml (override with --config or
PITFALL_PROBE_CONFIG).`,
}

var configureListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved profiles (default marked *)",
	Args:  cobra.NoArgs,
	RunE:  runConfigureList,
}

var configureAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Save a profile, replacing one of the same name",
	Long: `Save a profile. Missing values are prompted for.

The server's /healthz is checked before saving unless --no-check is set.

Examples:
  pitfall-probe configure add local
  pitfall-probe configure add staging --endpoint http://staging:3000 --timeout 5s --default`,
	Args: cobra.ExactArgs(1),
	RunE: runConfigureAdd,
}

var configureRemoveCmd = &cobra.Command{
	Use:     "remove <name>",
	Aliases: []string{"rm"},
	Short:   "Remove a profile",
	Args:    cobra.ExactArgs(1),
	RunE:    runConfigureRemove,
}

var configureSetDefaultCmd = &cobra.Command{
	Use:   "set-default <name>",
	Short: "Make a profile the default",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigureSetDefault,
}

var configureShowCmd = &cobra.Command{
	Use:   "show [name]",
	Short: "Show one profile (default when no name is given)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runConfigureShow,
}

var (
	addEndpoint  string
	addTimeout   time.Duration
	addDefault   bool
	addNoCheck   bool
	removeAssume bool
)

func init() {
	configureAddCmd.Flags().StringVar(&addEndpoint, "endpoint", "", "server URL (prompted when empty)")
	configureAddCmd.Flags().DurationVar(&addTimeout, "timeout", 0, "request timeout for this profile (0 uses the client default)")
	configureAddCmd.Flags().BoolVar(&addDefault, "default", false, "make this the default profile")
	configureAddCmd.Flags().BoolVar(&addNoCheck, "no-check", false, "save without checking /healthz")
	configureRemoveCmd.Flags().BoolVarP(&removeAssume, "yes", "y", false, "do not ask for confirmation")

	configureCmd.AddCommand(configureListCmd, configureAddCmd, configureRemoveCmd, configureSetDefaultCmd, configureShowCmd)
}

// profileFile is the profile set read from path.
type profileFile struct {
	path string
	*probe.Profiles
}

// openProfiles reads the profile file. A missing file reads as empty when
// allowMissing is set.
func openProfiles(allowMissing bool) (*profileFile, error) {
	path := getConfigPath()
	if path == "" {
		return nil, errors.New("no profile file: set --config or PITFALL_PROBE_CONFIG")
	}

	ps, err := probe.ReadProfiles(path)
	switch {
	case err == nil:
	case allowMissing && errors.Is(err, os.ErrNotExist):
		ps = &probe.Profiles{}
	default:
		return nil, err
	}
	return &profileFile{path: path, Profiles: ps}, nil
}

func (f *profileFile) save() error {
	return f.WriteFile(f.path)
}

// find is Lookup with the saved names appended to a miss.
func (f *profileFile) find(name string) (probe.Profile, error) {
	p, err := f.Lookup(name)
	switch {
	case errors.Is(err, probe.ErrProfileNotFound):
		return p, fmt.Errorf("%w (saved: %s)", err, strings.Join(f.Names(), ", "))
	case errors.Is(err, probe.ErrNoProfiles):
		return p, fmt.Errorf("%w: run 'pitfall-probe configure add <name>'", err)
	}
	return p, err
}

func runConfigureList(cmd *cobra.Command, _ []string) error {
	f, err := openProfiles(true)
	if err != nil {
		return err
	}
	if len(f.Targets) == 0 {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No profiles saved. Run 'pitfall-probe configure add <name>'.")
		return nil
	}
	return getFormatter().FormatProfileList(cmd.OutOrStdout(), f.Targets, f.Selected().Name)
}

func runConfigureAdd(cmd *cobra.Command, args []string) error {
	f, err := openProfiles(true)
	if err != nil {
		return err
	}

	target := probe.Profile{Name: args[0], Endpoint: addEndpoint, Timeout: addTimeout}
	if target.Endpoint == "" {
		prompt := promptui.Prompt{Label: "Endpoint URL", Default: probe.DefaultEndpoint, Validate: probe.ValidateEndpoint}
		if target.Endpoint, err = prompt.Run(); err != nil {
			return promptError(err)
		}
	} else if err = probe.ValidateEndpoint(target.Endpoint); err != nil {
		return err
	}
	target.Endpoint = strings.TrimSuffix(target.Endpoint, "/")

	if !addNoCheck {
		if err := checkTarget(cmd.Context(), cmd.OutOrStdout(), target); err != nil && !confirm("Save profile anyway") {
			return nil
		}
	}

	created := f.Put(target)
	if addDefault {
		_ = f.Use(target.Name)
	}
	if err := f.save(); err != nil {
		return err
	}

	verb := "updated"
	if created {
		verb = "saved"
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Profile %q %s.", target.Name, verb)
	if f.IsDefault(target.Name) {
		_, _ = fmt.Fprint(cmd.OutOrStdout(), " It is the default.")
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout())
	return nil
}

func runConfigureRemove(cmd *cobra.Command, args []string) error {
	f, err := openProfiles(false)
	if err != nil {
		return err
	}
	if _, err := f.find(args[0]); err != nil {
		return err
	}
	if !removeAssume && !confirm(fmt.Sprintf("Remove profile %q", args[0])) {
		return nil
	}
	if err := f.Delete(args[0]); err != nil {
		return err
	}
	if err := f.save(); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Profile %q removed.\n", args[0])
	return nil
}

func runConfigureSetDefault(cmd *cobra.Command, args []string) error {
	f, err := openProfiles(false)
	if err != nil {
		return err
	}
	if _, err := f.find(args[0]); err != nil {
		return err
	}
	_ = f.Use(args[0])
	if err := f.save(); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Default profile is now %q.\n", args[0])
	return nil
}

func runConfigureShow(cmd *cobra.Command, args []string) error {
	f, err := openProfiles(false)
	if err != nil {
		return err
	}

	name := ""
	if len(args) == 1 {
		name = args[0]
	}
	target, err := f.find(name)
	if err != nil {
		return err
	}
	return getFormatter().FormatProfileShow(cmd.OutOrStdout(), target, f.IsDefault(target.Name))
}

// checkTarget reports whether the target answers /healthz within its timeout.
func checkTarget(ctx context.Context, w io.Writer, target probe.Profile) error {
	cfg := probe.Config{Timeout: 5 * time.Second}.Override(target.Config())
	client, err := probe.New(&cfg)
	if err == nil {
		err = client.Health(ctx)
	}
	if err != nil {
		_, _ = fmt.Fprintf(w, "Health check of %s failed: %v\n", target.Endpoint, err)
		return err
	}
	_, _ = fmt.Fprintf(w, "Health check of %s OK\n", target.Endpoint)
	return nil
}

// confirm asks a yes/no question; anything but yes counts as no.
func confirm(label string) bool {
	prompt := promptui.Prompt{Label: label, IsConfirm: true}
	_, err := prompt.Run()
	return err == nil
}

// promptError treats an aborted prompt as a clean exit.
func promptError(err error) error {
	if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrAbort) {
		return nil
	}
	return fmt.Errorf("prompt: %w", err)
}
