package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sagarc03/pitfall"
	"github.com/sagarc03/pitfall/database"
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "List the seeded credential store",
	Long: `Open the configured credential store, apply the seed records and print
every user. Passwords are masked unless --show-passwords is set.`,
	RunE: runUsers,
}

var usersShowPasswords bool

func init() {
	usersCmd.Flags().BoolVar(&usersShowPasswords, "show-passwords", false, "print passwords in plaintext")
	rootCmd.AddCommand(usersCmd)
}

func runUsers(cmd *cobra.Command, args []string) error {
	cfg, err := configFromContext(cmd.Context())
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	store, closeStore, err := database.OpenUserStore(ctx, cfg.Users.Database(), cfg.Users.Seed())
	if err != nil {
		return fmt.Errorf("open credential store: %w", err)
	}
	defer closeStore()

	users, err := store.List(ctx)
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}

	return printUsers(cmd.OutOrStdout(), users, usersShowPasswords)
}

func printUsers(w io.Writer, users []pitfall.UserRecord, showPasswords bool) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tUSERNAME\tPASSWORD\tROLE")
	for _, u := range users {
		password := u.Password
		if !showPasswords {
			password = strings.Repeat("*", len(u.Password))
		}
		_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", u.ID, u.Username, password, u.Role)
	}
	return tw.Flush()
}
