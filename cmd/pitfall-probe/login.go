package main

import (
	"os"

	"github.com/spf13/cobra"
)

var loginCmd = &cobra.Command{
	Use:   "login <username> <password>",
	Short: "Log in and print what the server returns",
	Long: `Post credentials to /login and print the response.

A successful login prints the user record exactly as the server sent it,
which makes a server that echoes the stored password easy to spot.

Examples:
  pitfall-probe login admin admin123
  pitfall-probe login user1 password1 --json`,
	Args: cobra.ExactArgs(2),
	RunE: runLogin,
}

func runLogin(cmd *cobra.Command, args []string) error {
	client, err := getClient()
	if err != nil {
		return err
	}

	formatter := getFormatter()
	result, err := client.Login(cmd.Context(), args[0], args[1])
	if err != nil {
		_ = formatter.FormatError(os.Stderr, err)
		return err
	}

	return formatter.FormatLogin(os.Stdout, result)
}
