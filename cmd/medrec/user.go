// ABOUTME: CLI commands for managing medrec accounts.
// ABOUTME: Creates accounts with bcrypt-hashed passwords and lists them.
package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/harperreed/medrec/internal/auth"
	"github.com/harperreed/medrec/internal/storage"
)

var userPassword string

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage accounts",
	Long: `Manage the accounts that own medical records.

Every record belongs to exactly one account. The HTTP API logs accounts in
with their password; local commands pick one with --user or default_user.

EXAMPLES:

  medrec user add alice                    # Prompts for a password
  medrec user add bob --password hunter22  # Non-interactive
  medrec user list`,
}

var userAddCmd = &cobra.Command{
	Use:   "add <username>",
	Short: "Create an account",
	Long: `Create an account. The password must be at least 6 characters.

When --password is not given the password is read from the terminal
without echo, or from the first line of stdin when stdin is not a terminal.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		password := userPassword
		if password == "" {
			var err error
			password, err = readPassword(cmd.InOrStdin(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
		}

		// Register never signs tokens, so no secret is needed here.
		svc := auth.NewService(repo, "", 0)
		u, err := svc.Register(args[0], password)
		if err != nil {
			if errors.Is(err, storage.ErrConflict) {
				return fmt.Errorf("username %q already exists", args[0])
			}
			return err
		}

		out := cmd.OutOrStdout()
		color.New(color.FgGreen).Fprintf(out, "✓ Created user %s\n", u.Username)
		fmt.Fprintf(out, "  %s\n", color.New(color.Faint).Sprintf("id %d", u.ID))
		return nil
	},
}

var userListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List accounts",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		users, err := repo.ListUsers()
		if err != nil {
			return fmt.Errorf("failed to list users: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(users) == 0 {
			fmt.Fprintln(out, "No users found.")
			return nil
		}

		faint := color.New(color.Faint)
		for _, u := range users {
			fmt.Fprintf(out, "%s %s %s\n",
				faint.Sprint(padRight(fmt.Sprint(u.ID), 4)),
				padRight(u.Username, 20),
				faint.Sprint(u.CreatedAt.Format("2006-01-02")))
		}
		return nil
	},
}

// readPassword prompts on a terminal and otherwise reads one line from in.
func readPassword(in io.Reader, prompt io.Writer) (string, error) {
	if f, ok := in.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		fmt.Fprint(prompt, "Password: ")
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(prompt)
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return string(b), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func init() {
	userAddCmd.Flags().StringVarP(&userPassword, "password", "p", "", "account password (prompted when omitted)")
	userCmd.AddCommand(userAddCmd)
	userCmd.AddCommand(userListCmd)
	rootCmd.AddCommand(userCmd)
}
