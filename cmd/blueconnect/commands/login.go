package commands

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/systmms/blueconnect/internal/config"
	bcerrors "github.com/systmms/blueconnect/internal/errors"
	"github.com/systmms/blueconnect/internal/secretsource"
)

func NewLoginCommand(cfg *config.Config) *cobra.Command {
	var save bool

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Check the account credentials",
		Long: `Log in to the Blue Connect API and report how long the temporary
credentials stay valid.

With --save the password is read from the terminal (or stdin), verified,
and stored in the OS keyring. Point account.password at it with:

  account:
    password:
      keyring:
        account: you@example.com

Examples:
  blueconnect login
  blueconnect login --save
  echo "$PASSWORD" | blueconnect login --save`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := cfg.Load(); err != nil {
				return err
			}

			var password string
			var err error
			if save {
				password, err = readPassword(cmd, cfg.NonInteractive)
			} else {
				password, err = cfg.Password(ctx)
			}
			if err != nil {
				return err
			}

			c, err := newClientWithPassword(cfg, password)
			if err != nil {
				return err
			}
			defer c.Close()

			creds, err := c.Credentials(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s, credentials valid until %s\n",
				c.Email(), creds.ExpiresAt.Local().Format("15:04:05"))

			if !save {
				return nil
			}

			ref := secretsource.KeyringRef{Account: c.Email()}
			configured := cfg.Definition.Account.Password.Keyring
			if configured != nil {
				ref = *configured
			}
			if err := secretsource.SaveToKeyring(ref, password); err != nil {
				return err
			}
			if ref.Service == "" {
				ref.Service = secretsource.DefaultKeyringService
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Password saved to keyring %s/%s\n", ref.Service, ref.Account)
			if configured == nil && cfg.Logger != nil {
				cfg.Logger.Warn("account.password does not use the keyring yet; set password.keyring.account to %s", ref.Account)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&save, "save", false, "Prompt for the password and store it in the OS keyring")
	return cmd
}

// readPassword reads a password without echo from a terminal, or a single
// line from piped input.
func readPassword(cmd *cobra.Command, nonInteractive bool) (string, error) {
	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		if nonInteractive {
			return "", bcerrors.UserError{
				Message:    "Password prompt disabled in non-interactive mode",
				Suggestion: "Pipe the password on stdin or drop --non-interactive",
			}
		}
		fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return string(b), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return "", bcerrors.UserError{
			Message:    "No password given",
			Suggestion: "Type the password at the prompt or pipe it on stdin",
		}
	}
	return password, nil
}
