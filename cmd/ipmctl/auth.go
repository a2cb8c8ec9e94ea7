package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/iliyamo/ip-manager/internal/session"
)

var (
	loginUser     string
	passwdNewUser string

	loginCmd = &cobra.Command{
		Use:   "login",
		Short: "Sign in with username and password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if loginUser == "" {
				return errors.New("--username is required")
			}
			pw, err := readSecret(cmd, "Password: ")
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app) error {
				s, err := a.sessions.LoginWithPassword(ctx, loginUser, pw)
				if err != nil {
					return err
				}
				printSession(cmd.OutOrStdout(), s)
				return nil
			})
		},
	}

	pinCmd = &cobra.Command{
		Use:   "pin",
		Short: "Sign in with a PIN",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pin, err := readSecret(cmd, "PIN: ")
			if err != nil {
				return err
			}
			if pin == "" {
				return errors.New("empty PIN")
			}
			return withApp(cmd, func(ctx context.Context, a *app) error {
				s, err := a.sessions.LoginWithPin(ctx, pin)
				if err != nil {
					return err
				}
				printSession(cmd.OutOrStdout(), s)
				return nil
			})
		},
	}

	whoamiCmd = &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				s, err := requireSession(ctx, a)
				if err != nil {
					return err
				}
				printSession(cmd.OutOrStdout(), *s)
				return nil
			})
		},
	}

	logoutCmd = &cobra.Command{
		Use:   "logout",
		Short: "Remove the local session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				if err := a.sessions.Logout(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
				return nil
			})
		},
	}

	passwdCmd = &cobra.Command{
		Use:   "passwd",
		Short: "Change the signed-in user's username and password",
		Long: `Change the username and, when a new password is entered, the password of
the signed-in user. Leave the password empty to keep the current one.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				s, err := requireSession(ctx, a)
				if err != nil {
					return err
				}
				username := passwdNewUser
				if username == "" {
					username = s.User.Username
				}
				pw, err := readSecret(cmd, "New password (empty keeps the current one): ")
				if err != nil {
					return err
				}
				if err := a.sessions.ChangeCredentials(ctx, s, username, pw); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Credentials updated.")
				return nil
			})
		},
	}
)

func init() {
	loginCmd.Flags().StringVarP(&loginUser, "username", "u", "", "username (case-sensitive)")
	passwdCmd.Flags().StringVarP(&passwdNewUser, "username", "u", "", "new username (default: keep the current one)")
}

// readSecret prompts on a terminal without echo, or reads one line from a
// pipe.
func readSecret(cmd *cobra.Command, prompt string) (string, error) {
	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(cmd.ErrOrStderr(), prompt)
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func printSession(w io.Writer, s session.Session) {
	left := time.Until(s.ExpiresAt()).Round(time.Minute)
	fmt.Fprintf(w, "Signed in as %s (%s, %s)\n", s.User.Username, s.User.Name, s.User.Role)
	fmt.Fprintf(w, "Session expires at %s (in %s)\n", s.ExpiresAt().Local().Format(time.DateTime), left)
}
