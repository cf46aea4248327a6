package auth

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/icuboard/icuboard/cmd/icuctl/cmd/cmdutil"
	"github.com/icuboard/icuboard/cmd/icuctl/internal/config"
	"github.com/icuboard/icuboard/pkg/dashboard"
)

type loginOptions struct {
	username   string
	password   string
	rememberMe bool
	force      bool
}

func newLoginCmd() *cobra.Command {
	var opts loginOptions

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to the dashboard",
		Long: `Logs in with a directory username and password.

With --remember-me the server also issues a long-lived refresh cookie, which
is kept in the session store so expired access tokens are renewed silently.

Credentials can also come from ICU_USERNAME and ICU_PASSWORD. Missing values
are prompted for unless --non-interactive is set.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(cmd, &opts)
		},
	}
	cmdutil.WithRoute(cmd, dashboard.RouteLogin)

	cmd.Flags().StringVarP(&opts.username, "username", "u", "", "Directory username")
	cmd.Flags().StringVar(&opts.password, "password", "", "Password (prefer the prompt or ICU_PASSWORD)")
	cmd.Flags().BoolVar(&opts.rememberMe, "remember-me", false, "Keep a refresh cookie so the session outlives the access token")
	cmd.Flags().BoolVar(&opts.force, "force", false, "Log in again even when a session exists")
	return cmd
}

func runLogin(cmd *cobra.Command, opts *loginOptions) error {
	cfg := config.MustFromContext(cmd.Context())
	out := cmd.OutOrStdout()

	ctx, cancel := cmdutil.Context(cmd)
	defer cancel()

	client, err := cmdutil.SDKClient(ctx)
	if err != nil {
		return err
	}
	router, err := cfg.ClientProvider.Router()
	if err != nil {
		return err
	}

	// The guard sends authenticated users away from the login page.
	loc, err := router.Navigate(dashboard.LoginPath)
	if err != nil {
		return err
	}
	if loc.Name != dashboard.RouteLogin && !opts.force {
		exp := client.Session().ExpiresAt()
		if exp.IsZero() || time.Now().Before(exp) {
			fmt.Fprintf(out, "Already logged in as %s (use --force to log in again)\n", client.Session().User().DisplayName())
			return nil
		}
		fmt.Fprintf(out, "Saved session expired at %s, logging in again\n", exp.Local().Format(time.RFC1123))
	}

	username := firstNonEmpty(opts.username, os.Getenv("ICU_USERNAME"))
	password := firstNonEmpty(opts.password, os.Getenv("ICU_PASSWORD"))
	if username == "" || password == "" {
		if cfg.NonInteractive {
			return errors.New("username and password are required in non-interactive mode")
		}
		if username == "" {
			if username, err = pterm.DefaultInteractiveTextInput.Show("Username"); err != nil {
				return fmt.Errorf("failed to read username: %w", err)
			}
		}
		if password == "" {
			if password, err = pterm.DefaultInteractiveTextInput.WithMask("*").Show("Password"); err != nil {
				return fmt.Errorf("failed to read password: %w", err)
			}
		}
	}
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return errors.New("username and password are required")
	}

	if err := client.Login(ctx, username, password, opts.rememberMe); err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	session := client.Session()
	fmt.Fprintf(out, "Logged in as %s\n", session.User().DisplayName())
	if session.IsAdmin() {
		fmt.Fprintln(out, "Administrator access granted")
	}
	if opts.rememberMe {
		fmt.Fprintln(out, "Session will be renewed automatically")
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
