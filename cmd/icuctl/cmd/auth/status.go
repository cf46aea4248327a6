package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/icuboard/icuboard/cmd/icuctl/cmd/cmdutil"
	"github.com/icuboard/icuboard/cmd/icuctl/internal/config"
	"github.com/icuboard/icuboard/cmd/icuctl/internal/render"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Display authentication status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.MustFromContext(cmd.Context())

			ctx, cancel := cmdutil.Context(cmd)
			defer cancel()
			if err := cfg.ClientProvider.Restore(ctx); err != nil {
				return err
			}

			session, err := cfg.ClientProvider.Session()
			if err != nil {
				return err
			}
			if !session.IsAuthenticated() {
				return errors.New("not logged in\n\nPlease run 'icuctl auth login'")
			}

			w := render.Table(cmd.OutOrStdout())
			user := session.User()
			if user != nil {
				fmt.Fprintf(w, "User:\t%s\n", user.Username)
				fmt.Fprintf(w, "Name:\t%s\n", user.DisplayName())
				fmt.Fprintf(w, "Groups:\t%s\n", render.OrDash(strings.Join(user.Groups, ", ")))
			} else {
				fmt.Fprintf(w, "User:\t%s\n", "(profile not loaded)")
			}
			fmt.Fprintf(w, "Admin:\t%t\n", session.IsAdmin())
			if exp := session.ExpiresAt(); !exp.IsZero() {
				state := "valid"
				if time.Now().After(exp) {
					state = "expired, renewed on next request if a refresh cookie exists"
				}
				fmt.Fprintf(w, "Token expires:\t%s (%s)\n", exp.Local().Format(time.RFC1123), state)
			}
			fmt.Fprintf(w, "Server:\t%s\n", cfg.Settings.ServerURL)
			fmt.Fprintf(w, "Session store:\t%s\n", cfg.Settings.SessionStore)
			return w.Flush()
		},
	}
}
