// Package cmdutil holds helpers shared by icuctl subcommands.
package cmdutil

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/icuboard/icuboard/cmd/icuctl/internal/config"
	"github.com/icuboard/icuboard/cmd/icuctl/internal/render"
	"github.com/icuboard/icuboard/pkg/dashboard"
	"github.com/icuboard/icuboard/pkg/sdk"
)

// RouteAnnotation names the dashboard route a command renders. The root
// command runs the route guard against it before the command executes.
const RouteAnnotation = "icuctl/route"

// RequestTimeout bounds every API call a command makes.
const RequestTimeout = 30 * time.Second

// WithRoute tags cmd with the dashboard route it renders.
func WithRoute(cmd *cobra.Command, route string) *cobra.Command {
	if cmd.Annotations == nil {
		cmd.Annotations = map[string]string{}
	}
	cmd.Annotations[RouteAnnotation] = route
	return cmd
}

// Route returns the route a command renders, looking through its parents.
func Route(cmd *cobra.Command) (dashboard.Route, bool) {
	for c := cmd; c != nil; c = c.Parent() {
		if name, ok := c.Annotations[RouteAnnotation]; ok {
			return dashboard.RouteByName(name)
		}
	}
	return dashboard.Route{}, false
}

// Context returns the command context bounded by RequestTimeout.
func Context(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), RequestTimeout)
}

// Views returns the dashboard views for the invocation.
func Views(ctx context.Context) (*dashboard.Views, error) {
	cfg := config.MustFromContext(ctx)
	return cfg.ClientProvider.Views()
}

// SDKClient returns the API client for the invocation.
func SDKClient(ctx context.Context) (*sdk.Client, error) {
	cfg := config.MustFromContext(ctx)
	return cfg.ClientProvider.SDKClient()
}

// Session returns the session for the invocation.
func Session(ctx context.Context) (*sdk.Session, error) {
	cfg := config.MustFromContext(ctx)
	return cfg.ClientProvider.Session()
}

// AddOutputFlag registers --output/-o on cmd.
func AddOutputFlag(cmd *cobra.Command, target *string) {
	cmd.Flags().StringVarP(target, "output", "o", render.FormatTable, "Output format: table or json")
}

// SessionExpired reports whether err means the user must log in again.
func SessionExpired(err error) bool {
	return errors.Is(err, sdk.ErrSessionExpired) || sdk.IsUnauthorized(err)
}

// LoginHint wraps err with the instruction to log in when the session is
// gone.
func LoginHint(err error) error {
	if err == nil || !SessionExpired(err) {
		return err
	}
	return &loginRequiredError{err: err}
}

type loginRequiredError struct{ err error }

func (e *loginRequiredError) Error() string {
	return e.err.Error() + "\n\nPlease run 'icuctl auth login'"
}

func (e *loginRequiredError) Unwrap() error { return e.err }
