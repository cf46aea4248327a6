package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/icuboard/icuboard/cmd/icuctl/cmd/admin"
	"github.com/icuboard/icuboard/cmd/icuctl/cmd/auth"
	"github.com/icuboard/icuboard/cmd/icuctl/cmd/beds"
	"github.com/icuboard/icuboard/cmd/icuctl/cmd/cmdutil"
	"github.com/icuboard/icuboard/cmd/icuctl/cmd/discharges"
	"github.com/icuboard/icuboard/cmd/icuctl/cmd/patients"
	"github.com/icuboard/icuboard/cmd/icuctl/cmd/reports"
	"github.com/icuboard/icuboard/cmd/icuctl/cmd/requests"
	"github.com/icuboard/icuboard/cmd/icuctl/internal/client"
	"github.com/icuboard/icuboard/cmd/icuctl/internal/config"
	"github.com/icuboard/icuboard/cmd/icuctl/internal/logging"
	"github.com/icuboard/icuboard/pkg/dashboard"
)

type rootFlags struct {
	configPath     string
	serverURL      string
	nonInteractive bool
	dataSource     string
	sessionStore   string
	sessionDir     string
	logLevel       string
	logFormat      string
}

// NewRootCmd builds the icuctl command tree.
func NewRootCmd() *cobra.Command {
	var flags rootFlags

	rootCmd := &cobra.Command{
		Use:   "icuctl",
		Short: "ICU bed dashboard client",
		Long: `icuctl is the command-line client for the ICU bed-management dashboard.
Use it to follow bed occupancy, reservations and discharges, browse patients
and review alerts and indicators.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setup(cmd, &flags)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if cfg, ok := config.FromContext(cmd.Context()); ok && cfg.ClientProvider != nil {
				return cfg.ClientProvider.Close()
			}
			return nil
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "Config file (default ~/.icuctl/config.yaml)")
	pf.StringVar(&flags.serverURL, "server", "", "Dashboard API server URL (env ICU_SERVER_URL)")
	pf.BoolVar(&flags.nonInteractive, "non-interactive", false, "Disable interactive prompts (also set via ICU_NON_INTERACTIVE=1)")
	pf.StringVar(&flags.dataSource, "data-source", "", "Where views read data from: api or mock (env ICU_DATA_SOURCE)")
	pf.StringVar(&flags.sessionStore, "session-store", "", "Session persistence: file, redis or memory (env ICU_SESSION_STORE)")
	pf.StringVar(&flags.sessionDir, "session-dir", "", "Directory for the file session store (default ~/.icuctl)")
	pf.StringVar(&flags.logLevel, "log-level", "", "Log level: "+logging.LevelNames())
	pf.StringVar(&flags.logFormat, "log-format", "", "Log format: text or json")

	rootCmd.AddCommand(auth.NewCmd())
	rootCmd.AddCommand(beds.NewCmd())
	rootCmd.AddCommand(patients.NewCmd())
	rootCmd.AddCommand(requests.NewCmd())
	rootCmd.AddCommand(discharges.NewCmd())
	rootCmd.AddCommand(reports.NewCmd())
	rootCmd.AddCommand(admin.NewCmd())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setup(cmd *cobra.Command, flags *rootFlags) error {
	path := flags.configPath
	if path == "" {
		var err error
		if path, err = config.DefaultPath(); err != nil {
			return err
		}
	}
	settings, err := config.Load(path)
	if err != nil {
		return err
	}

	pf := cmd.Flags()
	override := func(name string, target *string, value string) {
		if pf.Changed(name) {
			*target = value
		}
	}
	override("server", &settings.ServerURL, flags.serverURL)
	override("data-source", &settings.DataSource, flags.dataSource)
	override("session-store", &settings.SessionStore, flags.sessionStore)
	override("session-dir", &settings.SessionDir, flags.sessionDir)
	override("log-level", &settings.LogLevel, flags.logLevel)
	override("log-format", &settings.LogFormat, flags.logFormat)
	if err := settings.Validate(); err != nil {
		return err
	}

	if os.Getenv("ICU_NON_INTERACTIVE") == "1" {
		flags.nonInteractive = true
	}

	logger, err := logging.Setup(logging.Options{
		Level:  settings.LogLevel,
		Format: settings.LogFormat,
		Output: cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}

	provider := client.NewProvider(client.Options{
		ServerURL:    settings.ServerURL,
		DataSource:   settings.DataSource,
		MockLatency:  settings.MockLatency,
		SessionStore: settings.SessionStore,
		SessionDir:   settings.SessionDir,
		Redis: client.RedisOptions{
			Addr:     settings.Redis.Addr,
			Password: settings.Redis.Password,
			DB:       settings.Redis.DB,
			Prefix:   settings.Redis.Prefix,
		},
		RefreshTimeout:   settings.RefreshTimeout,
		DevLoginFallback: settings.DevLoginFallback,
		AdminGroup:       settings.AdminGroup,
		Logger:           logger,
	})
	if token := os.Getenv("ICU_ACCESS_TOKEN"); token != "" {
		provider.SetBearerToken(token)
	}

	cmd.SetContext(config.InjectConfig(cmd.Context(), &config.GlobalConfig{
		Settings:       settings,
		NonInteractive: flags.nonInteractive,
		ClientProvider: provider,
	}))

	return guardRoute(cmd, provider)
}

// guardRoute runs the dashboard route guard for commands that render a page.
func guardRoute(cmd *cobra.Command, provider *client.Provider) error {
	route, ok := cmdutil.Route(cmd)
	if !ok || route.Name == dashboard.RouteLogin {
		return nil
	}
	if route.RequiresAuth {
		ctx, cancel := cmdutil.Context(cmd)
		defer cancel()
		if err := provider.Restore(ctx); err != nil {
			return err
		}
	}
	router, err := provider.Router()
	if err != nil {
		return err
	}
	loc, err := router.Navigate(route.Path)
	if err != nil {
		return err
	}
	if loc.Name != route.Name {
		return errors.New("authentication required for " + route.Title + "\n\nPlease run 'icuctl auth login'")
	}
	return nil
}
