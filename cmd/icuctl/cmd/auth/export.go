package auth

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/icuboard/icuboard/cmd/icuctl/cmd/cmdutil"
)

func newExportCmd() *cobra.Command {
	var shellFormat string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the access token as ICU_ACCESS_TOKEN",
		Long: `Outputs shell commands that set ICU_ACCESS_TOKEN to the current access
token. icuctl uses that variable instead of the session store, which lets
scripts share one login without touching ~/.icuctl.

Supported shells:
  - posix (bash, zsh, sh) - default
  - fish
  - powershell

Usage:
  # POSIX shells (bash/zsh/sh)
  eval $(icuctl auth export)

  # Fish shell
  eval (icuctl auth export --shell fish)

  # PowerShell
  icuctl auth export --shell powershell | Invoke-Expression`,
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := cmdutil.Session(cmd.Context())
			if err != nil {
				return err
			}
			token := session.Token()
			if token == "" {
				return errors.New("not logged in\n\nPlease run 'icuctl auth login' first")
			}
			if exp := session.ExpiresAt(); !exp.IsZero() && time.Now().After(exp) {
				return errors.New("access token has expired\n\nPlease run 'icuctl auth login' to refresh your session")
			}

			format := shellFormat
			if format == "" {
				format = detectShell()
			}
			return writeExport(cmd.OutOrStdout(), cmd.ErrOrStderr(), strings.ToLower(format), token, isTerminal(os.Stdout))
		},
	}
	cmd.Flags().StringVar(&shellFormat, "shell", "", "Shell format: posix, fish, powershell (auto-detected if not specified)")
	return cmd
}

func writeExport(out, hint io.Writer, format, token string, interactive bool) error {
	var line, usage string
	switch format {
	case "posix", "bash", "zsh", "sh":
		line = fmt.Sprintf("export ICU_ACCESS_TOKEN=%q", token)
		usage = "eval $(icuctl auth export)"
	case "fish":
		line = fmt.Sprintf("set -x ICU_ACCESS_TOKEN %q", token)
		usage = "eval (icuctl auth export --shell fish)"
	case "powershell", "pwsh", "ps1":
		line = fmt.Sprintf("$env:ICU_ACCESS_TOKEN=%q", token)
		usage = "icuctl auth export --shell powershell | Invoke-Expression"
	default:
		return fmt.Errorf("unsupported shell format: %s\n\nSupported formats: posix, fish, powershell", format)
	}

	// Instructions only when a human is reading, never into eval.
	if interactive {
		fmt.Fprintln(hint, "# Run this command to configure your environment:")
		fmt.Fprintln(hint, "#   "+usage)
		fmt.Fprintln(hint, "")
	}
	fmt.Fprintln(out, line)
	return nil
}

// detectShell attempts to detect the current shell from the SHELL environment variable
func detectShell() string {
	shell := os.Getenv("SHELL")
	if shell == "" {
		return "posix"
	}

	switch filepath.Base(shell) {
	case "fish":
		return "fish"
	case "pwsh", "powershell":
		return "powershell"
	default:
		return "posix"
	}
}

// isTerminal checks if the given file is a terminal (TTY)
func isTerminal(f *os.File) bool {
	fileInfo, err := f.Stat()
	if err != nil {
		return false
	}
	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}
