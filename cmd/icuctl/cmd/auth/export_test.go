package auth

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteExport(t *testing.T) {
	tests := []struct {
		format string
		want   string
	}{
		{"posix", "export ICU_ACCESS_TOKEN=\"tok.en\"\n"},
		{"zsh", "export ICU_ACCESS_TOKEN=\"tok.en\"\n"},
		{"fish", "set -x ICU_ACCESS_TOKEN \"tok.en\"\n"},
		{"pwsh", "$env:ICU_ACCESS_TOKEN=\"tok.en\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			var out, hint bytes.Buffer
			require.NoError(t, writeExport(&out, &hint, tt.format, "tok.en", false))
			assert.Equal(t, tt.want, out.String())
			assert.Empty(t, hint.String())
		})
	}

	var out, hint bytes.Buffer
	require.NoError(t, writeExport(&out, &hint, "fish", "tok.en", true))
	assert.Contains(t, hint.String(), "eval (icuctl auth export --shell fish)")

	assert.ErrorContains(t, writeExport(&out, &hint, "tcsh", "x", false), "unsupported shell format")
}

func TestDetectShell(t *testing.T) {
	t.Setenv("SHELL", "/usr/bin/fish")
	assert.Equal(t, "fish", detectShell())
	t.Setenv("SHELL", "/opt/microsoft/powershell/7/pwsh")
	assert.Equal(t, "powershell", detectShell())
	t.Setenv("SHELL", "/bin/zsh")
	assert.Equal(t, "posix", detectShell())
	t.Setenv("SHELL", "")
	assert.Equal(t, "posix", detectShell())
}
