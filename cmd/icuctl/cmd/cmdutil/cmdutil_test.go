package cmdutil

import (
	"errors"
	"fmt"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"

	"github.com/icuboard/icuboard/pkg/dashboard"
	"github.com/icuboard/icuboard/pkg/sdk"
)

func TestRoute_InheritedFromParent(t *testing.T) {
	parent := WithRoute(&cobra.Command{Use: "patients"}, dashboard.RoutePatients)
	child := &cobra.Command{Use: "list"}
	parent.AddCommand(child)

	route, ok := Route(child)
	assert.True(t, ok)
	assert.Equal(t, "/pacientes", route.Path)
	assert.True(t, route.RequiresAuth)

	override := WithRoute(&cobra.Command{Use: "history"}, dashboard.RouteHistory)
	parent.AddCommand(override)
	route, _ = Route(override)
	assert.Equal(t, dashboard.RouteHistory, route.Name)

	_, ok = Route(&cobra.Command{Use: "auth"})
	assert.False(t, ok)
}

func TestLoginHint(t *testing.T) {
	assert.NoError(t, LoginHint(nil))

	plain := errors.New("boom")
	assert.Same(t, plain, LoginHint(plain))

	expired := fmt.Errorf("failed to list patients: %w", sdk.ErrSessionExpired)
	hinted := LoginHint(expired)
	assert.ErrorIs(t, hinted, sdk.ErrSessionExpired)
	assert.Contains(t, hinted.Error(), "icuctl auth login")
}
