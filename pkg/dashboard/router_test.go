package dashboard_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/icuboard/icuboard/pkg/dashboard"
	"github.com/icuboard/icuboard/pkg/sdk"
)

type authFlag bool

func (a authFlag) IsAuthenticated() bool { return bool(a) }

func route(t *testing.T, name string) dashboard.Route {
	t.Helper()
	r, ok := dashboard.RouteByName(name)
	require.True(t, ok, name)
	return r
}

func TestGuard(t *testing.T) {
	tests := []struct {
		name     string
		route    string
		auth     bool
		redirect string
	}{
		{name: "public page anonymous", route: dashboard.RouteBeds, auth: false},
		{name: "public page signed in", route: dashboard.RouteAlerts, auth: true},
		{name: "protected page anonymous", route: dashboard.RoutePatients, auth: false, redirect: "/login?redirect=%2Fpacientes"},
		{name: "protected page signed in", route: dashboard.RouteHistory, auth: true},
		{name: "login anonymous", route: dashboard.RouteLogin, auth: false},
		{name: "login signed in", route: dashboard.RouteLogin, auth: true, redirect: "/"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dec := dashboard.Guard(route(t, tt.route), authFlag(tt.auth))
			assert.Equal(t, tt.redirect, dec.Redirect)
			assert.Equal(t, tt.redirect == "", dec.Proceed())
		})
	}
}

func TestGuard_NilAuthIsAnonymous(t *testing.T) {
	dec := dashboard.Guard(route(t, dashboard.RouteAdmin), nil)
	assert.Equal(t, "/login?redirect=%2Fadmin", dec.Redirect)
}

func TestResolve(t *testing.T) {
	loc, err := dashboard.Resolve("/historico/")
	require.NoError(t, err)
	assert.Equal(t, dashboard.RouteHistory, loc.Name)
	assert.True(t, loc.RequiresAuth)

	loc, err = dashboard.Resolve("")
	require.NoError(t, err)
	assert.Equal(t, dashboard.RouteBeds, loc.Name)

	loc, err = dashboard.Resolve("/login?redirect=%2Fadmin")
	require.NoError(t, err)
	assert.Equal(t, "/login?redirect=%2Fadmin", loc.FullPath)
	assert.Equal(t, "/admin", loc.RedirectTarget())

	_, err = dashboard.Resolve("/nowhere")
	assert.ErrorIs(t, err, dashboard.ErrRouteNotFound)
}

func TestLocation_RedirectTargetRejectsUnknownPaths(t *testing.T) {
	loc, err := dashboard.Resolve("/login?redirect=https%3A%2F%2Fevil.example")
	require.NoError(t, err)
	assert.Equal(t, "/", loc.RedirectTarget())

	loc, err = dashboard.Resolve("/login")
	require.NoError(t, err)
	assert.Equal(t, "/", loc.RedirectTarget())
}

func TestRouter_Navigate(t *testing.T) {
	session := sdk.NewSession(nil)

	var moves [][2]string
	router := dashboard.NewRouter(session, dashboard.WithNavigationHook(func(from, to dashboard.Location) {
		moves = append(moves, [2]string{from.FullPath, to.FullPath})
	}))
	assert.Equal(t, dashboard.RouteBeds, router.Current().Name)

	loc, err := router.Navigate("/pacientes")
	require.NoError(t, err)
	assert.Equal(t, dashboard.RouteLogin, loc.Name)
	assert.Equal(t, "/pacientes", loc.RedirectTarget())

	session.SetToken("T")
	loc, err = router.Navigate(loc.RedirectTarget())
	require.NoError(t, err)
	assert.Equal(t, dashboard.RoutePatients, loc.Name)

	loc, err = router.Navigate("/login")
	require.NoError(t, err)
	assert.Equal(t, dashboard.RouteBeds, loc.Name)

	_, err = router.Navigate("/missing")
	assert.ErrorIs(t, err, dashboard.ErrRouteNotFound)
	assert.Equal(t, dashboard.RouteBeds, router.Current().Name, "failed navigation keeps the current page")

	assert.Equal(t, [][2]string{
		{"/", "/login?redirect=%2Fpacientes"},
		{"/login?redirect=%2Fpacientes", "/pacientes"},
		{"/pacientes", "/"},
	}, moves)
}

func TestRouter_WatchRedirectsOnLogout(t *testing.T) {
	session := sdk.NewSession(nil)
	session.SetToken("T")
	router := dashboard.NewRouter(session)
	stop := router.Watch(session)
	defer stop()

	_, err := router.Navigate("/historico?limit=5")
	require.NoError(t, err)

	session.ClearToken()

	cur := router.Current()
	assert.Equal(t, dashboard.RouteLogin, cur.Name)
	assert.Equal(t, "/historico?limit=5", cur.Query.Get("redirect"))
}

func TestRouter_WatchIgnoresPublicPages(t *testing.T) {
	session := sdk.NewSession(nil)
	session.SetToken("T")
	router := dashboard.NewRouter(session)
	defer router.Watch(session)()

	_, err := router.Navigate("/indicadores")
	require.NoError(t, err)

	session.ClearToken()
	assert.Equal(t, dashboard.RouteIndicators, router.Current().Name)
}
