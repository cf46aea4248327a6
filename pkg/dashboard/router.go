package dashboard

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"

	"github.com/icuboard/icuboard/pkg/sdk"
)

// ErrRouteNotFound is returned when a path matches no route.
var ErrRouteNotFound = errors.New("route not found")

// Route names.
const (
	RouteBeds        = "Leitos"
	RouteLogin       = "Login"
	RouteAdmin       = "Admin"
	RoutePatients    = "Pacientes"
	RouteRequests    = "Solicitacoes"
	RouteDischarges  = "Altas"
	RouteAlerts      = "Alertas"
	RouteIndicators  = "Indicadores"
	RouteHistory     = "Historico"
	LandingPath      = "/"
	LoginPath        = "/login"
	redirectQueryKey = "redirect"
)

// Route is one dashboard page.
type Route struct {
	Name         string
	Path         string
	Title        string
	RequiresAuth bool
}

// Routes is the dashboard's route table.
var Routes = []Route{
	{Name: RouteBeds, Path: LandingPath, Title: "Leitos"},
	{Name: RouteLogin, Path: LoginPath, Title: "Login"},
	{Name: RouteAdmin, Path: "/admin", Title: "Administracao", RequiresAuth: true},
	{Name: RoutePatients, Path: "/pacientes", Title: "Pacientes", RequiresAuth: true},
	{Name: RouteRequests, Path: "/solicitacoes", Title: "Solicitacoes"},
	{Name: RouteDischarges, Path: "/altas", Title: "Altas"},
	{Name: RouteAlerts, Path: "/alertas", Title: "Alertas"},
	{Name: RouteIndicators, Path: "/indicadores", Title: "Indicadores"},
	{Name: RouteHistory, Path: "/historico", Title: "Historico", RequiresAuth: true},
}

// RouteByName looks a route up by name.
func RouteByName(name string) (Route, bool) {
	for _, r := range Routes {
		if r.Name == name {
			return r, true
		}
	}
	return Route{}, false
}

// Location is a resolved route plus the full path that reached it.
type Location struct {
	Route
	FullPath string
	Query    url.Values
}

// RedirectTarget returns where to go after login: the redirect query value
// when it names a known route, otherwise the landing page.
func (l Location) RedirectTarget() string {
	target := l.Query.Get(redirectQueryKey)
	if !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") {
		return LandingPath
	}
	if _, err := Resolve(target); err != nil {
		return LandingPath
	}
	return target
}

// Resolve maps a path, optionally carrying a query, to its route.
func Resolve(rawPath string) (Location, error) {
	u, err := url.Parse(strings.TrimSpace(rawPath))
	if err != nil {
		return Location{}, fmt.Errorf("%w: %s", ErrRouteNotFound, rawPath)
	}
	p := u.Path
	if p == "" {
		p = LandingPath
	}
	if len(p) > 1 {
		p = strings.TrimSuffix(p, "/")
	}
	for _, r := range Routes {
		if r.Path == p {
			full := p
			if u.RawQuery != "" {
				full += "?" + u.RawQuery
			}
			return Location{Route: r, FullPath: full, Query: u.Query()}, nil
		}
	}
	return Location{}, fmt.Errorf("%w: %s", ErrRouteNotFound, rawPath)
}

// AuthState reports whether a user is signed in. *sdk.Session implements it.
type AuthState interface {
	IsAuthenticated() bool
}

// Decision is the outcome of the guard. An empty Redirect means proceed.
type Decision struct {
	Redirect string
}

// Proceed reports whether navigation continues to the requested route.
func (d Decision) Proceed() bool { return d.Redirect == "" }

// Guard decides whether navigation to `to` may proceed.
func Guard(to Route, auth AuthState) Decision {
	return guard(to, to.Path, auth)
}

func guard(to Route, fullPath string, auth AuthState) Decision {
	authenticated := auth != nil && auth.IsAuthenticated()
	switch {
	case to.RequiresAuth && !authenticated:
		return Decision{Redirect: loginRedirect(fullPath)}
	case to.Name == RouteLogin && authenticated:
		return Decision{Redirect: LandingPath}
	default:
		return Decision{}
	}
}

func loginRedirect(fullPath string) string {
	return LoginPath + "?" + url.Values{redirectQueryKey: {fullPath}}.Encode()
}

// Router tracks the current page and applies the guard to every navigation.
type Router struct {
	auth   AuthState
	logger *slog.Logger

	mu      sync.Mutex
	current Location
	hooks   []func(from, to Location)
}

// RouterOption configures a Router.
type RouterOption func(*Router)

// WithRouterLogger sets the router's logger.
func WithRouterLogger(logger *slog.Logger) RouterOption {
	return func(r *Router) {
		r.logger = logger
	}
}

// WithNavigationHook registers fn to run after every change of page.
func WithNavigationHook(fn func(from, to Location)) RouterOption {
	return func(r *Router) {
		r.hooks = append(r.hooks, fn)
	}
}

// NewRouter returns a router positioned on the landing page.
func NewRouter(auth AuthState, opts ...RouterOption) *Router {
	landing, _ := Resolve(LandingPath)
	r := &Router{auth: auth, logger: slog.Default(), current: landing}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Current returns the page the router is on.
func (r *Router) Current() Location {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Navigate resolves path, applies the guard and moves to the resulting page.
// The returned location is where the router ended up.
func (r *Router) Navigate(path string) (Location, error) {
	to, err := Resolve(path)
	if err != nil {
		return Location{}, err
	}
	dec := guard(to.Route, to.FullPath, r.auth)
	if !dec.Proceed() {
		r.logger.Debug("navigation redirected", "from", to.FullPath, "to", dec.Redirect)
		// Guard redirects always land on a public route.
		if to, err = Resolve(dec.Redirect); err != nil {
			return Location{}, err
		}
	}
	r.moveTo(to)
	return to, nil
}

func (r *Router) moveTo(to Location) {
	r.mu.Lock()
	from := r.current
	r.current = to
	hooks := r.hooks
	r.mu.Unlock()

	for _, fn := range hooks {
		fn(from, to)
	}
}

// Watch follows session changes: once the session is cleared while the
// current page needs authentication the router moves to the login page,
// keeping the page as redirect target. The returned func stops watching.
func (r *Router) Watch(session *sdk.Session) func() {
	return session.Subscribe(func(ev sdk.SessionEvent) {
		if ev.Kind != sdk.EventCleared {
			return
		}
		cur := r.Current()
		if !cur.RequiresAuth {
			return
		}
		to, err := Resolve(loginRedirect(cur.FullPath))
		if err != nil {
			return
		}
		r.logger.Info("session ended, returning to login", "from", cur.FullPath)
		r.moveTo(to)
	})
}
