package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/icuboard/icuboard/cmd/icuctl/internal/auth"
	"github.com/icuboard/icuboard/pkg/dashboard"
	"github.com/icuboard/icuboard/pkg/mockdata"
	"github.com/icuboard/icuboard/pkg/sdk"
	"github.com/icuboard/icuboard/pkg/sdk/redisstore"
)

// restoreGrace is added to the refresh timeout when bounding session restore,
// which may refresh and then load the profile.
const restoreGrace = 5 * time.Second

// Options describes how the Provider builds its clients.
type Options struct {
	ServerURL string

	// "api" reads views from the server, "mock" from the built-in data set.
	DataSource  string
	MockLatency time.Duration

	// "file", "redis" or "memory".
	SessionStore string
	SessionDir   string
	Redis        RedisOptions

	RefreshTimeout   time.Duration
	DevLoginFallback bool
	AdminGroup       string

	Logger *slog.Logger
}

// RedisOptions configures the redis session store.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// Provider lazily builds the session, SDK client, views and router shared by
// one icuctl invocation.
type Provider struct {
	opts        Options
	bearerToken string // ephemeral token that bypasses the session store

	sessionOnce sync.Once
	session     *sdk.Session
	sessionErr  error
	rdb         *redis.Client

	sdkOnce   sync.Once
	sdkClient *sdk.Client
	sdkErr    error

	restoreOnce sync.Once

	viewsOnce sync.Once
	views     *dashboard.Views
	viewsErr  error

	routerOnce sync.Once
	router     *dashboard.Router
	routerErr  error
	unwatch    func()
}

// NewProvider constructs a Provider. Nothing is built until first use.
func NewProvider(opts Options) *Provider {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Provider{opts: opts}
}

// SetBearerToken injects an ephemeral access token, kept in memory only.
func (p *Provider) SetBearerToken(token string) {
	p.bearerToken = token
}

// Session returns the session backed by the configured store.
func (p *Provider) Session() (*sdk.Session, error) {
	p.sessionOnce.Do(func() {
		storage, err := p.storage()
		if err != nil {
			p.sessionErr = err
			return
		}
		sessionOpts := []sdk.SessionOption{sdk.WithSessionLogger(p.opts.Logger)}
		if p.opts.AdminGroup != "" {
			sessionOpts = append(sessionOpts, sdk.WithAdminGroup(p.opts.AdminGroup))
		}
		p.session = sdk.NewSession(storage, sessionOpts...)
		if p.bearerToken != "" {
			p.session.SetToken(p.bearerToken)
		}
	})
	return p.session, p.sessionErr
}

func (p *Provider) storage() (sdk.Storage, error) {
	if p.bearerToken != "" {
		return sdk.NewMemoryStorage(), nil
	}
	switch p.opts.SessionStore {
	case "memory":
		return sdk.NewMemoryStorage(), nil
	case "redis":
		p.rdb = redis.NewClient(&redis.Options{
			Addr:     p.opts.Redis.Addr,
			Password: p.opts.Redis.Password,
			DB:       p.opts.Redis.DB,
		})
		var storeOpts []redisstore.Option
		if p.opts.Redis.Prefix != "" {
			storeOpts = append(storeOpts, redisstore.WithPrefix(p.opts.Redis.Prefix))
		}
		return redisstore.New(p.rdb, storeOpts...), nil
	case "file", "":
		dir := p.opts.SessionDir
		if dir == "" {
			var err error
			if dir, err = auth.DefaultDir(); err != nil {
				return nil, err
			}
		}
		store, err := auth.NewFileStore(dir)
		if err != nil {
			return nil, fmt.Errorf("failed to create session store: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown session store %q", p.opts.SessionStore)
	}
}

// SDKClient returns the API client bound to the session. The persisted
// session is not validated; call Restore for that.
func (p *Provider) SDKClient() (*sdk.Client, error) {
	p.sdkOnce.Do(func() {
		session, err := p.Session()
		if err != nil {
			p.sdkErr = err
			return
		}
		p.sdkClient, p.sdkErr = sdk.NewClient(p.opts.ServerURL, session,
			sdk.WithLogger(p.opts.Logger),
			sdk.WithRefreshTimeout(p.opts.RefreshTimeout),
			sdk.WithDevelopmentLoginFallback(p.opts.DevLoginFallback),
		)
	})
	return p.sdkClient, p.sdkErr
}

// Restore validates the persisted session against the server once per
// process, refreshing silently when only the refresh cookie survived. An
// unreachable server leaves the persisted session untouched.
func (p *Provider) Restore(ctx context.Context) error {
	client, err := p.SDKClient()
	if err != nil {
		return err
	}
	p.restoreOnce.Do(func() {
		if p.bearerToken != "" {
			return
		}
		timeout := restoreGrace
		if p.opts.RefreshTimeout > 0 {
			timeout += p.opts.RefreshTimeout
		}
		ctx, cancel := ensureTimeout(ctx, timeout)
		defer cancel()
		client.InitializeAuth(ctx)
	})
	return nil
}

// Views returns the dashboard views over the configured data source.
func (p *Provider) Views() (*dashboard.Views, error) {
	p.viewsOnce.Do(func() {
		var source dashboard.Source
		switch p.opts.DataSource {
		case "mock":
			source = mockdata.New(mockdata.WithLatency(p.opts.MockLatency))
		case "api", "":
			client, err := p.SDKClient()
			if err != nil {
				p.viewsErr = err
				return
			}
			source = client
		default:
			p.viewsErr = fmt.Errorf("unknown data source %q", p.opts.DataSource)
			return
		}
		p.views, p.viewsErr = dashboard.NewViews(source)
	})
	return p.views, p.viewsErr
}

// Router returns the route guard bound to the session. It follows the
// session, so a refresh failure mid-command moves it to the login page.
func (p *Provider) Router() (*dashboard.Router, error) {
	p.routerOnce.Do(func() {
		session, err := p.Session()
		if err != nil {
			p.routerErr = err
			return
		}
		p.router = dashboard.NewRouter(session, dashboard.WithRouterLogger(p.opts.Logger))
		p.unwatch = p.router.Watch(session)
	})
	return p.router, p.routerErr
}

// Close releases the redis connection, if one was opened.
func (p *Provider) Close() error {
	if p.unwatch != nil {
		p.unwatch()
	}
	if p.rdb != nil {
		if err := p.rdb.Close(); err != nil && !errors.Is(err, redis.ErrClosed) {
			return err
		}
	}
	return nil
}

func ensureTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}

	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, timeout)
	return ctxWithTimeout, cancel
}
