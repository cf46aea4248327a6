package sdk

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
)

const refreshPath = "/api/token/refresh"

type refreshResult struct {
	token string
	err   error
}

// refreshGroup is the Idle/Refreshing state machine shared by all requests
// of a Client. While a refresh is in flight every other expired-token
// failure queues a buffered channel; the channels are settled exactly once,
// in arrival order, when the refresh call returns.
type refreshGroup struct {
	mu         sync.Mutex
	refreshing bool
	waiters    []chan refreshResult
}

// join reports whether the caller must perform the refresh (leader). Other
// callers get a channel that receives the outcome.
func (g *refreshGroup) join() (wait <-chan refreshResult, leader bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.refreshing {
		ch := make(chan refreshResult, 1)
		g.waiters = append(g.waiters, ch)
		return ch, false
	}
	g.refreshing = true
	return nil, true
}

// settle returns the group to Idle and hands res to every queued caller.
func (g *refreshGroup) settle(res refreshResult) {
	g.mu.Lock()
	waiters := g.waiters
	g.waiters = nil
	g.refreshing = false
	g.mu.Unlock()

	for _, ch := range waiters {
		ch <- res
	}
}

func (g *refreshGroup) pending() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.waiters)
}

// awaitRefresh obtains a fresh access token, either by performing the
// refresh call or by waiting on the one already in flight.
func (c *Client) awaitRefresh(ctx context.Context) (string, error) {
	wait, leader := c.refresh.join()
	if !leader {
		c.metrics.recordWaiter(ctx)
		select {
		case res := <-wait:
			return res.token, res.err
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	c.logger.Info("access token expired, attempting to refresh")

	// The refresh outcome is shared; one caller giving up must not log
	// everyone out.
	var (
		refreshCtx context.Context
		cancel     context.CancelFunc
	)
	if c.refreshTimeout > 0 {
		refreshCtx, cancel = context.WithTimeout(context.WithoutCancel(ctx), c.refreshTimeout)
	} else {
		refreshCtx, cancel = context.WithCancel(context.WithoutCancel(ctx))
	}
	token, err := c.RefreshToken(refreshCtx)
	cancel()
	c.metrics.recordRefresh(ctx, err)

	if err != nil {
		err = fmt.Errorf("%w: %w", ErrSessionExpired, err)
		c.logger.Error("unable to refresh access token, logging out", "err", err)
		c.refresh.settle(refreshResult{err: err})
		c.session.ClearToken()
		return "", err
	}

	c.session.SetToken(token)
	c.refresh.settle(refreshResult{token: token})
	return token, nil
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type,omitempty"`
}

// RefreshToken asks the API for a new access token using the refresh cookie
// held by the HTTP client's jar. The call is made on the bare transport: it
// carries no bearer token and a 401 from it is never recovered. The session
// is not modified.
func (c *Client) RefreshToken(ctx context.Context) (string, error) {
	r := &request{method: http.MethodPost, path: refreshPath}
	resp, err := c.send(ctx, r, "")
	if err != nil {
		return "", err
	}
	if !isSuccess(resp) {
		return "", newAPIError(r.method, r.path, resp)
	}

	var payload tokenResponse
	if err := decodeJSON(resp, &payload); err != nil {
		return "", err
	}
	if payload.AccessToken == "" {
		return "", errors.New("refresh response carried no access_token")
	}
	return payload.AccessToken, nil
}
