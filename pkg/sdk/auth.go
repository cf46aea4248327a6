package sdk

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const (
	loginPath  = "/api/login"
	logoutPath = "/api/logout"
	mePath     = "/api/users/me"

	// developmentSessionTTL is the lifetime written into fabricated tokens.
	developmentSessionTTL = 8 * time.Hour
)

// Login posts the credentials to the login endpoint, stores the returned
// access token and loads the user profile. With rememberMe the server also
// sets a long-lived refresh cookie, kept by the client's cookie jar.
//
// A 401 from the login endpoint means bad credentials and is returned as-is;
// it never triggers a token refresh.
func (c *Client) Login(ctx context.Context, username, password string, rememberMe bool) error {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)
	if rememberMe {
		form.Set("remember_me", "true")
	}

	resp, err := c.do(ctx, &request{
		method:      http.MethodPost,
		path:        loginPath,
		body:        []byte(form.Encode()),
		contentType: "application/x-www-form-urlencoded",
		noRecover:   true,
	})
	if err != nil {
		if c.devFallback {
			return c.developmentLogin(username, err)
		}
		return err
	}

	var payload tokenResponse
	if err := decodeJSON(resp, &payload); err != nil {
		return err
	}
	if payload.AccessToken == "" {
		return errors.New("login response carried no access_token")
	}

	c.session.SetToken(payload.AccessToken)
	return c.FetchUser(ctx)
}

// developmentLogin fabricates a local session after a failed login. It exists
// for working on the dashboard without an identity service.
func (c *Client) developmentLogin(username string, cause error) error {
	c.logger.Warn("login failed, fabricating development session", "username", username, "err", cause)

	token, err := mintUnsignedToken(&User{Username: username}, developmentSessionTTL)
	if err != nil {
		return fmt.Errorf("failed to mint development token: %w", err)
	}
	// The profile is read back from the token so the two cannot disagree.
	user, err := UserFromToken(token)
	if err != nil {
		return fmt.Errorf("failed to decode development token: %w", err)
	}
	c.session.SetToken(token)
	c.session.SetUser(user)
	return nil
}

// Logout tells the API to drop the refresh cookie and clears the local
// session. The network call is best effort: its failure is logged and the
// session is cleared regardless.
func (c *Client) Logout(ctx context.Context) {
	resp, err := c.do(ctx, &request{method: http.MethodPost, path: logoutPath})
	if err != nil {
		c.logger.Warn("logout failed, clearing session anyway", "err", err)
	} else {
		discard(resp)
	}
	c.session.ClearToken()
}

// FetchUser loads the profile of the session's token owner. Without a token
// it only clears the cached profile. When the lookup fails the token is
// considered invalid and the session is cleared.
func (c *Client) FetchUser(ctx context.Context) error {
	if !c.session.IsAuthenticated() {
		c.session.SetUser(nil)
		return nil
	}

	var u User
	if err := c.getJSON(ctx, mePath, nil, &u); err != nil {
		c.logger.Error("failed to fetch user info", "err", err)
		c.session.ClearToken()
		return fmt.Errorf("failed to fetch user info: %w", err)
	}
	c.session.SetUser(&u)
	return nil
}

// InitializeAuth restores the session at process start. A persisted token is
// validated by loading the profile; without one a silent refresh is
// attempted. Absence of a valid session is not an error, so every failure is
// logged and swallowed.
func (c *Client) InitializeAuth(ctx context.Context) {
	if c.session.IsAuthenticated() {
		if err := c.FetchUser(ctx); err != nil {
			c.logger.Info("persisted session is no longer valid", "err", err)
		}
		return
	}

	token, err := c.RefreshToken(ctx)
	if err != nil {
		c.logger.Debug("no valid refresh token found", "err", err)
		return
	}
	c.session.SetToken(token)
	if err := c.FetchUser(ctx); err != nil {
		c.logger.Info("refreshed session could not load profile", "err", err)
	}
}
