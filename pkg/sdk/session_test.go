package sdk_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/icuboard/icuboard/pkg/sdk"
)

// failingStorage rejects every write.
type failingStorage struct {
	sdk.MemoryStorage
}

func (f *failingStorage) Set(string, string) error { return errors.New("disk full") }
func (f *failingStorage) Remove(...string) error { return errors.New("disk full") }

// gatedStorage blocks the first access-token write until release is closed.
type gatedStorage struct {
	*sdk.MemoryStorage
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func (g *gatedStorage) Set(key, value string) error {
	if key == sdk.TokenKey {
		g.once.Do(func() {
			close(g.entered)
			<-g.release
		})
	}
	return g.MemoryStorage.Set(key, value)
}

func signedToken(t *testing.T, claims sdk.AccessClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-key"))
	require.NoError(t, err)
	return token
}

func TestSession_SetTokenPersists(t *testing.T) {
	storage := sdk.NewMemoryStorage()
	s := sdk.NewSession(storage)
	assert.False(t, s.IsAuthenticated())

	s.SetToken("not-even-a-jwt")
	assert.True(t, s.IsAuthenticated())
	assert.Equal(t, "not-even-a-jwt", s.Token())
	assert.True(t, s.ExpiresAt().IsZero())

	v, ok, err := storage.Get(sdk.TokenKey)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "not-even-a-jwt", v)
}

func TestSession_HydratesFromStorage(t *testing.T) {
	storage := sdk.NewMemoryStorage()
	require.NoError(t, storage.Set(sdk.TokenKey, "T1"))
	require.NoError(t, storage.Set(sdk.UserKey, `{"username":"ana","groups":["GLO-SEC-HCPE-SETISD"]}`))

	s := sdk.NewSession(storage)
	assert.Equal(t, "T1", s.Token())
	require.NotNil(t, s.User())
	assert.Equal(t, "ana", s.User().Username)
	assert.True(t, s.IsAdmin())
}

func TestSession_DiscardsCorruptProfile(t *testing.T) {
	storage := sdk.NewMemoryStorage()
	require.NoError(t, storage.Set(sdk.TokenKey, "T1"))
	require.NoError(t, storage.Set(sdk.UserKey, `{not json`))

	s := sdk.NewSession(storage)
	assert.True(t, s.IsAuthenticated())
	assert.Nil(t, s.User())
}

func TestSession_ClearToken(t *testing.T) {
	storage := sdk.NewMemoryStorage()
	s := sdk.NewSession(storage)
	s.SetToken("T")
	s.SetUser(&sdk.User{Username: "ana"})

	s.ClearToken()

	assert.False(t, s.IsAuthenticated())
	assert.Nil(t, s.User())
	for _, key := range []string{sdk.TokenKey, sdk.UserKey} {
		_, ok, err := storage.Get(key)
		require.NoError(t, err)
		assert.False(t, ok, key)
	}
}

func TestSession_StorageFailuresAreNotFatal(t *testing.T) {
	s := sdk.NewSession(&failingStorage{})

	s.SetToken("T")
	assert.Equal(t, "T", s.Token())

	s.ClearToken()
	assert.False(t, s.IsAuthenticated())
}

func TestSession_UserIsCopied(t *testing.T) {
	s := sdk.NewSession(nil)
	u := &sdk.User{Username: "ana", Groups: []string{"a"}}
	s.SetUser(u)

	u.Groups[0] = "mutated"
	got := s.User()
	assert.Equal(t, []string{"a"}, got.Groups)

	got.Groups[0] = "mutated"
	assert.Equal(t, []string{"a"}, s.User().Groups)
}

func TestSession_AdminGroupOverride(t *testing.T) {
	s := sdk.NewSession(nil, sdk.WithAdminGroup("UTI-GESTAO"))
	s.SetUser(&sdk.User{Username: "ana", Groups: []string{sdk.AdminGroup}})
	assert.False(t, s.IsAdmin())

	s.SetUser(&sdk.User{Username: "ana", Groups: []string{"UTI-GESTAO"}})
	assert.True(t, s.IsAdmin())
}

func TestSession_Subscribe(t *testing.T) {
	s := sdk.NewSession(nil)

	var order []string
	var events []sdk.SessionEvent
	unsubscribe := s.Subscribe(func(ev sdk.SessionEvent) {
		order = append(order, "first")
		events = append(events, ev)
	})
	s.Subscribe(func(sdk.SessionEvent) { order = append(order, "second") })

	s.SetToken("T")
	s.SetUser(&sdk.User{Username: "ana"})
	s.ClearToken()

	require.Len(t, events, 3)
	assert.Equal(t, sdk.SessionEvent{Kind: sdk.EventTokenChanged, Authenticated: true}, events[0])
	assert.Equal(t, sdk.EventUserChanged, events[1].Kind)
	assert.Equal(t, sdk.SessionEvent{Kind: sdk.EventCleared, Authenticated: false}, events[2])
	assert.Equal(t, []string{"first", "second", "first", "second", "first", "second"}, order)

	unsubscribe()
	s.SetToken("T2")
	assert.Len(t, events, 3)
	assert.Equal(t, "cleared", sdk.EventCleared.String())
}

func TestSession_ExpiresAt(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	s := sdk.NewSession(nil)
	s.SetToken(signedToken(t, sdk.AccessClaims{
		Username:         "ana",
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(exp)},
	}))

	assert.True(t, exp.Equal(s.ExpiresAt()))
}

func TestSession_ConcurrentRefreshAndLogoutAgree(t *testing.T) {
	storage := &gatedStorage{
		MemoryStorage: sdk.NewMemoryStorage(),
		entered:       make(chan struct{}),
		release:       make(chan struct{}),
	}
	s := sdk.NewSession(storage)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		s.SetToken("T-refreshed")
	}()
	<-storage.entered

	cleared := make(chan struct{})
	go func() {
		defer wg.Done()
		s.ClearToken()
		close(cleared)
	}()
	select {
	case <-cleared:
		t.Fatal("logout finished while the token write was still in flight")
	case <-time.After(50 * time.Millisecond):
	}
	close(storage.release)
	wg.Wait()

	token, ok, err := storage.Get(sdk.TokenKey)
	require.NoError(t, err)
	assert.False(t, s.IsAuthenticated())
	assert.False(t, ok, "storage still holds %q after logout", token)

	// A new process sees the logged-out state.
	assert.False(t, sdk.NewSession(storage).IsAuthenticated())
}

func TestSession_TokenSource(t *testing.T) {
	s := sdk.NewSession(nil)

	_, err := s.TokenSource().Token()
	assert.ErrorIs(t, err, sdk.ErrNotAuthenticated)

	s.SetToken("T")
	tok, err := s.TokenSource().Token()
	require.NoError(t, err)
	assert.Equal(t, "T", tok.AccessToken)
	assert.Equal(t, "Bearer", tok.Type())
}

func TestUserFromToken(t *testing.T) {
	t.Run("lifts scalar claims into lists", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"username":  "ana",
			"groups":    "UTI-ENFERMAGEM",
			"givenName": "Ana",
		}).SignedString([]byte("k"))
		require.NoError(t, err)

		u, err := sdk.UserFromToken(token)
		require.NoError(t, err)
		assert.Equal(t, "ana", u.Username)
		assert.Equal(t, []string{"UTI-ENFERMAGEM"}, u.Groups)
		assert.Equal(t, "Ana", u.DisplayName())
	})

	t.Run("falls back to subject", func(t *testing.T) {
		u, err := sdk.UserFromToken(signedToken(t, sdk.AccessClaims{
			RegisteredClaims: jwt.RegisteredClaims{Subject: "joao"},
		}))
		require.NoError(t, err)
		assert.Equal(t, "joao", u.Username)
	})

	t.Run("rejects garbage", func(t *testing.T) {
		_, err := sdk.UserFromToken("garbage")
		assert.Error(t, err)
	})
}
