// Package fakeapi is an in-process ICU dashboard API for tests. It issues
// real JWT access tokens, keeps refresh tokens in an HttpOnly cookie and serves
// beds and patients from a mockdata.Store.
package fakeapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"slices"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"

	"github.com/icuboard/icuboard/pkg/mockdata"
	"github.com/icuboard/icuboard/pkg/sdk"
)

// RefreshCookie is the name of the refresh token cookie.
const RefreshCookie = "refresh_token"

var signingKey = []byte("fakeapi-signing-key")

// Account is a user the server accepts at login.
type Account struct {
	Username  string
	Password  string
	Groups    []string
	GivenName string
}

// Server is a running fake API.
type Server struct {
	URL string

	srv  *httptest.Server
	data *mockdata.Store

	mu            sync.Mutex
	accounts      map[string]Account
	access        map[string]string // access token -> username
	refresh       map[string]string // refresh token -> username
	authHeaders   map[string][]string
	hits          map[string]int
	failRefresh   bool
	beforeRefresh func()
	seq           int

	refreshCalls atomic.Int64
}

// Option configures a Server.
type Option func(*Server)

// WithAccount registers an account.
func WithAccount(a Account) Option {
	return func(s *Server) {
		s.accounts[a.Username] = a
	}
}

// WithData serves beds and patients from store.
func WithData(store *mockdata.Store) Option {
	return func(s *Server) {
		s.data = store
	}
}

// WithBeforeRefresh runs fn inside every refresh request before it is
// answered. Tests use it to hold the refresh open.
func WithBeforeRefresh(fn func()) Option {
	return func(s *Server) {
		s.beforeRefresh = fn
	}
}

// New starts a server and stops it when the test ends.
func New(t testing.TB, opts ...Option) *Server {
	t.Helper()

	s := &Server{
		accounts:    map[string]Account{},
		access:      map[string]string{},
		refresh:     map[string]string{},
		authHeaders: map[string][]string{},
		hits:        map[string]int{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.data == nil {
		s.data = mockdata.New()
	}

	s.srv = httptest.NewServer(s.routes())
	s.URL = s.srv.URL
	t.Cleanup(s.srv.Close)
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.record)

	r.Route("/api", func(r chi.Router) {
		r.Post("/login", s.handleLogin)
		r.Post("/token/refresh", s.handleRefresh)
		r.Post("/logout", s.handleLogout)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Get("/users/me", s.handleMe)
			r.Get("/admin-only-data", s.handleAdminData)
			r.Get("/pacientes", s.handleListPatients)
			r.Get("/pacientes/{codigo}", s.handleGetPatient)
		})
	})

	r.Route("/leitos", func(r chi.Router) {
		r.Get("/", s.handleListBeds)
		r.Get("/disponiveis-para-reserva", s.handleAvailableBeds)
		r.Post("/{numero}/reservar", s.handleReserve)
		r.Post("/{numero}/alta", s.handleDischarge)
		r.Delete("/{numero}/alta", s.handleCancelDischarge)

		r.With(s.requireAuth).Get("/historico", s.handleHistory)
	})

	return r
}

// IssueAccessToken mints a valid access token for username.
func (s *Server) IssueAccessToken(username string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.issueAccessLocked(username)
}

// IssueRefreshToken mints a valid refresh token for username.
func (s *Server) IssueRefreshToken(username string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.issueRefreshLocked(username)
}

// ExpireAccessTokens invalidates every access token issued so far.
func (s *Server) ExpireAccessTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.access = map[string]string{}
}

// FailRefresh makes the refresh endpoint answer 401.
func (s *Server) FailRefresh(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failRefresh = fail
}

// RefreshCalls returns how many refresh requests were received.
func (s *Server) RefreshCalls() int {
	return int(s.refreshCalls.Load())
}

// AuthorizationHeaders returns the Authorization headers seen for path, in
// arrival order. Requests without the header record "".
func (s *Server) AuthorizationHeaders(path string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.authHeaders[path])
}

// Hits returns how many requests were received for path.
func (s *Server) Hits(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[path]
}

func (s *Server) issueAccessLocked(username string) string {
	s.seq++
	acct := s.accounts[username]
	now := time.Now()
	claims := sdk.AccessClaims{
		Username: username,
		Groups:   acct.Groups,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        strconv.Itoa(s.seq),
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(15 * time.Minute)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(signingKey)
	if err != nil {
		panic(fmt.Sprintf("fakeapi: sign token: %v", err))
	}
	s.access[token] = username
	return token
}

func (s *Server) issueRefreshLocked(username string) string {
	s.seq++
	token := fmt.Sprintf("refresh-%s-%d", username, s.seq)
	s.refresh[token] = username
	return token
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.hits[r.URL.Path]++
		s.authHeaders[r.URL.Path] = append(s.authHeaders[r.URL.Path], r.Header.Get("Authorization"))
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

type userKey struct{}

func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok {
			writeDetail(w, http.StatusUnauthorized, "Not authenticated")
			return
		}
		s.mu.Lock()
		username, valid := s.access[token]
		s.mu.Unlock()
		if !valid {
			writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey{}, username)))
	})
}

func (s *Server) currentAccount(r *http.Request) Account {
	username, _ := r.Context().Value(userKey{}).(string)
	s.mu.Lock()
	defer s.mu.Unlock()
	if acct, ok := s.accounts[username]; ok {
		return acct
	}
	return Account{Username: username}
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid form")
		return
	}
	username := r.PostForm.Get("username")
	password := r.PostForm.Get("password")
	rememberMe, _ := strconv.ParseBool(r.PostForm.Get("remember_me"))

	s.mu.Lock()
	acct, ok := s.accounts[username]
	if !ok || acct.Password != password {
		s.mu.Unlock()
		writeDetail(w, http.StatusUnauthorized, "Incorrect username or password")
		return
	}
	token := s.issueAccessLocked(username)
	var refreshToken string
	if rememberMe {
		refreshToken = s.issueRefreshLocked(username)
	}
	s.mu.Unlock()

	if refreshToken != "" {
		setRefreshCookie(w, refreshToken)
	}
	writeJSON(w, http.StatusOK, map[string]string{"access_token": token, "token_type": "bearer"})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	s.refreshCalls.Add(1)
	if s.beforeRefresh != nil {
		s.beforeRefresh()
	}

	cookie, err := r.Cookie(RefreshCookie)
	if err != nil {
		writeDetail(w, http.StatusUnauthorized, "Refresh token not found")
		return
	}

	s.mu.Lock()
	username, ok := s.refresh[cookie.Value]
	if s.failRefresh || !ok {
		s.mu.Unlock()
		writeDetail(w, http.StatusUnauthorized, "Invalid refresh token")
		return
	}
	delete(s.refresh, cookie.Value)
	token := s.issueAccessLocked(username)
	next := s.issueRefreshLocked(username)
	s.mu.Unlock()

	setRefreshCookie(w, next)
	writeJSON(w, http.StatusOK, map[string]string{"access_token": token, "token_type": "bearer"})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(RefreshCookie); err == nil {
		s.mu.Lock()
		delete(s.refresh, cookie.Value)
		s.mu.Unlock()
	}
	http.SetCookie(w, &http.Cookie{Name: RefreshCookie, Value: "", Path: "/", MaxAge: -1, HttpOnly: true})
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out successfully"})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	acct := s.currentAccount(r)
	u := sdk.User{Username: acct.Username, Groups: acct.Groups}
	if u.Groups == nil {
		u.Groups = []string{}
	}
	if acct.GivenName != "" {
		u.GivenName = []string{acct.GivenName}
	}
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) handleAdminData(w http.ResponseWriter, r *http.Request) {
	acct := s.currentAccount(r)
	if !slices.Contains(acct.Groups, sdk.AdminGroup) {
		writeDetail(w, http.StatusForbidden, "User is not authorized to access this resource")
		return
	}
	writeJSON(w, http.StatusOK, sdk.AdminData{
		Message:    "Welcome, admin " + acct.Username,
		UserGroups: acct.Groups,
	})
}

func (s *Server) handleListPatients(w http.ResponseWriter, r *http.Request) {
	patients, err := s.data.ListPatients(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, patients)
}

func (s *Server) handleGetPatient(w http.ResponseWriter, r *http.Request) {
	code, err := strconv.Atoi(chi.URLParam(r, "codigo"))
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "codigo must be an integer")
		return
	}
	p, err := s.data.GetPatient(r.Context(), code)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleListBeds(w http.ResponseWriter, r *http.Request) {
	beds, err := s.data.ListBeds(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, beds)
}

func (s *Server) handleAvailableBeds(w http.ResponseWriter, r *http.Request) {
	beds, err := s.data.ListBedsAvailableForReservation(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if beds == nil {
		beds = []sdk.Bed{}
	}
	writeJSON(w, http.StatusOK, beds)
}

func (s *Server) handleReserve(w http.ResponseWriter, r *http.Request) {
	var res sdk.Reservation
	if err := json.NewDecoder(r.Body).Decode(&res); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid reservation body")
		return
	}
	if err := res.Validate(); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if err := s.data.ReserveBed(r.Context(), chi.URLParam(r, "numero"), res); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "reserva registrada"})
}

func (s *Server) handleDischarge(w http.ResponseWriter, r *http.Request) {
	if err := s.data.RequestDischarge(r.Context(), chi.URLParam(r, "numero")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCancelDischarge(w http.ResponseWriter, r *http.Request) {
	if err := s.data.CancelDischarge(r.Context(), chi.URLParam(r, "numero")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	events, err := s.data.BedHistory(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

func setRefreshCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   7 * 24 * 60 * 60,
	})
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, sdk.ErrBedNotFound), errors.Is(err, sdk.ErrPatientNotFound):
		writeDetail(w, http.StatusNotFound, err.Error())
	case errors.Is(err, sdk.ErrInvalidBedState):
		writeDetail(w, http.StatusConflict, err.Error())
	default:
		writeDetail(w, http.StatusInternalServerError, err.Error())
	}
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
