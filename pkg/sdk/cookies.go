package sdk

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"

	"golang.org/x/net/publicsuffix"
)

type storedCookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// persistentJar keeps the server's refresh cookie across process restarts.
// A browser persists it on its own; a CLI has to write it next to the access
// token. Only cookies visible to the API base URL are persisted.
type persistentJar struct {
	jar     *cookiejar.Jar
	base    *url.URL
	storage Storage
	logger  *slog.Logger

	mu sync.Mutex
}

var _ http.CookieJar = (*persistentJar)(nil)

func newPersistentJar(base *url.URL, storage Storage, logger *slog.Logger) (*persistentJar, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}
	j := &persistentJar{jar: jar, base: base, storage: storage, logger: logger}

	raw, ok, err := storage.Get(CookiesKey)
	if err != nil {
		logger.Warn("failed to read persisted cookies", "err", err)
		return j, nil
	}
	if !ok || raw == "" {
		return j, nil
	}

	var stored []storedCookie
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		logger.Warn("discarding corrupt persisted cookies", "err", err)
		return j, nil
	}
	cookies := make([]*http.Cookie, 0, len(stored))
	for _, c := range stored {
		cookies = append(cookies, &http.Cookie{Name: c.Name, Value: c.Value, Path: "/"})
	}
	jar.SetCookies(base, cookies)
	return j, nil
}

func (j *persistentJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.jar.SetCookies(u, cookies)
	j.persist()
}

func (j *persistentJar) Cookies(u *url.URL) []*http.Cookie {
	return j.jar.Cookies(u)
}

func (j *persistentJar) persist() {
	j.mu.Lock()
	defer j.mu.Unlock()

	current := j.jar.Cookies(j.base)
	if len(current) == 0 {
		if err := j.storage.Remove(CookiesKey); err != nil {
			j.logger.Warn("failed to remove persisted cookies", "err", err)
		}
		return
	}

	stored := make([]storedCookie, 0, len(current))
	for _, c := range current {
		stored = append(stored, storedCookie{Name: c.Name, Value: c.Value})
	}
	data, err := json.Marshal(stored)
	if err != nil {
		j.logger.Warn("failed to encode cookies", "err", err)
		return
	}
	if err := j.storage.Set(CookiesKey, string(data)); err != nil {
		j.logger.Warn("failed to persist cookies", "err", err)
	}
}
