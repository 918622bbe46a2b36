// Package session resolves the signed-in user of a request by forwarding
// its cookies to the auth service.
package session

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Meeting-BaaS/emails/pkg/cache"
)

var (
	ErrNoSession     = errors.New("session: no active session")
	ErrAuthFailure   = errors.New("session: auth service request failed")
	ErrInvalidUser   = errors.New("session: auth service returned an invalid user")
	ErrMissingOrigin = errors.New("session: auth app url is not configured")
)

// Config locates the auth service.
type Config struct {
	AuthAppURL string        `env:"NEXT_PUBLIC_AUTH_APP_URL"`
	CacheTTL   time.Duration `env:"SESSION_CACHE_TTL" envDefault:"30s"`
	Timeout    time.Duration `env:"SESSION_TIMEOUT" envDefault:"5s"`
}

// User is the account behind a session. The auth service sends the id as a
// string; it is the numeric accounts.id.
type User struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstname"`
	LastName  string `json:"lastname"`
}

type rawSession struct {
	Session *struct {
		UserID string `json:"userId"`
	} `json:"session"`
	User *struct {
		ID        string  `json:"id"`
		Email     string  `json:"email"`
		FirstName string  `json:"firstname"`
		LastName  *string `json:"lastname"`
	} `json:"user"`
}

// Observer counts where a lookup was answered from: "cache" or "auth".
type Observer interface {
	SessionLookup(source string)
}

// Client calls GET {AuthAppURL}/api/auth/get-session.
type Client struct {
	endpoint string
	http     *http.Client
	loader   *cache.Loader[User]
	ttl      time.Duration
	observer Observer
}

// NewClient creates a Client. Found sessions are cached for cfg.CacheTTL in c;
// missing sessions and failures are never cached.
func NewClient(cfg Config, c cache.Cache[User], observer Observer) *Client {
	var endpoint string
	if origin := strings.TrimRight(cfg.AuthAppURL, "/"); origin != "" {
		endpoint = origin + "/api/auth/get-session"
	}
	return &Client{
		endpoint: endpoint,
		http:     &http.Client{Timeout: cfg.Timeout},
		loader:   cache.NewLoader(c),
		ttl:      cfg.CacheTTL,
		observer: observer,
	}
}

// Lookup returns the user of the session carried by cookie. It fails with
// ErrNoSession when the auth service knows no session for it.
func (c *Client) Lookup(ctx context.Context, cookie string) (User, error) {
	if cookie == "" {
		return User{}, ErrNoSession
	}
	if c.endpoint == "" {
		return User{}, ErrMissingOrigin
	}

	fetched := false
	u, err := c.loader.Load(ctx, cacheKey(cookie), c.ttl, func(ctx context.Context) (User, error) {
		fetched = true
		return c.fetch(ctx, cookie)
	})
	if err == nil && c.observer != nil {
		source := "cache"
		if fetched {
			source = "auth"
		}
		c.observer.SessionLookup(source)
	}
	return u, err
}

func (c *Client) fetch(ctx context.Context, cookie string) (User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		return User{}, errors.Join(ErrAuthFailure, err)
	}
	req.Header.Set("Cookie", cookie)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return User{}, errors.Join(ErrAuthFailure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return User{}, fmt.Errorf("%w: status %d", ErrAuthFailure, resp.StatusCode)
	}

	var raw rawSession
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return User{}, errors.Join(ErrAuthFailure, err)
	}
	return raw.user()
}

func (r rawSession) user() (User, error) {
	if r.Session == nil || r.User == nil {
		return User{}, ErrNoSession
	}
	id, err := strconv.ParseInt(r.User.ID, 10, 64)
	if err != nil || id <= 0 {
		return User{}, fmt.Errorf("%w: id %q", ErrInvalidUser, r.User.ID)
	}
	u := User{ID: id, Email: r.User.Email, FirstName: r.User.FirstName}
	if r.User.LastName != nil {
		u.LastName = *r.User.LastName
	}
	return u, nil
}

// cacheKey hashes the cookie header so raw session tokens never reach the
// cache backend.
func cacheKey(cookie string) string {
	sum := sha256.Sum256([]byte(cookie))
	return "session:" + hex.EncodeToString(sum[:])
}
