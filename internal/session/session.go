// Package session holds the single in-process answer to "who is logged in",
// mirrored into a store.Store under the user and token keys.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/naveenspark/protasker/internal/store"
	"github.com/naveenspark/protasker/pkg/domain"
)

// State is the holder's position in its lifecycle.
type State int

const (
	Unknown State = iota
	Anonymous
	Authenticated
)

func (s State) String() string {
	switch s {
	case Anonymous:
		return "anonymous"
	case Authenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// ErrEmptyToken is returned by Login when the API response carried no token.
var ErrEmptyToken = errors.New("session: empty token")

// Holder is safe for concurrent use. Create one per process and pass it to
// whatever needs it.
type Holder struct {
	store store.Store
	now   func() time.Time

	mu    sync.Mutex
	state State
	user  *domain.User
	token string
}

// New returns a holder in the Unknown state. Call Initialize before use.
func New(st store.Store) *Holder {
	return &Holder{store: st, now: time.Now}
}

// Initialize resolves Unknown into Anonymous or Authenticated from the store.
// A missing token, a malformed user record or an expired JWT all yield
// Anonymous, and the stale entries are purged. A record that decodes but
// carries no email ("null", "{}") counts as malformed.
func (h *Holder) Initialize() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.state = Anonymous
	h.user = nil
	h.token = ""

	raw, hasUser, err := h.store.Load(store.KeyUser)
	if err != nil {
		return fmt.Errorf("session.Initialize: %w", err)
	}
	token, hasToken, err := h.store.Load(store.KeyToken)
	if err != nil {
		return fmt.Errorf("session.Initialize: %w", err)
	}

	if !hasUser {
		if hasToken {
			return h.purgeLocked()
		}
		return nil
	}
	if !hasToken || token == "" {
		return h.purgeLocked()
	}

	var u domain.User
	if err := json.Unmarshal([]byte(raw), &u); err != nil || u.Email == "" {
		if rmErr := h.purgeLocked(); rmErr != nil {
			return fmt.Errorf("session.Initialize: remove corrupt record: %w", rmErr)
		}
		return nil
	}

	if expired(token, h.now()) {
		return h.purgeLocked()
	}

	h.user = &u
	h.token = token
	h.state = Authenticated
	return nil
}

// Login records a successful login or registration. The token is written
// first and rolled back if the user record cannot be written, so the store
// never holds one without the other.
func (h *Holder) Login(u domain.User, token string) error {
	if token == "" {
		return ErrEmptyToken
	}
	data, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("session.Login: marshal user: %w", err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.store.Save(store.KeyToken, token); err != nil {
		return fmt.Errorf("session.Login: %w", err)
	}
	if err := h.store.Save(store.KeyUser, string(data)); err != nil {
		h.store.Remove(store.KeyToken) //nolint:errcheck // best-effort rollback
		return fmt.Errorf("session.Login: %w", err)
	}
	h.user = &u
	h.token = token
	h.state = Authenticated
	return nil
}

// Logout clears the session in memory and in the store.
func (h *Holder) Logout() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.purgeLocked(); err != nil {
		return fmt.Errorf("session.Logout: %w", err)
	}
	return nil
}

// State reports the current state. An Authenticated holder whose token has
// vanished from the store (the API client purges it on 401) drops to
// Anonymous here.
func (h *Holder) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.syncLocked()
	return h.state
}

// CurrentUser returns nil unless Authenticated.
func (h *Holder) CurrentUser() *domain.User {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.syncLocked()
	if h.state != Authenticated || h.user == nil {
		return nil
	}
	u := *h.user
	return &u
}

// Token returns the bearer token, or "" when not Authenticated.
func (h *Holder) Token() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.syncLocked()
	if h.state != Authenticated {
		return ""
	}
	return h.token
}

// Loading is true until Initialize has run.
func (h *Holder) Loading() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state == Unknown
}

func (h *Holder) syncLocked() {
	if h.state != Authenticated {
		return
	}
	tok, ok, err := h.store.Load(store.KeyToken)
	if err != nil {
		return
	}
	if !ok || tok == "" {
		h.purgeLocked() //nolint:errcheck // token already gone; record removal is best-effort
	}
}

func (h *Holder) purgeLocked() error {
	h.state = Anonymous
	h.user = nil
	h.token = ""
	errUser := h.store.Remove(store.KeyUser)
	errToken := h.store.Remove(store.KeyToken)
	return errors.Join(errUser, errToken)
}

// expired reports whether token is a JWT whose exp claim is in the past.
// Opaque tokens never expire client-side.
func expired(token string, now time.Time) bool {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return false
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return !now.Before(claims.ExpiresAt.Time)
}
