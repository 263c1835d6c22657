package session

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"luxepos/internal/domain"
)

// StorageKey is the single durable key holding the signed-in user.
const StorageKey = "luxe_jewelry_user"

var ErrInvalidCredentials = errors.New("invalid credentials")

// Store is the durable key-value storage behind the guard.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Authenticator decides whether an email/password pair may sign in.
type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (domain.User, error)
}

// Guard tracks the one process-wide session.
type Guard struct {
	mu    sync.RWMutex
	auth  Authenticator
	store Store
	user  *domain.User
	log   logrus.FieldLogger
}

func NewGuard(auth Authenticator, store Store, log logrus.FieldLogger) *Guard {
	if auth == nil {
		panic("session: nil authenticator")
	}
	if store == nil {
		panic("session: nil store")
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Guard{auth: auth, store: store, log: log.WithField("component", "session")}
}

// Restore loads the persisted session, if any. An unreadable record is
// dropped rather than failing startup.
func (g *Guard) Restore(ctx context.Context) error {
	raw, ok, err := g.store.Get(ctx, StorageKey)
	if err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if !ok {
		g.user = nil
		return nil
	}

	var user domain.User
	if err := json.Unmarshal(raw, &user); err != nil || user.Email == "" {
		g.log.WithError(err).Warn("discarding unreadable persisted session")
		g.user = nil
		return g.store.Delete(ctx, StorageKey)
	}
	g.user = &user
	return nil
}

// Login authenticates and persists the session. A failed attempt leaves
// the current state untouched.
func (g *Guard) Login(ctx context.Context, email, password string) (domain.User, error) {
	user, err := g.auth.Authenticate(ctx, strings.TrimSpace(email), password)
	if err != nil {
		return domain.User{}, err
	}

	payload, err := json.Marshal(user)
	if err != nil {
		return domain.User{}, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.store.Put(ctx, StorageKey, payload); err != nil {
		return domain.User{}, err
	}
	g.user = &user
	g.log.WithField("email", user.Email).Info("signed in")
	return user, nil
}

func (g *Guard) Logout(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.user = nil
	return g.store.Delete(ctx, StorageKey)
}

func (g *Guard) Current() (domain.User, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.user == nil {
		return domain.User{}, false
	}
	return *g.user, true
}

func (g *Guard) IsAuthenticated() bool {
	_, ok := g.Current()
	return ok
}

// DisplayName is the email's local part with its first letter upper-cased.
func DisplayName(email string) string {
	local := email
	if at := strings.IndexByte(email, '@'); at >= 0 {
		local = email[:at]
	}
	r, size := utf8.DecodeRuneInString(local)
	if size == 0 {
		return ""
	}
	return string(unicode.ToUpper(r)) + local[size:]
}
