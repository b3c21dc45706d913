package auth

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultTTL is how long a login is trusted. The provider issues tokens for
// one hour; refreshing slightly earlier keeps requests from racing the
// real expiry.
const DefaultTTL = 3500 * time.Second

// Credentials is a temporary cloud credential set obtained by logging in.
// Values are never mutated after the store issues them.
type Credentials struct {
	AccessKey    string
	SecretKey    string
	SessionToken string
	ExpiresAt    time.Time
}

// ValidAt reports whether the credentials can still be used at now.
func (c Credentials) ValidAt(now time.Time) bool {
	return now.Before(c.ExpiresAt)
}

// LoginFunc performs a password login and returns fresh credentials. The
// store assigns ExpiresAt, so implementations may leave it zero.
type LoginFunc func(ctx context.Context) (Credentials, error)

// Store caches the most recent credentials and decides when a new login is
// needed. Refresh is lazy: nothing happens until a caller asks for
// credentials after they have expired. Concurrent callers that observe
// expired credentials share a single login.
type Store struct {
	ttl   time.Duration
	now   func() time.Time
	group singleflight.Group

	mu      sync.RWMutex
	current *Credentials
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithTTL overrides DefaultTTL.
func WithTTL(ttl time.Duration) StoreOption {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithClock sets the time source (for testing).
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		s.now = now
	}
}

// NewStore creates an empty credential store.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		ttl: DefaultTTL,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns cached credentials while they are valid and otherwise calls
// login, stores its result and returns it.
//
// The login runs detached from ctx cancellation so that one caller giving
// up does not fail the login other callers are waiting on; a cancelled
// caller simply stops waiting.
func (s *Store) Get(ctx context.Context, login LoginFunc) (Credentials, error) {
	if creds, ok := s.valid(); ok {
		return creds, nil
	}

	ch := s.group.DoChan("login", func() (interface{}, error) {
		// A flight that finished just before this one started may already
		// have stored fresh credentials.
		if creds, ok := s.valid(); ok {
			return creds, nil
		}

		issued := s.now()
		creds, err := login(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}

		stored := Credentials{
			AccessKey:    creds.AccessKey,
			SecretKey:    creds.SecretKey,
			SessionToken: creds.SessionToken,
			ExpiresAt:    issued.Add(s.ttl),
		}

		s.mu.Lock()
		s.current = &stored
		s.mu.Unlock()

		return stored, nil
	})

	select {
	case <-ctx.Done():
		return Credentials{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Credentials{}, res.Err
		}
		return res.Val.(Credentials), nil
	}
}

// Current returns the stored credentials, if any, regardless of expiry.
func (s *Store) Current() (Credentials, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.current == nil {
		return Credentials{}, false
	}
	return *s.current, true
}

// ExpiresAt returns the expiry of the stored credentials, or the zero time
// when the store is empty.
func (s *Store) ExpiresAt() time.Time {
	creds, ok := s.Current()
	if !ok {
		return time.Time{}
	}
	return creds.ExpiresAt
}

// Valid reports whether the stored credentials can be used right now.
func (s *Store) Valid() bool {
	_, ok := s.valid()
	return ok
}

func (s *Store) valid() (Credentials, bool) {
	creds, ok := s.Current()
	if !ok || !creds.ValidAt(s.now()) {
		return Credentials{}, false
	}
	return creds, true
}
