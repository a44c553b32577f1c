// Package cartsync keeps the storefront cart consistent across the
// in-memory list, the local storage tiers and the remote cart service.
//
// The cart is local-first: while anonymous every mutation applies to the
// in-memory list and is mirrored synchronously to durable storage. Once a
// session is confirmed the remote cart service becomes authoritative and
// every mutation round-trips through it.
package cartsync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/merchbay/storefront/internal/api"
	"github.com/merchbay/storefront/internal/domain/cart"
	"github.com/merchbay/storefront/internal/domain/session"
	"github.com/merchbay/storefront/internal/metrics"
	"github.com/merchbay/storefront/internal/notify"
	"github.com/merchbay/storefront/internal/storage"
	"github.com/merchbay/storefront/pkg/logger"
)

// State is the session dimension of the synchronizer.
type State int

const (
	// StateAnonymous means no token is held; cart mutations stay local.
	StateAnonymous State = iota
	// StateAuthenticating means a stored token is being confirmed against
	// the profile endpoint.
	StateAuthenticating
	// StateAuthenticated means the profile check succeeded and the remote
	// cart is authoritative.
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateAuthenticating:
		return "authenticating"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "anonymous"
	}
}

var (
	// ErrNotAuthenticated is returned when a remote mutation is attempted
	// while the session is still being confirmed.
	ErrNotAuthenticated = errors.New("cartsync: not authenticated")
	// ErrInvalidQuantity is returned before any network call when a
	// mutation carries a quantity below 1.
	ErrInvalidQuantity = errors.New("cartsync: quantity must be at least 1")
)

// RemoteClient is the backend surface the synchronizer depends on.
// *api.Client satisfies it.
type RemoteClient interface {
	Cart(ctx context.Context, userID string) ([]cart.Line, error)
	AddCartItem(ctx context.Context, userID, productID string, quantity int) ([]cart.Line, error)
	UpdateCartItem(ctx context.Context, lineID string, quantity int) error
	RemoveCartItem(ctx context.Context, lineID string) error
	Profile(ctx context.Context) (session.Session, error)
	SetToken(token string)
}

var _ RemoteClient = (*api.Client)(nil)

// Config holds the synchronizer's collaborators.
type Config struct {
	Remote    RemoteClient
	Durable   storage.Store
	Ephemeral storage.Store
	Notify    notify.Sink
	Log       *logger.Logger
}

// Synchronizer owns the observable cart list and the session state. It is
// constructed once at app start and passed by reference to UI handlers.
type Synchronizer struct {
	remote    RemoteClient
	durable   storage.Store
	ephemeral storage.Store
	notify    notify.Sink
	log       *logger.Logger

	mu    sync.Mutex
	state State
	sess  session.Session
	lines []cart.Line
	// gen identifies the session era a remote call was issued under.
	// Responses from a previous era are discarded on arrival.
	gen uint64
}

// New constructs a synchronizer. Remote and both stores are required.
func New(cfg Config) (*Synchronizer, error) {
	if cfg.Remote == nil {
		return nil, fmt.Errorf("remote client is required")
	}
	if cfg.Durable == nil || cfg.Ephemeral == nil {
		return nil, fmt.Errorf("durable and ephemeral stores are required")
	}
	sink := cfg.Notify
	if sink == nil {
		sink = notify.Noop
	}
	log := cfg.Log
	if log == nil {
		log = logger.NewDefault("cartsync")
	}
	return &Synchronizer{
		remote:    cfg.Remote,
		durable:   cfg.Durable,
		ephemeral: cfg.Ephemeral,
		notify:    sink,
		log:       log,
	}, nil
}

// Cart returns a copy of the current in-memory cart, in insertion order.
func (s *Synchronizer) Cart() []cart.Line {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]cart.Line, len(s.lines))
	copy(out, s.lines)
	return out
}

// Session returns the current session; the zero value while anonymous.
func (s *Synchronizer) Session() session.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sess
}

// State returns the current session state.
func (s *Synchronizer) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Restore rebuilds state from durable storage at process start. With no
// stored token the durable cart is loaded as-is and the session stays
// anonymous. With a stored token the profile endpoint is consulted: an auth
// failure forces a full logout (the one error that mutates state), while a
// network failure leaves the stored token in place and returns the session
// to anonymous until the next restart or explicit login.
func (s *Synchronizer) Restore(ctx context.Context) error {
	userRaw, userErr := s.durable.Get(ctx, storage.KeyUser)
	tokenRaw, tokenErr := s.durable.Get(ctx, storage.KeyToken)
	if isStoreFailure(userErr) {
		return fmt.Errorf("read stored user: %w", userErr)
	}
	if isStoreFailure(tokenErr) {
		return fmt.Errorf("read stored token: %w", tokenErr)
	}

	if userErr != nil || tokenErr != nil || len(tokenRaw) == 0 {
		return s.restoreAnonymous(ctx)
	}

	var sess session.Session
	if err := json.Unmarshal(userRaw, &sess); err != nil {
		s.log.WithError(err).Warn("stored user is corrupt, discarding session")
		s.durable.Delete(ctx, storage.KeyUser)
		s.durable.Delete(ctx, storage.KeyToken)
		return s.restoreAnonymous(ctx)
	}
	sess.Token = string(tokenRaw)

	s.mu.Lock()
	s.state = StateAuthenticating
	s.sess = sess
	gen := s.gen
	s.mu.Unlock()
	metrics.ObserveSessionTransition(StateAuthenticating.String())

	s.remote.SetToken(sess.Token)
	confirmed, err := s.remote.Profile(ctx)
	if err != nil {
		if api.IsAuthError(err) {
			s.forceLogout(ctx)
			return nil
		}
		s.mu.Lock()
		if s.gen == gen && s.state == StateAuthenticating {
			s.state = StateAnonymous
			s.sess = session.Session{}
		}
		s.mu.Unlock()
		metrics.ObserveSessionTransition(StateAnonymous.String())
		return fmt.Errorf("restore session: %w", err)
	}
	confirmed.Token = sess.Token

	s.mu.Lock()
	if s.gen != gen || s.state != StateAuthenticating {
		// An explicit login or logout raced the profile check.
		s.mu.Unlock()
		return nil
	}
	s.state = StateAuthenticated
	s.sess = confirmed
	s.mu.Unlock()
	metrics.ObserveSessionTransition(StateAuthenticated.String())

	if err := s.mirrorSession(ctx, confirmed); err != nil {
		s.log.WithError(err).Warn("mirror confirmed session failed")
	}
	return s.reconcile(ctx, gen)
}

func (s *Synchronizer) restoreAnonymous(ctx context.Context) error {
	lines := s.loadDurableCart(ctx)
	s.mu.Lock()
	s.state = StateAnonymous
	s.sess = session.Session{}
	s.lines = lines
	s.mu.Unlock()
	metrics.ObserveSessionTransition(StateAnonymous.String())
	return nil
}

// Login installs a session obtained from a successful credential exchange,
// persists it to both storage tiers and reconciles the cart against the
// remote service. A reconciliation failure is returned but does not touch
// the in-memory cart.
func (s *Synchronizer) Login(ctx context.Context, sess session.Session) error {
	if sess.UserID == "" || sess.Token == "" {
		return fmt.Errorf("login requires a user id and token")
	}
	if err := s.mirrorSession(ctx, sess); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}

	s.remote.SetToken(sess.Token)
	s.mu.Lock()
	s.gen++
	gen := s.gen
	s.state = StateAuthenticated
	s.sess = sess
	s.mu.Unlock()
	metrics.ObserveSessionTransition(StateAuthenticated.String())
	s.notify.Success("signed in as " + sess.DisplayName)

	return s.reconcile(ctx, gen)
}

// Logout clears the session and cart from memory and every storage tier.
func (s *Synchronizer) Logout(ctx context.Context) error {
	err := s.clearSession(ctx)
	s.notify.Info("signed out")
	return err
}

// forceLogout is the session-expiry path: same end state as Logout, entered
// when the profile endpoint rejects the stored token.
func (s *Synchronizer) forceLogout(ctx context.Context) {
	if err := s.clearSession(ctx); err != nil {
		s.log.WithError(err).Warn("clearing expired session failed")
	}
	s.log.Info("stored session rejected by backend, logged out")
	s.notify.Error("your session has expired, please sign in again")
}

func (s *Synchronizer) clearSession(ctx context.Context) error {
	s.mu.Lock()
	s.gen++
	s.state = StateAnonymous
	s.sess = session.Session{}
	s.lines = nil
	s.mu.Unlock()
	metrics.ObserveSessionTransition(StateAnonymous.String())

	s.remote.SetToken("")

	var firstErr error
	for _, store := range []storage.Store{s.durable, s.ephemeral} {
		for _, key := range []string{storage.KeyUser, storage.KeyToken, storage.KeyCartItems} {
			if err := store.Delete(ctx, key); err != nil && firstErr == nil {
				firstErr = fmt.Errorf("clear %s: %w", key, err)
			}
		}
	}
	return firstErr
}

// reconcile replaces the in-memory cart with the remote one. On fetch
// failure the in-memory cart is left untouched so data already on screen is
// never destroyed by a flaky backend.
func (s *Synchronizer) reconcile(ctx context.Context, gen uint64) error {
	s.mu.Lock()
	userID := s.sess.UserID
	s.mu.Unlock()

	lines, err := s.remote.Cart(ctx, userID)
	if err != nil {
		metrics.ObserveReconciliation("error")
		s.notify.Error("could not load your cart")
		return fmt.Errorf("reconcile cart: %w", err)
	}

	s.mu.Lock()
	if s.gen != gen || s.state != StateAuthenticated {
		s.mu.Unlock()
		return nil
	}
	if n := len(s.lines); n > 0 {
		// Replace, not merge: anonymous additions are discarded once the
		// remote cart loads. Logged so the product question stays visible.
		s.log.WithField("discarded_lines", n).Warn("local cart replaced by remote cart")
	}
	s.setCartLocked(ctx, lines)
	s.mu.Unlock()
	metrics.ObserveReconciliation("ok")
	return nil
}

// applyRemote installs a server-returned cart unless the session era changed
// while the request was in flight.
func (s *Synchronizer) applyRemote(ctx context.Context, gen uint64, lines []cart.Line) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen || s.state != StateAuthenticated {
		return
	}
	s.setCartLocked(ctx, lines)
}

// setCartLocked is the single funnel every cart write goes through: it
// updates the in-memory list and mirrors it to durable storage. Callers must
// hold s.mu.
func (s *Synchronizer) setCartLocked(ctx context.Context, lines []cart.Line) {
	s.lines = lines
	toMirror := lines
	if toMirror == nil {
		toMirror = []cart.Line{}
	}
	data, err := json.Marshal(toMirror)
	if err != nil {
		s.log.WithError(err).Error("encode cart for mirror failed")
		return
	}
	if err := s.durable.Set(ctx, storage.KeyCartItems, data); err != nil {
		s.log.WithError(err).Warn("mirror cart to durable storage failed")
	}
}

func (s *Synchronizer) loadDurableCart(ctx context.Context) []cart.Line {
	data, err := s.durable.Get(ctx, storage.KeyCartItems)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.log.WithError(err).Warn("read stored cart failed")
		}
		return nil
	}
	var lines []cart.Line
	if err := json.Unmarshal(data, &lines); err != nil {
		s.log.WithError(err).Warn("stored cart is corrupt, starting empty")
		return nil
	}
	return lines
}

func (s *Synchronizer) mirrorSession(ctx context.Context, sess session.Session) error {
	user := sess
	user.Token = ""
	userData, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	for _, store := range []storage.Store{s.durable, s.ephemeral} {
		if err := store.Set(ctx, storage.KeyUser, userData); err != nil {
			return fmt.Errorf("store user: %w", err)
		}
		if err := store.Set(ctx, storage.KeyToken, []byte(sess.Token)); err != nil {
			return fmt.Errorf("store token: %w", err)
		}
	}
	return nil
}

func isStoreFailure(err error) bool {
	return err != nil && !errors.Is(err, storage.ErrNotFound)
}
