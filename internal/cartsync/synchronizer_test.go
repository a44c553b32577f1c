package cartsync

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"sync"
	"testing"

	"github.com/merchbay/storefront/internal/api"
	"github.com/merchbay/storefront/internal/domain/cart"
	"github.com/merchbay/storefront/internal/domain/session"
	"github.com/merchbay/storefront/internal/storage"
	"github.com/merchbay/storefront/internal/storage/memory"
	"github.com/merchbay/storefront/pkg/logger"
)

// fakeRemote counts every remote invocation and serves canned responses.
// The optional channels let tests hold a call open to exercise races.
type fakeRemote struct {
	mu    sync.Mutex
	token string
	calls int

	cart       []cart.Line
	cartErr    error
	addResult  []cart.Line
	addErr     error
	updateErr  error
	removeErr  error
	profile    session.Session
	profileErr error

	addStarted     chan struct{}
	addRelease     chan struct{}
	profileStarted chan struct{}
	profileRelease chan struct{}
}

func (f *fakeRemote) SetToken(token string) {
	f.mu.Lock()
	f.token = token
	f.mu.Unlock()
}

func (f *fakeRemote) inc() {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
}

func (f *fakeRemote) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeRemote) Cart(context.Context, string) ([]cart.Line, error) {
	f.inc()
	if f.cartErr != nil {
		return nil, f.cartErr
	}
	out := make([]cart.Line, len(f.cart))
	copy(out, f.cart)
	return out, nil
}

func (f *fakeRemote) AddCartItem(context.Context, string, string, int) ([]cart.Line, error) {
	f.inc()
	if f.addStarted != nil {
		close(f.addStarted)
		f.addStarted = nil
		<-f.addRelease
	}
	if f.addErr != nil {
		return nil, f.addErr
	}
	out := make([]cart.Line, len(f.addResult))
	copy(out, f.addResult)
	return out, nil
}

func (f *fakeRemote) UpdateCartItem(context.Context, string, int) error {
	f.inc()
	return f.updateErr
}

func (f *fakeRemote) RemoveCartItem(context.Context, string) error {
	f.inc()
	return f.removeErr
}

func (f *fakeRemote) Profile(context.Context) (session.Session, error) {
	f.inc()
	if f.profileStarted != nil {
		close(f.profileStarted)
		f.profileStarted = nil
		<-f.profileRelease
	}
	if f.profileErr != nil {
		return session.Session{}, f.profileErr
	}
	return f.profile, nil
}

func newTestSync(t *testing.T, remote *fakeRemote) (*Synchronizer, *memory.Store, *memory.Store) {
	t.Helper()
	durable := memory.New()
	ephemeral := memory.New()
	s, err := New(Config{
		Remote:    remote,
		Durable:   durable,
		Ephemeral: ephemeral,
		Log:       logger.NewWithOutput("cartsync-test", io.Discard),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s, durable, ephemeral
}

func seedSession(t *testing.T, durable *memory.Store) {
	t.Helper()
	ctx := context.Background()
	user, _ := json.Marshal(session.Session{UserID: "u1", DisplayName: "Ada"})
	if err := durable.Set(ctx, storage.KeyUser, user); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	if err := durable.Set(ctx, storage.KeyToken, []byte("tok-1")); err != nil {
		t.Fatalf("seed token: %v", err)
	}
}

func mustLogin(t *testing.T, s *Synchronizer) {
	t.Helper()
	err := s.Login(context.Background(), session.Session{UserID: "u1", DisplayName: "Ada", Token: "tok-1"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
}

func durableCart(t *testing.T, durable *memory.Store) []cart.Line {
	t.Helper()
	data, err := durable.Get(context.Background(), storage.KeyCartItems)
	if err != nil {
		t.Fatalf("read mirrored cart: %v", err)
	}
	var lines []cart.Line
	if err := json.Unmarshal(data, &lines); err != nil {
		t.Fatalf("decode mirrored cart: %v", err)
	}
	return lines
}

func TestRestore_Idempotent(t *testing.T) {
	remote := &fakeRemote{}
	s, durable, _ := newTestSync(t, remote)
	ctx := context.Background()

	seeded := []cart.Line{{ProductID: "5", Quantity: 2}, {ProductID: "9", Quantity: 1}}
	data, _ := json.Marshal(seeded)
	if err := durable.Set(ctx, storage.KeyCartItems, data); err != nil {
		t.Fatalf("seed cart: %v", err)
	}

	if err := s.Restore(ctx); err != nil {
		t.Fatalf("first restore: %v", err)
	}
	first := s.Cart()
	if err := s.Restore(ctx); err != nil {
		t.Fatalf("second restore: %v", err)
	}
	second := s.Cart()

	if !reflect.DeepEqual(first, seeded) {
		t.Fatalf("restored cart = %+v, want %+v", first, seeded)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("restore not idempotent: %+v vs %+v", first, second)
	}
	if remote.Calls() != 0 {
		t.Fatalf("anonymous restore made %d remote calls", remote.Calls())
	}
}

func TestRestore_ExpiredTokenForcesLogout(t *testing.T) {
	remote := &fakeRemote{profileErr: &api.StatusError{Code: http.StatusUnauthorized, Message: "expired"}}
	s, durable, ephemeral := newTestSync(t, remote)
	ctx := context.Background()

	seedSession(t, durable)
	data, _ := json.Marshal([]cart.Line{{ProductID: "5", Quantity: 2}})
	if err := durable.Set(ctx, storage.KeyCartItems, data); err != nil {
		t.Fatalf("seed cart: %v", err)
	}

	if err := s.Restore(ctx); err != nil {
		t.Fatalf("Restore: %v", err)
	}

	if s.State() != StateAnonymous {
		t.Fatalf("state = %v, want anonymous", s.State())
	}
	if len(s.Cart()) != 0 {
		t.Fatalf("cart = %+v, want empty", s.Cart())
	}
	for _, key := range []string{storage.KeyUser, storage.KeyToken, storage.KeyCartItems} {
		if _, err := durable.Get(ctx, key); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("durable key %s not cleared: %v", key, err)
		}
		if _, err := ephemeral.Get(ctx, key); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("ephemeral key %s not cleared: %v", key, err)
		}
	}
}

func TestRestore_NetworkFailureKeepsStoredToken(t *testing.T) {
	remote := &fakeRemote{profileErr: errors.New("connection refused")}
	s, durable, _ := newTestSync(t, remote)
	ctx := context.Background()

	seedSession(t, durable)
	if err := s.Restore(ctx); err == nil {
		t.Fatal("expected restore error on network failure")
	}

	if s.State() != StateAnonymous {
		t.Fatalf("state = %v, want anonymous", s.State())
	}
	// The stored token survives so the next restart can retry the check.
	if _, err := durable.Get(ctx, storage.KeyToken); err != nil {
		t.Fatalf("stored token was cleared: %v", err)
	}

	// Cart mutations behave anonymously in the meantime.
	before := remote.Calls()
	if err := s.AddItem(ctx, "5", 1); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if remote.Calls() != before {
		t.Fatal("anonymous-mode mutation made a remote call")
	}
}

func TestLogin_RemoteCartReplacesLocal(t *testing.T) {
	remote := &fakeRemote{cart: []cart.Line{}}
	s, durable, _ := newTestSync(t, remote)
	ctx := context.Background()

	if err := s.AddItem(ctx, "5", 2); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if got := durableCart(t, durable); len(got) != 1 || got[0].ProductID != "5" || got[0].Quantity != 2 {
		t.Fatalf("mirrored anonymous cart = %+v", got)
	}

	mustLogin(t, s)

	if got := s.Cart(); len(got) != 0 {
		t.Fatalf("cart after login = %+v, want empty (remote wins)", got)
	}
	if got := durableCart(t, durable); len(got) != 0 {
		t.Fatalf("mirrored cart after login = %+v, want empty", got)
	}
}

func TestLogin_ReconcileFailureKeepsLocalCart(t *testing.T) {
	remote := &fakeRemote{cartErr: errors.New("503 from backend")}
	s, _, _ := newTestSync(t, remote)
	ctx := context.Background()

	for _, p := range []string{"1", "2", "3"} {
		if err := s.AddItem(ctx, p, 1); err != nil {
			t.Fatalf("AddItem: %v", err)
		}
	}

	err := s.Login(ctx, session.Session{UserID: "u1", DisplayName: "Ada", Token: "tok-1"})
	if err == nil {
		t.Fatal("expected reconcile error")
	}

	if got := s.Cart(); len(got) != 3 {
		t.Fatalf("cart after failed reconcile has %d lines, want 3", len(got))
	}
	if s.State() != StateAuthenticated {
		t.Fatalf("state = %v, want authenticated", s.State())
	}
}

func TestAddItem_ServerQuantityWins(t *testing.T) {
	remote := &fakeRemote{
		cart:      []cart.Line{},
		addResult: []cart.Line{{LineID: "7", ProductID: "42", Quantity: 3}},
	}
	s, durable, _ := newTestSync(t, remote)
	ctx := context.Background()
	mustLogin(t, s)

	if err := s.AddItem(ctx, "42", 1); err != nil {
		t.Fatalf("AddItem: %v", err)
	}

	got := s.Cart()
	if len(got) != 1 {
		t.Fatalf("cart has %d lines, want 1", len(got))
	}
	if got[0].LineID != "7" || got[0].ProductID != "42" || got[0].Quantity != 3 {
		t.Fatalf("cart line = %+v, want server-returned line with quantity 3", got[0])
	}
	if mirrored := durableCart(t, durable); !reflect.DeepEqual(mirrored, got) {
		t.Fatalf("durable mirror = %+v, want %+v", mirrored, got)
	}
}

func TestLogout_ClearsEverything(t *testing.T) {
	remote := &fakeRemote{cart: []cart.Line{{LineID: "1", ProductID: "5", Quantity: 2}}}
	s, durable, ephemeral := newTestSync(t, remote)
	ctx := context.Background()
	mustLogin(t, s)

	if len(s.Cart()) != 1 {
		t.Fatalf("cart = %+v, want 1 line", s.Cart())
	}
	if err := s.Logout(ctx); err != nil {
		t.Fatalf("Logout: %v", err)
	}

	if len(s.Cart()) != 0 {
		t.Fatalf("cart after logout = %+v", s.Cart())
	}
	if s.State() != StateAnonymous {
		t.Fatalf("state = %v, want anonymous", s.State())
	}
	for _, key := range []string{storage.KeyUser, storage.KeyToken, storage.KeyCartItems} {
		if _, err := durable.Get(ctx, key); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("durable key %s not cleared: %v", key, err)
		}
		if _, err := ephemeral.Get(ctx, key); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("ephemeral key %s not cleared: %v", key, err)
		}
	}
}

func TestAnonymousMutations_NeverCallRemote(t *testing.T) {
	remote := &fakeRemote{}
	s, durable, _ := newTestSync(t, remote)
	ctx := context.Background()

	if err := s.AddItem(ctx, "5", 2); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if err := s.AddItem(ctx, "5", 1); err != nil {
		t.Fatalf("AddItem again: %v", err)
	}
	if err := s.AddItem(ctx, "9", 1); err != nil {
		t.Fatalf("AddItem other product: %v", err)
	}
	if err := s.UpdateQuantity(ctx, "5", 4); err != nil {
		t.Fatalf("UpdateQuantity: %v", err)
	}
	if err := s.RemoveItem(ctx, "9"); err != nil {
		t.Fatalf("RemoveItem: %v", err)
	}

	if remote.Calls() != 0 {
		t.Fatalf("anonymous mutations made %d remote calls", remote.Calls())
	}
	got := s.Cart()
	if len(got) != 1 || got[0].ProductID != "5" || got[0].Quantity != 4 {
		t.Fatalf("cart = %+v, want one line for product 5 with quantity 4", got)
	}
	if mirrored := durableCart(t, durable); !reflect.DeepEqual(mirrored, got) {
		t.Fatalf("durable mirror = %+v, want %+v", mirrored, got)
	}
}

func TestAddItem_InvalidQuantity(t *testing.T) {
	remote := &fakeRemote{}
	s, _, _ := newTestSync(t, remote)

	for _, q := range []int{0, -3} {
		if err := s.AddItem(context.Background(), "5", q); !errors.Is(err, ErrInvalidQuantity) {
			t.Errorf("AddItem quantity %d: got %v, want ErrInvalidQuantity", q, err)
		}
	}
	if remote.Calls() != 0 {
		t.Fatalf("invalid quantity reached the remote service (%d calls)", remote.Calls())
	}
}

func TestAddItem_RemoteFailureLeavesCartUnchanged(t *testing.T) {
	remote := &fakeRemote{cart: []cart.Line{{LineID: "1", ProductID: "5", Quantity: 2}}}
	s, _, _ := newTestSync(t, remote)
	ctx := context.Background()
	mustLogin(t, s)

	remote.addErr = errors.New("backend error 500: boom")
	if err := s.AddItem(ctx, "9", 1); err == nil {
		t.Fatal("expected error")
	}

	got := s.Cart()
	if len(got) != 1 || got[0].ProductID != "5" || got[0].Quantity != 2 {
		t.Fatalf("cart changed on failed add: %+v", got)
	}
}

func TestClearCart_LocalOnly(t *testing.T) {
	remote := &fakeRemote{cart: []cart.Line{{LineID: "1", ProductID: "5", Quantity: 2}}}
	s, durable, _ := newTestSync(t, remote)
	ctx := context.Background()
	mustLogin(t, s)

	before := remote.Calls()
	if err := s.ClearCart(ctx); err != nil {
		t.Fatalf("ClearCart: %v", err)
	}

	if remote.Calls() != before {
		t.Fatal("ClearCart called the remote service")
	}
	if len(s.Cart()) != 0 {
		t.Fatalf("cart = %+v, want empty", s.Cart())
	}
	if _, err := durable.Get(ctx, storage.KeyCartItems); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("durable cart key not removed: %v", err)
	}
}

func TestStaleResponseAfterLogoutIsDiscarded(t *testing.T) {
	remote := &fakeRemote{
		cart:       []cart.Line{},
		addResult:  []cart.Line{{LineID: "7", ProductID: "42", Quantity: 1}},
		addStarted: make(chan struct{}),
		addRelease: make(chan struct{}),
	}
	s, durable, _ := newTestSync(t, remote)
	ctx := context.Background()
	mustLogin(t, s)

	started := remote.addStarted
	done := make(chan error, 1)
	go func() { done <- s.AddItem(ctx, "42", 1) }()

	<-started
	if err := s.Logout(ctx); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	close(remote.addRelease)
	if err := <-done; err != nil {
		t.Fatalf("AddItem: %v", err)
	}

	// The response arrived after the session era ended and must not be
	// applied or mirrored.
	if len(s.Cart()) != 0 {
		t.Fatalf("stale response applied: %+v", s.Cart())
	}
	if _, err := durable.Get(ctx, storage.KeyCartItems); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("stale response mirrored: %v", err)
	}
}

func TestMutationDuringProfileCheckFailsFast(t *testing.T) {
	remote := &fakeRemote{
		profile:        session.Session{UserID: "u1", DisplayName: "Ada"},
		profileStarted: make(chan struct{}),
		profileRelease: make(chan struct{}),
		cart:           []cart.Line{},
	}
	s, durable, _ := newTestSync(t, remote)
	ctx := context.Background()
	seedSession(t, durable)

	started := remote.profileStarted
	done := make(chan error, 1)
	go func() { done <- s.Restore(ctx) }()

	<-started
	if err := s.AddItem(ctx, "5", 1); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("AddItem while authenticating: got %v, want ErrNotAuthenticated", err)
	}
	close(remote.profileRelease)
	if err := <-done; err != nil {
		t.Fatalf("Restore: %v", err)
	}

	if s.State() != StateAuthenticated {
		t.Fatalf("state = %v, want authenticated", s.State())
	}
}
