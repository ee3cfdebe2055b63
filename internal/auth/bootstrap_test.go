package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/hitoshi/blogman/internal/model"
	"github.com/hitoshi/blogman/internal/store"
)

// mockProber はSessionProberのテスト用実装。
type mockProber struct {
	mu    sync.Mutex
	calls int
	getFn func(ctx context.Context) (*model.User, error)
}

func (m *mockProber) Get(ctx context.Context) (*model.User, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	return m.getFn(ctx)
}

func (m *mockProber) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func waitReady(t *testing.T, b *Bootstrapper) {
	t.Helper()
	select {
	case <-b.Ready():
	case <-time.After(2 * time.Second):
		t.Fatal("Ready() was not released")
	}
}

func TestBootstrapper_Run_SessionFound(t *testing.T) {
	user := testUser()
	prober := &mockProber{getFn: func(ctx context.Context) (*model.User, error) { return user, nil }}
	session := store.NewSessionStore(store.SessionState{})
	b := NewBootstrapper(prober, session, testLogger())

	b.Run(context.Background())
	waitReady(t, b)

	if !session.Authenticated() {
		t.Error("expected authenticated state after session restore")
	}
	if got := session.User(); got == nil || got.ID != user.ID {
		t.Errorf("user = %+v", got)
	}
}

func TestBootstrapper_Run_NoSession(t *testing.T) {
	prober := &mockProber{getFn: func(ctx context.Context) (*model.User, error) { return nil, nil }}
	session := store.NewSessionStore(store.SessionState{})
	b := NewBootstrapper(prober, session, testLogger())

	b.Run(context.Background())
	waitReady(t, b)

	if session.Authenticated() {
		t.Error("expected logged-out state when no session exists")
	}
}

func TestBootstrapper_Run_ProbeErrorYieldsLoggedOut(t *testing.T) {
	prober := &mockProber{getFn: func(ctx context.Context) (*model.User, error) {
		return nil, errors.New("platform unreachable")
	}}
	// 事前に認証済みだったとしてもエラー経路でログアウト状態へ確定する
	session := store.NewSessionStore(store.SessionState{
		Authenticated: true,
		User:          testUser(),
	})
	b := NewBootstrapper(prober, session, testLogger())

	b.Run(context.Background())
	waitReady(t, b)

	if session.Authenticated() {
		t.Error("expected logged-out state after probe error")
	}
}

func TestBootstrapper_Run_OnceOnly(t *testing.T) {
	prober := &mockProber{getFn: func(ctx context.Context) (*model.User, error) { return testUser(), nil }}
	session := store.NewSessionStore(store.SessionState{})
	b := NewBootstrapper(prober, session, testLogger())

	// 並行して複数回呼んでも照会は1回だけ、Readyの解放も1回だけ
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b.Run(context.Background())
		}()
	}
	wg.Wait()
	waitReady(t, b)

	if got := prober.callCount(); got != 1 {
		t.Errorf("probe calls = %d, want 1", got)
	}
}
