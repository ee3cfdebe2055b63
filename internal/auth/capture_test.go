package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hitoshi/blogman/internal/model"
	"github.com/hitoshi/blogman/internal/store"
)

func TestCapture_Probe_Success(t *testing.T) {
	user := testUser()
	prober := &mockProber{getFn: func(ctx context.Context) (*model.User, error) { return user, nil }}
	session := store.NewSessionStore(store.SessionState{})
	capture := NewCapture(prober, session, testLogger(), time.Millisecond)

	capture.Probe(context.Background())

	state := session.State()
	if !state.Authenticated {
		t.Fatal("expected authenticated state after capture")
	}
	if state.OAuthProvider != "google" {
		t.Errorf("provider = %q, want %q", state.OAuthProvider, "google")
	}
	// 照会で得られるのはアカウントレコードのみのため、
	// レコードIDがそのままセッションハンドルになる
	if state.ActiveSession == nil || state.ActiveSession.ID != user.ID {
		t.Errorf("activeSession = %+v", state.ActiveSession)
	}
}

func TestCapture_Probe_NoSessionIsSilent(t *testing.T) {
	prober := &mockProber{getFn: func(ctx context.Context) (*model.User, error) { return nil, nil }}
	session := store.NewSessionStore(store.SessionState{})
	capture := NewCapture(prober, session, testLogger(), time.Millisecond)

	capture.Probe(context.Background())

	// セッションなしはストアに触れず静かに終わる
	if session.Authenticated() {
		t.Error("expected store to be untouched")
	}
}

func TestCapture_Probe_ErrorIsSwallowed(t *testing.T) {
	prober := &mockProber{getFn: func(ctx context.Context) (*model.User, error) {
		return nil, errors.New("platform unreachable")
	}}
	session := store.NewSessionStore(store.SessionState{})
	capture := NewCapture(prober, session, testLogger(), time.Millisecond)

	// パニックもストア変更もなく戻ること
	capture.Probe(context.Background())

	if session.Authenticated() {
		t.Error("expected store to be untouched after probe error")
	}
}

func TestCapture_Probe_CancelledBeforeDelay(t *testing.T) {
	prober := &mockProber{getFn: func(ctx context.Context) (*model.User, error) { return testUser(), nil }}
	session := store.NewSessionStore(store.SessionState{})
	capture := NewCapture(prober, session, testLogger(), time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	capture.Probe(ctx)

	// 遅延中にキャンセルされた場合は照会しない
	if got := prober.callCount(); got != 0 {
		t.Errorf("probe calls = %d, want 0", got)
	}
}

func TestCapture_RaceWithManualLogin_LastWriteWins(t *testing.T) {
	user := testUser()
	prober := &mockProber{getFn: func(ctx context.Context) (*model.User, error) { return user, nil }}
	session := store.NewSessionStore(store.SessionState{})
	capture := NewCapture(prober, session, testLogger(), time.Millisecond)

	// 捕捉が先に書き込み、手動ログインが後から上書きする
	capture.Probe(context.Background())
	manual := &model.User{ID: "user-2", Email: "manual@example.com"}
	session.Login(manual)

	state := session.State()
	if state.User == nil || state.User.ID != "user-2" {
		t.Errorf("user = %+v, want manual login to win", state.User)
	}
}
