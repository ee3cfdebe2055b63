// Package store はビュー層が参照するプロセス内の状態コンテナを提供する。
//
// リモートプラットフォームから取得した結果を保持する表示用キャッシュで
// あり、真実の源泉ではない。状態の変更は各ストアに定義された操作
// メソッド経由でのみ行い、変更のたびに購読者へスナップショットを通知する。
// ブラウザと異なりGoのハンドラーは並行に動くため、各操作はミューテックスで
// 原子的に適用される（途中状態が観測されることはない）。
package store

import (
	"sync"

	"github.com/hitoshi/blogman/internal/model"
)

// SessionState はセッションストアのスナップショット。
// 不変条件: Authenticated == (User != nil)。
// ActiveSessionとOAuthProviderはOAuthリダイレクト捕捉経由で
// セッションが確立された場合にのみ設定される。
type SessionState struct {
	Authenticated bool
	User          *model.User
	ActiveSession *model.Session
	OAuthProvider string
}

// SessionStore は現在の認証状態を保持する状態コンテナ。
type SessionStore struct {
	mu        sync.RWMutex
	state     SessionState
	listeners map[int]func(SessionState)
	nextID    int
}

// NewSessionStore は指定された初期状態のSessionStoreを生成する。
// ゼロ値のSessionStateを渡すと未認証状態で開始する。
func NewSessionStore(initial SessionState) *SessionStore {
	return &SessionStore{
		state:     initial,
		listeners: make(map[int]func(SessionState)),
	}
}

// Login は直接のクレデンシャル送信によるログインを状態に反映する。
// ActiveSession/OAuthProviderには触れない。
// 既に認証済みでも再度呼び出せる（ユーザーレコードを置き換えるだけ）。
func (s *SessionStore) Login(user *model.User) {
	s.mu.Lock()
	s.state.Authenticated = true
	s.state.User = user
	snapshot := s.state
	s.mu.Unlock()

	s.notify(snapshot)
}

// SetOAuthSession はOAuthリダイレクト捕捉由来のログインを状態に反映する。
// 直接ログインとの違いはビュー層がプロバイダー固有のUIを出すための
// 識別情報を持つことだけで、認可上の意味は変わらない。
func (s *SessionStore) SetOAuthSession(user *model.User, session *model.Session, provider string) {
	s.mu.Lock()
	s.state.Authenticated = true
	s.state.User = user
	s.state.ActiveSession = session
	s.state.OAuthProvider = provider
	snapshot := s.state
	s.mu.Unlock()

	s.notify(snapshot)
}

// Logout は全フィールドを初期値に戻す。
// 呼び出し元はポストストアのClearPostsを続けて呼ぶこと（記事一覧は
// ログイン中ユーザーのフィルタに依存するため）。
func (s *SessionStore) Logout() {
	s.mu.Lock()
	s.state = SessionState{}
	snapshot := s.state
	s.mu.Unlock()

	s.notify(snapshot)
}

// State は現在のスナップショットを返す。
func (s *SessionStore) State() SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Authenticated は認証済みかどうかを返す。
func (s *SessionStore) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Authenticated
}

// User は現在のユーザーレコードを返す。未認証の場合はnil。
func (s *SessionStore) User() *model.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.User
}

// Subscribe は状態変更の購読を登録し、解除用の関数を返す。
// 通知はロックの外で行われるため、リスナー内からストアを読み直してよい。
func (s *SessionStore) Subscribe(fn func(SessionState)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// notify は登録済みリスナーへスナップショットを配る。
func (s *SessionStore) notify(snapshot SessionState) {
	s.mu.RLock()
	fns := make([]func(SessionState), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.RUnlock()

	for _, fn := range fns {
		fn(snapshot)
	}
}
