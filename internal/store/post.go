package store

import (
	"sync"

	"github.com/hitoshi/blogman/internal/model"
)

// PostState はポストストアのスナップショット。
// Postsは挿入順を保持し、IDの重複はない。
// Loadingは一覧フェッチが未完了の間だけtrueになる。
type PostState struct {
	Posts   []model.Post
	Loading bool
}

// PostStore は取得済み記事一覧とローディングフラグを保持する状態コンテナ。
// 一覧の順序は、新規作成された記事は先頭へ、フェッチ結果は
// サーバーが返した順のまま保持される。
type PostStore struct {
	mu        sync.RWMutex
	state     PostState
	listeners map[int]func(PostState)
	nextID    int
}

// NewPostStore は指定された初期状態のPostStoreを生成する。
// ゼロ値のPostStateを渡すと空の一覧で開始する。
func NewPostStore(initial PostState) *PostStore {
	return &PostStore{
		state:     initial,
		listeners: make(map[int]func(PostState)),
	}
}

// SetLoading はローディングフラグを設定する。
// 呼び出し元はフェッチ開始前にtrueを設定し、フェッチ完了時
// （失敗時を含む）に必ず解除すること。ビューが永久にローディング
// 表示のままにならないことは呼び出し側の責務で保証する。
func (s *PostStore) SetLoading(loading bool) {
	s.mu.Lock()
	s.state.Loading = loading
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snapshot)
}

// SetPosts は一覧全体を置き換え、ローディングフラグを解除する。
// 一覧フェッチの完了時（空の結果を含む）に使用する。
func (s *PostStore) SetPosts(posts []model.Post) {
	s.mu.Lock()
	s.state.Posts = make([]model.Post, len(posts))
	copy(s.state.Posts, posts)
	s.state.Loading = false
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snapshot)
}

// AddPost は記事を先頭に追加する。作成成功後に使用する。
// IDの一意性チェックは行わない。重複IDはリモートストアが
// ドキュメント作成時点で拒否するため、ここに来る時点で一意が保証される。
func (s *PostStore) AddPost(post model.Post) {
	s.mu.Lock()
	s.state.Posts = append([]model.Post{post}, s.state.Posts...)
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snapshot)
}

// UpdatePost はIDが一致する既存エントリをその場で置き換える。
// 一致するエントリがない場合は何もしない。ローカルに無いだけなら
// 次の一覧フェッチで整合するため、エラーにはしない。
func (s *PostStore) UpdatePost(post model.Post) {
	s.mu.Lock()
	replaced := false
	for i := range s.state.Posts {
		if s.state.Posts[i].ID == post.ID {
			s.state.Posts[i] = post
			replaced = true
			break
		}
	}
	if !replaced {
		s.mu.Unlock()
		return
	}
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snapshot)
}

// DeletePost はIDが一致するエントリを取り除く。
// 存在しないIDに対しては何もしない（冪等）。
func (s *PostStore) DeletePost(id string) {
	s.mu.Lock()
	idx := -1
	for i := range s.state.Posts {
		if s.state.Posts[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return
	}
	s.state.Posts = append(s.state.Posts[:idx], s.state.Posts[idx+1:]...)
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snapshot)
}

// ClearPosts は一覧を空にし、ローディングフラグも解除する。
// ログアウト時に呼び出される（クロスストアルール）。
func (s *PostStore) ClearPosts() {
	s.mu.Lock()
	s.state = PostState{}
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snapshot)
}

// State は現在のスナップショットを返す。
// Postsスライスはコピーであり、呼び出し側が変更してもストアには影響しない。
func (s *PostStore) State() PostState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Subscribe は状態変更の購読を登録し、解除用の関数を返す。
func (s *PostStore) Subscribe(fn func(PostState)) func() {
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

// snapshotLocked は呼び出し側がロックを保持している前提で
// Postsをコピーしたスナップショットを返す。
func (s *PostStore) snapshotLocked() PostState {
	posts := make([]model.Post, len(s.state.Posts))
	copy(posts, s.state.Posts)
	return PostState{Posts: posts, Loading: s.state.Loading}
}

// notify は登録済みリスナーへスナップショットを配る。
func (s *PostStore) notify(snapshot PostState) {
	s.mu.RLock()
	fns := make([]func(PostState), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.RUnlock()

	for _, fn := range fns {
		fn(snapshot)
	}
}
