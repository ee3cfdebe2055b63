package store

import (
	"testing"

	"github.com/hitoshi/blogman/internal/model"
)

func testPost(id string) model.Post {
	return model.Post{
		ID:     id,
		Title:  "タイトル " + id,
		Status: model.PostStatusActive,
	}
}

// TestPostStore_AddPost_Prepends は作成された記事が先頭に追加されることを検証する。
func TestPostStore_AddPost_Prepends(t *testing.T) {
	s := NewPostStore(PostState{})
	s.SetPosts([]model.Post{testPost("p1"), testPost("p2")})

	s.AddPost(testPost("p3"))

	st := s.State()
	if len(st.Posts) != 3 {
		t.Fatalf("len(Posts) = %d, want 3", len(st.Posts))
	}
	if st.Posts[0].ID != "p3" {
		t.Errorf("Posts[0].ID = %q, want %q", st.Posts[0].ID, "p3")
	}
	if st.Posts[1].ID != "p1" || st.Posts[2].ID != "p2" {
		t.Errorf("existing order changed: %q, %q", st.Posts[1].ID, st.Posts[2].ID)
	}
}

// TestPostStore_UpdatePost_ReplacesInPlace は一致するIDのエントリが
// 長さと他エントリの順序を変えずに置き換わることを検証する。
func TestPostStore_UpdatePost_ReplacesInPlace(t *testing.T) {
	s := NewPostStore(PostState{})
	s.SetPosts([]model.Post{testPost("p1"), testPost("p2"), testPost("p3")})

	updated := testPost("p2")
	updated.Title = "更新されたタイトル"
	s.UpdatePost(updated)

	st := s.State()
	if len(st.Posts) != 3 {
		t.Fatalf("len(Posts) = %d, want 3", len(st.Posts))
	}
	if st.Posts[1].Title != "更新されたタイトル" {
		t.Errorf("Posts[1].Title = %q, want %q", st.Posts[1].Title, "更新されたタイトル")
	}
	if st.Posts[0].ID != "p1" || st.Posts[2].ID != "p3" {
		t.Errorf("order of other entries changed: %q, %q", st.Posts[0].ID, st.Posts[2].ID)
	}
}

// TestPostStore_UpdatePost_UnknownID_IsNoOp は未知のIDに対する更新が
// 一覧を一切変えないことを検証する。
func TestPostStore_UpdatePost_UnknownID_IsNoOp(t *testing.T) {
	s := NewPostStore(PostState{})
	s.SetPosts([]model.Post{testPost("p1"), testPost("p2")})

	notified := false
	s.Subscribe(func(PostState) { notified = true })

	s.UpdatePost(testPost("unknown"))

	st := s.State()
	if len(st.Posts) != 2 {
		t.Fatalf("len(Posts) = %d, want 2", len(st.Posts))
	}
	if st.Posts[0].ID != "p1" || st.Posts[1].ID != "p2" {
		t.Errorf("contents changed: %q, %q", st.Posts[0].ID, st.Posts[1].ID)
	}
	// 変更がないので通知もされないこと
	if notified {
		t.Error("no-op update should not notify listeners")
	}
}

// TestPostStore_DeletePost はIDが一致するエントリだけが取り除かれ、
// 同じIDでの再呼び出しが冪等であることを検証する。
func TestPostStore_DeletePost(t *testing.T) {
	s := NewPostStore(PostState{})
	s.SetPosts([]model.Post{testPost("p1"), testPost("p2"), testPost("p3")})

	s.DeletePost("p2")

	st := s.State()
	if len(st.Posts) != 2 {
		t.Fatalf("len(Posts) = %d, want 2", len(st.Posts))
	}
	if st.Posts[0].ID != "p1" || st.Posts[1].ID != "p3" {
		t.Errorf("remaining = %q, %q; want p1, p3", st.Posts[0].ID, st.Posts[1].ID)
	}

	// 2回目はno-op
	s.DeletePost("p2")
	if got := len(s.State().Posts); got != 2 {
		t.Errorf("len(Posts) after second delete = %d, want 2", got)
	}
}

// TestPostStore_SetPosts_ClearsLoading は一覧置き換えがローディングを解除することを検証する。
func TestPostStore_SetPosts_ClearsLoading(t *testing.T) {
	s := NewPostStore(PostState{})

	s.SetLoading(true)
	if !s.State().Loading {
		t.Fatal("expected Loading = true")
	}

	s.SetPosts([]model.Post{testPost("p1")})

	st := s.State()
	if st.Loading {
		t.Error("expected Loading = false after SetPosts")
	}
	if len(st.Posts) != 1 || st.Posts[0].ID != "p1" {
		t.Errorf("Posts = %v, want [p1]", st.Posts)
	}
}

// TestPostStore_ClearPosts は一覧が空になりローディングも解除されることを検証する。
func TestPostStore_ClearPosts(t *testing.T) {
	s := NewPostStore(PostState{})
	s.SetPosts([]model.Post{testPost("a"), testPost("b"), testPost("c")})
	s.SetLoading(true)

	s.ClearPosts()

	st := s.State()
	if len(st.Posts) != 0 {
		t.Errorf("len(Posts) = %d, want 0", len(st.Posts))
	}
	if st.Loading {
		t.Error("expected Loading = false after ClearPosts")
	}
}

// TestPostStore_SetPosts_CopiesInput は引数スライスの後からの変更が
// ストアに影響しないことを検証する。
func TestPostStore_SetPosts_CopiesInput(t *testing.T) {
	s := NewPostStore(PostState{})
	posts := []model.Post{testPost("p1")}

	s.SetPosts(posts)
	posts[0].Title = "外から書き換え"

	if got := s.State().Posts[0].Title; got == "外から書き換え" {
		t.Error("store should hold a copy of the input slice")
	}
}

// TestPostStore_State_ReturnsCopy はState()の戻り値を変更しても
// ストアに影響しないことを検証する。
func TestPostStore_State_ReturnsCopy(t *testing.T) {
	s := NewPostStore(PostState{})
	s.SetPosts([]model.Post{testPost("p1")})

	st := s.State()
	st.Posts[0].Title = "スナップショット側で書き換え"

	if got := s.State().Posts[0].Title; got == "スナップショット側で書き換え" {
		t.Error("State() should return a defensive copy")
	}
}

// TestPostStore_Subscribe は変更通知と購読解除を検証する。
func TestPostStore_Subscribe(t *testing.T) {
	s := NewPostStore(PostState{})

	count := 0
	unsubscribe := s.Subscribe(func(PostState) { count++ })

	s.SetLoading(true)
	s.SetPosts([]model.Post{testPost("p1")})
	s.AddPost(testPost("p2"))

	if count != 3 {
		t.Errorf("notification count = %d, want 3", count)
	}

	unsubscribe()
	s.ClearPosts()

	if count != 3 {
		t.Errorf("notification count after unsubscribe = %d, want 3", count)
	}
}
