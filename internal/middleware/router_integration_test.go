package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/blogman/internal/model"
)

// TestRouterIntegration_ProtectedRoute_WithMiddlewareChain は
// Session -> RateLimit のミドルウェアチェーンがchi.Routerで正しく動作することを検証する。
func TestRouterIntegration_ProtectedRoute_WithMiddlewareChain(t *testing.T) {
	checker := &mockSessionChecker{
		authenticated: true,
		user:          &model.User{ID: "user-router-test"},
	}

	rl := NewRateLimiter(RateLimiterConfig{
		GeneralRate:     100,
		GeneralBurst:    200,
		PublishRate:     1,
		PublishBurst:    1,
		CleanupInterval: 1 * time.Minute,
	})
	defer rl.Stop()

	r := chi.NewRouter()

	// 公開エンドポイント（認証不要）
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// 認証が必要なルートグループ
	r.Group(func(r chi.Router) {
		r.Use(NewSessionMiddleware(checker))
		r.Use(rl.GeneralMiddleware())

		r.Get("/api/posts", func(w http.ResponseWriter, r *http.Request) {
			userID, _ := UserIDFromContext(r.Context())
			json.NewEncoder(w).Encode(map[string]string{"user_id": userID})
		})

		r.With(rl.PublishMiddleware()).Post("/api/posts", func(w http.ResponseWriter, r *http.Request) {
			userID, _ := UserIDFromContext(r.Context())
			json.NewEncoder(w).Encode(map[string]string{"user_id": userID, "action": "created"})
		})
	})

	// テスト1: GET /api/posts は認証ありで通る
	t.Run("GET_posts_with_session", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/posts", nil)
		w := httptest.NewRecorder()

		r.ServeHTTP(w, req)

		if w.Result().StatusCode != http.StatusOK {
			t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusOK)
		}

		var body map[string]string
		json.NewDecoder(w.Result().Body).Decode(&body)
		if body["user_id"] != "user-router-test" {
			t.Errorf("user_id = %q, want %q", body["user_id"], "user-router-test")
		}
	})

	// テスト2: 認証なしでは401
	t.Run("GET_posts_no_session", func(t *testing.T) {
		checker.authenticated = false
		checker.user = nil
		defer func() {
			checker.authenticated = true
			checker.user = &model.User{ID: "user-router-test"}
		}()

		req := httptest.NewRequest(http.MethodGet, "/api/posts", nil)
		w := httptest.NewRecorder()

		r.ServeHTTP(w, req)

		if w.Result().StatusCode != http.StatusUnauthorized {
			t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusUnauthorized)
		}
	})

	// テスト3: POST /api/posts は投稿リミッターが独立に効く（バースト1なので2回目は429）
	t.Run("POST_posts_publish_limit", func(t *testing.T) {
		req1 := httptest.NewRequest(http.MethodPost, "/api/posts", nil)
		w1 := httptest.NewRecorder()
		r.ServeHTTP(w1, req1)

		if w1.Result().StatusCode != http.StatusOK {
			t.Fatalf("first POST: status = %d, want %d", w1.Result().StatusCode, http.StatusOK)
		}

		req2 := httptest.NewRequest(http.MethodPost, "/api/posts", nil)
		w2 := httptest.NewRecorder()
		r.ServeHTTP(w2, req2)

		if w2.Result().StatusCode != http.StatusTooManyRequests {
			t.Errorf("second POST: status = %d, want %d", w2.Result().StatusCode, http.StatusTooManyRequests)
		}
	})

	// テスト4: 公開エンドポイントは認証不要
	t.Run("health_no_auth", func(t *testing.T) {
		checker.authenticated = false
		defer func() { checker.authenticated = true }()

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		w := httptest.NewRecorder()

		r.ServeHTTP(w, req)

		if w.Result().StatusCode != http.StatusOK {
			t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusOK)
		}
	})
}
