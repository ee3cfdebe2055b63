package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/blogman/internal/blog"
	"github.com/hitoshi/blogman/internal/middleware"
	"github.com/hitoshi/blogman/internal/model"
)

// PostServiceInterface は記事ハンドラーが必要とするサービスインターフェース。
type PostServiceInterface interface {
	// CreatePost は記事を作成する。
	CreatePost(ctx context.Context, input blog.CreateInput) (*model.Post, error)
	// UpdatePost は既存記事を更新する。
	UpdatePost(ctx context.Context, slug string, input blog.UpdateInput) (*model.Post, error)
	// DeletePost は記事と添付画像を削除する。
	DeletePost(ctx context.Context, slug string) error
	// GetPost はスラッグで記事を取得する。見つからなければ(nil, nil)を返す。
	GetPost(ctx context.Context, slug string) (*model.Post, error)
	// ListPosts は公開中の記事一覧を取得する。authorIDが空なら全著者を対象にする。
	ListPosts(ctx context.Context, authorID string) ([]model.Post, error)
	// FileViewURL はアイキャッチ画像の公開URLを返す。
	FileViewURL(fileID string) string
}

// PostHandlerConfig は記事ハンドラーの設定。
type PostHandlerConfig struct {
	MaxUploadSize int64 // multipartフォーム全体の上限（バイト）
}

// PostHandler は記事管理のHTTPハンドラー。
type PostHandler struct {
	service PostServiceInterface
	session SessionSource
	config  PostHandlerConfig
}

// NewPostHandler はPostHandlerを生成する。
func NewPostHandler(service PostServiceInterface, session SessionSource, config PostHandlerConfig) *PostHandler {
	return &PostHandler{
		service: service,
		session: session,
		config:  config,
	}
}

// postResponse は記事のAPIレスポンス。
type postResponse struct {
	ID               string `json:"id"`
	Title            string `json:"title"`
	Content          string `json:"content"`
	Status           string `json:"status"`
	FeaturedImageURL string `json:"featured_image_url"`
	AuthorID         string `json:"author_id"`
	AuthorName       string `json:"author_name"`
	CreatedAt        string `json:"created_at"`
}

// postSummaryResponse は一覧用の記事サマリーレスポンス。
// 本文の代わりに抜粋テキストと抜粋画像を返す。
type postSummaryResponse struct {
	ID               string `json:"id"`
	Title            string `json:"title"`
	Excerpt          string `json:"excerpt"`
	ExcerptImageURL  string `json:"excerpt_image_url,omitempty"`
	Status           string `json:"status"`
	FeaturedImageURL string `json:"featured_image_url"`
	AuthorID         string `json:"author_id"`
	AuthorName       string `json:"author_name"`
	CreatedAt        string `json:"created_at"`
}

// apiErrorResponse は統一エラーフォーマットのレスポンス。
type apiErrorResponse struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

// CreatePost は記事作成を処理する。
// アイキャッチ画像を含むmultipart/form-dataを受け付ける。
// POST /api/posts
func (h *PostHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	if _, err := middleware.UserIDFromContext(r.Context()); err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewNotAuthenticatedError())
		return
	}

	if err := r.ParseMultipartForm(h.config.MaxUploadSize); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("multipartフォームの解析に失敗しました"))
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("アイキャッチ画像は必須です"))
		return
	}
	defer file.Close()

	post, err := h.service.CreatePost(r.Context(), blog.CreateInput{
		Title:        r.FormValue("title"),
		Slug:         r.FormValue("slug"),
		Content:      r.FormValue("content"),
		Status:       r.FormValue("status"),
		ImageName:    header.Filename,
		ImageContent: file,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(h.toPostResponse(post))
}

// UpdatePost は記事更新を処理する。
// 画像パートを省略した場合は既存のアイキャッチを維持する。
// PATCH /api/posts/:slug
func (h *PostHandler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	if err := r.ParseMultipartForm(h.config.MaxUploadSize); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("multipartフォームの解析に失敗しました"))
		return
	}

	input := blog.UpdateInput{
		Title:   r.FormValue("title"),
		Content: r.FormValue("content"),
		Status:  r.FormValue("status"),
	}

	file, header, err := r.FormFile("image")
	if err == nil {
		defer file.Close()
		input.ImageName = header.Filename
		input.ImageContent = file
	}

	post, err := h.service.UpdatePost(r.Context(), slug, input)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.toPostResponse(post))
}

// GetPost は記事詳細を取得する。
// GET /api/posts/:slug
func (h *PostHandler) GetPost(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	post, err := h.service.GetPost(r.Context(), slug)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if post == nil {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewPostNotFoundError(slug))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.toPostResponse(post))
}

// ListPosts は公開中の記事一覧を返す。
// author=me を指定すると自分の記事だけに絞り込む。
// GET /api/posts?author=me
func (h *PostHandler) ListPosts(w http.ResponseWriter, r *http.Request) {
	authorID := ""
	if r.URL.Query().Get("author") == "me" {
		// 一覧は公開ルートなのでセッションミドルウェアを通らない。
		// コンテキストにユーザーIDがなければセッションストアから直接解決する。
		userID, err := middleware.UserIDFromContext(r.Context())
		if err != nil {
			user := h.session.User()
			if !h.session.Authenticated() || user == nil {
				writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewNotAuthenticatedError())
				return
			}
			userID = user.ID
		}
		authorID = userID
	}

	posts, err := h.service.ListPosts(r.Context(), authorID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	summaries := make([]postSummaryResponse, 0, len(posts))
	for i := range posts {
		summaries = append(summaries, h.toPostSummaryResponse(&posts[i]))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"total": len(summaries),
		"posts": summaries,
	})
}

// DeletePost は記事の削除を処理する。
// DELETE /api/posts/:slug
func (h *PostHandler) DeletePost(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	if err := h.service.DeletePost(r.Context(), slug); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// --- ヘルパー関数 ---

// toPostResponse はmodel.PostからAPIレスポンスに変換する。
func (h *PostHandler) toPostResponse(post *model.Post) postResponse {
	return postResponse{
		ID:               post.ID,
		Title:            post.Title,
		Content:          post.Content,
		Status:           string(post.Status),
		FeaturedImageURL: h.service.FileViewURL(post.FeaturedImage),
		AuthorID:         post.AuthorID,
		AuthorName:       post.AuthorName,
		CreatedAt:        post.CreatedAt.Format(time.RFC3339),
	}
}

// toPostSummaryResponse は一覧用に本文を抜粋へ置き換えたレスポンスに変換する。
func (h *PostHandler) toPostSummaryResponse(post *model.Post) postSummaryResponse {
	excerpt := blog.ExtractExcerpt(post.Content)
	return postSummaryResponse{
		ID:               post.ID,
		Title:            post.Title,
		Excerpt:          excerpt.Text,
		ExcerptImageURL:  excerpt.ImageURL,
		Status:           string(post.Status),
		FeaturedImageURL: h.service.FileViewURL(post.FeaturedImage),
		AuthorID:         post.AuthorID,
		AuthorName:       post.AuthorName,
		CreatedAt:        post.CreatedAt.Format(time.RFC3339),
	}
}

// writeAPIErrorResponse は統一エラーフォーマットでエラーレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(apiErrorResponse{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
	})
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		statusCode := mapAPIErrorToHTTPStatus(apiErr)
		writeAPIErrorResponse(w, statusCode, apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	writeAPIErrorResponse(w, http.StatusInternalServerError, &model.APIError{
		Code:     "INTERNAL_ERROR",
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	})
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeNotAuthenticated, model.ErrCodeInvalidCredentials:
		return http.StatusUnauthorized
	case model.ErrCodeAccountExists, model.ErrCodeDuplicateSlug:
		return http.StatusConflict
	case model.ErrCodeValidationFailed, model.ErrCodeInvalidSlug, model.ErrCodeInvalidStatus:
		return http.StatusBadRequest
	case model.ErrCodePostNotFound:
		return http.StatusNotFound
	case model.ErrCodeUploadFailed, model.ErrCodePlatformError:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
