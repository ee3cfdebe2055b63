package blog

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/hitoshi/blogman/internal/appwrite"
	"github.com/hitoshi/blogman/internal/model"
	"github.com/hitoshi/blogman/internal/store"
)

// DocumentAPI はリモートドキュメントストアへの操作を定義する。
// 実装はinternal/appwriteのDatabasesが提供する。
type DocumentAPI interface {
	CreateDocument(ctx context.Context, slug string, fields model.PostFields) (*model.Post, error)
	UpdateDocument(ctx context.Context, slug string, fields model.PostFields) (*model.Post, error)
	DeleteDocument(ctx context.Context, slug string) (bool, error)
	GetDocument(ctx context.Context, slug string) (*model.Post, error)
	ListDocuments(ctx context.Context, queries []string) ([]model.Post, error)
}

// StorageAPI はリモートブロブストアへの操作を定義する。
// 実装はinternal/appwriteのStorageが提供する。
type StorageAPI interface {
	CreateFile(ctx context.Context, filename string, content io.Reader) (*appwrite.File, error)
	DeleteFile(ctx context.Context, fileID string) (bool, error)
	FileViewURL(fileID string) string
}

// SessionReader は現在のログインユーザーの参照を定義する。
// SessionStoreが実装する。
type SessionReader interface {
	Authenticated() bool
	User() *model.User
}

// Sanitizer は記事本文HTMLのサニタイズを定義する。
type Sanitizer interface {
	Sanitize(rawHTML string) string
}

// MutationRecorder は記事の作成・更新・削除のメトリクス記録を定義する。
// nil可。
type MutationRecorder interface {
	RecordPostMutation(op string)
}

// CreateInput は記事作成の入力。
type CreateInput struct {
	Title        string
	Slug         string // 空ならタイトルから生成する
	Content      string // エディタからの生HTML
	Status       string
	ImageName    string
	ImageContent io.Reader // nil不可（作成時はアイキャッチ必須）
}

// UpdateInput は記事更新の入力。
// 空のフィールドは既存値を保持する。
type UpdateInput struct {
	Title        string
	Content      string
	Status       string
	ImageName    string
	ImageContent io.Reader // nilなら画像は差し替えない
}

// Service は記事に関するビジネスロジックを提供する。
// リモート操作が成功した後にのみ記事ストアを更新する。
type Service struct {
	docs      DocumentAPI
	files     StorageAPI
	session   SessionReader
	posts     *store.PostStore
	sanitizer Sanitizer
	metrics   MutationRecorder
	logger    *slog.Logger
}

// NewService はServiceを生成する。metricsはnil可。
func NewService(
	docs DocumentAPI,
	files StorageAPI,
	session SessionReader,
	posts *store.PostStore,
	sanitizer Sanitizer,
	metrics MutationRecorder,
	logger *slog.Logger,
) *Service {
	return &Service{
		docs:      docs,
		files:     files,
		session:   session,
		posts:     posts,
		sanitizer: sanitizer,
		metrics:   metrics,
		logger:    logger,
	}
}

// CreatePost は記事を作成する。
// 本文サニタイズ → スラッグ検証 → 画像アップロード → ドキュメント作成 →
// 記事ストアへ先頭追加の順で進む。ドキュメント作成に失敗しても
// アップロード済みブロブの取り消しは行わない（孤児ブロブは許容する）。
func (s *Service) CreatePost(ctx context.Context, input CreateInput) (*model.Post, error) {
	user := s.session.User()
	if user == nil {
		return nil, model.NewNotAuthenticatedError()
	}

	if input.Title == "" {
		return nil, model.NewValidationError("タイトルは必須です")
	}

	status := model.PostStatus(input.Status)
	if !status.IsValid() {
		return nil, model.NewInvalidStatusError(input.Status)
	}

	slug := input.Slug
	if slug == "" {
		slug = Slugify(input.Title)
	} else {
		slug = Slugify(slug)
	}
	if !ValidateSlug(slug) {
		return nil, model.NewInvalidSlugError(slug)
	}

	if input.ImageContent == nil {
		return nil, model.NewValidationError("アイキャッチ画像は必須です")
	}

	content := s.sanitizer.Sanitize(input.Content)

	file, err := s.files.CreateFile(ctx, input.ImageName, input.ImageContent)
	if err != nil {
		return nil, model.NewUploadFailedError(err.Error())
	}

	fields := model.PostFields{
		Title:         input.Title,
		Content:       content,
		Status:        status,
		FeaturedImage: file.ID,
		AuthorID:      user.ID,
		AuthorName:    user.Name,
	}

	post, err := s.docs.CreateDocument(ctx, slug, fields)
	if err != nil {
		return nil, err
	}

	s.posts.AddPost(*post)
	s.recordMutation("create")
	s.logger.Info("記事を作成しました",
		slog.String("slug", post.ID),
		slog.String("user_id", user.ID),
	)
	return post, nil
}

// UpdatePost は記事を更新する。
// 空のタイトル・本文・ステータスは画像パートと同様に「既存値を保持する」
// として扱う。新しい画像が渡された場合は先にアップロードし、プラットフォームが
// 受理した後にのみ旧ブロブを削除する。旧ブロブの削除失敗は
// ログに残すだけで処理は続行する。
func (s *Service) UpdatePost(ctx context.Context, slug string, input UpdateInput) (*model.Post, error) {
	user := s.session.User()
	if user == nil {
		return nil, model.NewNotAuthenticatedError()
	}

	existing, err := s.docs.GetDocument(ctx, slug)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, model.NewPostNotFoundError(slug)
	}

	title := input.Title
	if title == "" {
		title = existing.Title
	}

	status := existing.Status
	if input.Status != "" {
		status = model.PostStatus(input.Status)
		if !status.IsValid() {
			return nil, model.NewInvalidStatusError(input.Status)
		}
	}

	// 既存の本文はすでにサニタイズ済みなので再処理しない
	content := existing.Content
	if input.Content != "" {
		content = s.sanitizer.Sanitize(input.Content)
	}

	featuredImage := existing.FeaturedImage
	if input.ImageContent != nil {
		file, err := s.files.CreateFile(ctx, input.ImageName, input.ImageContent)
		if err != nil {
			return nil, model.NewUploadFailedError(err.Error())
		}

		// 新しいブロブが受理されてから旧ブロブを片付ける
		if existing.FeaturedImage != "" {
			if _, err := s.files.DeleteFile(ctx, existing.FeaturedImage); err != nil {
				s.logger.Warn("旧アイキャッチ画像の削除に失敗しました",
					slog.String("file_id", existing.FeaturedImage),
					slog.String("error", err.Error()),
				)
			}
		}
		featuredImage = file.ID
	}

	fields := model.PostFields{
		Title:         title,
		Content:       content,
		Status:        status,
		FeaturedImage: featuredImage,
		AuthorID:      existing.AuthorID,
		AuthorName:    existing.AuthorName,
	}

	post, err := s.docs.UpdateDocument(ctx, slug, fields)
	if err != nil {
		return nil, err
	}

	s.posts.UpdatePost(*post)
	s.recordMutation("update")
	s.logger.Info("記事を更新しました", slog.String("slug", slug))
	return post, nil
}

// DeletePost は記事を削除する。
// ドキュメント削除 → ブロブ削除 → 記事ストアから除去の順。
// ブロブ削除の失敗は致命ではなくログに残すだけで続行する。
func (s *Service) DeletePost(ctx context.Context, slug string) error {
	if !s.session.Authenticated() {
		return model.NewNotAuthenticatedError()
	}

	existing, err := s.docs.GetDocument(ctx, slug)
	if err != nil {
		return err
	}
	if existing == nil {
		return model.NewPostNotFoundError(slug)
	}

	if _, err := s.docs.DeleteDocument(ctx, slug); err != nil {
		return err
	}

	if existing.FeaturedImage != "" {
		if _, err := s.files.DeleteFile(ctx, existing.FeaturedImage); err != nil {
			s.logger.Warn("アイキャッチ画像の削除に失敗しました",
				slog.String("file_id", existing.FeaturedImage),
				slog.String("error", err.Error()),
			)
		}
	}

	s.posts.DeletePost(slug)
	s.recordMutation("delete")
	s.logger.Info("記事を削除しました", slog.String("slug", slug))
	return nil
}

// GetPost はスラッグで記事を1件取得する。存在しない場合は(nil, nil)。
func (s *Service) GetPost(ctx context.Context, slug string) (*model.Post, error) {
	return s.docs.GetDocument(ctx, slug)
}

// ListPosts は公開中の記事一覧を取得して記事ストアを置き換える。
// authorIDが非空の場合はその著者の記事に絞り込む。
// ローディングフラグはどの経路でも必ず下ろす。
func (s *Service) ListPosts(ctx context.Context, authorID string) ([]model.Post, error) {
	s.posts.SetLoading(true)
	defer s.posts.SetLoading(false)

	queries := []string{appwrite.QueryEqual("status", string(model.PostStatusActive))}
	if authorID != "" {
		queries = append(queries, appwrite.QueryEqual("userId", authorID))
	}

	posts, err := s.docs.ListDocuments(ctx, queries)
	if err != nil {
		return nil, fmt.Errorf("記事一覧の取得に失敗しました: %w", err)
	}

	s.posts.SetPosts(posts)
	s.logger.Info("記事一覧を取得しました", slog.Int("post_count", len(posts)))
	return posts, nil
}

// FileViewURL はアイキャッチ画像の閲覧URLを返す。
func (s *Service) FileViewURL(fileID string) string {
	return s.files.FileViewURL(fileID)
}

func (s *Service) recordMutation(op string) {
	if s.metrics != nil {
		s.metrics.RecordPostMutation(op)
	}
}
