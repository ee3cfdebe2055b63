package handler

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/blogman/internal/model"
	"github.com/hitoshi/blogman/internal/security"
)

// FileURLResolver はファイルIDから公開URLへの解決を定義する。
// blog.Serviceが実装する。
type FileURLResolver interface {
	FileViewURL(fileID string) string
}

// ImageHandler はアイキャッチ画像のプロキシ配信を行うHTTPハンドラー。
// リモートブロブストアへのリクエストにはSSRFガード付きクライアントを使用する。
type ImageHandler struct {
	resolver FileURLResolver
	guard    security.SSRFGuardService
	client   *http.Client
	logger   *slog.Logger
}

// NewImageHandler はImageHandlerを生成する。
// clientはguard.NewSafeClientで構築したものを渡す。
func NewImageHandler(resolver FileURLResolver, guard security.SSRFGuardService, client *http.Client, logger *slog.Logger) *ImageHandler {
	return &ImageHandler{
		resolver: resolver,
		guard:    guard,
		client:   client,
		logger:   logger,
	}
}

// ViewFile はアイキャッチ画像をリモートブロブストアから取得してストリーミングする。
// GET /api/files/:id/view
func (h *ImageHandler) ViewFile(w http.ResponseWriter, r *http.Request) {
	fileID := chi.URLParam(r, "id")
	if fileID == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("ファイルIDが空です"))
		return
	}

	rawURL := h.resolver.FileViewURL(fileID)
	if err := h.guard.ValidateURL(rawURL); err != nil {
		h.logger.Warn("blocked unsafe file url",
			slog.String("file_id", fileID),
			slog.String("error", err.Error()),
		)
		writeAPIErrorResponse(w, http.StatusForbidden, &model.APIError{
			Code:     "SSRF_BLOCKED",
			Message:  "安全でないURLへのアクセスをブロックしました。",
			Category: "security",
			Action:   "ファイルIDを確認してください。",
		})
		return
	}

	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, rawURL, nil)
	if err != nil {
		writeAPIErrorResponse(w, http.StatusInternalServerError, model.NewPlatformError("リクエストの構築に失敗しました"))
		return
	}

	resp, err := h.client.Do(req)
	if err != nil {
		h.logger.Error("failed to fetch file",
			slog.String("file_id", fileID),
			slog.String("error", err.Error()),
		)
		writeAPIErrorResponse(w, http.StatusBadGateway, model.NewPlatformError("画像の取得に失敗しました"))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		writeAPIErrorResponse(w, http.StatusNotFound, &model.APIError{
			Code:     "FILE_NOT_FOUND",
			Message:  "指定されたファイルが見つかりません。",
			Category: "post",
			Action:   "ファイルIDを確認してください。",
		})
		return
	}
	if resp.StatusCode != http.StatusOK {
		writeAPIErrorResponse(w, http.StatusBadGateway, model.NewPlatformError("画像の取得に失敗しました"))
		return
	}

	if ct := resp.Header.Get("Content-Type"); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	// 公開画像なのでクライアント側キャッシュを許可する
	w.Header().Set("Cache-Control", "public, max-age=3600")

	if _, err := io.Copy(w, resp.Body); err != nil {
		h.logger.Warn("failed to stream file",
			slog.String("file_id", fileID),
			slog.String("error", err.Error()),
		)
	}
}
