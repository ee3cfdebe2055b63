package appwrite

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"

	"github.com/google/uuid"
)

const serviceStorage = "storage"

// File はブロブストアのファイルメタデータを表す。
type File struct {
	ID       string `json:"$id"`
	Name     string `json:"name"`
	MimeType string `json:"mimeType"`
	Size     int64  `json:"sizeOriginal"`
}

// Storage はブロブストアへのリクエストを提供する。
// 記事のアイキャッチ画像バケット1つに固定されている。
type Storage struct {
	c        *Client
	bucketID string
}

// NewStorage はStorageを生成する。
func NewStorage(c *Client, bucketID string) *Storage {
	return &Storage{c: c, bucketID: bucketID}
}

func (s *Storage) filesPath() string {
	return fmt.Sprintf("/v1/storage/buckets/%s/files", url.PathEscape(s.bucketID))
}

func (s *Storage) filePath(fileID string) string {
	return s.filesPath() + "/" + url.PathEscape(fileID)
}

// CreateFile は画像ファイルをアップロードする。
// ファイルIDはクライアント側で採番し、誰でも閲覧可能な読み取り権限を付与する。
func (s *Storage) CreateFile(ctx context.Context, filename string, content io.Reader) (*File, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	if err := writer.WriteField("fileId", uuid.New().String()); err != nil {
		return nil, fmt.Errorf("マルチパートフィールドの書き込みに失敗しました: %w", err)
	}
	if err := writer.WriteField("permissions[]", `read("any")`); err != nil {
		return nil, fmt.Errorf("マルチパートフィールドの書き込みに失敗しました: %w", err)
	}

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("マルチパートフォームの作成に失敗しました: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return nil, fmt.Errorf("ファイル内容の書き込みに失敗しました: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("マルチパートフォームの終端に失敗しました: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.c.Endpoint()+s.filesPath(), &buf)
	if err != nil {
		return nil, fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	var file File
	if err := s.c.do(req, serviceStorage, "create_file", &file); err != nil {
		return nil, err
	}
	return &file, nil
}

// DeleteFile はファイルを削除する。
// 削除できた場合はtrue、エラー時はfalseを返す。
func (s *Storage) DeleteFile(ctx context.Context, fileID string) (bool, error) {
	if err := s.c.doJSON(ctx, serviceStorage, "delete_file", http.MethodDelete, s.filePath(fileID), nil, nil); err != nil {
		return false, err
	}
	return true, nil
}

// FileViewURL はファイルの閲覧URLを生成する。
// 読み取り権限がread("any")のファイルは認証なしで閲覧できる。
func (s *Storage) FileViewURL(fileID string) string {
	params := url.Values{"project": {s.c.ProjectID()}}
	return s.c.Endpoint() + s.filePath(fileID) + "/view?" + params.Encode()
}
