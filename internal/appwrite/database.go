package appwrite

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/hitoshi/blogman/internal/model"
)

const serviceDatabase = "database"

// Databases はドキュメントストアへのリクエストを提供する。
// 記事コレクション1つに固定されており、ドキュメントIDにはスラッグを使用する。
type Databases struct {
	c            *Client
	databaseID   string
	collectionID string
}

// NewDatabases はDatabasesを生成する。
func NewDatabases(c *Client, databaseID, collectionID string) *Databases {
	return &Databases{
		c:            c,
		databaseID:   databaseID,
		collectionID: collectionID,
	}
}

func (d *Databases) documentsPath() string {
	return fmt.Sprintf("/v1/databases/%s/collections/%s/documents",
		url.PathEscape(d.databaseID), url.PathEscape(d.collectionID))
}

func (d *Databases) documentPath(documentID string) string {
	return d.documentsPath() + "/" + url.PathEscape(documentID)
}

// CreateDocument はスラッグをドキュメントIDとして記事を作成する。
// 同一IDのドキュメントが既に存在する場合（409）はスラッグ重複エラーを返す。
func (d *Databases) CreateDocument(ctx context.Context, slug string, fields model.PostFields) (*model.Post, error) {
	body := map[string]any{
		"documentId": slug,
		"data":       fields,
	}
	var post model.Post
	if err := d.c.doJSON(ctx, serviceDatabase, "create_document", http.MethodPost, d.documentsPath(), body, &post); err != nil {
		if platformErr, ok := err.(*Error); ok && platformErr.IsConflict() {
			return nil, model.NewDuplicateSlugError(slug)
		}
		return nil, err
	}
	return &post, nil
}

// UpdateDocument は記事のフィールドを更新する。
func (d *Databases) UpdateDocument(ctx context.Context, slug string, fields model.PostFields) (*model.Post, error) {
	body := map[string]any{
		"data": fields,
	}
	var post model.Post
	if err := d.c.doJSON(ctx, serviceDatabase, "update_document", http.MethodPatch, d.documentPath(slug), body, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// DeleteDocument は記事を削除する。
// 削除できた場合はtrue、エラー時はfalseを返す。
func (d *Databases) DeleteDocument(ctx context.Context, slug string) (bool, error) {
	if err := d.c.doJSON(ctx, serviceDatabase, "delete_document", http.MethodDelete, d.documentPath(slug), nil, nil); err != nil {
		return false, err
	}
	return true, nil
}

// GetDocument はスラッグで記事を1件取得する。
// 存在しない場合（404）はエラーではなく(nil, nil)を返す。
func (d *Databases) GetDocument(ctx context.Context, slug string) (*model.Post, error) {
	var post model.Post
	err := d.c.doJSON(ctx, serviceDatabase, "get_document", http.MethodGet, d.documentPath(slug), nil, &post)
	if err != nil {
		if platformErr, ok := err.(*Error); ok && platformErr.IsNotFound() {
			return nil, nil
		}
		return nil, err
	}
	return &post, nil
}

// documentList はドキュメント一覧レスポンス。
type documentList struct {
	Total     int          `json:"total"`
	Documents []model.Post `json:"documents"`
}

// ListDocuments はクエリ条件に一致する記事の一覧を取得する。
// queriesにはQueryEqualなどで構築したクエリ文字列を渡す。
func (d *Databases) ListDocuments(ctx context.Context, queries []string) ([]model.Post, error) {
	path := d.documentsPath()
	if len(queries) > 0 {
		params := url.Values{}
		for _, q := range queries {
			params.Add("queries[]", q)
		}
		path += "?" + params.Encode()
	}

	var list documentList
	if err := d.c.doJSON(ctx, serviceDatabase, "list_documents", http.MethodGet, path, nil, &list); err != nil {
		return nil, err
	}
	return list.Documents, nil
}

// QueryEqual は属性値の等価条件クエリを構築する。
func QueryEqual(attribute, value string) string {
	query := map[string]any{
		"method":    "equal",
		"attribute": attribute,
		"values":    []string{value},
	}
	// 固定構造のためエンコードは失敗しない
	encoded, _ := json.Marshal(query)
	return string(encoded)
}
