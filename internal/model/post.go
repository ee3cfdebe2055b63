// Package model はドメインモデルを定義する。
package model

import "time"

// PostStatus は記事の公開状態を表す。
type PostStatus string

const (
	// PostStatusActive は公開中の記事を表す。
	PostStatusActive PostStatus = "active"
	// PostStatusInactive は非公開の記事を表す。
	PostStatusInactive PostStatus = "inactive"
)

// IsValid はPostStatusが定義済みの値かどうかを返す。
func (s PostStatus) IsValid() bool {
	return s == PostStatusActive || s == PostStatusInactive
}

// Post は投稿された記事を表す。
// IDはスラッグを兼ねており、リモートドキュメントストアの
// ドキュメントキーとしてそのまま使用される。
type Post struct {
	ID            string     `json:"$id"`
	Title         string     `json:"title"`
	Content       string     `json:"content"` // サニタイズ済みHTML
	Status        PostStatus `json:"status"`
	FeaturedImage string     `json:"featuredImage"` // リモートブロブストアのファイルID
	AuthorID      string     `json:"userId"`
	AuthorName    string     `json:"authorName"`
	CreatedAt     time.Time  `json:"$createdAt"` // リモートストアが採番する
}

// PostFields はドキュメントストアへ書き込む記事フィールドを表す。
// ドキュメントIDはスラッグとして別引数で渡されるため含まない。
type PostFields struct {
	Title         string     `json:"title"`
	Content       string     `json:"content"`
	Status        PostStatus `json:"status"`
	FeaturedImage string     `json:"featuredImage"`
	AuthorID      string     `json:"userId"`
	AuthorName    string     `json:"authorName"`
}
