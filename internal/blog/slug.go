// Package blog は記事のライフサイクル（作成・更新・削除・取得・一覧）を
// リモートのドキュメントストアとブロブストアに委譲して提供する。
package blog

import (
	"regexp"
	"strings"
)

// nonAlnumRuns は連続する英数字以外の文字のまとまり。
var nonAlnumRuns = regexp.MustCompile(`[^a-zA-Z0-9]+`)

// validSlug はドキュメントIDとして安全なスラッグの形式。
// 先頭は英数字、全体で36文字以内（リモートストアのID制約に合わせる）。
var validSlug = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]{0,35}$`)

// Slugify はタイトル等の自由文字列をURLセーフなスラッグへ変換する。
// 前後の空白を除去し、小文字化し、英数字以外の連続を1つのハイフンに潰す。
func Slugify(s string) string {
	slug := strings.TrimSpace(strings.ToLower(s))
	slug = nonAlnumRuns.ReplaceAllString(slug, "-")
	return slug
}

// ValidateSlug はスラッグがドキュメントIDとして使える形式かを検証する。
func ValidateSlug(slug string) bool {
	return validSlug.MatchString(slug)
}
