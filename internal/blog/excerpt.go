package blog

import (
	"strings"

	"golang.org/x/net/html"
)

// Excerpt は記事一覧表示用の抜粋を表す。
type Excerpt struct {
	// Text はタグを取り除いた本文テキスト。
	Text string
	// ImageURL は本文中の最初の画像のsrc。画像がなければ空。
	ImageURL string
}

// maxExcerptLen は抜粋テキストの最大文字数（rune単位）。
const maxExcerptLen = 200

// ExtractExcerpt はサニタイズ済みHTMLから抜粋を生成する。
// テキストノードを連結してタグを落とし、最初のimgのsrcを拾う。
// パースに失敗しない入力（サニタイザ通過後のHTML）を前提とするが、
// 壊れた断片でもx/net/htmlは寛容にパースするためエラーは返さない。
func ExtractExcerpt(sanitizedHTML string) Excerpt {
	doc, err := html.Parse(strings.NewReader(sanitizedHTML))
	if err != nil {
		// 寛容パーサでも失敗する入力はテキストなしとして扱う
		return Excerpt{}
	}

	var (
		builder  strings.Builder
		imageURL string
	)

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			builder.WriteString(n.Data)
		case html.ElementNode:
			if n.Data == "img" && imageURL == "" {
				for _, attr := range n.Attr {
					if attr.Key == "src" {
						imageURL = attr.Val
						break
					}
				}
			}
			// ブロック要素の境界で語が繋がらないように空白を挟む
			if isBlockElement(n.Data) && builder.Len() > 0 {
				builder.WriteString(" ")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	text := strings.Join(strings.Fields(builder.String()), " ")
	if runes := []rune(text); len(runes) > maxExcerptLen {
		text = string(runes[:maxExcerptLen])
	}

	return Excerpt{Text: text, ImageURL: imageURL}
}

func isBlockElement(tag string) bool {
	switch tag {
	case "p", "br", "h1", "h2", "h3", "h4", "li", "blockquote", "pre":
		return true
	}
	return false
}
