package blog

import "testing"

func TestSlugify(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"空白をハイフンに変換", "My First Post", "my-first-post"},
		{"前後の空白を除去", "  Hello World  ", "hello-world"},
		{"大文字を小文字化", "GoLang Tips", "golang-tips"},
		{"記号の連続を1つのハイフンに", "What's New?! 2024", "what-s-new-2024"},
		{"日本語は英数字でないためハイフンに", "Go入門2024", "go-2024"},
		{"英数字のみはそのまま", "post123", "post123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Slugify(tt.input); got != tt.want {
				t.Errorf("Slugify(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestValidateSlug(t *testing.T) {
	tests := []struct {
		name string
		slug string
		want bool
	}{
		{"英数字とハイフン", "my-first-post", true},
		{"英数字のみ", "post123", true},
		{"ドットとアンダースコア", "v1.2_release", true},
		{"空文字列", "", false},
		{"先頭がハイフン", "-leading", false},
		{"先頭がドット", ".hidden", false},
		{"空白を含む", "has space", false},
		{"36文字ちょうど", "a23456789012345678901234567890123456", true},
		{"37文字は超過", "a234567890123456789012345678901234567", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidateSlug(tt.slug); got != tt.want {
				t.Errorf("ValidateSlug(%q) = %v, want %v", tt.slug, got, tt.want)
			}
		})
	}
}
