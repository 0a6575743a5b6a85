package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// MarkupGuard はプレーンテキストとして扱う入力にHTMLマークアップが
// 含まれているかを判定する。入力を書き換えることはしない。
type MarkupGuard struct {
	policy *bluemonday.Policy
}

// NewMarkupGuard はMarkupGuardを生成する。
// 返された値は複数goroutineから同時に使用してよい。
func NewMarkupGuard() *MarkupGuard {
	return &MarkupGuard{policy: bluemonday.StrictPolicy()}
}

// ContainsMarkup はtextにタグやコメントなど、StrictPolicyが取り除く要素が
// 含まれていればtrueを返す。
// 実体参照の表記揺れ（&lt; と < など）と改行コードの違いはマークアップとみなさない。
func (g *MarkupGuard) ContainsMarkup(text string) bool {
	if text == "" {
		return false
	}
	return plain(g.policy.Sanitize(text)) != plain(text)
}

var newlineReplacer = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// plain は比較用に実体参照を展開し、改行をLFにそろえる。
func plain(s string) string {
	return newlineReplacer.Replace(html.UnescapeString(s))
}
