package richtext

import (
	"bytes"
	"strings"
	"unicode"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	htmlrenderer "github.com/yuin/goldmark/renderer/html"
	"golang.org/x/net/html"
)

// PreviewLength is the number of visible characters kept in a "read more" preview.
const PreviewLength = 300

var md = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		extension.Linkify,
	),
	goldmark.WithRendererOptions(
		htmlrenderer.WithUnsafe(), // editor output is HTML and must pass through
	),
)

// Render converts markdown to HTML. HTML input passes through unchanged.
func Render(content string) string {
	var buf bytes.Buffer
	if err := md.Convert([]byte(content), &buf); err != nil {
		return content
	}
	return buf.String()
}

// Text returns the visible text of an HTML fragment with whitespace collapsed.
// Unterminated markup is tolerated.
func Text(fragment string) string {
	var sb strings.Builder
	collect(fragment, func(text string) bool {
		sb.WriteString(text)
		return true
	})
	return collapse(sb.String())
}

// Excerpt returns at most limit visible characters of fragment, cut at a word
// boundary and followed by an ellipsis when something was dropped.
func Excerpt(fragment string, limit int) string {
	if limit <= 0 {
		return ""
	}

	var sb strings.Builder
	truncated := false
	visible := 0
	collect(fragment, func(text string) bool {
		sb.WriteString(text)
		for _, r := range text {
			if !unicode.IsSpace(r) {
				visible++
			}
		}
		// Whitespace collapse never drops visible runes, so this is enough text.
		if visible > limit {
			truncated = true
			return false
		}
		return true
	})

	text := collapse(sb.String())
	runes := []rune(text)
	if len(runes) <= limit && !truncated {
		return text
	}
	if len(runes) <= limit {
		return text + "…"
	}

	cut := limit
	for i := limit; i > limit/2; i-- {
		if unicode.IsSpace(runes[i]) {
			cut = i
			break
		}
	}
	return strings.TrimRightFunc(string(runes[:cut]), func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsPunct(r)
	}) + "…"
}

// collect feeds text nodes to fn until fn returns false. Script and style contents are skipped.
func collect(fragment string, fn func(string) bool) {
	z := html.NewTokenizer(strings.NewReader(fragment))
	skip := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			return
		case html.StartTagToken:
			name, _ := z.TagName()
			switch string(name) {
			case "script", "style":
				skip++
			case "br", "p", "div", "li", "h1", "h2", "h3", "h4", "h5", "h6":
				if !fn(" ") {
					return
				}
			}
		case html.SelfClosingTagToken:
			name, _ := z.TagName()
			if string(name) == "br" && !fn(" ") {
				return
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			switch string(name) {
			case "script", "style":
				if skip > 0 {
					skip--
				}
			case "p", "div", "li", "h1", "h2", "h3", "h4", "h5", "h6":
				if !fn(" ") {
					return
				}
			}
		case html.TextToken:
			if skip == 0 && !fn(string(z.Text())) {
				return
			}
		}
	}
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
