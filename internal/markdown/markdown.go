// Package markdown reduces model output that sneaks in markdown emphasis,
// links or lists to plain text.
package markdown

import (
	"html"
	"strings"

	"github.com/gomarkdown/markdown"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// ToHTML renders md without smart punctuation so apostrophes and quotes in
// the target language survive unchanged.
func ToHTML(md string) string {
	renderer := mdhtml.NewRenderer(mdhtml.RendererOptions{Flags: mdhtml.FlagsNone})
	p := parser.NewWithExtensions(parser.CommonExtensions)
	return string(markdown.ToHTML([]byte(md), p, renderer))
}

// inlineMarkup are the characters of emphasis, code spans and links.
// Block markers such as "- " or "> " are common in prose and do not
// trigger a markdown pass on their own.
const inlineMarkup = "*_`["

// ToPlainText drops inline markup and collapses the result to a single
// line. Text without inline markup is only trimmed.
func ToPlainText(md string) string {
	if !strings.ContainsAny(md, inlineMarkup) {
		return strings.TrimSpace(md)
	}
	text := html.UnescapeString(StripHTMLTags(ToHTML(md)))
	return strings.Join(strings.Fields(text), " ")
}

// StripHTMLTags removes anything between angle brackets.
func StripHTMLTags(htmlContent string) string {
	var sb strings.Builder
	inTag := false

	for _, ch := range htmlContent {
		switch ch {
		case '<':
			inTag = true
		case '>':
			inTag = false
		default:
			if !inTag {
				sb.WriteRune(ch)
			}
		}
	}

	return sb.String()
}
