// Package postprocess removes common LLM artifacts from model replies.
//
// StripFences and RemoveThinking run before the normalizer looks for a JSON
// payload; Clean is applied to plain-text replies such as refined
// descriptions.
package postprocess

import (
	"regexp"
	"strings"
)

// fenceRe matches markdown fence tokens, with or without a json language
// tag, anywhere in the reply.
var fenceRe = regexp.MustCompile("(?i)```json|```")

// StripFences removes code-fence markers and trims the result. The payload
// between the fences is left untouched.
func StripFences(text string) string {
	return strings.TrimSpace(fenceRe.ReplaceAllString(text, ""))
}

// thinkingBlockRe matches complete <thinking>…</thinking> style blocks.
// RE2 has no backreferences, so each tag is listed.
var thinkingBlockRe = regexp.MustCompile(
	`(?is)<thinking>.*?</thinking>|<think>.*?</think>|<reasoning>.*?</reasoning>|<reflection>.*?</reflection>`,
)

// truncatedThinkingRe matches a reply that opens with a thinking tag and
// never closes it. A tag later in the text is left alone.
var truncatedThinkingRe = regexp.MustCompile(
	`(?is)^\s*(?:<thinking>|<think>|<reasoning>|<reflection>).*$`,
)

// RemoveThinking drops reasoning blocks emitted by local reasoning models.
func RemoveThinking(text string) string {
	text = thinkingBlockRe.ReplaceAllString(text, "")
	text = truncatedThinkingRe.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// Clean prepares a plain-text reply:
//  1. thinking blocks and code fences are removed
//  2. introductory echoes ("Here is the description:") are dropped
//  3. a matching pair of outer quotes or delimiters is unwrapped
func Clean(text string) string {
	text = RemoveThinking(text)
	text = StripFences(text)
	text = removeEchoes(text)
	text = unwrap(text)
	return strings.TrimSpace(text)
}

// FirstLine returns the first line of text, or the whole text when the
// first line is empty.
func FirstLine(text string) string {
	line, _, _ := strings.Cut(text, "\n")
	line = strings.TrimRight(line, "\r")
	if line == "" {
		return text
	}
	return line
}

// echoPatterns are anchored at the start and require a colon to avoid
// eating legitimate content.
var echoPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^here(?:'s| is)(?: the)? (?:rewritten |localized |refined )?(?:description|text|translation)\s*:`),
	regexp.MustCompile(`(?i)^(?:the )?(?:rewritten |localized |refined )?description\s*:`),
	regexp.MustCompile(`(?i)^(?:certainly|sure|of course)[,.]? here(?:'s| is)(?: the)? (?:rewritten |localized |refined )?(?:description|text|translation)\s*:`),
}

func removeEchoes(text string) string {
	for _, re := range echoPatterns {
		if loc := re.FindStringIndex(text); loc != nil {
			text = strings.TrimSpace(text[loc[1]:])
		}
	}
	return text
}

// unwrap strips one matching pair of outer quotes. Triple-quote delimiters
// echoed back from the prompt are removed first. The pair is kept when the
// closing quote also occurs inside, as in `"Hola" es como "ciao"`.
func unwrap(text string) string {
	if len(text) >= 6 && strings.HasPrefix(text, `"""`) && strings.HasSuffix(text, `"""`) {
		inner := text[3 : len(text)-3]
		if !strings.Contains(inner, `"""`) {
			return strings.TrimSpace(inner)
		}
		return text
	}

	runes := []rune(text)
	n := len(runes)
	if n < 2 {
		return text
	}
	first, last := runes[0], runes[n-1]
	if strings.ContainsRune(string(runes[1:n-1]), last) {
		return text
	}
	if (first == '"' && last == '"') ||
		(first == '\'' && last == '\'') ||
		(first == '«' && last == '»') ||
		(first == '“' && last == '”') ||
		(first == '‘' && last == '’') {
		return strings.TrimSpace(string(runes[1 : n-1]))
	}
	return text
}
