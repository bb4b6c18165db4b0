// Package postprocess turns raw LLM output into a bare translated query.
//
// Models asked for "only the translation" still sometimes think out loud,
// announce the answer, add a note on a second line or wrap the text in
// quotes. Clean removes those artifacts so the result can be used as a
// search phrase.
package postprocess

import (
	"regexp"
	"strings"
)

// Clean strips reasoning blocks, answer preambles, trailing notes and
// wrapping quotes, and returns the trimmed query.
func Clean(text string) string {
	text = stripReasoning(text)
	text = firstLine(text)
	text = stripPreamble(text)
	text = unquote(text)
	return strings.TrimSpace(text)
}

// CleanFor cleans the translation of source. When source is a quoted phrase
// the result stays quoted, since quotes ask the video search for an exact
// match.
func CleanFor(source, text string) string {
	if !quoted(strings.TrimSpace(source)) {
		return Clean(text)
	}
	text = stripReasoning(text)
	text = firstLine(text)
	text = strings.TrimSpace(stripPreamble(text))
	if text == "" || quoted(text) {
		return text
	}
	return `"` + text + `"`
}

// reasoningRe matches complete reasoning blocks. RE2 has no backreferences,
// so each tag is listed.
var reasoningRe = regexp.MustCompile(
	`(?is)<think>.*?</think>|<thinking>.*?</thinking>|<reasoning>.*?</reasoning>`,
)

// openReasoningRe matches a reasoning tag that was never closed.
var openReasoningRe = regexp.MustCompile(`(?is)(?:<think>|<thinking>|<reasoning>).*$`)

func stripReasoning(text string) string {
	text = reasoningRe.ReplaceAllString(text, "")
	text = openReasoningRe.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// firstLine keeps the first non-empty line. Queries are single-line; later
// lines are notes such as "(Note: already English)".
func firstLine(text string) string {
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}

// preambleRe matches an announcement before the answer. The trailing colon
// is required so that real queries such as "translation tips" survive.
var preambleRe = regexp.MustCompile(
	`(?i)^(?:(?:sure|certainly|of course)[,.!]?\s*)?(?:here(?:'s| is)\s+)?(?:the\s+)?(?:english\s+)?(?:translation|translated text|translated query)(?:\s+in english)?\s*(?:is)?\s*:`,
)

func stripPreamble(text string) string {
	if loc := preambleRe.FindStringIndex(text); loc != nil {
		return strings.TrimSpace(text[loc[1]:])
	}
	return text
}

var quotePairs = map[rune]rune{
	'"':  '"',
	'\'': '\'',
	'`':  '`',
	'«':  '»',
	'“':  '”',
	'‘':  '’',
}

func quoted(text string) bool {
	runes := []rune(text)
	if len(runes) < 2 {
		return false
	}
	closing, ok := quotePairs[runes[0]]
	return ok && runes[len(runes)-1] == closing
}

func unquote(text string) string {
	if !quoted(text) {
		return text
	}
	runes := []rune(text)
	return strings.TrimSpace(string(runes[1 : len(runes)-1]))
}
