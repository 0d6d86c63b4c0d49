// Package tokenize turns file names into the normalized keyword tokens and
// compact signatures the suggestion engine learns against.
package tokenize

import (
	"regexp"
	"strings"
)

// stopwords are dropped from every token stream: articles, prepositions and
// generic screenshot noise carry no placement signal.
var stopwords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "of": {}, "to": {}, "and": {},
	"for": {}, "in": {}, "on": {}, "by": {},
	"img": {}, "screen": {}, "shot": {},
}

var tokenPattern = regexp.MustCompile(`[A-Za-z0-9]+`)

// signatureTokens is how many leading tokens participate in a signature.
const signatureTokens = 3

// Tokens extracts the ordered keyword tokens from a file name: maximal
// ASCII letter/digit runs, lowercased, with stopwords removed. The result
// is deterministic for a given name.
func Tokens(name string) []string {
	raw := tokenPattern.FindAllString(strings.ToLower(name), -1)
	tokens := make([]string, 0, len(raw))
	for _, tok := range raw {
		if _, skip := stopwords[tok]; skip {
			continue
		}
		tokens = append(tokens, tok)
	}
	return tokens
}

// Signature builds the recency-cache key for a file: its extension plus the
// first three tokens. Files sharing an extension and leading keywords
// collide on purpose; that collision is the "recently seen similar file"
// shortcut.
func Signature(ext string, tokens []string) string {
	head := tokens
	if len(head) > signatureTokens {
		head = head[:signatureTokens]
	}
	return ext + ":" + strings.Join(head, "|")
}

// NormalizeExt lowercases an extension and strips any leading dot, so
// ".PDF", "PDF" and "pdf" all key the same rules.
func NormalizeExt(ext string) string {
	return strings.TrimPrefix(strings.ToLower(strings.TrimSpace(ext)), ".")
}
