package service

import "regexp"

// wordPattern matches runs of letters, digits, and apostrophes. Tokens are
// lowercased after matching so byte offsets stay valid in the source text.
// No stopword removal: every token is searchable and tokenization stays
// deterministic, which the result ordering depends on.
var wordPattern = regexp.MustCompile(`(?i)[a-z0-9']+`)

// TokenSpan is one token together with its byte offsets in the source text
type TokenSpan struct {
	Text  string // lowercased token
	Start int
	End   int
}

// Tokenize splits text into lowercased tokens
func Tokenize(text string) []string {
	spans := TokenizeSpans(text)
	tokens := make([]string, len(spans))
	for i, span := range spans {
		tokens[i] = span.Text
	}
	return tokens
}

// TokenizeSpans splits text into lowercased tokens with byte offsets
func TokenizeSpans(text string) []TokenSpan {
	locs := wordPattern.FindAllStringIndex(text, -1)
	spans := make([]TokenSpan, len(locs))
	for i, loc := range locs {
		spans[i] = TokenSpan{
			Text:  lowerASCII(text[loc[0]:loc[1]]),
			Start: loc[0],
			End:   loc[1],
		}
	}
	return spans
}

// lowerASCII lowercases A-Z only; the token pattern admits nothing else
// that has case
func lowerASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

// uniqueTokens deduplicates tokens preserving first-seen order
func uniqueTokens(tokens []string) []string {
	seen := make(map[string]struct{}, len(tokens))
	unique := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if _, ok := seen[token]; ok {
			continue
		}
		seen[token] = struct{}{}
		unique = append(unique, token)
	}
	return unique
}
