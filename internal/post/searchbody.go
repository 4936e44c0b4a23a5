package post

import "strings"

// SearchBody reduces rendered text to a deduplicated bag of lowercase ASCII
// words separated by single spaces. Dots and whitespace separate words; any
// other non-letter is removed rather than replaced, so "don't" becomes "dont".
// The result is a fixed point: SearchBody(SearchBody(s)) == SearchBody(s).
func SearchBody(text string) string {
	text = strings.ReplaceAll(strings.ToLower(text), ".", " ")

	seen := make(map[string]struct{})
	words := make([]string, 0, 64)
	for _, field := range strings.Fields(text) {
		word := keepLetters(field)
		if word == "" {
			continue
		}
		if _, ok := seen[word]; ok {
			continue
		}
		seen[word] = struct{}{}
		words = append(words, word)
	}
	return strings.Join(words, " ")
}

func keepLetters(field string) string {
	var b strings.Builder
	b.Grow(len(field))
	for i := 0; i < len(field); i++ {
		if c := field[i]; c >= 'a' && c <= 'z' {
			b.WriteByte(c)
		}
	}
	return b.String()
}
