package risk

import (
	"sort"
	"strings"
	"unicode"

	ahocorasick "github.com/cloudflare/ahocorasick"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// keywordMatcher finds which of a fixed list of keywords occur in a text, in one pass.
//
// Text and keywords are normalized the same way: diacritics removed, lower-cased, and
// every run of non-alphanumeric characters folded into a single space, with a leading
// space. Each keyword therefore only matches at the start of a word ("panic" matches
// "panicking" but not "hispanic").
type keywordMatcher struct {
	matcher  *ahocorasick.Matcher
	owners   [][]int // pattern index -> keyword indexes
	keywords int
}

func newKeywordMatcher(keywords []string) *keywordMatcher {
	m := &keywordMatcher{keywords: len(keywords)}
	patterns := make([]string, 0, len(keywords))
	byPattern := make(map[string]int, len(keywords))

	for i, kw := range keywords {
		pattern := normalizeText(kw)
		if strings.TrimSpace(pattern) == "" {
			continue
		}
		idx, ok := byPattern[pattern]
		if !ok {
			idx = len(patterns)
			byPattern[pattern] = idx
			patterns = append(patterns, pattern)
			m.owners = append(m.owners, nil)
		}
		m.owners[idx] = append(m.owners[idx], i)
	}

	if len(patterns) > 0 {
		m.matcher = ahocorasick.NewStringMatcher(patterns)
	}
	return m
}

// match returns the indexes of the keywords found in text, ascending and without duplicates.
func (m *keywordMatcher) match(text string) []int {
	if m.matcher == nil || strings.TrimSpace(text) == "" {
		return nil
	}
	hits := m.matcher.MatchThreadSafe([]byte(normalizeText(text)))
	if len(hits) == 0 {
		return nil
	}

	seen := make([]bool, m.keywords)
	var found []int
	for _, hit := range hits {
		if hit < 0 || hit >= len(m.owners) {
			continue
		}
		for _, kw := range m.owners[hit] {
			if !seen[kw] {
				seen[kw] = true
				found = append(found, kw)
			}
		}
	}
	sort.Ints(found)
	return found
}

// normalizeText prepares text for keyword matching. Invalid UTF-8 is replaced rather
// than rejected.
func normalizeText(text string) string {
	text = strings.ToValidUTF8(text, " ")

	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if folded, _, err := transform.String(t, text); err == nil {
		text = folded
	}
	text = strings.ToLower(text)

	var b strings.Builder
	b.Grow(len(text) + 1)
	b.WriteByte(' ')
	space := true
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			space = false
		} else if !space {
			b.WriteByte(' ')
			space = true
		}
	}
	return b.String()
}
