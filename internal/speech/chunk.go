package speech

import (
	"strings"
	"unicode/utf8"
)

// DefaultMaxChunkRunes keeps each request under the text2audio input limit.
const DefaultMaxChunkRunes = 300

const sentenceEnds = "。！？；!?;\n"

// SplitText breaks text into chunks of at most max runes, preferring sentence
// boundaries. Blank chunks are dropped.
func SplitText(text string, max int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if max <= 0 || utf8.RuneCountInString(text) <= max {
		return []string{text}
	}

	var chunks []string
	var cur []rune
	flush := func() {
		if s := strings.TrimSpace(string(cur)); s != "" {
			chunks = append(chunks, s)
		}
		cur = cur[:0]
	}

	runes := []rune(text)
	lastBreak := -1
	for _, r := range runes {
		cur = append(cur, r)
		if strings.ContainsRune(sentenceEnds, r) {
			lastBreak = len(cur)
		}
		if len(cur) < max {
			continue
		}
		if lastBreak > 0 {
			rest := append([]rune(nil), cur[lastBreak:]...)
			cur = cur[:lastBreak]
			flush()
			cur = append(cur, rest...)
		} else {
			flush()
		}
		lastBreak = -1
	}
	flush()
	return chunks
}
