package segment

import (
	"regexp"
	"strings"
)

// sentenceRE matches a run of text up to and including its end-of-sentence
// punctuation. The Indic danda (।) terminates sentences alongside the Latin
// marks, and repeated marks ("?!", "...") stay attached to their sentence.
var (
	sentenceRE = regexp.MustCompile(`[^.?!।]+[.?!।]+|[^.?!।]+`)
	spaceRE    = regexp.MustCompile(`\s+`)
)

// Chunk is a bounded slice of input text built from whole sentences.
// Ordering is significant and preserved through processing.
type Chunk struct {
	Text  string
	Index int
}

// CharLen is the chunk length in runes, the unit the limit is enforced in.
func (c Chunk) CharLen() int {
	return len([]rune(c.Text))
}

// Sentences splits text at sentence boundaries, collapsing inner whitespace.
func Sentences(text string) []string {
	text = strings.TrimSpace(spaceRE.ReplaceAllString(text, " "))
	if text == "" {
		return nil
	}
	var out []string
	for _, s := range sentenceRE.FindAllString(text, -1) {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Chunks greedily packs whole sentences into chunks of at most limit runes.
// A single sentence longer than the limit is hard-cut at the rune boundary
// rather than rejected; oversized atomic input is never an error.
func Chunks(text string, limit int) []Chunk {
	if limit <= 0 {
		limit = 1
	}

	var out []Chunk
	add := func(s string) {
		out = append(out, Chunk{Text: s, Index: len(out)})
	}

	var cur strings.Builder
	curLen := 0
	flush := func() {
		if curLen > 0 {
			add(cur.String())
			cur.Reset()
			curLen = 0
		}
	}

	for _, s := range Sentences(text) {
		r := []rune(s)
		if len(r) > limit {
			flush()
			for i := 0; i < len(r); i += limit {
				end := min(i+limit, len(r))
				if piece := strings.TrimSpace(string(r[i:end])); piece != "" {
					add(piece)
				}
			}
			continue
		}
		if curLen > 0 && curLen+1+len(r) > limit {
			flush()
		}
		if curLen > 0 {
			cur.WriteByte(' ')
			curLen++
		}
		cur.WriteString(s)
		curLen += len(r)
	}
	flush()

	return out
}

// Join reassembles chunk results in order, separated by single spaces.
func Join(parts []string) string {
	return strings.TrimSpace(spaceRE.ReplaceAllString(strings.Join(parts, " "), " "))
}
