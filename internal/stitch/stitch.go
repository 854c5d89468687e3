// Package stitch merges per-window transcription results back into one
// coherent, absolute-timeline transcript, de-duplicating the overlap regions
// between consecutive windows.
package stitch

import (
	"regexp"
	"strings"
)

const (
	// DefaultGuard is how far (seconds) a segment may start before the
	// running end of the merged timeline without being treated as an
	// overlap duplicate.
	DefaultGuard = 0.3

	// dedupeTail is the number of trailing runes of the previous merged
	// segment compared against the head of a suspected duplicate. A fixed
	// suffix heuristic: best effort, not guaranteed duplicate free.
	dedupeTail = 30
)

var spaceRE = regexp.MustCompile(`\s+`)

// Segment is one transcribed span on the stitched, absolute timeline.
type Segment struct {
	Start float64
	End   float64
	Text  string
}

// WindowResult pairs one window's segments (window-relative times) with the
// window's offset in the source.
type WindowResult struct {
	Segments []Segment
	Offset   float64
}

// Segments merges window results in window order into absolute-timeline
// segments. Empty-text segments are dropped. A segment starting more than
// guard seconds before the running end is treated as an overlap duplicate:
// its text is stripped of the previous segment's tail when they match, the
// segment is dropped entirely when nothing survives, and its start is
// clamped forward otherwise. The output is in non-decreasing start order.
func Segments(results []WindowResult, guard float64) []Segment {
	if guard <= 0 {
		guard = DefaultGuard
	}

	var merged []Segment
	lastEnd := 0.0
	for _, res := range results {
		for _, seg := range res.Segments {
			s := seg.Start + res.Offset
			e := seg.End + res.Offset
			if e < s {
				e = s
			}
			text := strings.TrimSpace(seg.Text)
			if text == "" {
				continue
			}

			if s < lastEnd-guard && len(merged) > 0 {
				tail := runeTail(merged[len(merged)-1].Text, dedupeTail)
				if tail != "" && strings.HasPrefix(text, tail) {
					text = strings.TrimSpace(strings.TrimPrefix(text, tail))
				}
				if text == "" {
					continue
				}
				if s < lastEnd {
					s = lastEnd
				}
				if e < s {
					e = s
				}
			}

			merged = append(merged, Segment{Start: s, End: e, Text: text})
			if e > lastEnd {
				lastEnd = e
			}
		}
	}
	return merged
}

// Transcript stitches window results into a single transcript string with
// collapsed whitespace.
func Transcript(results []WindowResult, guard float64) string {
	var pieces []string
	for _, seg := range Segments(results, guard) {
		pieces = append(pieces, seg.Text)
	}
	return strings.TrimSpace(spaceRE.ReplaceAllString(strings.Join(pieces, " "), " "))
}

// runeTail returns the trailing n runes of s.
func runeTail(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[len(r)-n:])
}
