// Package segment splits long inputs into bounded windows: time-based
// overlapping windows for audio and sentence-packed chunks for text.
package segment

import "math"

// Window describes one slice of an audio stream. Offset and Duration bound
// the authoritative portion; LeadIn seconds of preceding context are included
// at extraction time so the backend sees the overlap region.
type Window struct {
	Offset   float64
	Duration float64
	LeadIn   float64
	Index    int
}

// ExtractStart is where extraction begins, including the lead-in context.
func (w Window) ExtractStart() float64 {
	return math.Max(0, w.Offset-w.LeadIn)
}

// ExtractDuration is the length of audio to extract, including the lead-in.
// Zero means "the whole remaining input" (unknown total duration).
func (w Window) ExtractDuration() float64 {
	if w.Duration <= 0 {
		return 0
	}
	return w.Duration + (w.Offset - w.ExtractStart())
}

// Windows plans overlapping windows over total seconds of audio using the
// given window length and overlap (0 <= overlap < length). Consecutive
// windows advance by length-overlap and the final window is clamped to the
// input. A zero or unknown total degrades to a single window covering the
// whole input, never an error.
func Windows(total, length, overlap float64) []Window {
	if total <= 0 || length <= 0 {
		return []Window{{}}
	}
	if overlap < 0 || overlap >= length {
		overlap = 0
	}

	step := length - overlap
	var out []Window
	for s := 0.0; s < total; s += step {
		w := Window{
			Offset:   s,
			Duration: math.Min(length, total-s),
			Index:    len(out),
		}
		if w.Index > 0 {
			w.LeadIn = overlap
		}
		out = append(out, w)
	}
	return out
}
