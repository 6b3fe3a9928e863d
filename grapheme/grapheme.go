// Package grapheme segments UTF-8 text into grapheme clusters, the
// units users perceive as single characters, using a simplified subset
// of the UAX #29 Grapheme Cluster Boundary rules.
//
// Two shapes are exposed over the same rule engine: a restartable
// Iterator yielding one cluster per call, and an eager Split returning
// every cluster at once. Both are guaranteed to agree on boundaries for
// the same input.
//
// Invalid UTF-8 encountered mid-scan truncates the current cluster and
// stops the scan; it never panics and never returns an error from the
// segmentation path. Callers that need strict validation should run
// utf8x.Count (or utf8x.Valid per codepoint) first.
package grapheme

import (
	"errors"

	"github.com/nlsommer/graintext/utf8x"
)

// ErrInvalidUTF8 is reported by Count, the one strict entry point.
var ErrInvalidUTF8 = errors.New("grapheme: invalid UTF-8 sequence")

// lookbackSize is the capacity of the boundary-decision window. Only the
// regional-indicator parity rule reads past the immediately preceding
// codepoint; runs of more than lookbackSize consecutive regional
// indicators exceed the window and their segmentation is unspecified.
const lookbackSize = 8

// window is a fixed ring of recently seen codepoints, newest first.
type window struct {
	cp    [lookbackSize]rune
	count int
}

// push inserts r at the front, shifting older entries right.
func (w *window) push(r rune) {
	if w.count < lookbackSize {
		w.count++
	}
	for i := w.count - 1; i > 0; i-- {
		w.cp[i] = w.cp[i-1]
	}
	w.cp[0] = r
}

// isBreak reports whether a cluster boundary sits between the newest
// codepoint in w and next. Rules are evaluated in precedence order;
// first match wins.
func isBreak(w *window, next rune) bool {
	prev := Lookup(w.cp[0])
	curr := Lookup(next)

	// GB3: CR x LF
	if prev == ClassCR && curr == ClassLF {
		return false
	}

	// GB4: (Control | CR | LF) ÷
	if prev == ClassControl || prev == ClassCR || prev == ClassLF {
		return true
	}

	// GB5: ÷ (Control | CR | LF)
	if curr == ClassControl || curr == ClassCR || curr == ClassLF {
		return true
	}

	// GB9: x Extend
	if curr == ClassExtend {
		return false
	}

	// GB9/GB11: ZWJ glues both neighbors.
	if curr == ClassZWJ || prev == ClassZWJ {
		return false
	}

	// GB12/GB13: regional indicators pair up into flags. Count the run
	// of regional indicators before the previous codepoint: an even run
	// means prev starts a fresh pair, so next glues onto it; an odd run
	// means the pair is already complete and next starts a new flag.
	if prev == ClassRegionalIndicator && curr == ClassRegionalIndicator {
		run := 0
		for i := 1; i < w.count; i++ {
			if Lookup(w.cp[i]) != ClassRegionalIndicator {
				break
			}
			run++
		}
		return run%2 != 0
	}

	// GB999: break everywhere else.
	return true
}

// Count returns the number of grapheme clusters in s. Unlike the
// segmentation paths it validates strictly and fails on the first
// malformed byte.
func Count(s string) (int, error) {
	p := []byte(s)

	count := 0
	var w window
	first := true

	for off := 0; off < len(p); {
		if !utf8x.Valid(p[off:]) {
			return 0, ErrInvalidUTF8
		}

		cp := utf8x.Decode(p[off:])
		if first || isBreak(&w, cp) {
			first = false
			count++
		}

		w.push(cp)
		off += utf8x.Width(p[off])
	}

	return count, nil
}

// Split eagerly segments s and returns every cluster in order. An
// invalid byte truncates the scan: the valid prefix accumulated so far
// is returned, including a final partial cluster if one was open.
func Split(s string) []string {
	var parts []string

	it := NewIterator(s)
	for {
		cluster := it.Next()
		if cluster == "" {
			break
		}
		parts = append(parts, cluster)
	}

	return parts
}
