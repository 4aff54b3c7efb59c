package axis

import (
	"sort"

	"github.com/kailas-cloud/boardex/internal/domain/props"
)

// Domain returns the ordered bucket-label sequence for an axis: the explicit
// user domain when one was declared, otherwise the discovered labels sorted
// in canonical order (numeric before lexical).
func Domain(explicit []string, discovered map[string]struct{}) []string {
	if len(explicit) > 0 {
		out := make([]string, len(explicit))
		copy(out, explicit)
		return out
	}

	labels := make([]string, 0, len(discovered))
	for l := range discovered {
		labels = append(labels, l)
	}
	sort.Slice(labels, func(i, j int) bool {
		return props.Compare(labels[i], labels[j]) < 0
	})
	return labels
}

// Bounds reports the numeric interval a bucket covers inside an explicit
// domain: its own label as the lower bound and the next domain label as the
// upper (the label itself when it is the last bucket). Used by exact-mode
// prompts. ok is false when the label is not in the domain or not numeric.
func Bounds(domain []string, label string) (min, max float64, ok bool) {
	for i, l := range domain {
		if l != label {
			continue
		}
		lo, okLo := props.Number(l)
		if !okLo {
			return 0, 0, false
		}
		hi := lo
		if i+1 < len(domain) {
			if next, okHi := props.Number(domain[i+1]); okHi {
				hi = next
			}
		}
		if hi < lo {
			lo, hi = hi, lo
		}
		return lo, hi, true
	}
	return 0, 0, false
}
