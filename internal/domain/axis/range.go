package axis

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/kailas-cloud/boardex/internal/domain/props"
)

// epsilon absorbs float accumulation error at range endpoints.
const epsilon = 1e-9

var (
	exactRe = regexp.MustCompile(`(?i)\bexact\b`)
	rangeRe = regexp.MustCompile(
		`^\[\s*(-?\d+(?:\.\d+)?)\s*\.\.\s*(-?\d+(?:\.\d+)?)\s*(?:,\s*(?i:step)\s+(-?\d+(?:\.\d+)?)\s*)?\]$`,
	)
)

// ExpandValues parses an explicit bucket-domain declaration: either a
// bracketed numeric range `[from..to]` / `[from..to, Step n]` or a
// comma-separated literal list. A case-insensitive `exact` keyword anywhere
// in the string is stripped and reported via the exact flag.
func ExpandValues(src string) (values []string, exact bool) {
	if exactRe.MatchString(src) {
		exact = true
		src = exactRe.ReplaceAllString(src, "")
	}
	src = strings.TrimSpace(src)
	if src == "" {
		return nil, exact
	}

	if m := rangeRe.FindStringSubmatch(src); m != nil {
		from, _ := strconv.ParseFloat(m[1], 64)
		to, _ := strconv.ParseFloat(m[2], 64)
		step := 1.0
		if m[3] != "" {
			step, _ = strconv.ParseFloat(m[3], 64)
		}
		return expandRange(from, to, step), exact
	}

	return splitList(src), exact
}

// expandRange generates labels from `from` toward `to`, inclusive of both
// endpoints. Direction follows the endpoints; a non-positive step collapses
// the range to `from` alone.
func expandRange(from, to, step float64) []string {
	if step <= 0 {
		return []string{props.FormatNumber(from)}
	}

	var out []string
	if from <= to {
		for v := from; v <= to+epsilon; v += step {
			out = append(out, props.FormatNumber(v))
		}
	} else {
		for v := from; v >= to-epsilon; v -= step {
			out = append(out, props.FormatNumber(v))
		}
	}
	return out
}

// splitList falls back to a comma-separated literal list, preserving the
// user's written order.
func splitList(src string) []string {
	parts := strings.Split(src, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
