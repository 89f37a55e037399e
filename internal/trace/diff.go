package trace

import (
	"slices"
	"strings"

	"github.com/me/ossim/pkg/model"
	"github.com/pmezard/go-difflib/difflib"
)

// DiffStats counts the changed lines of a unified diff.
type DiffStats struct {
	Added   int
	Removed int
}

// Lines renders ticks in the text trace format.
func Lines(ticks []model.TickResult) []string {
	out := make([]string, len(ticks))
	for i, tk := range ticks {
		out[i] = Line(tk)
	}
	return out
}

// Diff produces a unified diff between two text traces. Identical traces
// yield an empty string.
func Diff(a, b []string, fromName, toName string, contextLines int) (string, DiffStats, error) {
	if slices.Equal(a, b) {
		return "", DiffStats{}, nil
	}
	ud := difflib.UnifiedDiff{
		A:        withNewlines(a),
		B:        withNewlines(b),
		FromFile: fromName,
		ToFile:   toName,
		Context:  contextLines,
	}
	patch, err := difflib.GetUnifiedDiffString(ud)
	if err != nil {
		return "", DiffStats{}, err
	}

	var stats DiffStats
	for _, line := range strings.Split(patch, "\n") {
		switch {
		case strings.HasPrefix(line, "+") && !strings.HasPrefix(line, "+++"):
			stats.Added++
		case strings.HasPrefix(line, "-") && !strings.HasPrefix(line, "---"):
			stats.Removed++
		}
	}
	return patch, stats, nil
}

func withNewlines(lines []string) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l + "\n"
	}
	return out
}
