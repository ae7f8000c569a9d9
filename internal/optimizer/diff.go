package optimizer

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// DiffStats counts lines added and removed between before and after.
func DiffStats(before, after string) (added, removed int) {
	for _, d := range lineDiff(before, after) {
		n := len(splitLines(d.Text))
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			added += n
		case diffmatchpatch.DiffDelete:
			removed += n
		}
	}
	return added, removed
}

// DiffLines renders a line diff with "+ ", "- " and "  " prefixes.
func DiffLines(before, after string) []string {
	var out []string
	for _, d := range lineDiff(before, after) {
		prefix := "  "
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			prefix = "+ "
		case diffmatchpatch.DiffDelete:
			prefix = "- "
		}
		for _, line := range splitLines(d.Text) {
			out = append(out, prefix+line)
		}
	}
	return out
}

func lineDiff(before, after string) []diffmatchpatch.Diff {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffMain(a, b, false)
	return dmp.DiffCharsToLines(diffs, lines)
}

func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(text, "\n"), "\n")
}
