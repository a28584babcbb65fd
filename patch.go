package urp

import (
	"fmt"
	"os"
	"path"
	"regexp"
	"strings"
)

var hunkHeaderRe = regexp.MustCompile(`(?m)^@@ -\d+(?:,\d+)? \+\d+(?:,\d+)? @@`)

// isUnifiedDiff reports whether a file body is a patch to apply rather
// than the file's content. Files that are themselves patches keep their
// body.
func isUnifiedDiff(filePath, body string) bool {
	switch strings.ToLower(path.Ext(filePath)) {
	case ".diff", ".patch":
		return false
	}
	return hunkHeaderRe.MatchString(body)
}

// parseHunks splits a unified diff into hunks of +, - and context lines.
// The line numbers in hunk headers are ignored: models rarely get them
// right, so hunks are located by their context instead.
func parseHunks(diff string) [][]string {
	var (
		hunks [][]string
		cur   []string
	)
	for _, l := range strings.Split(strings.TrimRight(diff, "\r\n"), "\n") {
		switch {
		case strings.HasPrefix(l, "---"), strings.HasPrefix(l, "+++"):
			continue
		case strings.HasPrefix(l, "@@"):
			if len(cur) > 0 {
				hunks = append(hunks, cur)
			}
			cur = nil
		case strings.HasPrefix(l, "+"), strings.HasPrefix(l, "-"), strings.HasPrefix(l, " "):
			cur = append(cur, l)
		case l == "" && cur != nil:
			cur = append(cur, " ")
		}
	}
	if len(cur) > 0 {
		hunks = append(hunks, cur)
	}
	return hunks
}

// hunkSides returns the lines a hunk expects to find and the lines it
// leaves in their place.
func hunkSides(h []string) (before, after []string) {
	for _, l := range h {
		switch l[0] {
		case '-':
			before = append(before, l[1:])
		case '+':
			after = append(after, l[1:])
		default:
			before = append(before, l[1:])
			after = append(after, l[1:])
		}
	}
	return before, after
}

// findBlock returns the first index at or after from where block occurs
// in source, or -1.
func findBlock(source, block []string, from int) int {
	for i := from; i <= len(source)-len(block); i++ {
		match := true
		for j := range block {
			if source[i+j] != block[j] {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}

func applyHunks(source []string, hunks [][]string) ([]string, error) {
	var result []string
	pos := 0
	for n, h := range hunks {
		before, after := hunkSides(h)
		at := len(source)
		if len(before) > 0 {
			at = findBlock(source, before, pos)
			if at < 0 {
				return nil, fmt.Errorf("hunk %d does not match the current file", n+1)
			}
		}
		result = append(result, source[pos:at]...)
		result = append(result, after...)
		pos = at + len(before)
	}
	return append(result, source[pos:]...), nil
}

// patchFile applies diff to the file at abs. A missing file patches as
// empty, which lets an all-additions diff create it.
func patchFile(abs, diff string) ([]string, error) {
	var source []string
	content, err := os.ReadFile(abs)
	switch {
	case err == nil:
		source = contentLines(string(content))
	case !os.IsNotExist(err):
		return nil, err
	}

	hunks := parseHunks(diff)
	if len(hunks) == 0 {
		return nil, fmt.Errorf("no hunks in diff")
	}
	return applyHunks(source, hunks)
}
