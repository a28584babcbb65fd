package urp

import (
	"regexp"
	"strings"
)

var (
	markerRe   = regexp.MustCompile(`<!--[ \t]*(/?)(FILE:[ \t]*([^\s>]+?)|PLAN|EXPLANATION|META|MANIFEST|BATCH|GENERATION_META)[ \t]*-->`)
	fileOpenRe = regexp.MustCompile(`<!--[ \t]*FILE:[ \t]*([^\s>]+?)[ \t]*-->`)
)

type markerKind int

const (
	markFileOpen markerKind = iota
	markFileClose
	markBlock
)

type marker struct {
	kind       markerKind
	path       string
	start, end int
}

func scanMarkers(text string) []marker {
	var out []marker
	for _, m := range markerRe.FindAllStringSubmatchIndex(text, -1) {
		mk := marker{kind: markBlock, start: m[0], end: m[1]}
		if m[6] >= 0 {
			mk.path = text[m[6]:m[7]]
			mk.kind = markFileOpen
			if m[3] > m[2] {
				mk.kind = markFileClose
			}
		}
		out = append(out, mk)
	}
	return out
}

type fileBody struct {
	path string
	body string
}

type markerFileResult struct {
	complete  []fileBody
	implicit  []string
	streaming *fileBody
}

// splitMarkerFiles runs both passes over the FILE regions. The primary
// pass pairs each opener with the next unused closer naming the same
// path; a paired body stops at any FILE opener nested before its closer.
// The recovery pass gives every unresolved opener, nested ones included,
// the text up to the next marker of any kind; the last one, with no later
// opener, is still being written.
func splitMarkerFiles(text string) markerFileResult {
	var res markerFileResult
	marks := scanMarkers(text)

	used := make(map[int]bool)
	var unresolved []int
	for i, m := range marks {
		if m.kind != markFileOpen {
			continue
		}
		j := findFileClose(marks, i+1, m.path, used)
		if j < 0 {
			unresolved = append(unresolved, i)
			continue
		}
		used[j] = true
		end := marks[j].start
		if k := nextFileOpen(marks, i+1, j); k >= 0 {
			end = marks[k].start
		}
		res.complete = append(res.complete, fileBody{path: m.path, body: trimFileBody(text[m.end:end])})
	}

	for _, i := range unresolved {
		m := marks[i]
		end := len(text)
		if i+1 < len(marks) {
			end = marks[i+1].start
		}
		fb := fileBody{path: m.path, body: trimFileBody(text[m.end:end])}
		if laterOpener(marks, i+1) {
			res.complete = append(res.complete, fb)
			res.implicit = append(res.implicit, m.path)
			continue
		}
		res.streaming = &fb
	}
	return res
}

func findFileClose(marks []marker, from int, path string, used map[int]bool) int {
	for j := from; j < len(marks); j++ {
		if marks[j].kind == markFileClose && marks[j].path == path && !used[j] {
			return j
		}
	}
	return -1
}

func nextFileOpen(marks []marker, from, to int) int {
	for k := from; k < to; k++ {
		if marks[k].kind == markFileOpen {
			return k
		}
	}
	return -1
}

func laterOpener(marks []marker, from int) bool {
	for j := from; j < len(marks); j++ {
		if marks[j].kind == markFileOpen {
			return true
		}
	}
	return false
}

// trimFileBody drops the remainder of the opener line and at most one
// blank line at each end.
func trimFileBody(body string) string {
	if i := strings.IndexByte(body, '\n'); i >= 0 && strings.TrimSpace(body[:i]) == "" {
		body = body[i+1:]
	}
	if i := strings.IndexByte(body, '\n'); i >= 0 && strings.TrimSpace(body[:i]) == "" {
		body = body[i+1:]
	}
	body = strings.TrimRight(body, " \t")
	body = strings.TrimSuffix(body, "\n")
	body = strings.TrimSuffix(body, "\r")
	if i := strings.LastIndexByte(body, '\n'); i >= 0 && strings.TrimSpace(body[i+1:]) == "" {
		body = body[:i]
	}
	return body
}

func markerFilePaths(text string) []string {
	var out []string
	for _, m := range fileOpenRe.FindAllStringSubmatch(text, -1) {
		out = append(out, m[1])
	}
	return out
}
