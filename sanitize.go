package urp

import (
	"path"
	"regexp"
	"strings"
)

const markerNames = `FILE:[ \t]*[^\s>]*?|PLAN|EXPLANATION|META|MANIFEST|BATCH|GENERATION_META`

var (
	leakedMarkerLineRe = regexp.MustCompile(`(?m)^[ \t]*<!--[ \t]*/?(?:` + markerNames + `)[ \t]*-->[ \t]*\r?\n?`)
	leakedMarkerRe     = regexp.MustCompile(`<!--[ \t]*/?(?:` + markerNames + `)[ \t]*-->`)
	fenceLineRe        = regexp.MustCompile("(?m)^[ \\t]*```[\\w+#.\\-]*[ \\t]*\\r?(?:\\n|$)")
	leadingBlankRe     = regexp.MustCompile(`^(?:[ \t]*\r?\n)+`)

	// name: (params) {   ->   name: (params) => {
	propArrowRe = regexp.MustCompile(`([A-Za-z_$][\w$]*[ \t]*:[ \t]*)(\([^()]*\))[ \t]*\{`)
	// attr={(params) {   ->   attr={(params) => {
	attrArrowRe = regexp.MustCompile(`([A-Za-z_][\w-]*=\{[ \t]*)(\([^()]*\))[ \t]*\{`)
)

// Sanitizer strips protocol and markdown artifacts from an extracted file
// body. Sanitize is idempotent.
type Sanitizer struct {
	script   map[string]struct{}
	markdown map[string]struct{}
}

func NewSanitizer(scriptExts, markdownExts []string) *Sanitizer {
	return &Sanitizer{script: extensionSet(scriptExts), markdown: extensionSet(markdownExts)}
}

func (s *Sanitizer) Sanitize(filePath, body string) string {
	ext := strings.ToLower(path.Ext(filePath))

	body = stripLeakedMarkers(body)
	if _, ok := s.markdown[ext]; !ok {
		body = fenceLineRe.ReplaceAllString(body, "")
	}
	if _, ok := s.script[ext]; ok {
		body = insertMissingArrows(body)
	}
	body = leadingBlankRe.ReplaceAllString(body, "")
	return strings.TrimRight(body, " \t\r\n")
}

func stripLeakedMarkers(body string) string {
	for {
		next := leakedMarkerLineRe.ReplaceAllString(body, "")
		next = leakedMarkerRe.ReplaceAllString(next, "")
		if next == body {
			return body
		}
		body = next
	}
}

func insertMissingArrows(body string) string {
	body = propArrowRe.ReplaceAllString(body, "${1}${2} => {")
	return attrArrowRe.ReplaceAllString(body, "${1}${2} => {")
}
