package urp

import (
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// PathPolicy decides which model-supplied paths may surface as files.
// Ignored directories match whole segments only: "distance/a.ts" is kept,
// "dist/a.ts" is not.
type PathPolicy struct {
	ignored map[string]struct{}
	globs   []string
}

func NewPathPolicy(ignoredDirs, globs []string) *PathPolicy {
	p := &PathPolicy{ignored: make(map[string]struct{}, len(ignoredDirs))}
	for _, d := range ignoredDirs {
		d = strings.Trim(strings.TrimSpace(d), "/")
		if d != "" {
			p.ignored[d] = struct{}{}
		}
	}
	for _, g := range globs {
		if g = strings.TrimSpace(g); g != "" && doublestar.ValidatePattern(g) {
			p.globs = append(p.globs, g)
		}
	}
	return p
}

// NormalizePath converts a model-written path to the canonical form:
// forward slashes, no surrounding quotes or backticks, no leading "./" or "/".
func NormalizePath(p string) string {
	p = strings.TrimSpace(p)
	p = strings.Trim(p, "`\"'")
	p = strings.ReplaceAll(p, `\`, "/")
	for {
		switch {
		case strings.HasPrefix(p, "./"):
			p = p[2:]
		case strings.HasPrefix(p, "/"):
			p = p[1:]
		default:
			return p
		}
	}
}

func (p *PathPolicy) IsIgnored(normalized string) bool {
	for _, seg := range strings.Split(normalized, "/") {
		if _, ok := p.ignored[seg]; ok {
			return true
		}
	}
	for _, g := range p.globs {
		if ok, _ := doublestar.Match(g, normalized); ok {
			return true
		}
	}
	return false
}

// Malformed returns a non-empty reason when a normalized path cannot name a
// real source file.
func Malformed(normalized string) string {
	switch {
	case normalized == "":
		return "empty path"
	case strings.HasSuffix(normalized, "/"):
		return "trailing slash"
	case strings.ContainsAny(normalized, "\n\t<>|\"*?"):
		return "invalid characters"
	}
	for i, seg := range strings.Split(normalized, "/") {
		if seg == "" || seg == "." || seg == ".." {
			return "dot or empty segment"
		}
		if i > 0 && strings.HasPrefix(seg, ".") {
			return "hidden segment after a slash"
		}
	}
	base := path.Base(normalized)
	if ext := path.Ext(base); ext == "" || ext == base || len(ext) == 1 {
		return "no extension"
	}
	return ""
}

// Check normalizes p and reports the reason it must be skipped, if any.
func (p *PathPolicy) Check(raw string) (string, string) {
	n := NormalizePath(raw)
	if reason := Malformed(n); reason != "" {
		return n, reason
	}
	if p.IsIgnored(n) {
		return n, "ignored directory"
	}
	return n, ""
}
