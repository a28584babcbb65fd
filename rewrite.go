package urp

import (
	"path"
	"strings"
)

// Rewrite records one line changed by a Rewriter rule.
type Rewrite struct {
	Rule   string `json:"rule"`
	Line   int    `json:"line"`
	Before string `json:"before"`
	After  string `json:"after"`
}

type rewriteRule struct {
	name   string
	markup bool
	apply  func(string) string
}

var rewriteRules = []rewriteRule{
	{name: "arrow-space", apply: func(s string) string {
		return arrowSpaceRe.ReplaceAllString(s, "${1}=>")
	}},
	{name: "ternary", apply: func(s string) string {
		return ternaryRe.ReplaceAllString(s, ")${1}?${2}")
	}},
	{name: "attribute-equals", markup: true, apply: insertMissingEquals},
	{name: "missing-arrow", apply: insertMissingArrows},
}

// Rewriter applies the mechanical fixes the SyntaxValidator only reports.
// The parser never calls it; callers opt in explicitly.
type Rewriter struct {
	script map[string]struct{}
}

func NewRewriter(cfg Config) *Rewriter {
	return &Rewriter{script: extensionSet(cfg.ScriptExtensions)}
}

// Rewrite returns the fixed content and one record per changed line and
// rule. No rule adds or removes lines, so line numbers stay valid across
// rules.
func (r *Rewriter) Rewrite(filePath, content string) (string, []Rewrite) {
	ext := strings.ToLower(path.Ext(filePath))
	_, script := r.script[ext]
	_, markup := markupExtensions[ext]
	if !script && !markup {
		return content, nil
	}

	var changes []Rewrite
	for _, rule := range rewriteRules {
		if rule.markup && !markup || !rule.markup && !script {
			continue
		}
		next := rule.apply(content)
		if next == content {
			continue
		}
		before, after := strings.Split(content, "\n"), strings.Split(next, "\n")
		for i := range before {
			if i < len(after) && before[i] != after[i] {
				changes = append(changes, Rewrite{Rule: rule.name, Line: i + 1, Before: before[i], After: after[i]})
			}
		}
		content = next
	}
	return content, changes
}

func insertMissingEquals(s string) string {
	var at []int
	for _, t := range scanTags(s) {
		if t.closing {
			continue
		}
		for _, a := range missingEquals(t) {
			at = append(at, a.at+len(a.name))
		}
	}
	if len(at) == 0 {
		return s
	}
	var b strings.Builder
	prev := 0
	for _, pos := range at {
		b.WriteString(s[prev:pos])
		b.WriteByte('=')
		prev = pos
	}
	b.WriteString(s[prev:])
	return b.String()
}
