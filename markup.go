package urp

import (
	"fmt"
	"regexp"
	"strings"
)

var voidElements = map[string]struct{}{
	"area": {}, "base": {}, "br": {}, "col": {}, "embed": {}, "hr": {}, "img": {},
	"input": {}, "link": {}, "meta": {}, "param": {}, "source": {}, "track": {}, "wbr": {},
}

// rawTextElements hold content that is not markup.
var rawTextElements = map[string]struct{}{"script": {}, "style": {}}

// attrRe consumes one attribute at a time so that quoted values are never
// rescanned. Group 3 is set when a quoted value follows the name with no
// "=" in between.
var attrRe = regexp.MustCompile(`\s+([A-Za-z_:@][\w:.\-]*)(=(?:"[^"]*"|'[^']*'|\{[^{}]*\}))?("[^"]*")?`)

type tag struct {
	name    string
	closing bool
	self    bool
	start   int
	end     int
	attrs   string
	// attrsAt is the offset of attrs within the scanned text.
	attrsAt int
}

// scanTags finds the markup tags in s. An opening tag right after an
// identifier or a quote is taken for a generic and skipped. Comments and
// raw text elements are skipped too.
func scanTags(s string) []tag {
	var tags []tag
	for i := 0; i < len(s); i++ {
		if s[i] != '<' {
			continue
		}
		if strings.HasPrefix(s[i:], "<!--") {
			end := strings.Index(s[i+4:], "-->")
			if end < 0 {
				break
			}
			i += 4 + end + 2
			continue
		}
		if i > 0 && skipsTag(s[i-1]) && !strings.HasPrefix(s[i:], "</") {
			continue
		}
		t, ok := readTag(s, i)
		if !ok {
			continue
		}
		tags = append(tags, t)
		i = t.end - 1

		if _, raw := rawTextElements[t.name]; raw && !t.closing && !t.self {
			closer := strings.Index(s[t.end:], "</"+t.name)
			if closer < 0 {
				break
			}
			i = t.end + closer - 1
		}
	}
	return tags
}

func skipsTag(prev byte) bool {
	switch {
	case prev == '_' || prev == '$' || prev == ')' || prev == ']':
		return true
	case prev == '"' || prev == '\'' || prev == '`':
		return true
	case prev >= 'a' && prev <= 'z', prev >= 'A' && prev <= 'Z', prev >= '0' && prev <= '9':
		return true
	}
	return false
}

func isNameByte(c byte, first bool) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		return true
	case first:
		return false
	case c >= '0' && c <= '9', c == '_', c == '-', c == '.', c == ':':
		return true
	}
	return false
}

// readTag parses the tag starting at s[start] == '<'. Quoted values and
// brace expressions are skipped so an arrow inside onClick={() => x} does
// not end the tag.
func readTag(s string, start int) (tag, bool) {
	t := tag{start: start}
	j := start + 1
	if j < len(s) && s[j] == '/' {
		t.closing = true
		j++
	}
	nameStart := j
	if j < len(s) && isNameByte(s[j], true) {
		for j < len(s) && isNameByte(s[j], false) {
			j++
		}
	} else if j >= len(s) || s[j] != '>' {
		return tag{}, false
	}
	t.name = s[nameStart:j]

	t.attrsAt = j
	depth := 0
	var quote byte
	for ; j < len(s); j++ {
		c := s[j]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'' || c == '`':
			quote = c
		case c == '{':
			depth++
		case c == '}':
			if depth > 0 {
				depth--
			}
		case c == '<' && depth == 0:
			return tag{}, false
		case c == '>' && depth == 0:
			t.attrs = s[t.attrsAt:j]
			t.end = j + 1
			trimmed := strings.TrimSpace(t.attrs)
			if strings.HasPrefix(trimmed, ",") || strings.HasPrefix(trimmed, "extends ") {
				return tag{}, false
			}
			t.self = strings.HasSuffix(trimmed, "/")
			return t, true
		}
	}
	return tag{}, false
}

func tagLabel(name string) string {
	if name == "" {
		return "fragment"
	}
	return "<" + name + ">"
}

// checkTagBalance runs a stack over the tags. A closer that matches an
// element deeper in the stack reports every element above it as unclosed.
func checkTagBalance(s string, tags []tag) []SyntaxIssue {
	type open struct {
		name string
		at   int
	}
	var (
		issues []SyntaxIssue
		stack  []open
	)
	for _, t := range tags {
		if t.self {
			continue
		}
		if _, void := voidElements[t.name]; void {
			continue
		}
		if !t.closing {
			stack = append(stack, open{name: t.name, at: t.start})
			continue
		}

		depth := -1
		for k := len(stack) - 1; k >= 0; k-- {
			if stack[k].name == t.name {
				depth = k
				break
			}
		}
		if depth < 0 {
			line, col := lineCol(s, t.start)
			issues = append(issues, SyntaxIssue{
				Type:    IssueError,
				Message: fmt.Sprintf("unexpected closing tag for %s", tagLabel(t.name)),
				Line:    line,
				Column:  col,
			})
			continue
		}
		for _, o := range stack[depth+1:] {
			line, col := lineCol(s, o.at)
			issues = append(issues, SyntaxIssue{
				Type:    IssueError,
				Message: fmt.Sprintf("%s is not closed before </%s>", tagLabel(o.name), t.name),
				Line:    line,
				Column:  col,
			})
		}
		stack = stack[:depth]
	}
	for _, o := range stack {
		line, col := lineCol(s, o.at)
		issues = append(issues, SyntaxIssue{
			Type:    IssueError,
			Message: fmt.Sprintf("%s is never closed", tagLabel(o.name)),
			Line:    line,
			Column:  col,
		})
	}
	return issues
}

// maskBraces blanks the interior of brace expressions, keeping offsets,
// so attrRe never looks inside a JSX expression.
func maskBraces(attrs string) string {
	b := []byte(attrs)
	depth := 0
	for i, c := range b {
		switch {
		case c == '{':
			if depth > 0 {
				b[i] = '_'
			}
			depth++
		case c == '}' && depth > 0:
			depth--
			if depth > 0 {
				b[i] = '_'
			}
		case depth > 0:
			b[i] = '_'
		}
	}
	return string(b)
}

// missingEquals lists the attributes in t written as name"value".
func missingEquals(t tag) []attrSpan {
	var out []attrSpan
	for _, m := range attrRe.FindAllStringSubmatchIndex(maskBraces(t.attrs), -1) {
		if m[4] < 0 && m[6] >= 0 {
			out = append(out, attrSpan{
				name:  t.attrs[m[2]:m[3]],
				value: t.attrs[m[6]:m[7]],
				at:    t.attrsAt + m[2],
			})
		}
	}
	return out
}

type attrSpan struct {
	name  string
	value string
	at    int
}

func checkAttributes(s string, tags []tag) []SyntaxIssue {
	var issues []SyntaxIssue
	for _, t := range tags {
		if t.closing {
			continue
		}
		for _, a := range missingEquals(t) {
			line, col := lineCol(s, a.at)
			issues = append(issues, SyntaxIssue{
				Type:    IssueError,
				Message: fmt.Sprintf("attribute %s on %s has a value but no '='", a.name, tagLabel(t.name)),
				Line:    line,
				Column:  col,
				Fix:     a.name + "=" + a.value,
			})
		}
	}
	return issues
}
