package urp

import (
	"fmt"
	"path"
	"regexp"
	"sort"
	"strings"
)

var (
	styleExtensions  = extensionSet([]string{".css", ".scss", ".less", ".json"})
	markupExtensions = extensionSet([]string{".html", ".htm", ".jsx", ".tsx", ".vue", ".svelte", ".xml", ".svg"})

	// ") : expr && (" is almost always a ternary written with ':' for '?'.
	ternaryRe    = regexp.MustCompile(`\)([ \t]*):([ \t]*[^;:?\n]*?&&[ \t]*\()`)
	arrowSpaceRe = regexp.MustCompile(`([^=!<>])=[ \t]+>`)
	importRe     = regexp.MustCompile(`(?m)^[ \t]*(?:import[ \t]*['"]|(?:import|export)\b[^'"\n;]*?\bfrom[ \t]*['"])([^'"\n]+)['"]`)
)

// SyntaxValidator reports likely mistakes in a generated file body. It is
// advisory: it never changes the body and never fails a parse.
type SyntaxValidator struct {
	script map[string]struct{}
	bare   map[string]struct{}
}

func NewSyntaxValidator(cfg Config) *SyntaxValidator {
	v := &SyntaxValidator{
		script: extensionSet(cfg.ScriptExtensions),
		bare:   make(map[string]struct{}, len(cfg.BareSpecifierDirs)),
	}
	for _, d := range cfg.BareSpecifierDirs {
		if d = strings.Trim(strings.TrimSpace(d), "/"); d != "" {
			v.bare[d] = struct{}{}
		}
	}
	return v
}

// Validate returns the issues found in content, ordered by position.
// Which checks run depends on the extension of filePath.
func (v *SyntaxValidator) Validate(filePath, content string) []SyntaxIssue {
	ext := strings.ToLower(path.Ext(filePath))
	_, script := v.script[ext]
	_, style := styleExtensions[ext]
	_, markup := markupExtensions[ext]

	var issues []SyntaxIssue
	if script || style {
		issues = append(issues, checkBrackets(content, script)...)
	}
	if script {
		issues = append(issues, checkTernaries(content)...)
		issues = append(issues, checkArrowSpaces(content)...)
		issues = append(issues, v.checkBareImports(content)...)
	}
	if markup {
		tags := scanTags(content)
		issues = append(issues, checkAttributes(content, tags)...)
		issues = append(issues, checkTagBalance(content, tags)...)
	}
	sort.SliceStable(issues, func(i, j int) bool {
		if issues[i].Line != issues[j].Line {
			return issues[i].Line < issues[j].Line
		}
		return issues[i].Column < issues[j].Column
	})
	return issues
}

// checkBrackets does one pass over s, skipping string literals and
// comments. Single and double quoted strings end at a newline, which keeps
// an apostrophe in JSX text from hiding the rest of the file.
func checkBrackets(s string, lineComments bool) []SyntaxIssue {
	type open struct {
		c  byte
		at int
	}
	var (
		issues []SyntaxIssue
		stack  []open
	)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '"' || c == '\'' || c == '`':
			i = skipQuoted(s, i)
		case c == '/' && i+1 < len(s) && s[i+1] == '*':
			end := strings.Index(s[i+2:], "*/")
			if end < 0 {
				i = len(s)
			} else {
				i += end + 3
			}
		case c == '/' && lineComments && i+1 < len(s) && s[i+1] == '/':
			end := strings.IndexByte(s[i:], '\n')
			if end < 0 {
				i = len(s)
			} else {
				i += end
			}
		case c == '(' || c == '[' || c == '{':
			stack = append(stack, open{c: c, at: i})
		case c == ')' || c == ']' || c == '}':
			line, col := lineCol(s, i)
			if len(stack) == 0 {
				issues = append(issues, SyntaxIssue{
					Type:    IssueError,
					Message: fmt.Sprintf("unexpected '%c'", c),
					Line:    line,
					Column:  col,
				})
				continue
			}
			top := stack[len(stack)-1]
			if bracketCloser(top.c) == c {
				stack = stack[:len(stack)-1]
				continue
			}
			ol, oc := lineCol(s, top.at)
			issues = append(issues, SyntaxIssue{
				Type:    IssueError,
				Message: fmt.Sprintf("'%c' does not match '%c' opened at %d:%d", c, top.c, ol, oc),
				Line:    line,
				Column:  col,
				Fix:     fmt.Sprintf("close with '%c'", bracketCloser(top.c)),
			})
			// Resynchronise on the nearest opener this closer does match.
			for k := len(stack) - 2; k >= 0; k-- {
				if bracketCloser(stack[k].c) == c {
					stack = stack[:k]
					break
				}
			}
		}
	}
	for _, o := range stack {
		line, col := lineCol(s, o.at)
		issues = append(issues, SyntaxIssue{
			Type:    IssueError,
			Message: fmt.Sprintf("'%c' is never closed", o.c),
			Line:    line,
			Column:  col,
			Fix:     fmt.Sprintf("add '%c'", bracketCloser(o.c)),
		})
	}
	return issues
}

func bracketCloser(c byte) byte {
	switch c {
	case '(':
		return ')'
	case '[':
		return ']'
	}
	return '}'
}

// skipQuoted returns the index of the quote closing the literal that opens
// at s[i].
func skipQuoted(s string, i int) int {
	q := s[i]
	for j := i + 1; j < len(s); j++ {
		switch s[j] {
		case '\\':
			j++
		case '\n':
			if q != '`' {
				return j
			}
		case q:
			return j
		}
	}
	return len(s)
}

func checkTernaries(s string) []SyntaxIssue {
	var issues []SyntaxIssue
	for _, m := range ternaryRe.FindAllStringSubmatchIndex(s, -1) {
		colon := m[3]
		line, col := lineCol(s, colon)
		issues = append(issues, SyntaxIssue{
			Type:    IssueWarning,
			Message: "':' after ')' followed by '&& (' looks like a ternary missing '?'",
			Line:    line,
			Column:  col,
			Fix:     "replace ':' with '?'",
		})
	}
	return issues
}

func checkArrowSpaces(s string) []SyntaxIssue {
	var issues []SyntaxIssue
	for _, m := range arrowSpaceRe.FindAllStringIndex(s, -1) {
		line, col := lineCol(s, m[0]+1)
		issues = append(issues, SyntaxIssue{
			Type:    IssueError,
			Message: "space inside arrow token '= >'",
			Line:    line,
			Column:  col,
			Fix:     "=>",
		})
	}
	return issues
}

func (v *SyntaxValidator) checkBareImports(s string) []SyntaxIssue {
	var issues []SyntaxIssue
	for _, m := range importRe.FindAllStringSubmatchIndex(s, -1) {
		specifier := s[m[2]:m[3]]
		first, _, _ := strings.Cut(specifier, "/")
		if _, ok := v.bare[first]; !ok {
			continue
		}
		line, col := lineCol(s, m[2])
		issues = append(issues, SyntaxIssue{
			Type:    IssueWarning,
			Message: fmt.Sprintf("bare import %q will not resolve in the browser", specifier),
			Line:    line,
			Column:  col,
			Fix:     "./" + specifier,
		})
	}
	return issues
}

// lineCol converts a byte offset to 1-based line and column.
func lineCol(s string, off int) (int, int) {
	if off > len(s) {
		off = len(s)
	}
	line := strings.Count(s[:off], "\n") + 1
	return line, off - strings.LastIndexByte(s[:off], '\n')
}
