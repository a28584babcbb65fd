package urp

import (
	"strings"
	"testing"
)

func TestValidate(t *testing.T) {
	v := NewSyntaxValidator(DefaultConfig())
	tests := []struct {
		name    string
		path    string
		content string
		want    []SyntaxIssue
	}{
		{
			name:    "mismatched bracket",
			path:    "src/f.ts",
			content: "function f() {\n  return (1;\n}\n",
			want: []SyntaxIssue{{
				Type: IssueError, Message: "'}' does not match '(' opened at 2:10",
				Line: 3, Column: 1, Fix: "close with ')'",
			}},
		},
		{
			name:    "brackets in strings and comments are ignored",
			path:    "src/s.ts",
			content: "const s = '(';\n// )\n/* { */\nconst t = `[${1}]`;\n",
		},
		{
			name:    "unclosed brace in css",
			path:    "src/a.css",
			content: ".a { color: red;\n",
			want: []SyntaxIssue{{
				Type: IssueError, Message: "'{' is never closed",
				Line: 1, Column: 4, Fix: "add '}'",
			}},
		},
		{
			name:    "ternary written with a colon",
			path:    "src/x.ts",
			content: "const x = (a) : b && (c);\n",
			want: []SyntaxIssue{{
				Type: IssueWarning, Message: "':' after ')' followed by '&& (' looks like a ternary missing '?'",
				Line: 1, Column: 15, Fix: "replace ':' with '?'",
			}},
		},
		{
			name:    "issues ordered by line",
			path:    "src/y.js",
			content: "const f = () = > 1;\nconst x = (a) : b && (c);\n",
			want: []SyntaxIssue{
				{Type: IssueError, Message: "space inside arrow token '= >'", Line: 1, Column: 14, Fix: "=>"},
				{Type: IssueWarning, Message: "':' after ')' followed by '&& (' looks like a ternary missing '?'", Line: 2, Column: 15, Fix: "replace ':' with '?'"},
			},
		},
		{
			name:    "bare import",
			path:    "src/App.jsx",
			content: "import Button from 'components/Button';\nimport React from 'react';\nimport './styles.css';\n",
			want: []SyntaxIssue{{
				Type: IssueWarning, Message: `bare import "components/Button" will not resolve in the browser`,
				Line: 1, Column: 21, Fix: "./components/Button",
			}},
		},
		{
			name:    "attribute missing equals",
			path:    "index.html",
			content: `<div className"box">hi</div>`,
			want: []SyntaxIssue{{
				Type: IssueError, Message: "attribute className on <div> has a value but no '='",
				Line: 1, Column: 6, Fix: `className="box"`,
			}},
		},
		{
			name:    "element closed by its parent",
			path:    "src/A.jsx",
			content: "<div>\n  <span>hi\n</div>\n",
			want: []SyntaxIssue{{
				Type: IssueError, Message: "<span> is not closed before </div>",
				Line: 2, Column: 3,
			}},
		},
		{
			name:    "unexpected closing tag",
			path:    "index.html",
			content: "<div></div></p>",
			want: []SyntaxIssue{{
				Type: IssueError, Message: "unexpected closing tag for <p>",
				Line: 1, Column: 12,
			}},
		},
		{
			name:    "void and self-closing elements",
			path:    "index.html",
			content: `<div><br><img src="a.png" /></div>`,
		},
		{
			name:    "generics are not tags",
			path:    "src/B.tsx",
			content: "const [a, setA] = useState<string>('');\nconst m = new Map<string, number>();\n",
		},
		{
			name:    "arrow functions inside attributes",
			path:    "src/C.tsx",
			content: "<button onClick={() => go(1)} disabled>ok</button>\n",
		},
		{
			name:    "unchecked extension",
			path:    "notes.md",
			content: "(((",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := v.Validate(tt.path, tt.content)
			if len(got) != len(tt.want) {
				t.Fatalf("Validate returned %d issues, want %d: %#v", len(got), len(tt.want), got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("issue %d = %#v, want %#v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestValidateNeverChangesContent(t *testing.T) {
	v := NewSyntaxValidator(DefaultConfig())
	content := "const f = () = > 1;"
	before := strings.Clone(content)
	v.Validate("a.ts", content)
	if content != before {
		t.Fatal("Validate modified its input")
	}
}

func TestLineCol(t *testing.T) {
	s := "ab\ncd"
	tests := []struct{ off, line, col int }{
		{0, 1, 1},
		{1, 1, 2},
		{3, 2, 1},
		{4, 2, 2},
		{99, 2, 3},
	}
	for _, tt := range tests {
		if l, c := lineCol(s, tt.off); l != tt.line || c != tt.col {
			t.Errorf("lineCol(%d) = %d:%d, want %d:%d", tt.off, l, c, tt.line, tt.col)
		}
	}
}
