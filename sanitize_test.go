package urp

import "testing"

func newTestSanitizer() *Sanitizer {
	c := DefaultConfig()
	return NewSanitizer(c.ScriptExtensions, c.MarkdownExtensions)
}

func TestSanitize(t *testing.T) {
	s := newTestSanitizer()
	tests := []struct {
		name string
		path string
		body string
		want string
	}{
		{
			name: "code fences removed",
			path: "src/a.ts",
			body: "```ts\nconst a = 1;\n```\n",
			want: "const a = 1;",
		},
		{
			name: "leaked closing marker removed",
			path: "src/a.ts",
			body: "const a = 1;\n<!-- /FILE: src/a.ts -->\n",
			want: "const a = 1;",
		},
		{
			name: "inline marker removed",
			path: "src/a.css",
			body: "body { margin: 0; } <!-- /FILE: src/a.css -->",
			want: "body { margin: 0; }",
		},
		{
			name: "leading blank lines and trailing whitespace trimmed",
			path: "src/a.py",
			body: "\n\n  \nprint(1)   \n\n",
			want: "print(1)",
		},
		{
			name: "attribute arrow inserted",
			path: "src/B.tsx",
			body: "<button onClick={(e) {\n  go(e);\n}}>x</button>",
			want: "<button onClick={(e) => {\n  go(e);\n}}>x</button>",
		},
		{
			name: "property arrow inserted",
			path: "src/h.js",
			body: "const h = { handler: (x) { return x; } };",
			want: "const h = { handler: (x) => { return x; } };",
		},
		{
			name: "arrows left alone outside scripts",
			path: "src/h.css",
			body: "a: (x) { b }",
			want: "a: (x) { b }",
		},
		{
			name: "markdown keeps its fences",
			path: "README.md",
			body: "# Title\n\n```go\nfmt.Println()\n```\n",
			want: "# Title\n\n```go\nfmt.Println()\n```",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.Sanitize(tt.path, tt.body); got != tt.want {
				t.Fatalf("Sanitize(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestSanitizeIdempotent(t *testing.T) {
	s := newTestSanitizer()
	corpus := []struct{ path, body string }{
		{"src/a.tsx", "```tsx\n<div onClick={() {}}>\n<!-- FILE: x.ts -->\n</div>\n```"},
		{"src/b.ts", "\n\nconst f = { run: (a, b) { return a + b; } };\n\n\n"},
		{"docs/guide.md", "```bash\nnpm i\n```\n<!-- /FILE: docs/guide.md -->"},
		{"src/c.css", "  \n.a { color: red; }\t\n"},
		{"src/d.js", "<!-- <!-- /FILE: d.js --> -->\nok();"},
	}
	for _, c := range corpus {
		once := s.Sanitize(c.path, c.body)
		twice := s.Sanitize(c.path, once)
		if once != twice {
			t.Errorf("Sanitize(%q) not idempotent:\nonce:  %q\ntwice: %q", c.path, once, twice)
		}
	}
}
