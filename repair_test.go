package urp

import (
	"testing"

	"github.com/tidwall/gjson"
)

func TestNormalizeJSON(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{`{"a":[1,2,],}`, `{"a":[1,2]}`},
		{"{\"a\":\"x\ny\"}", `{"a":"x\ny"}`},
		{"{\"a\": \"tab\there\" ,\n}", "{\"a\": \"tab\\there\" \n}"},
		{`{"a":"keep, this,"}`, `{"a":"keep, this,"}`},
	}
	for _, tt := range tests {
		got := normalizeJSON(tt.in)
		if got != tt.want {
			t.Errorf("normalizeJSON(%q) = %q, want %q", tt.in, got, tt.want)
		}
		if !gjson.Valid(got) {
			t.Errorf("normalizeJSON(%q) is not valid JSON: %q", tt.in, got)
		}
	}
}

func TestIsolateObject(t *testing.T) {
	got := isolateObject("noise {\"a\":{\"b\":1}} trailing words")
	if got != `{"a":{"b":1}}` {
		t.Fatalf("isolateObject = %q", got)
	}
}

func TestBalanceJSON(t *testing.T) {
	tests := []struct {
		name       string
		in         string
		want       string
		truncated  bool
		incomplete string
	}{
		{
			name: "one missing brace is silent",
			in:   `{"files":{"a.ts":"abc"}`,
			want: `{"files":{"a.ts":"abc"}}`,
		},
		{
			name:       "unterminated value string",
			in:         `{"files":{"a.ts":"abc`,
			want:       `{"files":{"a.ts":"abc"}}`,
			truncated:  true,
			incomplete: "a.ts",
		},
		{
			name:      "dangling key without colon",
			in:        `{"files":{"a.ts":"abc","b.ts`,
			want:      `{"files":{"a.ts":"abc"}}`,
			truncated: true,
		},
		{
			name:      "dangling key with colon",
			in:        `{"files":{"a.ts":"abc","b.ts":`,
			want:      `{"files":{"a.ts":"abc"}}`,
			truncated: true,
		},
		{
			name:       "content object form",
			in:         `{"files":{"a.ts":{"content":"abc`,
			want:       `{"files":{"a.ts":{"content":"abc"}}}`,
			truncated:  true,
			incomplete: "a.ts",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, info := balanceJSON(tt.in)
			if got != tt.want {
				t.Fatalf("balanceJSON = %q, want %q", got, tt.want)
			}
			if !gjson.Valid(got) {
				t.Fatalf("result is not valid JSON: %q", got)
			}
			if info.truncated() != tt.truncated {
				t.Fatalf("truncated = %v, want %v (%#v)", info.truncated(), tt.truncated, info)
			}
			if info.incompleteKey != tt.incomplete {
				t.Fatalf("incompleteKey = %q, want %q", info.incompleteKey, tt.incomplete)
			}
		})
	}
}

func TestRecoverFilesObject(t *testing.T) {
	in := `{"explanation": "x" "broken", "files": {"a.ts": "content here"}}`
	if gjson.Valid(in) {
		t.Fatal("test input should be invalid")
	}
	sub, info, ok := recoverFilesObject(in)
	if !ok {
		t.Fatal("recoverFilesObject did not find the files object")
	}
	if got := gjson.Get(sub, gjson.Escape("a.ts")).String(); got != "content here" {
		t.Fatalf("recovered a.ts = %q", got)
	}
	if info.truncated() {
		t.Fatalf("a closed files object should not be truncated: %#v", info)
	}
}

func TestSalvageFiles(t *testing.T) {
	in := "garbage \"src/a.ts\": \"const a = 1;\" junk \"src/b.ts\": `x + y` more \"src/c.ts\": \"let c = \\\"unterminated"
	got := salvageFiles(in)
	if len(got) != 3 {
		t.Fatalf("salvageFiles found %d entries: %#v", len(got), got)
	}
	want := []salvagedFile{
		{path: "src/a.ts", content: "const a = 1;"},
		{path: "src/b.ts", content: "x + y"},
		{path: "src/c.ts", content: `let c = "unterminated`, incomplete: true},
	}
	for i, w := range want {
		if got[i] != w {
			t.Errorf("entry %d = %#v, want %#v", i, got[i], w)
		}
	}
}

func TestLooksTruncated(t *testing.T) {
	if !looksTruncated(`{"a": "b`) {
		t.Error("unterminated string should look truncated")
	}
	if !looksTruncated(`{"a": [1, 2`) {
		t.Error("open container should look truncated")
	}
	if looksTruncated(`{"a": 1}`) {
		t.Error("closed object should not look truncated")
	}
}
