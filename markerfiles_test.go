package urp

import (
	"reflect"
	"testing"
)

func TestScanMarkers(t *testing.T) {
	text := "<!-- PLAN -->x<!-- /PLAN --><!-- FILE: a.ts -->y<!--/FILE:a.ts-->"
	marks := scanMarkers(text)
	kinds := []markerKind{markBlock, markBlock, markFileOpen, markFileClose}
	if len(marks) != len(kinds) {
		t.Fatalf("scanMarkers found %d markers: %#v", len(marks), marks)
	}
	for i, k := range kinds {
		if marks[i].kind != k {
			t.Errorf("marker %d kind = %d, want %d", i, marks[i].kind, k)
		}
	}
	if marks[2].path != "a.ts" || marks[3].path != "a.ts" {
		t.Errorf("paths = %q, %q", marks[2].path, marks[3].path)
	}
}

func TestSplitMarkerFiles(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		complete  []fileBody
		implicit  []string
		streaming *fileBody
	}{
		{
			name: "paired files",
			text: "<!-- FILE: a.ts -->\nconst a = 1;\n<!-- /FILE: a.ts -->\n<!-- FILE: b.ts -->\nconst b = 2;\n<!-- /FILE: b.ts -->",
			complete: []fileBody{
				{path: "a.ts", body: "const a = 1;"},
				{path: "b.ts", body: "const b = 2;"},
			},
		},
		{
			name: "missing closer before a later opener is implicitly closed",
			text: "<!-- FILE: a.ts -->\na\n<!-- /FILE: a.ts -->\n<!-- FILE: b.ts -->\nconst b = 2;\n<!-- FILE: c.ts -->\nc\n<!-- /FILE: c.ts -->",
			complete: []fileBody{
				{path: "a.ts", body: "a"},
				{path: "c.ts", body: "c"},
				{path: "b.ts", body: "const b = 2;"},
			},
			implicit: []string{"b.ts"},
		},
		{
			name:      "last open file is streaming",
			text:      "<!-- FILE: a.ts -->\na\n<!-- /FILE: a.ts -->\n<!-- FILE: b.ts -->\nconst b = 2;\n",
			complete:  []fileBody{{path: "a.ts", body: "a"}},
			streaming: &fileBody{path: "b.ts", body: "const b = 2;"},
		},
		{
			name: "opener nested inside a paired range is recovered",
			text: "<!-- FILE: a.ts -->\nconst a = 1;\n<!-- FILE: b.ts -->\nconst b = 2;\n<!-- /FILE: a.ts -->\n<!-- FILE: c.ts -->\nc\n<!-- /FILE: c.ts -->",
			complete: []fileBody{
				{path: "a.ts", body: "const a = 1;"},
				{path: "c.ts", body: "c"},
				{path: "b.ts", body: "const b = 2;"},
			},
			implicit: []string{"b.ts"},
		},
		{
			name:      "closer for another path does not pair",
			text:      "<!-- FILE: a.ts -->\nx\n<!-- /FILE: b.ts -->\n",
			streaming: &fileBody{path: "a.ts", body: "x"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := splitMarkerFiles(tt.text)
			if !reflect.DeepEqual(res.complete, tt.complete) {
				t.Errorf("complete = %#v, want %#v", res.complete, tt.complete)
			}
			if !reflect.DeepEqual(res.implicit, tt.implicit) {
				t.Errorf("implicit = %q, want %q", res.implicit, tt.implicit)
			}
			if !reflect.DeepEqual(res.streaming, tt.streaming) {
				t.Errorf("streaming = %#v, want %#v", res.streaming, tt.streaming)
			}
		})
	}
}

func TestTrimFileBody(t *testing.T) {
	tests := []struct{ in, want string }{
		{"\nconst a = 1;\n", "const a = 1;"},
		{" \n\nline\n\n", "line"},
		{"\n  indented\n", "  indented"},
		{"\nkeep\n\n\nblank\n", "keep\n\n\nblank"},
	}
	for _, tt := range tests {
		if got := trimFileBody(tt.in); got != tt.want {
			t.Errorf("trimFileBody(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMarkerFilePaths(t *testing.T) {
	text := "<!-- FILE: a.ts -->\n<!-- /FILE: a.ts -->\n<!--FILE:b/c.tsx-->"
	if got := markerFilePaths(text); !reflect.DeepEqual(got, []string{"a.ts", "b/c.tsx"}) {
		t.Fatalf("markerFilePaths = %q", got)
	}
}
