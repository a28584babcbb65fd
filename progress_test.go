package urp

import (
	"reflect"
	"strings"
	"testing"

	"github.com/tidwall/gjson"
)

func kv(values map[string]string) kvFields {
	return kvFields{values: values}
}

func TestFromBatch(t *testing.T) {
	g := fromBatch(kv(map[string]string{
		"current":    "1",
		"total":      "2",
		"isComplete": "false",
		"completed":  "a.ts",
		"remaining":  "b.ts, ./c.ts",
	}))
	finishProgress(&g)
	if g.Current != 1 || g.Total != 2 || g.IsComplete {
		t.Fatalf("batch = %#v", g)
	}
	if !reflect.DeepEqual(g.Remaining, []string{"b.ts", "c.ts"}) {
		t.Fatalf("Remaining = %q", g.Remaining)
	}
	if g.TotalFilesPlanned != 3 {
		t.Fatalf("TotalFilesPlanned = %d, want 3", g.TotalFilesPlanned)
	}
}

func TestMissingIsCompleteDefaultsTrue(t *testing.T) {
	g := fromBatch(kv(map[string]string{"current": "1", "total": "3", "remaining": "b.ts"}))
	if !g.IsComplete {
		t.Fatalf("batch without isComplete = %#v", g)
	}
	g = fromGenerationMeta(jsonFields{gjson.Parse(`{"currentBatch":1,"totalBatches":3}`)})
	if !g.IsComplete {
		t.Fatalf("generationMeta without isComplete = %#v", g)
	}
}

func TestEmptyRemainingForcesComplete(t *testing.T) {
	g := fromBatch(kv(map[string]string{"isComplete": "false", "remaining": "none"}))
	finishProgress(&g)
	if !g.IsComplete {
		t.Fatal("a batch with nothing remaining must be complete")
	}
}

func TestFromContinuation(t *testing.T) {
	g := fromContinuation(jsonFields{gjson.Parse(`{"hasMore":true,"nextFiles":["c.ts"],"reason":"token limit"}`)})
	finishProgress(&g)
	if g.IsComplete {
		t.Fatal("hasMore should make the batch incomplete")
	}
	if !reflect.DeepEqual(g.Remaining, []string{"c.ts"}) || g.NextBatchHint != "token limit" {
		t.Fatalf("continuation = %#v", g)
	}
}

func TestNormalizeProgressPrecedence(t *testing.T) {
	found := map[ProgressSource]progressFields{
		SourceContinuation:   jsonFields{gjson.Parse(`{"hasMore":true,"nextFiles":["b.ts"]}`)},
		SourceGenerationMeta: jsonFields{gjson.Parse(`{"currentBatch":1,"totalBatches":3,"remainingFiles":["x.ts"]}`)},
		SourceBatch:          jsonFields{gjson.Parse(`{"current":1,"total":2,"isComplete":false,"remaining":["b.ts"]}`)},
	}
	g, conflicts := normalizeProgress(found)
	if g == nil || g.Source != SourceBatch {
		t.Fatalf("winner = %#v, want batch", g)
	}
	if len(conflicts) != 1 || !strings.Contains(conflicts[0], "progress conflict") || !strings.Contains(conflicts[0], "generationMeta") {
		t.Fatalf("conflicts = %q", conflicts)
	}

	delete(found, SourceBatch)
	g, _ = normalizeProgress(found)
	if g.Source != SourceGenerationMeta || g.Total != 3 {
		t.Fatalf("winner without batch = %#v", g)
	}

	if g, conflicts := normalizeProgress(nil); g != nil || conflicts != nil {
		t.Fatalf("no sources = %#v, %q", g, conflicts)
	}
}

func TestParseLooseInt(t *testing.T) {
	tests := map[string]int{
		"~1,200":   1200,
		"12 lines": 12,
		"3/5":      3,
		" 7 ":      7,
		"-4":       -4,
		"abc":      0,
		"":         0,
	}
	for in, want := range tests {
		if got := parseLooseInt(in); got != want {
			t.Errorf("parseLooseInt(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestSplitPathList(t *testing.T) {
	if got := splitPathList("[a.ts, ./b.ts]"); !reflect.DeepEqual(got, []string{"a.ts", "b.ts"}) {
		t.Errorf("splitPathList = %q", got)
	}
	for _, empty := range []string{"", "none", "N/A", "[]", "-"} {
		if got := splitPathList(empty); len(got) != 0 {
			t.Errorf("splitPathList(%q) = %q, want empty", empty, got)
		}
	}
}
