package urp

import (
	"errors"
	"strings"
	"testing"
)

func TestFormatResponse(t *testing.T) {
	res := mustParse(t, markerReply)
	out := FormatResponse(res)
	for _, want := range []string{
		"protocol v2",
		"Adds the app shell.",
		"src/App.tsx",
		"(3 lines)",
		"src/old.ts",
		"create 2, update 0, delete 1",
		"batch 1/2, more to come: src/b.ts",
		"1 expected",
		"declared file not completed: src/b.ts",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("FormatResponse missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "truncated") {
		t.Errorf("closed reply reported as truncated:\n%s", out)
	}
}

func TestFormatResponseTruncated(t *testing.T) {
	res := mustParse(t, "<!-- FILE: a.ts -->\nconst a = 1;\n")
	out := FormatResponse(res)
	if !strings.Contains(out, "incomplete") || !strings.Contains(out, "truncated") {
		t.Fatalf("FormatResponse:\n%s", out)
	}
}

func TestFormatSummary(t *testing.T) {
	out := FormatSummary(Summary{Created: []string{"src/a.ts"}, Deleted: []string{"old.ts"}})
	for _, want := range []string{"Created:", "  src/a.ts", "Deleted:", "  old.ts"} {
		if !strings.Contains(out, want) {
			t.Errorf("FormatSummary missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Failed:") || strings.Contains(out, "Modified:") {
		t.Errorf("empty sections rendered:\n%s", out)
	}
}

func TestFormatError(t *testing.T) {
	_, err := newTestParser().Parse(`{"explanation":"next batch soon","files":{}}`)
	out := FormatError(err)
	if !strings.Contains(out, "request the next batch") || !strings.Contains(out, "next batch soon") {
		t.Fatalf("FormatError:\n%s", out)
	}

	_, err = newTestParser().Parse(`{"files":{"a.ts":"x`)
	if KindOf(err) == KindTruncated && !strings.Contains(FormatError(err), "continue") {
		t.Fatalf("FormatError(truncated):\n%s", FormatError(err))
	}

	if out := FormatError(errors.New("disk full")); !strings.Contains(out, "disk full") {
		t.Fatalf("FormatError(plain) = %q", out)
	}
}

func TestFormatIssuesAndRewrites(t *testing.T) {
	if FormatIssues("a.ts", nil) != "" || FormatRewrites("a.ts", nil) != "" {
		t.Fatal("empty lists should render nothing")
	}
	issues := FormatIssues("a.ts", []SyntaxIssue{{Type: IssueError, Message: "'(' is never closed", Line: 2, Column: 5, Fix: "add ')'"}})
	if !strings.Contains(issues, "2:5") || !strings.Contains(issues, "add ')'") {
		t.Fatalf("FormatIssues:\n%s", issues)
	}
	rewrites := FormatRewrites("a.ts", []Rewrite{{Rule: "arrow-space", Line: 1, Before: "() = > 1", After: "() => 1"}})
	if !strings.Contains(rewrites, "() = > 1") || !strings.Contains(rewrites, "() => 1") {
		t.Fatalf("FormatRewrites:\n%s", rewrites)
	}
}

func TestFormatStatus(t *testing.T) {
	out := FormatStatus(StreamingStatus{Complete: []string{"a.ts"}, Streaming: []string{"b.ts"}, Pending: []string{}})
	if !strings.Contains(out, "Complete (1):") || !strings.Contains(out, "b.ts") || strings.Contains(out, "Pending") {
		t.Fatalf("FormatStatus:\n%s", out)
	}
}
