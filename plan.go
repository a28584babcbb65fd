package urp

import (
	"sort"
	"strings"
)

// ExecutionPlan is what applying a ParsedResponse would do to the tree
// under a PathResolver root. Paths in it are absolute.
type ExecutionPlan struct {
	Changes      []FileChange
	Deletes      []string
	FileActions  map[string]string
	DirsToCreate map[string]struct{}
	Skipped      []SkippedFile
}

// CreatePlan turns a parsed response into file changes. Files still being
// streamed are left out unless includeIncomplete is set, and a path that
// resolves outside the root is skipped rather than written. A body that
// is a unified diff is applied to the current file.
func CreatePlan(res *ParsedResponse, resolver *PathResolver, includeIncomplete bool) *ExecutionPlan {
	plan := &ExecutionPlan{}

	paths := make([]string, 0, len(res.Files))
	for p := range res.Files {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	written := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		incomplete := res.isIncomplete(p)
		if incomplete && !includeIncomplete {
			plan.Skipped = append(plan.Skipped, SkippedFile{Path: p, Reason: "incomplete"})
			continue
		}
		abs, err := resolver.Resolve(p)
		if err != nil {
			plan.Skipped = append(plan.Skipped, SkippedFile{Path: p, Reason: err.Error()})
			continue
		}
		lines := contentLines(res.Files[p])
		if isUnifiedDiff(p, res.Files[p]) {
			if lines, err = patchFile(abs, res.Files[p]); err != nil {
				plan.Skipped = append(plan.Skipped, SkippedFile{Path: p, Reason: "patch: " + err.Error()})
				continue
			}
		}
		written[p] = struct{}{}
		plan.Changes = append(plan.Changes, FileChange{
			Path:       abs,
			Content:    lines,
			Source:     res.Format,
			Incomplete: incomplete,
		})
	}

	for _, p := range res.DeletedFiles {
		if _, ok := written[p]; ok {
			continue
		}
		abs, err := resolver.Resolve(p)
		if err != nil {
			plan.Skipped = append(plan.Skipped, SkippedFile{Path: p, Reason: err.Error()})
			continue
		}
		plan.Deletes = append(plan.Deletes, abs)
	}

	plan.FileActions, plan.DirsToCreate = GetFileActionsAndDirs(plan.Changes)
	for _, p := range plan.Deletes {
		plan.FileActions[p] = "delete"
	}
	return plan
}

func contentLines(body string) []string {
	trimmed := strings.TrimRight(body, "\n")
	if trimmed == "" {
		return []string{}
	}
	return strings.Split(trimmed, "\n")
}

func renderContent(lines []string) []byte {
	content := strings.Join(lines, "\n")
	if len(lines) > 0 {
		content += "\n"
	}
	return []byte(content)
}
