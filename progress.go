package urp

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// progressFields is the read side shared by every progress encoding,
// whether it arrived as a JSON object or as key: value marker lines.
type progressFields interface {
	lookup(key string) (string, bool)
	list(key string) ([]string, bool)
}

type jsonFields struct{ r gjson.Result }

func (f jsonFields) lookup(key string) (string, bool) {
	v := f.r.Get(gjson.Escape(key))
	if !v.Exists() || v.Type == gjson.Null {
		return "", false
	}
	return v.String(), true
}

func (f jsonFields) list(key string) ([]string, bool) {
	v := f.r.Get(gjson.Escape(key))
	if !v.Exists() {
		return nil, false
	}
	if v.IsArray() {
		var out []string
		for _, item := range v.Array() {
			if s := NormalizePath(item.String()); s != "" {
				out = append(out, s)
			}
		}
		return out, true
	}
	return splitPathList(v.String()), true
}

// kvFields reads a marker block. Keys are stored as written unless the
// block is case-insensitive, in which case both sides are lowered.
type kvFields struct {
	values   map[string]string
	foldCase bool
}

func (f kvFields) lookup(key string) (string, bool) {
	if f.foldCase {
		key = strings.ToLower(key)
	}
	v, ok := f.values[key]
	return v, ok
}

func (f kvFields) list(key string) ([]string, bool) {
	v, ok := f.lookup(key)
	if !ok {
		return nil, false
	}
	return splitPathList(v), true
}

type progressAdapter func(progressFields) GenerationMeta

// progressPrecedence is the documented order in which the three progress
// encodings win: a batch object beats legacy generationMeta, which beats
// legacy continuation.
var progressPrecedence = []ProgressSource{SourceBatch, SourceGenerationMeta, SourceContinuation}

var progressAdapters = map[ProgressSource]progressAdapter{
	SourceBatch:          fromBatch,
	SourceGenerationMeta: fromGenerationMeta,
	SourceContinuation:   fromContinuation,
}

func fromBatch(f progressFields) GenerationMeta {
	g := GenerationMeta{Source: SourceBatch, IsComplete: true}
	g.Current = intField(f, "current")
	g.Total = intField(f, "total")
	if v, ok := f.lookup("isComplete"); ok {
		g.IsComplete = parseBool(v)
	}
	g.Completed, _ = f.list("completed")
	g.Remaining, _ = f.list("remaining")
	g.NextBatchHint, _ = f.lookup("nextBatchHint")
	g.FilesInThisBatch = intField(f, "filesInThisBatch")
	g.TotalFilesPlanned = intField(f, "totalFilesPlanned")
	return g
}

func fromGenerationMeta(f progressFields) GenerationMeta {
	g := GenerationMeta{Source: SourceGenerationMeta, IsComplete: true}
	g.Current = intField(f, "currentBatch")
	g.Total = intField(f, "totalBatches")
	if v, ok := f.lookup("isComplete"); ok {
		g.IsComplete = parseBool(v)
	}
	g.Completed, _ = f.list("completedFiles")
	g.Remaining, _ = f.list("remainingFiles")
	g.NextBatchHint, _ = f.lookup("nextBatchHint")
	g.TotalFilesPlanned = intField(f, "totalFilesPlanned")
	g.FilesInThisBatch = intField(f, "filesInThisBatch")
	return g
}

func fromContinuation(f progressFields) GenerationMeta {
	g := GenerationMeta{Source: SourceContinuation, IsComplete: true}
	if v, ok := f.lookup("hasMore"); ok {
		g.IsComplete = !parseBool(v)
	}
	g.Current = intField(f, "currentBatch")
	g.Total = intField(f, "totalBatches")
	g.Completed, _ = f.list("completedFiles")
	if rem, ok := f.list("remainingFiles"); ok {
		g.Remaining = rem
	} else {
		g.Remaining, _ = f.list("nextFiles")
	}
	if hint, ok := f.lookup("nextBatchHint"); ok {
		g.NextBatchHint = hint
	} else {
		g.NextBatchHint, _ = f.lookup("reason")
	}
	g.TotalFilesPlanned = intField(f, "totalFilesPlanned")
	return g
}

// normalizeProgress picks the highest-precedence encoding present. Lower
// encodings that disagree on the remaining files are reported as conflicts
// rather than merged.
func normalizeProgress(found map[ProgressSource]progressFields) (*GenerationMeta, []string) {
	var winner *GenerationMeta
	var conflicts []string
	for _, src := range progressPrecedence {
		f, ok := found[src]
		if !ok {
			continue
		}
		g := progressAdapters[src](f)
		finishProgress(&g)
		if winner == nil {
			winner = &g
			continue
		}
		if !sameSet(winner.Remaining, g.Remaining) {
			conflicts = append(conflicts, fmt.Sprintf(
				"progress conflict: %s reports remaining %v, %s reports %v; using %s",
				winner.Source, winner.Remaining, g.Source, g.Remaining, winner.Source))
		}
	}
	return winner, conflicts
}

func finishProgress(g *GenerationMeta) {
	if len(g.Remaining) == 0 {
		g.IsComplete = true
	}
	if g.TotalFilesPlanned == 0 {
		g.TotalFilesPlanned = len(g.Completed) + len(g.Remaining)
	}
	if g.FilesInThisBatch == 0 && g.Source != SourceBatch {
		g.FilesInThisBatch = len(g.Completed)
	}
}

func intField(f progressFields, key string) int {
	v, ok := f.lookup(key)
	if !ok {
		return 0
	}
	return parseLooseInt(v)
}

// parseLooseInt reads "~1,200", "12 lines" or "3/5" style counts; only the
// leading number counts.
func parseLooseInt(v string) int {
	v = strings.TrimSpace(strings.NewReplacer("~", "", ",", "", "_", "").Replace(v))
	end := 0
	for end < len(v) && (v[end] >= '0' && v[end] <= '9' || (end == 0 && v[end] == '-')) {
		end++
	}
	n, err := strconv.Atoi(v[:end])
	if err != nil {
		return 0
	}
	return n
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "yes", "y", "1":
		return true
	}
	return false
}

// splitPathList splits "a.ts, b.ts" or "[a.ts, b.ts]" into normalized
// paths. Placeholders such as "none" yield an empty list.
func splitPathList(v string) []string {
	v = strings.TrimSpace(v)
	v = strings.TrimPrefix(v, "[")
	v = strings.TrimSuffix(v, "]")
	var out []string
	for _, part := range strings.Split(v, ",") {
		p := NormalizePath(part)
		switch strings.ToLower(p) {
		case "", "none", "-", "n/a", "null":
			continue
		}
		out = append(out, p)
	}
	return out
}

func sameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	x := append([]string(nil), a...)
	y := append([]string(nil), b...)
	sort.Strings(x)
	sort.Strings(y)
	for i := range x {
		if x[i] != y[i] {
			return false
		}
	}
	return true
}
