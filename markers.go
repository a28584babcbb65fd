package urp

import (
	"regexp"
	"strconv"
	"strings"
)

const (
	blockPlan           = "PLAN"
	blockExplanation    = "EXPLANATION"
	blockMeta           = "META"
	blockManifest       = "MANIFEST"
	blockBatch          = "BATCH"
	blockGenerationMeta = "GENERATION_META"
)

var (
	blockRes       = map[string]*regexp.Regexp{}
	blockOpenerRes = map[string]*regexp.Regexp{}
)

func init() {
	for _, name := range []string{blockPlan, blockExplanation, blockMeta, blockManifest, blockBatch, blockGenerationMeta} {
		blockRes[name] = regexp.MustCompile(`(?s)<!--[ \t]*` + name + `[ \t]*-->(.*?)<!--[ \t]*/` + name + `[ \t]*-->`)
		blockOpenerRes[name] = regexp.MustCompile(`<!--[ \t]*` + name + `[ \t]*-->`)
	}
}

// blockBody returns the interior of the first closed NAME block.
func blockBody(text, name string) (string, bool) {
	m := blockRes[name].FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return m[1], true
}

func hasBlockOpener(text, name string) bool {
	return blockOpenerRes[name].MatchString(text)
}

// parseKeyValues reads "key: value" lines, splitting on the first colon.
// Bullets and bold markers around keys are tolerated.
func parseKeyValues(body string, foldCase bool) map[string]string {
	out := make(map[string]string)
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimPrefix(line, "- ")
		line = strings.TrimPrefix(line, "* ")
		idx := strings.IndexByte(line, ':')
		if idx <= 0 {
			continue
		}
		key := strings.Trim(strings.TrimSpace(line[:idx]), "*`")
		if foldCase {
			key = strings.ToLower(key)
		}
		out[key] = strings.TrimSpace(line[idx+1:])
	}
	return out
}

func parsePlanBlock(text string) *FilePlan {
	body, ok := blockBody(text, blockPlan)
	if !ok {
		return nil
	}
	kv := parseKeyValues(body, true)
	return newFilePlan(
		splitPathList(kv["create"]),
		splitPathList(kv["update"]),
		splitPathList(kv["delete"]),
		parseSizes(kv["sizes"]),
	)
}

// parseSizes reads "path:lines" pairs. Each pair splits on its last colon.
func parseSizes(v string) map[string]int {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	sizes := make(map[string]int)
	for _, pair := range strings.Split(v, ",") {
		idx := strings.LastIndexByte(pair, ':')
		if idx <= 0 {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(pair[idx+1:]))
		if err != nil {
			continue
		}
		if p := NormalizePath(pair[:idx]); p != "" {
			sizes[p] = n
		}
	}
	if len(sizes) == 0 {
		return nil
	}
	return sizes
}

func parseExplanationBlock(text string) string {
	body, ok := blockBody(text, blockExplanation)
	if !ok {
		return ""
	}
	return strings.TrimSpace(body)
}

func parseMetaBlock(text string) *ResponseMeta {
	body, ok := blockBody(text, blockMeta)
	if !ok {
		return nil
	}
	kv := parseKeyValues(body, true)
	meta := &ResponseMeta{
		Version: parseLooseInt(kv["version"]),
		Format:  kv["format"],
		Mode:    kv["mode"],
	}
	for _, key := range []string{"totalfiles", "total_files", "total files", "files"} {
		if v, ok := kv[key]; ok {
			meta.TotalFiles = parseLooseInt(v)
			break
		}
	}
	return meta
}

// progressBlocks collects BATCH (v2) and GENERATION_META (v1). Both use
// case-sensitive keys.
func progressBlocks(text string) map[ProgressSource]progressFields {
	found := make(map[ProgressSource]progressFields)
	if body, ok := blockBody(text, blockBatch); ok {
		found[SourceBatch] = kvFields{values: parseKeyValues(body, false)}
	}
	if body, ok := blockBody(text, blockGenerationMeta); ok {
		found[SourceGenerationMeta] = kvFields{values: parseKeyValues(body, false)}
	}
	return found
}

var defaultManifestColumns = []string{"file", "action", "lines", "tokens", "status"}

// parseManifestBlock reads the markdown table inside MANIFEST. A header
// row, when present, fixes the column order.
func parseManifestBlock(text string) []ManifestEntry {
	body, ok := blockBody(text, blockManifest)
	if !ok {
		return nil
	}
	columns := defaultManifestColumns
	var entries []ManifestEntry
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "|") {
			continue
		}
		cells := splitTableRow(line)
		if len(cells) == 0 {
			continue
		}
		if isHeaderRow(cells) {
			columns = headerColumns(cells)
			continue
		}
		if isSeparatorCell(cells[0]) {
			continue
		}
		if e, ok := manifestRow(cells, columns); ok {
			entries = append(entries, e)
		}
	}
	return entries
}

func splitTableRow(line string) []string {
	line = strings.TrimPrefix(line, "|")
	line = strings.TrimSuffix(line, "|")
	parts := strings.Split(line, "|")
	cells := make([]string, len(parts))
	for i, p := range parts {
		cells[i] = strings.Trim(strings.TrimSpace(p), "`*")
	}
	return cells
}

func isHeaderRow(cells []string) bool {
	for _, c := range cells {
		if strings.EqualFold(c, "file") || strings.EqualFold(c, "path") {
			return true
		}
	}
	return false
}

func isSeparatorCell(c string) bool {
	c = strings.TrimSpace(c)
	return c != "" && strings.Trim(c, "-: ") == ""
}

func headerColumns(cells []string) []string {
	cols := make([]string, len(cells))
	for i, c := range cells {
		c = strings.ToLower(c)
		if c == "path" {
			c = "file"
		}
		cols[i] = c
	}
	return cols
}

func manifestRow(cells, columns []string) (ManifestEntry, bool) {
	get := func(name string) string {
		for i, c := range columns {
			if c == name && i < len(cells) {
				return cells[i]
			}
		}
		return ""
	}
	file := NormalizePath(get("file"))
	if file == "" {
		return ManifestEntry{}, false
	}
	return ManifestEntry{
		File:   file,
		Action: parseAction(get("action")),
		Lines:  parseLooseInt(get("lines")),
		Tokens: parseLooseInt(get("tokens")),
		Status: parseStatus(get("status")),
	}, true
}

func parseAction(v string) ManifestAction {
	switch a := ManifestAction(strings.ToLower(strings.TrimSpace(v))); a {
	case ActionCreate, ActionUpdate, ActionDelete:
		return a
	}
	return ActionCreate
}

func parseStatus(v string) ManifestStatus {
	switch s := ManifestStatus(strings.ToLower(strings.TrimSpace(v))); s {
	case StatusIncluded, StatusMarked, StatusPending, StatusSkipped:
		return s
	}
	return StatusIncluded
}
