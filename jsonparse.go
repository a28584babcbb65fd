package urp

import (
	"strings"

	"github.com/tidwall/gjson"
)

const legacyPlanPrefix = "// PLAN:"

type ladderResult struct {
	root       gjson.Result
	salvaged   []salvagedFile
	tier       string
	truncated  bool
	incomplete string
}

func (p *Parser) parseJSON(text string) (*ParsedResponse, error) {
	body, err := p.prevalidate(text)
	if err != nil {
		return nil, err
	}

	body, legacyPlan := stripLegacyPlan(body)
	if !strings.Contains(body, "{") {
		return nil, newParseError(KindNoStructure, FormatJSON, "no object after legacy plan line")
	}
	body = normalizeJSON(isolateObject(body))

	lr, err := runLadder(body)
	if err != nil {
		return nil, err
	}
	p.logger.Debug("json structure recovered", "tier", lr.tier, "truncated", lr.truncated)

	res := newResponse(FormatJSON)
	res.Truncated = lr.truncated
	if lr.tier == "files-object" {
		res.Warnings = append(res.Warnings, "metadata discarded: only the files object could be recovered")
	}

	if lr.salvaged != nil {
		for _, sf := range lr.salvaged {
			if path, ok := p.admit(res, sf.path, sf.content, true); ok && sf.incomplete {
				res.IncompleteFiles = append(res.IncompleteFiles, path)
			}
		}
	} else {
		p.extractFiles(res, lr.root)
		p.jsonMetadata(res, lr.root)
		if lr.incomplete != "" {
			path := NormalizePath(lr.incomplete)
			if _, ok := res.Files[path]; ok {
				res.IncompleteFiles = append(res.IncompleteFiles, path)
			}
		}
	}
	if res.Plan == nil && legacyPlan != nil {
		res.Plan = legacyPlan
		if len(res.DeletedFiles) == 0 {
			res.DeletedFiles = legacyPlan.Delete
		}
	}
	if len(res.IncompleteFiles) > 0 {
		res.Truncated = true
	}
	return res, nil
}

// prevalidate rejects input that cannot be a JSON reply and returns the
// trimmed text to parse.
func (p *Parser) prevalidate(text string) (string, error) {
	s := strings.TrimSpace(text)
	if s == "" {
		return "", newParseError(KindEmptyInput, FormatJSON, "nothing to parse")
	}
	if hasUnclosedFence(s) {
		return "", newParseError(KindTruncated, FormatJSON, "code fence opened but never closed")
	}
	for _, prefix := range p.prose {
		if len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix) {
			return "", &ParseError{Kind: KindProseWrapped, Format: FormatJSON, Detail: "starts with " + prefix, Explanation: s}
		}
	}
	if strings.HasPrefix(s, "```") {
		s = unwrapJSONFence(s)
	}
	if !strings.Contains(s, "{") {
		return "", newParseError(KindNoStructure, FormatJSON, "no opening brace")
	}
	return s, nil
}

// stripLegacyPlan removes a leading "// PLAN: {...}" line. The plan object
// nests, so its end is found by brace depth rather than by pattern.
func stripLegacyPlan(s string) (string, *FilePlan) {
	if !strings.HasPrefix(s, legacyPlanPrefix) {
		return s, nil
	}
	rest := s[len(legacyPlanPrefix):]
	nl := strings.IndexByte(rest, '\n')
	open := strings.IndexByte(rest, '{')
	dropLine := func() string {
		if nl < 0 {
			return ""
		}
		return strings.TrimSpace(rest[nl+1:])
	}
	if open < 0 || (nl >= 0 && nl < open) {
		return dropLine(), nil
	}

	obj := rest[open:]
	toks := lex(obj)
	end := matchingClose(toks, 0)
	if end < 0 {
		return dropLine(), nil
	}
	planText := normalizeJSON(obj[:toks[end].end])
	remaining := strings.TrimSpace(obj[toks[end].end:])
	if !gjson.Valid(planText) {
		return remaining, nil
	}
	return remaining, planFromJSON(gjson.Parse(planText))
}

// runLadder parses body directly, then walks the repair tiers until one
// yields structure.
func runLadder(body string) (ladderResult, error) {
	if gjson.Valid(body) {
		return ladderResult{root: gjson.Parse(body), tier: "direct"}, nil
	}

	if fixed, info := balanceJSON(body); gjson.Valid(fixed) {
		return ladderResult{
			root:       gjson.Parse(fixed),
			tier:       "balanced",
			truncated:  info.truncated(),
			incomplete: info.incompleteKey,
		}, nil
	}

	if files, info, ok := recoverFilesObject(body); ok {
		return ladderResult{
			root:       gjson.Parse(`{"files":` + files + `}`),
			tier:       "files-object",
			truncated:  info.truncated(),
			incomplete: info.incompleteKey,
		}, nil
	}

	if salvaged := salvageFiles(body); len(salvaged) > 0 {
		truncated := looksTruncated(body)
		for _, sf := range salvaged {
			truncated = truncated || sf.incomplete
		}
		return ladderResult{salvaged: salvaged, tier: "salvage", truncated: truncated}, nil
	}

	if looksTruncated(body) {
		return ladderResult{}, newParseError(KindTruncated, FormatJSON, "repair ladder exhausted")
	}
	return ladderResult{}, newParseError(KindNoStructure, FormatJSON, "repair ladder exhausted")
}

// extractFiles reads the files object, or the root itself when the reply
// puts paths at the top level. An array of {path, content} objects is
// accepted as well.
func (p *Parser) extractFiles(res *ParsedResponse, root gjson.Result) {
	obj := root.Get("files")
	if obj.IsArray() {
		for _, item := range obj.Array() {
			key := firstString(item, "path", "file", "name")
			if key == "" {
				continue
			}
			if content, ok := fileContent(item); ok {
				p.admit(res, key, content, true)
			} else {
				res.skip(key, "no content, code or diff field")
			}
		}
		return
	}
	if !obj.IsObject() {
		obj = root
	}
	obj.ForEach(func(k, v gjson.Result) bool {
		key := k.String()
		if !strings.ContainsAny(key, "./") {
			return true
		}
		content, ok := fileContent(v)
		if !ok {
			res.skip(key, "value is neither a string nor an object with content, code or diff")
			return true
		}
		p.admit(res, key, content, true)
		return true
	})
}

func fileContent(v gjson.Result) (string, bool) {
	if v.Type == gjson.String {
		return v.String(), true
	}
	if !v.IsObject() {
		return "", false
	}
	for _, f := range contentFields {
		if c := v.Get(f); c.Type == gjson.String {
			return c.String(), true
		}
	}
	return "", false
}

func firstString(v gjson.Result, keys ...string) string {
	for _, k := range keys {
		if s := v.Get(k); s.Type == gjson.String && s.String() != "" {
			return s.String()
		}
	}
	return ""
}

func (p *Parser) jsonMetadata(res *ParsedResponse, root gjson.Result) {
	res.Explanation = root.Get("explanation").String()
	if res.Explanation == "" {
		res.Explanation = root.Get("description").String()
	}

	if plan := root.Get("plan"); plan.IsObject() {
		res.Plan = planFromJSON(plan)
	}
	if res.Plan != nil && len(res.Plan.Delete) > 0 {
		res.DeletedFiles = res.Plan.Delete
	} else if del := root.Get("deletedFiles"); del.IsArray() {
		res.DeletedFiles = jsonPathList(del)
	}

	if m := root.Get("manifest"); m.IsArray() {
		for _, item := range m.Array() {
			file := NormalizePath(firstString(item, "path", "file"))
			if file == "" {
				continue
			}
			res.Manifest = append(res.Manifest, ManifestEntry{
				File:   file,
				Action: parseAction(item.Get("action").String()),
				Lines:  parseLooseInt(item.Get("lines").String()),
				Tokens: parseLooseInt(item.Get("tokens").String()),
				Status: parseStatus(item.Get("status").String()),
			})
		}
	}

	found := make(map[ProgressSource]progressFields)
	for _, src := range progressPrecedence {
		if v := root.Get(string(src)); v.IsObject() {
			found[src] = jsonFields{r: v}
		}
	}
	p.applyProgress(res, found)
}

func planFromJSON(plan gjson.Result) *FilePlan {
	var sizes map[string]int
	if s := plan.Get("sizes"); s.IsObject() {
		sizes = make(map[string]int)
		s.ForEach(func(k, v gjson.Result) bool {
			if path := NormalizePath(k.String()); path != "" {
				sizes[path] = parseLooseInt(v.String())
			}
			return true
		})
	}
	return newFilePlan(
		jsonPathList(plan.Get("create")),
		jsonPathList(plan.Get("update")),
		jsonPathList(plan.Get("delete")),
		sizes,
	)
}

func jsonPathList(v gjson.Result) []string {
	if !v.IsArray() {
		if v.Type == gjson.String {
			return splitPathList(v.String())
		}
		return nil
	}
	var out []string
	for _, item := range v.Array() {
		if s := NormalizePath(item.String()); s != "" {
			out = append(out, s)
		}
	}
	return out
}
