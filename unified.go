package urp

import (
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/tidwall/gjson"
)

// Parser turns raw model output into a ParsedResponse. It holds only
// immutable tables and a logger, so one Parser may serve concurrent
// callers and repeated calls on a growing stream.
type Parser struct {
	policy     *PathPolicy
	sanitizer  *Sanitizer
	manifest   *ManifestValidator
	prose      []string
	langTags   map[string]struct{}
	minContent int
	logger     *slog.Logger
}

type Option func(*Parser)

func WithLogger(l *slog.Logger) Option {
	return func(p *Parser) {
		if l != nil {
			p.logger = l
		}
	}
}

func NewParser(cfg Config, opts ...Option) *Parser {
	policy := NewPathPolicy(cfg.IgnoredDirs, cfg.IgnoreGlobs)
	p := &Parser{
		policy:     policy,
		sanitizer:  NewSanitizer(cfg.ScriptExtensions, cfg.MarkdownExtensions),
		manifest:   NewManifestValidator(policy),
		prose:      append([]string(nil), cfg.ProsePrefixes...),
		langTags:   make(map[string]struct{}, len(cfg.LanguageTags)),
		minContent: cfg.MinContentLength,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, t := range cfg.LanguageTags {
		p.langTags[strings.ToLower(t)] = struct{}{}
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func newResponse(f Format) *ParsedResponse {
	return &ParsedResponse{Format: f, Files: make(map[string]string)}
}

func (r *ParsedResponse) skip(path, reason string) {
	r.Skipped = append(r.Skipped, SkippedFile{Path: path, Reason: reason})
}

// admit runs one extracted body through the path policy and the Sanitizer.
// strict adds the JSON extraction filters (minimum length, bare language
// tag).
func (p *Parser) admit(res *ParsedResponse, raw, body string, strict bool) (string, bool) {
	path, reason := p.policy.Check(raw)
	if reason != "" {
		res.skip(path, reason)
		p.logger.Debug("file skipped", "path", raw, "reason", reason)
		return path, false
	}
	clean := p.sanitizer.Sanitize(path, body)
	if strict {
		trimmed := strings.TrimSpace(clean)
		if _, tag := p.langTags[strings.ToLower(trimmed)]; tag {
			res.skip(path, "content is a bare language tag")
			return path, false
		}
		if len(trimmed) < p.minContent {
			res.skip(path, fmt.Sprintf("content shorter than %d characters", p.minContent))
			return path, false
		}
	}
	res.Files[path] = clean
	return path, true
}

func (p *Parser) applyProgress(res *ParsedResponse, found map[ProgressSource]progressFields) {
	meta, conflicts := normalizeProgress(found)
	if meta == nil {
		return
	}
	res.GenerationMeta = meta
	res.Batch = meta.Batch()
	for _, c := range conflicts {
		p.logger.Warn(c)
		res.Warnings = append(res.Warnings, c)
	}
}

// Parse detects the wire format, dispatches to its parser, validates the
// manifest and reports declared files that never completed. The only
// error it returns is a *ParseError.
func (p *Parser) Parse(text string) (*ParsedResponse, error) {
	format := DetectFormat(text)
	p.logger.Debug("format detected", "format", format, "bytes", len(text))

	var (
		res *ParsedResponse
		err error
	)
	if format == FormatMarker {
		res = p.parseMarker(text)
	} else {
		res, err = p.parseJSON(text)
		if err != nil {
			return nil, err
		}
	}

	if err := p.requireFiles(res); err != nil {
		return nil, err
	}
	p.finish(res)
	return res, nil
}

// requireFiles refuses a result that carries no files. A delete-only
// batch is a legitimate result.
func (p *Parser) requireFiles(res *ParsedResponse) error {
	if len(res.Files) > 0 || len(res.DeletedFiles) > 0 {
		return nil
	}
	detail := fmt.Sprintf("%d entries skipped", len(res.Skipped))
	switch {
	case res.Truncated:
		return newParseError(KindTruncated, res.Format, "%s", detail)
	case res.Explanation != "" || res.Plan != nil || res.Batch != nil || len(res.Manifest) > 0:
		return &ParseError{Kind: KindMetadataOnly, Format: res.Format, Detail: detail, Explanation: res.Explanation}
	default:
		return newParseError(KindNoStructure, res.Format, "%s", detail)
	}
}

func (p *Parser) finish(res *ParsedResponse) {
	sort.Strings(res.IncompleteFiles)
	if res.Manifest != nil {
		v := p.manifest.Validate(res.Manifest, res.Files)
		res.Validation = &v
		if !v.IsValid {
			p.logger.Warn("manifest files missing", "missing", v.Missing)
		}
	}

	for _, path := range p.declaredFiles(res) {
		_, ok := res.Files[path]
		if ok && !res.isIncomplete(path) {
			continue
		}
		p.logger.Warn("declared file not completed", "path", path, "received", ok)
		res.Warnings = append(res.Warnings, "declared file not completed: "+path)
	}
}

func (p *Parser) declaredFiles(res *ParsedResponse) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(path string) {
		if _, dup := seen[path]; dup || path == "" || p.policy.IsIgnored(path) {
			return
		}
		seen[path] = struct{}{}
		out = append(out, path)
	}
	for _, f := range res.Plan.paths() {
		add(f)
	}
	for _, e := range res.Manifest {
		if e.Status == StatusIncluded && e.Action != ActionDelete {
			add(e.File)
		}
	}
	return out
}

func (p *Parser) parseMarker(text string) *ParsedResponse {
	res := newResponse(FormatMarker)
	res.Meta = parseMetaBlock(text)
	res.ProtocolVersion = 1
	if res.Meta != nil {
		res.ProtocolVersion = 2
	}
	res.Plan = parsePlanBlock(text)
	res.Explanation = parseExplanationBlock(text)
	res.Manifest = parseManifestBlock(text)
	if res.Plan != nil {
		res.DeletedFiles = res.Plan.Delete
	}
	p.applyProgress(res, progressBlocks(text))

	split := splitMarkerFiles(text)
	for _, fb := range split.complete {
		p.admit(res, fb.path, fb.body, false)
	}
	for _, path := range split.implicit {
		p.logger.Info("file implicitly closed by next FILE marker", "path", path)
	}
	if split.streaming != nil {
		if path, ok := p.admit(res, split.streaming.path, split.streaming.body, false); ok {
			res.IncompleteFiles = append(res.IncompleteFiles, path)
			res.Truncated = true
		}
	}
	return res
}

// ParseMarkerStream runs the marker file passes and separates finished
// files from the one still being written.
func (p *Parser) ParseMarkerStream(text string) StreamingFiles {
	out := StreamingFiles{Complete: make(map[string]string), Streaming: make(map[string]string)}
	scratch := newResponse(FormatMarker)
	split := splitMarkerFiles(text)
	for _, fb := range split.complete {
		if path, ok := p.admit(scratch, fb.path, fb.body, false); ok {
			out.Complete[path] = scratch.Files[path]
		}
	}
	if split.streaming != nil {
		if path, ok := p.admit(scratch, split.streaming.path, split.streaming.body, false); ok {
			out.Streaming[path] = scratch.Files[path]
			out.CurrentFile = path
		}
	}
	return out
}

// ExtractFileList returns the sorted union of paths mentioned in a plan,
// in FILE markers, or as keys of a parseable object. It never fails.
func (p *Parser) ExtractFileList(text string) []string {
	set := make(map[string]struct{})
	add := func(raw string) {
		if path, reason := p.policy.Check(raw); reason == "" {
			set[path] = struct{}{}
		}
	}

	if DetectFormat(text) == FormatMarker {
		for _, f := range parsePlanBlock(text).paths() {
			add(f)
		}
		for _, f := range markerFilePaths(text) {
			add(f)
		}
		return sortedKeys(set)
	}

	body, plan := stripLegacyPlan(strings.TrimSpace(text))
	if strings.HasPrefix(body, "```") {
		body = unwrapJSONFence(body)
	}
	body = normalizeJSON(isolateObject(body))
	if !gjson.Valid(body) {
		body, _ = balanceJSON(body)
	}
	if gjson.Valid(body) {
		root := gjson.Parse(body)
		if pl := root.Get("plan"); pl.IsObject() {
			plan = planFromJSON(pl)
		}
		obj := root.Get("files")
		if !obj.IsObject() {
			obj = root
		}
		obj.ForEach(func(k, _ gjson.Result) bool {
			if strings.ContainsAny(k.String(), "./") {
				add(k.String())
			}
			return true
		})
	} else {
		for _, sf := range salvageFiles(body) {
			add(sf.path)
		}
	}
	for _, f := range plan.paths() {
		add(f)
	}
	return sortedKeys(set)
}

// StreamingStatus classifies files without a full parse so it can run on
// every chunk. detected is the caller's running set of known paths (for
// instance from an earlier plan); paths neither streaming nor complete
// are pending.
func (p *Parser) StreamingStatus(text string, detected []string) StreamingStatus {
	var complete, streaming []string
	var planned []string
	if DetectFormat(text) == FormatMarker {
		complete, streaming = markerStreamState(text)
		planned = parsePlanBlock(text).paths()
	} else {
		complete, streaming, planned = jsonStreamState(text)
	}

	done := make(map[string]struct{})
	st := StreamingStatus{Pending: []string{}, Streaming: []string{}, Complete: []string{}}
	for _, raw := range complete {
		if path, reason := p.policy.Check(raw); reason == "" {
			if _, dup := done[path]; !dup {
				done[path] = struct{}{}
				st.Complete = append(st.Complete, path)
			}
		}
	}
	for _, raw := range streaming {
		if path, reason := p.policy.Check(raw); reason == "" {
			if _, dup := done[path]; !dup {
				done[path] = struct{}{}
				st.Streaming = append(st.Streaming, path)
			}
		}
	}
	for _, raw := range append(append([]string(nil), detected...), planned...) {
		path := NormalizePath(raw)
		if _, dup := done[path]; dup || path == "" || p.policy.IsIgnored(path) {
			continue
		}
		done[path] = struct{}{}
		st.Pending = append(st.Pending, path)
	}
	sort.Strings(st.Complete)
	sort.Strings(st.Streaming)
	sort.Strings(st.Pending)
	return st
}

func markerStreamState(text string) (complete, streaming []string) {
	split := splitMarkerFiles(text)
	for _, fb := range split.complete {
		complete = append(complete, fb.path)
	}
	if split.streaming != nil {
		streaming = append(streaming, split.streaming.path)
	}
	return complete, streaming
}

// jsonStreamState walks the token stream once. A path-like key whose
// value string (or content object) is closed is complete; one whose value
// runs off the end is streaming. A closed plan object contributes its
// declared paths.
func jsonStreamState(text string) (complete, streaming, planned []string) {
	toks := lex(text)
	for i := 0; i+2 < len(toks); i++ {
		if toks[i].kind != tokString || toks[i].unterminated || !isKeyAt(text, toks, i) {
			continue
		}
		key := stringValue(text, toks[i])
		val := toks[i+2]
		if key == "plan" && val.kind == tokOpen {
			if end := matchingClose(toks[i+2:], 0); end >= 0 {
				raw := text[val.start:toks[i+2+end].end]
				if gjson.Valid(raw) {
					planned = append(planned, planFromJSON(gjson.Parse(raw)).paths()...)
				}
			}
			continue
		}
		if !strings.ContainsAny(key, "./") {
			continue
		}
		switch val.kind {
		case tokString:
			if val.unterminated {
				streaming = append(streaming, key)
			} else {
				complete = append(complete, key)
			}
		case tokOpen:
			if text[val.start] != '{' {
				continue
			}
			if matchingClose(toks[i+2:], 0) >= 0 {
				complete = append(complete, key)
			} else {
				streaming = append(streaming, key)
			}
		}
	}
	return complete, streaming, planned
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
