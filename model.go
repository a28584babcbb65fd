package urp

type Format string

const (
	FormatJSON   Format = "json"
	FormatMarker Format = "marker"
)

type ParsedResponse struct {
	Format          Format              `json:"format"`
	ProtocolVersion int                 `json:"protocolVersion,omitempty"`
	Files           map[string]string   `json:"files"`
	Explanation     string              `json:"explanation,omitempty"`
	Plan            *FilePlan           `json:"plan,omitempty"`
	Manifest        []ManifestEntry     `json:"manifest,omitempty"`
	Meta            *ResponseMeta       `json:"meta,omitempty"`
	Batch           *Batch              `json:"batch,omitempty"`
	GenerationMeta  *GenerationMeta     `json:"generationMeta,omitempty"`
	DeletedFiles    []string            `json:"deletedFiles,omitempty"`
	Truncated       bool                `json:"truncated"`
	IncompleteFiles []string            `json:"incompleteFiles,omitempty"`
	Validation      *ManifestValidation `json:"validation,omitempty"`
	Skipped         []SkippedFile       `json:"skipped,omitempty"`
	Warnings        []string            `json:"warnings,omitempty"`
}

// IsComplete reports whether the model signalled that no further batch is
// coming. A response without batch information is complete.
func (r *ParsedResponse) IsComplete() bool {
	return r.Batch == nil || r.Batch.IsComplete
}

func (r *ParsedResponse) isIncomplete(path string) bool {
	for _, p := range r.IncompleteFiles {
		if p == path {
			return true
		}
	}
	return false
}

type FilePlan struct {
	Create []string       `json:"create"`
	Update []string       `json:"update"`
	Delete []string       `json:"delete"`
	Total  int            `json:"total"`
	Sizes  map[string]int `json:"sizes,omitempty"`
}

// paths lists the files the plan expects to receive, creates first.
func (p *FilePlan) paths() []string {
	if p == nil {
		return nil
	}
	out := make([]string, 0, len(p.Create)+len(p.Update))
	out = append(out, p.Create...)
	return append(out, p.Update...)
}

func newFilePlan(create, update, del []string, sizes map[string]int) *FilePlan {
	return &FilePlan{
		Create: create,
		Update: update,
		Delete: del,
		Total:  len(create) + len(update),
		Sizes:  sizes,
	}
}

type ManifestAction string

const (
	ActionCreate ManifestAction = "create"
	ActionUpdate ManifestAction = "update"
	ActionDelete ManifestAction = "delete"
)

type ManifestStatus string

const (
	StatusIncluded ManifestStatus = "included"
	StatusMarked   ManifestStatus = "marked"
	StatusPending  ManifestStatus = "pending"
	StatusSkipped  ManifestStatus = "skipped"
)

type ManifestEntry struct {
	File   string         `json:"file"`
	Action ManifestAction `json:"action"`
	Lines  int            `json:"lines"`
	Tokens int            `json:"tokens"`
	Status ManifestStatus `json:"status"`
}

type Batch struct {
	Current       int      `json:"current"`
	Total         int      `json:"total"`
	IsComplete    bool     `json:"isComplete"`
	Completed     []string `json:"completed,omitempty"`
	Remaining     []string `json:"remaining,omitempty"`
	NextBatchHint string   `json:"nextBatchHint,omitempty"`
}

type ProgressSource string

const (
	SourceBatch          ProgressSource = "batch"
	SourceGenerationMeta ProgressSource = "generationMeta"
	SourceContinuation   ProgressSource = "continuation"
)

// GenerationMeta is the canonical progress shape every legacy encoding is
// normalized into.
type GenerationMeta struct {
	Source            ProgressSource `json:"source"`
	Current           int            `json:"current"`
	Total             int            `json:"total"`
	IsComplete        bool           `json:"isComplete"`
	Completed         []string       `json:"completed,omitempty"`
	Remaining         []string       `json:"remaining,omitempty"`
	NextBatchHint     string         `json:"nextBatchHint,omitempty"`
	TotalFilesPlanned int            `json:"totalFilesPlanned,omitempty"`
	FilesInThisBatch  int            `json:"filesInThisBatch,omitempty"`
}

func (g *GenerationMeta) Batch() *Batch {
	return &Batch{
		Current:       g.Current,
		Total:         g.Total,
		IsComplete:    g.IsComplete,
		Completed:     g.Completed,
		Remaining:     g.Remaining,
		NextBatchHint: g.NextBatchHint,
	}
}

type ResponseMeta struct {
	Version    int    `json:"version,omitempty"`
	Format     string `json:"format,omitempty"`
	Mode       string `json:"mode,omitempty"`
	TotalFiles int    `json:"totalFiles,omitempty"`
}

type ManifestValidation struct {
	Expected []string `json:"expected"`
	Received []string `json:"received"`
	Missing  []string `json:"missing"`
	Extra    []string `json:"extra"`
	IsValid  bool     `json:"isValid"`
}

type SkippedFile struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

type IssueType string

const (
	IssueError   IssueType = "error"
	IssueWarning IssueType = "warning"
)

type SyntaxIssue struct {
	Type    IssueType `json:"type"`
	Message string    `json:"message"`
	Line    int       `json:"line,omitempty"`
	Column  int       `json:"column,omitempty"`
	Fix     string    `json:"fix,omitempty"`
}

type StreamingStatus struct {
	Pending   []string `json:"pending"`
	Streaming []string `json:"streaming"`
	Complete  []string `json:"complete"`
}

type StreamingFiles struct {
	Complete    map[string]string
	Streaming   map[string]string
	CurrentFile string
}

type FileChange struct {
	Path       string
	Content    []string
	Source     Format
	Incomplete bool
}

type Summary struct {
	Created   []string
	Modified  []string
	Unchanged []string
	Deleted   []string
	Skipped   []string
	Failed    []string
	Message   string
}
