package urp

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	createdStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("81"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("78"))
	deletedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("204"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("197"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

// ApplyView runs an App with a spinner and prints the summary when it is
// done.
type ApplyView struct {
	app         *App
	res         *ParsedResponse
	noAnimation bool
	spin        spinner.Spinner
	index       int
	mu          sync.Mutex
	cur, total  int
}

func NewApplyView(app *App, res *ParsedResponse, noAnimation bool) *ApplyView {
	return &ApplyView{app: app, res: res, noAnimation: noAnimation, spin: spinner.MiniDot}
}

func (t *ApplyView) Run(ctx context.Context) error {
	if t.noAnimation {
		summary, err := t.app.Execute(ctx, t.res)
		if err == nil {
			fmt.Print(FormatSummary(summary))
		}
		return err
	}

	t.app.SetProgressCallback(func(c, tot int) {
		t.mu.Lock()
		defer t.mu.Unlock()
		t.cur, t.total = c, tot
	})

	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(t.spin.FPS)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				t.renderProgress()
			}
		}
	}()

	summary, err := t.app.Execute(ctx, t.res)
	close(done)
	fmt.Print("\r\x1b[K")

	if err == nil {
		fmt.Print(FormatSummary(summary))
	}
	return err
}

func (t *ApplyView) renderProgress() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.index = (t.index + 1) % len(t.spin.Frames)
	fmt.Printf("\r%s Applying... %d/%d\x1b[K", t.spin.Frames[t.index], t.cur, t.total)
}

func renderList(b *strings.Builder, title string, style lipgloss.Style, list []string) {
	if len(list) == 0 {
		return
	}
	b.WriteString(style.Render(title) + "\n")
	for _, f := range list {
		fmt.Fprintf(b, "  %s\n", f)
	}
}

func FormatSummary(s Summary) string {
	var b strings.Builder
	if s.Message != "" {
		b.WriteString(headerStyle.Render(s.Message) + "\n\n")
	}

	renderList(&b, "Created:", createdStyle, s.Created)
	renderList(&b, "Modified:", successStyle, s.Modified)
	renderList(&b, "Unchanged:", dimStyle, s.Unchanged)
	renderList(&b, "Deleted:", deletedStyle, s.Deleted)
	renderList(&b, "Skipped:", warnStyle, s.Skipped)
	renderList(&b, "Failed:", errorStyle, s.Failed)

	return b.String()
}

// FormatResponse renders the parts of a response a user reviews before
// applying it.
func FormatResponse(res *ParsedResponse) string {
	var b strings.Builder

	title := fmt.Sprintf("%s response", res.Format)
	if res.Format == FormatMarker {
		title += fmt.Sprintf(" (protocol v%d)", res.ProtocolVersion)
	}
	b.WriteString(headerStyle.Render(title) + "\n")
	if res.Explanation != "" {
		b.WriteString(dimStyle.Render(res.Explanation) + "\n")
	}
	b.WriteString("\n")

	paths := make([]string, 0, len(res.Files))
	for p := range res.Files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	var files []string
	for _, p := range paths {
		line := fmt.Sprintf("%s %s", p, dimStyle.Render(fmt.Sprintf("(%d lines)", len(contentLines(res.Files[p])))))
		if res.isIncomplete(p) {
			line += " " + warnStyle.Render("incomplete")
		}
		files = append(files, line)
	}
	renderList(&b, fmt.Sprintf("Files (%d):", len(files)), createdStyle, files)
	renderList(&b, "Delete:", deletedStyle, res.DeletedFiles)

	if res.Plan != nil {
		fmt.Fprintf(&b, "%s create %d, update %d, delete %d\n", successStyle.Render("Plan:"),
			len(res.Plan.Create), len(res.Plan.Update), len(res.Plan.Delete))
	}
	if res.Batch != nil {
		b.WriteString(successStyle.Render("Progress:") + " " + formatBatch(res.Batch) + "\n")
	}
	if v := res.Validation; v != nil {
		state := successStyle.Render("valid")
		if !v.IsValid {
			state = errorStyle.Render("missing " + strings.Join(v.Missing, ", "))
		}
		fmt.Fprintf(&b, "%s %d expected, %s\n", successStyle.Render("Manifest:"), len(v.Expected), state)
		if len(v.Extra) > 0 {
			fmt.Fprintf(&b, "  %s %s\n", dimStyle.Render("extra:"), strings.Join(v.Extra, ", "))
		}
	}

	var skipped []string
	for _, s := range res.Skipped {
		skipped = append(skipped, fmt.Sprintf("%s %s", s.Path, dimStyle.Render("("+s.Reason+")")))
	}
	renderList(&b, "Skipped:", warnStyle, skipped)
	renderList(&b, "Warnings:", warnStyle, res.Warnings)
	if res.Truncated {
		b.WriteString(errorStyle.Render("Response was truncated; request a continuation.") + "\n")
	}
	return b.String()
}

func formatBatch(bt *Batch) string {
	s := "complete"
	if bt.Total > 0 {
		s = fmt.Sprintf("batch %d/%d", bt.Current, bt.Total)
		if bt.IsComplete {
			s += ", complete"
		}
	}
	if !bt.IsComplete {
		s += ", more to come"
		if len(bt.Remaining) > 0 {
			s += ": " + strings.Join(bt.Remaining, ", ")
		}
	}
	if bt.NextBatchHint != "" {
		s += " " + dimStyle.Render("("+bt.NextBatchHint+")")
	}
	return s
}

func FormatStatus(st StreamingStatus) string {
	var b strings.Builder
	renderList(&b, fmt.Sprintf("Complete (%d):", len(st.Complete)), successStyle, st.Complete)
	renderList(&b, "Streaming:", createdStyle, st.Streaming)
	renderList(&b, fmt.Sprintf("Pending (%d):", len(st.Pending)), dimStyle, st.Pending)
	return b.String()
}

func FormatIssues(path string, issues []SyntaxIssue) string {
	if len(issues) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(headerStyle.Render(path) + "\n")
	for _, is := range issues {
		style := warnStyle
		if is.Type == IssueError {
			style = errorStyle
		}
		fmt.Fprintf(&b, "  %d:%d %s %s", is.Line, is.Column, style.Render(string(is.Type)), is.Message)
		if is.Fix != "" {
			b.WriteString(" " + dimStyle.Render("(fix: "+is.Fix+")"))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func FormatRewrites(path string, rewrites []Rewrite) string {
	if len(rewrites) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(headerStyle.Render(path) + "\n")
	for _, r := range rewrites {
		fmt.Fprintf(&b, "  %d %s\n", r.Line, dimStyle.Render(r.Rule))
		fmt.Fprintf(&b, "    %s %s\n", deletedStyle.Render("-"), r.Before)
		fmt.Fprintf(&b, "    %s %s\n", successStyle.Render("+"), r.After)
	}
	return b.String()
}

// FormatError renders a parse failure with the hint a caller needs to
// decide between retrying and continuing.
func FormatError(err error) string {
	var pe *ParseError
	if !errors.As(err, &pe) {
		return errorStyle.Render(err.Error()) + "\n"
	}
	var b strings.Builder
	b.WriteString(errorStyle.Render(pe.Error()) + "\n")
	switch pe.Kind {
	case KindTruncated:
		b.WriteString(dimStyle.Render("The reply was cut off; ask the model to continue.") + "\n")
	case KindMetadataOnly:
		b.WriteString(dimStyle.Render("The reply carried no files; request the next batch.") + "\n")
	case KindProseWrapped:
		b.WriteString(dimStyle.Render("The reply is prose; ask for the structured format only.") + "\n")
	}
	if pe.Explanation != "" {
		b.WriteString(dimStyle.Render(pe.Explanation) + "\n")
	}
	return b.String()
}
