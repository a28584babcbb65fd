package urp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

const streamChunkSize = 4096

type chunkMsg string

type streamDoneMsg struct{ err error }

// streamModel re-derives the streaming status from the whole text on every
// chunk. The parser is stateless, so the only state carried between
// chunks is the text itself and the set of paths seen so far.
type streamModel struct {
	parser   *Parser
	spinner  spinner.Model
	text     strings.Builder
	detected []string
	status   StreamingStatus
	done     bool
	err      error
}

func newStreamModel(p *Parser) *streamModel {
	return &streamModel{
		parser:  p,
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(createdStyle)),
	}
}

func (m *streamModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m *streamModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case chunkMsg:
		m.ingest(string(msg))
		return m, nil
	case streamDoneMsg:
		m.done, m.err = true, msg.err
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.err = errors.New("interrupted")
			return m, tea.Quit
		}
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *streamModel) ingest(chunk string) {
	m.text.WriteString(chunk)
	text := m.text.String()
	m.detected = mergePaths(m.detected, m.parser.ExtractFileList(text))
	m.status = m.parser.StreamingStatus(text, m.detected)
}

func (m *streamModel) View() string {
	if m.done {
		return ""
	}
	head := fmt.Sprintf("%s receiving %d bytes", m.spinner.View(), m.text.Len())
	if len(m.status.Streaming) > 0 {
		head += ", writing " + createdStyle.Render(m.status.Streaming[0])
	}
	return head + "\n" + FormatStatus(m.status)
}

// mergePaths adds the new paths to known, keeping first-seen order.
func mergePaths(known, found []string) []string {
	seen := make(map[string]struct{}, len(known))
	for _, p := range known {
		seen[p] = struct{}{}
	}
	for _, p := range found {
		if _, ok := seen[p]; !ok {
			seen[p] = struct{}{}
			known = append(known, p)
		}
	}
	return known
}

// readChunks forwards r to send in chunks until EOF or an error, then
// reports completion.
func readChunks(r io.Reader, send func(tea.Msg)) {
	buf := make([]byte, streamChunkSize)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			send(chunkMsg(buf[:n]))
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				err = nil
			}
			send(streamDoneMsg{err: err})
			return
		}
	}
}

// RunStream shows the live status of a reply arriving on r and returns
// the full text once r is exhausted.
func RunStream(ctx context.Context, r io.Reader, out io.Writer, p *Parser) (string, error) {
	m := newStreamModel(p)
	prog := tea.NewProgram(m, tea.WithContext(ctx), tea.WithInput(nil), tea.WithOutput(out))
	go readChunks(r, prog.Send)

	if _, err := prog.Run(); err != nil {
		return m.text.String(), fmt.Errorf("stream view: %w", err)
	}
	return m.text.String(), m.err
}

// RunPlainStream is RunStream without a terminal UI: it prints the status
// each time it changes.
func RunPlainStream(r io.Reader, out io.Writer, p *Parser) (string, error) {
	m := newStreamModel(p)
	var (
		last   string
		result error
	)
	readChunks(r, func(msg tea.Msg) {
		switch msg := msg.(type) {
		case chunkMsg:
			m.ingest(string(msg))
			if s := formatPlainStatus(m.status); s != last {
				fmt.Fprintln(out, s)
				last = s
			}
		case streamDoneMsg:
			result = msg.err
		}
	})
	return m.text.String(), result
}

func formatPlainStatus(st StreamingStatus) string {
	s := fmt.Sprintf("complete=%d streaming=%d pending=%d", len(st.Complete), len(st.Streaming), len(st.Pending))
	if len(st.Streaming) > 0 {
		s += " current=" + st.Streaming[0]
	}
	return s
}
