package urp

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/neovim/go-client/nvim"
)

// NvimManager applies changes through Neovim buffers, so an editor that is
// already open on the project sees them with undo history intact. It
// attaches to $NVIM (or $NVIM_LISTEN_ADDRESS) when set and otherwise
// starts a headless instance of its own.
type NvimManager struct {
	v          *nvim.Nvim
	cmd        *exec.Cmd
	socketPath string
	logger     *slog.Logger
}

func NewNvimManager(ctx context.Context, logger *slog.Logger) (*NvimManager, error) {
	for _, env := range []string{"NVIM", "NVIM_LISTEN_ADDRESS"} {
		addr := os.Getenv(env)
		if addr == "" {
			continue
		}
		v, err := nvim.Dial(addr, nvim.DialContext(ctx))
		if err == nil {
			logger.Debug("attached to running nvim", "address", addr)
			return &NvimManager{v: v, logger: logger}, nil
		}
		logger.Warn("could not attach to nvim", "address", addr, "error", err)
	}

	tmpDir, err := os.MkdirTemp("", "urp-nvim-")
	if err != nil {
		return nil, err
	}
	socketPath := filepath.Join(tmpDir, "nvim.sock")

	cmd := exec.CommandContext(ctx, "nvim", "--headless", "--clean", "--listen", socketPath)
	if err := cmd.Start(); err != nil {
		os.RemoveAll(tmpDir)
		return nil, fmt.Errorf("start nvim: %w", err)
	}

	for i := 0; i < 20; i++ {
		if _, err := os.Stat(socketPath); err == nil {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}

	v, err := nvim.Dial(socketPath, nvim.DialContext(ctx))
	if err != nil {
		cmd.Process.Kill()
		os.RemoveAll(tmpDir)
		return nil, fmt.Errorf("dial nvim: %w", err)
	}

	m := &NvimManager{v: v, cmd: cmd, socketPath: socketPath, logger: logger}
	if err := m.v.Command("set noswapfile"); err != nil {
		logger.Warn("configure headless nvim", "error", err)
	}
	return m, nil
}

func (m *NvimManager) Close() {
	if m.v != nil {
		m.v.Close()
	}
	if m.cmd != nil && m.cmd.Process != nil {
		m.cmd.Process.Kill()
		m.cmd.Wait()
		os.RemoveAll(filepath.Dir(m.socketPath))
	}
}

// ApplyChanges loads each file into a buffer, replaces its lines and
// writes it. An incomplete file is loaded but left unsaved so it can be
// reviewed before writing.
func (m *NvimManager) ApplyChanges(changes []FileChange, progressCb func(int)) (updated, failed []string) {
	for i, change := range changes {
		if err := m.updateBuffer(change); err != nil {
			m.logger.Warn("nvim buffer update failed", "path", change.Path, "error", err)
			failed = append(failed, change.Path)
		} else {
			updated = append(updated, change.Path)
		}
		if progressCb != nil {
			progressCb(i + 1)
		}
	}
	return updated, failed
}

func (m *NvimManager) updateBuffer(change FileChange) error {
	var escaped string
	if err := m.v.Call("fnameescape", &escaped, change.Path); err != nil {
		return err
	}

	lines := make([][]byte, len(change.Content))
	for i, s := range change.Content {
		lines[i] = []byte(s)
	}

	b := m.v.NewBatch()
	b.Command("edit " + escaped)
	b.SetBufferLines(0, 0, -1, true, lines)
	if !change.Incomplete {
		b.Command("write")
	}
	return b.Execute()
}
