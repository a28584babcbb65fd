package urp

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/atotto/clipboard"
)

// SourceProvider finds the model reply to work on: a file argument, piped
// stdin, or the clipboard, in that order.
type SourceProvider struct {
	stdin io.Reader
}

func NewSourceProvider() *SourceProvider {
	return &SourceProvider{stdin: os.Stdin}
}

func (sp *SourceProvider) GetContent(args []string) (string, error) {
	if len(args) > 0 && args[0] != "-" {
		c, err := os.ReadFile(args[0])
		if err != nil {
			return "", fmt.Errorf("read %s: %w", args[0], err)
		}
		return string(c), nil
	}

	if len(args) > 0 || stdinIsPipe() {
		c, err := io.ReadAll(sp.stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(c), nil
	}

	c, err := clipboard.ReadAll()
	if err != nil {
		return "", fmt.Errorf("read clipboard: %w", err)
	}
	return strings.TrimSpace(c), nil
}

func stdinIsPipe() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return stat.Mode()&os.ModeCharDevice == 0
}
