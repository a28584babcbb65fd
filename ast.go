package urp

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

type CodeBlock struct {
	Lang    string
	Content string
}

func ExtractCodeBlocks(source []byte) ([]CodeBlock, error) {
	var blocks []CodeBlock
	parser := goldmark.DefaultParser()
	root := parser.Parse(text.NewReader(source))

	walker := func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		fenced, ok := node.(*ast.FencedCodeBlock)
		if !ok {
			return ast.WalkContinue, nil
		}

		block := CodeBlock{Lang: strings.ToLower(string(fenced.Language(source)))}

		var content bytes.Buffer
		lines := fenced.Lines()
		for i := 0; i < lines.Len(); i++ {
			line := lines.At(i)
			content.Write(line.Value(source))
		}
		block.Content = content.String()

		blocks = append(blocks, block)
		return ast.WalkSkipChildren, nil
	}

	if err := ast.Walk(root, walker); err != nil {
		return nil, err
	}

	return blocks, nil
}

// unwrapJSONFence returns the body of the first fenced block that holds an
// object (or a legacy PLAN line followed by one). The input is returned
// unchanged when no such block exists.
func unwrapJSONFence(s string) string {
	blocks, err := ExtractCodeBlocks([]byte(s))
	if err != nil {
		return s
	}
	for _, b := range blocks {
		if b.Lang != "" && b.Lang != "json" && b.Lang != "jsonc" && b.Lang != "javascript" {
			continue
		}
		body := strings.TrimSpace(b.Content)
		if strings.HasPrefix(body, "{") || strings.HasPrefix(body, legacyPlanPrefix) {
			return body
		}
	}
	return s
}

// hasUnclosedFence counts fence lines outside closed JSON strings; an odd
// count means a block was opened and never closed. Fences inside a file
// body written with raw newlines belong to that file.
func hasUnclosedFence(s string) bool {
	var quoted []token
	for _, t := range lex(s) {
		if t.kind == tokString && !t.unterminated {
			quoted = append(quoted, t)
		}
	}

	n, k := 0, 0
	for off := 0; off <= len(s); {
		end := strings.IndexByte(s[off:], '\n')
		if end < 0 {
			end = len(s) - off
		}
		line := s[off : off+end]
		if trimmed := strings.TrimLeft(line, " \t"); strings.HasPrefix(trimmed, "```") {
			at := off + len(line) - len(trimmed)
			for k < len(quoted) && quoted[k].end <= at {
				k++
			}
			if k == len(quoted) || quoted[k].start > at {
				n++
			}
		}
		off += end + 1
	}
	return n%2 == 1
}
