package urp

import "strings"

type tokenKind int

const (
	tokString tokenKind = iota
	tokOpen
	tokClose
	tokOther
)

// token is a span of JSON-ish text. Strings include their quotes; an
// unterminated string runs to the end of input. Other tokens coalesce
// everything between structural characters (whitespace, commas, colons,
// literals).
type token struct {
	kind         tokenKind
	start, end   int
	unterminated bool
}

func (t token) text(s string) string { return s[t.start:t.end] }

func lex(s string) []token {
	var toks []token
	other := -1
	flushOther := func(at int) {
		if other >= 0 {
			toks = append(toks, token{kind: tokOther, start: other, end: at})
			other = -1
		}
	}

	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '"':
			flushOther(i)
			start := i
			i++
			closed := false
			for ; i < len(s); i++ {
				if s[i] == '\\' {
					i++
					continue
				}
				if s[i] == '"' {
					closed = true
					break
				}
			}
			if !closed {
				toks = append(toks, token{kind: tokString, start: start, end: len(s), unterminated: true})
				return toks
			}
			toks = append(toks, token{kind: tokString, start: start, end: i + 1})
		case '{', '[':
			flushOther(i)
			toks = append(toks, token{kind: tokOpen, start: i, end: i + 1})
		case '}', ']':
			flushOther(i)
			toks = append(toks, token{kind: tokClose, start: i, end: i + 1})
		default:
			if other < 0 {
				other = i
			}
		}
	}
	flushOther(len(s))
	return toks
}

func closerFor(open byte) byte {
	if open == '[' {
		return ']'
	}
	return '}'
}

// matchingClose returns the index of the token that closes the opener at
// toks[openIdx], or -1 when the input ends first.
func matchingClose(toks []token, openIdx int) int {
	depth := 0
	for i := openIdx; i < len(toks); i++ {
		switch toks[i].kind {
		case tokOpen:
			depth++
		case tokClose:
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// openStack returns the unclosed openers at the end of toks, outermost
// first. Closers that do not match the top are ignored.
func openStack(s string, toks []token) []byte {
	var stack []byte
	for _, t := range toks {
		switch t.kind {
		case tokOpen:
			stack = append(stack, s[t.start])
		case tokClose:
			if len(stack) > 0 && closerFor(stack[len(stack)-1]) == s[t.start] {
				stack = stack[:len(stack)-1]
			}
		}
	}
	return stack
}

// isKeyAt reports whether the string token at idx is followed by a colon.
func isKeyAt(s string, toks []token, idx int) bool {
	if idx+1 >= len(toks) || toks[idx+1].kind != tokOther {
		return false
	}
	return strings.HasPrefix(strings.TrimSpace(toks[idx+1].text(s)), ":")
}

// precededByColon reports whether the token at idx sits in value position.
func precededByColon(s string, toks []token, idx int) bool {
	if idx == 0 || toks[idx-1].kind != tokOther {
		return false
	}
	return strings.HasSuffix(strings.TrimSpace(toks[idx-1].text(s)), ":")
}

// stringValue decodes a string token, tolerating an unterminated one.
func stringValue(s string, t token) string {
	raw := t.text(s)
	if t.unterminated {
		raw = closeString(raw)
	}
	return decodeJSONString(raw)
}
