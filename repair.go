package urp

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
)

// normalizeJSON applies the fixes that are cheap and unambiguous enough not
// to count as repair: trailing commas before a closer are dropped and raw
// control characters inside strings are escaped.
func normalizeJSON(s string) string {
	toks := lex(s)
	var b strings.Builder
	b.Grow(len(s))
	for i, t := range toks {
		switch t.kind {
		case tokString:
			b.WriteString(escapeControl(t.text(s)))
		case tokOther:
			txt := t.text(s)
			if i+1 < len(toks) && toks[i+1].kind == tokClose {
				txt = dropTrailingComma(txt)
			}
			b.WriteString(txt)
		default:
			b.WriteString(t.text(s))
		}
	}
	return b.String()
}

func dropTrailingComma(txt string) string {
	trimmed := strings.TrimRight(txt, " \t\r\n")
	if !strings.HasSuffix(trimmed, ",") {
		return txt
	}
	return trimmed[:len(trimmed)-1] + txt[len(trimmed):]
}

func escapeControl(raw string) string {
	if !strings.ContainsFunc(raw, func(r rune) bool { return r < 0x20 }) {
		return raw
	}
	var b strings.Builder
	for i := 0; i < len(raw); i++ {
		switch c := raw[i]; {
		case c == '\n':
			b.WriteString(`\n`)
		case c == '\r':
			b.WriteString(`\r`)
		case c == '\t':
			b.WriteString(`\t`)
		case c < 0x20:
			fmt.Fprintf(&b, `\u%04x`, c)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// isolateObject drops anything before the first '{' and, when the object
// closes, anything after its closing brace.
func isolateObject(s string) string {
	idx := strings.IndexByte(s, '{')
	if idx < 0 {
		return s
	}
	s = s[idx:]
	toks := lex(s)
	if end := matchingClose(toks, 0); end >= 0 {
		return s[:toks[end].end]
	}
	return s
}

// closeString terminates an unterminated string literal. A dangling escape
// backslash is dropped so the added quote is not escaped.
func closeString(raw string) string {
	n := 0
	for i := len(raw) - 1; i > 0 && raw[i] == '\\'; i-- {
		n++
	}
	if n%2 == 1 {
		raw = raw[:len(raw)-1]
	}
	return raw + `"`
}

func decodeJSONString(raw string) string {
	return gjson.Parse(raw).String()
}

type balanceInfo struct {
	closers       int
	closedString  bool
	cutKey        bool
	incompleteKey string
}

// truncated separates genuine truncation from the silent single missing
// brace.
func (b balanceInfo) truncated() bool {
	return b.closedString || b.cutKey || b.closers > 1
}

// balanceJSON is tier a of the ladder: close an unterminated value string,
// cut a dangling key, then append the closers the token stream still owes.
func balanceJSON(s string) (string, balanceInfo) {
	var info balanceInfo
	toks := lex(s)
	if n := len(toks); n > 0 && toks[n-1].unterminated {
		last := toks[n-1]
		if precededByColon(s, toks, n-1) {
			info.closedString = true
			info.incompleteKey = valueOwner(s, toks, n-1)
			s = s[:last.start] + closeString(last.text(s))
		} else {
			info.cutKey = true
			s = s[:last.start]
		}
	}

	for changed := true; changed; {
		changed = false
		s = strings.TrimRight(s, " \t\r\n")
		toks = lex(s)
		n := len(toks)
		if n == 0 {
			break
		}
		last := toks[n-1]
		switch {
		case last.kind == tokOther && strings.HasSuffix(s, ","):
			s = s[:len(s)-1]
			changed = true
		case last.kind == tokOther && strings.HasSuffix(s, ":"):
			if n >= 2 && toks[n-2].kind == tokString {
				s = s[:toks[n-2].start]
				info.cutKey = true
				changed = true
			}
		case last.kind == tokString && danglingKey(s, toks, n-1):
			s = s[:last.start]
			info.cutKey = true
			changed = true
		}
	}

	stack := openStack(s, lex(s))
	info.closers = len(stack)
	var b strings.Builder
	b.WriteString(s)
	for i := len(stack) - 1; i >= 0; i-- {
		b.WriteByte(closerFor(stack[i]))
	}
	return b.String(), info
}

// danglingKey reports whether the final string token is an object key that
// never received its colon.
func danglingKey(s string, toks []token, idx int) bool {
	if idx == 0 {
		return false
	}
	prev := toks[idx-1]
	stack := openStack(s, toks[:idx])
	if len(stack) == 0 || stack[len(stack)-1] != '{' {
		return false
	}
	if prev.kind == tokOpen {
		return true
	}
	return prev.kind == tokOther && strings.HasSuffix(strings.TrimSpace(prev.text(s)), ",")
}

var contentFields = []string{"content", "code", "diff"}

func isContentField(key string) bool {
	for _, f := range contentFields {
		if key == f {
			return true
		}
	}
	return false
}

// valueOwner names the file whose value string starts at toks[idx]. For
// the {"content": ...} form that is the key of the enclosing object.
func valueOwner(s string, toks []token, idx int) string {
	if idx < 2 || toks[idx-2].kind != tokString {
		return ""
	}
	key := stringValue(s, toks[idx-2])
	if !isContentField(key) {
		return key
	}
	depth := 0
	for i := idx - 3; i >= 0; i-- {
		switch toks[i].kind {
		case tokClose:
			depth++
		case tokOpen:
			if depth > 0 {
				depth--
				continue
			}
			if i >= 2 && toks[i-2].kind == tokString && precededByColon(s, toks, i) {
				return stringValue(s, toks[i-2])
			}
			return ""
		}
	}
	return ""
}

// recoverFilesObject is tier b: locate the "files" object alone and try to
// make it parse, discarding everything around it.
func recoverFilesObject(s string) (string, balanceInfo, bool) {
	toks := lex(s)
	for i := 0; i+2 < len(toks); i++ {
		if toks[i].kind != tokString || toks[i].unterminated || stringValue(s, toks[i]) != "files" {
			continue
		}
		if strings.TrimSpace(toks[i+1].text(s)) != ":" || toks[i+2].kind != tokOpen || s[toks[i+2].start] != '{' {
			continue
		}
		sub := s[toks[i+2].start:]
		subToks := lex(sub)
		if end := matchingClose(subToks, 0); end >= 0 {
			sub = sub[:subToks[end].end]
		}
		sub = normalizeJSON(sub)
		if gjson.Valid(sub) {
			return sub, balanceInfo{}, true
		}
		fixed, info := balanceJSON(sub)
		if gjson.Valid(fixed) {
			return fixed, info, true
		}
	}
	return "", balanceInfo{}, false
}

const salvagePath = `[\w@$.\-/\[\]()+~]+\.[A-Za-z0-9]+`

var (
	salvagePairRe = regexp.MustCompile(`"(` + salvagePath + `)"\s*:\s*("(?:[^"\\]|\\.)*"|` + "`[^`]*`)")
	salvageTailRe = regexp.MustCompile(`"(` + salvagePath + `)"\s*:\s*"((?:[^"\\]|\\.)*)$`)
)

type salvagedFile struct {
	path       string
	content    string
	incomplete bool
}

// salvageFiles is tier c: ignore structure and rebuild a file map from
// path-like keys followed by a quoted or backtick value.
func salvageFiles(s string) []salvagedFile {
	var out []salvagedFile
	last := 0
	for _, m := range salvagePairRe.FindAllStringSubmatchIndex(s, -1) {
		path, raw := s[m[2]:m[3]], s[m[4]:m[5]]
		var content string
		if raw[0] == '`' {
			content = raw[1 : len(raw)-1]
		} else {
			content = decodeJSONString(escapeControl(raw))
		}
		out = append(out, salvagedFile{path: path, content: content})
		last = m[1]
	}
	if m := salvageTailRe.FindStringSubmatch(s[last:]); m != nil {
		content := decodeJSONString(closeString(`"` + escapeControl(m[2])))
		out = append(out, salvagedFile{path: m[1], content: content, incomplete: true})
	}
	return out
}

// looksTruncated reports whether s ends inside a string or an open
// container, the shape of a reply cut off by the output limit.
func looksTruncated(s string) bool {
	toks := lex(s)
	if n := len(toks); n > 0 && toks[n-1].unterminated {
		return true
	}
	return len(openStack(s, toks)) > 0
}
