package urp

import (
	"errors"
	"fmt"
)

type ErrorKind int

const (
	KindEmptyInput ErrorKind = iota + 1
	KindProseWrapped
	KindNoStructure
	KindMetadataOnly
	KindTruncated
)

func (k ErrorKind) String() string {
	switch k {
	case KindEmptyInput:
		return "empty input"
	case KindProseWrapped:
		return "prose-wrapped"
	case KindNoStructure:
		return "no structure found"
	case KindMetadataOnly:
		return "metadata only"
	case KindTruncated:
		return "unrecoverable truncation"
	default:
		return "unknown"
	}
}

var (
	ErrEmptyInput   = errors.New("empty input")
	ErrProseWrapped = errors.New("response wrapped in prose")
	ErrNoStructure  = errors.New("no file structure found")
	ErrMetadataOnly = errors.New("explanation or metadata only, no files")
	ErrTruncated    = errors.New("truncated beyond recovery")
)

var kindSentinels = map[ErrorKind]error{
	KindEmptyInput:   ErrEmptyInput,
	KindProseWrapped: ErrProseWrapped,
	KindNoStructure:  ErrNoStructure,
	KindMetadataOnly: ErrMetadataOnly,
	KindTruncated:    ErrTruncated,
}

// ParseError is the only error Parse returns. Callers branch on Kind (or
// errors.Is against the sentinels) to pick a retry strategy.
type ParseError struct {
	Kind        ErrorKind
	Format      Format
	Detail      string
	Explanation string
}

func (e *ParseError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s parse: %s", e.Format, kindSentinels[e.Kind])
	}
	return fmt.Sprintf("%s parse: %s: %s", e.Format, kindSentinels[e.Kind], e.Detail)
}

func (e *ParseError) Unwrap() error { return kindSentinels[e.Kind] }

func newParseError(kind ErrorKind, format Format, msg string, args ...any) *ParseError {
	return &ParseError{Kind: kind, Format: format, Detail: fmt.Sprintf(msg, args...)}
}

// KindOf extracts the ErrorKind from err, or 0 when err is not a ParseError.
func KindOf(err error) ErrorKind {
	var pe *ParseError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return 0
}
