package squareframe

import (
	"errors"
	"fmt"
)

// Kind classifies an error by the stage of the pipeline that produced it.
type Kind int

const (
	KindUnknown Kind = iota
	KindDecode
	KindClipboard
	KindIO
)

func (k Kind) String() string {
	switch k {
	case KindDecode:
		return "decode"
	case KindClipboard:
		return "clipboard"
	case KindIO:
		return "io"
	default:
		return "unknown"
	}
}

// Error is an error tagged with its Kind.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s error", e.Kind)
	}
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func decodeError(format string, a ...any) error {
	return &Error{Kind: KindDecode, Err: fmt.Errorf(format, a...)}
}

func clipboardError(format string, a ...any) error {
	return &Error{Kind: KindClipboard, Err: fmt.Errorf(format, a...)}
}

func ioError(format string, a ...any) error {
	return &Error{Kind: KindIO, Err: fmt.Errorf(format, a...)}
}

// KindOf returns the Kind of the outermost *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
