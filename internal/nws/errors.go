package nws

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Error kinds. Only ErrInvalidEnvelope is returned from Parse; the others
// are recorded as warnings on the product and matched with errors.Is.
var (
	ErrInvalidEnvelope  = errors.New("invalid envelope")
	ErrInvalidTimestamp = errors.New("invalid timestamp")
	ErrInvalidGeometry  = errors.New("invalid geometry")
	ErrUnknownCode      = errors.New("unknown code")
	ErrOutOfBounds      = errors.New("out of bounds")
	ErrFutureTimestamp  = errors.New("future timestamp")
)

// Warning is a non-fatal decode defect.
type Warning struct {
	Kind    error
	Message string
}

func (w Warning) Error() string {
	if w.Kind == nil {
		return w.Message
	}
	return w.Kind.Error() + ": " + w.Message
}

func (w Warning) Unwrap() error { return w.Kind }

// Warnf builds a Warning of the given kind.
func Warnf(kind error, format string, args ...any) Warning {
	return Warning{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Warnings is an append-only list of decode defects.
type Warnings []Warning

// Add appends a warning.
func (ws *Warnings) Add(kind error, format string, args ...any) {
	*ws = append(*ws, Warnf(kind, format, args...))
}

// Has reports whether any warning matches kind.
func (ws Warnings) Has(kind error) bool {
	for _, w := range ws {
		if errors.Is(w, kind) {
			return true
		}
	}
	return false
}

// Strings renders the warnings for storage.
func (ws Warnings) Strings() []string {
	out := make([]string, len(ws))
	for i, w := range ws {
		out[i] = w.Error()
	}
	return out
}

// MarshalJSON renders warnings as plain strings.
func (ws Warnings) MarshalJSON() ([]byte, error) {
	return json.Marshal(ws.Strings())
}

// AsWarning converts an error wrapping one of the kinds into a Warning.
func AsWarning(err error) Warning {
	for _, kind := range []error{ErrInvalidEnvelope, ErrInvalidTimestamp, ErrInvalidGeometry,
		ErrUnknownCode, ErrOutOfBounds, ErrFutureTimestamp} {
		if errors.Is(err, kind) {
			return Warning{Kind: kind, Message: strings.TrimPrefix(err.Error(), kind.Error()+": ")}
		}
	}
	return Warning{Message: err.Error()}
}
