package patterns

import (
	"bytes"
	"fmt"
	"strings"
)

const (
	SOH = "\x01"
	ETX = "\x03"
)

// NormalizeText converts CR/CR/LF and CR/LF line endings to LF and strips
// the LDM / NOAAPort envelope (SOH, 3 digit sequence line, ETX) when
// present. The sequence line is only removed from framed input. Leading
// blank lines are removed. Trailing whitespace on each line is preserved so
// fixed-column products keep their layout.
func NormalizeText(raw string) string {
	framed := HasLDMEnvelope(raw)
	text := strings.ReplaceAll(raw, "\r\r\n", "\n")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.ReplaceAll(text, SOH, "")
	text = strings.ReplaceAll(text, ETX, "")
	text = strings.TrimLeft(text, "\n ")

	// Sequence number on its own first line.
	if nl := strings.IndexByte(text, '\n'); framed && nl > 0 {
		first := strings.TrimSpace(text[:nl])
		if len(first) >= 3 && len(first) <= 5 && IsDigits(first) {
			text = strings.TrimLeft(text[nl+1:], "\n")
		}
	}
	return text
}

// HasLDMEnvelope reports whether raw starts with an SOH control byte.
func HasLDMEnvelope(raw string) bool {
	return strings.HasPrefix(strings.TrimLeft(raw, "\r\n "), SOH)
}

// FrameLDM wraps normalized text in the NOAAPort transmission envelope.
func FrameLDM(seq int, text string) string {
	body := strings.ReplaceAll(text, "\n", "\r\r\n")
	return fmt.Sprintf("%s\r\r\n%03d \r\r\n%s%s", SOH, seq%1000, body, ETX)
}

// ScanLDM is a bufio.SplitFunc that yields one SOH...ETX framed product at
// a time from a concatenated feed. Bytes between frames are dropped. At EOF
// an unterminated trailing frame is returned as is.
func ScanLDM(data []byte, atEOF bool) (advance int, token []byte, err error) {
	start := bytes.IndexByte(data, SOH[0])
	if start < 0 {
		return len(data), nil, nil
	}
	if end := bytes.IndexByte(data[start:], ETX[0]); end >= 0 {
		return start + end + 1, data[start : start+end+1], nil
	}
	if atEOF {
		return len(data), data[start:], nil
	}
	return start, nil, nil
}
