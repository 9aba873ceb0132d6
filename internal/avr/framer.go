package avr

import "strings"

// lineFramer splits a raw byte stream into complete protocol lines.
//
// The receiver terminates lines with CR, but some firmware revisions emit
// LF or CRLF, so either byte ends a line. Data may arrive in arbitrary
// chunks; incomplete trailing data is buffered until the terminator shows
// up in a later chunk.
type lineFramer struct {
	buf strings.Builder
}

// Feed appends a chunk of raw bytes and returns the complete lines it
// produced, in arrival order. Lines are trimmed of surrounding whitespace
// and empty lines are dropped. Bytes outside the printable ASCII range are
// discarded rather than failing the chunk — the protocol is ASCII and
// occasional line noise must not poison the buffer.
func (f *lineFramer) Feed(data []byte) []string {
	for _, b := range data {
		if b == '\r' || b == '\n' || (b >= 0x20 && b < 0x7f) {
			f.buf.WriteByte(b)
		}
	}

	pending := f.buf.String()
	var lines []string

	for {
		idx := strings.IndexAny(pending, "\r\n")
		if idx < 0 {
			break
		}
		line := strings.TrimSpace(pending[:idx])
		pending = pending[idx+1:]
		if line != "" {
			lines = append(lines, line)
		}
	}

	f.buf.Reset()
	f.buf.WriteString(pending)
	return lines
}

// Len reports the number of buffered bytes awaiting a terminator.
func (f *lineFramer) Len() int {
	return f.buf.Len()
}
