// Package scan splits a delimited byte stream into records.
//
// Records are terminated by CR, LF, or CRLF. A configurable escape byte
// placed immediately before a newline makes that newline part of the record
// instead of a terminator. The scanner operates one byte at a time so record
// boundaries are independent of how the underlying reader chunks its data.
package scan

import (
	"bufio"
	"errors"
	"io"
)

// Scanner reads records from a byte stream. It is stateful across calls (a
// record ending on a bare CR must suppress a leading LF on the next call) and
// must only be driven from a single goroutine.
type Scanner struct {
	r      *bufio.Reader
	escape byte
	skipLF bool
}

// New returns a Scanner reading from r with the given escape byte.
func New(r io.Reader, escape byte) *Scanner {
	return &Scanner{
		r:      bufio.NewReader(r),
		escape: escape,
	}
}

// ReadRecord returns the next record without its terminating newline.
//
// At end of input it returns (nil, io.EOF). If the input ends with bytes not
// followed by a terminator, those bytes are returned as a final record
// together with io.EOF, letting the caller decide whether an unterminated
// tail is a legitimate record or the debris of a failed producer.
func (s *Scanner) ReadRecord() ([]byte, error) {
	buf := make([]byte, 0, 64)

	// escActive reports whether the previous byte was an escape byte that is
	// itself unescaped. crEscaped reports whether the previous byte was an
	// escaped CR, whose CRLF pair must stay inside the record as a unit.
	var escActive, crEscaped bool

	first := true
	for {
		c, err := s.r.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) {
				if len(buf) == 0 {
					return nil, io.EOF
				}
				return buf, io.EOF
			}
			return nil, err
		}

		if first {
			first = false
			if s.skipLF {
				s.skipLF = false
				if c == '\n' {
					// Trailing LF of a CRLF pair split across calls.
					continue
				}
			}
		}

		if c == '\r' || c == '\n' {
			if escActive {
				buf = append(buf, c)
				escActive = false
				crEscaped = c == '\r'
				continue
			}
			if crEscaped && c == '\n' {
				buf = append(buf, c)
				crEscaped = false
				continue
			}
			if c == '\r' {
				s.skipLF = true
			}
			return buf, nil
		}

		crEscaped = false
		if c == s.escape {
			// Toggling handles escaped escape bytes: the second escape of a
			// pair is data and must not arm escaping for the byte after it.
			escActive = !escActive
		} else {
			escActive = false
		}
		buf = append(buf, c)
	}
}
