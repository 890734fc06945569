package unload

import (
	"bytes"
	"database/sql"
)

// Record is one raw unloaded record: field bytes separated by the configured
// delimiter, with escape sequences still in place. The terminating newline
// has already been stripped by the scanner.
type Record []byte

// Fields splits the record on unescaped delimiter bytes and collapses escape
// sequences, returning the literal field values.
func (r Record) Fields(delim, escape byte) [][]byte {
	fields := make([][]byte, 0, 8)
	field := make([]byte, 0, 32)

	escActive := false
	for _, c := range r {
		if escActive {
			field = append(field, c)
			escActive = false
			continue
		}
		switch c {
		case escape:
			escActive = true
		case delim:
			fields = append(fields, field)
			field = make([]byte, 0, 32)
		default:
			field = append(field, c)
		}
	}
	// A trailing escape with nothing after it is kept as data.
	if escActive {
		field = append(field, escape)
	}
	return append(fields, field)
}

// DecodeFields splits the record using the stream's transport options and
// maps the warehouse's NULL token to an invalid sql.NullString.
//
// The NULL token is matched against the raw field bytes before unescaping: a
// literal value that merely spells the token is escaped on the wire and so
// never matches.
func (s *Stream) DecodeFields(r Record) []sql.NullString {
	rawFields := splitRaw(r, s.opts.Delimiter, s.opts.Escape)
	decoded := r.Fields(s.opts.Delimiter, s.opts.Escape)

	out := make([]sql.NullString, len(decoded))
	for i, f := range decoded {
		if string(rawFields[i]) == s.opts.NullToken {
			continue
		}
		out[i] = sql.NullString{String: string(f), Valid: true}
	}
	return out
}

// splitRaw splits on unescaped delimiters without collapsing escapes.
func splitRaw(r Record, delim, escape byte) [][]byte {
	fields := make([][]byte, 0, 8)
	start := 0
	escActive := false
	for i, c := range r {
		if escActive {
			escActive = false
			continue
		}
		switch c {
		case escape:
			escActive = true
		case delim:
			fields = append(fields, bytes.Clone(r[start:i]))
			start = i + 1
		}
	}
	return append(fields, bytes.Clone(r[start:]))
}
