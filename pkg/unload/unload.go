// Package unload streams bulk query results out of a warehouse through an OS
// named pipe.
//
// A Stream drives a warehouse-side unload statement in a background goroutine
// while the caller consumes records one at a time. The unload writes
// delimited bytes into the pipe; the stream scans them back out as records
// under the pipe's own backpressure. A producer failure terminates the
// stream: there is no retry at this layer.
package unload

import (
	"errors"
	"os"

	"github.com/unloadpipe/unloadpipe/pkg/logger"
)

// ErrIteratorDone is returned by Next and Head once the stream is exhausted.
var ErrIteratorDone = errors.New("iterator done")

// ErrStreamClosed is returned by Next and Head after Close has been called.
var ErrStreamClosed = errors.New("unload stream closed")

const (
	// DefaultDelimiter separates fields within a record on the wire.
	DefaultDelimiter byte = 0x01

	// DefaultEscape marks the following delimiter or newline byte as data.
	DefaultEscape byte = '\\'

	// DefaultSourceTag identifies this client to warehouses that record the
	// remote source of an unload.
	DefaultSourceTag = "GOLANG"

	// DefaultBoolStyle is the boolean literal style requested from the
	// warehouse.
	DefaultBoolStyle = "1_0"
)

// Options carries the fixed transport options of an unload plus the ambient
// collaborators of the stream. None of these are negotiated per record.
type Options struct {
	Delimiter byte
	Escape    byte
	NullToken string
	BoolStyle string
	SourceTag string

	// PipeDir is the directory the named pipe is created in.
	PipeDir string

	Logger logger.Logger
}

// Option configures a Stream.
type Option func(*Options)

// WithDelimiter sets the single-byte field delimiter.
func WithDelimiter(d byte) Option {
	return func(o *Options) {
		o.Delimiter = d
	}
}

// WithEscape sets the single-byte escape character.
func WithEscape(e byte) Option {
	return func(o *Options) {
		o.Escape = e
	}
}

// WithNullToken sets the token the warehouse writes for NULL values.
func WithNullToken(token string) Option {
	return func(o *Options) {
		o.NullToken = token
	}
}

// WithBoolStyle sets the boolean literal style requested from the warehouse.
func WithBoolStyle(style string) Option {
	return func(o *Options) {
		o.BoolStyle = style
	}
}

// WithSourceTag sets the remote source tag attached to the unload.
func WithSourceTag(tag string) Option {
	return func(o *Options) {
		o.SourceTag = tag
	}
}

// WithPipeDir sets the directory the named pipe is created in.
func WithPipeDir(dir string) Option {
	return func(o *Options) {
		o.PipeDir = dir
	}
}

// WithLogger sets the logger used by the stream.
func WithLogger(l logger.Logger) Option {
	return func(o *Options) {
		o.Logger = l
	}
}

func newOptions(opts ...Option) *Options {
	o := &Options{
		Delimiter: DefaultDelimiter,
		Escape:    DefaultEscape,
		BoolStyle: DefaultBoolStyle,
		SourceTag: DefaultSourceTag,
		PipeDir:   os.TempDir(),
	}

	for _, opt := range opts {
		opt(o)
	}

	if o.Logger == nil {
		o.Logger = logger.NewNoopLogger()
	}

	return o
}
