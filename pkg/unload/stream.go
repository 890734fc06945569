package unload

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"go.uber.org/zap"

	"github.com/unloadpipe/unloadpipe/pkg/logger"
	"github.com/unloadpipe/unloadpipe/pkg/scan"
)

// execer is the prepared unload statement as the stream sees it: one
// blocking execution and one release.
type execer interface {
	Exec(ctx context.Context) error
	Close() error
}

type stmtExecer struct {
	stmt *sql.Stmt
}

func (e *stmtExecer) Exec(ctx context.Context) error {
	_, err := e.stmt.ExecContext(ctx)
	return err
}

func (e *stmtExecer) Close() error {
	return e.stmt.Close()
}

// Stream is a pipe-backed lazy sequence of unloaded records.
//
// Iteration follows the usual protocol: Next returns records until it
// returns ErrIteratorDone, and Head provides one-record lookahead without
// consuming. The caller must call Close when done; exhaustion does not close
// the stream. A Stream serves exactly one consuming goroutine.
type Stream struct {
	logger logger.Logger
	opts   *Options

	exec     execer
	pipePath string
	pipe     *os.File
	scanner  *scan.Scanner
	prod     *producer

	// mu keeps Head and Next coherent over the lookahead buffer. It does not
	// make concurrent consumption supported.
	mu        sync.Mutex
	head      Record
	headValid bool
	done      bool
	closed    bool
}

// Open creates the named pipe, prepares the unload statement, starts the
// producer, and opens the pipe for reading. Statement build and prepare
// errors surface here, synchronously, with no background task left running.
// The read-side open blocks until the warehouse attaches its writer.
func Open(ctx context.Context, db *sql.DB, dialect Dialect, q Query, opts ...Option) (*Stream, error) {
	o := newOptions(opts...)

	pipePath, err := createPipe(o.PipeDir)
	if err != nil {
		return nil, err
	}

	text, err := buildStatement(dialect, q, pipePath, o)
	if err != nil {
		_ = os.Remove(pipePath)
		return nil, err
	}

	stmt, err := db.PrepareContext(ctx, text)
	if err != nil {
		_ = os.Remove(pipePath)
		return nil, fmt.Errorf("prepare unload statement: %w", err)
	}

	o.Logger.Debug("starting unload",
		zap.String("dialect", string(dialect)),
		zap.String("table", q.Table),
		zap.String("pipe", pipePath),
	)

	return newStream(ctx, &stmtExecer{stmt: stmt}, pipePath, o)
}

func newStream(ctx context.Context, exec execer, pipePath string, o *Options) (*Stream, error) {
	s := &Stream{
		logger:   o.Logger,
		opts:     o,
		exec:     exec,
		pipePath: pipePath,
		prod:     newProducer(o.Logger),
	}
	activeStreamsGauge.Inc()

	s.prod.start(ctx, exec.Exec)

	pipe, err := openPipeReader(pipePath, s.prod.done())
	if err != nil {
		cerr := s.Close()
		return nil, errors.Join(fmt.Errorf("open pipe reader: %w", err), cerr)
	}
	s.pipe = pipe
	s.scanner = scan.New(pipe, o.Escape)

	return s, nil
}

// Head returns the next record without consuming it. The first call fetches
// eagerly; repeated calls return the same record. It returns ErrIteratorDone
// once the stream is exhausted.
func (s *Stream) Head(ctx context.Context) (Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrStreamClosed
	}
	if s.headValid {
		return s.head, nil
	}
	if s.done {
		return nil, ErrIteratorDone
	}

	rec, err := s.fetch()
	if err != nil {
		if errors.Is(err, ErrIteratorDone) {
			s.done = true
		}
		return nil, err
	}

	s.head = rec
	s.headValid = true
	return rec, nil
}

// Next returns the next record, or ErrIteratorDone once the stream is
// exhausted. A producer failure terminates iteration: Next reports it as a
// single fatal error wrapping the underlying cause, from the first call that
// observes it.
func (s *Stream) Next(ctx context.Context) (Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrStreamClosed
	}
	if s.headValid {
		rec := s.head
		s.head = nil
		s.headValid = false
		s.yielded(rec)
		return rec, nil
	}
	if s.done {
		return nil, ErrIteratorDone
	}

	rec, err := s.fetch()
	if err != nil {
		if errors.Is(err, ErrIteratorDone) {
			s.done = true
		}
		return nil, err
	}

	s.yielded(rec)
	return rec, nil
}

func (s *Stream) yielded(rec Record) {
	recordsYieldedCounter.Inc()
	recordBytesCounter.Add(float64(len(rec)))
}

// fetch reads one record from the pipe, holding s.mu.
//
// The producer failure check happens before the blocking read: a producer
// that died must be reported rather than masked by a read that blocks
// forever or returns truncated data. Scanner exhaustion is only trusted
// after the producer has fully terminated without failure, so partial data
// followed by a failure never reads as a clean end of stream. An
// unterminated tail record is dropped when the producer failed instead of
// being fabricated into a result.
func (s *Stream) fetch() (Record, error) {
	if err := s.prod.failure(); err != nil {
		s.releaseReader()
		return nil, fmt.Errorf("unload failed: %w", err)
	}

	rec, err := s.scanner.ReadRecord()
	if err == nil {
		return Record(rec), nil
	}
	if !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read unload pipe: %w", err)
	}

	s.prod.wait()
	if ferr := s.prod.failure(); ferr != nil {
		return nil, fmt.Errorf("unload failed: %w", ferr)
	}
	if rec != nil {
		return Record(rec), nil
	}
	return nil, ErrIteratorDone
}

func (s *Stream) releaseReader() {
	if s.pipe != nil {
		_ = s.pipe.Close()
		s.pipe = nil
	}
}

// Close tears the stream down. It is idempotent, and every release step is
// independently guarded so a partially constructed stream still closes
// completely. The order matters: releasing the statement first gives the
// warehouse its cue to stop, closing the read side unblocks a producer stuck
// writing, and only then does Close wait for the producer goroutine to exit.
// Release errors are collected rather than stopping later steps, so one
// leaked resource cannot leak the rest.
func (s *Stream) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.head = nil
	s.headValid = false
	s.mu.Unlock()

	// A producer failure is authoritative; only a still-healthy producer is
	// told to treat what follows as deliberate abandonment.
	if !s.prod.failed() {
		s.prod.abandon()
	}

	var errs []error

	if s.exec != nil {
		if err := s.exec.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close unload statement: %w", err))
		}
		s.exec = nil
	}

	if s.pipePath != "" {
		// If the read side never opened, the producer may still be parked in
		// its writer-side open. Complete the rendezvous so it can exit.
		if s.pipe == nil {
			select {
			case <-s.prod.done():
			default:
				releasePipeOpen(s.pipePath, os.O_RDONLY)
			}
		}
		if err := os.Remove(s.pipePath); err != nil && !os.IsNotExist(err) {
			errs = append(errs, fmt.Errorf("remove named pipe: %w", err))
		}
		s.pipePath = ""
	}

	s.releaseReader()

	s.prod.wait()

	activeStreamsGauge.Dec()
	s.logger.Debug("unload stream closed")

	return errors.Join(errs...)
}
