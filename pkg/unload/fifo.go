package unload

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/sys/unix"
)

// createPipe creates a uniquely named FIFO in dir and returns its path. The
// pipe must exist before the unload statement is issued so the warehouse has
// a target to open.
func createPipe(dir string) (string, error) {
	path := filepath.Join(dir, fmt.Sprintf("unload-%s.pipe", ulid.Make().String()))
	if err := unix.Mkfifo(path, 0o600); err != nil {
		return "", fmt.Errorf("create named pipe %s: %w", path, err)
	}
	return path, nil
}

type pipeOpenResult struct {
	f   *os.File
	err error
}

// openPipeReader opens the read side of the FIFO at path. The open blocks
// until a writer attaches, which is the startup backpressure boundary between
// producer and consumer. If the producer exits before attaching a writer,
// done unblocks the wait: a write side is attached briefly to release the
// parked open, and the caller is handed a reader that yields immediate EOF,
// leaving the producer's failure state to tell the rest of the story.
func openPipeReader(path string, done <-chan struct{}) (*os.File, error) {
	ch := make(chan pipeOpenResult, 1)
	go func() {
		f, err := os.OpenFile(path, os.O_RDONLY, 0)
		ch <- pipeOpenResult{f: f, err: err}
	}()

	select {
	case res := <-ch:
		return res.f, res.err
	case <-done:
	}

	releasePipeOpen(path, os.O_WRONLY)
	res := <-ch
	return res.f, res.err
}

// releasePipeOpen completes the FIFO open rendezvous from the given side so a
// peer parked in a blocking open can proceed. ENXIO means the peer has not
// reached its open yet; retry briefly.
func releasePipeOpen(path string, flag int) {
	for i := 0; i < 100; i++ {
		f, err := os.OpenFile(path, flag|unix.O_NONBLOCK, 0)
		if err == nil {
			_ = f.Close()
			return
		}
		if !errors.Is(err, unix.ENXIO) {
			return
		}
		time.Sleep(time.Millisecond)
	}
}
