package unload

import (
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestCreatePipe(t *testing.T) {
	path, err := createPipe(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = os.Remove(path)
	})

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.NotZero(t, info.Mode()&os.ModeNamedPipe)
}

func TestCreatePipeFailsOnMissingDir(t *testing.T) {
	_, err := createPipe("/definitely/not/a/dir")
	require.Error(t, err)
}

func TestOpenPipeReaderWithWriter(t *testing.T) {
	t.Cleanup(func() {
		goleak.VerifyNone(t)
	})

	path, err := createPipe(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = os.Remove(path)
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		w, err := os.OpenFile(path, os.O_WRONLY, 0)
		if err != nil {
			return
		}
		_, _ = w.WriteString("hello\n")
		_ = w.Close()
	}()

	r, err := openPipeReader(path, done)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = r.Close()
	})

	data, err := io.ReadAll(r)
	require.NoError(t, err)
	require.Equal(t, "hello\n", string(data))
	<-done
}

func TestOpenPipeReaderUnblocksWhenProducerDies(t *testing.T) {
	t.Cleanup(func() {
		goleak.VerifyNone(t)
	})

	path, err := createPipe(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = os.Remove(path)
	})

	// Producer exited without ever attaching a writer.
	done := make(chan struct{})
	close(done)

	r, err := openPipeReader(path, done)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = r.Close()
	})

	// The only writer was the unblocking probe, so the reader sees EOF.
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	require.Empty(t, data)
}
