package unload

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/unloadpipe/unloadpipe/pkg/logger"
)

func TestProducerRecordsFailure(t *testing.T) {
	t.Cleanup(func() {
		goleak.VerifyNone(t)
	})

	boom := errors.New("unload exploded")
	p := newProducer(logger.NewNoopLogger())
	p.start(context.Background(), func(ctx context.Context) error {
		return boom
	})

	p.wait()
	require.True(t, p.failed())
	require.ErrorIs(t, p.failure(), boom)
}

func TestProducerSuccessLeavesNoFailure(t *testing.T) {
	t.Cleanup(func() {
		goleak.VerifyNone(t)
	})

	p := newProducer(logger.NewNoopLogger())
	p.start(context.Background(), func(ctx context.Context) error {
		return nil
	})

	p.wait()
	require.False(t, p.failed())
	require.NoError(t, p.failure())
}

func TestProducerAbandonmentSuppressesFailure(t *testing.T) {
	t.Cleanup(func() {
		goleak.VerifyNone(t)
	})

	release := make(chan struct{})
	p := newProducer(logger.NewNoopLogger())
	p.start(context.Background(), func(ctx context.Context) error {
		<-release
		return errors.New("statement torn down under us")
	})

	p.abandon()
	close(release)
	p.wait()

	require.False(t, p.failed())
	require.NoError(t, p.failure())
}

func TestProducerCapturesPanic(t *testing.T) {
	t.Cleanup(func() {
		goleak.VerifyNone(t)
	})

	p := newProducer(logger.NewNoopLogger())
	p.start(context.Background(), func(ctx context.Context) error {
		panic("driver bug")
	})

	p.wait()
	require.True(t, p.failed())
	require.ErrorContains(t, p.failure(), "driver bug")
}

func TestProducerDoneObservesFailureState(t *testing.T) {
	t.Cleanup(func() {
		goleak.VerifyNone(t)
	})

	boom := errors.New("boom")
	p := newProducer(logger.NewNoopLogger())
	p.start(context.Background(), func(ctx context.Context) error {
		return boom
	})

	select {
	case <-p.done():
		// The failure is recorded strictly before done closes.
		require.ErrorIs(t, p.failure(), boom)
	case <-time.After(5 * time.Second):
		t.Fatal("producer never finished")
	}
}
