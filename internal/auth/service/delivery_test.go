package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aussiebroadwan/authcore/pkg/slogx"
	"github.com/stretchr/testify/require"
)

func TestDeliveryQueueRunsTasks(t *testing.T) {
	q := NewDeliveryQueue(slogx.Discard(), 2, 8, time.Second)
	q.Start()

	var n atomic.Int32
	for range 5 {
		require.True(t, q.Enqueue("count", func(context.Context) error {
			n.Add(1)
			return nil
		}))
	}
	q.Stop()

	require.EqualValues(t, 5, n.Load())
}

func TestDeliveryQueueDropsWhenFull(t *testing.T) {
	q := NewDeliveryQueue(slogx.Discard(), 1, 1, time.Second)
	q.Start()

	release := make(chan struct{})
	running := make(chan struct{})
	require.True(t, q.Enqueue("block", func(context.Context) error {
		close(running)
		<-release
		return nil
	}))
	<-running

	require.True(t, q.Enqueue("buffered", func(context.Context) error { return nil }))
	require.False(t, q.Enqueue("dropped", func(context.Context) error { return nil }))

	close(release)
	q.Stop()
}

func TestDeliveryQueueStopped(t *testing.T) {
	q := NewDeliveryQueue(slogx.Discard(), 1, 4, time.Second)
	q.Start()
	q.Stop()
	q.Stop()

	require.False(t, q.Enqueue("late", func(context.Context) error { return nil }))
}

func TestDeliveryQueueDrainsWithoutWorkers(t *testing.T) {
	q := NewDeliveryQueue(slogx.Discard(), 1, 4, time.Second)

	var ran bool
	require.True(t, q.Enqueue("inline", func(context.Context) error {
		ran = true
		return nil
	}))
	q.Stop()

	require.True(t, ran)
}

func TestDeliveryQueueSurvivesFailures(t *testing.T) {
	q := NewDeliveryQueue(slogx.Discard(), 1, 4, 50*time.Millisecond)
	q.Start()

	var deadline atomic.Bool
	q.Enqueue("fails", func(context.Context) error { return errors.New("smtp down") })
	q.Enqueue("panics", func(context.Context) error { panic("boom") })
	q.Enqueue("times out", func(ctx context.Context) error {
		<-ctx.Done()
		deadline.Store(errors.Is(ctx.Err(), context.DeadlineExceeded))
		return ctx.Err()
	})

	var after atomic.Bool
	q.Enqueue("after", func(context.Context) error {
		after.Store(true)
		return nil
	})
	q.Stop()

	require.True(t, deadline.Load())
	require.True(t, after.Load())
}
