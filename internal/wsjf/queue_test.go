package wsjf

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueue_OrdersByPriorityLowestFirst(t *testing.T) {
	q := NewQueue()
	q.Push(&Item{Priority: 0.5, Seq: q.NextSeq(), Tag: "mid"})
	q.Push(&Item{Priority: 0.1, Seq: q.NextSeq(), Tag: "best"})
	q.Push(&Item{Priority: 0.9, Seq: q.NextSeq(), Tag: "worst"})

	ctx := context.Background()
	first, err := q.Pop(ctx)
	require.NoError(t, err)
	assert.Equal(t, "best", first.Tag)

	second, err := q.Pop(ctx)
	require.NoError(t, err)
	assert.Equal(t, "mid", second.Tag)

	third, err := q.Pop(ctx)
	require.NoError(t, err)
	assert.Equal(t, "worst", third.Tag)
}

func TestQueue_FIFOTiebreakOnEqualPriority(t *testing.T) {
	q := NewQueue()
	for _, tag := range []string{"a", "b", "c"} {
		q.Push(&Item{Priority: 0.3, Seq: q.NextSeq(), Tag: tag})
	}

	ctx := context.Background()
	for _, want := range []string{"a", "b", "c"} {
		item, err := q.Pop(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, item.Tag)
	}
}

func TestQueue_PopBlocksUntilPush(t *testing.T) {
	q := NewQueue()
	ctx := context.Background()

	result := make(chan *Item, 1)
	go func() {
		item, err := q.Pop(ctx)
		require.NoError(t, err)
		result <- item
	}()

	select {
	case <-result:
		t.Fatal("Pop returned before anything was pushed")
	case <-time.After(50 * time.Millisecond):
	}

	q.Push(&Item{Priority: 1, Seq: q.NextSeq(), Tag: "late"})

	select {
	case item := <-result:
		assert.Equal(t, "late", item.Tag)
	case <-time.After(2 * time.Second):
		t.Fatal("Pop never returned after push")
	}
}

func TestQueue_PopReturnsOnContextCancel(t *testing.T) {
	q := NewQueue()
	ctx, cancel := context.WithCancel(context.Background())

	errc := make(chan error, 1)
	go func() {
		_, err := q.Pop(ctx)
		errc <- err
	}()

	cancel()
	select {
	case err := <-errc:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Pop never returned after cancel")
	}
}

func TestQueue_RequeueWithIdenticalSeqPreservesPosition(t *testing.T) {
	q := NewQueue()
	first := &Item{Priority: 0.2, Seq: q.NextSeq(), Tag: "first"}
	second := &Item{Priority: 0.2, Seq: q.NextSeq(), Tag: "second"}
	q.Push(first)
	q.Push(second)

	ctx := context.Background()
	popped, err := q.Pop(ctx)
	require.NoError(t, err)
	assert.Equal(t, "first", popped.Tag)

	// A write failure requeues the same item untouched: same seq, so it
	// still sorts ahead of "second" despite being pushed back later.
	q.Push(popped)

	next, err := q.Pop(ctx)
	require.NoError(t, err)
	assert.Equal(t, "first", next.Tag)
}
