package match

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandQueueWraparound(t *testing.T) {
	q := NewCommandQueue(3)
	for _, s := range []int{0, 1, 2} {
		require.True(t, q.Push(Command{Slot: s}))
	}
	assert.False(t, q.Push(Command{Slot: 99}), "full queue rejects")

	got := q.Drain()
	require.Len(t, got, 3)
	for i, c := range got {
		assert.Equal(t, i, c.Slot)
	}
	assert.Zero(t, q.Len())
	assert.Nil(t, q.Drain())

	require.True(t, q.Push(Command{Slot: 3}))
	require.True(t, q.Push(Command{Slot: 4}))
	got = q.Drain()
	require.Len(t, got, 2)
	assert.Equal(t, 3, got[0].Slot)
	assert.Equal(t, 4, got[1].Slot)
}

func TestCommandQueueMinimumCapacity(t *testing.T) {
	q := NewCommandQueue(0)
	assert.Equal(t, 1, q.Capacity())
	assert.True(t, q.Push(Command{}))
	assert.False(t, q.Push(Command{}))
}

func TestCommandQueueConcurrentProducers(t *testing.T) {
	q := NewCommandQueue(1000)
	var wg sync.WaitGroup
	for p := 0; p < 10; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				q.Push(Command{Kind: CmdReady})
			}
		}()
	}
	wg.Wait()
	assert.Len(t, q.Drain(), 1000)
}
