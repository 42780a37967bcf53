package connector

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Relay_DrainAll(t *testing.T) {
	assert := assert.New(t)

	r := NewRelay[int](0)
	assert.Nil(r.DrainAll())

	for val := range 10 {
		assert.NoError(r.Write(val))
	}
	assert.Equal(10, r.Len())

	items := r.DrainAll()
	assert.Equal([]int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, items)
	assert.Equal(0, r.Len())

	// Nothing is delivered twice
	assert.Nil(r.DrainAll())
	assert.Equal(int64(10), r.Written())
	assert.Equal(int64(0), r.Dropped())
}

func Test_Relay_Unbounded(t *testing.T) {
	assert := assert.New(t)

	r := NewRelay[int](0)
	for val := range 100_000 {
		assert.NoError(r.Write(val))
	}

	assert.Equal(100_000, r.Len())
	assert.Equal(int64(0), r.Dropped())
}

func Test_Relay_DropOldest(t *testing.T) {
	assert := assert.New(t)

	r := NewRelay[int](3)
	for val := range 5 {
		assert.NoError(r.Write(val))
	}

	assert.Equal(int64(2), r.Dropped())
	assert.Equal([]int{2, 3, 4}, r.DrainAll())
}

func Test_Relay_Close(t *testing.T) {
	assert := assert.New(t)

	r := NewRelay[int](0)
	assert.NoError(r.Write(1))

	r.Close()
	assert.ErrorIs(r.Write(2), ErrClosed)
	assert.Equal([]int{1}, r.DrainAll())
}

func Test_Relay_ConcurrentProducers(t *testing.T) {
	assert := assert.New(t)

	const producers = 8
	const perProducer = 10_000

	r := NewRelay[int](0)

	wg := sync.WaitGroup{}
	wg.Add(producers)

	for p := range producers {
		go func() {
			defer wg.Done()

			base := p * perProducer
			for i := range perProducer {
				_ = r.Write(base + i)
			}
		}()
	}

	drained := []int{}
	done := make(chan struct{})

	go func() {
		wg.Wait()
		close(done)
	}()

loop:
	for {
		select {
		case <-done:
			drained = append(drained, r.DrainAll()...)
			break loop
		default:
			drained = append(drained, r.DrainAll()...)
		}
	}

	assert.Len(drained, producers*perProducer)

	// Each producer's items keep their relative order
	last := make([]int, producers)
	for idx := range last {
		last[idx] = -1
	}
	for _, item := range drained {
		p := item / perProducer
		assert.Greater(item, last[p])
		last[p] = item
	}
}

func Benchmark_Relay_Write(b *testing.B) {
	b.ReportAllocs()

	r := NewRelay[int](1 << 16)

	for b.Loop() {
		_ = r.Write(1)
	}
}
