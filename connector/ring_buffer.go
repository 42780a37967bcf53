package connector

import (
	"runtime"
	"sync"
	"sync/atomic"

	"golang.org/x/sys/cpu"
)

var _ Connector[int] = (*RingBuffer[int])(nil)

type slot[T any] struct {
	dataReady atomic.Bool
	data      T
}

// RingBuffer is a bounded lock-free MPMC queue.
// Blocking reads and writes park on condition variables when the buffer
// is empty or full.
type RingBuffer[T any] struct {
	// headTail packs head in the top 32 bits and tail in the bottom 32 bits,
	// so both can be loaded with a single atomic operation.
	headTail atomic.Uint64

	_ cpu.CacheLinePad

	closed atomic.Bool

	_ cpu.CacheLinePad

	isFull atomic.Bool

	_ cpu.CacheLinePad

	isEmpty atomic.Bool

	_ cpu.CacheLinePad

	capacity uint32
	capMask  uint32

	notEmpty *sync.Cond
	notFull  *sync.Cond
	mux      *sync.Mutex

	buffer []slot[T]
}

// NewRingBuffer returns a [RingBuffer] whose capacity is
// capacity rounded up to the next power of 2.
func NewRingBuffer[T any](capacity uint32) *RingBuffer[T] {
	if capacity == 0 {
		capacity = 1
	}

	capacity--
	capacity |= capacity >> 1
	capacity |= capacity >> 2
	capacity |= capacity >> 4
	capacity |= capacity >> 8
	capacity |= capacity >> 16
	capacity++

	mux := &sync.Mutex{}

	return &RingBuffer[T]{
		capacity: capacity,
		capMask:  capacity - 1,

		buffer: make([]slot[T], capacity),

		mux:      mux,
		notEmpty: sync.NewCond(mux),
		notFull:  sync.NewCond(mux),
	}
}

func (rb *RingBuffer[T]) pack(head, tail uint32) uint64 {
	const mask = 1<<32 - 1
	return uint64(head)<<32 | uint64(tail&mask)
}

func (rb *RingBuffer[T]) unpack(headTail uint64) (head, tail uint32) {
	const mask = 1<<32 - 1
	head = uint32((headTail >> 32) & mask)
	tail = uint32(headTail & mask)
	return
}

func (rb *RingBuffer[T]) push(item T) bool {
	for {
		headTail := rb.headTail.Load()
		head, tail := rb.unpack(headTail)

		if head-tail >= rb.capacity {
			return false
		}

		slot := &rb.buffer[head&rb.capMask]

		// The slot still holds an item that a reader has not finished with
		if slot.dataReady.Load() {
			runtime.Gosched()
			continue
		}

		if !rb.headTail.CompareAndSwap(headTail, rb.pack(head+1, tail)) {
			runtime.Gosched()
			continue
		}

		slot.data = item
		slot.dataReady.Store(true)

		return true
	}
}

func (rb *RingBuffer[T]) pop() (T, bool) {
	for {
		headTail := rb.headTail.Load()
		head, tail := rb.unpack(headTail)

		if head == tail {
			return *new(T), false
		}

		slot := &rb.buffer[tail&rb.capMask]

		// The writer claimed the slot but has not stored the item yet
		if !slot.dataReady.Load() {
			runtime.Gosched()
			continue
		}

		if !rb.headTail.CompareAndSwap(headTail, rb.pack(head, tail+1)) {
			runtime.Gosched()
			continue
		}

		item := slot.data

		var zero T
		slot.data = zero
		slot.dataReady.Store(false)

		return item, true
	}
}

func (rb *RingBuffer[T]) signalNotEmpty() {
	if !rb.isEmpty.Load() {
		return
	}

	rb.mux.Lock()
	rb.notEmpty.Broadcast()
	rb.isEmpty.Store(false)
	rb.mux.Unlock()
}

func (rb *RingBuffer[T]) signalNotFull() {
	if !rb.isFull.Load() {
		return
	}

	rb.mux.Lock()
	rb.notFull.Broadcast()
	rb.isFull.Store(false)
	rb.mux.Unlock()
}

// Write adds an item to the [RingBuffer], blocking while the buffer is full.
//
// Returns [ErrClosed] if the [RingBuffer] is closed.
func (rb *RingBuffer[T]) Write(item T) error {
	if rb.closed.Load() {
		return ErrClosed
	}

	for !rb.push(item) {
		runtime.Gosched()

		if rb.push(item) {
			break
		}

		rb.mux.Lock()
		rb.isFull.Store(true)

		if rb.closed.Load() {
			rb.mux.Unlock()
			return ErrClosed
		}

		// A reader may have freed a slot before isFull was visible
		if rb.push(item) {
			rb.mux.Unlock()
			break
		}

		rb.notFull.Wait()
		rb.mux.Unlock()
	}

	rb.signalNotEmpty()

	return nil
}

// TryWrite adds an item to the [RingBuffer] without blocking.
//
// Returns [ErrFull] if there is no free slot and [ErrClosed] if the [RingBuffer] is closed.
func (rb *RingBuffer[T]) TryWrite(item T) error {
	if rb.closed.Load() {
		return ErrClosed
	}

	if !rb.push(item) {
		return ErrFull
	}

	rb.signalNotEmpty()

	return nil
}

// Read retrieves an item from the [RingBuffer], blocking while the buffer is empty.
// Items written before Close are still returned; once the buffer is closed
// and empty, Read returns [ErrClosed].
func (rb *RingBuffer[T]) Read() (T, error) {
	for {
		item, ok := rb.pop()
		if ok {
			rb.signalNotFull()
			return item, nil
		}

		runtime.Gosched()

		item, ok = rb.pop()
		if ok {
			rb.signalNotFull()
			return item, nil
		}

		rb.mux.Lock()
		rb.isEmpty.Store(true)

		if rb.closed.Load() {
			rb.mux.Unlock()

			// A writer may have slipped in before the close
			if item, ok := rb.pop(); ok {
				return item, nil
			}

			return item, ErrClosed
		}

		// A writer may have pushed before isEmpty was visible
		if item, ok := rb.pop(); ok {
			rb.mux.Unlock()
			rb.signalNotFull()
			return item, nil
		}

		rb.notEmpty.Wait()
		rb.mux.Unlock()
	}
}

// Len returns the number of items in the [RingBuffer].
func (rb *RingBuffer[T]) Len() uint32 {
	head, tail := rb.unpack(rb.headTail.Load())
	return head - tail
}

// Cap returns the capacity of the [RingBuffer].
func (rb *RingBuffer[T]) Cap() uint32 {
	return rb.capacity
}

// Close marks the [RingBuffer] as closed and wakes every parked goroutine.
func (rb *RingBuffer[T]) Close() {
	if !rb.closed.CompareAndSwap(false, true) {
		return
	}

	rb.mux.Lock()
	rb.notEmpty.Broadcast()
	rb.notFull.Broadcast()
	rb.mux.Unlock()
}
