// Copyright 2025 BINARY Members
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package ringbuf implements a bounded, power-of-two sized,
// multi-producer/single-consumer ring of preallocated event slots.
// Producers claim a monotonically increasing sequence number, mutate
// the slot in place, and publish; the single consumer observes
// published sequences strictly in order. No slot is ever heap-allocated
// on the hot path after construction.
package ringbuf

import (
	"runtime"
	"sync/atomic"
)

// WaitStrategy governs how a caller waits for a condition to become
// true: a producer waiting for room, or the consumer waiting for the
// next sequence to be published. The default is BusySpin, which
// prioritises latency over CPU as specified.
type WaitStrategy interface {
	Wait(ready func() bool)
}

// BusySpin never yields the processor; lowest latency, highest CPU use.
type BusySpin struct{}

func (BusySpin) Wait(ready func() bool) {
	for !ready() {
	}
}

// Yielding calls runtime.Gosched between checks, trading a little
// latency for much lower CPU burn under contention.
type Yielding struct{}

func (Yielding) Wait(ready func() bool) {
	for !ready() {
		runtime.Gosched()
	}
}

// Ring is a bounded MPSC ring buffer of slot type T.
type Ring[T any] struct {
	slots     []T
	available []atomic.Int64 // available[i&mask] == seq once seq is published
	capacity  int64
	mask      int64

	cursor      atomic.Int64 // highest sequence claimed so far (starts at -1)
	consumerSeq atomic.Int64 // highest sequence released by the consumer (starts at -1)

	wait WaitStrategy
}

// New builds a Ring with the given power-of-two capacity (recommended
// >= 4096) and wait strategy. Passing a nil strategy selects BusySpin.
func New[T any](capacity int, wait WaitStrategy) *Ring[T] {
	if capacity <= 0 || capacity&(capacity-1) != 0 {
		panic("ringbuf: capacity must be a power of two")
	}
	if wait == nil {
		wait = BusySpin{}
	}
	r := &Ring[T]{
		slots:     make([]T, capacity),
		available: make([]atomic.Int64, capacity),
		capacity:  int64(capacity),
		mask:      int64(capacity - 1),
		wait:      wait,
	}
	for i := range r.available {
		r.available[i].Store(-1)
	}
	r.cursor.Store(-1)
	r.consumerSeq.Store(-1)
	return r
}

// Capacity returns the fixed slot count.
func (r *Ring[T]) Capacity() int {
	return int(r.capacity)
}

// Cursor returns the highest sequence number claimed by any producer so
// far, or -1 if none has claimed yet. It is a snapshot useful for
// reasoning about "durable up to the current tail" watermarks; it is
// not itself a synchronization point.
func (r *Ring[T]) Cursor() int64 {
	return r.cursor.Load()
}

// Claim reserves the next sequence number for the calling producer and
// returns it along with a pointer to the slot to mutate in place.
// Claim busy-spins (per the configured wait strategy) while the ring is
// full, i.e. while the slot being reclaimed has not yet been released
// by the consumer. Claim never drops a request.
func (r *Ring[T]) Claim() (seq int64, slot *T) {
	seq = r.cursor.Add(1)
	floor := seq - r.capacity
	r.wait.Wait(func() bool {
		return r.consumerSeq.Load() >= floor
	})
	return seq, &r.slots[seq&r.mask]
}

// Publish makes seq visible to the consumer. Must be called exactly
// once per sequence returned by Claim, after the slot has been fully
// mutated.
func (r *Ring[T]) Publish(seq int64) {
	r.available[seq&r.mask].Store(seq)
}

// Next blocks (per the wait strategy) until seq has been published and
// returns a pointer to its slot. Only the single consumer goroutine may
// call Next/Release.
func (r *Ring[T]) Next(seq int64) *T {
	r.wait.Wait(func() bool {
		return r.available[seq&r.mask].Load() == seq
	})
	return &r.slots[seq&r.mask]
}

// Release marks seq fully processed, allowing producers to reclaim its
// slot for sequence seq+capacity.
func (r *Ring[T]) Release(seq int64) {
	r.consumerSeq.Store(seq)
}

// Poll is a non-blocking variant of Next: it reports whether seq has
// been published yet instead of spinning. Consumers that need to
// interleave waiting with a shutdown check use Poll in a loop instead
// of calling Next directly.
func (r *Ring[T]) Poll(seq int64) (slot *T, ready bool) {
	if r.available[seq&r.mask].Load() == seq {
		return &r.slots[seq&r.mask], true
	}
	return nil, false
}
