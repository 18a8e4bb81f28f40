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

package ringbuf

import (
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPanicsOnNonPowerOfTwo(t *testing.T) {
	assert.Panics(t, func() { New[int](3, nil) })
	assert.Panics(t, func() { New[int](0, nil) })
}

func TestSingleProducerSingleConsumerInOrder(t *testing.T) {
	r := New[int](8, BusySpin{})

	const n = 100
	go func() {
		for i := 0; i < n; i++ {
			seq, slot := r.Claim()
			*slot = i
			r.Publish(seq)
		}
	}()

	for i := int64(0); i < n; i++ {
		slot := r.Next(i)
		assert.Equal(t, int(i), *slot)
		r.Release(i)
	}
}

func TestBackpressureBlocksUntilConsumerCatchesUp(t *testing.T) {
	r := New[int](4, BusySpin{})

	// fill the ring completely without consuming
	for i := 0; i < 4; i++ {
		seq, slot := r.Claim()
		*slot = i
		r.Publish(seq)
	}

	claimed := make(chan int64, 1)
	go func() {
		seq, slot := r.Claim() // should block: ring is full
		*slot = 99
		r.Publish(seq)
		claimed <- seq
	}()

	// drain one slot, which should unblock the waiting producer
	v := r.Next(0)
	assert.Equal(t, 0, *v)
	r.Release(0)

	seq := <-claimed
	assert.Equal(t, int64(4), seq)
}

func TestPollNonBlocking(t *testing.T) {
	r := New[int](8, BusySpin{})

	_, ready := r.Poll(0)
	assert.False(t, ready)

	seq, slot := r.Claim()
	*slot = 7
	r.Publish(seq)

	got, ready := r.Poll(0)
	assert.True(t, ready)
	assert.Equal(t, 7, *got)
}

func TestMultiProducerAllValuesDelivered(t *testing.T) {
	r := New[int](1024, BusySpin{})

	const producers = 8
	const perProducer = 200
	const total = producers * perProducer

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(base int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				seq, slot := r.Claim()
				*slot = base + i
				r.Publish(seq)
			}
		}(p * perProducer)
	}

	got := make([]int, 0, total)
	for i := int64(0); i < total; i++ {
		slot := r.Next(i)
		got = append(got, *slot)
		r.Release(i)
	}
	wg.Wait()

	sort.Ints(got)
	want := make([]int, total)
	for i := range want {
		want[i] = i
	}
	assert.Equal(t, want, got)
}
