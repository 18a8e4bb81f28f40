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

package timestamp

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/B1NARY-GR0UP/oracle/ceilingstore"
)

// S1: basic monotonic timestamps from a fresh store.
func TestNextBasicMonotonic(t *testing.T) {
	store := &ceilingstore.MemStore{}
	o, err := Open(store, DefaultConfig)
	require.NoError(t, err)

	assert.Equal(t, uint64(1), o.Next())
	assert.Equal(t, uint64(2), o.Next())
	assert.Equal(t, uint64(3), o.Next())
	assert.Equal(t, uint64(3), o.Last())
}

// S6: BATCH=4, request 10 timestamps; ceiling persisted at least twice,
// all timestamps strictly increasing.
func TestBatchCrossing(t *testing.T) {
	store := &ceilingstore.MemStore{}
	o, err := Open(store, Config{Batch: 4, Threshold: 1})
	require.NoError(t, err)

	var prev uint64
	persists := 0
	lastCeiling := uint64(0)
	for i := 0; i < 10; i++ {
		ts := o.Next()
		assert.Greater(t, ts, prev)
		prev = ts

		ceiling, err := store.ReadCeiling()
		require.NoError(t, err)
		if ceiling != lastCeiling {
			persists++
			lastCeiling = ceiling
		}
	}
	assert.GreaterOrEqual(t, persists, 2)
}

func TestStrictMonotonicityAcrossManyCalls(t *testing.T) {
	store := &ceilingstore.MemStore{}
	o, err := Open(store, Config{Batch: 16, Threshold: 2})
	require.NoError(t, err)

	var prev uint64
	for i := 0; i < 10_000; i++ {
		ts := o.Next()
		assert.Greater(t, ts, prev)
		prev = ts
	}
}

func TestRecoveryPreservesMonotonicityAcrossRestart(t *testing.T) {
	store := &ceilingstore.MemStore{}
	o1, err := Open(store, Config{Batch: 8, Threshold: 2})
	require.NoError(t, err)

	var last uint64
	for i := 0; i < 3; i++ {
		last = o1.Next()
	}

	// simulate a crash: build a fresh oracle against the same durable
	// ceiling, discarding o1's in-memory cur.
	o2, err := Open(store, Config{Batch: 8, Threshold: 2})
	require.NoError(t, err)

	next := o2.Next()
	assert.Greater(t, next, last)
}

func TestPersistenceFailurePanics(t *testing.T) {
	store := &ceilingstore.MemStore{}
	o, err := Open(store, Config{Batch: 2, Threshold: 1})
	require.NoError(t, err)

	store.FailNext = ceilingstore.ErrCASConflict
	assert.Panics(t, func() { o.Next() })
}

func TestConcurrentNextNeverRepeats(t *testing.T) {
	store := &ceilingstore.MemStore{}
	o, err := Open(store, Config{Batch: 64, Threshold: 8})
	require.NoError(t, err)

	const goroutines = 8
	const perGoroutine = 200

	seen := make(chan uint64, goroutines*perGoroutine)
	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perGoroutine; i++ {
				seen <- o.Next()
			}
		}()
	}
	wg.Wait()
	close(seen)

	unique := make(map[uint64]struct{}, goroutines*perGoroutine)
	for ts := range seen {
		_, dup := unique[ts]
		assert.False(t, dup, "duplicate timestamp %d", ts)
		unique[ts] = struct{}{}
	}
	assert.Len(t, unique, goroutines*perGoroutine)
}
