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

// Package timestamp implements the strictly monotonic 64-bit timestamp
// oracle: an in-memory counter backed by a durably persisted ceiling,
// allocated ahead of exhaustion in large batches so that the common
// path never blocks on I/O.
package timestamp

import (
	"sync"

	"github.com/B1NARY-GR0UP/oracle/ceilingstore"
	"github.com/B1NARY-GR0UP/oracle/metrics"
	"github.com/B1NARY-GR0UP/oracle/pkg/logger"
)

// Oracle hands out a lazy, infinite, strictly increasing sequence of
// timestamps, recoverable across process restart. next() is intended to
// be called exclusively from the request processor's single goroutine;
// the mutex exists to make that exclusivity safe to assert rather than
// to arbitrate real contention.
type Oracle struct {
	mu sync.Mutex

	cur     uint64
	ceiling uint64
	last    uint64 // most recent value returned by Next; 0 until the first call

	cfg   Config
	store ceilingstore.CeilingStore
	log   logger.Logger
}

// Open reads the persisted ceiling from store and constructs an Oracle
// ready to serve Next/Last. A fresh store (ReadCeiling returning 0)
// yields cur = ceiling = 0, so the first Next() call bumps the ceiling
// immediately and returns 1 (the first-timestamp convention).
func Open(store ceilingstore.CeilingStore, cfg Config) (*Oracle, error) {
	cfg.validate()

	ceiling, err := store.ReadCeiling()
	if err != nil {
		return nil, err
	}

	return &Oracle{
		cur:     ceiling,
		ceiling: ceiling,
		cfg:     cfg,
		store:   store,
		log:     logger.GetLogger(),
	}, nil
}

// Next returns a value strictly greater than every previously returned
// value across all epochs on this cluster. It may briefly block when
// crossing a batch boundary to persist a new ceiling; a persistence
// failure is fatal (§7: PANIC), since an oracle that cannot durably
// advance its ceiling can no longer guarantee monotonicity across a
// crash.
func (o *Oracle) Next() uint64 {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.cur+o.cfg.Threshold >= o.ceiling {
		newCeiling := o.cur + o.cfg.Batch
		if err := o.store.CASCeiling(o.ceiling, newCeiling); err != nil {
			o.log.Panicf("timestamp: failed to persist ceiling %d -> %d: %v", o.ceiling, newCeiling, err)
		}
		o.ceiling = newCeiling
		metrics.OracleBatchPersists.Inc()
	}

	o.cur++
	o.last = o.cur
	return o.cur
}

// Last returns the most recently returned timestamp, or 0 if Next has
// never been called.
func (o *Oracle) Last() uint64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.last
}
