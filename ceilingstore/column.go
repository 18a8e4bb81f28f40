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

package ceilingstore

import (
	"encoding/binary"
	"sync"

	"github.com/B1NARY-GR0UP/originium"
)

var _ CeilingStore = (*ColumnStore)(nil)

// ColumnStore persists the ceiling as a single row/cell in an embedded
// wide-column engine, imported as a library rather than vendored.
// Compare-and-swap is implemented with an in-process mutex rather than
// a server-side conditional write, because the engine exposes no
// multi-writer protocol of its own; CASCeiling is only ever called by
// the single oracle goroutine that owns this store instance, so the
// mutex exists purely to make the invariant explicit rather than to
// arbitrate real contention.
type ColumnStore struct {
	mu  sync.Mutex
	db  *originium.DB
	row string
}

// NewColumnStore wraps db, storing the ceiling under row (a single
// well-known key, e.g. "oracle/ceiling").
func NewColumnStore(db *originium.DB, row string) *ColumnStore {
	return &ColumnStore{db: db, row: row}
}

func (s *ColumnStore) ReadCeiling() (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.db.Get(s.row)
	if !ok {
		return 0, nil
	}
	if len(v) != 8 {
		return 0, ErrCASConflict
	}
	return binary.BigEndian.Uint64(v), nil
}

func (s *ColumnStore) CASCeiling(old, new uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.db.Get(s.row)
	var current uint64
	if ok {
		if len(v) != 8 {
			return ErrCASConflict
		}
		current = binary.BigEndian.Uint64(v)
	}
	if current != old {
		return ErrCASConflict
	}

	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, new)
	s.db.Set(s.row, buf)
	return nil
}
