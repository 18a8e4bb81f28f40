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

import "sync"

var _ CeilingStore = (*MemStore)(nil)

// MemStore is an in-process CeilingStore backed by a plain variable,
// guarded by a mutex for CAS semantics. It has no durability of its
// own: it exists so the timestamp oracle can be exercised in tests
// without a coordination service or the embedded
// column store, and so crash-recovery tests can simulate "restart" by
// constructing a fresh oracle against the same MemStore value.
type MemStore struct {
	mu      sync.Mutex
	ceiling uint64

	// FailNext, if set, makes the next CASCeiling call return this
	// error instead of applying the write, to exercise the oracle's
	// panic-on-persistence-failure path.
	FailNext error
}

func (s *MemStore) ReadCeiling() (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ceiling, nil
}

func (s *MemStore) CASCeiling(old, new uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailNext != nil {
		err := s.FailNext
		s.FailNext = nil
		return err
	}
	if s.ceiling != old {
		return ErrCASConflict
	}
	s.ceiling = new
	return nil
}
