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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/B1NARY-GR0UP/originium"
)

func openTestDB(t *testing.T) *originium.DB {
	t.Helper()
	dir := t.TempDir()
	db, err := originium.Open(dir, originium.DefaultConfig)
	require.NoError(t, err)
	t.Cleanup(db.Close)
	return db
}

func TestColumnStoreReadCeilingFreshIsZero(t *testing.T) {
	db := openTestDB(t)
	s := NewColumnStore(db, "oracle/ceiling")

	ceiling, err := s.ReadCeiling()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), ceiling)
}

func TestColumnStoreCASCeilingRoundTrip(t *testing.T) {
	db := openTestDB(t)
	s := NewColumnStore(db, "oracle/ceiling")

	require.NoError(t, s.CASCeiling(0, 1_000_000))

	ceiling, err := s.ReadCeiling()
	require.NoError(t, err)
	assert.Equal(t, uint64(1_000_000), ceiling)

	require.NoError(t, s.CASCeiling(1_000_000, 2_000_000))
	ceiling, err = s.ReadCeiling()
	require.NoError(t, err)
	assert.Equal(t, uint64(2_000_000), ceiling)
}

func TestColumnStoreCASCeilingConflict(t *testing.T) {
	db := openTestDB(t)
	s := NewColumnStore(db, "oracle/ceiling")

	require.NoError(t, s.CASCeiling(0, 1_000_000))

	err := s.CASCeiling(0, 2_000_000)
	assert.ErrorIs(t, err, ErrCASConflict)

	ceiling, err := s.ReadCeiling()
	require.NoError(t, err)
	assert.Equal(t, uint64(1_000_000), ceiling)
}
