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

package conflictmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetMiss(t *testing.T) {
	m := New(4)
	_, ok := m.Get(0x1)
	assert.False(t, ok)
}

func TestPutAndGet(t *testing.T) {
	m := New(4)
	_, _, evicted := m.Put(0xA, 10)
	assert.False(t, evicted)

	ts, ok := m.Get(0xA)
	assert.True(t, ok)
	assert.Equal(t, uint64(10), ts)
}

func TestEvictionOnCollision(t *testing.T) {
	m := New(2)

	_, _, evicted := m.Put(0x1, 10) // slot 1
	assert.False(t, evicted)

	_, _, evicted = m.Put(0x2, 11) // slot 0
	assert.False(t, evicted)

	// 0x3 % 2 == 1, collides with 0x1's slot
	row, ts, evicted := m.Put(0x3, 12)
	assert.True(t, evicted)
	assert.Equal(t, uint64(0x1), row)
	assert.Equal(t, uint64(10), ts)

	_, ok := m.Get(0x1)
	assert.False(t, ok)

	ts, ok = m.Get(0x3)
	assert.True(t, ok)
	assert.Equal(t, uint64(12), ts)
}

func TestCapReportsConfiguredSize(t *testing.T) {
	m := New(1_000_000)
	assert.Equal(t, 1_000_000, m.Cap())
}

func TestNewPanicsOnNonPositiveCapacity(t *testing.T) {
	assert.Panics(t, func() { New(0) })
	assert.Panics(t, func() { New(-1) })
}
