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

package commitlog

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/B1NARY-GR0UP/oracle/pkg/utils"
)

func TestAppendAndReplayRecoversHighestLW(t *testing.T) {
	dir := t.TempDir()
	l, err := Create(dir)
	require.NoError(t, err)

	require.NoError(t, l.Append(
		Record{Kind: KindTimestamp, Ts: 1},
		Record{Kind: KindCommit, StartTs: 1, CommitTs: 4},
		Record{Kind: KindAbort, StartTs: 3, IsRetry: true},
		Record{Kind: KindLowWatermark, LW: 10},
		Record{Kind: KindLowWatermark, LW: 25},
		Record{Kind: KindLowWatermark, LW: 18},
	))
	require.NoError(t, l.Sync())

	lw, err := l.Replay()
	require.NoError(t, err)
	assert.Equal(t, uint64(25), lw)

	// the file position must be restored so Append still works.
	require.NoError(t, l.Append(Record{Kind: KindTimestamp, Ts: 2}))
	require.NoError(t, l.Sync())
}

func TestReplaySurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	l, err := Create(dir)
	require.NoError(t, err)

	require.NoError(t, l.Append(Record{Kind: KindLowWatermark, LW: 42}))
	require.NoError(t, l.Sync())
	require.NoError(t, l.Close())

	fd, err := os.OpenFile(l.Path(), os.O_RDWR, 0644)
	require.NoError(t, err)
	reopened := &Log{fd: fd, path: l.Path()}

	lw, err := reopened.Replay()
	require.NoError(t, err)
	assert.Equal(t, uint64(42), lw)
}

func TestReplayOnEmptyLogIsZero(t *testing.T) {
	dir := t.TempDir()
	l, err := Create(dir)
	require.NoError(t, err)

	lw, err := l.Replay()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), lw)
}

func TestRotateCompressesAndResets(t *testing.T) {
	dir := t.TempDir()
	l, err := Create(dir)
	require.NoError(t, err)

	require.NoError(t, l.Append(Record{Kind: KindLowWatermark, LW: 7}))
	require.NoError(t, l.Sync())

	rotated, err := Rotate(l, dir, "segment-0001.log.s2")
	require.NoError(t, err)

	lw, err := rotated.Replay()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), lw, "a freshly rotated log starts empty")

	segPath := dir + "/segment-0001.log.s2"
	compressed, err := os.ReadFile(segPath)
	require.NoError(t, err)

	decompressed := new(bytes.Buffer)
	require.NoError(t, utils.Decompress(bytes.NewReader(compressed), decompressed))
	assert.NotEmpty(t, decompressed.Bytes())
}
