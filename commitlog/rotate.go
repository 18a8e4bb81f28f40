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
	"fmt"
	"os"
	"path/filepath"

	"github.com/B1NARY-GR0UP/oracle/pkg/utils"
)

// Rotate closes the current log file, compresses it with s2 to
// segmentName in dir, and replaces the active log with a fresh empty
// one. The LW recovered by Replay already lives in the caller's request
// processor state by the time Rotate is called, so the compressed
// segment is retained purely as an audit trail, never replayed back in.
func Rotate(l *Log, dir, segmentName string) (*Log, error) {
	oldPath := l.Path()
	if err := l.Close(); err != nil {
		return nil, err
	}

	src, err := os.Open(oldPath)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	segPath := filepath.Join(dir, segmentName)
	dst, err := os.OpenFile(segPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, err
	}
	defer dst.Close()

	if err := utils.Compress(src, dst); err != nil {
		return nil, fmt.Errorf("commitlog: rotate compress failed: %w", err)
	}

	if err := os.Remove(oldPath); err != nil {
		return nil, err
	}

	return Create(dir)
}
