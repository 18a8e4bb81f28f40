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

// Package commitlog implements the durable, append-only log the
// persistence processor writes commit/abort decisions and low-watermark
// advances to before replies are released to clients. Records are
// length-prefixed and tagged with a kind byte; replay on startup
// recovers the highest durable low-watermark.
package commitlog

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/B1NARY-GR0UP/originium/utils"

	"github.com/B1NARY-GR0UP/oracle/pkg/bufferpool"
)

// Kind tags a record. Values are fixed by the wire contract; they must
// never be renumbered.
type Kind uint8

const (
	KindTimestamp    Kind = 1
	KindCommit       Kind = 2
	KindAbort        Kind = 3
	KindLowWatermark Kind = 4
)

// Record is a single durable decision. Only the fields relevant to Kind
// are encoded; the rest are ignored.
type Record struct {
	Kind Kind

	Ts       uint64 // KindTimestamp
	StartTs  uint64 // KindCommit, KindAbort
	CommitTs uint64 // KindCommit
	IsRetry  bool   // KindAbort
	LW       uint64 // KindLowWatermark
}

const _fileName = "commit.log"

// Log is the append-only, length-prefixed byte stream backing durable
// decisions. A Log is not safe for concurrent Append/Sync calls from
// more than one goroutine; the persistence processor is its only
// writer.
type Log struct {
	mu   sync.Mutex
	fd   *os.File
	path string
}

// Create opens (or creates) the commit log file under dir.
func Create(dir string) (*Log, error) {
	path := filepath.Join(dir, _fileName)
	fd, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}
	return &Log{fd: fd, path: path}, nil
}

// Path returns the log file's location on disk.
func (l *Log) Path() string {
	return l.path
}

// Append writes records to the log's in-process buffer and flushes them
// to the underlying file. It does not durably fsync; callers MUST call
// Sync to establish a durability barrier before releasing replies.
func (l *Log) Append(records ...Record) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	buf := bufferpool.Pool.Get()
	defer bufferpool.Pool.Put(buf)

	for _, r := range records {
		payload := bufferpool.Pool.Get()
		if err := encode(r, payload); err != nil {
			bufferpool.Pool.Put(payload)
			return err
		}
		if err := binary.Write(buf, binary.LittleEndian, uint32(payload.Len())); err != nil {
			bufferpool.Pool.Put(payload)
			return err
		}
		buf.Write(payload.Bytes())
		bufferpool.Pool.Put(payload)
	}

	_, err := l.fd.Write(buf.Bytes())
	return err
}

// Sync issues the durability barrier (fsync). Replies MUST NOT be
// released to clients until Sync returns nil.
func (l *Log) Sync() error {
	return l.fd.Sync()
}

// Close closes the underlying file.
func (l *Log) Close() error {
	return l.fd.Close()
}

// Replay scans the log from the beginning and returns the highest
// LowWatermark record observed, which becomes the Request Processor's
// initial LW on recovery. The file's write position is restored to the
// end afterward so Append can continue.
func (l *Log) Replay() (highestLW uint64, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, err = l.fd.Seek(0, io.SeekStart); err != nil {
		return 0, err
	}

	er := utils.NewErrorReader(l.fd)
	for {
		var length uint32
		er.Read(binary.LittleEndian, &length)
		if er.Error() != nil {
			break
		}
		payload := make([]byte, length)
		if _, readErr := io.ReadFull(l.fd, payload); readErr != nil {
			break
		}
		rec, decodeErr := decode(payload)
		if decodeErr != nil {
			break
		}
		if rec.Kind == KindLowWatermark && rec.LW > highestLW {
			highestLW = rec.LW
		}
	}

	if _, seekErr := l.fd.Seek(0, io.SeekEnd); seekErr != nil {
		return highestLW, seekErr
	}
	return highestLW, nil
}

func encode(r Record, buf *bytes.Buffer) error {
	w := utils.NewErrorWriter(buf)
	w.Write(binary.LittleEndian, uint8(r.Kind))
	switch r.Kind {
	case KindTimestamp:
		w.Write(binary.LittleEndian, r.Ts)
	case KindCommit:
		w.Write(binary.LittleEndian, r.StartTs)
		w.Write(binary.LittleEndian, r.CommitTs)
	case KindAbort:
		w.Write(binary.LittleEndian, r.StartTs)
		retry := uint8(0)
		if r.IsRetry {
			retry = 1
		}
		w.Write(binary.LittleEndian, retry)
	case KindLowWatermark:
		w.Write(binary.LittleEndian, r.LW)
	default:
		return fmt.Errorf("commitlog: unknown record kind %d", r.Kind)
	}
	return w.Error()
}

func decode(data []byte) (Record, error) {
	er := utils.NewErrorReader(bytes.NewReader(data))

	var kindByte uint8
	er.Read(binary.LittleEndian, &kindByte)
	rec := Record{Kind: Kind(kindByte)}

	switch rec.Kind {
	case KindTimestamp:
		er.Read(binary.LittleEndian, &rec.Ts)
	case KindCommit:
		er.Read(binary.LittleEndian, &rec.StartTs)
		er.Read(binary.LittleEndian, &rec.CommitTs)
	case KindAbort:
		er.Read(binary.LittleEndian, &rec.StartTs)
		var retry uint8
		er.Read(binary.LittleEndian, &retry)
		rec.IsRetry = retry == 1
	case KindLowWatermark:
		er.Read(binary.LittleEndian, &rec.LW)
	default:
		return rec, fmt.Errorf("commitlog: unknown record kind %d", rec.Kind)
	}
	return rec, er.Error()
}
