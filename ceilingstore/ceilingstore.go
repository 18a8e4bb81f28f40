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

// Package ceilingstore defines the durable backend the timestamp oracle
// persists its batch ceiling to, plus two concrete implementations: a
// coordination-service (etcd) backend and a column-store backend.
package ceilingstore

import "errors"

// ErrCASConflict is returned by CASCeiling when old no longer matches
// the stored value: another leader has since moved the ceiling.
var ErrCASConflict = errors.New("ceilingstore: compare-and-swap conflict")

// CeilingStore is the narrow interface the timestamp oracle persists
// its allocation ceiling through. Implementations must make CASCeiling
// atomic: a concurrent writer racing on the same key must see exactly
// one of the two writes win.
type CeilingStore interface {
	// ReadCeiling returns the currently persisted ceiling, or 0 if none
	// has ever been written (a fresh cluster).
	ReadCeiling() (uint64, error)

	// CASCeiling writes new in place of old. It returns ErrCASConflict
	// if the stored value no longer equals old.
	CASCeiling(old, new uint64) error
}
