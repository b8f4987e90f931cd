// Copyright (c) 2026 Tapscan Team
// Tapscan - secure element scan orchestration
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

var testStoreSeq atomic.Int64

// newTestStore opens a migrated in-memory SQLite store. Every call gets its
// own database, also within one test. Its clock starts at a fixed instant
// and advances one second per call.
func newTestStore(t *testing.T) *BunStore {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	s, err := Open("sqlite", fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, testStoreSeq.Add(1)))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	s.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}
