// Copyright (c) 2026 Tapscan Team
// Tapscan - secure element scan orchestration
// This source code is licensed under the MIT license found in the LICENSE file.

package prompt

import (
	"fmt"
	"os"
	"testing"
)

// openDevNull returns a file that is never a terminal.
func openDevNull(t *testing.T) (*os.File, error) {
	t.Helper()
	f, err := os.Open(os.DevNull)
	if err != nil {
		return nil, err
	}
	t.Cleanup(func() { _ = f.Close() })
	return f, nil
}

func typeName(v any) string { return fmt.Sprintf("%T", v) }
