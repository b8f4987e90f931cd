// Copyright (c) 2026 Tapscan Team
// Tapscan - secure element scan orchestration
// This source code is licensed under the MIT license found in the LICENSE file.

// Command-line entrypoint for tapscan.
//
// Usage:
//
//	go run . [flags]
//	./tapscan [flags]
//
// See --help for options.
package main

import (
	"os"

	"github.com/toeirei/tapscan/internal/logging"
	"github.com/toeirei/tapscan/ui/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		logging.Debugf("tapscan exited with error: %v", err)
		os.Exit(1)
	}
}
