// Copyright (c) 2026 Tapscan Team
// Tapscan - secure element scan orchestration
// This source code is licensed under the MIT license found in the LICENSE file.
//
// Package cli implements the command-line interface for tapscan using Cobra.
// It loads configuration, opens the bookkeeping store and wires the scanner
// to an emulated card session and an operator prompt. Commands stay thin and
// delegate to the internal packages.
package cli
