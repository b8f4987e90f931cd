// Copyright (c) 2026 Tapscan Team
// Tapscan - secure element scan orchestration
// This source code is licensed under the MIT license found in the LICENSE file.

// Package db is the bookkeeping store of tapscan. It keeps the token list
// that drives key derivation, the activation journal consulted when choosing
// the backup linking path, and a history of completed scans.
//
// The store is implemented once on top of Bun and runs against SQLite,
// PostgreSQL or MySQL. Schema changes are plain SQL files embedded per engine
// under migrations/ and applied by RunMigrations when a store is opened.
//
// Testing notes
//   - Use a named shared-cache in-memory database such as
//     "file:<test name>?mode=memory&cache=shared" so every pooled connection
//     sees the same schema.
package db
