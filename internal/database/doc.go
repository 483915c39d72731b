// Package database provides the SQLite journal of sitemapgen.
//
// The Journal stores:
//   - flush runs (UUID, start and end time, output directory, failures)
//   - the files each run wrote, with entry count, size and SHA3-256 digest
//   - search engine pings and their outcome
//
// The journal is append-only and is read back by the history command.
// It uses modernc.org/sqlite, a CGO-free driver, in WAL mode.
package database
