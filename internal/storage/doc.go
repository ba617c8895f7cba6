// Package storage provides the BBolt database for xmrkeys recovery sessions.
//
// Database structure uses two buckets:
//   - config: schema version and creation timestamp
//   - sessions: one JSON record per wallet, keyed by the SHA-256 fingerprint
//     of the wallet file
//
// A session records how many leading candidates of a candidate list have been
// tried, so an interrupted recover run can resume. Sessions never contain
// passwords or key material; a successful run stores only the matching line
// number.
//
// BBolt provides ACID transactions, file locking, and corruption detection.
package storage
