// Package ledger records fit runs in a SQLite database.
//
// The database uses the pure Go modernc.org/sqlite driver and is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode
//   - 5-second busy timeout for lock contention
//   - Foreign key enforcement
//
// Each run stores its settings and timing in the runs table and one row per
// summarized column (parameters and lp__) in run_params. Non-finite
// statistics, such as an undefined R-hat, are stored as NULL and read back
// as NaN.
package ledger
