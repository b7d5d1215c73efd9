// Package storage provides SQLite-based persistence for processing run history.
//
// Every reformat or rewrite request is recorded as a run: it is created in
// the running state before generation starts and finished with its outcome,
// mode, and chunk counts once the processor returns.
//
// # Database Schema
//
// Tables:
//   - schema_version: Applied migrations
//   - runs: One row per request (operation, status, provider, counts, error)
//
// # Basic Usage
//
//	db, err := storage.NewSQLiteStorage("~/.docflow/runs.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	run := &storage.Run{ID: id, Operation: storage.OperationReformat, InputChars: len(doc)}
//	if err := db.CreateRun(ctx, run); err != nil {
//	    return err
//	}
//
//	// ... process ...
//
//	run.Status = storage.RunSucceeded
//	run.ChunksProcessed = result.ChunksProcessed
//	err = db.FinishRun(ctx, run)
//
// # Querying
//
//	run, err := db.GetRun(ctx, id)
//	if errors.Is(err, storage.ErrNotFound) {
//	    // unknown id
//	}
//
//	runs, err := db.ListRuns(ctx, storage.RunFilter{Status: storage.RunFailed, Limit: 10})
//
// # Build Tags
//
// The storage package supports two build configurations:
//
// CGO Build (sqlite_cgo tag):
//
//   - Uses github.com/mattn/go-sqlite3 driver
//
//   - Requires C compiler
//
//     CGO_ENABLED=1 go build -tags "sqlite_cgo"
//
// Pure Go Build (default, or purego tag):
//
//   - Uses modernc.org/sqlite driver
//
//   - No C compiler needed
//
//     CGO_ENABLED=0 go build -tags "purego"
package storage
