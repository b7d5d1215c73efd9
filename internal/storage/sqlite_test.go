package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *SQLiteStorage {
	// Use in-memory database for testing
	storage, err := NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	require.NotNil(t, storage)
	return storage
}

func createTestRun(t *testing.T, s *SQLiteStorage, id, op string, started time.Time) *Run {
	t.Helper()
	run := &Run{
		ID:          id,
		Operation:   op,
		Provider:    "echo",
		Model:       "echo",
		InputChars:  100,
		TotalChunks: 1,
		StartedAt:   started,
	}
	require.NoError(t, s.CreateRun(context.Background(), run))
	return run
}

func TestNewSQLiteStorage(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	assert.NotNil(t, storage)
	assert.NotNil(t, storage.db)
}

func TestClose(t *testing.T) {
	storage := setupTestDB(t)
	err := storage.Close()
	assert.NoError(t, err)
}

func TestCreateRun(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	ctx := context.Background()
	run := &Run{ID: "run-1", Operation: OperationReformat, InputChars: 42}
	require.NoError(t, storage.CreateRun(ctx, run))

	assert.Equal(t, RunRunning, run.Status)
	assert.False(t, run.StartedAt.IsZero())

	// Try to create duplicate - should fail
	err := storage.CreateRun(ctx, &Run{ID: "run-1", Operation: OperationRewrite})
	assert.ErrorIs(t, err, ErrAlreadyExists)

	err = storage.CreateRun(ctx, &Run{Operation: OperationRewrite})
	assert.Error(t, err)
}

func TestGetRun(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	ctx := context.Background()
	run := &Run{
		ID:          "run-1",
		Operation:   OperationRewrite,
		Provider:    "gemini",
		Model:       "gemini-2.5-flash",
		Instruction: "make it formal",
		InputChars:  1200,
		TotalChunks: 3,
	}
	require.NoError(t, storage.CreateRun(ctx, run))

	retrieved, err := storage.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, OperationRewrite, retrieved.Operation)
	assert.Equal(t, RunRunning, retrieved.Status)
	assert.Equal(t, "gemini", retrieved.Provider)
	assert.Equal(t, "make it formal", retrieved.Instruction)
	assert.Equal(t, 1200, retrieved.InputChars)
	assert.Equal(t, 3, retrieved.TotalChunks)
	assert.Nil(t, retrieved.Error)
	assert.Nil(t, retrieved.FinishedAt)
	assert.Zero(t, retrieved.Duration())
}

func TestGetRun_NotFound(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	_, err := storage.GetRun(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFinishRun(t *testing.T) {
	started := time.Now().Add(-2 * time.Second)
	failure := "chunk 2/3: provider failed"

	tests := []struct {
		name   string
		update Run
	}{
		{
			name: "succeeded",
			update: Run{
				Status:          RunSucceeded,
				Mode:            "chunked",
				OutputChars:     1100,
				ChunksProcessed: 3,
				TotalChunks:     3,
			},
		},
		{
			name: "failed",
			update: Run{
				Status:          RunFailed,
				Mode:            "chunked",
				ChunksProcessed: 1,
				TotalChunks:     3,
				Error:           &failure,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage := setupTestDB(t)
			defer storage.Close()

			ctx := context.Background()
			run := createTestRun(t, storage, "run-1", OperationReformat, started)

			update := tt.update
			update.ID = run.ID
			require.NoError(t, storage.FinishRun(ctx, &update))
			require.NotNil(t, update.FinishedAt)

			got, err := storage.GetRun(ctx, run.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.update.Status, got.Status)
			assert.Equal(t, tt.update.Mode, got.Mode)
			assert.Equal(t, tt.update.OutputChars, got.OutputChars)
			assert.Equal(t, tt.update.ChunksProcessed, got.ChunksProcessed)
			assert.Equal(t, tt.update.Error, got.Error)
			require.NotNil(t, got.FinishedAt)
			assert.Greater(t, got.Duration(), time.Second)
		})
	}
}

func TestFinishRun_NotFound(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	err := storage.FinishRun(context.Background(), &Run{ID: "missing", Status: RunSucceeded})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListRuns(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	ctx := context.Background()
	base := time.Now().Add(-time.Hour)
	createTestRun(t, storage, "a", OperationReformat, base)
	createTestRun(t, storage, "b", OperationRewrite, base.Add(time.Minute))
	createTestRun(t, storage, "c", OperationReformat, base.Add(2*time.Minute))
	require.NoError(t, storage.FinishRun(ctx, &Run{ID: "c", Status: RunFailed}))

	tests := []struct {
		name   string
		filter RunFilter
		want   []string
	}{
		{"all newest first", RunFilter{}, []string{"c", "b", "a"}},
		{"by operation", RunFilter{Operation: OperationReformat}, []string{"c", "a"}},
		{"by status", RunFilter{Status: RunRunning}, []string{"b", "a"}},
		{"both", RunFilter{Operation: OperationReformat, Status: RunFailed}, []string{"c"}},
		{"limit", RunFilter{Limit: 2}, []string{"c", "b"}},
		{"no match", RunFilter{Status: RunSucceeded}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runs, err := storage.ListRuns(ctx, tt.filter)
			require.NoError(t, err)

			var ids []string
			for _, r := range runs {
				ids = append(ids, r.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestGetStats(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	ctx := context.Background()

	stats, err := storage.GetStats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.TotalRuns)
	assert.True(t, stats.LastRunAt.IsZero())

	base := time.Now().Add(-time.Hour)
	createTestRun(t, storage, "a", OperationReformat, base)
	createTestRun(t, storage, "b", OperationRewrite, base.Add(time.Minute))
	createTestRun(t, storage, "c", OperationReformat, base.Add(2*time.Minute))
	require.NoError(t, storage.FinishRun(ctx, &Run{ID: "a", Status: RunSucceeded, ChunksProcessed: 4, TotalChunks: 4}))
	require.NoError(t, storage.FinishRun(ctx, &Run{ID: "b", Status: RunFailed, ChunksProcessed: 1, TotalChunks: 2}))

	stats, err = storage.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalRuns)
	assert.Equal(t, 1, stats.Running)
	assert.Equal(t, 1, stats.Succeeded)
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, 5, stats.ChunksProcessed)
	assert.WithinDuration(t, base.Add(2*time.Minute), stats.LastRunAt, time.Second)
	assert.Greater(t, stats.DatabaseSizeMB, 0.0)
}

func TestMigrations_Rollback(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	ctx := context.Background()
	db := storage.db

	version, err := schemaVersion(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, CurrentSchemaVersion, version.String())

	// Re-applying is a no-op
	require.NoError(t, ApplyMigrations(ctx, db))

	require.NoError(t, RollbackMigration(ctx, db))
	version, err = schemaVersion(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", version.String())

	_, err = db.ExecContext(ctx, "SELECT instruction FROM runs")
	assert.Error(t, err)

	require.NoError(t, RollbackMigration(ctx, db))
	version, err = schemaVersion(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0", version.String())

	assert.Error(t, RollbackMigration(ctx, db))

	// Migrate forward again
	require.NoError(t, ApplyMigrations(ctx, db))
	version, err = schemaVersion(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, CurrentSchemaVersion, version.String())
}
