package postgres

import (
	"context"
	"testing"
	"time"

	"studiodesk/internal/models"
)

func TestSyncQueueLifecycle(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t, ctx)

	task := &models.SyncTask{TaskType: "upsert", BookingID: "b-1", Payload: `{"booking_id":"b-1"}`}
	if err := store.CreateSyncTask(ctx, task); err != nil {
		t.Fatalf("create: %v", err)
	}
	if task.ID == 0 || task.Status != models.SyncStatusPending {
		t.Fatalf("unexpected task after create: %+v", task)
	}

	later := time.Now().Add(time.Hour)
	if err := store.UpdateSyncTaskStatus(ctx, task.ID, models.SyncStatusRetry, "boom", &later); err != nil {
		t.Fatalf("retry: %v", err)
	}
	pending, err := store.GetPendingSyncTasks(ctx, 10)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("task scheduled later must not be pending, got %d", len(pending))
	}

	if err := store.UpdateSyncTaskStatus(ctx, task.ID, models.SyncStatusFailed, "gave up", nil); err != nil {
		t.Fatalf("fail: %v", err)
	}
	failed, err := store.GetFailedSyncTasks(ctx)
	if err != nil {
		t.Fatalf("failed: %v", err)
	}
	if len(failed) != 1 || failed[0].RetryCount != 1 || failed[0].ProcessedAt == nil {
		t.Fatalf("unexpected failed tasks: %+v", failed)
	}
	if failed[0].LastError == nil || *failed[0].LastError != "gave up" {
		t.Fatalf("unexpected last error: %v", failed[0].LastError)
	}
}
