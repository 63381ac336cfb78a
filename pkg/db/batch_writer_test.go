package db

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestBatchWriterCommitsRunRows(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	id := createTestRun(t, db)

	bw := NewBatchWriter(db, 2, 0)
	for i := 1; i <= 3; i++ {
		i := i
		if err := bw.Submit(func(ctx context.Context, tx *sql.Tx) error {
			if err := InsertIteration(tx, id, i, 0.5); err != nil {
				return err
			}
			return InsertResults(tx, id, i, []Result{{Sentence: 1, Score: 0.5}})
		}); err != nil {
			t.Fatalf("submit failed: %v", err)
		}
	}

	doneCh := make(chan error, 1)
	go func() {
		doneCh <- bw.Close()
	}()
	select {
	case err := <-doneCh:
		if err != nil {
			t.Fatalf("close failed: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for batch commit/close")
	}

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM results WHERE run_id = ?", id).Scan(&count); err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 rows, got %d", count)
	}
}

func TestBatchWriterRollsBackFailedBatch(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	id := createTestRun(t, db)

	bw := NewBatchWriter(db, 2, 0)
	errCh := make(chan error, 1)
	bw.OnError = func(e error) {
		errCh <- e
	}

	bw.Submit(func(ctx context.Context, tx *sql.Tx) error {
		return InsertIteration(tx, id, 1, 0.5)
	})
	bw.Submit(func(ctx context.Context, tx *sql.Tx) error {
		return errors.New("intentional error")
	})

	err := bw.Close()
	if err == nil || !strings.Contains(err.Error(), "intentional") {
		t.Fatalf("expected Close to return the batch error, got %v", err)
	}
	select {
	case e := <-errCh:
		if e == nil {
			t.Fatal("expected error, got nil")
		}
	default:
		t.Fatal("expected OnError to be called")
	}

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM iterations").Scan(&count); err != nil {
		t.Fatalf("failed to query row count: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected 0 rows (rollback), got %d", count)
	}
}

func TestBatchWriterErrVisibleBeforeClose(t *testing.T) {
	bw := NewBatchWriter(nil, 1, 0)
	done := make(chan struct{})
	bw.OnError = func(error) { close(done) }

	if err := bw.Submit(func(ctx context.Context, tx *sql.Tx) error { return errors.New("boom") }); err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("batch was not committed")
	}
	if err := bw.Err(); err == nil || err.Error() != "boom" {
		t.Fatalf("expected boom from Err, got %v", err)
	}
	bw.Close()
}

func TestBatchWriterFlushesBySize(t *testing.T) {
	bw := NewBatchWriter(nil, 5, 0)
	var mu sync.Mutex
	called := 0
	for i := 0; i < 12; i++ {
		if err := bw.Submit(func(ctx context.Context, tx *sql.Tx) error {
			mu.Lock()
			called++
			mu.Unlock()
			return nil
		}); err != nil {
			t.Fatalf("submit failed: %v", err)
		}
	}
	if err := bw.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if called != 12 {
		t.Fatalf("expected 12 calls, got %d", called)
	}
}

func TestBatchWriterFlushesOnInterval(t *testing.T) {
	bw := NewBatchWriter(nil, 10, 20*time.Millisecond)
	called := make(chan struct{}, 1)
	if err := bw.Submit(func(ctx context.Context, tx *sql.Tx) error {
		called <- struct{}{}
		return nil
	}); err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	select {
	case <-called:
	case <-time.After(time.Second):
		t.Fatal("write not flushed by interval")
	}
	if err := bw.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
}

func TestBatchWriterSubmitAfterClose(t *testing.T) {
	bw := NewBatchWriter(nil, 1, 0)
	if err := bw.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if err := bw.Submit(func(ctx context.Context, tx *sql.Tx) error { return nil }); err != ErrBatchWriterClosed {
		t.Fatalf("expected ErrBatchWriterClosed, got %v", err)
	}
	if err := bw.Close(); err != ErrBatchWriterClosed {
		t.Fatalf("expected ErrBatchWriterClosed on second close, got %v", err)
	}
}

func TestBatchWriterDropsBatchAfterShutdown(t *testing.T) {
	bw := NewBatchWriter(nil, 1, 0)
	defer bw.Close()
	errCh := make(chan error, 1)
	bw.OnError = func(e error) {
		select {
		case errCh <- e:
		default:
		}
	}

	blocker := make(chan struct{})

	// the committer holds the first batch while the second fills the queue
	if err := bw.Submit(func(ctx context.Context, tx *sql.Tx) error {
		<-blocker
		return nil
	}); err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if err := bw.Submit(func(ctx context.Context, tx *sql.Tx) error { return nil }); err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if err := bw.Submit(func(ctx context.Context, tx *sql.Tx) error { return nil }); err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	bw.cancel()

	if err := bw.Submit(func(ctx context.Context, tx *sql.Tx) error { return nil }); err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	close(blocker)

	select {
	case e := <-errCh:
		if e == nil || !strings.Contains(e.Error(), "dropping batch") {
			t.Fatalf("unexpected OnError value: %v", e)
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatal("expected OnError to be called when batch dropped")
	}
}
