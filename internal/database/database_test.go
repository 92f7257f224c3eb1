package database

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func setupTestDB(t *testing.T) *Database {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), FileName)
	db, err := New(context.Background(), dbPath)
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("Failed to close test database: %v", err)
		}
	})
	return db
}

func TestRecordQuery(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		operation string
		err       error
	}{
		{name: "successful query", operation: "begin_call", err: nil},
		{name: "failed query", operation: "finish_call", err: errors.New("boom")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			recordQuery(tt.operation, time.Now().Add(-time.Millisecond), tt.err)
		})
	}
}

func TestNewInvalidDirectory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "missing", "sub", FileName)
	if _, err := New(context.Background(), dbPath); err == nil {
		t.Error("Expected error for missing directory, got nil")
	}
}

func TestBeginAndFinishCall(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	started := time.Now().Add(-2 * time.Second)
	if err := db.BeginCall(ctx, "call-1", "127.0.0.1:5000", started); err != nil {
		t.Fatalf("BeginCall failed: %v", err)
	}

	calls, err := db.RecentCalls(ctx, 10)
	if err != nil {
		t.Fatalf("RecentCalls failed: %v", err)
	}
	if len(calls) != 1 {
		t.Fatalf("Expected 1 call, got %d", len(calls))
	}
	if calls[0].State != CallStateRunning {
		t.Errorf("Expected state %q, got %q", CallStateRunning, calls[0].State)
	}
	if calls[0].FinishedAt != nil {
		t.Error("Expected nil FinishedAt for running call")
	}

	err = db.FinishCall(ctx, &Call{
		ID:              "call-1",
		Extension:       "mp4",
		TargetWidth:     640,
		TargetHeight:    360,
		State:           CallStateDone,
		BytesIn:         1000,
		BytesOut:        2000,
		Width:           1920,
		Height:          1080,
		DurationSeconds: 10,
		Degraded:        true,
	})
	if err != nil {
		t.Fatalf("FinishCall failed: %v", err)
	}

	calls, err = db.RecentCalls(ctx, 10)
	if err != nil {
		t.Fatalf("RecentCalls failed: %v", err)
	}
	c := calls[0]
	if c.State != CallStateDone {
		t.Errorf("Expected state %q, got %q", CallStateDone, c.State)
	}
	if c.Peer != "127.0.0.1:5000" {
		t.Errorf("Expected peer to be kept, got %q", c.Peer)
	}
	if c.Extension != "mp4" || c.TargetWidth != 640 || c.TargetHeight != 360 {
		t.Errorf("Unexpected header fields: %+v", c)
	}
	if c.BytesIn != 1000 || c.BytesOut != 2000 {
		t.Errorf("Expected bytes 1000/2000, got %d/%d", c.BytesIn, c.BytesOut)
	}
	if c.Width != 1920 || c.Height != 1080 || c.DurationSeconds != 10 {
		t.Errorf("Unexpected metadata: %dx%d %ds", c.Width, c.Height, c.DurationSeconds)
	}
	if !c.Degraded {
		t.Error("Expected degraded to be true")
	}
	if c.FinishedAt == nil {
		t.Error("Expected FinishedAt to be set")
	}
	if c.StartedAt.UnixMilli() != started.UnixMilli() {
		t.Errorf("Expected StartedAt %v, got %v", started, c.StartedAt)
	}
}

func TestFinishUnknownCall(t *testing.T) {
	db := setupTestDB(t)

	err := db.FinishCall(context.Background(), &Call{ID: "nope", State: CallStateFailed})
	if !errors.Is(err, ErrCallNotFound) {
		t.Errorf("Expected ErrCallNotFound, got %v", err)
	}
}

func TestBeginCallDuplicateID(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	if err := db.BeginCall(ctx, "dup", "", time.Now()); err != nil {
		t.Fatalf("BeginCall failed: %v", err)
	}
	if err := db.BeginCall(ctx, "dup", "", time.Now()); err == nil {
		t.Error("Expected error for duplicate call id, got nil")
	}
}

func TestRecentCallsOrderAndLimit(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	ids := []string{"a", "b", "c", "d"}
	for i, id := range ids {
		if err := db.BeginCall(ctx, id, "", base.Add(time.Duration(i)*time.Minute)); err != nil {
			t.Fatalf("BeginCall(%s) failed: %v", id, err)
		}
	}

	tests := []struct {
		name  string
		limit int
		want  []string
	}{
		{name: "limited", limit: 2, want: []string{"d", "c"}},
		{name: "all", limit: 10, want: []string{"d", "c", "b", "a"}},
		{name: "zero means max", limit: 0, want: []string{"d", "c", "b", "a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls, err := db.RecentCalls(ctx, tt.limit)
			if err != nil {
				t.Fatalf("RecentCalls failed: %v", err)
			}
			if len(calls) != len(tt.want) {
				t.Fatalf("Expected %d calls, got %d", len(tt.want), len(calls))
			}
			for i, id := range tt.want {
				if calls[i].ID != id {
					t.Errorf("Expected calls[%d] = %q, got %q", i, id, calls[i].ID)
				}
			}
		})
	}
}

func TestStats(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	stats := db.GetStats()
	if stats.TotalCalls != 0 || stats.BytesIn != 0 {
		t.Errorf("Expected empty stats, got %+v", stats)
	}

	outcomes := []struct {
		id    string
		state CallState
		in    int64
		out   int64
	}{
		{"1", CallStateDone, 100, 300},
		{"2", CallStateDone, 50, 70},
		{"3", CallStateFailed, 10, 0},
	}
	for _, o := range outcomes {
		if err := db.BeginCall(ctx, o.id, "", time.Now()); err != nil {
			t.Fatalf("BeginCall failed: %v", err)
		}
		if err := db.FinishCall(ctx, &Call{ID: o.id, State: o.state, BytesIn: o.in, BytesOut: o.out}); err != nil {
			t.Fatalf("FinishCall failed: %v", err)
		}
	}
	if err := db.BeginCall(ctx, "4", "", time.Now()); err != nil {
		t.Fatalf("BeginCall failed: %v", err)
	}

	stats = db.GetStats()
	if stats.TotalCalls != 4 {
		t.Errorf("Expected 4 total calls, got %d", stats.TotalCalls)
	}
	if stats.DoneCalls != 2 {
		t.Errorf("Expected 2 done calls, got %d", stats.DoneCalls)
	}
	if stats.FailedCalls != 1 {
		t.Errorf("Expected 1 failed call, got %d", stats.FailedCalls)
	}
	if stats.BytesIn != 160 {
		t.Errorf("Expected 160 bytes in, got %d", stats.BytesIn)
	}
	if stats.BytesOut != 370 {
		t.Errorf("Expected 370 bytes out, got %d", stats.BytesOut)
	}
}

func TestMarkInterrupted(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	for _, id := range []string{"x", "y"} {
		if err := db.BeginCall(ctx, id, "", time.Now()); err != nil {
			t.Fatalf("BeginCall failed: %v", err)
		}
	}
	if err := db.FinishCall(ctx, &Call{ID: "y", State: CallStateDone}); err != nil {
		t.Fatalf("FinishCall failed: %v", err)
	}

	n, err := db.MarkInterrupted(ctx)
	if err != nil {
		t.Fatalf("MarkInterrupted failed: %v", err)
	}
	if n != 1 {
		t.Errorf("Expected 1 interrupted call, got %d", n)
	}

	calls, err := db.RecentCalls(ctx, 10)
	if err != nil {
		t.Fatalf("RecentCalls failed: %v", err)
	}
	for _, c := range calls {
		if c.State == CallStateRunning {
			t.Errorf("Expected no running calls, got %q", c.ID)
		}
	}
}

func TestPingAndPath(t *testing.T) {
	db := setupTestDB(t)
	if err := db.Ping(context.Background()); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
	if filepath.Base(db.Path()) != FileName {
		t.Errorf("Expected path to end with %s, got %s", FileName, db.Path())
	}
}
