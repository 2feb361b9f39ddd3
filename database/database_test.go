package database

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"
	"time"
)

func newTestDb(t *testing.T) *Database {
	t.Helper()
	db, err := New(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(db.Close)
	return db
}

func TestLogEntryRoundTrip(t *testing.T) {
	db := newTestDb(t)
	ctx := context.Background()

	err := db.SaveLogEntry(ctx, LogEntryRow{
		Timestamp: time.Date(2024, 1, 15, 13, 0, 0, 0, time.UTC),
		Level:     int(slog.LevelWarn),
		Message:   "retrying fetch",
		Attrs:     `[{"date":"2024-01-16"}]`,
	})
	if err != nil {
		t.Fatalf("SaveLogEntry() error: %v", err)
	}

	entries, err := db.GetLogEntries(ctx, slog.LevelDebug, 1, 10)
	if err != nil {
		t.Fatalf("GetLogEntries() error: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].Message != "retrying fetch" || entries[0].Level != int(slog.LevelWarn) {
		t.Errorf("unexpected entry: %+v", entries[0])
	}
}

func TestPurgeLogKeepsNewest(t *testing.T) {
	db := newTestDb(t)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		if err := db.SaveLogEntry(ctx, LogEntryRow{
			Timestamp: time.Now(),
			Level:     int(slog.LevelInfo),
			Message:   "entry",
		}); err != nil {
			t.Fatalf("SaveLogEntry() error: %v", err)
		}
	}

	if err := db.PurgeLog(ctx, 3); err != nil {
		t.Fatalf("PurgeLog() error: %v", err)
	}

	entries, err := db.GetLogEntries(ctx, slog.LevelDebug, 1, 100)
	if err != nil {
		t.Fatalf("GetLogEntries() error: %v", err)
	}
	if len(entries) != 3 {
		t.Errorf("expected 3 entries after purge, got %d", len(entries))
	}
}

func TestAnnouncementRoundTrip(t *testing.T) {
	db := newTestDb(t)
	ctx := context.Background()

	rows := []AnnouncementRow{
		{Date: "2024-01-15", Status: AnnouncementDelivered, Attempts: 0, Rooms: 2, Timestamp: time.Now()},
		{Date: "2024-01-16", Status: AnnouncementFailed, Attempts: 24, Detail: "no data", Timestamp: time.Now()},
	}
	for _, r := range rows {
		if err := db.SaveAnnouncement(ctx, r); err != nil {
			t.Fatalf("SaveAnnouncement() error: %v", err)
		}
	}

	recent, err := db.GetRecentAnnouncements(ctx, 10)
	if err != nil {
		t.Fatalf("GetRecentAnnouncements() error: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(recent))
	}
	// Newest first
	if recent[0].Date != "2024-01-16" || recent[0].Status != AnnouncementFailed || recent[0].Attempts != 24 {
		t.Errorf("unexpected first row: %+v", recent[0])
	}
	if recent[1].Date != "2024-01-15" || recent[1].Rooms != 2 {
		t.Errorf("unexpected second row: %+v", recent[1])
	}
}

func TestPurgeAnnouncements(t *testing.T) {
	db := newTestDb(t)
	ctx := context.Background()

	old := AnnouncementRow{Date: "2020-01-01", Status: AnnouncementDelivered, Timestamp: time.Now()}
	fresh := AnnouncementRow{Date: time.Now().Format("2006-01-02"), Status: AnnouncementDelivered, Timestamp: time.Now()}
	for _, r := range []AnnouncementRow{old, fresh} {
		if err := db.SaveAnnouncement(ctx, r); err != nil {
			t.Fatalf("SaveAnnouncement() error: %v", err)
		}
	}

	if err := db.PurgeAnnouncements(ctx, 90); err != nil {
		t.Fatalf("PurgeAnnouncements() error: %v", err)
	}

	recent, err := db.GetRecentAnnouncements(ctx, 10)
	if err != nil {
		t.Fatalf("GetRecentAnnouncements() error: %v", err)
	}
	if len(recent) != 1 || recent[0].Date != fresh.Date {
		t.Errorf("expected only the fresh row to survive, got %+v", recent)
	}
}
