package database

import (
	"context"
	"fmt"
	"time"
)

// Announcement outcome states.
const (
	AnnouncementDelivered = "delivered"
	AnnouncementFailed    = "failed"
)

// AnnouncementRow is the audit record of one daily announcement cycle.
// No price points are stored, only how the cycle ended.
type AnnouncementRow struct {
	Date      string // delivery date the cycle was fetching, YYYY-MM-DD
	Status    string
	Attempts  int
	Rooms     int // number of rooms the report was delivered to
	Detail    string
	Timestamp time.Time
}

func (d *Database) SaveAnnouncement(ctx context.Context, r AnnouncementRow) error {
	_, err := d.write.ExecContext(ctx, `
		INSERT INTO announcement (date, status, attempts, rooms, detail, timestamp)
		VALUES (?, ?, ?, ?, ?, ?)`,
		r.Date,
		r.Status,
		r.Attempts,
		r.Rooms,
		r.Detail,
		r.Timestamp.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("saving announcement: %w", err)
	}
	return nil
}

func (d *Database) GetRecentAnnouncements(ctx context.Context, limit int) ([]AnnouncementRow, error) {
	if limit < 1 {
		limit = 10
	}

	rows, err := d.read.QueryContext(ctx, `
		SELECT date, status, attempts, rooms, detail, timestamp
		FROM announcement
		ORDER BY id DESC
		LIMIT ?`,
		limit)
	if err != nil {
		return nil, fmt.Errorf("fetching announcements: %w", err)
	}
	defer rows.Close()

	var entries []AnnouncementRow
	for rows.Next() {
		var r AnnouncementRow
		var ts string
		if err := rows.Scan(&r.Date, &r.Status, &r.Attempts, &r.Rooms, &r.Detail, &ts); err != nil {
			return nil, err
		}
		r.Timestamp, err = time.Parse(time.RFC3339, ts)
		if err != nil {
			return nil, fmt.Errorf("parsing timestamp: %w", err)
		}
		entries = append(entries, r)
	}

	return entries, rows.Err()
}

func (d *Database) PurgeAnnouncements(ctx context.Context, retentionDays int) error {
	before := time.Now().AddDate(0, 0, -retentionDays).Format("2006-01-02")
	res, err := d.write.ExecContext(ctx, `DELETE FROM announcement WHERE date < ?`, before)
	if err != nil {
		return fmt.Errorf("purging announcements: %w", err)
	}
	if rows, err := res.RowsAffected(); err == nil && rows > 0 {
		d.logger.Debug(fmt.Sprintf("purged %d announcement rows", rows))
	}
	return nil
}
