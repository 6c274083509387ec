package linkstore

import (
	"context"
	"fmt"
	"time"
)

// Activity is one logged scrape/curation/learning event.
type Activity struct {
	ID     string `json:"id"`
	Kind   string `json:"kind"`
	Detail string `json:"detail,omitempty"`
	LinkID string `json:"link_id,omitempty"`
	At     int64  `json:"at"`
}

// LogActivity appends an event to the activity log. Failures are returned
// but callers typically just log them; activity is best-effort.
func (s *Store) LogActivity(ctx context.Context, kind, detail, linkID string) error {
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO activity (id, kind, detail, link_id, at) VALUES (?,?,?,?,?)`,
		s.newID(), kind, detail, linkID, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("linkstore: log activity: %w", err)
	}
	return nil
}

// RecentActivity returns the newest events, most recent first.
func (s *Store) RecentActivity(ctx context.Context, limit int) ([]Activity, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.DB.QueryContext(ctx, `
		SELECT id, kind, detail, link_id, at FROM activity
		ORDER BY at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("linkstore: recent activity: %w", err)
	}
	defer rows.Close()

	var out []Activity
	for rows.Next() {
		var a Activity
		if err := rows.Scan(&a.ID, &a.Kind, &a.Detail, &a.LinkID, &a.At); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
