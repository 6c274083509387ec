package linkstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/notactuallytreyanastasio/browser-mcp/learn"
)

// Pattern is a persisted learned extraction pattern, scoped to the site
// domain it was learned from. Selectors are plain strings; Sample holds
// the rest of the learned artifact (rules, validations, metadata) as an
// opaque JSON blob owned by the learning subsystem.
type Pattern struct {
	ID          string   `json:"id"`
	Domain      string   `json:"domain"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Selectors   []string `json:"selectors"`
	Sample      string   `json:"sample"`
	Confidence  float64  `json:"confidence"`
	CreatedAt   int64    `json:"created_at"`
	UpdatedAt   int64    `json:"updated_at"`
}

// SavePattern implements learn.PatternSink: upsert by pattern id. The
// confidence column is lifted out of the sample blob for indexed ranking.
func (s *Store) SavePattern(ctx context.Context, domain string, rec learn.PatternRecord) error {
	selectors, _ := json.Marshal(rec.Selectors)

	var sample struct {
		Confidence float64 `json:"confidence"`
	}
	json.Unmarshal(rec.Sample, &sample)

	now := time.Now().UnixMilli()
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO patterns (id, domain, name, description, selectors, sample, confidence, created_at, updated_at)
		VALUES (?,?,?,?,?,?,?,?,?)
		ON CONFLICT(id) DO UPDATE SET
			domain      = excluded.domain,
			name        = excluded.name,
			description = excluded.description,
			selectors   = excluded.selectors,
			sample      = excluded.sample,
			confidence  = excluded.confidence,
			updated_at  = excluded.updated_at`,
		rec.ID, domain, rec.Name, rec.Description, string(selectors),
		string(rec.Sample), sample.Confidence, now, now,
	)
	if err != nil {
		return fmt.Errorf("linkstore: save pattern %s: %w", rec.ID, err)
	}
	return nil
}

// GetPattern retrieves a pattern by id. Returns (nil, nil) when not found.
func (s *Store) GetPattern(ctx context.Context, id string) (*Pattern, error) {
	p := &Pattern{}
	var selectors string
	err := s.DB.QueryRowContext(ctx, `
		SELECT id, domain, name, description, selectors, sample, confidence, created_at, updated_at
		FROM patterns WHERE id = ?`, id).Scan(
		&p.ID, &p.Domain, &p.Name, &p.Description, &selectors, &p.Sample,
		&p.Confidence, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	json.Unmarshal([]byte(selectors), &p.Selectors)
	return p, nil
}

// ListPatterns returns patterns for a domain (or all when domain is
// empty), highest confidence first.
func (s *Store) ListPatterns(ctx context.Context, domain string) ([]*Pattern, error) {
	query := `SELECT id, domain, name, description, selectors, sample, confidence, created_at, updated_at
	          FROM patterns`
	var args []any
	if domain != "" {
		query += ` WHERE domain = ?`
		args = append(args, domain)
	}
	query += ` ORDER BY confidence DESC, updated_at DESC`

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("linkstore: list patterns: %w", err)
	}
	defer rows.Close()

	var out []*Pattern
	for rows.Next() {
		p := &Pattern{}
		var selectors string
		if err := rows.Scan(
			&p.ID, &p.Domain, &p.Name, &p.Description, &selectors, &p.Sample,
			&p.Confidence, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, err
		}
		json.Unmarshal([]byte(selectors), &p.Selectors)
		out = append(out, p)
	}
	return out, rows.Err()
}

// DeletePattern removes a pattern.
func (s *Store) DeletePattern(ctx context.Context, id string) error {
	res, err := s.DB.ExecContext(ctx, `DELETE FROM patterns WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("linkstore: delete pattern %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("linkstore: pattern %s not found", id)
	}
	return nil
}
