package linkstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/notactuallytreyanastasio/browser-mcp/dbopen"
)

// TagCount is one tag with its usage count.
type TagCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Tag attaches a tag (created on first use) to a link. Tagging twice is a
// no-op.
func (s *Store) Tag(ctx context.Context, linkID, tag string) error {
	name := normalizeTag(tag)
	if name == "" {
		return fmt.Errorf("linkstore: empty tag")
	}

	return dbopen.RunTx(ctx, s.DB, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO tags (id, name) VALUES (?, ?) ON CONFLICT(name) DO NOTHING`,
			s.newID(), name); err != nil {
			return fmt.Errorf("linkstore: create tag %q: %w", name, err)
		}

		res, err := tx.ExecContext(ctx, `
			INSERT INTO link_tags (link_id, tag_id)
			SELECT ?, id FROM tags WHERE name = ?
			ON CONFLICT DO NOTHING`, linkID, name)
		if err != nil {
			return fmt.Errorf("linkstore: tag %s with %q: %w", linkID, name, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			// Either already tagged or the link does not exist; distinguish.
			var exists bool
			tx.QueryRowContext(ctx, `SELECT COUNT(*) > 0 FROM links WHERE id = ?`, linkID).Scan(&exists)
			if !exists {
				return fmt.Errorf("linkstore: link %s not found", linkID)
			}
		}
		return nil
	})
}

// Untag removes a tag from a link.
func (s *Store) Untag(ctx context.Context, linkID, tag string) error {
	_, err := s.DB.ExecContext(ctx, `
		DELETE FROM link_tags
		WHERE link_id = ? AND tag_id IN (SELECT id FROM tags WHERE name = ?)`,
		linkID, normalizeTag(tag))
	if err != nil {
		return fmt.Errorf("linkstore: untag: %w", err)
	}
	return nil
}

// ListTags returns all tags with usage counts, most used first.
func (s *Store) ListTags(ctx context.Context) ([]TagCount, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT t.name, COUNT(lt.link_id)
		FROM tags t LEFT JOIN link_tags lt ON lt.tag_id = t.id
		GROUP BY t.id
		ORDER BY COUNT(lt.link_id) DESC, t.name`)
	if err != nil {
		return nil, fmt.Errorf("linkstore: list tags: %w", err)
	}
	defer rows.Close()

	var out []TagCount
	for rows.Next() {
		var tc TagCount
		if err := rows.Scan(&tc.Name, &tc.Count); err != nil {
			return nil, err
		}
		out = append(out, tc)
	}
	return out, rows.Err()
}

func (s *Store) linkTags(ctx context.Context, linkID string) ([]string, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT t.name FROM tags t
		JOIN link_tags lt ON lt.tag_id = t.id
		WHERE lt.link_id = ? ORDER BY t.name`, linkID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

func normalizeTag(tag string) string {
	return strings.ToLower(strings.TrimSpace(tag))
}
