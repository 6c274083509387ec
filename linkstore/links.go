package linkstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Link is one saved story/link row.
type Link struct {
	ID         string   `json:"id"`
	URL        string   `json:"url"`
	Title      string   `json:"title"`
	Site       string   `json:"site"`
	Points     int      `json:"points"`
	Score      int      `json:"score"` // user rating 0..5
	Note       string   `json:"note,omitempty"`
	Read       bool     `json:"read"`
	Starred    bool     `json:"starred"`
	Hidden     bool     `json:"hidden"`
	SeenCount  int      `json:"seen_count"`
	SavedAt    int64    `json:"saved_at"`
	LastSeenAt int64    `json:"last_seen_at"`
	Tags       []string `json:"tags,omitempty"`
}

const linkCols = `id, url, title, site, points, score, note,
       read, starred, hidden, seen_count, saved_at, last_seen_at`

// UpsertLink inserts a link or, when the URL is already stored, refreshes
// its title/points/last-seen and bumps the seen counter. Returns the row
// id either way.
func (s *Store) UpsertLink(ctx context.Context, l *Link) (string, error) {
	now := time.Now().UnixMilli()
	if l.ID == "" {
		l.ID = s.newID()
	}
	if l.SavedAt == 0 {
		l.SavedAt = now
	}

	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO links (id, url, title, site, points, note, saved_at, last_seen_at)
		VALUES (?,?,?,?,?,?,?,?)
		ON CONFLICT(url) DO UPDATE SET
			title        = CASE WHEN excluded.title != '' THEN excluded.title ELSE links.title END,
			points       = excluded.points,
			last_seen_at = excluded.last_seen_at,
			seen_count   = links.seen_count + 1`,
		l.ID, l.URL, l.Title, l.Site, l.Points, l.Note, l.SavedAt, now,
	)
	if err != nil {
		return "", fmt.Errorf("linkstore: upsert %s: %w", l.URL, err)
	}

	var id string
	if err := s.DB.QueryRowContext(ctx, `SELECT id FROM links WHERE url = ?`, l.URL).Scan(&id); err != nil {
		return "", fmt.Errorf("linkstore: resolve id for %s: %w", l.URL, err)
	}
	l.ID = id
	return id, nil
}

// GetLink retrieves a link by id, with its tags. Returns (nil, nil) when
// not found.
func (s *Store) GetLink(ctx context.Context, id string) (*Link, error) {
	return s.getLinkWhere(ctx, "id = ?", id)
}

// GetLinkByURL retrieves a link by URL. Returns (nil, nil) when not found.
func (s *Store) GetLinkByURL(ctx context.Context, url string) (*Link, error) {
	return s.getLinkWhere(ctx, "url = ?", url)
}

func (s *Store) getLinkWhere(ctx context.Context, where string, arg any) (*Link, error) {
	l := &Link{}
	err := s.DB.QueryRowContext(ctx,
		`SELECT `+linkCols+` FROM links WHERE `+where, arg).Scan(
		&l.ID, &l.URL, &l.Title, &l.Site, &l.Points, &l.Score, &l.Note,
		&l.Read, &l.Starred, &l.Hidden, &l.SeenCount, &l.SavedAt, &l.LastSeenAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	tags, err := s.linkTags(ctx, l.ID)
	if err != nil {
		return nil, err
	}
	l.Tags = tags
	return l, nil
}

// Filter narrows ListLinks. Zero values mean "no constraint".
type Filter struct {
	Tag     string
	Text    string // FTS5 match over title + note
	Site    string
	Starred bool
	Unread  bool
	Limit   int
}

// ListLinks returns non-hidden links newest-first, narrowed by the filter.
func (s *Store) ListLinks(ctx context.Context, f Filter) ([]*Link, error) {
	var (
		conds = []string{"links.hidden = 0"}
		args  []any
		joins []string
	)

	if f.Tag != "" {
		joins = append(joins,
			`JOIN link_tags lt ON lt.link_id = links.id JOIN tags t ON t.id = lt.tag_id`)
		conds = append(conds, "t.name = ?")
		args = append(args, f.Tag)
	}
	if f.Text != "" {
		joins = append(joins, `JOIN links_fts ON links_fts.rowid = links.rowid`)
		conds = append(conds, "links_fts MATCH ?")
		args = append(args, ftsQuery(f.Text))
	}
	if f.Site != "" {
		conds = append(conds, "links.site = ?")
		args = append(args, f.Site)
	}
	if f.Starred {
		conds = append(conds, "links.starred = 1")
	}
	if f.Unread {
		conds = append(conds, "links.read = 0")
	}

	query := `SELECT ` + prefixCols("links") + ` FROM links ` +
		strings.Join(joins, " ") +
		` WHERE ` + strings.Join(conds, " AND ") +
		` ORDER BY links.saved_at DESC, links.id`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("linkstore: list: %w", err)
	}
	defer rows.Close()
	return scanLinks(rows)
}

// QueryLinks runs an assembled query over non-hidden links. The join,
// where, and order fragments come from trusted callers (the query
// translator's fixed rule table); user input only ever flows through
// args.
func (s *Store) QueryLinks(ctx context.Context, join, where, order string, limit int, args ...any) ([]*Link, error) {
	conds := "links.hidden = 0"
	if where != "" {
		conds += " AND " + where
	}
	if order == "" {
		order = "links.saved_at DESC, links.id"
	}

	query := `SELECT ` + prefixCols("links") + ` FROM links ` + join +
		` WHERE ` + conds + ` ORDER BY ` + order
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("linkstore: query: %w", err)
	}
	defer rows.Close()
	return scanLinks(rows)
}

// FTSQuery converts free text into a safe FTS5 match expression.
func FTSQuery(text string) string {
	return ftsQuery(text)
}

// SetScore sets the 0..5 user rating.
func (s *Store) SetScore(ctx context.Context, id string, score int) error {
	if score < 0 || score > 5 {
		return fmt.Errorf("linkstore: score %d out of range 0..5", score)
	}
	return s.updateLink(ctx, id, "score = ?", score)
}

// SetNote replaces the free-text note.
func (s *Store) SetNote(ctx context.Context, id, note string) error {
	return s.updateLink(ctx, id, "note = ?", note)
}

// Flags updates curation flags. Nil pointer = leave unchanged.
type Flags struct {
	Read    *bool
	Starred *bool
	Hidden  *bool
}

// SetFlags updates any combination of read/starred/hidden.
func (s *Store) SetFlags(ctx context.Context, id string, f Flags) error {
	var (
		sets []string
		args []any
	)
	if f.Read != nil {
		sets = append(sets, "read = ?")
		args = append(args, *f.Read)
	}
	if f.Starred != nil {
		sets = append(sets, "starred = ?")
		args = append(args, *f.Starred)
	}
	if f.Hidden != nil {
		sets = append(sets, "hidden = ?")
		args = append(args, *f.Hidden)
	}
	if len(sets) == 0 {
		return nil
	}
	return s.updateLink(ctx, id, strings.Join(sets, ", "), args...)
}

func (s *Store) updateLink(ctx context.Context, id, set string, args ...any) error {
	args = append(args, id)
	res, err := s.DB.ExecContext(ctx, `UPDATE links SET `+set+` WHERE id = ?`, args...)
	if err != nil {
		return fmt.Errorf("linkstore: update %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("linkstore: link %s not found", id)
	}
	return nil
}

// Stats summarizes the store.
type Stats struct {
	Links    int `json:"links"`
	Starred  int `json:"starred"`
	Unread   int `json:"unread"`
	Tags     int `json:"tags"`
	Patterns int `json:"patterns"`
}

// GetStats counts links, starred, unread, tags, and patterns.
func (s *Store) GetStats(ctx context.Context) (*Stats, error) {
	st := &Stats{}
	err := s.DB.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM links WHERE hidden = 0),
			(SELECT COUNT(*) FROM links WHERE starred = 1),
			(SELECT COUNT(*) FROM links WHERE read = 0 AND hidden = 0),
			(SELECT COUNT(*) FROM tags),
			(SELECT COUNT(*) FROM patterns)`).Scan(
		&st.Links, &st.Starred, &st.Unread, &st.Tags, &st.Patterns)
	if err != nil {
		return nil, fmt.Errorf("linkstore: stats: %w", err)
	}
	return st, nil
}

func prefixCols(prefix string) string {
	cols := strings.Split(linkCols, ",")
	for i, c := range cols {
		cols[i] = prefix + "." + strings.TrimSpace(c)
	}
	return strings.Join(cols, ", ")
}

func scanLinks(rows *sql.Rows) ([]*Link, error) {
	var out []*Link
	for rows.Next() {
		l := &Link{}
		if err := rows.Scan(
			&l.ID, &l.URL, &l.Title, &l.Site, &l.Points, &l.Score, &l.Note,
			&l.Read, &l.Starred, &l.Hidden, &l.SeenCount, &l.SavedAt, &l.LastSeenAt,
		); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// ftsQuery quotes user text so FTS5 treats it as literal terms rather
// than query syntax.
func ftsQuery(text string) string {
	terms := strings.Fields(text)
	for i, t := range terms {
		terms[i] = `"` + strings.ReplaceAll(t, `"`, ``) + `"`
	}
	return strings.Join(terms, " ")
}
