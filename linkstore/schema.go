package linkstore

// Schema contains the complete DDL for the link store.
const Schema = `
-- Saved links: upsert target keyed by URL
CREATE TABLE IF NOT EXISTS links (
    id           TEXT PRIMARY KEY,
    url          TEXT NOT NULL UNIQUE,
    title        TEXT NOT NULL DEFAULT '',
    site         TEXT NOT NULL DEFAULT '',
    points       INTEGER NOT NULL DEFAULT 0,
    score        INTEGER NOT NULL DEFAULT 0,
    note         TEXT NOT NULL DEFAULT '',
    read         INTEGER NOT NULL DEFAULT 0,
    starred      INTEGER NOT NULL DEFAULT 0,
    hidden       INTEGER NOT NULL DEFAULT 0,
    seen_count   INTEGER NOT NULL DEFAULT 1,
    saved_at     INTEGER NOT NULL,
    last_seen_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_links_site ON links(site);
CREATE INDEX IF NOT EXISTS idx_links_saved ON links(saved_at DESC);
CREATE INDEX IF NOT EXISTS idx_links_starred ON links(starred, saved_at DESC);

-- Tags (m:n with links)
CREATE TABLE IF NOT EXISTS tags (
    id   TEXT PRIMARY KEY,
    name TEXT NOT NULL UNIQUE
);
CREATE TABLE IF NOT EXISTS link_tags (
    link_id TEXT NOT NULL REFERENCES links(id) ON DELETE CASCADE,
    tag_id  TEXT NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
    PRIMARY KEY (link_id, tag_id)
);
CREATE INDEX IF NOT EXISTS idx_link_tags_tag ON link_tags(tag_id);

-- Learned extraction patterns, scoped by site domain
CREATE TABLE IF NOT EXISTS patterns (
    id          TEXT PRIMARY KEY,
    domain      TEXT NOT NULL,
    name        TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    selectors   TEXT NOT NULL DEFAULT '[]',
    sample      TEXT NOT NULL DEFAULT '{}',
    confidence  REAL NOT NULL DEFAULT 0,
    created_at  INTEGER NOT NULL,
    updated_at  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_patterns_domain ON patterns(domain, confidence DESC);

-- Activity log: scrape, curation, and learning events
CREATE TABLE IF NOT EXISTS activity (
    id      TEXT PRIMARY KEY,
    kind    TEXT NOT NULL,
    detail  TEXT NOT NULL DEFAULT '',
    link_id TEXT NOT NULL DEFAULT '',
    at      INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_activity_time ON activity(at DESC);

-- FTS5 over title + note
CREATE VIRTUAL TABLE IF NOT EXISTS links_fts USING fts5(
    title, note, content='links', content_rowid='rowid',
    tokenize='unicode61 remove_diacritics 2'
);

-- Triggers to keep FTS5 in sync
CREATE TRIGGER IF NOT EXISTS links_ai AFTER INSERT ON links BEGIN
    INSERT INTO links_fts(rowid, title, note) VALUES (new.rowid, new.title, new.note);
END;
CREATE TRIGGER IF NOT EXISTS links_ad AFTER DELETE ON links BEGIN
    INSERT INTO links_fts(links_fts, rowid, title, note) VALUES('delete', old.rowid, old.title, old.note);
END;
CREATE TRIGGER IF NOT EXISTS links_au AFTER UPDATE ON links BEGIN
    INSERT INTO links_fts(links_fts, rowid, title, note) VALUES('delete', old.rowid, old.title, old.note);
    INSERT INTO links_fts(rowid, title, note) VALUES (new.rowid, new.title, new.note);
END;
`
