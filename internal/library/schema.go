package library

const schema = `
CREATE TABLE IF NOT EXISTS manga (
	id            TEXT PRIMARY KEY,
	title         TEXT NOT NULL,
	author        TEXT NOT NULL DEFAULT '',
	url           TEXT NOT NULL,
	status        TEXT NOT NULL DEFAULT '',
	last_chapter  REAL NOT NULL DEFAULT 0,
	added_at      INTEGER NOT NULL,
	checked_at    INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS downloads (
	manga_id      TEXT NOT NULL REFERENCES manga(id) ON DELETE CASCADE,
	chapter_id    TEXT NOT NULL,
	number        REAL NOT NULL,
	file          TEXT NOT NULL,
	downloaded_at INTEGER NOT NULL,
	PRIMARY KEY (manga_id, chapter_id)
);
`
