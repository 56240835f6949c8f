package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/brogergvhs/yandanshe/internal/providers"
)

type Entry struct {
	ID          string    `yaml:"id"`
	Title       string    `yaml:"title"`
	Author      string    `yaml:"author"`
	URL         string    `yaml:"url"`
	Status      string    `yaml:"status"`
	LastChapter float64   `yaml:"last_chapter"`
	AddedAt     time.Time `yaml:"added_at"`
	CheckedAt   time.Time `yaml:"checked_at,omitempty"`
}

// Add follows m. Adding a title twice refreshes its metadata and keeps the
// recorded progress.
func (db *DB) Add(ctx context.Context, m providers.Manga) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO manga (id, title, author, url, status, added_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			author = excluded.author,
			url = excluded.url,
			status = excluded.status`,
		m.ID, m.Title, m.Author, m.URL, m.Status.String(), time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("add %s: %w", m.ID, err)
	}

	return nil
}

func (db *DB) Get(ctx context.Context, id string) (*Entry, error) {
	row := db.QueryRowContext(ctx, `
		SELECT id, title, author, url, status, last_chapter, added_at, checked_at
		FROM manga WHERE id = ?`, id)

	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", id, err)
	}

	return e, nil
}

func (db *DB) List(ctx context.Context) ([]Entry, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, title, author, url, status, last_chapter, added_at, checked_at
		FROM manga ORDER BY title, id`)
	if err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var out []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("list: %w", err)
		}
		out = append(out, *e)
	}

	return out, rows.Err()
}

func (db *DB) Remove(ctx context.Context, id string) error {
	res, err := db.ExecContext(ctx, "DELETE FROM manga WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("remove %s: %w", id, err)
	}

	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}

	return nil
}

// MarkChecked stores the newest chapter number seen on the site.
func (db *DB) MarkChecked(ctx context.Context, id string, latest float64) error {
	res, err := db.ExecContext(ctx, `
		UPDATE manga SET checked_at = ?, last_chapter = MAX(last_chapter, ?)
		WHERE id = ?`, time.Now().Unix(), latest, id)
	if err != nil {
		return fmt.Errorf("mark checked %s: %w", id, err)
	}

	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}

	return nil
}

// RecordDownload remembers a written CBZ. Titles that are not followed are
// ignored.
func (db *DB) RecordDownload(ctx context.Context, mangaID string, ch providers.Chapter, file string) error {
	if _, err := db.Get(ctx, mangaID); errors.Is(err, ErrNotFound) {
		return nil
	} else if err != nil {
		return err
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO downloads (manga_id, chapter_id, number, file, downloaded_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(manga_id, chapter_id) DO UPDATE SET
			file = excluded.file,
			downloaded_at = excluded.downloaded_at`,
		mangaID, ch.ID, ch.Number, file, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("record download %s/%s: %w", mangaID, ch.ID, err)
	}

	return nil
}

// Downloaded returns the chapter ids already written for mangaID.
func (db *DB) Downloaded(ctx context.Context, mangaID string) (map[string]bool, error) {
	rows, err := db.QueryContext(ctx, "SELECT chapter_id FROM downloads WHERE manga_id = ?", mangaID)
	if err != nil {
		return nil, fmt.Errorf("downloaded %s: %w", mangaID, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	out := map[string]bool{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out[id] = true
	}

	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (*Entry, error) {
	var (
		e                  Entry
		addedAt, checkedAt int64
	)

	if err := s.Scan(&e.ID, &e.Title, &e.Author, &e.URL, &e.Status, &e.LastChapter, &addedAt, &checkedAt); err != nil {
		return nil, err
	}

	e.AddedAt = time.Unix(addedAt, 0)
	if checkedAt > 0 {
		e.CheckedAt = time.Unix(checkedAt, 0)
	}

	return &e, nil
}
