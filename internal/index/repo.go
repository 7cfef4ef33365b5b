package index

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/starford/idmkit/internal/models"
)

// FileRow is one collection file and the sections it holds.
type FileRow struct {
	Path      string
	Checksum  string
	UpdatedAt time.Time
	Sections  []SectionRow
}

// SectionRow represents a row in the sections table. Position is the
// pre-order index of the section within its file and Path its outline path
// there.
type SectionRow struct {
	Position int
	Path     string
	Headline string
	Tags     []string
	// URI is the normalized uri attribute.
	URI string
	// Body holds the section's own attributes as IDM text.
	Body string
}

// ReplaceFile inserts or replaces a file and all of its sections, including
// their FTS entries, within a transaction.
func (db *DB) ReplaceFile(f FileRow) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	if f.UpdatedAt.IsZero() {
		f.UpdatedAt = time.Now()
	}
	_, err = tx.Exec(`
		INSERT INTO files (path, checksum, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			checksum   = excluded.checksum,
			updated_at = excluded.updated_at
	`, f.Path, f.Checksum, f.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert file: %w", err)
	}

	ftsDelete(tx, f.Path)
	if _, err := tx.Exec(`DELETE FROM sections WHERE file = ?`, f.Path); err != nil {
		return fmt.Errorf("index: clear sections: %w", err)
	}
	if len(f.Sections) > 0 {
		stmt, err := tx.Prepare(`
			INSERT INTO sections (file, position, path, headline, tags, uri, body)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("index: prepare section insert: %w", err)
		}
		defer stmt.Close()
		for _, s := range f.Sections {
			tags := s.Tags
			if tags == nil {
				tags = []string{}
			}
			tagsJSON, _ := json.Marshal(tags)
			if _, err := stmt.Exec(f.Path, s.Position, s.Path, s.Headline, string(tagsJSON), s.URI, s.Body); err != nil {
				return fmt.Errorf("index: insert section: %w", err)
			}
			if err := ftsInsert(tx, f.Path, s); err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

// DeleteFile removes a file, its sections and their FTS entries.
func (db *DB) DeleteFile(path string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(tx, path)
	_, _ = tx.Exec(`DELETE FROM sections WHERE file = ?`, path)
	_, _ = tx.Exec(`DELETE FROM files WHERE path = ?`, path)

	return tx.Commit()
}

// GetChecksum returns the stored checksum for a file, or empty string if not found.
func (db *DB) GetChecksum(path string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM files WHERE path = ?`, path).Scan(&cs)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("index: get checksum: %w", err)
	}
	return cs, nil
}

// AllChecksums maps every indexed file path to its checksum.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM files`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}

// Files lists the indexed files ordered by path.
func (db *DB) Files() ([]models.FileInfo, error) {
	rows, err := db.conn.Query(`
		SELECT path, checksum, updated_at,
		       (SELECT count(*) FROM sections WHERE sections.file = files.path)
		FROM files
		ORDER BY path
	`)
	if err != nil {
		return nil, fmt.Errorf("index: files: %w", err)
	}
	defer rows.Close()

	var out []models.FileInfo
	for rows.Next() {
		var f models.FileInfo
		if err := rows.Scan(&f.Path, &f.Checksum, &f.UpdatedAt, &f.Sections); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// Tags counts the sections each tag is attached to, most used first.
// Only a section's own tags are counted.
func (db *DB) Tags() ([]models.TagCount, error) {
	rows, err := db.conn.Query(`
		SELECT t.value, count(*) AS n
		FROM sections, json_each(sections.tags) AS t
		GROUP BY t.value
		ORDER BY n DESC, t.value
	`)
	if err != nil {
		return nil, fmt.Errorf("index: tags: %w", err)
	}
	defer rows.Close()

	var out []models.TagCount
	for rows.Next() {
		var tc models.TagCount
		if err := rows.Scan(&tc.Tag, &tc.Count); err != nil {
			return nil, err
		}
		out = append(out, tc)
	}
	return out, rows.Err()
}

// SectionsByURI returns every section whose normalized uri equals uri.
func (db *DB) SectionsByURI(uri string) ([]models.Section, error) {
	rows, err := db.conn.Query(`
		SELECT file, path, headline, tags, uri
		FROM sections
		WHERE uri = ?
		ORDER BY file, position
	`, uri)
	if err != nil {
		return nil, fmt.Errorf("index: sections by uri: %w", err)
	}
	defer rows.Close()

	var out []models.Section
	for rows.Next() {
		var (
			s        models.Section
			tagsJSON string
		)
		if err := rows.Scan(&s.File, &s.Path, &s.Headline, &tagsJSON, &s.URI); err != nil {
			return nil, err
		}
		_ = json.Unmarshal([]byte(tagsJSON), &s.Tags)
		out = append(out, s)
	}
	return out, rows.Err()
}

func scanHits(rows *sql.Rows) ([]models.SearchHit, error) {
	defer rows.Close()
	var out []models.SearchHit
	for rows.Next() {
		var h models.SearchHit
		if err := rows.Scan(&h.File, &h.Path, &h.Headline, &h.Snippet); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}
