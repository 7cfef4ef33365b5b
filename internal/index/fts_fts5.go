//go:build sqlite_fts5

package index

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/starford/idmkit/internal/models"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS sections_fts USING fts5(
			file UNINDEXED,
			path UNINDEXED,
			headline,
			body,
			tags,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

func ftsInsert(tx *sql.Tx, file string, s SectionRow) error {
	_, err := tx.Exec(`INSERT INTO sections_fts (file, path, headline, body, tags) VALUES (?, ?, ?, ?, ?)`,
		file, s.Path, s.Headline, s.Body, strings.Join(s.Tags, " "))
	if err != nil {
		return fmt.Errorf("index: insert fts: %w", err)
	}
	return nil
}

func ftsDelete(tx *sql.Tx, file string) {
	_, _ = tx.Exec(`DELETE FROM sections_fts WHERE file = ?`, file)
}

// Search performs an FTS5 full-text search and returns matching sections
// with snippets of the best matching column.
func (db *DB) Search(query string, limit int) ([]models.SearchHit, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.Query(`
		SELECT file,
		       path,
		       headline,
		       snippet(sections_fts, -1, '<b>', '</b>', '...', 32)
		FROM sections_fts
		WHERE sections_fts MATCH ?
		ORDER BY rank
		LIMIT ?
	`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}
	return scanHits(rows)
}
