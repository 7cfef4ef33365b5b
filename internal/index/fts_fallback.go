//go:build !sqlite_fts5

package index

import (
	"database/sql"
	"fmt"

	"github.com/starford/idmkit/internal/models"
)

func initFTS(_ *sql.DB) error {
	// FTS5 not available; search uses LIKE on the sections table.
	return nil
}

func ftsInsert(_ *sql.Tx, _ string, _ SectionRow) error { return nil }

func ftsDelete(_ *sql.Tx, _ string) {}

// Search performs a LIKE-based search (fallback when FTS5 is not compiled in).
func (db *DB) Search(query string, limit int) ([]models.SearchHit, error) {
	if limit <= 0 {
		limit = 20
	}
	like := "%" + query + "%"
	rows, err := db.conn.Query(`
		SELECT file, path, headline, substr(body, 1, 200)
		FROM sections
		WHERE headline LIKE ? OR body LIKE ? OR tags LIKE ?
		ORDER BY file, position
		LIMIT ?
	`, like, like, like, limit)
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}
	return scanHits(rows)
}
