package index

import "github.com/starford/idmkit/internal/models"

// SectionIndex defines the interface for section indexing operations.
// Consumers should depend on this interface rather than the concrete *DB type
// to facilitate testing with mocks.
type SectionIndex interface {
	ReplaceFile(f FileRow) error
	DeleteFile(path string) error
	GetChecksum(path string) (string, error)
	AllChecksums() (map[string]string, error)
	Files() ([]models.FileInfo, error)
	Search(query string, limit int) ([]models.SearchHit, error)
	Tags() ([]models.TagCount, error)
	SectionsByURI(uri string) ([]models.Section, error)
	Close() error
}

// Verify *DB satisfies SectionIndex at compile time.
var _ SectionIndex = (*DB)(nil)
