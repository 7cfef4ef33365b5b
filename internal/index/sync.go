package index

import (
	"log/slog"
	"slices"
	"time"

	"github.com/starford/idmkit/internal/checksum"
	"github.com/starford/idmkit/internal/collection"
	"github.com/starford/idmkit/internal/idm"
	"github.com/starford/idmkit/internal/outline"
	"github.com/starford/idmkit/internal/parser"
	"github.com/starford/idmkit/internal/storage"
)

// SyncReport lists the files Sync changed in the index.
type SyncReport struct {
	Created []string
	Updated []string
	Deleted []string
}

// Changed reports whether Sync touched the index at all.
func (r *SyncReport) Changed() bool {
	return len(r.Created)+len(r.Updated)+len(r.Deleted) > 0
}

// Sync brings the index up to date with a collection outline:
//   - files whose serialized content changed are re-indexed
//   - files no longer in the outline are deleted from the index
//
// Failures on single files are logged and skipped.
func Sync(db *DB, o *outline.Outline, logger *slog.Logger) (*SyncReport, error) {
	files, err := collection.Files(o)
	if err != nil {
		return nil, err
	}
	checksums, err := db.AllChecksums()
	if err != nil {
		return nil, err
	}

	report := &SyncReport{}
	seen := make(map[string]struct{}, len(files))
	now := time.Now()
	for _, f := range files {
		seen[f.Path] = struct{}{}
		row := fileRow(f)
		prev, indexed := checksums[f.Path]
		if indexed && prev == row.Checksum {
			continue
		}
		row.UpdatedAt = now
		if err := db.ReplaceFile(row); err != nil {
			logger.Warn("sync: index failed", slog.String("path", f.Path), slog.String("error", err.Error()))
			continue
		}
		logger.Debug("sync: indexed", slog.String("path", f.Path), slog.Int("sections", len(row.Sections)))
		if indexed {
			report.Updated = append(report.Updated, f.Path)
		} else {
			report.Created = append(report.Created, f.Path)
		}
	}

	// Remove stale entries.
	for p := range checksums {
		if _, ok := seen[p]; ok {
			continue
		}
		if err := db.DeleteFile(p); err != nil {
			logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
			continue
		}
		logger.Debug("sync: removed stale", slog.String("path", p))
		report.Deleted = append(report.Deleted, p)
	}
	slices.Sort(report.Deleted)
	return report, nil
}

// fileRow flattens the body of a file-backed section into index rows.
func fileRow(f collection.File) FileRow {
	body := &f.Section.Body
	row := FileRow{
		Path:     f.Path,
		Checksum: checksum.Sum([]byte(idm.Serialize(body, idm.DefaultStyle))),
	}
	for p, s := range body.Iter() {
		if s.Head == "" && s.Body.IsEmpty() {
			continue
		}
		uri, ok := s.Body.Attrs.Get("uri")
		if ok {
			uri = parser.NormalizedURL(uri)
		}
		row.Sections = append(row.Sections, SectionRow{
			Position: len(row.Sections),
			Path:     p.String(),
			Headline: s.Head,
			Tags:     s.Tags(),
			URI:      uri,
			Body:     idm.Serialize(&outline.Outline{Attrs: s.Body.Attrs.Clone()}, idm.DefaultStyle),
		})
	}
	return row
}

// SyncDir reads the collection under root and syncs the index with it.
func SyncDir(db *DB, root string, ignore []string, logger *slog.Logger) (*SyncReport, error) {
	store, err := storage.NewFS(root)
	if err != nil {
		return nil, err
	}
	res, err := collection.Read(store, collection.WithIgnore(ignore...), collection.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	return Sync(db, res.Outline, logger)
}
