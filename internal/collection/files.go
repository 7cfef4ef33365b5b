package collection

import (
	"fmt"
	"strings"

	"github.com/starford/idmkit/internal/outline"
)

// File is a section of a collection outline that is stored as one file.
type File struct {
	Path    string
	Section *outline.Section
}

// Files lists the file-backed sections of o in document order, with paths
// relative to the collection root. Directory sections are descended into;
// attributes, which are stored as ":key.idm" files, are not listed.
func Files(o *outline.Outline) ([]File, error) {
	var files []File
	if err := appendFiles(&files, "", o); err != nil {
		return nil, err
	}
	return files, nil
}

func appendFiles(files *[]File, dir string, o *outline.Outline) error {
	for i := range o.Sections {
		s := &o.Sections[i]
		if strings.TrimSpace(s.Head) == "" {
			continue
		}
		name, isDir, err := target(s.Head)
		if err != nil {
			return fmt.Errorf("collection: %s: %w", dir, err)
		}
		rel := join(dir, name)
		if isDir {
			if err := appendFiles(files, rel, &s.Body); err != nil {
				return err
			}
			continue
		}
		*files = append(*files, File{Path: rel, Section: s})
	}
	return nil
}
