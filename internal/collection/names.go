package collection

import (
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/starford/idmkit/internal/apperr"
)

const idmExt = ".idm"

var validName = regexp.MustCompile(`^:?[A-Za-z0-9_-][.A-Za-z0-9_-]*$`)

// ValidName reports whether s can be used as a collection file name.
func ValidName(s string) bool {
	return validName.MatchString(s)
}

// fileHead maps a file name to its headline. ok is false for names that are
// not represented in the outline.
func fileHead(name string) (head string, kind Kind, ok bool) {
	ext := path.Ext(name)
	switch {
	case ext == "":
		return "", 0, false
	case strings.HasPrefix(name, ":"):
		return strings.TrimSuffix(name[1:], idmExt), KindAttr, ext == idmExt
	case ext == idmExt:
		stem := strings.TrimSuffix(name, idmExt)
		if strings.Contains(stem, ".") {
			// "a.b.idm" must stay whole so that writing it back, which
			// keeps dotted headlines verbatim, produces the same name.
			return name, KindIDM, true
		}
		return stem, KindIDM, true
	default:
		return name, KindFile, true
	}
}

// target maps a section headline to the directory entry it is written as.
func target(head string) (name string, dir bool, err error) {
	name, dir = strings.CutSuffix(head, "/")
	if !ValidName(name) || strings.HasPrefix(name, ":") {
		return "", false, fmt.Errorf("%w: headline %q", apperr.ErrInvalidName, head)
	}
	if dir {
		return name, true, nil
	}
	if strings.Contains(name, ".") {
		return name, false, nil
	}
	return name + idmExt, false, nil
}

func attrFile(key string) (string, error) {
	if !ValidName(key) || strings.HasPrefix(key, ":") {
		return "", fmt.Errorf("%w: attribute %q", apperr.ErrInvalidName, key)
	}
	return ":" + key + idmExt, nil
}

func join(dir, name string) string {
	if dir == "" {
		return name
	}
	return dir + "/" + name
}
