package migrate

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"regexp"
	"strings"
)

var migrationName = regexp.MustCompile(`^(\d{14})_[a-z0-9_]+\.sql$`)

// ValidateDir checks the migrations on disk under dir.
func ValidateDir(dir string) error {
	if dir == "" {
		return fmt.Errorf("dir is required")
	}
	if _, err := os.Stat(dir); err != nil {
		return err
	}
	return Validate(os.DirFS(dir))
}

// Validate checks that every .sql file is named YYYYMMDDHHMMSS_name.sql, that
// no two files share a version, and that each has both goose sections.
func Validate(migrations fs.FS) error {
	files, err := fs.Glob(migrations, "*.sql")
	if err != nil {
		return err
	}
	byVersion := make(map[string]string, len(files))
	var problems []string
	for _, name := range files {
		m := migrationName.FindStringSubmatch(path.Base(name))
		if m == nil {
			problems = append(problems, fmt.Sprintf("%s: name must look like YYYYMMDDHHMMSS_name.sql", name))
			continue
		}
		if other, dup := byVersion[m[1]]; dup {
			problems = append(problems, fmt.Sprintf("%s: version %s already used by %s", name, m[1], other))
		}
		byVersion[m[1]] = name

		body, err := fs.ReadFile(migrations, name)
		if err != nil {
			return err
		}
		for _, marker := range []string{"-- +goose Up", "-- +goose Down"} {
			if !strings.Contains(string(body), marker) {
				problems = append(problems, fmt.Sprintf("%s: missing %q", name, marker))
			}
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid migrations:\n  %s", strings.Join(problems, "\n  "))
	}
	return nil
}
