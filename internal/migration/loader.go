package migration

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"regexp"
	"strings"
)

// filenamePattern matches {version}_{description}.sql, e.g. 001_create_products.sql.
var filenamePattern = regexp.MustCompile( //nolint:gochecknoglobals // compiled once, used by LoadFS
	`^(\d+)_([A-Za-z0-9_-]+)\.sql$`,
)

const descriptionHeader = "-- Description:"

// LoadFromDir reads a migration registry from a directory on disk.
func LoadFromDir(dir string) ([]Migration, error) {
	return LoadFS(os.DirFS(dir), ".")
}

// LoadFS reads every {version}_{description}.sql file in dir of fsys and returns them
// as a registry sorted by version. Typically fsys is an embed.FS bundled at build time.
// Files without the .sql extension are ignored; .sql files that do not follow the
// naming convention are an error so a misnamed migration is never silently skipped.
func LoadFS(fsys fs.FS, dir string) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("reading migrations directory %s: %w", dir, err)
	}

	var migrations []Migration

	for _, entry := range entries {
		if entry.IsDir() || path.Ext(entry.Name()) != ".sql" {
			continue
		}

		m, err := readMigration(fsys, path.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}

		migrations = append(migrations, m)
	}

	sorted := Sort(migrations)
	if err := Validate(sorted); err != nil {
		return nil, fmt.Errorf("loading migrations from %s: %w", dir, err)
	}

	return sorted, nil
}

func readMigration(fsys fs.FS, name string) (Migration, error) {
	matches := filenamePattern.FindStringSubmatch(path.Base(name))
	if matches == nil {
		return Migration{}, fmt.Errorf("%s: %w: expected {version}_{description}.sql", name, ErrInvalidFilename)
	}

	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return Migration{}, fmt.Errorf("reading migration file %s: %w", name, err)
	}

	sql := string(data)
	if strings.TrimSpace(sql) == "" {
		return Migration{}, fmt.Errorf("%s: %w", name, ErrEmptyMigration)
	}

	description := descriptionFromHeader(sql)
	if description == "" {
		description = strings.ReplaceAll(matches[2], "_", " ")
	}

	return Migration{
		Version:     matches[1],
		Description: description,
		SQL:         sql,
	}, nil
}

// descriptionFromHeader returns the text of a "-- Description:" line found in the
// leading comment block of a migration, or "".
func descriptionFromHeader(sql string) string {
	for _, line := range strings.Split(sql, "\n") {
		line = strings.TrimSpace(line)

		if line == "" {
			continue
		}

		if !strings.HasPrefix(line, "--") {
			return ""
		}

		if strings.HasPrefix(line, descriptionHeader) {
			return strings.TrimSpace(strings.TrimPrefix(line, descriptionHeader))
		}
	}

	return ""
}
