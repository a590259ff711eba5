package migrate

import (
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Provider loads the set of known migrations in apply order.
type Provider interface {
	GetMigrations() ([]Migration, error)
}

// FSProvider loads migrations from a filesystem tree. Versioned scripts
// are named NNNN_description.sql and apply in ascending version order;
// repeatable scripts are named R_description.sql and sort after every
// versioned script, in name order.
type FSProvider struct {
	fsys fs.FS
	dir  string
}

// NewFSProvider creates a provider over dir inside fsys. Embedded
// filesystems and os.DirFS both work.
func NewFSProvider(fsys fs.FS, dir string) *FSProvider {
	return &FSProvider{fsys: fsys, dir: dir}
}

// Format: 0001_migration_name.sql or R_migration_name.sql
var (
	versionedRegex  = regexp.MustCompile(`^(\d+)_(.+)\.sql$`)
	repeatableRegex = regexp.MustCompile(`^R_(.+)\.sql$`)
)

// GetMigrations loads all migration scripts, checksummed, in apply order.
func (p *FSProvider) GetMigrations() ([]Migration, error) {
	entries, err := fs.ReadDir(p.fsys, p.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read migration directory %s: %w", p.dir, err)
	}

	var versioned, repeatable []Migration
	seen := make(map[int]string) // numeric version -> filename

	for _, entry := range entries {
		if entry.IsDir() {
			return nil, fmt.Errorf("unexpected directory %s in migration directory", entry.Name())
		}
		filename := entry.Name()

		if matches := versionedRegex.FindStringSubmatch(filename); matches != nil {
			num, err := strconv.Atoi(matches[1])
			if err != nil {
				return nil, fmt.Errorf("migration version in %s does not fit an integer: %w", filename, err)
			}
			if prior, ok := seen[num]; ok {
				return nil, fmt.Errorf("duplicate migration version %s: %s and %s", matches[1], prior, filename)
			}
			seen[num] = filename

			script, err := fs.ReadFile(p.fsys, path.Join(p.dir, filename))
			if err != nil {
				return nil, fmt.Errorf("failed to read migration file %s: %w", filename, err)
			}
			versioned = append(versioned, Migration{
				Version:     matches[1],
				Description: strings.ReplaceAll(matches[2], "_", " "),
				Checksum:    Checksum(string(script)),
				Script:      string(script),
			})
			continue
		}

		if matches := repeatableRegex.FindStringSubmatch(filename); matches != nil {
			script, err := fs.ReadFile(p.fsys, path.Join(p.dir, filename))
			if err != nil {
				return nil, fmt.Errorf("failed to read migration file %s: %w", filename, err)
			}
			repeatable = append(repeatable, Migration{
				Description: strings.ReplaceAll(matches[1], "_", " "),
				Checksum:    Checksum(string(script)),
				Script:      string(script),
			})
		}
	}

	sort.Slice(versioned, func(i, j int) bool {
		vi, _ := strconv.Atoi(versioned[i].Version)
		vj, _ := strconv.Atoi(versioned[j].Version)
		return vi < vj
	})
	sort.Slice(repeatable, func(i, j int) bool {
		return repeatable[i].Description < repeatable[j].Description
	})

	return append(versioned, repeatable...), nil
}
