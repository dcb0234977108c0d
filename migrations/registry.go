package migrations

import (
	"context"
	"fmt"
	"io/fs"
	"strings"

	gateway "github.com/goliatone/go-integration-gateway"
)

const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"
)

// FilesystemSpec pairs a dialect with the migration tree that serves it. The
// postgres tree is the embedded root; sqlite lives in its own subdirectory so
// the two schemas can diverge where the dialects force it.
type FilesystemSpec struct {
	Dialect string
	Path    string
	FS      fs.FS
}

type Registration struct {
	SourceLabel       string
	ValidationTargets []string
	Filesystems       []FilesystemSpec
}

// RegisterFunc receives one dialect's migration filesystem. The persistence
// client's RegisterSQLMigrations satisfies it through a small closure.
type RegisterFunc func(ctx context.Context, dialect string, sourceLabel string, fsys fs.FS) error

type Option func(*Registration)

// WithSourceLabel overrides the label the persistence layer records as the
// origin of these migrations.
func WithSourceLabel(label string) Option {
	return func(r *Registration) {
		if trimmed := strings.TrimSpace(label); trimmed != "" {
			r.SourceLabel = trimmed
		}
	}
}

// WithValidationTargets restricts registration to the named dialects. A test
// running against sqlite passes DialectSQLite so the postgres tree is left
// untouched.
func WithValidationTargets(targets ...string) Option {
	return func(r *Registration) {
		normalized := normalizeDialects(targets)
		if len(normalized) > 0 {
			r.ValidationTargets = normalized
		}
	}
}

// Filesystems resolves the postgres and sqlite migration trees from the
// embedded gateway schema, or from an override filesystem when one is given.
func Filesystems(sources ...fs.FS) ([]FilesystemSpec, error) {
	root := gateway.GetMigrationsFS()
	if len(sources) > 0 && sources[0] != nil {
		root = sources[0]
	}

	const basePath = "data/sql/migrations"
	base, err := fs.Sub(root, basePath)
	if err != nil {
		return nil, fmt.Errorf("migrations: resolve %s: %w", basePath, err)
	}
	sqliteFS, err := fs.Sub(base, "sqlite")
	if err != nil {
		return nil, fmt.Errorf("migrations: resolve sqlite filesystem: %w", err)
	}

	filesystems := []FilesystemSpec{
		{Dialect: DialectPostgres, Path: basePath, FS: base},
		{Dialect: DialectSQLite, Path: basePath + "/sqlite", FS: sqliteFS},
	}
	for _, spec := range filesystems {
		if err := requireMigrations(spec); err != nil {
			return nil, err
		}
	}
	return filesystems, nil
}

// Register feeds the gateway schema into registerFn once per validation
// target. Registration fails fast on an empty tree rather than letting a
// misbuilt binary boot without its schema.
func Register(ctx context.Context, registerFn RegisterFunc, opts ...Option) (Registration, error) {
	reg := Registration{
		SourceLabel:       "go-integration-gateway",
		ValidationTargets: []string{DialectPostgres, DialectSQLite},
	}

	filesystems, err := Filesystems()
	if err != nil {
		return reg, err
	}
	reg.Filesystems = filesystems

	for _, opt := range opts {
		if opt != nil {
			opt(&reg)
		}
	}

	if registerFn == nil {
		return reg, fmt.Errorf("migrations: register function is required")
	}
	if strings.TrimSpace(reg.SourceLabel) == "" {
		return reg, fmt.Errorf("migrations: source label is required")
	}
	if len(reg.ValidationTargets) == 0 {
		return reg, fmt.Errorf("migrations: validation targets are required")
	}

	wanted := make(map[string]struct{}, len(reg.ValidationTargets))
	for _, target := range reg.ValidationTargets {
		wanted[target] = struct{}{}
	}
	for _, spec := range reg.Filesystems {
		if _, ok := wanted[spec.Dialect]; !ok {
			continue
		}
		if err := registerFn(ctx, spec.Dialect, reg.SourceLabel, spec.FS); err != nil {
			return reg, fmt.Errorf("migrations: register %s (%s): %w", spec.Dialect, spec.Path, err)
		}
	}
	return reg, nil
}

func requireMigrations(spec FilesystemSpec) error {
	matches, err := fs.Glob(spec.FS, "*.up.sql")
	if err != nil {
		return fmt.Errorf("migrations: glob %s %s: %w", spec.Dialect, spec.Path, err)
	}
	if len(matches) == 0 {
		return fmt.Errorf("migrations: %s filesystem %q has no *.up.sql files", spec.Dialect, spec.Path)
	}
	return nil
}

func normalizeDialects(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, value := range values {
		trimmed := strings.TrimSpace(strings.ToLower(value))
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	return out
}
