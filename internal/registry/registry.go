// Package registry tracks which source files are loaded into the engine and
// which table each one is bound to. It owns the engine catalog: registering a
// file creates its table, unregistering drops it.
package registry

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/kud1/file-viewer/internal/adapter"
)

// LoadedFile binds a source file (or directory) to a queryable table.
type LoadedFile struct {
	// DisplayName is the user-visible name (file base name unless overridden).
	DisplayName string

	// Path is the absolute source path (file or directory).
	Path string

	// Table is the bound table name in the engine catalog.
	Table string

	// Format is the detected source format.
	Format adapter.Format

	// RowCount is the number of rows at load time.
	RowCount int64

	// Columns describes the table schema at load time.
	Columns []adapter.Column

	// LoadedAt is when the file was (last) loaded.
	LoadedAt time.Time

	// Stale reports that the source changed on disk since the load.
	Stale bool
}

// Registry manages loaded files and their bound tables.
type Registry struct {
	db     adapter.Adapter
	logger *slog.Logger

	mu      sync.Mutex
	order   []string // table names in insertion order
	byTable map[string]*LoadedFile

	watcher *watcher
}

// New creates a registry backed by the given adapter.
// A nil logger discards log output.
func New(db adapter.Adapter, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Registry{
		db:      db,
		logger:  logger,
		byTable: make(map[string]*LoadedFile),
	}
}

// Close stops the change watcher, if one was started. The engine connection
// is owned by the caller and is not closed here.
func (r *Registry) Close() error {
	if r.watcher != nil {
		return r.watcher.close()
	}
	return nil
}

// DetectFormat returns the format for a file path based on its extension.
func DetectFormat(path string) (adapter.Format, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return adapter.FormatCSV, true
	case ".parquet":
		return adapter.FormatParquet, true
	case ".json", ".jsonl", ".ndjson":
		return adapter.FormatJSON, true
	default:
		return "", false
	}
}

// Register loads a single file into the engine and records it.
// If suggestedName is empty the table name is derived from the file stem;
// derived names are suffixed on collision, explicit names are rejected with
// ErrDuplicateName. Directories are delegated to RegisterDirectory.
func (r *Registry) Register(ctx context.Context, path, suggestedName string) (*LoadedFile, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", absPath, err)
	}
	if info.IsDir() {
		return r.RegisterDirectory(ctx, absPath, suggestedName)
	}

	format, ok := DetectFormat(absPath)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Base(absPath))
	}

	base := suggestedName
	if base == "" {
		base = strings.TrimSuffix(filepath.Base(absPath), filepath.Ext(absPath))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	tableName, err := r.resolveTableName(ctx, base, suggestedName != "")
	if err != nil {
		return nil, err
	}

	if err := r.db.LoadFile(ctx, tableName, format, absPath); err != nil {
		return nil, err
	}

	lf, err := r.record(ctx, tableName, absPath, filepath.Base(absPath), suggestedName, format)
	if err != nil {
		return nil, err
	}

	r.logger.Debug("registered file",
		"path", absPath, "table", tableName, "rows", lf.RowCount)

	return lf.clone(), nil
}

// RegisterDirectory loads every supported file under dir into a single table.
// All files must share one format; hidden files and unsupported extensions
// are skipped silently.
func (r *Registry) RegisterDirectory(ctx context.Context, dir, suggestedName string) (*LoadedFile, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}

	paths, format, err := scanDirectory(absDir)
	if err != nil {
		return nil, err
	}

	base := suggestedName
	if base == "" {
		base = filepath.Base(absDir)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	tableName, err := r.resolveTableName(ctx, base, suggestedName != "")
	if err != nil {
		return nil, err
	}

	if err := r.db.LoadFile(ctx, tableName, format, paths...); err != nil {
		return nil, err
	}

	lf, err := r.record(ctx, tableName, absDir, filepath.Base(absDir), suggestedName, format)
	if err != nil {
		return nil, err
	}

	r.logger.Debug("registered directory",
		"path", absDir, "table", tableName, "files", len(paths), "rows", lf.RowCount)

	return lf.clone(), nil
}

// scanDirectory collects supported files under dir and verifies they share
// one format. Returned paths are sorted for deterministic load order.
func scanDirectory(dir string) ([]string, adapter.Format, error) {
	var paths []string
	formats := make(map[adapter.Format]bool)

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() && path != dir {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if format, ok := DetectFormat(path); ok {
			paths = append(paths, path)
			formats[format] = true
		}
		return nil
	})
	if err != nil {
		return nil, "", fmt.Errorf("failed to scan %s: %w", dir, err)
	}

	if len(paths) == 0 {
		return nil, "", fmt.Errorf("%w: %s", ErrNoSupportedFiles, dir)
	}
	if len(formats) > 1 {
		names := make([]string, 0, len(formats))
		for f := range formats {
			names = append(names, string(f))
		}
		sort.Strings(names)
		return nil, "", fmt.Errorf("%w: %s", ErrMixedFormats, strings.Join(names, ", "))
	}

	sort.Strings(paths)
	var format adapter.Format
	for f := range formats {
		format = f
	}
	return paths, format, nil
}

// record captures post-load metadata and stores the LoadedFile.
// Caller must hold r.mu. On metadata failure the table is dropped again so
// the catalog and registry stay in sync.
func (r *Registry) record(ctx context.Context, tableName, absPath, baseName, suggestedName string, format adapter.Format) (*LoadedFile, error) {
	meta, err := r.db.GetTableMetadata(ctx, tableName)
	if err != nil {
		_ = r.db.DropTable(ctx, tableName)
		return nil, fmt.Errorf("failed to read table metadata: %w", err)
	}

	display := suggestedName
	if display == "" {
		display = baseName
	}

	lf := &LoadedFile{
		DisplayName: display,
		Path:        absPath,
		Table:       tableName,
		Format:      format,
		RowCount:    meta.RowCount,
		Columns:     meta.Columns,
		LoadedAt:    time.Now(),
	}

	r.byTable[tableName] = lf
	r.order = append(r.order, tableName)

	if r.watcher != nil {
		if err := r.watcher.add(absPath); err != nil {
			r.logger.Warn("failed to watch source", "path", absPath, "error", err)
		}
	}

	return lf, nil
}

// Unregister drops the bound table and removes the record. The name may be
// either the display name or the table name. The record is only removed once
// the drop succeeds, so a failed drop never leaves an orphaned catalog entry.
func (r *Registry) Unregister(ctx context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	lf, ok := r.lookupLocked(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	if err := r.db.DropTable(ctx, lf.Table); err != nil {
		return err
	}

	delete(r.byTable, lf.Table)
	for i, t := range r.order {
		if t == lf.Table {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}

	if r.watcher != nil {
		r.watcher.remove(lf.Path)
	}

	r.logger.Debug("unregistered file", "table", lf.Table, "path", lf.Path)
	return nil
}

// Refresh reloads a registered file from its source and clears the stale
// flag. The table keeps its name.
func (r *Registry) Refresh(ctx context.Context, name string) (*LoadedFile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	lf, ok := r.lookupLocked(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	paths := []string{lf.Path}
	format := lf.Format
	if info, err := os.Stat(lf.Path); err == nil && info.IsDir() {
		paths, format, err = scanDirectory(lf.Path)
		if err != nil {
			return nil, err
		}
	}

	if err := r.db.LoadFile(ctx, lf.Table, format, paths...); err != nil {
		return nil, err
	}

	meta, err := r.db.GetTableMetadata(ctx, lf.Table)
	if err != nil {
		return nil, fmt.Errorf("failed to read table metadata: %w", err)
	}

	lf.Format = format
	lf.RowCount = meta.RowCount
	lf.Columns = meta.Columns
	lf.LoadedAt = time.Now()
	lf.Stale = false

	r.logger.Debug("refreshed file", "table", lf.Table, "rows", lf.RowCount)
	return lf.clone(), nil
}

// List returns registered files in insertion order.
func (r *Registry) List() []*LoadedFile {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*LoadedFile, 0, len(r.order))
	for _, t := range r.order {
		out = append(out, r.byTable[t].clone())
	}
	return out
}

// Lookup finds a registered file by display name or table name.
func (r *Registry) Lookup(name string) (*LoadedFile, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	lf, ok := r.lookupLocked(name)
	if !ok {
		return nil, false
	}
	return lf.clone(), true
}

// Len returns the number of registered files.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.order)
}

func (r *Registry) lookupLocked(name string) (*LoadedFile, bool) {
	if lf, ok := r.byTable[name]; ok {
		return lf, true
	}
	for _, t := range r.order {
		if lf := r.byTable[t]; lf.DisplayName == name {
			return lf, true
		}
	}
	return nil, false
}

var invalidIdentChars = regexp.MustCompile(`[^a-zA-Z0-9_]`)

// SanitizeTableName turns an arbitrary name into a valid identifier.
func SanitizeTableName(base string) string {
	name := invalidIdentChars.ReplaceAllString(base, "_")
	if name == "" {
		return "data"
	}
	if c := name[0]; c >= '0' && c <= '9' {
		name = "_" + name
	}
	return name
}

// resolveTableName produces a unique table name for base. Derived names are
// suffixed _1, _2, ... on collision; explicit names fail with
// ErrDuplicateName instead. Caller must hold r.mu.
func (r *Registry) resolveTableName(ctx context.Context, base string, explicit bool) (string, error) {
	name := SanitizeTableName(base)

	taken := func(n string) (bool, error) {
		if _, ok := r.byTable[n]; ok {
			return true, nil
		}
		// Queries may have created tables outside the registry.
		return r.db.TableExists(ctx, n)
	}

	used, err := taken(name)
	if err != nil {
		return "", err
	}
	if !used {
		return name, nil
	}
	if explicit {
		return "", fmt.Errorf("%w: %s", ErrDuplicateName, name)
	}

	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s_%d", name, i)
		used, err := taken(candidate)
		if err != nil {
			return "", err
		}
		if !used {
			return candidate, nil
		}
	}
}

func (lf *LoadedFile) clone() *LoadedFile {
	out := *lf
	out.Columns = append([]adapter.Column(nil), lf.Columns...)
	return &out
}
