// Package xsdcheck validates directories of XML documents against a set of
// XSD files, loading the schemas in import-dependency order.
package xsdcheck

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/jacoelho/xsd"
	"github.com/spf13/afero"
)

var (
	// ErrCycle is matched by errors.Is for every *CycleError.
	ErrCycle = errors.New("circular schema dependency")

	// ErrNoSchemas is returned when there is nothing to compile.
	ErrNoSchemas = errors.New("no schema files found")
)

// CycleError reports a dependency cycle. Chain starts and ends with the same path.
type CycleError struct {
	Chain []string
}

func (e *CycleError) Error() string {
	names := make([]string, len(e.Chain))
	for i, p := range e.Chain {
		names[i] = filepath.Base(p)
	}
	return fmt.Sprintf("circular dependency detected: %s", strings.Join(names, " -> "))
}

func (e *CycleError) Is(target error) bool {
	return target == ErrCycle
}

// KeyMode controls how already-handled schema files are recognised.
type KeyMode string

const (
	// KeyByPath treats two files as the same schema only if their resolved
	// paths are equal.
	KeyByPath KeyMode = "path"
	// KeyByName treats files with the same bare filename as the same schema,
	// so a second same-named file in another directory is skipped.
	KeyByName KeyMode = "name"
)

// ParseKeyMode parses a key mode name.
func ParseKeyMode(s string) (KeyMode, error) {
	switch KeyMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", KeyByPath:
		return KeyByPath, nil
	case KeyByName:
		return KeyByName, nil
	default:
		return "", fmt.Errorf("unknown key mode %q (want %q or %q)", s, KeyByPath, KeyByName)
	}
}

// SchemaFile is one schema definition file discovered by the loader.
type SchemaFile struct {
	// Name is the bare filename.
	Name string
	// Path is the cleaned absolute path within the loader's filesystem.
	Path string
	// TargetNamespace is the targetNamespace of the schema element.
	TargetNamespace string
	// Imports holds the dependency locations as written in the file.
	Imports []string
	// Deps holds the resolved paths of Imports.
	Deps []string
}

// SchemaLoader discovers the schema files of a directory and loads them in
// dependency order.
type SchemaLoader struct {
	// Dir is the schema directory.
	Dir string

	fs          afero.Fs
	scanner     ImportScanner
	keyMode     KeyMode
	loadOptions xsd.LoadOptions
	logger      *slog.Logger
}

// LoaderOption configures a SchemaLoader.
type LoaderOption func(*SchemaLoader)

// WithScanner sets the import scanner. The default is LineScanner.
func WithScanner(s ImportScanner) LoaderOption {
	return func(sl *SchemaLoader) {
		if s != nil {
			sl.scanner = s
		}
	}
}

// WithKeyMode sets how handled files are keyed. The default is KeyByPath.
func WithKeyMode(m KeyMode) LoaderOption {
	return func(sl *SchemaLoader) {
		if m != "" {
			sl.keyMode = m
		}
	}
}

// WithLoadOptions sets the schema engine load options used by Load.
func WithLoadOptions(opts xsd.LoadOptions) LoaderOption {
	return func(sl *SchemaLoader) {
		sl.loadOptions = opts
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) LoaderOption {
	return func(sl *SchemaLoader) {
		if l != nil {
			sl.logger = l
		}
	}
}

// NewSchemaLoader creates a loader for the schema files in dir.
func NewSchemaLoader(fs afero.Fs, dir string, opts ...LoaderOption) *SchemaLoader {
	sl := &SchemaLoader{
		Dir:         dir,
		fs:          fs,
		scanner:     LineScanner{},
		keyMode:     KeyByPath,
		loadOptions: xsd.NewLoadOptions(),
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(sl)
	}
	return sl
}

// Load resolves the schema files and composes them into a single Schema.
func (sl *SchemaLoader) Load() (*Schema, error) {
	sources, err := sl.Resolve()
	if err != nil {
		return nil, err
	}
	return sl.Compose(sources)
}

// Compose compiles sources, as returned by Resolve, with the loader's
// filesystem and load options.
func (sl *SchemaLoader) Compose(sources []*SchemaFile) (*Schema, error) {
	return Compose(sl.fs, sources, sl.loadOptions)
}

// resolution holds the state of a single Resolve call.
type resolution struct {
	ordered []*SchemaFile
	handled map[string]bool
	// stack holds the paths currently being resolved, outermost first.
	stack   []string
	loading map[string]bool
	// done holds the paths whose dependencies have all been resolved.
	done map[string]bool
	// files caches records so a file shared by several importers is read once.
	files map[string]*SchemaFile
}

// Resolve returns the schema files of the directory and everything they import,
// ordered so that each file comes after all of its dependencies.
func (sl *SchemaLoader) Resolve() ([]*SchemaFile, error) {
	dir, err := filepath.Abs(sl.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve schema directory %s: %w", sl.Dir, err)
	}

	entries, err := listFiles(sl.fs, dir, ".xsd")
	if err != nil {
		return nil, fmt.Errorf("failed to list schema directory %s: %w", sl.Dir, err)
	}

	r := &resolution{
		handled: make(map[string]bool),
		loading: make(map[string]bool),
		done:    make(map[string]bool),
		files:   make(map[string]*SchemaFile),
	}
	for _, path := range entries {
		if r.handled[sl.key(path)] {
			continue
		}
		if err := sl.resolveRecursive(r, path); err != nil {
			return nil, err
		}
	}

	return r.ordered, nil
}

func (sl *SchemaLoader) resolveRecursive(r *resolution, path string) error {
	if r.loading[path] {
		start := 0
		for i, p := range r.stack {
			if p == path {
				start = i
				break
			}
		}
		chain := append(append([]string{}, r.stack[start:]...), path)
		return &CycleError{Chain: chain}
	}
	if r.done[path] {
		return nil
	}

	file, err := sl.readSchemaFile(r, path)
	if err != nil {
		return err
	}

	r.loading[path] = true
	r.stack = append(r.stack, path)
	defer func() {
		delete(r.loading, path)
		r.stack = r.stack[:len(r.stack)-1]
	}()

	for _, dep := range file.Deps {
		if err := sl.resolveRecursive(r, dep); err != nil {
			return err
		}
	}

	r.done[path] = true
	key := sl.key(path)
	if r.handled[key] {
		sl.logger.Warn("schema skipped, same name already loaded", "file", filepath.Base(path), "path", path)
		return nil
	}
	r.handled[key] = true
	r.ordered = append(r.ordered, file)
	sl.logger.Debug("schema resolved", "file", file.Name, "path", file.Path, "deps", len(file.Deps), "position", len(r.ordered))

	return nil
}

// readSchemaFile reads and scans a schema file, once per path.
func (sl *SchemaLoader) readSchemaFile(r *resolution, path string) (*SchemaFile, error) {
	if file, ok := r.files[path]; ok {
		return file, nil
	}

	data, err := afero.ReadFile(sl.fs, path)
	if err != nil {
		if len(r.stack) > 0 {
			return nil, fmt.Errorf("failed to read dependency %s of %s: %w", path, r.stack[len(r.stack)-1], err)
		}
		return nil, fmt.Errorf("failed to read schema %s: %w", path, err)
	}

	imports, err := sl.scanner.Scan(path, data)
	if err != nil {
		return nil, err
	}

	namespace, err := readTargetNamespace(path, data)
	if err != nil {
		return nil, err
	}

	file := &SchemaFile{
		Name:            filepath.Base(path),
		Path:            path,
		TargetNamespace: namespace,
		Imports:         imports,
	}
	for _, location := range imports {
		dep, err := resolveRelative(location, path)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve import %q in %s: %w", location, path, err)
		}
		file.Deps = append(file.Deps, dep)
	}
	r.files[path] = file

	return file, nil
}

func (sl *SchemaLoader) key(path string) string {
	if sl.keyMode == KeyByName {
		return filepath.Base(path)
	}
	return path
}

// resolveRelative resolves a schema location against the file that declares it.
func resolveRelative(location, base string) (string, error) {
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		return "", fmt.Errorf("remote schema locations are not supported")
	}
	location = filepath.FromSlash(location)
	if filepath.IsAbs(location) {
		return filepath.Clean(location), nil
	}
	return filepath.Join(filepath.Dir(base), location), nil
}

// listFiles returns the regular files in dir whose name ends in ext, ignoring
// case, sorted by name.
func listFiles(fs afero.Fs, dir, ext string) ([]string, error) {
	infos, err := afero.ReadDir(fs, dir)
	if err != nil {
		return nil, err
	}

	var paths []string
	for _, info := range infos {
		if !info.Mode().IsRegular() {
			continue
		}
		if !strings.HasSuffix(strings.ToLower(info.Name()), ext) {
			continue
		}
		paths = append(paths, filepath.Join(dir, info.Name()))
	}
	return paths, nil
}
