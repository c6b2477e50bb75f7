package xsdcheck

import (
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/agentflare-ai/go-xmldom"
	"github.com/jacoelho/xsd"
	"github.com/spf13/afero"
)

// composeDocument is the name of the generated schema that pulls in every
// source. It lives in an in-memory layer and never touches the real filesystem.
const composeDocument = "xsdcheck-compose.xsd"

// Schema is a compiled schema composed from an ordered list of schema files.
// It is immutable and safe for concurrent use.
type Schema struct {
	// Sources lists the contributing files in load order.
	Sources []*SchemaFile

	compiled *xsd.Schema
}

// Count returns the number of schema files the schema was composed from.
func (s *Schema) Count() int {
	return len(s.Sources)
}

// Validate validates a document read from r.
func (s *Schema) Validate(r io.Reader) error {
	if s == nil || s.compiled == nil {
		return fmt.Errorf("schema not loaded")
	}
	return s.compiled.Validate(r)
}

// Compose compiles sources into one Schema.
//
// The engine is given a single generated root that imports (or, for
// no-namespace files, includes) every source in order, so a file reached both
// directly and through another file's import is loaded once.
func Compose(fsys afero.Fs, sources []*SchemaFile, opts xsd.LoadOptions) (*Schema, error) {
	if len(sources) == 0 {
		return nil, ErrNoSchemas
	}

	root := filesystemRoot(sources[0].Path)
	var sb strings.Builder
	sb.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	sb.WriteString(`<xs:schema xmlns:xs="` + XSDNamespace + `">` + "\n")
	for _, src := range sources {
		location, err := rootRelative(root, src.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to add schema %s: %w", src.Path, err)
		}
		if src.TargetNamespace == "" {
			fmt.Fprintf(&sb, "  <xs:include schemaLocation=\"%s\"/>\n", xmldom.EscapeString(location))
			continue
		}
		fmt.Fprintf(&sb, "  <xs:import namespace=\"%s\" schemaLocation=\"%s\"/>\n",
			xmldom.EscapeString(src.TargetNamespace), xmldom.EscapeString(location))
	}
	sb.WriteString("</xs:schema>\n")

	overlay := afero.NewCopyOnWriteFs(afero.NewReadOnlyFs(fsys), afero.NewMemMapFs())
	if err := afero.WriteFile(overlay, filepath.Join(root, composeDocument), []byte(sb.String()), 0o644); err != nil {
		return nil, fmt.Errorf("failed to stage composed schema: %w", err)
	}

	set := xsd.NewSchemaSet().WithLoadOptions(opts)
	if err := set.AddFS(afero.NewIOFS(afero.NewBasePathFs(overlay, root)), composeDocument); err != nil {
		return nil, fmt.Errorf("failed to add composed schema: %w", err)
	}

	compiled, err := set.Compile()
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}

	return &Schema{
		Sources:  sources,
		compiled: compiled,
	}, nil
}

// filesystemRoot returns the root directory of the volume holding path.
func filesystemRoot(path string) string {
	return filepath.VolumeName(path) + string(filepath.Separator)
}

// rootRelative converts an absolute path into an io/fs location under root.
func rootRelative(root, path string) (string, error) {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return "", err
	}
	location := filepath.ToSlash(rel)
	if !fs.ValidPath(location) {
		return "", fmt.Errorf("%s is outside %s", path, root)
	}
	return location, nil
}
