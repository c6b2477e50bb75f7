package xsdcheck

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"

	"github.com/agentflare-ai/go-xmldom"
)

// XSDNamespace is the XML Schema namespace URI.
const XSDNamespace = "http://www.w3.org/2001/XMLSchema"

// ImportScanner extracts the dependency locations declared by a schema file.
type ImportScanner interface {
	Scan(name string, data []byte) ([]string, error)
}

// ScanMode selects an ImportScanner by name.
type ScanMode string

const (
	ScanLines ScanMode = "lines"
	ScanDOM   ScanMode = "dom"
)

// ParseScanMode parses a scan mode name.
func ParseScanMode(s string) (ScanMode, error) {
	switch ScanMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ScanLines:
		return ScanLines, nil
	case ScanDOM:
		return ScanDOM, nil
	default:
		return "", fmt.Errorf("unknown scan mode %q (want %q or %q)", s, ScanLines, ScanDOM)
	}
}

// Scanner returns the ImportScanner for the mode.
func (m ScanMode) Scanner() ImportScanner {
	if m == ScanDOM {
		return DOMScanner{}
	}
	return LineScanner{}
}

const locationMarker = `schemaLocation="`

// LineScanner detects imports by substring matching. Any line containing both
// "import" and `schemaLocation="` counts, including lines inside comments, and
// only the first location on a line is taken. An empty location
// (schemaLocation="") names no file and is skipped.
type LineScanner struct{}

// Scan implements ImportScanner.
func (LineScanner) Scan(name string, data []byte) ([]string, error) {
	var locations []string

	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), len(data)+1)
	for sc.Scan() {
		line := sc.Text()
		if !strings.Contains(line, "import") {
			continue
		}
		_, rest, ok := strings.Cut(line, locationMarker)
		if !ok {
			continue
		}
		location, _, _ := strings.Cut(rest, `"`)
		if location == "" {
			continue
		}
		locations = append(locations, location)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", name, err)
	}

	return locations, nil
}

// DOMScanner parses the schema and collects schemaLocation from top-level
// xs:import, xs:include and xs:redefine elements. Commented-out directives are
// not reported.
type DOMScanner struct{}

// Scan implements ImportScanner.
func (DOMScanner) Scan(name string, data []byte) ([]string, error) {
	doc, err := xmldom.NewDecoderFromBytes(data).Decode()
	if err != nil {
		return nil, fmt.Errorf("failed to parse schema %s: %w", name, err)
	}

	root := doc.DocumentElement()
	if root == nil {
		return nil, fmt.Errorf("schema %s has no root element", name)
	}
	if string(root.NamespaceURI()) != XSDNamespace || string(root.LocalName()) != "schema" {
		return nil, fmt.Errorf("%s is not an XML Schema document (root <%s>)", name, root.TagName())
	}

	var locations []string
	children := root.Children()
	for i := uint(0); i < children.Length(); i++ {
		child := children.Item(i)
		if child == nil || string(child.NamespaceURI()) != XSDNamespace {
			continue
		}
		switch string(child.LocalName()) {
		case "import", "include", "redefine":
			if location := child.GetAttribute("schemaLocation"); location != "" {
				locations = append(locations, string(location))
			}
		}
	}

	return locations, nil
}

// readTargetNamespace returns the targetNamespace attribute of the schema root.
func readTargetNamespace(name string, data []byte) (string, error) {
	doc, err := xmldom.NewDecoderFromBytes(data).Decode()
	if err != nil {
		return "", fmt.Errorf("failed to parse schema %s: %w", name, err)
	}
	root := doc.DocumentElement()
	if root == nil {
		return "", fmt.Errorf("schema %s has no root element", name)
	}
	return string(root.GetAttribute("targetNamespace")), nil
}
