package xsdcheck

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	xsderrors "github.com/jacoelho/xsd/errors"
)

// Diagnostic represents a rustc-style validation diagnostic
type Diagnostic struct {
	Severity Severity `json:"severity"`
	Code     string   `json:"code"`
	Message  string   `json:"message"`
	Position Position `json:"position"`
	Path     string   `json:"path,omitempty"`
	SpecRef  string   `json:"spec_ref,omitempty"`
	Hints    []string `json:"hints,omitempty"`
}

// Severity represents the severity level of a diagnostic
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Position contains source position information for a node
type Position struct {
	File   string `json:"file"`
	Line   int    `json:"line"`
	Column int    `json:"column"`
}

// DiagnosticConverter converts engine violations to rustc-style diagnostics
type DiagnosticConverter struct {
	fileName string
	source   string
}

// NewDiagnosticConverter creates a new converter
func NewDiagnosticConverter(fileName, source string) *DiagnosticConverter {
	return &DiagnosticConverter{
		fileName: fileName,
		source:   source,
	}
}

// Convert converts violations to diagnostics
func (dc *DiagnosticConverter) Convert(violations []xsderrors.Validation) []Diagnostic {
	diagnostics := make([]Diagnostic, 0, len(violations))
	for _, v := range violations {
		diagnostics = append(diagnostics, dc.convertViolation(v))
	}
	return diagnostics
}

func (dc *DiagnosticConverter) convertViolation(v xsderrors.Validation) Diagnostic {
	return Diagnostic{
		Severity: dc.getSeverity(v.Code),
		Code:     v.Code,
		Message:  dc.formatMessage(v),
		Position: Position{File: dc.fileName, Line: v.Line, Column: v.Column},
		Path:     v.Path,
		SpecRef:  dc.getSpecRef(v.Code),
		Hints:    dc.generateHints(v),
	}
}

func (dc *DiagnosticConverter) getSeverity(code string) Severity {
	if strings.HasPrefix(code, "xsd-warn-") {
		return SeverityWarning
	}
	return SeverityError
}

// formatMessage creates a user-friendly message
func (dc *DiagnosticConverter) formatMessage(v xsderrors.Validation) string {
	switch xsderrors.ErrorCode(v.Code) {
	case xsderrors.ErrUnexpectedElement, xsderrors.ErrContentModelInvalid:
		if v.Actual != "" && len(v.Expected) > 0 {
			return fmt.Sprintf("Invalid element '%s'. Expected one of: %s",
				v.Actual, strings.Join(v.Expected, ", "))
		}
	case xsderrors.ErrIDRefNotFound:
		if v.Actual != "" {
			return fmt.Sprintf("Referenced ID '%s' does not exist in document", v.Actual)
		}
	}
	return v.Message
}

// getSpecRef returns the specification reference for validation rule codes
func (dc *DiagnosticConverter) getSpecRef(code string) string {
	if strings.HasPrefix(code, "cvc-") {
		return "W3C XML Schema 1.0 Part 1, Validation Rule " + code
	}
	return ""
}

// generateHints creates helpful hints based on the violation
func (dc *DiagnosticConverter) generateHints(v xsderrors.Validation) []string {
	var hints []string

	switch xsderrors.ErrorCode(v.Code) {
	case xsderrors.ErrRequiredAttributeMissing:
		if len(v.Expected) == 1 {
			hints = append(hints, fmt.Sprintf("Add required attribute: %s=\"...\"", v.Expected[0]))
		}
	case xsderrors.ErrRequiredElementMissing:
		if len(v.Expected) > 0 {
			hints = append(hints, fmt.Sprintf("Add one of: %s", strings.Join(v.Expected, ", ")))
		}
	case xsderrors.ErrAttributeNotDeclared:
		if len(v.Expected) > 0 {
			hints = append(hints, fmt.Sprintf("Did you mean: %s?", strings.Join(v.Expected, " or ")))
		}
	case xsderrors.ErrElementNotDeclared, xsderrors.ErrValidateRootNotDeclared:
		hints = append(hints,
			"Check the element name and its namespace",
			"The declaring schema must be in the schema directory or imported by it")
	case xsderrors.ErrDuplicateID:
		hints = append(hints, "Each id attribute value must be unique within the document")
	case xsderrors.ErrIDRefNotFound:
		hints = append(hints,
			fmt.Sprintf("Ensure there is an element with id='%s' in the document", v.Actual),
			"IDs are case-sensitive")
	case xsderrors.ErrXMLParse:
		hints = append(hints, "The document is not well-formed XML")
	}

	if len(hints) == 0 && len(v.Expected) > 0 {
		hints = append(hints, fmt.Sprintf("Expected: %s", strings.Join(v.Expected, ", ")))
	}

	return hints
}

// ErrorFormatter provides rustc-style error formatting
type ErrorFormatter struct {
	Color        bool
	ContextLines int
}

// paint returns a color that is applied only when enabled, regardless of
// whether the output is a terminal.
func paint(enabled bool, attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	if enabled {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c
}

// Format formats a diagnostic in rustc style
func (ef *ErrorFormatter) Format(diag Diagnostic, source string) string {
	var sb strings.Builder

	severity := string(diag.Severity)
	switch diag.Severity {
	case SeverityError:
		severity = paint(ef.Color, color.FgRed, color.Bold).Sprint(severity)
	case SeverityWarning:
		severity = paint(ef.Color, color.FgYellow, color.Bold).Sprint(severity)
	case SeverityInfo:
		severity = paint(ef.Color, color.FgCyan, color.Bold).Sprint(severity)
	}
	fmt.Fprintf(&sb, "%s[%s]: %s\n", severity, diag.Code, diag.Message)

	if diag.Position.Line > 0 {
		fmt.Fprintf(&sb, " --> %s:%d:%d\n", diag.Position.File, diag.Position.Line, diag.Position.Column)
	} else {
		fmt.Fprintf(&sb, " --> %s\n", diag.Position.File)
	}
	if diag.Path != "" {
		fmt.Fprintf(&sb, "     = at: %s\n", diag.Path)
	}

	if source != "" && diag.Position.Line > 0 {
		lines := strings.Split(source, "\n")
		if diag.Position.Line <= len(lines) {
			first := max(diag.Position.Line-ef.ContextLines, 1)
			for n := first; n <= diag.Position.Line; n++ {
				fmt.Fprintf(&sb, "%4d | %s\n", n, strings.TrimRight(lines[n-1], "\r"))
			}
			sb.WriteString("     | ")
			if diag.Position.Column > 0 {
				sb.WriteString(strings.Repeat(" ", diag.Position.Column-1))
				sb.WriteString(paint(ef.Color, color.FgRed, color.Bold).Sprint("^"))
			}
			sb.WriteString("\n")
		}
	}

	if len(diag.Hints) > 0 {
		sb.WriteString("     |\n")
		for _, hint := range diag.Hints {
			sb.WriteString("     = help: " + hint + "\n")
		}
	}

	if diag.SpecRef != "" {
		sb.WriteString("     = note: see " + diag.SpecRef + "\n")
	}

	return sb.String()
}
