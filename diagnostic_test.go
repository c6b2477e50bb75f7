package xsdcheck

import (
	"strings"
	"testing"

	xsderrors "github.com/jacoelho/xsd/errors"
)

func TestDiagnosticConverter(t *testing.T) {
	violations := []xsderrors.Validation{
		{
			Code:     string(xsderrors.ErrRequiredAttributeMissing),
			Message:  "required attribute id missing",
			Path:     "/order/item",
			Expected: []string{"id"},
			Line:     3,
			Column:   3,
		},
		{
			Code:    string(xsderrors.ErrIDRefNotFound),
			Message: "IDREF not found",
			Actual:  "x1",
		},
	}

	diags := NewDiagnosticConverter("bad.xml", badDoc).Convert(violations)
	if len(diags) != 2 {
		t.Fatalf("Expected 2 diagnostics, got %d", len(diags))
	}

	d := diags[0]
	if d.Severity != SeverityError {
		t.Errorf("Expected error severity, got %s", d.Severity)
	}
	if d.Position != (Position{File: "bad.xml", Line: 3, Column: 3}) {
		t.Errorf("Unexpected position %+v", d.Position)
	}
	if !strings.HasPrefix(d.SpecRef, "W3C XML Schema 1.0 Part 1") {
		t.Errorf("Expected W3C rule reference, got %q", d.SpecRef)
	}
	if len(d.Hints) != 1 || d.Hints[0] != `Add required attribute: id="..."` {
		t.Errorf("Unexpected hints %v", d.Hints)
	}

	if diags[1].Message != "Referenced ID 'x1' does not exist in document" {
		t.Errorf("Unexpected message %q", diags[1].Message)
	}
}

func TestErrorFormatterFormat(t *testing.T) {
	diag := Diagnostic{
		Severity: SeverityError,
		Code:     "cvc-complex-type.4",
		Message:  "required attribute id missing",
		Position: Position{File: "bad.xml", Line: 3, Column: 3},
		Path:     "/order/item",
		SpecRef:  "W3C XML Schema 1.0 Part 1, Validation Rule cvc-complex-type.4",
		Hints:    []string{`Add required attribute: id="..."`},
	}

	out := (&ErrorFormatter{ContextLines: 1}).Format(diag, badDoc)

	want := "error[cvc-complex-type.4]: required attribute id missing\n" +
		" --> bad.xml:3:3\n" +
		"     = at: /order/item\n" +
		`   2 | <order xmlns="urn:ext">` + "\n" +
		"   3 |   <item/>\n" +
		"     |   ^\n" +
		"     |\n" +
		`     = help: Add required attribute: id="..."` + "\n" +
		"     = note: see W3C XML Schema 1.0 Part 1, Validation Rule cvc-complex-type.4\n"
	if out != want {
		t.Errorf("Format() =\n%s\nwant\n%s", out, want)
	}
}

func TestErrorFormatterWithoutPosition(t *testing.T) {
	diag := Diagnostic{Severity: SeverityWarning, Code: "xsd-warn-x", Message: "odd", Position: Position{File: "a.xml"}}

	out := (&ErrorFormatter{}).Format(diag, "<a/>")
	if out != "warning[xsd-warn-x]: odd\n --> a.xml\n" {
		t.Errorf("Unexpected output %q", out)
	}
}
