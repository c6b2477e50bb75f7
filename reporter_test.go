package xsdcheck

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	xsderrors "github.com/jacoelho/xsd/errors"
)

func newTestReporter() (*Reporter, *bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer
	return &Reporter{Out: &out, Err: &errOut}, &out, &errOut
}

func TestReporterDocument(t *testing.T) {
	r, out, _ := newTestReporter()

	r.Document(Result{Name: "good.xml"})
	r.Document(Result{Name: "bad.xml", Err: errors.New("missing attribute id")})

	want := "Validating: good.xml\nXML is valid.\n" +
		"Validating: bad.xml\nException: missing attribute id\n"
	if out.String() != want {
		t.Errorf("Unexpected output:\n%s", out.String())
	}
}

func TestReporterDocumentDetail(t *testing.T) {
	r, out, _ := newTestReporter()
	r.Detail = true

	r.Document(Result{
		Name:   "bad.xml",
		Path:   "xml/bad.xml",
		Err:    errors.New("invalid"),
		Source: []byte(badDoc),
		Violations: []xsderrors.Validation{{
			Code:    string(xsderrors.ErrRequiredAttributeMissing),
			Message: "required attribute id missing",
			Line:    3,
			Column:  3,
		}},
	})

	if !strings.Contains(out.String(), "error[cvc-complex-type.4]: required attribute id missing") {
		t.Errorf("Expected diagnostic block, got:\n%s", out.String())
	}
	if !strings.Contains(out.String(), " --> xml/bad.xml:3:3") {
		t.Errorf("Expected position line, got:\n%s", out.String())
	}
}

func TestReporterSchemaAndSummary(t *testing.T) {
	r, out, errOut := newTestReporter()

	r.SchemaLoaded(&Schema{Sources: []*SchemaFile{{Name: "base.xsd"}, {Name: "ext.xsd"}}})
	r.Summary(&Report{Results: []Result{{Name: "a.xml"}, {Name: "b.xml", Err: errors.New("x")}}})
	r.Error(errors.New("failed to read schema"))

	want := "Read 2 schema files.\nCreated schema.\n2 documents: 1 valid, 1 invalid.\n"
	if out.String() != want {
		t.Errorf("Unexpected output:\n%s", out.String())
	}
	if errOut.String() != "Error: failed to read schema\n" {
		t.Errorf("Unexpected error output %q", errOut.String())
	}
}

func TestReporterOrder(t *testing.T) {
	r, out, _ := newTestReporter()

	r.Order([]*SchemaFile{{Path: "/x/base.xsd"}, {Path: "/x/ext.xsd"}})
	if out.String() != "  1  /x/base.xsd\n  2  /x/ext.xsd\n" {
		t.Errorf("Unexpected output %q", out.String())
	}
}
