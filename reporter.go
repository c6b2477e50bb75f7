package xsdcheck

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// Reporter writes human-readable progress for a validation run.
type Reporter struct {
	Out io.Writer
	Err io.Writer
	// Color enables ANSI colors.
	Color bool
	// Detail prints a diagnostic block for every violation of a failed document.
	Detail bool
	// ContextLines is the number of source lines shown above a diagnostic.
	ContextLines int
}

// SchemaFiles reports how many schema files were resolved, before compiling.
func (r *Reporter) SchemaFiles(n int) {
	fmt.Fprintf(r.Out, "Read %d schema files.\n", n)
}

// SchemaCreated reports a successful compile.
func (r *Reporter) SchemaCreated() {
	fmt.Fprintln(r.Out, "Created schema.")
}

// SchemaLoaded reports a schema that was resolved and compiled in one step.
func (r *Reporter) SchemaLoaded(s *Schema) {
	r.SchemaFiles(s.Count())
	r.SchemaCreated()
}

// Error reports a fatal error.
func (r *Reporter) Error(err error) {
	fmt.Fprintf(r.Err, "%s %v\n", paint(r.Color, color.FgRed, color.Bold).Sprint("Error:"), err)
}

// Document reports the outcome of one document.
func (r *Reporter) Document(res Result) {
	fmt.Fprintf(r.Out, "Validating: %s\n", res.Name)
	if res.Valid() {
		fmt.Fprintln(r.Out, paint(r.Color, color.FgGreen).Sprint("XML is valid."))
		return
	}

	fmt.Fprintf(r.Out, "%s %v\n", paint(r.Color, color.FgRed).Sprint("Exception:"), res.Err)
	if !r.Detail || len(res.Violations) == 0 {
		return
	}

	formatter := &ErrorFormatter{Color: r.Color, ContextLines: r.ContextLines}
	source := string(res.Source)
	for _, diag := range NewDiagnosticConverter(res.Path, source).Convert(res.Violations) {
		fmt.Fprint(r.Out, formatter.Format(diag, source))
		fmt.Fprintln(r.Out)
	}
}

// Summary reports the totals of a run.
func (r *Reporter) Summary(report *Report) {
	failed := report.Failed()
	line := fmt.Sprintf("%d documents: %d valid, %d invalid.", len(report.Results), report.Passed(), failed)
	if failed > 0 {
		line = paint(r.Color, color.FgRed, color.Bold).Sprint(line)
	} else {
		line = paint(r.Color, color.FgGreen, color.Bold).Sprint(line)
	}
	fmt.Fprintln(r.Out, line)
}

// Order prints the load order of schema files, one per line.
func (r *Reporter) Order(sources []*SchemaFile) {
	for i, src := range sources {
		fmt.Fprintf(r.Out, "%3d  %s\n", i+1, src.Path)
	}
}
