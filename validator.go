package xsdcheck

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	xsderrors "github.com/jacoelho/xsd/errors"
	"github.com/spf13/afero"
)

// Result is the outcome of validating one document.
type Result struct {
	// Name is the bare filename.
	Name string
	Path string
	// Err is nil when the document is valid.
	Err error
	// Violations holds the schema violations behind Err, if any.
	Violations []xsderrors.Validation
	// Source is the content of a failed document. It is kept only by a
	// Validator created with WithSource.
	Source []byte
}

// Valid reports whether the document passed validation.
func (r Result) Valid() bool {
	return r.Err == nil
}

// Report aggregates the results of a directory run.
type Report struct {
	Results []Result
}

// Passed returns the number of valid documents.
func (r *Report) Passed() int {
	n := 0
	for _, res := range r.Results {
		if res.Valid() {
			n++
		}
	}
	return n
}

// Failed returns the number of invalid documents.
func (r *Report) Failed() int {
	return len(r.Results) - r.Passed()
}

// Validator validates XML documents against a composed schema.
type Validator struct {
	schema     *Schema
	fs         afero.Fs
	logger     *slog.Logger
	keepSource bool
}

// ValidatorOption configures a Validator.
type ValidatorOption func(*Validator)

// WithValidatorLogger sets the logger.
func WithValidatorLogger(l *slog.Logger) ValidatorOption {
	return func(v *Validator) {
		if l != nil {
			v.logger = l
		}
	}
}

// WithSource keeps the content of failed documents in Result.Source so
// diagnostics can quote it.
func WithSource() ValidatorOption {
	return func(v *Validator) {
		v.keepSource = true
	}
}

// NewValidator creates a validator for schema reading documents from fs.
func NewValidator(schema *Schema, fs afero.Fs, opts ...ValidatorOption) *Validator {
	v := &Validator{
		schema: schema,
		fs:     fs,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// ValidateFile validates a single document. Every failure, including a
// panic inside the engine, is reported in the Result.
func (v *Validator) ValidateFile(path string) (res Result) {
	res = Result{Name: filepath.Base(path), Path: path}
	defer func() {
		if p := recover(); p != nil {
			res.Err = fmt.Errorf("validator panic: %v", p)
			res.Violations = nil
		}
	}()

	data, err := afero.ReadFile(v.fs, path)
	if err != nil {
		res.Err = fmt.Errorf("failed to read %s: %w", path, err)
		return res
	}
	if err := v.schema.Validate(bytes.NewReader(data)); err != nil {
		res.Err = err
		if v.keepSource {
			res.Source = data
		}
		if violations, ok := xsderrors.AsValidations(err); ok {
			res.Violations = violations
		}
	}

	v.logger.Debug("document validated", "file", res.Name, "valid", res.Valid(), "violations", len(res.Violations))
	return res
}

// ValidateDir validates every .xml file in dir in name order. fn, if not nil,
// is called after each document. Document failures never stop the run; an
// error is returned only if dir cannot be listed or ctx is done.
func (v *Validator) ValidateDir(ctx context.Context, dir string, fn func(Result)) (*Report, error) {
	paths, err := listFiles(v.fs, dir, ".xml")
	if err != nil {
		return nil, fmt.Errorf("failed to list document directory %s: %w", dir, err)
	}

	report := &Report{Results: make([]Result, 0, len(paths))}
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		res := v.ValidateFile(path)
		report.Results = append(report.Results, res)
		if fn != nil {
			fn(res)
		}
	}

	return report, nil
}
