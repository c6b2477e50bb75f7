package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/agentflare-ai/xsdcheck"
	"github.com/agentflare-ai/xsdcheck/internal/config"
)

func validateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate every document once (default command)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runValidate(cmd)
		},
	}
}

func (a *app) runValidate(cmd *cobra.Command) error {
	rep := a.reporter(cmd)

	loader := a.loader(a.cfg.XSDDir)
	sources, err := loader.Resolve()
	if err != nil {
		rep.Error(err)
		return err
	}
	rep.SchemaFiles(len(sources))

	schema, err := loader.Compose(sources)
	if err != nil {
		rep.Error(err)
		return err
	}
	rep.SchemaCreated()

	return a.validateAll(cmd.Context(), rep, schema)
}

// validateAll validates the document directory. Schema loading is the
// caller's concern so watch mode can reuse a cached schema.
func (a *app) validateAll(ctx context.Context, rep *xsdcheck.Reporter, schema *xsdcheck.Schema) error {
	opts := []xsdcheck.ValidatorOption{xsdcheck.WithValidatorLogger(a.logger)}
	if a.cfg.Detail {
		opts = append(opts, xsdcheck.WithSource())
	}
	validator := xsdcheck.NewValidator(schema, config.AppFs, opts...)
	report, err := validator.ValidateDir(ctx, a.cfg.XMLDir, rep.Document)
	if err != nil {
		rep.Error(err)
		return err
	}
	rep.Summary(report)

	if a.cfg.Strict && report.Failed() > 0 {
		return errDocumentsFailed
	}
	return nil
}
