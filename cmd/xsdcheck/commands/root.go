// Package commands implements the xsdcheck command line.
package commands

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/agentflare-ai/xsdcheck"
	"github.com/agentflare-ai/xsdcheck/internal/config"
)

// errDocumentsFailed is returned in strict mode when a document is invalid.
// The documents were already reported, so nothing more is printed.
var errDocumentsFailed = errors.New("one or more documents failed validation")

// app is the state shared by all subcommands of one invocation.
type app struct {
	v       *viper.Viper
	cfgFile string
	cfg     *config.Config
	logger  *slog.Logger
}

// Execute is the main entry point for the CLI
func Execute() error {
	return NewRootCmd().Execute()
}

// NewRootCmd builds the command tree. Running it without a subcommand validates.
func NewRootCmd() *cobra.Command {
	a := &app{v: config.New()}

	root := &cobra.Command{
		Use:   "xsdcheck",
		Short: "Validate a directory of XML documents against a directory of XSD schemas",
		Long: `xsdcheck loads every .xsd file in the schema directory, following each
file's imports so dependencies are loaded first, and validates every .xml
file in the document directory against the combined schema.`,
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runValidate(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default .xsdcheck.yaml in . or ~)")
	flags.String(config.KeyXSD, "xsd", "directory of schema files")
	flags.String(config.KeyXML, "xml", "directory of documents to validate")
	flags.String(config.KeyScan, string(xsdcheck.ScanLines), "import scanner: lines or dom")
	flags.String(config.KeyKey, string(xsdcheck.KeyByPath), "duplicate detection key: path or name")
	flags.Bool(config.KeyStrict, false, "exit with status 1 if any document is invalid")
	flags.BoolP(config.KeyVerbose, "v", false, "enable debug logging")
	flags.Bool(config.KeyNoColor, false, "disable colored output")
	flags.Bool(config.KeyDetail, false, "print a diagnostic for every violation")
	flags.Int(config.KeyContextLines, 2, "source lines shown above a diagnostic")
	if err := a.v.BindPFlags(flags); err != nil {
		panic(err)
	}

	root.AddCommand(
		validateCmd(a),
		orderCmd(a),
		watchCmd(a),
		versionCmd(),
	)
	return root
}

func (a *app) init(cmd *cobra.Command) error {
	cfg, err := config.Load(a.v, a.cfgFile)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		return err
	}
	a.cfg = cfg

	level := slog.LevelWarn
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	if cfg.File != "" {
		a.logger.Debug("using config file", "file", cfg.File)
	}
	return nil
}

func (a *app) reporter(cmd *cobra.Command) *xsdcheck.Reporter {
	return &xsdcheck.Reporter{
		Out:          cmd.OutOrStdout(),
		Err:          cmd.ErrOrStderr(),
		Color:        !a.cfg.NoColor,
		Detail:       a.cfg.Detail,
		ContextLines: a.cfg.ContextLines,
	}
}

func (a *app) loader(dir string) *xsdcheck.SchemaLoader {
	return xsdcheck.NewSchemaLoader(config.AppFs, dir,
		xsdcheck.WithScanner(a.cfg.Scan.Scanner()),
		xsdcheck.WithKeyMode(a.cfg.Key),
		xsdcheck.WithLogger(a.logger),
	)
}

func (a *app) loadSchema(dir string) (*xsdcheck.Schema, error) {
	return a.loader(dir).Load()
}
