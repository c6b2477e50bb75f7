package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/agentflare-ai/xsdcheck"
	"github.com/agentflare-ai/xsdcheck/internal/config"
	"github.com/agentflare-ai/xsdcheck/internal/watch"
)

func watchCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Validate, then validate again whenever a schema or document changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return a.runWatch(ctx, cmd)
		},
	}
	cmd.Flags().Duration(config.KeyDebounce, watch.DefaultDebounce, "quiet period before re-validating")
	if err := a.v.BindPFlag(config.KeyDebounce, cmd.Flags().Lookup(config.KeyDebounce)); err != nil {
		panic(err)
	}
	return cmd
}

// dirWatcher is the part of watch.Watcher a session needs.
type dirWatcher interface {
	Add(dir string) error
}

// watchSession re-validates the document directory, reusing the compiled
// schema until a schema file changes.
type watchSession struct {
	app     *app
	rep     *xsdcheck.Reporter
	out     io.Writer
	cache   *xsdcheck.SchemaCache
	watcher dirWatcher
}

func (a *app) newWatchSession(rep *xsdcheck.Reporter, out io.Writer, load xsdcheck.LoadFunc, w dirWatcher) *watchSession {
	return &watchSession{
		app:     a,
		rep:     rep,
		out:     out,
		cache:   xsdcheck.NewSchemaCache(load, a.logger),
		watcher: w,
	}
}

// validate runs one batch. A schema error is reported and the session keeps
// going, since a later edit may fix it.
func (s *watchSession) validate(ctx context.Context) error {
	schema, err := s.cache.Get(s.app.cfg.XSDDir)
	if err != nil {
		s.rep.Error(err)
		return nil
	}
	s.rep.SchemaLoaded(schema)

	// Imports may live outside the schema directory.
	for _, src := range schema.Sources {
		if err := s.watcher.Add(filepath.Dir(src.Path)); err != nil {
			s.app.logger.Warn("cannot watch schema directory", "dir", filepath.Dir(src.Path), "error", err)
		}
	}

	err = s.app.validateAll(ctx, s.rep, schema)
	if errors.Is(err, errDocumentsFailed) {
		return nil
	}
	return err
}

// handle reacts to one batch of file changes.
func (s *watchSession) handle(ctx context.Context, ev watch.Event) error {
	if ev.Has(".xsd") {
		s.cache.Remove(s.app.cfg.XSDDir)
	}
	fmt.Fprintln(s.out)
	return s.validate(ctx)
}

func (a *app) runWatch(ctx context.Context, cmd *cobra.Command) error {
	rep := a.reporter(cmd)

	w, err := watch.New([]string{a.cfg.XSDDir, a.cfg.XMLDir},
		watch.WithDebounce(a.cfg.Debounce),
		watch.WithExtensions(".xsd", ".xml"),
		watch.WithLogger(a.logger),
	)
	if err != nil {
		rep.Error(err)
		return err
	}

	session := a.newWatchSession(rep, cmd.OutOrStdout(), a.loadSchema, w)
	if err := session.validate(ctx); err != nil {
		w.Close()
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Watching %s and %s for changes. Press Ctrl+C to stop.\n", a.cfg.XSDDir, a.cfg.XMLDir)

	return w.Run(ctx, func(ev watch.Event) error {
		return session.handle(ctx, ev)
	})
}
