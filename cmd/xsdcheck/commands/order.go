package commands

import (
	"github.com/spf13/cobra"
)

func orderCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "order",
		Short: "Print the schema load order without validating",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rep := a.reporter(cmd)
			sources, err := a.loader(a.cfg.XSDDir).Resolve()
			if err != nil {
				rep.Error(err)
				return err
			}
			rep.Order(sources)
			return nil
		},
	}
}
