package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arloliu/bayesfit/dataset"
	"github.com/arloliu/bayesfit/model"
)

func newDescribeCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "describe",
		Short: "Print the model declaration",
		Long:  `Print the data, parameter and likelihood declaration of the model bound to the configured data.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.describe(cmd)
		},
	}
}

func (a *app) describe(cmd *cobra.Command) error {
	cfg := &a.loaded.Config

	ds, err := dataset.Synthesize(cfg.Data.Nobs, cfg.Data.Seed, cfg.Data.Truth)
	if err != nil {
		return err
	}

	m, err := model.NewLinearGaussian(ds)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "// %s\n", m.Name())
	_, _ = fmt.Fprint(out, m.Describe())

	return nil
}
