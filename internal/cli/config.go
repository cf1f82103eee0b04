package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newConfigCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		Long: `Print the configuration after layering defaults, the config file,
BAYESFIT_ environment variables and flags. The output is a valid config file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := yaml.Marshal(&a.loaded.Config)
			if err != nil {
				return fmt.Errorf("failed to encode config: %w", err)
			}

			w := cmd.OutOrStdout()
			if a.loaded.File != "" {
				_, _ = fmt.Fprintf(w, "# loaded from %s\n", a.loaded.File)
			}
			for _, name := range a.loaded.Env {
				_, _ = fmt.Fprintf(w, "# environment %s\n", name)
			}
			_, err = w.Write(out)

			return err
		},
	}
}
