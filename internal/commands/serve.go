package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gaborage/go-proposals/app"
	"github.com/gaborage/go-proposals/config"
)

// NewServeCommand creates the serve command
func NewServeCommand() *cobra.Command {
	var configDir string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the proposal HTTP service",
		Long: `Starts the HTTP API. Configuration comes from config.yaml,
config.<env>.yaml, .env and environment variables in that order of
increasing priority.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadWithOptions(config.LoadOptions{Dir: configDir})
			if err != nil {
				return err
			}
			a, err := app.NewWithConfig(cfg, nil)
			if err != nil {
				return fmt.Errorf("failed to create app: %w", err)
			}
			return a.Run(cmd.Context())
		},
	}
	cmd.Flags().StringVarP(&configDir, "config-dir", "c", ".", "Directory holding config.yaml and .env")
	return cmd
}
