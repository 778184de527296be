// Package commands implements the proposalctl command line.
package commands

import (
	"errors"

	"github.com/spf13/cobra"
)

// NewRootCommand assembles every proposalctl command.
func NewRootCommand(version string) *cobra.Command {
	root := &cobra.Command{
		Use:   "proposalctl",
		Short: "Validate and generate technical proposals",
		Long: `proposalctl checks proposal requests, submits them for generation and
runs the proposal HTTP service.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		NewServeCommand(),
		NewValidateCommand(),
		NewSubmitCommand(),
		NewSchemaCommand(),
		NewVersionCommand(version),
	)
	return root
}

// ExitCode maps a command error onto the process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errValidationFailed):
		return 2
	default:
		return 1
	}
}
