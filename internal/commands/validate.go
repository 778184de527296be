package commands

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/gaborage/go-proposals/proposal"
)

// ValidateOptions holds options for the validate command
type ValidateOptions struct {
	File       string
	Normalized bool
}

// NewValidateCommand creates the validate command
func NewValidateCommand() *cobra.Command {
	opts := &ValidateOptions{}

	cmd := &cobra.Command{
		Use:   "validate FILE",
		Short: "Validate a proposal request",
		Long: `Checks a proposal request written in YAML or JSON against the schema.
Errors and warnings are listed per field. The exit status is non-zero when
the request has errors.`,
		Example: `  proposalctl validate request.yaml
  cat request.json | proposalctl validate - --normalized`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.File = args[0]
			return runValidate(cmd, opts)
		},
	}
	cmd.Flags().BoolVarP(&opts.Normalized, "normalized", "n", false, "Print the normalized request when valid")
	return cmd
}

func runValidate(cmd *cobra.Command, opts *ValidateOptions) error {
	p := newPrinter(cmd.OutOrStdout())

	req, err := readRequest(opts.File, cmd.InOrStdin())
	if err != nil {
		var verrs proposal.ValidationErrors
		if errors.As(err, &verrs) {
			reportFindings(p, verrs, nil)
			return errValidationFailed
		}
		return err
	}

	result := proposal.Validate(req)
	reportFindings(p, result.Errors, result.Warnings)
	if !result.Valid() {
		p.Error("%d error(s), %d warning(s)", len(result.Errors), len(result.Warnings))
		return errValidationFailed
	}
	p.Success("%s is valid (%d warning(s))", opts.File, len(result.Warnings))

	if opts.Normalized {
		out, err := proposal.EncodeYAML(*result.Request)
		if err != nil {
			return err
		}
		p.Separator()
		_, err = cmd.OutOrStdout().Write(out)
		return err
	}
	return nil
}
