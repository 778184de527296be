package commands

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/gaborage/go-proposals/proposal"
)

// NewSchemaCommand creates the schema command
func NewSchemaCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Describe the proposal request fields",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			specs := proposal.Describe()
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(specs)
			}
			return printSchema(cmd, specs)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the schema as JSON")
	return cmd
}

func printSchema(cmd *cobra.Command, specs []proposal.FieldSpec) error {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FIELD\tTYPE\tREQUIRED\tALLOWED")
	for _, s := range specs {
		kind := string(s.Kind)
		if s.Items != "" {
			kind += "<" + string(s.Items) + ">"
		}
		required := ""
		if s.Required {
			required = "yes"
			if s.MinItems > 0 {
				required = fmt.Sprintf("min %d", s.MinItems)
			}
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", s.Path, kind, required, strings.Join(s.Enum, ", "))
	}
	return tw.Flush()
}
