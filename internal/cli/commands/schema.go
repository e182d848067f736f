package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nonibytes/tarpit/internal/cliutil"
	"github.com/nonibytes/tarpit/tarpit"
)

type schemaView struct {
	Columns tarpit.Columns `json:"columns" yaml:"columns"`
	Schema  tarpit.Schema  `json:"schema" yaml:"schema"`
}

func NewSchemaCmd(app *cliutil.App) *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "List the available fields",
		Long: `List the fields records may carry: the index (key) fields in lookup
order, then scalar and list fields, then the allowed values of enum
fields. With --format yaml the output is a schema file that --schema-file
accepts.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s := app.Schema
			switch app.Format() {
			case cliutil.FormatJSON:
				cliutil.PrintJSON(app.Out, schemaView{Columns: s.Columns(), Schema: s})
			case cliutil.FormatYAML:
				cliutil.PrintYAML(app.Out, s)
			default:
				printColumns(app, s)
			}
			return nil
		},
	}
}

func printColumns(app *cliutil.App, s tarpit.Schema) {
	c := s.Columns()
	fmt.Fprintf(app.Out, "Index columns: %s\n", strings.Join(c.Index, ", "))
	fmt.Fprintf(app.Out, "Scalar columns: %s\n", strings.Join(c.Scalar, ", "))
	fmt.Fprintf(app.Out, "List columns: %s\n", strings.Join(c.List, ", "))
	for _, name := range s.Names() {
		spec := s.Fields[name]
		if spec.Kind == tarpit.KindEnum {
			fmt.Fprintf(app.Out, "Values of %s: %s\n", name, strings.Join(spec.Enum, ", "))
		}
	}
}
