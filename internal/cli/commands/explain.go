package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nonibytes/tarpit/internal/cliutil"
	"github.com/nonibytes/tarpit/tarpit/query"
)

func NewExplainCmd(app *cliutil.App) *cobra.Command {
	return &cobra.Command{
		Use:   "explain <query>",
		Short: "Show how a query is parsed",
		Long: `Parse a query against the schema without touching the store and print
its normalized form, with explicit grouping.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source := strings.Join(args, " ")
			expr, err := query.NewParser(app.Schema).Parse(source)
			if err != nil {
				return cliutil.WithSource(source, err)
			}
			fmt.Fprintln(app.Out, expr.String())
			return nil
		},
	}
}
