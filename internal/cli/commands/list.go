package commands

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/nonibytes/tarpit/internal/cliutil"
	"github.com/nonibytes/tarpit/tarpit"
)

func NewListCmd(app *cliutil.App) *cobra.Command {
	return &cobra.Command{
		Use:     "list [query]",
		Aliases: []string{"ls", "find"},
		Short:   "List records matching a query",
		Long: `List the records matching a query, or every record when none is given.
Words of the query may be passed as separate arguments.

Examples:
  tarpit list
  tarpit list 'status in (new, active) and assignee is not null'
  tarpit list '100 <= hd < 200 or desc like "%timeout%"'
  tarpit list isd-77`,
		RunE: func(cmd *cobra.Command, args []string) error {
			source := strings.Join(args, " ")
			return app.View(cmd.Context(), func(st *tarpit.Store) error {
				entries, err := st.Filter(source)
				if err != nil {
					return cliutil.WithSource(source, err)
				}
				printEntries(app.Out, app.Format(), app.Schema, entries)
				return nil
			})
		},
	}
}
