package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nonibytes/tarpit/internal/cliutil"
	"github.com/nonibytes/tarpit/tarpit"
)

func NewRemoveCmd(app *cliutil.App) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <ref>",
		Aliases: []string{"remove", "delete"},
		Short:   "Delete a record",
		Long: `Delete the record <ref> names. Records after it move down one
reference number.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Update(cmd.Context(), func(st *tarpit.Store) error {
				ref, err := tarpit.ParseRef(args[0], app.Schema.Keys)
				if err != nil {
					return err
				}
				if err := st.Remove(ref); err != nil {
					return err
				}
				fmt.Fprintf(app.Out, "Removed %s\n", ref.Describe("and"))
				return nil
			})
		},
	}
}
