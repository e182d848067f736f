package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nonibytes/tarpit/internal/cliutil"
	"github.com/nonibytes/tarpit/tarpit"
)

func NewAddCmd(app *cliutil.App) *cobra.Command {
	in := tarpit.Input{}
	cmd := &cobra.Command{
		Use:   "add --<key> <n> [--<field> <value>...]",
		Short: "Add a record",
		Long: `Add a record. At least one key field must be given; fields with a
default (dates, status) are filled in when omitted.

Examples:
  tarpit add --hd 1234 --desc "Login page times out" --assignee sam
  tarpit add --isd 77 --reported=yesterday --comment "seen twice"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Update(cmd.Context(), func(st *tarpit.Store) error {
				refno, err := st.Add(in)
				if err != nil {
					return err
				}
				fmt.Fprintf(app.Out, "Added; refno = %d\n", refno)
				return nil
			})
		},
	}
	bindFieldFlags(cmd.Flags(), app.Schema, in)
	return cmd
}
