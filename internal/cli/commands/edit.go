package commands

import (
	"github.com/spf13/cobra"

	"github.com/nonibytes/tarpit/internal/cliutil"
	"github.com/nonibytes/tarpit/tarpit"
)

func NewEditCmd(app *cliutil.App) *cobra.Command {
	in := tarpit.Input{}
	var removals []string
	cmd := &cobra.Command{
		Use:   "edit <ref> [--<field> <value>...] [--remove <field>[,...]]",
		Short: "Change fields of a record",
		Long: `Change fields of the record <ref> names. New list items are appended to
the existing ones. --remove takes field names to clear, or list items
by position (comment1, comment_2, comment:3); it may be repeated and
takes comma separated lists.

Examples:
  tarpit edit hd-1234 --status active --comment "picked up"
  tarpit edit isd77 --remove comment2,branch`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Update(cmd.Context(), func(st *tarpit.Store) error {
				ref, err := tarpit.ParseRef(args[0], app.Schema.Keys)
				if err != nil {
					return err
				}
				if err := st.Edit(ref, in, splitRemovals(removals)); err != nil {
					return err
				}
				app.Logger.Info("record edited", "ref", ref.String())
				return nil
			})
		},
	}
	bindFieldFlags(cmd.Flags(), app.Schema, in)
	cmd.Flags().StringArrayVar(&removals, "remove", nil, "fields or list items to remove (comma separated, repeatable)")
	return cmd
}
