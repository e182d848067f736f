package commands

import (
	"github.com/spf13/cobra"

	"github.com/nonibytes/tarpit/internal/cliutil"
	"github.com/nonibytes/tarpit/tarpit"
)

func NewShowCmd(app *cliutil.App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <ref>",
		Short: "Show one record in full",
		Long: `Show one record in full. <ref> is a key field and number such as
hd-1234, "HD 1234" or isd77; several may be joined with commas and must
then name the same record.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.View(cmd.Context(), func(st *tarpit.Store) error {
				ref, err := tarpit.ParseRef(args[0], app.Schema.Keys)
				if err != nil {
					return err
				}
				refno, err := st.Find(ref)
				if err != nil {
					return err
				}
				rec, err := st.Get(ref)
				if err != nil {
					return err
				}
				switch app.Format() {
				case cliutil.FormatJSON:
					cliutil.PrintJSON(app.Out, viewOf(tarpit.Entry{Ref: refno, Record: rec}))
				case cliutil.FormatYAML:
					cliutil.PrintYAML(app.Out, viewOf(tarpit.Entry{Ref: refno, Record: rec}))
				default:
					showRecord(app.Out, app.Schema, rec)
				}
				return nil
			})
		},
	}
}
