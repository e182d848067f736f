package commands

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/nonibytes/tarpit/internal/cliutil"
	"github.com/nonibytes/tarpit/tarpit"
)

func NewImportCmd(app *cliutil.App) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "import [--file records.jsonl]",
		Short: "Add records from JSON lines",
		Long: `Add one record per line of JSON read from --file or standard input.
Each line is an object of field names to strings, numbers or arrays of
them. Either every record is added or none is.

Example:
  echo '{"hd": 12, "desc": "Login fails", "comment": ["seen twice"]}' | tarpit import`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r := cmd.InOrStdin()
			if file != "" {
				f, err := os.Open(file)
				if err != nil {
					return errors.Wrap(err, "open import file failed")
				}
				defer f.Close()
				r = f
			}
			batch, err := readBatch(r)
			if err != nil {
				return err
			}
			if batch.Empty() {
				fmt.Fprintln(app.Out, "Nothing to import")
				return nil
			}
			return app.Update(cmd.Context(), func(st *tarpit.Store) error {
				refs, err := st.Import(batch)
				if err != nil {
					return err
				}
				fmt.Fprintf(app.Out, "Imported %d; refno = %d..%d\n", len(refs), refs[0], refs[len(refs)-1])
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "read records from this file instead of standard input")
	return cmd
}

func readBatch(r io.Reader) (tarpit.Batch, error) {
	batch := tarpit.NewBatch()
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		if err := batch.AddJSON([]byte(text)); err != nil {
			return tarpit.Batch{}, errors.Wrapf(err, "line %d", line)
		}
	}
	if err := sc.Err(); err != nil {
		return tarpit.Batch{}, errors.Wrap(err, "read records failed")
	}
	return batch, nil
}
