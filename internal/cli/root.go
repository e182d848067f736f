package cli

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/nonibytes/tarpit/internal/cli/commands"
	"github.com/nonibytes/tarpit/internal/cliopt"
	"github.com/nonibytes/tarpit/internal/cliutil"
)

// Execute runs the CLI and returns an exit code.
func Execute(argv []string) int {
	return Run(context.Background(), argv, os.Stdout, os.Stderr)
}

// Run is Execute with explicit streams.
func Run(ctx context.Context, argv []string, stdout, stderr io.Writer) int {
	app, err := setup(argv, stdout, stderr)
	if err != nil {
		cliutil.PrintError(stderr, err)
		return 2
	}

	root := newRootCmd(app)
	root.SetArgs(argv)
	root.SetOut(stdout)
	root.SetErr(stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		cliutil.PrintError(stderr, err)
		return 1
	}
	return 0
}

// setup resolves the global options before the command tree is built,
// since the add and edit flags depend on the schema they select.
func setup(argv []string, stdout, stderr io.Writer) (*cliutil.App, error) {
	pre := pflag.NewFlagSet("tarpit", pflag.ContinueOnError)
	pre.ParseErrorsWhitelist.UnknownFlags = true
	pre.SetOutput(io.Discard)
	pre.Usage = func() {}
	g := cliopt.DefaultGlobalOptions()
	cliopt.BindGlobalFlags(pre, &g)
	// Anything wrong with argv is reported by cobra.
	_ = pre.Parse(argv)

	loaded, err := cliopt.Load(pre)
	if err != nil {
		return nil, err
	}
	logger := loaded.Options.Logger(stderr)
	schema, err := loaded.Schema()
	if err != nil {
		return nil, err
	}
	logger.Debug("options resolved", "backend", loaded.Options.Backend, "config", loaded.Viper.ConfigFileUsed())

	return &cliutil.App{
		Opts:   loaded.Options,
		Schema: schema,
		Logger: logger,
		Out:    stdout,
		Err:    stderr,
	}, nil
}

func newRootCmd(app *cliutil.App) *cobra.Command {
	root := &cobra.Command{
		Use:           "tarpit",
		Short:         "Track trouble tickets by their reference numbers",
		Long:          rootLong,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Registered again so cobra accepts and documents them; the values
	// were already resolved into app.Opts.
	g := app.Opts
	cliopt.BindGlobalFlags(root.PersistentFlags(), &g)

	root.AddCommand(
		commands.NewAddCmd(app),
		commands.NewEditCmd(app),
		commands.NewShowCmd(app),
		commands.NewRemoveCmd(app),
		commands.NewListCmd(app),
		commands.NewExplainCmd(app),
		commands.NewSchemaCmd(app),
		commands.NewImportCmd(app),
	)
	return root
}
