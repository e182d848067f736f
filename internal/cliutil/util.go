package cliutil

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/nonibytes/tarpit/internal/cliopt"
	"github.com/nonibytes/tarpit/tarpit"
	"github.com/nonibytes/tarpit/tarpit/query"
	"github.com/nonibytes/tarpit/tarpit/storage"
	"github.com/nonibytes/tarpit/tarpit/storage/bolt"
	"github.com/nonibytes/tarpit/tarpit/storage/jsonfile"
	"github.com/nonibytes/tarpit/tarpit/storage/postgres"
	"github.com/nonibytes/tarpit/tarpit/storage/sqlite"
)

type OutputFormat string

const (
	FormatPretty OutputFormat = "pretty"
	FormatJSON   OutputFormat = "json"
	FormatYAML   OutputFormat = "yaml"
)

func ParseOutputFormat(s string) OutputFormat {
	switch OutputFormat(s) {
	case FormatPretty, FormatJSON, FormatYAML:
		return OutputFormat(s)
	default:
		return FormatPretty
	}
}

func PrintJSON(w io.Writer, v any) {
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Fprintln(w, string(b))
}

func PrintYAML(w io.Writer, v any) {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	_ = enc.Encode(v)
	_ = enc.Close()
}

// App is what every subcommand needs: resolved options, the schema, a
// logger and the output streams.
type App struct {
	Opts   cliopt.GlobalOptions
	Schema tarpit.Schema
	Logger *slog.Logger
	Out    io.Writer
	Err    io.Writer
}

func (a *App) Format() OutputFormat {
	return ParseOutputFormat(a.Opts.Format)
}

// ResolveStorePath returns the store file for file-backed backends. An
// empty path means ~/.tarpit/tarpit.<ext>; a directory gets the same file
// name inside it.
func ResolveStorePath(g cliopt.GlobalOptions) string {
	var name string
	switch storage.Backend(strings.ToLower(g.Backend)) {
	case storage.BackendSQLite:
		name = "tarpit.db"
	case storage.BackendBolt:
		name = "tarpit.bolt"
	default:
		name = "tarpit.json"
	}

	path := cliopt.ExpandHome(g.Path)
	if path == "" {
		return cliopt.ExpandHome(filepath.Join("~", ".tarpit", name))
	}
	if fi, err := os.Stat(path); err == nil && fi.IsDir() {
		return filepath.Join(path, name)
	}
	return path
}

// NewAdapter builds the storage adapter the options select
func NewAdapter(g cliopt.GlobalOptions) (storage.Adapter, error) {
	backend := storage.Backend(strings.ToLower(g.Backend))
	switch backend {
	case storage.BackendPostgres:
		return postgres.New(g.PostgresDSN, g.PostgresSchema), nil
	case storage.BackendJSON, storage.BackendSQLite, storage.BackendBolt:
	default:
		return nil, errors.Errorf("unknown backend %q", g.Backend)
	}

	path := ResolveStorePath(g)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrap(err, "create store directory failed")
	}
	switch backend {
	case storage.BackendSQLite:
		return sqlite.NewWithDriver(path, g.SQLiteDriver), nil
	case storage.BackendBolt:
		return bolt.New(path), nil
	default:
		return jsonfile.New(path), nil
	}
}

// OpenStore opens the configured store. The caller closes it.
func (a *App) OpenStore(ctx context.Context) (*tarpit.Store, error) {
	adapter, err := NewAdapter(a.Opts)
	if err != nil {
		return nil, err
	}
	opts := tarpit.DefaultOptions()
	opts.Logger = a.Logger
	st, err := tarpit.Open(ctx, adapter, a.Schema, opts)
	if err != nil {
		_ = adapter.Close()
		return nil, err
	}
	return st, nil
}

// View runs fn against an open store without saving
func (a *App) View(ctx context.Context, fn func(*tarpit.Store) error) error {
	st, err := a.OpenStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()
	return fn(st)
}

// Update runs fn against an open store and saves it when fn succeeds
func (a *App) Update(ctx context.Context, fn func(*tarpit.Store) error) error {
	st, err := a.OpenStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()
	if err := fn(st); err != nil {
		return err
	}
	return st.Save(ctx)
}

// SourceError ties a query failure to the text it was parsed from so the
// failure can be shown with a caret under the offending byte.
type SourceError struct {
	Source string
	Err    error
}

func (e *SourceError) Error() string { return e.Err.Error() }

func (e *SourceError) Unwrap() error { return e.Err }

// WithSource wraps err with the query text it came from. A nil err stays nil.
func WithSource(source string, err error) error {
	if err == nil {
		return nil
	}
	return &SourceError{Source: source, Err: err}
}

// PrintError writes err the way users see it: query errors with a caret,
// store errors by message only, anything else in full.
func PrintError(w io.Writer, err error) {
	var se *SourceError
	var qe *query.Error
	if errors.As(err, &se) && errors.As(err, &qe) {
		fmt.Fprintln(w, qe.Caret(se.Source))
		return
	}
	var te *tarpit.Error
	if errors.As(err, &te) && te.Cause == nil {
		fmt.Fprintln(w, te.Message)
		return
	}
	fmt.Fprintln(w, err)
}
