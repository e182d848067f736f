package cliutil

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nonibytes/tarpit/internal/cliopt"
	"github.com/nonibytes/tarpit/tarpit"
	"github.com/nonibytes/tarpit/tarpit/query"
	"github.com/nonibytes/tarpit/tarpit/storage"
)

func TestResolveStorePath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	g := cliopt.DefaultGlobalOptions()
	assert.Equal(t, filepath.Join(home, ".tarpit", "tarpit.json"), ResolveStorePath(g))

	g.Backend = "sqlite"
	assert.Equal(t, filepath.Join(home, ".tarpit", "tarpit.db"), ResolveStorePath(g))

	g.Backend = "bolt"
	g.Path = home
	assert.Equal(t, filepath.Join(home, "tarpit.bolt"), ResolveStorePath(g), "directory gets the default name")

	g.Path = "~/tickets.bolt"
	assert.Equal(t, filepath.Join(home, "tickets.bolt"), ResolveStorePath(g))
}

func TestNewAdapter(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	for _, backend := range []storage.Backend{storage.BackendJSON, storage.BackendSQLite, storage.BackendBolt, storage.BackendPostgres} {
		g := cliopt.DefaultGlobalOptions()
		g.Backend = string(backend)
		g.PostgresDSN = "postgres://localhost/tickets"
		a, err := NewAdapter(g)
		require.NoError(t, err)
		assert.Equal(t, backend, a.Backend())
	}
	assert.DirExists(t, filepath.Join(home, ".tarpit"))

	g := cliopt.DefaultGlobalOptions()
	g.Backend = "tape"
	_, err := NewAdapter(g)
	assert.Error(t, err)
}

func TestPrintError(t *testing.T) {
	var buf bytes.Buffer

	_, qerr := query.NewParser(tarpit.DefaultSchema()).Parse("hd = (")
	require.Error(t, qerr)
	PrintError(&buf, WithSource("hd = (", qerr))
	assert.Contains(t, buf.String(), "\n    hd = (\n    ")
	assert.True(t, bytes.HasSuffix(buf.Bytes(), []byte("^\n")))

	buf.Reset()
	PrintError(&buf, tarpit.ValidationError("hd", "hd cannot be empty"))
	assert.Equal(t, "hd cannot be empty\n", buf.String())

	buf.Reset()
	PrintError(&buf, tarpit.Wrap(tarpit.ErrIO, "save store", errors.New("disk full")))
	assert.Equal(t, "io: save store: disk full\n", buf.String())

	assert.NoError(t, WithSource("x", nil))
}

func TestParseOutputFormat(t *testing.T) {
	assert.Equal(t, FormatJSON, ParseOutputFormat("json"))
	assert.Equal(t, FormatYAML, ParseOutputFormat("yaml"))
	assert.Equal(t, FormatPretty, ParseOutputFormat("paths"))
}
