package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type result struct {
	code   int
	stdout string
	stderr string
}

// runner runs the CLI against a store file in a fresh home directory
type runner struct {
	t    *testing.T
	home string
	path string
}

func newRunner(t *testing.T) *runner {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	return &runner{t: t, home: home, path: filepath.Join(home, "tickets.json")}
}

func (r *runner) run(args ...string) result {
	r.t.Helper()
	var out, errb bytes.Buffer
	argv := append([]string{"--path", r.path}, args...)
	code := Run(context.Background(), argv, &out, &errb)
	return result{code: code, stdout: out.String(), stderr: errb.String()}
}

func (r *runner) ok(args ...string) string {
	r.t.Helper()
	res := r.run(args...)
	require.Equal(r.t, 0, res.code, "stderr: %s", res.stderr)
	return res.stdout
}

func TestAddAndShow(t *testing.T) {
	r := newRunner(t)

	out := r.ok("add", "--hd", "12", "--tar", "4", "--desc", "Login fails",
		"--assignee", "sam", "--assigned=2024-03-01", "--comment", "first", "--comment", "second")
	assert.Equal(t, "Added; refno = 0\n", out)

	out = r.ok("show", "HD-12")
	assert.Equal(t, "HD-12 Login fails\n  TAR-4\n  Assigned 2024-03-01 to sam\n  first\n  second\n", out)

	// either alias finds it
	assert.Equal(t, out, r.ok("show", "tar4"))
	assert.Equal(t, out, r.ok("show", "hd-12,tar-4"))

	_, err := os.Stat(r.path)
	assert.NoError(t, err, "store file written")
}

func TestAddErrors(t *testing.T) {
	r := newRunner(t)
	r.ok("add", "--hd", "1")

	res := r.run("add", "--hd", "1")
	assert.Equal(t, 1, res.code)
	assert.Equal(t, "reference hd-1 already exists\n", res.stderr)

	res = r.run("add", "--desc", "no keys")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "needs at least one of hd, tar or isd")

	res = r.run("add", "--hd", "2", "--status", "lost")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "unknown status value 'lost'")

	// nothing but the first record was stored
	assert.Equal(t, "  0  HD-1\n", r.ok("list"))
}

func TestBareDateFlagTakesDefault(t *testing.T) {
	r := newRunner(t)
	r.ok("add", "--isd", "5", "--reported", "--desc", "defaults")

	var got struct {
		Ref    int            `json:"ref"`
		Fields map[string]any `json:"fields"`
	}
	require.NoError(t, json.Unmarshal([]byte(r.ok("--format", "json", "show", "isd5")), &got))
	assert.Equal(t, "defaults", got.Fields["desc"])
	assert.Regexp(t, `^\d{4}-\d{2}-\d{2}$`, got.Fields["reported"])
}

func TestEditAndRemove(t *testing.T) {
	r := newRunner(t)
	r.ok("add", "--isd", "7", "--comment", "a", "--comment", "b")
	r.ok("add", "--hd", "9")

	r.ok("edit", "isd-7", "--remove", "comment1", "--status", "active", "--comment", "c")
	out := r.ok("show", "isd-7", "--format", "json")
	assert.JSONEq(t, `{"ref": 0, "fields": {"isd": 7, "status": "active", "comment": ["b", "c"]}}`, out)

	r.ok("edit", "isd7", "--remove", "comment", "--remove", "status", "--hd", "8")
	out = r.ok("show", "hd8", "--format", "json")
	assert.JSONEq(t, `{"ref": 0, "fields": {"isd": 7, "hd": 8}}`, out)

	res := r.run("edit", "isd-7", "--remove", "isd,hd")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "would remove all keys")

	assert.Equal(t, "Removed isd-7\n", r.ok("rm", "isd-7"))
	res = r.run("show", "isd-7")
	assert.Equal(t, 1, res.code)
	assert.Equal(t, "cannot find isd-7\n", res.stderr)

	// the later record moved down
	assert.Equal(t, "  0  HD-9\n", r.ok("list"))
}

func TestListQuery(t *testing.T) {
	r := newRunner(t)
	r.ok("add", "--hd", "1", "--status", "active", "--desc", "one")
	r.ok("add", "--hd", "2", "--status", "blocked")
	r.ok("add", "--hd", "3", "--status", "active")

	assert.Equal(t, "  0  HD-1  [active]  one\n  2  HD-3  [active]\n", r.ok("list", "status = 'active'"))
	// words may be split across arguments
	assert.Equal(t, "  1  HD-2  [blocked]\n", r.ok("list", "hd", "=", "2"))
	assert.Equal(t, "  1  HD-2  [blocked]\n", r.ok("list", "hd-2"))
	assert.Equal(t, "", r.ok("list", "hd = 99"))

	out := r.ok("--format", "yaml", "list", "desc is not null")
	assert.Equal(t, "- ref: 0\n  fields:\n    desc: one\n    hd: 1\n    status: active\n", out)
}

func TestQueryErrorShowsCaret(t *testing.T) {
	r := newRunner(t)
	source := "desc = 'x' and nosuch = 2"

	res := r.run("list", source)
	assert.Equal(t, 1, res.code)
	want := "unknown field nosuch\n    " + source + "\n    " + strings.Repeat(" ", 15) + "^\n"
	assert.Equal(t, want, res.stderr)

	res = r.run("explain", source)
	assert.Equal(t, 1, res.code)
	assert.Equal(t, want, res.stderr)
}

func TestExplain(t *testing.T) {
	r := newRunner(t)
	out := r.ok("explain", "hd = 1 or tar = 2 and isd = 3")
	assert.Equal(t, "(hd = 1 or (tar = 2 and isd = 3))\n", out)
}

func TestSchemaCommand(t *testing.T) {
	r := newRunner(t)
	out := r.ok("schema")
	assert.Contains(t, out, "Index columns: hd, tar, isd\n")
	assert.Contains(t, out, "List columns: comment\n")
	assert.Contains(t, out, "Values of status: new, active, waiting, blocked, reassigned, ready, deployed, disregarded\n")
}

func TestSchemaFile(t *testing.T) {
	r := newRunner(t)
	schemaPath := filepath.Join(r.home, "bugs.yaml")
	require.NoError(t, os.WriteFile(schemaPath, []byte(`
keys: [bug]
fields:
  bug: {kind: int, min: 1}
  title: {kind: string}
  tags: {kind: strlist}
`), 0o644))

	assert.Equal(t, "Added; refno = 0\n", r.ok("--schema-file", schemaPath, "add", "--bug", "3", "--tags", "ui", "--tags", "login"))
	out := r.ok("--schema-file", schemaPath, "show", "bug-3")
	assert.Equal(t, "BUG-3\n  ui\n  login\n", out)

	// the default schema does not know the field
	res := r.run("add", "--bug", "4")
	assert.NotEqual(t, 0, res.code)
}

func TestConfigFileAndEnv(t *testing.T) {
	r := newRunner(t)
	cfg := filepath.Join(r.home, "config.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("backend: bolt\nformat: json\n"), 0o644))

	boltPath := filepath.Join(r.home, "store.bolt")
	var out, errb bytes.Buffer
	code := Run(context.Background(), []string{"--config", cfg, "--path", boltPath, "add", "--hd", "1"}, &out, &errb)
	require.Equal(t, 0, code, errb.String())

	out.Reset()
	code = Run(context.Background(), []string{"--config", cfg, "--path", boltPath, "show", "hd1"}, &out, &errb)
	require.Equal(t, 0, code, errb.String())
	assert.JSONEq(t, `{"ref": 0, "fields": {"hd": 1}}`, out.String())

	t.Setenv("TARPIT_FORMAT", "pretty")
	out.Reset()
	code = Run(context.Background(), []string{"--config", cfg, "--path", boltPath, "show", "hd1"}, &out, &errb)
	require.Equal(t, 0, code, errb.String())
	assert.Equal(t, "HD-1\n", out.String())
}

func TestInvalidOptions(t *testing.T) {
	r := newRunner(t)
	res := r.run("--backend", "floppy", "list")
	assert.Equal(t, 2, res.code)
	assert.Contains(t, res.stderr, "invalid options")

	res = r.run("--backend", "postgres", "list")
	assert.Equal(t, 2, res.code, "postgres needs a DSN")
}

func TestImport(t *testing.T) {
	r := newRunner(t)
	r.ok("add", "--hd", "1")

	file := filepath.Join(r.home, "records.jsonl")
	require.NoError(t, os.WriteFile(file, []byte(`{"hd": 2, "desc": "two"}

{"isd": "3", "comment": ["a", "b"]}
`), 0o644))
	assert.Equal(t, "Imported 2; refno = 1..2\n", r.ok("import", "--file", file))
	assert.Equal(t, "ISD-3\n  a\n  b\n", r.ok("show", "isd3"))

	bad := filepath.Join(r.home, "bad.jsonl")
	require.NoError(t, os.WriteFile(bad, []byte("{\"hd\": 5}\n{\"hd\": 1}\n"), 0o644))
	res := r.run("import", "--file", bad)
	assert.Equal(t, 1, res.code)
	assert.Equal(t, "batch record 2: reference hd-1 already exists\n", res.stderr)
	res = r.run("show", "hd5")
	assert.Equal(t, "cannot find hd-5\n", res.stderr)

	res = r.run("import", "--file", filepath.Join(r.home, "missing.jsonl"))
	assert.Equal(t, 1, res.code)
}
