package jsonfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nonibytes/tarpit/tarpit/storage"
	"github.com/nonibytes/tarpit/tarpit/storage/storagetest"
	"github.com/nonibytes/tarpit/tarpit/value"
)

func TestRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tarpit.json")
	storagetest.RoundTrip(t, func() storage.Adapter { return New(path) })
}

func TestLoadLegacyEmptyIndex(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tarpit.json")
	doc := `{"alltars":[{"isd":12,"comment":["a"]}],"tarindex":{"hd":[],"tar":[],"isd":{"12":0}}}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	snap, err := New(path).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, snap.Records, 1)
	assert.Equal(t, value.Int(12), snap.Records[0]["isd"])
	assert.Equal(t, value.List("a"), snap.Records[0]["comment"])
	assert.Equal(t, map[string]int{}, snap.Index["hd"])
	assert.Equal(t, map[string]int{"12": 0}, snap.Index["isd"])
}

func TestLoadInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tarpit.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := New(path).Load(context.Background())
	assert.Error(t, err)
}

func TestMissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope", "tarpit.json")
	_, err := New(path).Load(context.Background())
	assert.Error(t, err)
}
