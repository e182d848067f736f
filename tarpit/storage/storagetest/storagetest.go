// Package storagetest holds the round-trip checks every storage adapter
// must pass.
package storagetest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nonibytes/tarpit/tarpit/storage"
	"github.com/nonibytes/tarpit/tarpit/value"
)

// Sample returns a small snapshot exercising every value kind
func Sample() storage.Snapshot {
	return storage.Snapshot{
		Records: []value.Record{
			{"hd": value.Int(100), "desc": value.String("printer on fire"), "comment": value.List("first", "second")},
			{"isd": value.Int(7), "status": value.String("new"), "reported": value.String("2024-03-15")},
			{"tar": value.Int(9), "hd": value.Int(-1)},
		},
		Index: map[string]map[string]int{
			"hd":  {"100": 0, "-1": 2},
			"tar": {"9": 2},
			"isd": {"7": 1},
		},
	}
}

// RoundTrip checks that a fresh adapter loads empty and that save then load
// reproduces the snapshot, including after a second overwrite.
func RoundTrip(t *testing.T, open func() storage.Adapter) {
	t.Helper()
	ctx := context.Background()

	a := open()
	snap, err := a.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, snap.Records)
	assert.Empty(t, snap.Rows())

	want := Sample()
	require.NoError(t, a.Save(ctx, want))
	require.NoError(t, a.Close())

	a = open()
	got, err := a.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, want.Records, got.Records)
	assert.Equal(t, want.Rows(), got.Rows())

	shrunk := storage.Snapshot{
		Records: want.Records[1:2],
		Index:   map[string]map[string]int{"isd": {"7": 0}},
	}
	require.NoError(t, a.Save(ctx, shrunk))
	got, err = a.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, shrunk.Records, got.Records)
	assert.Equal(t, shrunk.Rows(), got.Rows())
	require.NoError(t, a.Close())
}
