package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSnapshotRows(t *testing.T) {
	snap := Snapshot{Index: map[string]map[string]int{
		"isd": {"7": 1},
		"hd":  {"20": 1, "100": 0},
	}}
	want := []IndexRow{
		{Field: "hd", Value: "100", Ref: 0},
		{Field: "hd", Value: "20", Ref: 1},
		{Field: "isd", Value: "7", Ref: 1},
	}
	assert.Equal(t, want, snap.Rows())

	var back Snapshot
	for _, row := range snap.Rows() {
		back.AddRow(row)
	}
	assert.Equal(t, snap.Index, back.Index)
}
