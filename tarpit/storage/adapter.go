package storage

import (
	"context"

	"github.com/nonibytes/tarpit/tarpit/value"
)

type Backend string

const (
	BackendJSON     Backend = "json"
	BackendSQLite   Backend = "sqlite"
	BackendPostgres Backend = "postgres"
	BackendBolt     Backend = "bolt"
)

// Adapter persists a whole store at once. Load on a store that does not
// exist yet returns an empty snapshot.
type Adapter interface {
	Backend() Backend
	Load(ctx context.Context) (Snapshot, error)
	Save(ctx context.Context, snap Snapshot) error
	Close() error
}

// Snapshot is the persisted state: records in reference order and, per key
// field, key value text to reference number.
type Snapshot struct {
	Records []value.Record
	Index   map[string]map[string]int
}

// Empty returns a snapshot with no records
func Empty() Snapshot {
	return Snapshot{Records: []value.Record{}, Index: map[string]map[string]int{}}
}

// IndexRow is one flattened key index entry
type IndexRow struct {
	Field string
	Value string
	Ref   int
}

// Rows flattens the index in field then value order
func (s Snapshot) Rows() []IndexRow {
	var rows []IndexRow
	for _, field := range sortedKeys(s.Index) {
		entries := s.Index[field]
		for _, val := range sortedKeys(entries) {
			rows = append(rows, IndexRow{Field: field, Value: val, Ref: entries[val]})
		}
	}
	return rows
}

// AddRow puts one entry back into the index
func (s *Snapshot) AddRow(row IndexRow) {
	if s.Index == nil {
		s.Index = make(map[string]map[string]int)
	}
	if s.Index[row.Field] == nil {
		s.Index[row.Field] = make(map[string]int)
	}
	s.Index[row.Field][row.Value] = row.Ref
}
