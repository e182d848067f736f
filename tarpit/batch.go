package tarpit

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

// Batch collects records to add in one step
type Batch struct {
	inputs []Input
}

func NewBatch() Batch {
	return Batch{inputs: make([]Input, 0)}
}

func (b *Batch) Add(in Input) {
	b.inputs = append(b.inputs, in)
}

// AddJSON queues a record given as a JSON object. Numbers and strings
// become single values; arrays of them become repeated values.
func (b *Batch) AddJSON(doc []byte) error {
	dec := json.NewDecoder(bytes.NewReader(doc))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return Wrap(ErrValidation, "record json", err)
	}
	if m == nil {
		return New(ErrValidation, "record must be a JSON object")
	}

	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)

	in := make(Input, len(m))
	for _, name := range names {
		switch v := m[name].(type) {
		case []any:
			items := make([]string, 0, len(v))
			for _, item := range v {
				s, err := jsonScalar(name, item)
				if err != nil {
					return err
				}
				items = append(items, s)
			}
			in[name] = items
		default:
			s, err := jsonScalar(name, v)
			if err != nil {
				return err
			}
			in[name] = []string{s}
		}
	}
	b.inputs = append(b.inputs, in)
	return nil
}

func jsonScalar(field string, v any) (string, error) {
	switch v := v.(type) {
	case string:
		return v, nil
	case json.Number:
		return v.String(), nil
	default:
		return "", ValidationError(field, fmt.Sprintf("%s must be a string, a number or a list of them", field))
	}
}

func (b *Batch) Len() int {
	return len(b.inputs)
}

func (b *Batch) Empty() bool {
	return len(b.inputs) == 0
}

// Import adds every record of b, or none of them when one fails. It returns
// the reference numbers assigned, in batch order.
func (s *Store) Import(b Batch) ([]int, error) {
	n := len(s.records)
	index := s.Snapshot().Index

	refs := make([]int, 0, b.Len())
	for i, in := range b.inputs {
		refno, err := s.Add(in)
		if err != nil {
			s.records = s.records[:n]
			s.index = index
			return nil, batchError(i, err)
		}
		refs = append(refs, refno)
	}
	s.log.Info("batch imported", "records", len(refs))
	return refs, nil
}

func batchError(i int, err error) error {
	var e *Error
	if !errors.As(err, &e) {
		return err
	}
	out := *e
	out.Message = fmt.Sprintf("batch record %d: %s", i+1, e.Message)
	return &out
}
