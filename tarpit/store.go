package tarpit

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/nonibytes/tarpit/tarpit/query"
	"github.com/nonibytes/tarpit/tarpit/storage"
	"github.com/nonibytes/tarpit/tarpit/value"
)

// Entry is a record together with its reference number
type Entry struct {
	Ref    int
	Record value.Record
}

// Store is an ordered sequence of records with one unique index per key
// field. Reference numbers are positions in the sequence and shift down when
// an earlier record is removed.
//
// A Store is not safe for concurrent use.
type Store struct {
	adapter storage.Adapter
	schema  Schema
	opts    Options
	log     *slog.Logger
	parser  *query.Parser

	records []value.Record
	index   map[string]map[string]int
}

// Open loads a store from adapter. Records are re-typed by schema and the
// key index is rebuilt when it disagrees with the records.
func Open(ctx context.Context, adapter storage.Adapter, schema Schema, opts Options) (*Store, error) {
	if err := schema.Validate(); err != nil {
		return nil, err
	}
	opts = opts.withDefaults()

	snap, err := adapter.Load(ctx)
	if err != nil {
		return nil, Wrap(ErrIO, "load store", err)
	}

	s := &Store{
		adapter: adapter,
		schema:  schema,
		opts:    opts,
		log:     opts.Logger.With("backend", string(adapter.Backend())),
		parser:  query.NewParser(schema),
		records: make([]value.Record, len(snap.Records)),
	}
	for i, rec := range snap.Records {
		s.records[i] = retype(schema, rec.Clone())
	}

	rebuilt := s.buildIndex()
	if !indexEqual(rebuilt, snap.Index) {
		s.log.Warn("key index out of step with records; rebuilt", "records", len(s.records))
	}
	s.index = rebuilt

	s.log.Debug("store opened", "records", len(s.records))
	return s, nil
}

func (s *Store) buildIndex() map[string]map[string]int {
	idx := make(map[string]map[string]int, len(s.schema.Keys))
	for _, k := range s.schema.Keys {
		idx[k] = make(map[string]int)
	}
	for refno, rec := range s.records {
		for _, kv := range RefOf(rec, s.schema.Keys) {
			if prev, dup := idx[kv.Field][kv.Value]; dup {
				s.log.Warn("duplicate key value; keeping first record", "key", kv.String(), "first", prev, "dropped", refno)
				continue
			}
			idx[kv.Field][kv.Value] = refno
		}
	}
	return idx
}

func indexEqual(a, b map[string]map[string]int) bool {
	for field, entries := range a {
		if len(entries) != len(b[field]) {
			return false
		}
		for val, refno := range entries {
			if other, ok := b[field][val]; !ok || other != refno {
				return false
			}
		}
	}
	for field, entries := range b {
		if _, ok := a[field]; !ok && len(entries) > 0 {
			return false
		}
	}
	return true
}

// Schema returns the store's field table
func (s *Store) Schema() Schema {
	return s.schema
}

// Len returns the number of records
func (s *Store) Len() int {
	return len(s.records)
}

// Add validates in, appends it as a new record and returns its reference
// number.
func (s *Store) Add(in Input) (int, error) {
	rec, err := checkInput(s.schema, s.opts, in, true)
	if err != nil {
		return 0, err
	}

	keys := RefOf(rec, s.schema.Keys)
	if len(keys) == 0 {
		return 0, ValidationError("", "new record needs at least one of "+conjunctiveList(s.schema.Keys, "or"))
	}
	for _, kv := range keys {
		if _, exists := s.index[kv.Field][kv.Value]; exists {
			return 0, &Error{Kind: ErrReferenceCollision, Field: kv.Field, Message: "reference " + kv.String() + " already exists"}
		}
	}

	refno := len(s.records)
	s.records = append(s.records, rec)
	s.indexRecord(rec, refno)

	s.log.Debug("record added", "ref", refno, "keys", keys.String())
	return refno, nil
}

// Edit applies in and removals to the record ref names. List fields
// accumulate new items unless removed as a whole. Nothing changes unless
// the whole edit succeeds.
func (s *Store) Edit(ref Ref, in Input, removals []string) error {
	refno, err := s.Find(ref)
	if err != nil {
		return err
	}
	data, err := checkInput(s.schema, s.opts, in, false)
	if err != nil {
		return err
	}
	plan, err := s.parseRemovals(removals)
	if err != nil {
		return err
	}

	orig := s.records[refno]
	item := orig.Clone()

	for field, ordinals := range plan.ordinals {
		v, ok := item[field]
		if !ok {
			return ValidationError(field, fmt.Sprintf("%s has no items to remove", field))
		}
		list := v.List
		for _, n := range ordinals {
			if n < 1 || n > len(list) {
				return ValidationError(field, fmt.Sprintf("%s has no item %d", field, n))
			}
		}
		for _, n := range ordinals {
			list = append(list[:n-1:n-1], list[n:]...)
		}
		if len(list) == 0 {
			delete(item, field)
		} else {
			item[field] = value.List(list...)
		}
	}
	for _, field := range plan.whole {
		delete(item, field)
	}

	for field, v := range data {
		if old, ok := item[field]; ok && v.Kind == value.KindList && old.Kind == value.KindList {
			item[field] = value.List(append(append([]string(nil), old.List...), v.List...)...)
			continue
		}
		item[field] = v
	}

	before := RefOf(orig, s.schema.Keys)
	after := RefOf(item, s.schema.Keys)
	if len(after) == 0 {
		return &Error{Kind: ErrWouldOrphanRecord, Message: "removal of " + before.Describe("and") + " would remove all keys to record"}
	}
	for _, kv := range after {
		if other, exists := s.index[kv.Field][kv.Value]; exists && other != refno {
			return &Error{Kind: ErrReferenceCollision, Field: kv.Field, Message: "reference " + kv.String() + " exists and collides with another record"}
		}
	}

	for _, kv := range before {
		if v, ok := after.Get(kv.Field); !ok || v != kv.Value {
			delete(s.index[kv.Field], kv.Value)
		}
	}
	s.records[refno] = item
	s.indexRecord(item, refno)

	s.log.Debug("record edited", "ref", refno, "fields", len(data), "removals", len(removals))
	return nil
}

type removalPlan struct {
	whole    []string
	ordinals map[string][]int // descending, deduplicated
}

var ordinalRemovalRe = regexp.MustCompile(`^([a-z][a-z0-9_]*?)[_:]?(\d+)$`)

// parseRemovals reads specifiers of the form "field", "field_N", "fieldN"
// or "field:N". N counts list items from 1.
func (s *Store) parseRemovals(specs []string) (removalPlan, error) {
	plan := removalPlan{ordinals: make(map[string][]int)}
	seen := make(map[string]map[int]bool)
	for _, spec := range specs {
		spec = strings.ToLower(strings.TrimSpace(spec))
		if spec == "" {
			continue
		}
		if s.schema.HasField(spec) {
			plan.whole = append(plan.whole, spec)
			continue
		}
		m := ordinalRemovalRe.FindStringSubmatch(spec)
		if m == nil || !s.schema.HasField(m[1]) {
			return removalPlan{}, ValidationError("", "unknown field to remove: "+spec)
		}
		field := m[1]
		if !s.schema.IsList(field) {
			return removalPlan{}, ValidationError(field, field+" is not a list field; remove it without an item number")
		}
		n, err := strconv.Atoi(m[2])
		if err != nil {
			return removalPlan{}, ValidationError(field, "bad item number in "+spec)
		}
		if seen[field] == nil {
			seen[field] = make(map[int]bool)
		}
		if !seen[field][n] {
			seen[field][n] = true
			plan.ordinals[field] = append(plan.ordinals[field], n)
		}
	}
	for field := range plan.ordinals {
		sort.Sort(sort.Reverse(sort.IntSlice(plan.ordinals[field])))
	}
	return plan, nil
}

// Remove deletes the record ref names. Later records shift down by one.
func (s *Store) Remove(ref Ref) error {
	refno, err := s.Find(ref)
	if err != nil {
		return err
	}

	s.records = append(s.records[:refno], s.records[refno+1:]...)
	for _, entries := range s.index {
		for val, rn := range entries {
			switch {
			case rn == refno:
				delete(entries, val)
			case rn > refno:
				entries[val] = rn - 1
			}
		}
	}

	s.log.Debug("record removed", "ref", refno, "remaining", len(s.records))
	return nil
}

func (s *Store) indexRecord(rec value.Record, refno int) {
	for _, kv := range RefOf(rec, s.schema.Keys) {
		if s.index[kv.Field] == nil {
			s.index[kv.Field] = make(map[string]int)
		}
		s.index[kv.Field][kv.Value] = refno
	}
}

// normalize drops non-key parts and rewrites int key values in canonical
// decimal form.
func (s *Store) normalize(ref Ref) (Ref, error) {
	var out Ref
	for _, kv := range ref {
		if !s.schema.IsKey(kv.Field) {
			continue
		}
		if s.schema.Fields[kv.Field].Kind == KindInt {
			n, err := strconv.ParseInt(strings.TrimSpace(kv.Value), 10, 64)
			if err != nil {
				return nil, ValidationError(kv.Field, fmt.Sprintf("%q is not an integer", kv.Value))
			}
			kv.Value = strconv.FormatInt(n, 10)
		}
		out = append(out, kv)
	}
	if len(out) == 0 {
		return nil, ValidationError("", "reference names none of "+conjunctiveList(s.schema.Keys, "or"))
	}
	return out, nil
}

// Find resolves ref to a reference number. Key fields are tried in schema
// priority order; every supplied key that is indexed must name the same
// record, including repeated values for one field.
func (s *Store) Find(ref Ref) (int, error) {
	ref, err := s.normalize(ref)
	if err != nil {
		return 0, err
	}

	refno := -1
	var first KeyValue
	for _, key := range s.schema.Keys {
		for _, kv := range ref {
			if kv.Field != key {
				continue
			}
			rn, ok := s.index[key][kv.Value]
			if !ok {
				continue
			}
			if refno < 0 {
				refno, first = rn, kv
				continue
			}
			if rn != refno {
				return 0, &Error{Kind: ErrReferenceMismatch, Field: key, Message: fmt.Sprintf("%s and %s name different records", first, kv)}
			}
		}
	}

	if refno < 0 {
		return 0, NotFoundError(ref)
	}
	if refno >= len(s.records) {
		return 0, New(ErrIO, fmt.Sprintf("internal error: cannot map %d (from %s) to a record", refno, first))
	}
	return refno, nil
}

// Get returns a copy of the record ref names
func (s *Store) Get(ref Ref) (value.Record, error) {
	refno, err := s.Find(ref)
	if err != nil {
		return nil, err
	}
	return s.records[refno].Clone(), nil
}

// Parse parses a query against the store's schema
func (s *Store) Parse(source string) (query.Expr, error) {
	expr, err := s.parser.Parse(source)
	if err != nil {
		return nil, queryError(err)
	}
	return expr, nil
}

// Query returns the records satisfying expr in store order. A single
// equality on a key field is answered from the index.
func (s *Store) Query(expr query.Expr) []Entry {
	if field, v, ok := query.KeyEquality(expr, s.schema.Keys); ok {
		refno, found := s.index[field][v.Text()]
		if !found || !query.Eval(expr, s.records[refno]) {
			return nil
		}
		return []Entry{{Ref: refno, Record: s.records[refno].Clone()}}
	}

	var out []Entry
	for refno, rec := range s.records {
		if query.Eval(expr, rec) {
			out = append(out, Entry{Ref: refno, Record: rec.Clone()})
		}
	}
	return out
}

// Filter parses source and runs it. Blank input selects every record.
func (s *Store) Filter(source string) ([]Entry, error) {
	if strings.TrimSpace(source) == "" {
		return s.All(), nil
	}
	expr, err := s.Parse(source)
	if err != nil {
		return nil, err
	}
	return s.Query(expr), nil
}

// Explain renders the parsed form of source
func (s *Store) Explain(source string) (string, error) {
	expr, err := s.Parse(source)
	if err != nil {
		return "", err
	}
	return expr.String(), nil
}

// All returns every record in store order
func (s *Store) All() []Entry {
	out := make([]Entry, len(s.records))
	for refno, rec := range s.records {
		out[refno] = Entry{Ref: refno, Record: rec.Clone()}
	}
	return out
}

// Snapshot returns a deep copy of the records and key index
func (s *Store) Snapshot() storage.Snapshot {
	snap := storage.Snapshot{
		Records: make([]value.Record, len(s.records)),
		Index:   make(map[string]map[string]int, len(s.index)),
	}
	for i, rec := range s.records {
		snap.Records[i] = rec.Clone()
	}
	for field, entries := range s.index {
		m := make(map[string]int, len(entries))
		for val, refno := range entries {
			m[val] = refno
		}
		snap.Index[field] = m
	}
	return snap
}

// Save writes the whole store through the adapter
func (s *Store) Save(ctx context.Context) error {
	if err := s.adapter.Save(ctx, s.Snapshot()); err != nil {
		return Wrap(ErrIO, "save store", err)
	}
	s.log.Debug("store saved", "records", len(s.records))
	return nil
}

// Close releases the adapter
func (s *Store) Close() error {
	if err := s.adapter.Close(); err != nil {
		return Wrap(ErrIO, "close store", err)
	}
	return nil
}
