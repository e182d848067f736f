package jsonfile

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/nonibytes/tarpit/tarpit/storage"
	"github.com/nonibytes/tarpit/tarpit/value"
)

// blob is the on-disk layout
type blob struct {
	AllTars  []value.Record            `json:"alltars"`
	TarIndex map[string]map[string]int `json:"tarindex"`
}

// rawBlob reads files where an empty field index was written as [] rather
// than {}.
type rawBlob struct {
	AllTars  []value.Record             `json:"alltars"`
	TarIndex map[string]json.RawMessage `json:"tarindex"`
}

func decodeIndex(raw map[string]json.RawMessage) (map[string]map[string]int, error) {
	out := make(map[string]map[string]int, len(raw))
	for field, msg := range raw {
		entries := make(map[string]int)
		var list []json.RawMessage
		if err := json.Unmarshal(msg, &list); err == nil {
			if len(list) > 0 {
				return nil, errors.Errorf("index for %s is a non-empty list", field)
			}
			out[field] = entries
			continue
		}
		if err := json.Unmarshal(msg, &entries); err != nil {
			return nil, errors.Wrapf(err, "decode index for %s failed", field)
		}
		out[field] = entries
	}
	return out, nil
}

// Adapter keeps the store in a single JSON document
type Adapter struct {
	Path string
}

func New(path string) *Adapter {
	return &Adapter{Path: path}
}

func (a *Adapter) Backend() storage.Backend {
	return storage.BackendJSON
}

func (a *Adapter) Load(ctx context.Context) (storage.Snapshot, error) {
	if err := a.checkDir(); err != nil {
		return storage.Snapshot{}, err
	}
	data, err := os.ReadFile(a.Path)
	if os.IsNotExist(err) {
		return storage.Empty(), nil
	}
	if err != nil {
		return storage.Snapshot{}, errors.Wrapf(err, "read store file failed. path: %s", a.Path)
	}

	var b rawBlob
	if err := json.Unmarshal(data, &b); err != nil {
		return storage.Snapshot{}, errors.Wrapf(err, "store file %s does not contain valid JSON", a.Path)
	}
	index, err := decodeIndex(b.TarIndex)
	if err != nil {
		return storage.Snapshot{}, errors.Wrapf(err, "store file %s", a.Path)
	}
	snap := storage.Snapshot{Records: b.AllTars, Index: index}
	if snap.Records == nil {
		snap.Records = []value.Record{}
	}
	for i, rec := range snap.Records {
		if rec == nil {
			snap.Records[i] = value.Record{}
		}
	}
	if snap.Index == nil {
		snap.Index = map[string]map[string]int{}
	}
	return snap, nil
}

// Save writes to a temporary file in the same directory and renames it over
// the store file.
func (a *Adapter) Save(ctx context.Context, snap storage.Snapshot) error {
	if err := a.checkDir(); err != nil {
		return err
	}
	b := blob{AllTars: snap.Records, TarIndex: snap.Index}
	if b.AllTars == nil {
		b.AllTars = []value.Record{}
	}
	if b.TarIndex == nil {
		b.TarIndex = map[string]map[string]int{}
	}
	data, err := json.Marshal(b)
	if err != nil {
		return errors.Wrap(err, "encode store failed")
	}

	tmp, err := os.CreateTemp(filepath.Dir(a.Path), filepath.Base(a.Path)+".*.tmp")
	if err != nil {
		return errors.Wrap(err, "create temp file failed")
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return errors.Wrap(err, "write temp file failed")
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return errors.Wrap(err, "sync temp file failed")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "close temp file failed")
	}
	if err := os.Rename(tmp.Name(), a.Path); err != nil {
		return errors.Wrapf(err, "rename into place failed. path: %s", a.Path)
	}
	return nil
}

func (a *Adapter) Close() error {
	return nil
}

func (a *Adapter) checkDir() error {
	if a.Path == "" {
		return errors.New("cannot determine name of store file")
	}
	dir := filepath.Dir(a.Path)
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return errors.Errorf("cannot open store file; directory %s does not exist", dir)
	}
	return nil
}
