package bolt

import (
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack/v5"
	bolt "go.etcd.io/bbolt"

	"github.com/nonibytes/tarpit/tarpit/storage"
	"github.com/nonibytes/tarpit/tarpit/value"
)

var (
	recordsBucket = []byte("records")
	indexBucket   = []byte("index")
)

// Adapter keeps the store in a bbolt file. Records are msgpack encoded under
// their big-endian reference number; each key field has a nested bucket in
// index mapping value text to reference number.
type Adapter struct {
	Path    string
	Timeout time.Duration

	db *bolt.DB
}

func New(path string) *Adapter {
	return &Adapter{Path: path, Timeout: time.Second}
}

func (a *Adapter) Backend() storage.Backend {
	return storage.BackendBolt
}

func (a *Adapter) open() (*bolt.DB, error) {
	if a.db != nil {
		return a.db, nil
	}
	if err := os.MkdirAll(filepath.Dir(a.Path), 0o755); err != nil {
		return nil, errors.Wrapf(err, "os.MkdirAll failed. directory: %s", filepath.Dir(a.Path))
	}
	db, err := bolt.Open(a.Path, 0o600, &bolt.Options{Timeout: a.Timeout})
	if err != nil {
		return nil, errors.Wrapf(err, "bolt.Open failed. path: %s", a.Path)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(recordsBucket); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(indexBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "create bucket failed")
	}
	a.db = db
	return db, nil
}

func refKey(ref int) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(ref))
	return b[:]
}

func (a *Adapter) Load(ctx context.Context) (storage.Snapshot, error) {
	db, err := a.open()
	if err != nil {
		return storage.Snapshot{}, err
	}

	snap := storage.Empty()
	err = db.View(func(tx *bolt.Tx) error {
		err := tx.Bucket(recordsBucket).ForEach(func(k, v []byte) error {
			ref := int(binary.BigEndian.Uint64(k))
			if ref != len(snap.Records) {
				return errors.Errorf("record %d out of sequence (expected %d)", ref, len(snap.Records))
			}
			var plain map[string]any
			if err := msgpack.Unmarshal(v, &plain); err != nil {
				return errors.Wrapf(err, "unmarshal record %d failed", ref)
			}
			rec, err := value.FromPlain(plain)
			if err != nil {
				return errors.Wrapf(err, "decode record %d failed", ref)
			}
			snap.Records = append(snap.Records, rec)
			return nil
		})
		if err != nil {
			return err
		}

		return tx.Bucket(indexBucket).ForEachBucket(func(field []byte) error {
			fb := tx.Bucket(indexBucket).Bucket(field)
			return fb.ForEach(func(k, v []byte) error {
				snap.AddRow(storage.IndexRow{
					Field: string(field),
					Value: string(k),
					Ref:   int(binary.BigEndian.Uint64(v)),
				})
				return nil
			})
		})
	})
	if err != nil {
		return storage.Snapshot{}, err
	}
	return snap, nil
}

// Save rewrites both buckets in one update transaction
func (a *Adapter) Save(ctx context.Context, snap storage.Snapshot) error {
	db, err := a.open()
	if err != nil {
		return err
	}

	return db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{recordsBucket, indexBucket} {
			if err := tx.DeleteBucket(name); err != nil && err != bolt.ErrBucketNotFound {
				return errors.Wrapf(err, "delete bucket %s failed", name)
			}
		}
		records, err := tx.CreateBucket(recordsBucket)
		if err != nil {
			return errors.Wrap(err, "create bucket failed")
		}
		index, err := tx.CreateBucket(indexBucket)
		if err != nil {
			return errors.Wrap(err, "create bucket failed")
		}

		for ref, rec := range snap.Records {
			b, err := msgpack.Marshal(rec.Plain())
			if err != nil {
				return errors.Wrapf(err, "marshal record %d failed", ref)
			}
			if err := records.Put(refKey(ref), b); err != nil {
				return errors.Wrapf(err, "put record %d failed", ref)
			}
		}

		for _, row := range snap.Rows() {
			fb, err := index.CreateBucketIfNotExists([]byte(row.Field))
			if err != nil {
				return errors.Wrapf(err, "create index bucket %s failed", row.Field)
			}
			if err := fb.Put([]byte(row.Value), refKey(row.Ref)); err != nil {
				return errors.Wrapf(err, "put key index %s-%s failed", row.Field, row.Value)
			}
		}
		return nil
	})
}

func (a *Adapter) Close() error {
	if a.db == nil {
		return nil
	}
	err := a.db.Close()
	a.db = nil
	return err
}
