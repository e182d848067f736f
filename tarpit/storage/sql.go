package storage

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/nonibytes/tarpit/tarpit/value"
)

// SQL holds the statements a database/sql backed adapter runs. Placeholders
// follow the dialect of the driver.
type SQL struct {
	DDL string

	GetMeta string
	SetMeta string

	SelectRecords string
	SelectIndex   string

	DeleteRecords string
	DeleteIndex   string
	InsertRecord  string
	InsertIndex   string
}

const (
	MetaMagicKey   = "tarpit_magic"
	MetaMagic      = "tarpit"
	MetaVersionKey = "tarpit_version"
	MetaVersion    = "1"
)

// InitSQL creates the tables and stamps the meta rows if they are missing
func InitSQL(ctx context.Context, db *sql.DB, sqlt SQL) error {
	if _, err := db.ExecContext(ctx, sqlt.DDL); err != nil {
		return errors.Wrap(err, "create tables failed")
	}
	var magic string
	err := db.QueryRowContext(ctx, sqlt.GetMeta, MetaMagicKey).Scan(&magic)
	switch {
	case err == sql.ErrNoRows:
		if _, err := db.ExecContext(ctx, sqlt.SetMeta, MetaMagicKey, MetaMagic); err != nil {
			return errors.Wrap(err, "write meta failed")
		}
		if _, err := db.ExecContext(ctx, sqlt.SetMeta, MetaVersionKey, MetaVersion); err != nil {
			return errors.Wrap(err, "write meta failed")
		}
		return nil
	case err != nil:
		return errors.Wrap(err, "read meta failed")
	case magic != MetaMagic:
		return errors.Errorf("not a tarpit database (magic %q)", magic)
	}
	return nil
}

// LoadSQL reads a snapshot from the records and key_index tables
func LoadSQL(ctx context.Context, db *sql.DB, sqlt SQL) (Snapshot, error) {
	snap := Empty()

	rows, err := db.QueryContext(ctx, sqlt.SelectRecords)
	if err != nil {
		return Snapshot{}, errors.Wrap(err, "select records failed")
	}
	defer rows.Close()
	for rows.Next() {
		var ref int
		var data string
		if err := rows.Scan(&ref, &data); err != nil {
			return Snapshot{}, errors.Wrap(err, "scan record failed")
		}
		if ref != len(snap.Records) {
			return Snapshot{}, errors.Errorf("record %d out of sequence (expected %d)", ref, len(snap.Records))
		}
		rec, err := decodeRecordJSON([]byte(data))
		if err != nil {
			return Snapshot{}, errors.Wrapf(err, "decode record %d failed", ref)
		}
		snap.Records = append(snap.Records, rec)
	}
	if err := rows.Err(); err != nil {
		return Snapshot{}, errors.Wrap(err, "iterate records failed")
	}

	idxRows, err := db.QueryContext(ctx, sqlt.SelectIndex)
	if err != nil {
		return Snapshot{}, errors.Wrap(err, "select key index failed")
	}
	defer idxRows.Close()
	for idxRows.Next() {
		var row IndexRow
		if err := idxRows.Scan(&row.Field, &row.Value, &row.Ref); err != nil {
			return Snapshot{}, errors.Wrap(err, "scan key index failed")
		}
		snap.AddRow(row)
	}
	if err := idxRows.Err(); err != nil {
		return Snapshot{}, errors.Wrap(err, "iterate key index failed")
	}
	return snap, nil
}

// SaveSQL replaces the stored snapshot in a single transaction
func SaveSQL(ctx context.Context, db *sql.DB, sqlt SQL, snap Snapshot) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin transaction failed")
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, sqlt.DeleteIndex); err != nil {
		return errors.Wrap(err, "clear key index failed")
	}
	if _, err := tx.ExecContext(ctx, sqlt.DeleteRecords); err != nil {
		return errors.Wrap(err, "clear records failed")
	}

	insRec, err := tx.PrepareContext(ctx, sqlt.InsertRecord)
	if err != nil {
		return errors.Wrap(err, "prepare record insert failed")
	}
	defer insRec.Close()
	for ref, rec := range snap.Records {
		data, err := json.Marshal(rec.Plain())
		if err != nil {
			return errors.Wrapf(err, "encode record %d failed", ref)
		}
		if _, err := insRec.ExecContext(ctx, ref, string(data)); err != nil {
			return errors.Wrapf(err, "insert record %d failed", ref)
		}
	}

	insIdx, err := tx.PrepareContext(ctx, sqlt.InsertIndex)
	if err != nil {
		return errors.Wrap(err, "prepare key index insert failed")
	}
	defer insIdx.Close()
	for _, row := range snap.Rows() {
		if _, err := insIdx.ExecContext(ctx, row.Field, row.Value, row.Ref); err != nil {
			return errors.Wrapf(err, "insert key index %s-%s failed", row.Field, row.Value)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "commit failed")
	}
	return nil
}

func decodeRecordJSON(b []byte) (value.Record, error) {
	var rec value.Record
	if err := json.Unmarshal(b, &rec); err != nil {
		return nil, err
	}
	if rec == nil {
		rec = value.Record{}
	}
	return rec, nil
}
