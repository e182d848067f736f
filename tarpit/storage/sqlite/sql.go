package sqlite

import "github.com/nonibytes/tarpit/tarpit/storage"

const ddlBase = `
CREATE TABLE IF NOT EXISTS meta (
  key   TEXT PRIMARY KEY,
  value TEXT
);

CREATE TABLE IF NOT EXISTS records (
  ref       INTEGER PRIMARY KEY,
  data_json TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS key_index (
  field TEXT    NOT NULL,
  value TEXT    NOT NULL,
  ref   INTEGER NOT NULL,
  PRIMARY KEY (field, value)
);
CREATE INDEX IF NOT EXISTS idx_key_index_ref ON key_index(ref);
`

var SQLTemplates = storage.SQL{
	DDL:           ddlBase,
	GetMeta:       "SELECT value FROM meta WHERE key = ?1",
	SetMeta:       "INSERT INTO meta(key,value) VALUES(?1,?2) ON CONFLICT(key) DO UPDATE SET value=excluded.value",
	SelectRecords: "SELECT ref, data_json FROM records ORDER BY ref",
	SelectIndex:   "SELECT field, value, ref FROM key_index ORDER BY field, value",
	DeleteRecords: "DELETE FROM records",
	DeleteIndex:   "DELETE FROM key_index",
	InsertRecord:  "INSERT INTO records(ref, data_json) VALUES(?1, ?2)",
	InsertIndex:   "INSERT INTO key_index(field, value, ref) VALUES(?1, ?2, ?3)",
}
