package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/pkg/errors"

	"github.com/nonibytes/tarpit/tarpit/storage"
)

const (
	// DriverModernc is the pure Go driver registered by modernc.org/sqlite
	DriverModernc = "sqlite"
	// DriverMattn is the cgo driver registered by github.com/mattn/go-sqlite3
	DriverMattn = "sqlite3"
)

// Adapter keeps the store in a SQLite file. The caller blank-imports the
// driver package matching DriverName.
type Adapter struct {
	Path       string
	DriverName string

	db *sql.DB
}

func New(path string) *Adapter {
	return &Adapter{Path: path, DriverName: DriverModernc}
}

func NewWithDriver(path, driver string) *Adapter {
	return &Adapter{Path: path, DriverName: driver}
}

func (a *Adapter) Backend() storage.Backend {
	return storage.BackendSQLite
}

func (a *Adapter) dsn() string {
	var params string
	switch a.DriverName {
	case DriverMattn:
		params = "_busy_timeout=5000&_foreign_keys=on"
	default:
		params = "_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	}
	if strings.Contains(a.Path, "?") {
		return a.Path + "&" + params
	}
	return a.Path + "?" + params
}

func (a *Adapter) connect(ctx context.Context) (*sql.DB, error) {
	if a.db != nil {
		return a.db, nil
	}
	db, err := sql.Open(a.DriverName, a.dsn())
	if err != nil {
		return nil, errors.Wrapf(err, "sql.Open failed. driver: %s", a.DriverName)
	}
	// one connection keeps an in-memory database alive between calls
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Wrapf(err, "open sqlite failed. path: %s", a.Path)
	}
	_, _ = db.ExecContext(ctx, "PRAGMA journal_mode=WAL;")
	_, _ = db.ExecContext(ctx, "PRAGMA synchronous=NORMAL;")
	if err := storage.InitSQL(ctx, db, SQLTemplates); err != nil {
		_ = db.Close()
		return nil, err
	}
	a.db = db
	return db, nil
}

func (a *Adapter) Load(ctx context.Context) (storage.Snapshot, error) {
	db, err := a.connect(ctx)
	if err != nil {
		return storage.Snapshot{}, err
	}
	return storage.LoadSQL(ctx, db, SQLTemplates)
}

func (a *Adapter) Save(ctx context.Context, snap storage.Snapshot) error {
	db, err := a.connect(ctx)
	if err != nil {
		return err
	}
	return storage.SaveSQL(ctx, db, SQLTemplates, snap)
}

func (a *Adapter) Close() error {
	if a.db == nil {
		return nil
	}
	err := a.db.Close()
	a.db = nil
	return err
}
