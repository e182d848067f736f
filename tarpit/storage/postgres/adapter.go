package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pkg/errors"

	"github.com/nonibytes/tarpit/tarpit/storage"
)

// Adapter keeps the store in PostgreSQL tables inside a dedicated schema
type Adapter struct {
	DSN    string
	Schema string // used as dedicated schema via search_path

	db *sql.DB
}

func New(dsn, schema string) *Adapter {
	return &Adapter{DSN: dsn, Schema: schema}
}

func (a *Adapter) Backend() storage.Backend { return storage.BackendPostgres }

var schemaNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func quoteIdent(ident string) string {
	// ident is validated to contain no quotes; safe to wrap
	return `"` + ident + `"`
}

func (a *Adapter) ensureSchema(ctx context.Context, db *sql.DB) error {
	if a.Schema == "" || !schemaNameRe.MatchString(a.Schema) {
		return errors.Errorf("invalid postgres schema name %q (must match %s)", a.Schema, schemaNameRe.String())
	}
	_, err := db.ExecContext(ctx, "CREATE SCHEMA IF NOT EXISTS "+quoteIdent(a.Schema))
	return err
}

func (a *Adapter) connect(ctx context.Context) (*sql.DB, error) {
	if a.db != nil {
		return a.db, nil
	}

	cfg0, err := pgx.ParseConfig(a.DSN)
	if err != nil {
		return nil, errors.Wrap(err, "pgx.ParseConfig failed")
	}
	db0 := stdlib.OpenDB(*cfg0)
	if err := db0.PingContext(ctx); err != nil {
		_ = db0.Close()
		return nil, errors.Wrap(err, "connect postgres failed")
	}
	if err := a.ensureSchema(ctx, db0); err != nil {
		_ = db0.Close()
		return nil, errors.Wrapf(err, "create schema failed. schema: %s", a.Schema)
	}
	_ = db0.Close()

	cfg, err := pgx.ParseConfig(a.DSN)
	if err != nil {
		return nil, errors.Wrap(err, "pgx.ParseConfig failed")
	}
	if cfg.RuntimeParams == nil {
		cfg.RuntimeParams = make(map[string]string)
	}
	cfg.RuntimeParams["search_path"] = fmt.Sprintf("%s,public", quoteIdent(a.Schema))

	db := stdlib.OpenDB(*cfg)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "connect postgres failed")
	}
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
