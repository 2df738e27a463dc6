// Package repomanager vends the credential store implementations and runs
// the schema migrations for the ones that need them.
package repomanager

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/credentials"
)

// MemoryDSN selects the in-process credential store.
const MemoryDSN = "memory://"

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Credentials(db dbx.DBTX) credentials.Repository
}

// Store is an opened credential store plus the function releasing it.
type Store struct {
	Credentials credentials.Repository
	Close       func() error
}

// sqlOpen is a seam for testing sql.Open.
var sqlOpen = sql.Open

// Open selects the store by DSN. An empty or memory:// DSN yields the
// in-memory repository; anything else is handed to the pgx driver and
// migrated before use.
func Open(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" || strings.HasPrefix(dsn, MemoryDSN) {
		m := NewMemoryRepositoryManager()
		return &Store{Credentials: m.Credentials(nil), Close: func() error { return nil }}, nil
	}

	db, err := sqlOpen("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}

	m, err := NewPostgresRepositoryManager(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	if err := m.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}

	return &Store{Credentials: m.Credentials(db), Close: db.Close}, nil
}
