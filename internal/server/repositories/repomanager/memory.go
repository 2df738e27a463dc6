package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/credentials"
)

// MemoryRepositoryManager hands out one shared in-memory repository and
// ignores the DBTX it is given.
type MemoryRepositoryManager struct {
	credentials *credentials.MemoryRepository
}

func (m *MemoryRepositoryManager) RunMigrations(context.Context, *sql.DB) error {
	return nil
}

func (m *MemoryRepositoryManager) Credentials(dbx.DBTX) credentials.Repository {
	return m.credentials
}

func NewMemoryRepositoryManager() *MemoryRepositoryManager {
	return &MemoryRepositoryManager{credentials: credentials.NewMemoryRepository()}
}
