// Package credentials stores the local auth records (email, password hash,
// role) of the auth service.
package credentials

import (
	"context"

	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

// Repository is the credential store contract.
type Repository interface {
	// Create inserts c, assigning an id when c.ID is empty. A taken email
	// yields common.ErrorAlreadyExists.
	Create(ctx context.Context, c *models.Credential) (*models.Credential, error)

	// FindByEmail returns common.ErrorNotFound when no record matches.
	FindByEmail(ctx context.Context, email string) (*models.Credential, error)

	// FindByID returns common.ErrorNotFound when no record matches.
	FindByID(ctx context.Context, id string) (*models.Credential, error)

	// Delete removes a record by id; a missing record yields common.ErrorNotFound.
	Delete(ctx context.Context, id string) error
}
