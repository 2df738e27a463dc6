package credentials

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/google/uuid"
)

// MemoryRepository keeps credentials in process memory. It backs the
// "memory://" DSN for local runs and the service tests. A single mutex makes
// the email check and the insert one atomic step.
type MemoryRepository struct {
	mu      sync.Mutex
	byID    map[string]models.Credential
	byEmail map[string]string
	now     func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID:    make(map[string]models.Credential),
		byEmail: make(map[string]string),
		now:     time.Now,
	}
}

func (r *MemoryRepository) Create(ctx context.Context, c *models.Credential) (*models.Credential, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byEmail[c.Email]; taken {
		return nil, common.ErrorAlreadyExists
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if _, taken := r.byID[c.ID]; taken {
		return nil, common.ErrorAlreadyExists
	}

	ts := r.now().UTC()
	c.CreatedAt, c.UpdatedAt = ts, ts

	r.byID[c.ID] = *c
	r.byEmail[c.Email] = c.ID

	out := *c
	return &out, nil
}

func (r *MemoryRepository) FindByEmail(ctx context.Context, email string) (*models.Credential, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.byEmail[email]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := r.byID[id]
	return &c, nil
}

func (r *MemoryRepository) FindByID(ctx context.Context, id string) (*models.Credential, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &c, nil
}

func (r *MemoryRepository) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.byID[id]
	if !ok {
		return common.ErrorNotFound
	}
	delete(r.byID, id)
	delete(r.byEmail, c.Email)
	return nil
}

// Len reports how many credentials are stored.
func (r *MemoryRepository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID)
}
