package directory

import (
	"context"
	"strings"
	"sync"

	"github.com/stratoslabs/dircore/internal/auth"
	"github.com/stratoslabs/dircore/internal/models"
)

// MemoryStore is a process-local Store used for development and tests.
// Semantics match the Postgres backend: sequential numeric ids, name
// uniqueness per type (case-insensitive), store-side permission re-check,
// and bcrypt-hashed secrets.
type MemoryStore struct {
	mu         sync.RWMutex
	nextID     uint32
	principals map[uint32]*StoredPrincipal
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nextID:     1,
		principals: make(map[uint32]*StoredPrincipal),
	}
}

func (s *MemoryStore) CreatePrincipal(ctx context.Context, p models.Principal, parentID *uint32, permissions auth.PermissionSet) (CreationResult, error) {
	if err := checkCreatePermission(p.Type, permissions); err != nil {
		return CreationResult{}, err
	}

	stored, err := hashSecrets(p)
	if err != nil {
		return CreationResult{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	name := strings.ToLower(stored.Name())
	for _, existing := range s.principals {
		if existing.Type == stored.Type && strings.ToLower(existing.Name()) == name {
			return CreationResult{}, ErrAlreadyExists
		}
	}

	id := s.nextID
	s.nextID++

	s.principals[id] = &StoredPrincipal{
		ID:        id,
		ParentID:  parentID,
		Principal: stored,
	}

	changed := []uint32{id}
	if parentID != nil {
		changed = append(changed, *parentID)
	}
	return CreationResult{ID: id, ChangedPrincipals: changed}, nil
}

func (s *MemoryStore) GetPrincipal(ctx context.Context, id uint32) (*StoredPrincipal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.principals[id]
	if !ok {
		return nil, ErrNotFound
	}

	// Shallow copy so callers cannot mutate stored state.
	out := *p
	return &out, nil
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	return nil
}
