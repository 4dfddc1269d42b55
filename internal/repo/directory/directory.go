// Package directory is the authoritative principal store for DIRCORE.
// It assigns numeric identifiers, enforces name uniqueness per principal
// type, and reports which principals' cached views a write made stale.
package directory

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/stratoslabs/dircore/internal/auth"
	"github.com/stratoslabs/dircore/internal/models"
)

var (
	// ErrNotFound is returned when no principal exists for an id.
	ErrNotFound = errors.New("principal not found")
	// ErrAlreadyExists is returned when a principal with the same type and
	// name already exists. Uniqueness is enforced here, not by callers.
	ErrAlreadyExists = errors.New("principal already exists")
)

// CreationResult reports the identifier assigned to a newly created
// principal and the set of principal ids whose cached views the write made
// stale. ChangedPrincipals always includes the new principal and, for scoped
// creations, the parent tenant.
type CreationResult struct {
	ID                uint32
	ChangedPrincipals []uint32
}

// StoredPrincipal is a persisted principal record with its assigned id and
// optional parent scope.
type StoredPrincipal struct {
	ID       uint32  `json:"id"`
	ParentID *uint32 `json:"parentId,omitempty"`
	models.Principal
}

// Store is the directory storage contract the provisioning orchestrator
// consumes. CreatePrincipal re-checks the caller's permission set when one is
// supplied; a nil set skips the store-side check (trusted internal callers).
type Store interface {
	CreatePrincipal(ctx context.Context, p models.Principal, parentID *uint32, permissions auth.PermissionSet) (CreationResult, error)
	GetPrincipal(ctx context.Context, id uint32) (*StoredPrincipal, error)
	Ping(ctx context.Context) error
}

// createPermissionFor maps a principal type to the capability required to
// create it.
func createPermissionFor(typ models.PrincipalType) (auth.Permission, error) {
	switch typ {
	case models.TypeTenant:
		return auth.PermissionTenantCreate, nil
	case models.TypeDomain:
		return auth.PermissionDomainCreate, nil
	case models.TypeIndividual:
		return auth.PermissionIndividualCreate, nil
	default:
		return "", fmt.Errorf("principal type %q cannot be created through this store", typ)
	}
}

// checkCreatePermission performs the store-side authorization re-check.
func checkCreatePermission(typ models.PrincipalType, permissions auth.PermissionSet) error {
	if permissions == nil {
		return nil
	}
	required, err := createPermissionFor(typ)
	if err != nil {
		return err
	}
	if !permissions.Has(required) {
		return &auth.PermissionDeniedError{Permission: required}
	}
	return nil
}

// hashSecrets returns a copy of the record with plaintext secrets replaced
// by bcrypt hashes. Records without secrets pass through unchanged. The
// caller's record is never mutated.
func hashSecrets(p models.Principal) (models.Principal, error) {
	secrets, ok := p.Get(models.FieldSecrets)
	if !ok || len(secrets.List) == 0 {
		return p, nil
	}
	hashed := make([]string, 0, len(secrets.List))
	for _, secret := range secrets.List {
		h, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
		if err != nil {
			return p, fmt.Errorf("hash secret: %w", err)
		}
		hashed = append(hashed, string(h))
	}

	out := models.NewPrincipal(p.Type)
	for field, value := range p.Fields {
		out.Set(field, value)
	}
	out.Set(models.FieldSecrets, models.ListValue(hashed...))
	return out, nil
}
