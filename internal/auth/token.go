package auth

import "fmt"

// Permission names a capability a caller may hold. The set is closed;
// provisioning needs the three create capabilities below.
type Permission string

const (
	PermissionTenantCreate     Permission = "tenant.create"
	PermissionDomainCreate     Permission = "domain.create"
	PermissionIndividualCreate Permission = "individual.create"

	PermissionTenantRead     Permission = "tenant.read"
	PermissionDomainRead     Permission = "domain.read"
	PermissionIndividualRead Permission = "individual.read"
	PermissionPrincipalRead  Permission = "principal.read"
)

// PermissionSet holds the capabilities granted to a caller.
type PermissionSet map[Permission]struct{}

// NewPermissionSet builds a set from the given permissions.
func NewPermissionSet(perms ...Permission) PermissionSet {
	set := make(PermissionSet, len(perms))
	for _, p := range perms {
		set[p] = struct{}{}
	}
	return set
}

// PermissionSetFromStrings builds a set from raw permission names, as they
// appear in JWT claims.
func PermissionSetFromStrings(names []string) PermissionSet {
	set := make(PermissionSet, len(names))
	for _, n := range names {
		set[Permission(n)] = struct{}{}
	}
	return set
}

// Has reports whether the set contains p.
func (s PermissionSet) Has(p Permission) bool {
	_, ok := s[p]
	return ok
}

// PermissionDeniedError names the capability the caller lacks.
type PermissionDeniedError struct {
	Permission Permission
}

func (e *PermissionDeniedError) Error() string {
	return fmt.Sprintf("permission denied: missing %s", e.Permission)
}

// AccessToken is the authorization context of an authenticated caller:
// identity, granted capabilities, and an optional tenant binding used to
// scope nested provisioning.
type AccessToken struct {
	UserID      string
	TenantID    *uint32
	Permissions PermissionSet
}

// AssertHasPermission fails with a PermissionDeniedError when the caller
// does not hold p.
func (t *AccessToken) AssertHasPermission(p Permission) error {
	if !t.Permissions.Has(p) {
		return &PermissionDeniedError{Permission: p}
	}
	return nil
}
