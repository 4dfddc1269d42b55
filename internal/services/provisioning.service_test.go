package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stratoslabs/dircore/internal/auth"
	"github.com/stratoslabs/dircore/internal/models"
	"github.com/stratoslabs/dircore/internal/repo/directory"
	"github.com/stratoslabs/dircore/pkg/logger"
)

// scriptedStore records every call in an ordered event log shared with the
// invalidator, so tests can assert the create / invalidate interleaving.
type scriptedStore struct {
	events *[]string
	nextID uint32
	calls  []createCall
	failAt map[models.PrincipalType]error
}

type createCall struct {
	typ         models.PrincipalType
	principal   models.Principal
	parentID    *uint32
	permissions auth.PermissionSet
}

func (s *scriptedStore) CreatePrincipal(ctx context.Context, p models.Principal, parentID *uint32, permissions auth.PermissionSet) (directory.CreationResult, error) {
	s.calls = append(s.calls, createCall{typ: p.Type, principal: p, parentID: parentID, permissions: permissions})
	if err, ok := s.failAt[p.Type]; ok {
		return directory.CreationResult{}, err
	}
	s.nextID++
	id := s.nextID
	*s.events = append(*s.events, fmt.Sprintf("create:%s:%d", p.Type, id))
	changed := []uint32{id}
	if parentID != nil {
		changed = append(changed, *parentID)
	}
	return directory.CreationResult{ID: id, ChangedPrincipals: changed}, nil
}

func (s *scriptedStore) GetPrincipal(ctx context.Context, id uint32) (*directory.StoredPrincipal, error) {
	return nil, directory.ErrNotFound
}

func (s *scriptedStore) Ping(ctx context.Context) error { return nil }

type recordingInvalidator struct {
	events  *[]string
	batches [][]uint32
}

func (r *recordingInvalidator) InvalidatePrincipals(ctx context.Context, ids []uint32) {
	r.batches = append(r.batches, append([]uint32(nil), ids...))
	*r.events = append(*r.events, fmt.Sprintf("invalidate:%v", ids))
}

func newProvisionFixture() (*ProvisioningService, *scriptedStore, *recordingInvalidator) {
	events := &[]string{}
	store := &scriptedStore{events: events, failAt: map[models.PrincipalType]error{}}
	inv := &recordingInvalidator{events: events}
	svc := NewProvisioningService(store, inv, logger.New("error"))
	return svc, store, inv
}

func adminToken() *auth.AccessToken {
	return &auth.AccessToken{
		UserID: "admin-1",
		Permissions: auth.NewPermissionSet(
			auth.PermissionTenantCreate,
			auth.PermissionDomainCreate,
			auth.PermissionIndividualCreate,
		),
	}
}

func validRequest() *models.ProvisionRequest {
	return &models.ProvisionRequest{
		TenantName:    "acme",
		Domain:        "acme.test",
		AdminName:     "root",
		AdminPassword: "hunter2",
		AdminEmail:    "root@acme.test",
	}
}

func TestProvision_HappyPath(t *testing.T) {
	svc, store, _ := newProvisionFixture()

	resp, err := svc.Provision(context.Background(), adminToken(), validRequest())
	require.NoError(t, err)

	assert.Equal(t, uint32(1), resp.TenantID)
	assert.Equal(t, uint32(2), resp.DomainID)
	assert.Equal(t, uint32(3), resp.AdminID)

	require.Len(t, store.calls, 3)
	assert.Equal(t, models.TypeTenant, store.calls[0].typ)
	assert.Equal(t, models.TypeDomain, store.calls[1].typ)
	assert.Equal(t, models.TypeIndividual, store.calls[2].typ)
}

func TestProvision_ThreadsTenantIDIntoDependentWrites(t *testing.T) {
	svc, store, _ := newProvisionFixture()

	resp, err := svc.Provision(context.Background(), adminToken(), validRequest())
	require.NoError(t, err)

	// The tenant itself was created unscoped (token carries no tenant scope).
	assert.Nil(t, store.calls[0].parentID)

	require.NotNil(t, store.calls[1].parentID)
	assert.Equal(t, resp.TenantID, *store.calls[1].parentID)
	require.NotNil(t, store.calls[2].parentID)
	assert.Equal(t, resp.TenantID, *store.calls[2].parentID)
}

func TestProvision_InvalidatesAfterEveryCreation(t *testing.T) {
	svc, store, inv := newProvisionFixture()

	resp, err := svc.Provision(context.Background(), adminToken(), validRequest())
	require.NoError(t, err)

	require.Len(t, inv.batches, 3)
	assert.Equal(t, []uint32{resp.TenantID}, inv.batches[0])
	assert.ElementsMatch(t, []uint32{resp.DomainID, resp.TenantID}, inv.batches[1])
	assert.ElementsMatch(t, []uint32{resp.AdminID, resp.TenantID}, inv.batches[2])

	// Each invalidation happens before the next write begins.
	assert.Equal(t, []string{
		"create:tenant:1",
		fmt.Sprintf("invalidate:%v", inv.batches[0]),
		"create:domain:2",
		fmt.Sprintf("invalidate:%v", inv.batches[1]),
		"create:individual:3",
		fmt.Sprintf("invalidate:%v", inv.batches[2]),
	}, *store.events)
}

func TestProvision_AdminAccountFields(t *testing.T) {
	svc, store, _ := newProvisionFixture()

	_, err := svc.Provision(context.Background(), adminToken(), validRequest())
	require.NoError(t, err)

	admin := store.calls[2].principal
	roles, ok := admin.Get(models.FieldRoles)
	require.True(t, ok)
	assert.Equal(t, []string{models.TenantAdminRole}, roles.List)

	secrets, _ := admin.Get(models.FieldSecrets)
	assert.Equal(t, []string{"hunter2"}, secrets.List)
	emails, _ := admin.Get(models.FieldEmails)
	assert.Equal(t, []string{"root@acme.test"}, emails.List)
}

func TestProvision_MissingPermissionBlocksAllWrites(t *testing.T) {
	for _, tc := range []struct {
		name    string
		grant   []auth.Permission
		missing auth.Permission
	}{
		{"no tenant.create", []auth.Permission{auth.PermissionDomainCreate, auth.PermissionIndividualCreate}, auth.PermissionTenantCreate},
		{"no domain.create", []auth.Permission{auth.PermissionTenantCreate, auth.PermissionIndividualCreate}, auth.PermissionDomainCreate},
		{"no individual.create", []auth.Permission{auth.PermissionTenantCreate, auth.PermissionDomainCreate}, auth.PermissionIndividualCreate},
	} {
		t.Run(tc.name, func(t *testing.T) {
			svc, store, inv := newProvisionFixture()
			token := &auth.AccessToken{UserID: "u", Permissions: auth.NewPermissionSet(tc.grant...)}

			_, err := svc.Provision(context.Background(), token, validRequest())
			var denied *auth.PermissionDeniedError
			require.ErrorAs(t, err, &denied)
			assert.Equal(t, tc.missing, denied.Permission)

			// Authorization failures happen before any store traffic.
			assert.Empty(t, store.calls)
			assert.Empty(t, inv.batches)
		})
	}
}

func TestProvision_MissingFieldBlocksAllWrites(t *testing.T) {
	svc, store, inv := newProvisionFixture()

	req := validRequest()
	req.AdminEmail = ""

	_, err := svc.Provision(context.Background(), adminToken(), req)
	var missing *models.MissingFieldError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "adminEmail", missing.Field)

	assert.Empty(t, store.calls)
	assert.Empty(t, inv.batches)
}

func TestProvision_DomainFailureLeavesTenantCommitted(t *testing.T) {
	svc, store, inv := newProvisionFixture()
	store.failAt[models.TypeDomain] = directory.ErrAlreadyExists

	_, err := svc.Provision(context.Background(), adminToken(), validRequest())
	assert.ErrorIs(t, err, directory.ErrAlreadyExists)

	// Tenant write committed and its cache invalidated; no admin attempt.
	require.Len(t, store.calls, 2)
	assert.Equal(t, models.TypeTenant, store.calls[0].typ)
	assert.Equal(t, models.TypeDomain, store.calls[1].typ)
	require.Len(t, inv.batches, 1)
	assert.Equal(t, []uint32{1}, inv.batches[0])
}

func TestProvision_TenantFailurePropagatesVerbatim(t *testing.T) {
	svc, store, inv := newProvisionFixture()
	storeErr := errors.New("connection reset by peer")
	store.failAt[models.TypeTenant] = storeErr

	_, err := svc.Provision(context.Background(), adminToken(), validRequest())
	assert.ErrorIs(t, err, storeErr)

	require.Len(t, store.calls, 1)
	assert.Empty(t, inv.batches)
}

func TestProvision_AdminFailureLeavesTenantAndDomain(t *testing.T) {
	svc, store, inv := newProvisionFixture()
	store.failAt[models.TypeIndividual] = errors.New("disk full")

	_, err := svc.Provision(context.Background(), adminToken(), validRequest())
	require.Error(t, err)

	require.Len(t, store.calls, 3)
	require.Len(t, inv.batches, 2)
}

func TestProvision_ScopedCallerTenantParent(t *testing.T) {
	svc, store, _ := newProvisionFixture()

	scope := uint32(77)
	token := adminToken()
	token.TenantID = &scope

	_, err := svc.Provision(context.Background(), token, validRequest())
	require.NoError(t, err)

	// A tenant-scoped caller creates the new tenant under its own scope.
	require.NotNil(t, store.calls[0].parentID)
	assert.Equal(t, scope, *store.calls[0].parentID)
}

func TestProvision_PassesCallerPermissionsToStore(t *testing.T) {
	svc, store, _ := newProvisionFixture()
	token := adminToken()

	_, err := svc.Provision(context.Background(), token, validRequest())
	require.NoError(t, err)

	for _, call := range store.calls {
		assert.True(t, call.permissions.Has(auth.PermissionTenantCreate))
	}
}
