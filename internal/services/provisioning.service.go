package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/stratoslabs/dircore/internal/auth"
	"github.com/stratoslabs/dircore/internal/models"
	"github.com/stratoslabs/dircore/internal/monitoring"
	"github.com/stratoslabs/dircore/internal/repo/directory"
	"github.com/stratoslabs/dircore/internal/tracing"
	"github.com/stratoslabs/dircore/pkg/logger"
)

// ProvisioningService creates a complete organization in one call: a tenant,
// a mail domain under that tenant, and an administrator account holding the
// tenant-admin role. The three writes are sequential and dependent; there is
// no rollback, so a failed step leaves earlier steps committed.
type ProvisioningService struct {
	store       directory.Store
	invalidator directory.Invalidator
	tracer      *tracing.ProvisionTracer
	logger      logger.Logger
}

func NewProvisioningService(store directory.Store, invalidator directory.Invalidator, log logger.Logger) *ProvisioningService {
	return &ProvisioningService{
		store:       store,
		invalidator: invalidator,
		tracer:      tracing.NewProvisionTracer("dircore-provisioning"),
		logger:      log,
	}
}

// Provision runs the organization provisioning flow for an authenticated
// caller. All three creation capabilities are asserted up front, before any
// write; the request is then validated, and the tenant, domain, and admin
// records are created in order, each followed by cache invalidation of the
// principals the write changed.
func (s *ProvisioningService) Provision(ctx context.Context, token *auth.AccessToken, req *models.ProvisionRequest) (*models.ProvisionResponse, error) {
	requestID := uuid.New().String()
	ctx, span := s.tracer.StartProvisionSpan(ctx, requestID, req.TenantName)
	defer span.End()

	for _, required := range []auth.Permission{
		auth.PermissionTenantCreate,
		auth.PermissionDomainCreate,
		auth.PermissionIndividualCreate,
	} {
		if err := token.AssertHasPermission(required); err != nil {
			s.logger.Warn("Provisioning denied",
				"requestId", requestID,
				"userId", token.UserID,
				"permission", string(required),
			)
			monitoring.RecordProvisionOperation("denied")
			tracing.RecordError(span, err)
			return nil, err
		}
	}

	if err := req.Validate(); err != nil {
		monitoring.RecordProvisionOperation("invalid")
		tracing.RecordError(span, err)
		return nil, err
	}

	s.logger.Info("Provisioning organization",
		"requestId", requestID,
		"userId", token.UserID,
		"tenantName", req.TenantName,
		"domain", req.Domain,
	)

	tenantID, err := s.createStep(ctx, requestID, models.NewTenantPrincipal(req), token.TenantID, token.Permissions)
	if err != nil {
		monitoring.RecordProvisionOperation(outcomeLabel(err))
		tracing.RecordError(span, err)
		return nil, err
	}

	domainID, err := s.createStep(ctx, requestID, models.NewDomainPrincipal(req), &tenantID, token.Permissions)
	if err != nil {
		s.logger.Warn("Provisioning failed after tenant creation; tenant remains",
			"requestId", requestID,
			"tenantId", tenantID,
			"error", err,
		)
		monitoring.RecordProvisionOperation(outcomeLabel(err))
		tracing.RecordError(span, err)
		return nil, err
	}

	adminID, err := s.createStep(ctx, requestID, models.NewAdminPrincipal(req), &tenantID, token.Permissions)
	if err != nil {
		s.logger.Warn("Provisioning failed after domain creation; tenant and domain remain",
			"requestId", requestID,
			"tenantId", tenantID,
			"domainId", domainID,
			"error", err,
		)
		monitoring.RecordProvisionOperation(outcomeLabel(err))
		tracing.RecordError(span, err)
		return nil, err
	}

	s.logger.Info("Organization provisioned",
		"requestId", requestID,
		"tenantId", tenantID,
		"domainId", domainID,
		"adminId", adminID,
	)
	monitoring.RecordProvisionOperation("success")

	return &models.ProvisionResponse{
		TenantID: tenantID,
		DomainID: domainID,
		AdminID:  adminID,
	}, nil
}

// createStep creates one principal, records store metrics, and invalidates
// the cached views of every principal the write changed before the next step
// runs.
func (s *ProvisioningService) createStep(ctx context.Context, requestID string, p models.Principal, parentID *uint32, permissions auth.PermissionSet) (uint32, error) {
	ctx, span := s.tracer.StartStepSpan(ctx, string(p.Type))
	defer span.End()

	start := time.Now()
	res, err := s.store.CreatePrincipal(ctx, p, parentID, permissions)
	monitoring.RecordStoreOperation("create", string(p.Type), time.Since(start), err == nil)
	if err != nil {
		tracing.RecordError(span, err)
		return 0, err
	}

	s.logger.Debug("Principal created",
		"requestId", requestID,
		"type", string(p.Type),
		"id", res.ID,
		"changed", res.ChangedPrincipals,
	)

	if s.invalidator != nil {
		s.invalidator.InvalidatePrincipals(ctx, res.ChangedPrincipals)
	}
	return res.ID, nil
}

func outcomeLabel(err error) string {
	var denied *auth.PermissionDeniedError
	switch {
	case errors.As(err, &denied):
		return "denied"
	case errors.Is(err, directory.ErrAlreadyExists):
		return "conflict"
	default:
		return "error"
	}
}
