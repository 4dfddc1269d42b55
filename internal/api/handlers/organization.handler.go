package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stratoslabs/dircore/internal/api/middleware"
	"github.com/stratoslabs/dircore/internal/auth"
	"github.com/stratoslabs/dircore/internal/models"
	"github.com/stratoslabs/dircore/internal/repo/directory"
	"github.com/stratoslabs/dircore/internal/services"
	"github.com/stratoslabs/dircore/pkg/logger"
)

// OrganizationHandler exposes the organization provisioning operation.
type OrganizationHandler struct {
	provisioning *services.ProvisioningService
	logger       logger.Logger
}

func NewOrganizationHandler(provisioning *services.ProvisioningService, logger logger.Logger) *OrganizationHandler {
	return &OrganizationHandler{
		provisioning: provisioning,
		logger:       logger,
	}
}

// POST /api/v1/organizations/provision - Create tenant, domain, and admin in one call
func (h *OrganizationHandler) Provision(c *gin.Context) {
	var req models.ProvisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status": "error",
			"error":  "Invalid request body",
			"detail": err.Error(),
		})
		return
	}

	token := middleware.GetAccessToken(c)
	if token == nil {
		// Auth disabled (development): act as an unscoped superuser.
		token = &auth.AccessToken{
			UserID: "anonymous",
			Permissions: auth.NewPermissionSet(
				auth.PermissionTenantCreate,
				auth.PermissionDomainCreate,
				auth.PermissionIndividualCreate,
			),
		}
	}

	resp, err := h.provisioning.Provision(c.Request.Context(), token, &req)
	if err != nil {
		status, message := provisionErrorStatus(err)
		c.JSON(status, gin.H{
			"status": "error",
			"error":  message,
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"status": "success",
		"data":   resp,
	})
}

// provisionErrorStatus maps provisioning failures to HTTP responses. Store
// errors surface with their original message.
func provisionErrorStatus(err error) (int, string) {
	var missing *models.MissingFieldError
	var denied *auth.PermissionDeniedError
	switch {
	case errors.As(err, &missing):
		return http.StatusBadRequest, missing.Error()
	case errors.As(err, &denied):
		return http.StatusForbidden, denied.Error()
	case errors.Is(err, directory.ErrAlreadyExists):
		return http.StatusConflict, err.Error()
	case errors.Is(err, directory.ErrNotFound):
		return http.StatusNotFound, err.Error()
	default:
		return http.StatusInternalServerError, err.Error()
	}
}
