package models

import "fmt"

// ProvisionRequest is the request body for organization provisioning.
// One call creates a tenant, a domain under it, and an admin account.
type ProvisionRequest struct {
	// Tenant / organization
	TenantName string `json:"tenantName"`
	Domain     string `json:"domain"`

	// Admin user
	AdminName     string `json:"adminName"`
	AdminPassword string `json:"adminPassword"`
	AdminEmail    string `json:"adminEmail"`

	// Optional branding
	BrandName    string `json:"brandName,omitempty"`
	BrandLogoURL string `json:"brandLogoUrl,omitempty"`
	BrandTheme   string `json:"brandTheme,omitempty"`

	// Optional org description
	Description string `json:"description,omitempty"`
}

// MissingFieldError reports the first required request field found empty.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing required field: %s", e.Field)
}

// Validate checks the five required fields for non-emptiness in a fixed
// order and returns a MissingFieldError for the first empty one. It has no
// side effects and must pass before any mutation is attempted.
func (r *ProvisionRequest) Validate() error {
	checks := []struct {
		name  string
		value string
	}{
		{"tenantName", r.TenantName},
		{"domain", r.Domain},
		{"adminName", r.AdminName},
		{"adminPassword", r.AdminPassword},
		{"adminEmail", r.AdminEmail},
	}
	for _, c := range checks {
		if c.value == "" {
			return &MissingFieldError{Field: c.name}
		}
	}
	return nil
}

// ProvisionResponse carries the three identifiers assigned by the directory
// store, returned together as the operation's durable outcome.
type ProvisionResponse struct {
	TenantID uint32 `json:"tenantId"`
	DomainID uint32 `json:"domainId"`
	AdminID  uint32 `json:"adminId"`
}
