package models

// Directory principal model. Every directory entity (tenant, domain,
// individual account, ...) is represented uniformly as a type tag plus a
// mapping from a closed set of field identifiers to tagged values.

// PrincipalType identifies the kind of directory entity a principal record
// describes.
type PrincipalType string

const (
	TypeIndividual PrincipalType = "individual"
	TypeGroup      PrincipalType = "group"
	TypeResource   PrincipalType = "resource"
	TypeLocation   PrincipalType = "location"
	TypeList       PrincipalType = "list"
	TypeOther      PrincipalType = "other"
	TypeDomain     PrincipalType = "domain"
	TypeTenant     PrincipalType = "tenant"
	TypeRole       PrincipalType = "role"
	TypeAPIKey     PrincipalType = "apiKey"
)

// PrincipalField is the closed set of attribute identifiers a principal
// record may carry. Field presence is type-dependent but not enforced by the
// model itself; callers building records decide which fields apply.
type PrincipalField string

const (
	FieldName         PrincipalField = "name"
	FieldDescription  PrincipalField = "description"
	FieldSecrets      PrincipalField = "secrets"
	FieldEmails       PrincipalField = "emails"
	FieldRoles        PrincipalField = "roles"
	FieldBrandName    PrincipalField = "brandName"
	FieldBrandLogoURL PrincipalField = "brandLogoUrl"
	FieldBrandTheme   PrincipalField = "brandTheme"
)

// TenantAdminRole is the role granted to the administrator account created
// during organization provisioning.
const TenantAdminRole = "tenant-admin"

// PrincipalValue is a tagged attribute value: either a single string or an
// ordered list of strings. Exactly one of String/List is set.
type PrincipalValue struct {
	String string   `json:"string,omitempty"`
	List   []string `json:"list,omitempty"`
}

// StringValue wraps a single string attribute value.
func StringValue(s string) PrincipalValue {
	return PrincipalValue{String: s}
}

// ListValue wraps an ordered string-list attribute value.
func ListValue(items ...string) PrincipalValue {
	return PrincipalValue{List: items}
}

// IsList reports whether the value carries a string list.
func (v PrincipalValue) IsList() bool {
	return v.List != nil
}

// Principal is a type-tagged attribute record describing a directory entity.
type Principal struct {
	Type   PrincipalType                     `json:"type"`
	Fields map[PrincipalField]PrincipalValue `json:"fields"`
}

// NewPrincipal returns an empty principal record of the given type.
func NewPrincipal(typ PrincipalType) Principal {
	return Principal{Type: typ, Fields: make(map[PrincipalField]PrincipalValue)}
}

// Set stores a field value on the record, replacing any existing value.
func (p *Principal) Set(field PrincipalField, value PrincipalValue) {
	if p.Fields == nil {
		p.Fields = make(map[PrincipalField]PrincipalValue)
	}
	p.Fields[field] = value
}

// Get returns the value for field and whether it is present.
func (p *Principal) Get(field PrincipalField) (PrincipalValue, bool) {
	v, ok := p.Fields[field]
	return v, ok
}

// Name returns the record's name field, or "" when unset.
func (p *Principal) Name() string {
	return p.Fields[FieldName].String
}

// NewTenantPrincipal builds the tenant record for a provisioning request.
// Branding and description fields are set only when present in the request.
func NewTenantPrincipal(req *ProvisionRequest) Principal {
	tenant := NewPrincipal(TypeTenant)
	tenant.Set(FieldName, StringValue(req.TenantName))
	if req.Description != "" {
		tenant.Set(FieldDescription, StringValue(req.Description))
	}
	if req.BrandName != "" {
		tenant.Set(FieldBrandName, StringValue(req.BrandName))
	}
	if req.BrandLogoURL != "" {
		tenant.Set(FieldBrandLogoURL, StringValue(req.BrandLogoURL))
	}
	if req.BrandTheme != "" {
		tenant.Set(FieldBrandTheme, StringValue(req.BrandTheme))
	}
	return tenant
}

// NewDomainPrincipal builds the domain record for a provisioning request.
// Domains carry no branding fields.
func NewDomainPrincipal(req *ProvisionRequest) Principal {
	domain := NewPrincipal(TypeDomain)
	domain.Set(FieldName, StringValue(req.Domain))
	return domain
}

// NewAdminPrincipal builds the administrator account record for a
// provisioning request, granting the fixed tenant-admin role.
func NewAdminPrincipal(req *ProvisionRequest) Principal {
	admin := NewPrincipal(TypeIndividual)
	admin.Set(FieldName, StringValue(req.AdminName))
	admin.Set(FieldSecrets, ListValue(req.AdminPassword))
	admin.Set(FieldEmails, ListValue(req.AdminEmail))
	admin.Set(FieldRoles, ListValue(TenantAdminRole))
	return admin
}
