package models

import "time"

// Org types.
const (
	OrgTypeSource = "source"
	OrgTypeTarget = "target"
)

// Org is a connected Salesforce organisation. Tokens are stored by the org
// repository and consumed by the REST client factory.
type Org struct {
	ID           string     `json:"id" db:"id"`
	Name         string     `json:"name" db:"name"`
	OrgType      string     `json:"org_type" db:"org_type"`
	InstanceURL  string     `json:"instance_url" db:"instance_url"`
	AccessToken  string     `json:"-" db:"access_token"`
	RefreshToken string     `json:"-" db:"refresh_token"`
	APIVersion   string     `json:"api_version" db:"api_version"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
}

// CreateOrgRequest is the payload for registering an org connection.
type CreateOrgRequest struct {
	Name         string `json:"name" validate:"required"`
	OrgType      string `json:"org_type" validate:"required,oneof=source target"`
	InstanceURL  string `json:"instance_url" validate:"required,url"`
	AccessToken  string `json:"access_token" validate:"required"`
	RefreshToken string `json:"refresh_token"`
	APIVersion   string `json:"api_version"`
}

// OrgListResponse is the paged response for listing orgs.
type OrgListResponse struct {
	Items      []Org `json:"items"`
	TotalCount int   `json:"total_count"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
}
