package model

import "github.com/google/uuid"

type Role string

const (
	RoleSales        Role = "SALES"
	RoleSalesManager Role = "SALES_MANAGER"
	RoleClient       Role = "CLIENT"
)

// Principal is the authenticated caller extracted from the access token.
type Principal struct {
	UserID uuid.UUID
	Role   Role
}

func (p Principal) IsSales() bool        { return p.Role == RoleSales }
func (p Principal) IsSalesManager() bool { return p.Role == RoleSalesManager }
func (p Principal) IsClient() bool       { return p.Role == RoleClient }
