package permission

import (
	"github.com/danutirta/menu-access/internal/auth"
	permissionDatamodel "github.com/danutirta/menu-access/internal/core/datamodel/permission"
)

// RoleGrant is a role-keyed permission row: (menu, role) -> capabilities.
type RoleGrant struct {
	MenuID       int64             `json:"menu_id"`
	Role         auth.Role         `json:"role"`
	Capabilities auth.Capabilities `json:"capabilities"`
	GrantID      string            `json:"grant_id,omitempty"`
	GrantedBy    *int64            `json:"granted_by,omitempty"`
}

// UserGrant is a user-keyed permission row; it overrides any role row for the
// same menu during resolution.
type UserGrant struct {
	MenuID       int64             `json:"menu_id"`
	UserID       int64             `json:"user_id"`
	Capabilities auth.Capabilities `json:"capabilities"`
	GrantID      string            `json:"grant_id,omitempty"`
	GrantedBy    *int64            `json:"granted_by,omitempty"`
}

func RoleGrantFromDataModel(row *permissionDatamodel.RolePermission) *RoleGrant {
	return &RoleGrant{
		MenuID: row.MenuID,
		Role:   auth.Role(row.Role),
		Capabilities: auth.Capabilities{
			Read:   row.CanRead,
			Create: row.CanCreate,
			Update: row.CanUpdate,
			Delete: row.CanDelete,
		},
		GrantID:   row.GrantID,
		GrantedBy: row.GrantedBy,
	}
}

func RoleGrantToDataModel(g *RoleGrant) *permissionDatamodel.RolePermission {
	return &permissionDatamodel.RolePermission{
		MenuID:    g.MenuID,
		Role:      string(g.Role),
		CanRead:   g.Capabilities.Read,
		CanCreate: g.Capabilities.Create,
		CanUpdate: g.Capabilities.Update,
		CanDelete: g.Capabilities.Delete,
		GrantID:   g.GrantID,
		GrantedBy: g.GrantedBy,
	}
}

func UserGrantFromDataModel(row *permissionDatamodel.UserPermission) *UserGrant {
	return &UserGrant{
		MenuID: row.MenuID,
		UserID: row.UserID,
		Capabilities: auth.Capabilities{
			Read:   row.CanRead,
			Create: row.CanCreate,
			Update: row.CanUpdate,
			Delete: row.CanDelete,
		},
		GrantID:   row.GrantID,
		GrantedBy: row.GrantedBy,
	}
}

func UserGrantToDataModel(g *UserGrant) *permissionDatamodel.UserPermission {
	return &permissionDatamodel.UserPermission{
		MenuID:    g.MenuID,
		UserID:    g.UserID,
		CanRead:   g.Capabilities.Read,
		CanCreate: g.Capabilities.Create,
		CanUpdate: g.Capabilities.Update,
		CanDelete: g.Capabilities.Delete,
		GrantID:   g.GrantID,
		GrantedBy: g.GrantedBy,
	}
}

type roleKey struct {
	menuID int64
	role   auth.Role
}

type userKey struct {
	menuID int64
	userID int64
}

// Snapshot is the permission store as of the start of a request. Resolution
// never re-reads mid-computation; a concurrent mutation shows up on the next
// request.
type Snapshot struct {
	roleGrants map[roleKey]auth.Capabilities
	userGrants map[userKey]auth.Capabilities
}

func NewSnapshot(roleGrants []*RoleGrant, userGrants []*UserGrant) *Snapshot {
	s := &Snapshot{
		roleGrants: make(map[roleKey]auth.Capabilities, len(roleGrants)),
		userGrants: make(map[userKey]auth.Capabilities, len(userGrants)),
	}
	for _, g := range roleGrants {
		s.roleGrants[roleKey{g.MenuID, g.Role}] = g.Capabilities
	}
	for _, g := range userGrants {
		s.userGrants[userKey{g.MenuID, g.UserID}] = g.Capabilities
	}
	return s
}

func (s *Snapshot) RoleCaps(menuID int64, role auth.Role) (auth.Capabilities, bool) {
	caps, ok := s.roleGrants[roleKey{menuID, role}]
	return caps, ok
}

func (s *Snapshot) UserCaps(menuID, userID int64) (auth.Capabilities, bool) {
	caps, ok := s.userGrants[userKey{menuID, userID}]
	return caps, ok
}
