package auth

import (
	"context"
	"fmt"

	"github.com/danutirta/menu-access/internal"
)

// Role is one of the canonical privilege levels. Custom roles ("Department
// Manager" and friends) are mapped to a canonical level by the identity
// provider before a request reaches this service.
type Role string

const (
	RoleRoot  Role = "root"
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
	RoleNone  Role = "none"
)

var rolePrivilege = map[Role]int{
	RoleRoot:  3,
	RoleAdmin: 2,
	RoleUser:  1,
	RoleNone:  0,
}

func ParseRole(s string) (Role, error) {
	r := Role(s)
	if _, ok := rolePrivilege[r]; !ok {
		return RoleNone, internal.NewValidationError(fmt.Sprintf("unknown role %q", s), internal.ErrCodeInvalidRole)
	}
	return r, nil
}

func (r Role) Valid() bool {
	_, ok := rolePrivilege[r]
	return ok
}

// AtLeast reports whether r sits at or above other in the privilege order.
func (r Role) AtLeast(other Role) bool {
	return rolePrivilege[r] >= rolePrivilege[other]
}

// CompanyAccess is the tenant scope attached to an identity.
type CompanyAccess string

const (
	CompanyAccessAll  CompanyAccess = "all"
	CompanyAccessOwn  CompanyAccess = "own"
	CompanyAccessNone CompanyAccess = "none"
)

func ParseCompanyAccess(s string) (CompanyAccess, error) {
	switch CompanyAccess(s) {
	case CompanyAccessAll, CompanyAccessOwn, CompanyAccessNone:
		return CompanyAccess(s), nil
	}
	return CompanyAccessNone, internal.NewValidationError(fmt.Sprintf("unknown company access %q", s), internal.ErrCodeValidationFailed)
}

// Capabilities are the four independent booleans tracked per menu/permission
// pair. The zero value means no access.
type Capabilities struct {
	Read   bool `json:"read"`
	Create bool `json:"create"`
	Update bool `json:"update"`
	Delete bool `json:"delete"`
}

func FullCapabilities() Capabilities {
	return Capabilities{Read: true, Create: true, Update: true, Delete: true}
}

func (c Capabilities) Any() bool {
	return c.Read || c.Create || c.Update || c.Delete
}

// Contains reports whether every capability set in sub is also set in c.
func (c Capabilities) Contains(sub Capabilities) bool {
	if sub.Read && !c.Read {
		return false
	}
	if sub.Create && !c.Create {
		return false
	}
	if sub.Update && !c.Update {
		return false
	}
	if sub.Delete && !c.Delete {
		return false
	}
	return true
}

// Names returns the set capability names in a fixed order.
func (c Capabilities) Names() []string {
	var names []string
	if c.Read {
		names = append(names, "read")
	}
	if c.Create {
		names = append(names, "create")
	}
	if c.Update {
		names = append(names, "update")
	}
	if c.Delete {
		names = append(names, "delete")
	}
	return names
}

// Identity is the already-verified caller of a request: who they are, their
// canonical role and which company partition they belong to.
type Identity struct {
	UserID        int64         `json:"user_id"`
	Role          Role          `json:"role"`
	CompanyID     int64         `json:"company_id"`
	CompanyAccess CompanyAccess `json:"company_access"`
}

func (id Identity) IsRoot() bool {
	return id.Role == RoleRoot
}

// CanSeeCompany reports whether this identity may resolve nodes scoped to the
// given company. A nil company means the node is company-agnostic.
func (id Identity) CanSeeCompany(companyID *int64) bool {
	if companyID == nil {
		return true
	}
	if id.IsRoot() || id.CompanyAccess == CompanyAccessAll {
		return true
	}
	if id.CompanyAccess == CompanyAccessNone {
		return false
	}
	return *companyID == id.CompanyID
}

func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(internal.ContextIdentityKey).(Identity)
	return id, ok
}

func ContextWithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, internal.ContextIdentityKey, id)
}
