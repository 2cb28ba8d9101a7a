package user

import (
	userDatamodel "github.com/danutirta/menu-access/internal/core/datamodel/user"
)

// User is the profile behind an identity, as returned by /users/me.
type User struct {
	ID            int64  `json:"id"`
	Email         string `json:"email"`
	Name          string `json:"name"`
	Role          string `json:"role"`
	CompanyID     int64  `json:"company_id"`
	CompanyAccess string `json:"company_access"`
	IsActive      bool   `json:"is_active"`
}

type RepositoryAPI interface {
	GetByID(id int64) (*User, error)
}

func FromDataModel(u *userDatamodel.User) *User {
	return &User{
		ID:            u.ID,
		Email:         u.Email,
		Name:          u.Name,
		Role:          u.Role,
		CompanyID:     u.CompanyID,
		CompanyAccess: u.CompanyAccess,
		IsActive:      u.IsActive,
	}
}
