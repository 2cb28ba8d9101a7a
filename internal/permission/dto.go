package permission

import (
	errors "github.com/danutirta/menu-access/internal"
	"github.com/danutirta/menu-access/internal/auth"
	"github.com/danutirta/menu-access/internal/core/common/validation"
)

// AssignPermissionDTO targets either a role or a user, never both.
type AssignPermissionDTO struct {
	MenuID       int64             `json:"menu_id"`
	Role         *string           `json:"role,omitempty"`
	UserID       *int64            `json:"user_id,omitempty"`
	Capabilities auth.Capabilities `json:"capabilities"`
}

func (d *AssignPermissionDTO) Validate() *errors.AppError {
	v := validation.NewValidator()
	v.Field("menu_id", d.MenuID).Required()
	v.Field("target", d).Custom(func(interface{}) *errors.AppError {
		return validateTarget(d.Role, d.UserID)
	})
	return v.Validate()
}

type RevokePermissionDTO struct {
	MenuID int64   `json:"menu_id"`
	Role   *string `json:"role,omitempty"`
	UserID *int64  `json:"user_id,omitempty"`
}

func (d *RevokePermissionDTO) Validate() *errors.AppError {
	v := validation.NewValidator()
	v.Field("menu_id", d.MenuID).Required()
	v.Field("target", d).Custom(func(interface{}) *errors.AppError {
		return validateTarget(d.Role, d.UserID)
	})
	return v.Validate()
}

func validateTarget(role *string, userID *int64) *errors.AppError {
	if (role == nil) == (userID == nil) {
		return errors.NewValidationFieldError("target", "exactly one of role or user_id must be set", errors.ErrCodeInvalidTarget)
	}
	if role != nil {
		parsed, err := auth.ParseRole(*role)
		if err != nil {
			return errors.NewValidationFieldError("role", "unknown role", errors.ErrCodeInvalidRole)
		}
		// root is never persisted; it bypasses the store by definition
		if parsed == auth.RoleRoot {
			return errors.NewValidationFieldError("role", "root permissions are implicit and cannot be stored", errors.ErrCodeInvalidRole)
		}
	}
	if userID != nil && *userID <= 0 {
		return errors.NewValidationFieldError("user_id", "user_id must be positive", errors.ErrCodeValidationFailed)
	}
	return nil
}
