package menu

import (
	errors "github.com/danutirta/menu-access/internal"
	"github.com/danutirta/menu-access/internal/core/common/validation"
)

type CreateNodeDTO struct {
	Name          string  `json:"name"`
	NameLocalized *string `json:"name_localized,omitempty"`
	Icon          string  `json:"icon,omitempty"`
	Order         *int    `json:"order,omitempty"`
	ParentID      *int64  `json:"parent_id,omitempty"`
	CompanyID     *int64  `json:"company_id,omitempty"`
}

func (d *CreateNodeDTO) Validate() *errors.AppError {
	v := validation.NewValidator()
	v.Field("name", d.Name).Required().MaxLength(100)
	v.Field("icon", d.Icon).MaxLength(100)
	v.Field("order", d.Order).MinInt(0, errors.ErrCodeInvalidOrder)
	return v.Validate()
}

type UpdateNodeDTO struct {
	Name          *string `json:"name,omitempty"`
	NameLocalized *string `json:"name_localized,omitempty"`
	Icon          *string `json:"icon,omitempty"`
	Order         *int    `json:"order,omitempty"`
	// ParentID moves the node; SetParent distinguishes "no change" from
	// "make this a root".
	ParentID  *int64 `json:"parent_id,omitempty"`
	SetParent bool   `json:"set_parent,omitempty"`
}

func (d *UpdateNodeDTO) Validate() *errors.AppError {
	v := validation.NewValidator()
	if d.Name != nil {
		v.Field("name", *d.Name).Required().MaxLength(100)
	}
	if d.Icon != nil {
		v.Field("icon", *d.Icon).MaxLength(100)
	}
	v.Field("order", d.Order).MinInt(0, errors.ErrCodeInvalidOrder)
	return v.Validate()
}
