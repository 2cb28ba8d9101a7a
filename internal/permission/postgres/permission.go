package postgres

import (
	"github.com/danutirta/menu-access/internal/auth"
	permissionDatamodel "github.com/danutirta/menu-access/internal/core/datamodel/permission"
	"github.com/danutirta/menu-access/internal/permission"
	"gorm.io/gorm"
)

type PermissionRepository struct {
	db *gorm.DB
}

func NewPermissionRepository(db *gorm.DB) permission.Repository {
	return &PermissionRepository{db: db}
}

func (r *PermissionRepository) ListRoleGrants() ([]*permission.RoleGrant, error) {
	var rows []*permissionDatamodel.RolePermission
	if err := r.db.Find(&rows).Error; err != nil {
		return nil, err
	}
	grants := make([]*permission.RoleGrant, len(rows))
	for i, row := range rows {
		grants[i] = permission.RoleGrantFromDataModel(row)
	}
	return grants, nil
}

func (r *PermissionRepository) ListUserGrants() ([]*permission.UserGrant, error) {
	var rows []*permissionDatamodel.UserPermission
	if err := r.db.Find(&rows).Error; err != nil {
		return nil, err
	}
	grants := make([]*permission.UserGrant, len(rows))
	for i, row := range rows {
		grants[i] = permission.UserGrantFromDataModel(row)
	}
	return grants, nil
}

// UpsertRoleGrant writes the row keyed by the unique (menu_id, role) pair;
// last writer wins.
func (r *PermissionRepository) UpsertRoleGrant(grant *permission.RoleGrant) error {
	row := permission.RoleGrantToDataModel(grant)
	return r.db.Transaction(func(tx *gorm.DB) error {
		var existing permissionDatamodel.RolePermission
		err := tx.Where("menu_id = ? AND role = ?", row.MenuID, row.Role).First(&existing).Error
		if err == gorm.ErrRecordNotFound {
			return tx.Create(row).Error
		}
		if err != nil {
			return err
		}
		return tx.Model(&existing).Updates(map[string]interface{}{
			"can_read":   row.CanRead,
			"can_create": row.CanCreate,
			"can_update": row.CanUpdate,
			"can_delete": row.CanDelete,
			"grant_id":   row.GrantID,
			"granted_by": row.GrantedBy,
		}).Error
	})
}

func (r *PermissionRepository) UpsertUserGrant(grant *permission.UserGrant) error {
	row := permission.UserGrantToDataModel(grant)
	return r.db.Transaction(func(tx *gorm.DB) error {
		var existing permissionDatamodel.UserPermission
		err := tx.Where("menu_id = ? AND user_id = ?", row.MenuID, row.UserID).First(&existing).Error
		if err == gorm.ErrRecordNotFound {
			return tx.Create(row).Error
		}
		if err != nil {
			return err
		}
		return tx.Model(&existing).Updates(map[string]interface{}{
			"can_read":   row.CanRead,
			"can_create": row.CanCreate,
			"can_update": row.CanUpdate,
			"can_delete": row.CanDelete,
			"grant_id":   row.GrantID,
			"granted_by": row.GrantedBy,
		}).Error
	})
}

func (r *PermissionRepository) DeleteRoleGrant(menuID int64, role auth.Role) (bool, error) {
	result := r.db.Where("menu_id = ? AND role = ?", menuID, string(role)).
		Delete(&permissionDatamodel.RolePermission{})
	return result.RowsAffected > 0, result.Error
}

func (r *PermissionRepository) DeleteUserGrant(menuID, userID int64) (bool, error) {
	result := r.db.Where("menu_id = ? AND user_id = ?", menuID, userID).
		Delete(&permissionDatamodel.UserPermission{})
	return result.RowsAffected > 0, result.Error
}
