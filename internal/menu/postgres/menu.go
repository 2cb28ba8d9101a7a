package postgres

import (
	menuDatamodel "github.com/danutirta/menu-access/internal/core/datamodel/menu"
	permissionDatamodel "github.com/danutirta/menu-access/internal/core/datamodel/permission"
	"github.com/danutirta/menu-access/internal/menu"
	"gorm.io/gorm"
)

type MenuRepository struct {
	db *gorm.DB
}

func NewMenuRepository(db *gorm.DB) menu.Repository {
	return &MenuRepository{db: db}
}

func (r *MenuRepository) ListAll() ([]*menu.Node, error) {
	var rows []*menuDatamodel.Menu
	err := r.db.Order("order_num ASC, id ASC").Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return menu.FromDataModelSlice(rows), nil
}

// ListByCompany returns the company's rows plus company-agnostic rows.
func (r *MenuRepository) ListByCompany(companyID int64) ([]*menu.Node, error) {
	var rows []*menuDatamodel.Menu
	err := r.db.
		Where("company_id = ? OR company_id IS NULL", companyID).
		Order("order_num ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return menu.FromDataModelSlice(rows), nil
}

func (r *MenuRepository) GetByID(id int64) (*menu.Node, error) {
	var row menuDatamodel.Menu
	err := r.db.Where("id = ?", id).First(&row).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return menu.FromDataModel(&row), nil
}

func (r *MenuRepository) Create(node *menu.Node) error {
	row := menu.ToDataModel(node)
	if err := r.db.Create(row).Error; err != nil {
		return err
	}
	node.ID = row.ID
	return nil
}

func (r *MenuRepository) Update(node *menu.Node) error {
	row := menu.ToDataModel(node)
	return r.db.Model(&menuDatamodel.Menu{}).
		Where("id = ?", row.ID).
		Select("name", "name_localized", "icon", "order_num", "parent_id", "updated_at").
		Updates(map[string]interface{}{
			"name":           row.Name,
			"name_localized": row.NameLocalized,
			"icon":           row.Icon,
			"order_num":      row.OrderNum,
			"parent_id":      row.ParentID,
		}).Error
}

// DeleteSubtree removes the given menu rows and every permission row keyed to
// them in one transaction: either all of it goes or none of it does.
func (r *MenuRepository) DeleteSubtree(ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("menu_id IN ?", ids).Delete(&permissionDatamodel.RolePermission{}).Error; err != nil {
			return err
		}
		if err := tx.Where("menu_id IN ?", ids).Delete(&permissionDatamodel.UserPermission{}).Error; err != nil {
			return err
		}
		return tx.Where("id IN ?", ids).Delete(&menuDatamodel.Menu{}).Error
	})
}

func (r *MenuRepository) MaxSiblingOrder(parentID *int64) (int, error) {
	var max *int
	query := r.db.Model(&menuDatamodel.Menu{}).Select("MAX(order_num)")
	if parentID == nil {
		query = query.Where("parent_id IS NULL")
	} else {
		query = query.Where("parent_id = ?", *parentID)
	}
	if err := query.Scan(&max).Error; err != nil {
		return 0, err
	}
	if max == nil {
		return -1, nil
	}
	return *max, nil
}
