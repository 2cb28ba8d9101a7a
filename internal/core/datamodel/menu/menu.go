package menu

import "time"

// Menu is the flat persisted record; the tree shape only exists in memory
// after building. Children are linked by parent_id, never embedded.
type Menu struct {
	ID            int64     `gorm:"primaryKey"`
	Name          string    `gorm:"column:name;not null"`
	NameLocalized *string   `gorm:"column:name_localized"`
	Icon          string    `gorm:"column:icon"`
	OrderNum      int       `gorm:"column:order_num;not null;default:0;index"`
	ParentID      *int64    `gorm:"column:parent_id;index"`
	CompanyID     *int64    `gorm:"column:company_id;index"`
	CreatedAt     time.Time `gorm:"column:created_at"`
	UpdatedAt     time.Time `gorm:"column:updated_at"`
}

func (Menu) TableName() string {
	return "menus"
}
