package permission

import "time"

// RolePermission maps (menu_id, role) to capability booleans. The root role
// is never persisted here; it bypasses the store entirely.
type RolePermission struct {
	ID        int64     `gorm:"primaryKey"`
	MenuID    int64     `gorm:"column:menu_id;not null;uniqueIndex:idx_menu_role"`
	Role      string    `gorm:"column:role;not null;uniqueIndex:idx_menu_role"`
	CanRead   bool      `gorm:"column:can_read;not null;default:false"`
	CanCreate bool      `gorm:"column:can_create;not null;default:false"`
	CanUpdate bool      `gorm:"column:can_update;not null;default:false"`
	CanDelete bool      `gorm:"column:can_delete;not null;default:false"`
	GrantID   string    `gorm:"column:grant_id"`
	GrantedBy *int64    `gorm:"column:granted_by"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (RolePermission) TableName() string {
	return "menu_role_permissions"
}

// UserPermission maps (menu_id, user_id) to capability booleans and overrides
// any role-level row during resolution.
type UserPermission struct {
	ID        int64     `gorm:"primaryKey"`
	MenuID    int64     `gorm:"column:menu_id;not null;uniqueIndex:idx_menu_user"`
	UserID    int64     `gorm:"column:user_id;not null;uniqueIndex:idx_menu_user"`
	CanRead   bool      `gorm:"column:can_read;not null;default:false"`
	CanCreate bool      `gorm:"column:can_create;not null;default:false"`
	CanUpdate bool      `gorm:"column:can_update;not null;default:false"`
	CanDelete bool      `gorm:"column:can_delete;not null;default:false"`
	GrantID   string    `gorm:"column:grant_id"`
	GrantedBy *int64    `gorm:"column:granted_by"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (UserPermission) TableName() string {
	return "menu_user_permissions"
}
