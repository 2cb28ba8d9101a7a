package cmd

import (
	"fmt"
	"log"

	menuDatamodel "github.com/danutirta/menu-access/internal/core/datamodel/menu"
	permissionDatamodel "github.com/danutirta/menu-access/internal/core/datamodel/permission"
	userDatamodel "github.com/danutirta/menu-access/internal/core/datamodel/user"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	gormPostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with sample data for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		db, err := gorm.Open(gormPostgres.Open(cfg.Database.Source), &gorm.Config{})
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}

		if clearData {
			fmt.Println("Clearing existing data...")
			for _, table := range []string{"menu_user_permissions", "menu_role_permissions", "menus", "users"} {
				if err := db.Exec("DELETE FROM " + table).Error; err != nil {
					log.Fatalf("failed to clear %s: %v", table, err)
				}
			}
		}

		seedUsers(db, cfg.Security.BCryptCost)
		menuIDs := seedMenus(db)
		seedPermissions(db, menuIDs)

		fmt.Println("Seeding complete.")
	},
}

func seedUsers(db *gorm.DB, bcryptCost int) {
	password := "password"
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		log.Fatalf("failed to hash seed password: %v", err)
	}

	users := []userDatamodel.User{
		{Email: "root@mail.com", Name: "Root Operator", PasswordHash: string(hash), Role: "root", CompanyID: 1, CompanyAccess: "all", IsActive: true},
		{Email: "admin.acme@mail.com", Name: "Acme Admin", PasswordHash: string(hash), Role: "admin", CompanyID: 1, CompanyAccess: "own", IsActive: true},
		{Email: "user.acme@mail.com", Name: "Acme User", PasswordHash: string(hash), Role: "user", CompanyID: 1, CompanyAccess: "own", IsActive: true},
		{Email: "admin.globex@mail.com", Name: "Globex Admin", PasswordHash: string(hash), Role: "admin", CompanyID: 2, CompanyAccess: "own", IsActive: true},
	}

	for i := range users {
		var exists int64
		db.Model(&userDatamodel.User{}).Where("email = ?", users[i].Email).Count(&exists)
		if exists > 0 {
			fmt.Println("user already exists:", users[i].Email)
			continue
		}
		if err := db.Create(&users[i]).Error; err != nil {
			log.Fatalf("failed to insert user %s: %v", users[i].Email, err)
		}
		fmt.Println("Seeded user:", users[i].Email)
	}
}

// seedMenus inserts a small shared forest plus one company-scoped subtree and
// returns the menu ids keyed by name for the permission seeding step.
func seedMenus(db *gorm.DB) map[string]int64 {
	companyOne := int64(1)

	type seedNode struct {
		name       string
		icon       string
		order      int
		parentName string
		companyID  *int64
	}

	nodes := []seedNode{
		{name: "Dashboard", icon: "dashboard", order: 0},
		{name: "Reports", icon: "chart", order: 1},
		{name: "Monthly Summary", icon: "calendar", order: 0, parentName: "Reports"},
		{name: "Audit Trail", icon: "list", order: 1, parentName: "Reports"},
		{name: "Settings", icon: "gear", order: 2},
		{name: "User Management", icon: "users", order: 0, parentName: "Settings"},
		{name: "Billing", icon: "credit-card", order: 1, parentName: "Settings", companyID: &companyOne},
	}

	ids := make(map[string]int64, len(nodes))
	for _, n := range nodes {
		var existing menuDatamodel.Menu
		err := db.Where("name = ?", n.name).First(&existing).Error
		if err == nil {
			ids[n.name] = existing.ID
			continue
		}
		if err != gorm.ErrRecordNotFound {
			log.Fatalf("failed to look up menu %s: %v", n.name, err)
		}

		row := menuDatamodel.Menu{
			Name:      n.name,
			Icon:      n.icon,
			OrderNum:  n.order,
			CompanyID: n.companyID,
		}
		if n.parentName != "" {
			parentID, ok := ids[n.parentName]
			if !ok {
				log.Fatalf("seed order broken: parent %s not inserted before %s", n.parentName, n.name)
			}
			row.ParentID = &parentID
		}
		if err := db.Create(&row).Error; err != nil {
			log.Fatalf("failed to insert menu %s: %v", n.name, err)
		}
		ids[n.name] = row.ID
		fmt.Println("Seeded menu:", n.name)
	}

	return ids
}

func seedPermissions(db *gorm.DB, menuIDs map[string]int64) {
	fullAccess := [4]bool{true, true, true, true}
	readOnly := [4]bool{true, false, false, false}

	roleGrants := []struct {
		menu string
		role string
		caps [4]bool
	}{
		{"Dashboard", "admin", fullAccess},
		{"Dashboard", "user", readOnly},
		{"Reports", "admin", fullAccess},
		{"Monthly Summary", "admin", fullAccess},
		{"Monthly Summary", "user", readOnly},
		{"Audit Trail", "admin", readOnly},
		{"Settings", "admin", fullAccess},
		{"User Management", "admin", fullAccess},
		{"Billing", "admin", fullAccess},
	}

	for _, g := range roleGrants {
		menuID, ok := menuIDs[g.menu]
		if !ok {
			log.Fatalf("role grant references unknown menu %s", g.menu)
		}

		var exists int64
		db.Model(&permissionDatamodel.RolePermission{}).
			Where("menu_id = ? AND role = ?", menuID, g.role).
			Count(&exists)
		if exists > 0 {
			continue
		}

		row := permissionDatamodel.RolePermission{
			MenuID:    menuID,
			Role:      g.role,
			CanRead:   g.caps[0],
			CanCreate: g.caps[1],
			CanUpdate: g.caps[2],
			CanDelete: g.caps[3],
			GrantID:   uuid.NewString(),
		}
		if err := db.Create(&row).Error; err != nil {
			log.Fatalf("failed to insert role grant %s/%s: %v", g.menu, g.role, err)
		}
		fmt.Printf("Seeded role grant: %s -> %s\n", g.role, g.menu)
	}

	// user override: the Acme user gets write access to Monthly Summary even
	// though the user role is read-only there
	var acmeUser userDatamodel.User
	if err := db.Where("email = ?", "user.acme@mail.com").First(&acmeUser).Error; err != nil {
		log.Fatalf("failed to look up seeded user: %v", err)
	}

	menuID := menuIDs["Monthly Summary"]
	var exists int64
	db.Model(&permissionDatamodel.UserPermission{}).
		Where("menu_id = ? AND user_id = ?", menuID, acmeUser.ID).
		Count(&exists)
	if exists == 0 {
		row := permissionDatamodel.UserPermission{
			MenuID:    menuID,
			UserID:    acmeUser.ID,
			CanRead:   true,
			CanCreate: true,
			CanUpdate: true,
			CanDelete: false,
			GrantID:   uuid.NewString(),
		}
		if err := db.Create(&row).Error; err != nil {
			log.Fatalf("failed to insert user grant: %v", err)
		}
		fmt.Println("Seeded user grant: user.acme@mail.com -> Monthly Summary")
	}
}
