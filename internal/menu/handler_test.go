package menu_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"

	"github.com/danutirta/menu-access/internal/auth"
	menuDatamodel "github.com/danutirta/menu-access/internal/core/datamodel/menu"
	permissionDatamodel "github.com/danutirta/menu-access/internal/core/datamodel/permission"
	"github.com/danutirta/menu-access/internal/menu"
	menuPostgres "github.com/danutirta/menu-access/internal/menu/postgres"
	"github.com/danutirta/menu-access/internal/permission"
	permissionPostgres "github.com/danutirta/menu-access/internal/permission/postgres"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testSlogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

var _ = Describe("Menu Handler Integration", func() {
	var (
		db                *gorm.DB
		menuRepo          menu.Repository
		menuService       *menu.Service
		permissionService *permission.Service
		handler           *menu.Handler
		router            *chi.Mux

		rootIdentity auth.Identity
		userIdentity auth.Identity
	)

	serve := func(identity auth.Identity, method, target string, body interface{}) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		if body != nil {
			Expect(json.NewEncoder(&buf).Encode(body)).To(Succeed())
		}
		req := httptest.NewRequest(method, target, &buf)
		req = req.WithContext(auth.ContextWithIdentity(req.Context(), identity))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	BeforeEach(func() {
		var err error
		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		Expect(err).NotTo(HaveOccurred())

		err = db.AutoMigrate(
			&menuDatamodel.Menu{},
			&permissionDatamodel.RolePermission{},
			&permissionDatamodel.UserPermission{},
		)
		Expect(err).NotTo(HaveOccurred())

		slogger := testSlogger()
		menuRepo = menuPostgres.NewMenuRepository(db)
		permissionRepo := permissionPostgres.NewPermissionRepository(db)
		menuService = menu.NewService(menuRepo, nil, slogger)
		permissionService = permission.NewService(permissionRepo, menuRepo, nil, slogger)
		handler = menu.NewHandler(menuService, permissionService)

		router = chi.NewRouter()
		router.Get("/menus/tree", handler.GetMenuTree)
		router.Get("/menus/flat", handler.GetMenuFlat)
		router.Post("/menus", handler.CreateNode)
		router.Put("/menus/{id}", handler.UpdateNode)
		router.Delete("/menus/{id}", handler.DeleteNode)

		rootIdentity = auth.Identity{UserID: 1, Role: auth.RoleRoot, CompanyID: 1, CompanyAccess: auth.CompanyAccessAll}
		userIdentity = auth.Identity{UserID: 7, Role: auth.RoleUser, CompanyID: 1, CompanyAccess: auth.CompanyAccessOwn}

		// Folder -> Leaf, plus a standalone node
		folder := &menu.Node{Name: "Folder", Order: 0}
		Expect(menuRepo.Create(folder)).To(Succeed())
		leaf := &menu.Node{Name: "Leaf", Order: 0, ParentID: &folder.ID}
		Expect(menuRepo.Create(leaf)).To(Succeed())
		standalone := &menu.Node{Name: "Standalone", Order: 1}
		Expect(menuRepo.Create(standalone)).To(Succeed())

		Expect(permissionRepo.UpsertRoleGrant(&permission.RoleGrant{
			MenuID:       leaf.ID,
			Role:         auth.RoleUser,
			Capabilities: auth.Capabilities{Read: true},
		})).To(Succeed())
	})

	Describe("GET /menus/tree", func() {
		It("should return the full forest for root", func() {
			w := serve(rootIdentity, http.MethodGet, "/menus/tree", nil)
			Expect(w.Code).To(Equal(http.StatusOK))

			var resp struct {
				Menus []*menu.Node `json:"menus"`
			}
			Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
			Expect(resp.Menus).To(HaveLen(2))
		})

		It("should prune the forest for a regular user", func() {
			w := serve(userIdentity, http.MethodGet, "/menus/tree", nil)
			Expect(w.Code).To(Equal(http.StatusOK))

			var resp struct {
				Menus []*menu.Node `json:"menus"`
			}
			Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
			Expect(resp.Menus).To(HaveLen(1))
			Expect(resp.Menus[0].Name).To(Equal("Folder"))
			Expect(resp.Menus[0].Children).To(HaveLen(1))
			Expect(resp.Menus[0].Children[0].Name).To(Equal("Leaf"))
		})
	})

	Describe("GET /menus/flat", func() {
		It("should return entries with capabilities in display order", func() {
			w := serve(userIdentity, http.MethodGet, "/menus/flat", nil)
			Expect(w.Code).To(Equal(http.StatusOK))

			var resp struct {
				Menus []struct {
					ID           int64             `json:"id"`
					Capabilities auth.Capabilities `json:"capabilities"`
				} `json:"menus"`
			}
			Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
			Expect(resp.Menus).To(HaveLen(2))
			Expect(resp.Menus[0].Capabilities.Read).To(BeFalse())
			Expect(resp.Menus[1].Capabilities.Read).To(BeTrue())
		})
	})

	Describe("POST /menus", func() {
		It("should create a node", func() {
			w := serve(rootIdentity, http.MethodPost, "/menus", menu.CreateNodeDTO{Name: "New Entry"})
			Expect(w.Code).To(Equal(http.StatusCreated))

			var created menu.Node
			Expect(json.NewDecoder(w.Body).Decode(&created)).To(Succeed())
			Expect(created.ID).To(BeNumerically(">", 0))
			Expect(created.Name).To(Equal("New Entry"))
		})

		It("should reject an invalid body", func() {
			w := serve(rootIdentity, http.MethodPost, "/menus", menu.CreateNodeDTO{Name: ""})
			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("PUT /menus/{id}", func() {
		It("should reject a cycle with a conflict status", func() {
			// move Folder (1) under its own Leaf (2)
			w := serve(rootIdentity, http.MethodPut, "/menus/1", menu.UpdateNodeDTO{
				ParentID:  ptr(2),
				SetParent: true,
			})
			Expect(w.Code).To(Equal(http.StatusConflict))
		})

		It("should return 404 for an unknown node", func() {
			name := "x"
			w := serve(rootIdentity, http.MethodPut, "/menus/99", menu.UpdateNodeDTO{Name: &name})
			Expect(w.Code).To(Equal(http.StatusNotFound))
		})
	})

	Describe("DELETE /menus/{id}", func() {
		It("should cascade the subtree and report the deleted ids", func() {
			w := serve(rootIdentity, http.MethodDelete, "/menus/1", nil)
			Expect(w.Code).To(Equal(http.StatusOK))

			var resp struct {
				DeletedIDs []int64 `json:"deleted_ids"`
			}
			Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
			Expect(resp.DeletedIDs).To(Equal([]int64{1, 2}))

			remaining, err := menuRepo.ListAll()
			Expect(err).NotTo(HaveOccurred())
			Expect(remaining).To(HaveLen(1))
			Expect(remaining[0].Name).To(Equal("Standalone"))
		})
	})
})
