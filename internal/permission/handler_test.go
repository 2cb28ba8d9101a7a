package permission_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	apperrors "github.com/danutirta/menu-access/internal"
	"github.com/danutirta/menu-access/internal/auth"
	"github.com/danutirta/menu-access/internal/permission"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// MockServiceAPI implements permission.ServiceAPI for handler tests
type MockServiceAPI struct {
	delegatable []permission.NodeCapability
	assignErr   error
	revokeErr   error

	lastAssign *permission.AssignPermissionDTO
	lastRevoke *permission.RevokePermissionDTO
}

func (m *MockServiceAPI) Delegatable(identity auth.Identity) ([]permission.NodeCapability, error) {
	return m.delegatable, nil
}

func (m *MockServiceAPI) Assign(ctx context.Context, actor auth.Identity, dto permission.AssignPermissionDTO) error {
	m.lastAssign = &dto
	return m.assignErr
}

func (m *MockServiceAPI) Revoke(ctx context.Context, actor auth.Identity, dto permission.RevokePermissionDTO) error {
	m.lastRevoke = &dto
	return m.revokeErr
}

var _ = Describe("Permission Handler", func() {
	var (
		mockService *MockServiceAPI
		handler     *permission.Handler
		identity    auth.Identity
	)

	BeforeEach(func() {
		mockService = &MockServiceAPI{}
		handler = permission.NewHandler(mockService)
		identity = auth.Identity{UserID: 10, Role: auth.RoleAdmin, CompanyID: 1, CompanyAccess: auth.CompanyAccessOwn}
	})

	request := func(method, target string, body interface{}, withIdentity bool) (*httptest.ResponseRecorder, *http.Request) {
		var buf bytes.Buffer
		if body != nil {
			Expect(json.NewEncoder(&buf).Encode(body)).To(Succeed())
		}
		req := httptest.NewRequest(method, target, &buf)
		if withIdentity {
			req = req.WithContext(auth.ContextWithIdentity(req.Context(), identity))
		}
		return httptest.NewRecorder(), req
	}

	Describe("GetDelegatable", func() {
		It("should return the pairs from the service", func() {
			mockService.delegatable = []permission.NodeCapability{
				{MenuID: 1, Capability: "read"},
				{MenuID: 1, Capability: "update"},
			}

			w, req := request(http.MethodGet, "/permissions/delegatable", nil, true)
			handler.GetDelegatable(w, req)

			Expect(w.Code).To(Equal(http.StatusOK))

			var resp struct {
				Delegatable []permission.NodeCapability `json:"delegatable"`
			}
			Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
			Expect(resp.Delegatable).To(HaveLen(2))
		})

		It("should reject a request without an identity", func() {
			w, req := request(http.MethodGet, "/permissions/delegatable", nil, false)
			handler.GetDelegatable(w, req)

			Expect(w.Code).To(Equal(http.StatusUnauthorized))
		})
	})

	Describe("AssignPermission", func() {
		It("should pass the decoded DTO to the service", func() {
			role := "user"
			w, req := request(http.MethodPost, "/permissions/assign", permission.AssignPermissionDTO{
				MenuID:       1,
				Role:         &role,
				Capabilities: auth.Capabilities{Read: true},
			}, true)
			handler.AssignPermission(w, req)

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(mockService.lastAssign).NotTo(BeNil())
			Expect(mockService.lastAssign.MenuID).To(Equal(int64(1)))
		})

		It("should map a delegation rejection to 403", func() {
			mockService.assignErr = apperrors.ErrDelegationDenied

			role := "user"
			w, req := request(http.MethodPost, "/permissions/assign", permission.AssignPermissionDTO{
				MenuID:       1,
				Role:         &role,
				Capabilities: auth.Capabilities{Delete: true},
			}, true)
			handler.AssignPermission(w, req)

			Expect(w.Code).To(Equal(http.StatusForbidden))
		})

		It("should map an unknown menu to 404", func() {
			mockService.assignErr = apperrors.ErrMenuNotFound

			role := "user"
			w, req := request(http.MethodPost, "/permissions/assign", permission.AssignPermissionDTO{
				MenuID: 99,
				Role:   &role,
			}, true)
			handler.AssignPermission(w, req)

			Expect(w.Code).To(Equal(http.StatusNotFound))
		})

		It("should reject a malformed body", func() {
			req := httptest.NewRequest(http.MethodPost, "/permissions/assign", bytes.NewBufferString("{"))
			req = req.WithContext(auth.ContextWithIdentity(req.Context(), identity))
			w := httptest.NewRecorder()
			handler.AssignPermission(w, req)

			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("RevokePermission", func() {
		It("should map a missing row to 404", func() {
			mockService.revokeErr = apperrors.ErrPermissionNotFound

			role := "user"
			w, req := request(http.MethodPost, "/permissions/revoke", permission.RevokePermissionDTO{
				MenuID: 1,
				Role:   &role,
			}, true)
			handler.RevokePermission(w, req)

			Expect(w.Code).To(Equal(http.StatusNotFound))
		})

		It("should confirm a successful revoke", func() {
			role := "user"
			w, req := request(http.MethodPost, "/permissions/revoke", permission.RevokePermissionDTO{
				MenuID: 1,
				Role:   &role,
			}, true)
			handler.RevokePermission(w, req)

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(mockService.lastRevoke).NotTo(BeNil())
		})
	})
})
