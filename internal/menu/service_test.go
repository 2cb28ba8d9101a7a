package menu_test

import (
	"context"
	"errors"
	"log/slog"
	"os"

	apperrors "github.com/danutirta/menu-access/internal"
	"github.com/danutirta/menu-access/internal/auth"
	"github.com/danutirta/menu-access/internal/core/events"
	"github.com/danutirta/menu-access/internal/menu"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// MockRepository implements menu.Repository for testing
type MockRepository struct {
	nodes      map[int64]*menu.Node
	nextID     int64
	shouldFail bool
	failError  error
}

func NewMockRepository() *MockRepository {
	return &MockRepository{
		nodes:  make(map[int64]*menu.Node),
		nextID: 1,
	}
}

func (m *MockRepository) ListAll() ([]*menu.Node, error) {
	if m.shouldFail {
		return nil, m.failError
	}
	var out []*menu.Node
	for _, n := range m.nodes {
		out = append(out, n.Clone())
	}
	return out, nil
}

func (m *MockRepository) ListByCompany(companyID int64) ([]*menu.Node, error) {
	if m.shouldFail {
		return nil, m.failError
	}
	var out []*menu.Node
	for _, n := range m.nodes {
		if n.CompanyID == nil || *n.CompanyID == companyID {
			out = append(out, n.Clone())
		}
	}
	return out, nil
}

func (m *MockRepository) GetByID(id int64) (*menu.Node, error) {
	if m.shouldFail {
		return nil, m.failError
	}
	n, ok := m.nodes[id]
	if !ok {
		return nil, nil
	}
	return n.Clone(), nil
}

func (m *MockRepository) Create(node *menu.Node) error {
	if m.shouldFail {
		return m.failError
	}
	node.ID = m.nextID
	m.nextID++
	m.nodes[node.ID] = node.Clone()
	return nil
}

func (m *MockRepository) Update(node *menu.Node) error {
	if m.shouldFail {
		return m.failError
	}
	m.nodes[node.ID] = node.Clone()
	return nil
}

func (m *MockRepository) DeleteSubtree(ids []int64) error {
	if m.shouldFail {
		return m.failError
	}
	for _, id := range ids {
		delete(m.nodes, id)
	}
	return nil
}

func (m *MockRepository) MaxSiblingOrder(parentID *int64) (int, error) {
	if m.shouldFail {
		return 0, m.failError
	}
	max := -1
	for _, n := range m.nodes {
		sameParent := (n.ParentID == nil && parentID == nil) ||
			(n.ParentID != nil && parentID != nil && *n.ParentID == *parentID)
		if sameParent && n.Order > max {
			max = n.Order
		}
	}
	return max, nil
}

func (m *MockRepository) SetShouldFail(shouldFail bool, err error) {
	m.shouldFail = shouldFail
	m.failError = err
}

func (m *MockRepository) AddNode(n *menu.Node) {
	m.nodes[n.ID] = n.Clone()
	if n.ID >= m.nextID {
		m.nextID = n.ID + 1
	}
}

func (m *MockRepository) IDs() []int64 {
	var ids []int64
	for id := range m.nodes {
		ids = append(ids, id)
	}
	return ids
}

var _ = Describe("Menu Service", func() {
	var (
		mockRepo *MockRepository
		service  *menu.Service
		logger   *slog.Logger
	)

	BeforeEach(func() {
		mockRepo = NewMockRepository()
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = menu.NewService(mockRepo, nil, logger)
	})

	Describe("ForestFor", func() {
		BeforeEach(func() {
			companyTwo := int64(2)
			mockRepo.AddNode(&menu.Node{ID: 1, Name: "Dashboard", Order: 0})
			mockRepo.AddNode(&menu.Node{ID: 2, Name: "Reports", Order: 1})
			mockRepo.AddNode(&menu.Node{ID: 3, Name: "Summary", Order: 0, ParentID: ptr(2)})
			mockRepo.AddNode(&menu.Node{ID: 4, Name: "Billing", Order: 2, CompanyID: &companyTwo})
		})

		It("should return everything for a root identity", func() {
			forest, err := service.ForestFor(auth.Identity{UserID: 1, Role: auth.RoleRoot, CompanyAccess: auth.CompanyAccessAll})
			Expect(err).NotTo(HaveOccurred())
			Expect(forest.Roots).To(HaveLen(3))
		})

		It("should scope a regular identity to its company plus shared nodes", func() {
			forest, err := service.ForestFor(auth.Identity{UserID: 2, Role: auth.RoleUser, CompanyID: 1, CompanyAccess: auth.CompanyAccessOwn})
			Expect(err).NotTo(HaveOccurred())
			Expect(forest.Roots).To(HaveLen(2))
			Expect(menu.FlattenIDs(forest.Roots)).To(Equal([]int64{1, 2, 3}))
		})

		It("should propagate repository errors", func() {
			mockRepo.SetShouldFail(true, errors.New("database error"))
			_, err := service.ForestFor(auth.Identity{Role: auth.RoleRoot})
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("CreateNode", func() {
		It("should create a root node", func() {
			created, err := service.CreateNode(menu.CreateNodeDTO{Name: "Dashboard", Icon: "dashboard"})
			Expect(err).NotTo(HaveOccurred())
			Expect(created.ID).To(BeNumerically(">", 0))
			Expect(created.Name).To(Equal("Dashboard"))
		})

		It("should default order to one past the last sibling", func() {
			mockRepo.AddNode(&menu.Node{ID: 1, Name: "First", Order: 3})

			created, err := service.CreateNode(menu.CreateNodeDTO{Name: "Second"})
			Expect(err).NotTo(HaveOccurred())
			Expect(created.Order).To(Equal(4))
		})

		It("should default order to zero when there are no siblings", func() {
			created, err := service.CreateNode(menu.CreateNodeDTO{Name: "Only"})
			Expect(err).NotTo(HaveOccurred())
			Expect(created.Order).To(Equal(0))
		})

		It("should honor an explicit order", func() {
			order := 7
			created, err := service.CreateNode(menu.CreateNodeDTO{Name: "Placed", Order: &order})
			Expect(err).NotTo(HaveOccurred())
			Expect(created.Order).To(Equal(7))
		})

		It("should reject an empty name", func() {
			_, err := service.CreateNode(menu.CreateNodeDTO{Name: ""})
			Expect(err).To(HaveOccurred())

			appErr, ok := apperrors.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(apperrors.ErrorTypeValidation))
		})

		It("should reject a negative order", func() {
			order := -1
			_, err := service.CreateNode(menu.CreateNodeDTO{Name: "Bad", Order: &order})
			Expect(err).To(HaveOccurred())
		})

		It("should reject a missing parent", func() {
			_, err := service.CreateNode(menu.CreateNodeDTO{Name: "Child", ParentID: ptr(99)})
			Expect(err).To(Equal(apperrors.ErrParentNotFound))
		})

		It("should attach the node under an existing parent", func() {
			mockRepo.AddNode(&menu.Node{ID: 1, Name: "Parent"})

			created, err := service.CreateNode(menu.CreateNodeDTO{Name: "Child", ParentID: ptr(1)})
			Expect(err).NotTo(HaveOccurred())
			Expect(*created.ParentID).To(Equal(int64(1)))
		})
	})

	Describe("UpdateNode", func() {
		BeforeEach(func() {
			mockRepo.AddNode(&menu.Node{ID: 1, Name: "Root", Order: 0})
			mockRepo.AddNode(&menu.Node{ID: 2, Name: "Child", Order: 0, ParentID: ptr(1)})
			mockRepo.AddNode(&menu.Node{ID: 3, Name: "Grandchild", Order: 0, ParentID: ptr(2)})
		})

		It("should update scalar fields", func() {
			name := "Renamed"
			updated, err := service.UpdateNode(2, menu.UpdateNodeDTO{Name: &name})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Name).To(Equal("Renamed"))
			Expect(*updated.ParentID).To(Equal(int64(1)))
		})

		It("should return not found for an unknown node", func() {
			name := "x"
			_, err := service.UpdateNode(99, menu.UpdateNodeDTO{Name: &name})
			Expect(err).To(Equal(apperrors.ErrMenuNotFound))
		})

		It("should move a node to a new parent", func() {
			updated, err := service.UpdateNode(3, menu.UpdateNodeDTO{ParentID: ptr(1), SetParent: true})
			Expect(err).NotTo(HaveOccurred())
			Expect(*updated.ParentID).To(Equal(int64(1)))
		})

		It("should promote a node to root when parent is cleared", func() {
			updated, err := service.UpdateNode(3, menu.UpdateNodeDTO{SetParent: true})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.ParentID).To(BeNil())
		})

		It("should reject a move under an unknown parent", func() {
			_, err := service.UpdateNode(3, menu.UpdateNodeDTO{ParentID: ptr(99), SetParent: true})
			Expect(err).To(Equal(apperrors.ErrParentNotFound))
		})

		Context("when the move would create a cycle", func() {
			It("should reject the mutation", func() {
				_, err := service.UpdateNode(1, menu.UpdateNodeDTO{ParentID: ptr(3), SetParent: true})
				Expect(err).To(Equal(apperrors.ErrCycleDetected))
			})

			It("should leave the stored tree unchanged", func() {
				_, err := service.UpdateNode(1, menu.UpdateNodeDTO{ParentID: ptr(3), SetParent: true})
				Expect(err).To(HaveOccurred())

				stored, err := mockRepo.GetByID(1)
				Expect(err).NotTo(HaveOccurred())
				Expect(stored.ParentID).To(BeNil())
			})

			It("should reject a node as its own parent", func() {
				_, err := service.UpdateNode(2, menu.UpdateNodeDTO{ParentID: ptr(2), SetParent: true})
				Expect(err).To(Equal(apperrors.ErrCycleDetected))
			})
		})
	})

	Describe("DeleteNode", func() {
		BeforeEach(func() {
			mockRepo.AddNode(&menu.Node{ID: 1, Name: "Root"})
			mockRepo.AddNode(&menu.Node{ID: 2, Name: "Child", ParentID: ptr(1)})
			mockRepo.AddNode(&menu.Node{ID: 3, Name: "Grandchild", ParentID: ptr(2)})
			mockRepo.AddNode(&menu.Node{ID: 4, Name: "Sibling"})
		})

		It("should delete the whole subtree and report the ids", func() {
			deleted, err := service.DeleteNode(1)
			Expect(err).NotTo(HaveOccurred())
			Expect(deleted).To(Equal([]int64{1, 2, 3}))
			Expect(mockRepo.IDs()).To(ConsistOf(int64(4)))
		})

		It("should delete a leaf without touching anything else", func() {
			deleted, err := service.DeleteNode(3)
			Expect(err).NotTo(HaveOccurred())
			Expect(deleted).To(Equal([]int64{3}))
			Expect(mockRepo.IDs()).To(ConsistOf(int64(1), int64(2), int64(4)))
		})

		It("should return not found for an unknown node", func() {
			_, err := service.DeleteNode(99)
			Expect(err).To(Equal(apperrors.ErrMenuNotFound))
		})

		Context("with an event bus attached", func() {
			It("should announce the removed subtree to subscribers", func() {
				bus := events.NewEventBus(logger)
				received := make(chan events.Event, 1)
				bus.Subscribe(events.TypeMenuDeleted, func(ctx context.Context, e events.Event) error {
					received <- e
					return nil
				})

				busService := menu.NewService(mockRepo, bus, logger)
				deleted, err := busService.DeleteNode(1)
				Expect(err).NotTo(HaveOccurred())
				Expect(deleted).To(Equal([]int64{1, 2, 3}))

				var e events.Event
				Eventually(received).Should(Receive(&e))
				Expect(e.EventType()).To(Equal(events.TypeMenuDeleted))

				data, ok := e.Payload().(map[string]interface{})
				Expect(ok).To(BeTrue())
				Expect(data["menu_id"]).To(Equal(int64(1)))
				Expect(data["deleted_ids"]).To(Equal([]int64{1, 2, 3}))
			})
		})
	})
})
