package menu

import (
	"context"
	"log/slog"

	errors "github.com/danutirta/menu-access/internal"
	"github.com/danutirta/menu-access/internal/auth"
	"github.com/danutirta/menu-access/internal/core/events"
)

// Repository defines the data access methods for menu rows.
type Repository interface {
	ListAll() ([]*Node, error)
	ListByCompany(companyID int64) ([]*Node, error)
	GetByID(id int64) (*Node, error)
	Create(node *Node) error
	Update(node *Node) error
	DeleteSubtree(ids []int64) error
	MaxSiblingOrder(parentID *int64) (int, error)
}

// Service handles menu structure logic: scoped forest reads and the
// cycle-safe mutations.
type Service struct {
	repo   Repository
	bus    *events.EventBus
	logger *slog.Logger
}

func NewService(repo Repository, bus *events.EventBus, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		bus:    bus,
		logger: logger,
	}
}

// listScoped returns the flat rows the identity may resolve against: the
// whole installation for root/all-access identities, otherwise the caller's
// company plus company-agnostic rows.
func (s *Service) listScoped(identity auth.Identity) ([]*Node, error) {
	if identity.IsRoot() || identity.CompanyAccess == auth.CompanyAccessAll {
		return s.repo.ListAll()
	}
	return s.repo.ListByCompany(identity.CompanyID)
}

// ForestFor builds the full (unpruned) forest for the identity's scope.
// Orphans and cycles are fail-soft but logged as anomalies.
func (s *Service) ForestFor(identity auth.Identity) (*Forest, error) {
	nodes, err := s.listScoped(identity)
	if err != nil {
		s.logger.Error("failed to list menus", "error", err, "user_id", identity.UserID)
		return nil, err
	}

	forest := BuildForest(nodes)
	if len(forest.OrphanedIDs) > 0 {
		s.logger.Warn("menu anomaly: orphaned nodes promoted to roots",
			"node_ids", forest.OrphanedIDs)
	}
	if len(forest.CyclicIDs) > 0 {
		s.logger.Warn("menu anomaly: cyclic nodes excluded from tree",
			"node_ids", forest.CyclicIDs)
	}

	return forest, nil
}

func (s *Service) CreateNode(dto CreateNodeDTO) (*Node, error) {
	if err := dto.Validate(); err != nil {
		s.logger.Error("menu validation failed", "error", err)
		return nil, err
	}

	if dto.ParentID != nil {
		parent, err := s.repo.GetByID(*dto.ParentID)
		if err != nil {
			s.logger.Error("failed to look up parent", "error", err, "parent_id", *dto.ParentID)
			return nil, err
		}
		if parent == nil {
			return nil, errors.ErrParentNotFound
		}
	}

	order := 0
	if dto.Order != nil {
		order = *dto.Order
	} else {
		max, err := s.repo.MaxSiblingOrder(dto.ParentID)
		if err != nil {
			s.logger.Error("failed to compute sibling order", "error", err)
			return nil, err
		}
		order = max + 1
	}

	node := &Node{
		Name:          dto.Name,
		NameLocalized: dto.NameLocalized,
		Icon:          dto.Icon,
		Order:         order,
		ParentID:      dto.ParentID,
		CompanyID:     dto.CompanyID,
	}

	if err := s.repo.Create(node); err != nil {
		s.logger.Error("failed to create menu node", "error", err, "name", dto.Name)
		return nil, err
	}

	// impossible with generated ids, but reject the degenerate self-parent
	// row rather than persisting a cycle
	if node.ParentID != nil && *node.ParentID == node.ID {
		_ = s.repo.DeleteSubtree([]int64{node.ID})
		return nil, errors.ErrCycleDetected
	}

	s.logger.Info("menu node created", "menu_id", node.ID, "name", node.Name, "parent_id", dto.ParentID)
	return node, nil
}

func (s *Service) UpdateNode(id int64, dto UpdateNodeDTO) (*Node, error) {
	if err := dto.Validate(); err != nil {
		s.logger.Error("menu validation failed", "error", err, "menu_id", id)
		return nil, err
	}

	node, err := s.repo.GetByID(id)
	if err != nil {
		s.logger.Error("failed to load menu node", "error", err, "menu_id", id)
		return nil, err
	}
	if node == nil {
		return nil, errors.ErrMenuNotFound
	}

	if dto.SetParent {
		// acyclicity must be checked against the current rows, not a cached
		// tree
		if dto.ParentID != nil {
			parent, err := s.repo.GetByID(*dto.ParentID)
			if err != nil {
				return nil, err
			}
			if parent == nil {
				return nil, errors.ErrParentNotFound
			}

			all, err := s.repo.ListAll()
			if err != nil {
				return nil, err
			}
			if WouldCycle(all, id, dto.ParentID) {
				s.logger.Warn("menu mutation rejected: cycle detected",
					"menu_id", id, "new_parent_id", *dto.ParentID)
				return nil, errors.ErrCycleDetected
			}
		}
		node.ParentID = dto.ParentID
	}

	if dto.Name != nil {
		node.Name = *dto.Name
	}
	if dto.NameLocalized != nil {
		node.NameLocalized = dto.NameLocalized
	}
	if dto.Icon != nil {
		node.Icon = *dto.Icon
	}
	if dto.Order != nil {
		node.Order = *dto.Order
	}

	if err := s.repo.Update(node); err != nil {
		s.logger.Error("failed to update menu node", "error", err, "menu_id", id)
		return nil, err
	}

	s.logger.Info("menu node updated", "menu_id", id)
	return node, nil
}

// DeleteNode removes the node and its whole subtree together with every
// permission row keyed to any of them, in one transaction.
func (s *Service) DeleteNode(id int64) ([]int64, error) {
	node, err := s.repo.GetByID(id)
	if err != nil {
		s.logger.Error("failed to load menu node", "error", err, "menu_id", id)
		return nil, err
	}
	if node == nil {
		return nil, errors.ErrMenuNotFound
	}

	all, err := s.repo.ListAll()
	if err != nil {
		return nil, err
	}
	ids := DescendantIDs(all, id)

	if err := s.repo.DeleteSubtree(ids); err != nil {
		s.logger.Error("failed to delete menu subtree", "error", err, "menu_id", id)
		return nil, err
	}

	s.publish(events.TypeMenuDeleted, map[string]interface{}{
		"menu_id":     id,
		"deleted_ids": ids,
	})

	s.logger.Info("menu subtree deleted", "menu_id", id, "deleted_count", len(ids))
	return ids, nil
}

func (s *Service) publish(eventType string, data map[string]interface{}) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(context.Background(), events.NewBaseEvent(eventType, data)); err != nil {
		s.logger.Error("failed to publish event", "error", err, "event_type", eventType)
	}
}
