package permission

import (
	"context"
	"log/slog"

	errors "github.com/danutirta/menu-access/internal"
	"github.com/danutirta/menu-access/internal/auth"
	"github.com/danutirta/menu-access/internal/core/events"
	"github.com/danutirta/menu-access/internal/menu"
	"github.com/google/uuid"
)

// Repository defines the data access methods for permission rows.
type Repository interface {
	ListRoleGrants() ([]*RoleGrant, error)
	ListUserGrants() ([]*UserGrant, error)
	UpsertRoleGrant(grant *RoleGrant) error
	UpsertUserGrant(grant *UserGrant) error
	DeleteRoleGrant(menuID int64, role auth.Role) (bool, error)
	DeleteUserGrant(menuID, userID int64) (bool, error)
}

// MenuSource supplies the flat menu rows the resolver works on. The menu
// repository satisfies it.
type MenuSource interface {
	ListAll() ([]*menu.Node, error)
	ListByCompany(companyID int64) ([]*menu.Node, error)
	GetByID(id int64) (*menu.Node, error)
}

// Service resolves visibility and enforces the delegation invariant on
// grant/revoke: nobody hands out a capability they do not hold.
type Service struct {
	repo     Repository
	menus    MenuSource
	resolver *Resolver
	bus      *events.EventBus
	logger   *slog.Logger
}

func NewService(repo Repository, menus MenuSource, bus *events.EventBus, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		menus:    menus,
		resolver: NewResolver(),
		bus:      bus,
		logger:   logger,
	}
}

func (s *Service) snapshot() (*Snapshot, error) {
	roleGrants, err := s.repo.ListRoleGrants()
	if err != nil {
		s.logger.Error("failed to list role grants", "error", err)
		return nil, err
	}
	userGrants, err := s.repo.ListUserGrants()
	if err != nil {
		s.logger.Error("failed to list user grants", "error", err)
		return nil, err
	}
	return NewSnapshot(roleGrants, userGrants), nil
}

func (s *Service) scopedRoots(identity auth.Identity) ([]*menu.Node, error) {
	var nodes []*menu.Node
	var err error
	if identity.IsRoot() || identity.CompanyAccess == auth.CompanyAccessAll {
		nodes, err = s.menus.ListAll()
	} else {
		nodes, err = s.menus.ListByCompany(identity.CompanyID)
	}
	if err != nil {
		s.logger.Error("failed to list menus", "error", err, "user_id", identity.UserID)
		return nil, err
	}

	forest := menu.BuildForest(nodes)
	if len(forest.OrphanedIDs) > 0 {
		s.logger.Warn("menu anomaly: orphaned nodes promoted to roots", "node_ids", forest.OrphanedIDs)
	}
	if len(forest.CyclicIDs) > 0 {
		s.logger.Warn("menu anomaly: cyclic nodes excluded from tree", "node_ids", forest.CyclicIDs)
	}
	return forest.Roots, nil
}

// VisibleForest returns the permission-pruned trees for the identity. An
// unknown user or an empty tree yields an empty result, never an error.
func (s *Service) VisibleForest(identity auth.Identity) ([]*menu.Node, error) {
	roots, err := s.scopedRoots(identity)
	if err != nil {
		return nil, err
	}
	snap, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	return s.resolver.VisibleForest(roots, identity, snap), nil
}

// VisibleFlat returns the flattened visible nodes with the caller's effective
// capabilities attached; set-equal to VisibleForest by construction.
func (s *Service) VisibleFlat(identity auth.Identity) ([]menu.ResolvedNode, error) {
	roots, err := s.scopedRoots(identity)
	if err != nil {
		return nil, err
	}
	snap, err := s.snapshot()
	if err != nil {
		return nil, err
	}

	visible := s.resolver.VisibleForest(roots, identity, snap)
	flat := menu.Flatten(visible)
	out := make([]menu.ResolvedNode, len(flat))
	for i, n := range flat {
		out[i] = menu.ResolvedNode{
			Node:         n,
			Capabilities: s.resolver.Effective(n, identity, snap),
		}
	}
	return out, nil
}

// CanRead answers the direct access-check question for one node.
func (s *Service) CanRead(identity auth.Identity, menuID int64) (bool, error) {
	node, err := s.menus.GetByID(menuID)
	if err != nil {
		return false, err
	}
	if node == nil {
		return false, nil
	}
	snap, err := s.snapshot()
	if err != nil {
		return false, err
	}
	return s.resolver.Effective(node, identity, snap).Read, nil
}

// Delegatable lists every (node, capability) pair the identity may grant.
func (s *Service) Delegatable(identity auth.Identity) ([]NodeCapability, error) {
	roots, err := s.scopedRoots(identity)
	if err != nil {
		return nil, err
	}
	snap, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	return s.resolver.Delegatable(roots, identity, snap), nil
}

// Assign upserts a permission row after checking the delegation invariant:
// the requested capabilities must be a subset of the actor's own effective
// permission on the node. No row is written on rejection.
func (s *Service) Assign(ctx context.Context, actor auth.Identity, dto AssignPermissionDTO) error {
	if err := dto.Validate(); err != nil {
		s.logger.Error("assign validation failed", "error", err, "actor_id", actor.UserID)
		return err
	}

	node, err := s.menus.GetByID(dto.MenuID)
	if err != nil {
		return err
	}
	if node == nil {
		return errors.ErrMenuNotFound
	}

	if !actor.CanSeeCompany(node.CompanyID) {
		s.logger.Warn("assign denied: cross-company access",
			"actor_id", actor.UserID, "menu_id", dto.MenuID)
		return errors.ErrScopeViolation
	}

	snap, err := s.snapshot()
	if err != nil {
		return err
	}

	own := s.resolver.Effective(node, actor, snap)
	if !own.Contains(dto.Capabilities) {
		s.logger.Warn("assign denied: delegation exceeds actor's own access",
			"actor_id", actor.UserID,
			"menu_id", dto.MenuID,
			"requested", dto.Capabilities.Names(),
			"held", own.Names())
		return errors.ErrDelegationDenied
	}

	grantID := uuid.NewString()
	grantedBy := actor.UserID

	if dto.Role != nil {
		grant := &RoleGrant{
			MenuID:       dto.MenuID,
			Role:         auth.Role(*dto.Role),
			Capabilities: dto.Capabilities,
			GrantID:      grantID,
			GrantedBy:    &grantedBy,
		}
		if err := s.repo.UpsertRoleGrant(grant); err != nil {
			s.logger.Error("failed to upsert role grant", "error", err, "menu_id", dto.MenuID)
			return err
		}
	} else {
		grant := &UserGrant{
			MenuID:       dto.MenuID,
			UserID:       *dto.UserID,
			Capabilities: dto.Capabilities,
			GrantID:      grantID,
			GrantedBy:    &grantedBy,
		}
		if err := s.repo.UpsertUserGrant(grant); err != nil {
			s.logger.Error("failed to upsert user grant", "error", err, "menu_id", dto.MenuID)
			return err
		}
	}

	s.publish(ctx, events.TypePermissionGranted, map[string]interface{}{
		"grant_id":     grantID,
		"menu_id":      dto.MenuID,
		"actor_id":     actor.UserID,
		"role":         dto.Role,
		"user_id":      dto.UserID,
		"capabilities": dto.Capabilities.Names(),
	})

	s.logger.Info("permission granted",
		"grant_id", grantID, "menu_id", dto.MenuID, "actor_id", actor.UserID)
	return nil
}

// Revoke deletes a permission row. The actor must hold on the node every
// capability the row carries; revocation is delegation in reverse.
func (s *Service) Revoke(ctx context.Context, actor auth.Identity, dto RevokePermissionDTO) error {
	if err := dto.Validate(); err != nil {
		s.logger.Error("revoke validation failed", "error", err, "actor_id", actor.UserID)
		return err
	}

	node, err := s.menus.GetByID(dto.MenuID)
	if err != nil {
		return err
	}
	if node == nil {
		return errors.ErrMenuNotFound
	}

	if !actor.CanSeeCompany(node.CompanyID) {
		s.logger.Warn("revoke denied: cross-company access",
			"actor_id", actor.UserID, "menu_id", dto.MenuID)
		return errors.ErrScopeViolation
	}

	snap, err := s.snapshot()
	if err != nil {
		return err
	}

	var existing auth.Capabilities
	var found bool
	if dto.Role != nil {
		existing, found = snap.RoleCaps(dto.MenuID, auth.Role(*dto.Role))
	} else {
		existing, found = snap.UserCaps(dto.MenuID, *dto.UserID)
	}
	if !found {
		return errors.ErrPermissionNotFound
	}

	own := s.resolver.Effective(node, actor, snap)
	if !own.Contains(existing) {
		s.logger.Warn("revoke denied: row exceeds actor's own access",
			"actor_id", actor.UserID, "menu_id", dto.MenuID)
		return errors.ErrDelegationDenied
	}

	var deleted bool
	if dto.Role != nil {
		deleted, err = s.repo.DeleteRoleGrant(dto.MenuID, auth.Role(*dto.Role))
	} else {
		deleted, err = s.repo.DeleteUserGrant(dto.MenuID, *dto.UserID)
	}
	if err != nil {
		s.logger.Error("failed to delete grant", "error", err, "menu_id", dto.MenuID)
		return err
	}
	if !deleted {
		return errors.ErrPermissionNotFound
	}

	s.publish(ctx, events.TypePermissionRevoked, map[string]interface{}{
		"menu_id":  dto.MenuID,
		"actor_id": actor.UserID,
		"role":     dto.Role,
		"user_id":  dto.UserID,
	})

	s.logger.Info("permission revoked", "menu_id", dto.MenuID, "actor_id", actor.UserID)
	return nil
}

func (s *Service) publish(ctx context.Context, eventType string, data map[string]interface{}) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(ctx, events.NewBaseEvent(eventType, data)); err != nil {
		s.logger.Error("failed to publish event", "error", err, "event_type", eventType)
	}
}
