package permission

import (
	"github.com/danutirta/menu-access/internal/auth"
	"github.com/danutirta/menu-access/internal/menu"
)

// NodeCapability is one delegatable (node, capability) pair.
type NodeCapability struct {
	MenuID     int64  `json:"menu_id"`
	Capability string `json:"capability"`
}

// Resolver is the single source of truth for effective permissions. Every
// call site asks it instead of re-deriving defaults.
type Resolver struct{}

func NewResolver() *Resolver {
	return &Resolver{}
}

// Effective computes the caller's capabilities on one node. Resolution order,
// first match wins:
//  1. root bypasses the store entirely and holds everything
//  2. company scope: a node owned by another company resolves to nothing
//  3. user-keyed row, verbatim
//  4. role-keyed row, verbatim
//  5. no row means no access
func (r *Resolver) Effective(node *menu.Node, identity auth.Identity, snap *Snapshot) auth.Capabilities {
	if identity.IsRoot() {
		return auth.FullCapabilities()
	}

	if !identity.CanSeeCompany(node.CompanyID) {
		return auth.Capabilities{}
	}

	if caps, ok := snap.UserCaps(node.ID, identity.UserID); ok {
		return caps
	}

	if caps, ok := snap.RoleCaps(node.ID, identity.Role); ok {
		return caps
	}

	return auth.Capabilities{}
}

// VisibleForest prunes the forest down to what the identity may navigate: a
// node stays when it is readable or when any descendant is (folder nodes are
// kept purely as navigation ancestors). The input trees are never mutated.
func (r *Resolver) VisibleForest(roots []*menu.Node, identity auth.Identity, snap *Snapshot) []*menu.Node {
	var visible []*menu.Node
	for _, root := range roots {
		if pruned := r.pruneNode(root, identity, snap); pruned != nil {
			visible = append(visible, pruned)
		}
	}
	return visible
}

func (r *Resolver) pruneNode(n *menu.Node, identity auth.Identity, snap *Snapshot) *menu.Node {
	var children []*menu.Node
	for _, child := range n.Children {
		if pruned := r.pruneNode(child, identity, snap); pruned != nil {
			children = append(children, pruned)
		}
	}

	if !r.Effective(n, identity, snap).Read && len(children) == 0 {
		return nil
	}

	clone := n.Clone()
	clone.Children = children
	return clone
}

// Delegatable returns every (node, capability) pair the identity may grant to
// someone else: exactly the capabilities they hold themselves.
func (r *Resolver) Delegatable(roots []*menu.Node, identity auth.Identity, snap *Snapshot) []NodeCapability {
	var out []NodeCapability
	for _, n := range menu.Flatten(roots) {
		caps := r.Effective(n, identity, snap)
		for _, name := range caps.Names() {
			out = append(out, NodeCapability{MenuID: n.ID, Capability: name})
		}
	}
	return out
}
