package menu

import (
	menuDatamodel "github.com/danutirta/menu-access/internal/core/datamodel/menu"

	"github.com/danutirta/menu-access/internal/auth"
)

// Node is one menu entry. Children are populated by BuildForest; a freshly
// loaded node has none.
type Node struct {
	ID            int64   `json:"id"`
	Name          string  `json:"name"`
	NameLocalized *string `json:"name_localized,omitempty"`
	Icon          string  `json:"icon,omitempty"`
	Order         int     `json:"order"`
	ParentID      *int64  `json:"parent_id,omitempty"`
	CompanyID     *int64  `json:"company_id,omitempty"`
	Children      []*Node `json:"children,omitempty"`
}

// ResolvedNode pairs a node with the caller's effective capabilities on it,
// used by the flat listing endpoint.
type ResolvedNode struct {
	*Node
	Capabilities auth.Capabilities `json:"capabilities"`
}

// Clone copies the node without its children.
func (n *Node) Clone() *Node {
	c := *n
	c.Children = nil
	return &c
}

func FromDataModel(m *menuDatamodel.Menu) *Node {
	return &Node{
		ID:            m.ID,
		Name:          m.Name,
		NameLocalized: m.NameLocalized,
		Icon:          m.Icon,
		Order:         m.OrderNum,
		ParentID:      m.ParentID,
		CompanyID:     m.CompanyID,
	}
}

func FromDataModelSlice(rows []*menuDatamodel.Menu) []*Node {
	nodes := make([]*Node, len(rows))
	for i, m := range rows {
		nodes[i] = FromDataModel(m)
	}
	return nodes
}

func ToDataModel(n *Node) *menuDatamodel.Menu {
	return &menuDatamodel.Menu{
		ID:            n.ID,
		Name:          n.Name,
		NameLocalized: n.NameLocalized,
		Icon:          n.Icon,
		OrderNum:      n.Order,
		ParentID:      n.ParentID,
		CompanyID:     n.CompanyID,
	}
}
