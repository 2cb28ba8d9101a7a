package menu

import "sort"

// Forest is the result of building flat rows into trees. Orphaned nodes
// (parent_id pointing at a row missing from the input) are promoted to roots
// rather than dropped; nodes on a parent cycle are excluded. Both are
// anomalies the caller is expected to log.
type Forest struct {
	Roots       []*Node
	OrphanedIDs []int64
	CyclicIDs   []int64
}

// BuildForest links flat nodes into trees ordered by (order, id). The input
// nodes are not mutated; the forest owns fresh copies.
func BuildForest(nodes []*Node) *Forest {
	forest := &Forest{}

	index := make(map[int64]*Node, len(nodes))
	for _, n := range nodes {
		index[n.ID] = n.Clone()
	}

	cyclic := detectCycles(index)
	for id := range cyclic {
		delete(index, id)
		forest.CyclicIDs = append(forest.CyclicIDs, id)
	}

	for _, n := range index {
		switch {
		case n.ParentID == nil:
			forest.Roots = append(forest.Roots, n)
		case index[*n.ParentID] == nil:
			// fail-soft: promote to root, record the anomaly
			forest.OrphanedIDs = append(forest.OrphanedIDs, n.ID)
			forest.Roots = append(forest.Roots, n)
		default:
			parent := index[*n.ParentID]
			parent.Children = append(parent.Children, n)
		}
	}

	sortSiblings(forest.Roots)
	for _, n := range index {
		sortSiblings(n.Children)
	}
	sortIDs(forest.OrphanedIDs)
	sortIDs(forest.CyclicIDs)

	return forest
}

// detectCycles returns the ids of every node whose parent chain never reaches
// a root. Uses three-state marking so each node is walked once.
func detectCycles(index map[int64]*Node) map[int64]bool {
	const (
		unvisited = 0
		walking   = 1
		safe      = 2
		cyclic    = 3
	)

	state := make(map[int64]int, len(index))
	cycles := make(map[int64]bool)

	for id := range index {
		if state[id] != unvisited {
			continue
		}

		var path []int64
		cur := id
		for {
			node, ok := index[cur]
			if !ok {
				// missing parent terminates the chain; orphan handling
				// takes it from here
				break
			}
			if state[cur] == safe {
				break
			}
			if state[cur] == walking || state[cur] == cyclic {
				// everything on the current path feeds into a cycle
				for _, p := range path {
					state[p] = cyclic
					cycles[p] = true
				}
				state[cur] = cyclic
				cycles[cur] = true
				path = nil
				break
			}

			state[cur] = walking
			path = append(path, cur)

			if node.ParentID == nil {
				break
			}
			cur = *node.ParentID
		}

		for _, p := range path {
			state[p] = safe
		}
	}

	return cycles
}

// WouldCycle reports whether re-parenting node id under newParentID creates a
// loop, checked against the current flat rows. A node can never be its own
// parent or the descendant of itself.
func WouldCycle(nodes []*Node, id int64, newParentID *int64) bool {
	if newParentID == nil {
		return false
	}
	if *newParentID == id {
		return true
	}

	parents := make(map[int64]*int64, len(nodes))
	for _, n := range nodes {
		parents[n.ID] = n.ParentID
	}

	seen := make(map[int64]bool)
	cur := *newParentID
	for {
		if cur == id {
			return true
		}
		if seen[cur] {
			// pre-existing loop above the new parent; the mutation does not
			// reach back to id, but refuse it anyway
			return true
		}
		seen[cur] = true

		parent, ok := parents[cur]
		if !ok || parent == nil {
			return false
		}
		cur = *parent
	}
}

// DescendantIDs returns id and every node beneath it in the flat row set, the
// unit of a cascade delete.
func DescendantIDs(nodes []*Node, id int64) []int64 {
	children := make(map[int64][]int64, len(nodes))
	for _, n := range nodes {
		if n.ParentID != nil {
			children[*n.ParentID] = append(children[*n.ParentID], n.ID)
		}
	}

	ids := []int64{id}
	queue := []int64{id}
	seen := map[int64]bool{id: true}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, child := range children[cur] {
			if seen[child] {
				continue
			}
			seen[child] = true
			ids = append(ids, child)
			queue = append(queue, child)
		}
	}

	sortIDs(ids)
	return ids
}

func sortSiblings(nodes []*Node) {
	sort.SliceStable(nodes, func(i, j int) bool {
		if nodes[i].Order != nodes[j].Order {
			return nodes[i].Order < nodes[j].Order
		}
		return nodes[i].ID < nodes[j].ID
	})
}

func sortIDs(ids []int64) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}
