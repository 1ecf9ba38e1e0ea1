package core

// Breadth-first traversals over the DAG.  A shared visited set lets a
// caller traverse from several roots while visiting shared
// subexpressions once.

// BFSDown visits n and its descendants breadth-first.  If visited is
// non-nil, nodes already present are skipped and newly seen nodes are
// recorded; pass the same map across calls to span a forest.
func BFSDown(n *Node, visited map[*Node]bool, visit func(*Node) error) error {
	return bfs(n, visited, visit, func(x *Node) []*Node { return x.Children() })
}

// BFSUp visits n and its ancestors breadth-first.
func BFSUp(n *Node, visited map[*Node]bool, visit func(*Node) error) error {
	return bfs(n, visited, visit, func(x *Node) []*Node { return x.Parents() })
}

func bfs(n *Node, visited map[*Node]bool, visit func(*Node) error, next func(*Node) []*Node) error {
	if n == nil {
		return Einval("cannot traverse from nil node")
	}
	if visited == nil {
		visited = make(map[*Node]bool)
	}
	todo := []*Node{n}
	for len(todo) > 0 {
		x := todo[0]
		todo = todo[1:]
		if visited[x] {
			continue
		}
		visited[x] = true
		if err := visit(x); err != nil {
			return err
		}
		todo = append(todo, next(x)...)
	}
	return nil
}
