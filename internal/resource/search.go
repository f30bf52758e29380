package resource

// Predicate selects nodes during a search.
type Predicate func(n *Node) bool

// Search returns every node of the subtree rooted at root for which match
// holds, in pre-order. Siblings of root are not part of its subtree.
func Search(root *Node, match Predicate) []*Node {
	var result []*Node
	if root == nil {
		return result
	}
	if match(root) {
		result = append(result, root)
	}
	walk(root.Child, func(n *Node) {
		if match(n) {
			result = append(result, n)
		}
	})
	return result
}

// walk visits n, its descendants and its following siblings in pre-order,
// child list before siblings. It uses an explicit stack so that long sibling
// chains do not grow the call stack.
func walk(n *Node, visit func(*Node)) {
	if n == nil {
		return
	}
	stack := []*Node{n}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		visit(cur)
		if cur.Next != nil {
			stack = append(stack, cur.Next)
		}
		if cur.Child != nil {
			stack = append(stack, cur.Child)
		}
	}
}
