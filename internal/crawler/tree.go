package crawler

// TreeNode is a crawl node with the indexes of its children
type TreeNode struct {
	Node     CrawlNode
	Children []int
}

// Tree is an index-based view of crawl results. Children are attached in
// the order the nodes were visited; nodes whose parent is missing are
// dropped from the walk.
type Tree struct {
	Nodes []TreeNode
	Root  int // -1 when no node without a parent exists
	index map[string]int
}

// BuildTree links nodes to their parents by the From URL
func BuildTree(nodes []CrawlNode) *Tree {
	t := &Tree{
		Nodes: make([]TreeNode, len(nodes)),
		Root:  -1,
		index: make(map[string]int, len(nodes)),
	}
	for i, n := range nodes {
		t.Nodes[i] = TreeNode{Node: n}
		t.index[n.URL] = i
	}
	for i, n := range nodes {
		if n.From == nil {
			t.Root = i
			continue
		}
		if p, ok := t.index[*n.From]; ok && p != i {
			t.Nodes[p].Children = append(t.Nodes[p].Children, i)
		}
	}
	return t
}

// Lookup returns the node for url
func (t *Tree) Lookup(url string) (CrawlNode, bool) {
	i, ok := t.index[url]
	if !ok {
		return CrawlNode{}, false
	}
	return t.Nodes[i].Node, true
}

// Walk visits the tree in pre-order starting at the root
func (t *Tree) Walk(fn func(n CrawlNode)) {
	if t.Root < 0 {
		return
	}
	seen := make([]bool, len(t.Nodes))
	var walk func(i int)
	walk = func(i int) {
		if seen[i] {
			return
		}
		seen[i] = true
		fn(t.Nodes[i].Node)
		for _, c := range t.Nodes[i].Children {
			walk(c)
		}
	}
	walk(t.Root)
}

// Flatten returns the nodes in pre-order
func (t *Tree) Flatten() []CrawlNode {
	out := make([]CrawlNode, 0, len(t.Nodes))
	t.Walk(func(n CrawlNode) { out = append(out, n) })
	return out
}
