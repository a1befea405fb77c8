package compile

import "github.com/kailas-cloud/ieql/internal/domain/query"

// nodeProg is a threshold node with TriggerRefs resolved to dense local
// trigger indices. Trees stay nested; nothing is flattened.
type nodeProg interface {
	// eval computes the node's value against the fired bitset.
	eval(fired bitset) bool
	// witness computes the node's value and, when true, sets the bits of the
	// triggers that contributed into w.
	witness(fired, w bitset) bool
}

type refProg struct {
	idx int
}

func (r refProg) eval(fired bitset) bool {
	return fired.test(r.idx)
}

func (r refProg) witness(fired, w bitset) bool {
	if fired.test(r.idx) {
		w.set(r.idx)
		return true
	}
	return false
}

type groupProg struct {
	children []nodeProg
	requires uint32
	inverse  bool
	// words is the bitset word count of the owning query, for witness scratch.
	words int
}

func (g groupProg) eval(fired bitset) bool {
	var satisfied uint32
	for _, c := range g.children {
		if c.eval(fired) {
			satisfied++
		}
	}
	return (satisfied >= g.requires) != g.inverse
}

func (g groupProg) witness(fired, w bitset) bool {
	acc := make(bitset, g.words)
	child := make(bitset, g.words)
	var satisfied uint32
	for _, c := range g.children {
		child.clear()
		if c.witness(fired, child) {
			satisfied++
			acc.union(child)
		}
	}
	value := (satisfied >= g.requires) != g.inverse
	if value {
		w.union(acc)
	}
	return value
}

// resolveThreshold lowers a validated threshold tree into a program with
// dense trigger indices. Resolution cannot fail: Validate has already
// checked every reference.
func resolveThreshold(root query.Group, index map[string]int, triggerCount int) nodeProg {
	words := len(newBitset(triggerCount))
	var resolve func(n query.Node) nodeProg
	resolve = func(n query.Node) nodeProg {
		switch node := n.(type) {
		case query.TriggerRef:
			return refProg{idx: index[node.ID]}
		case query.Group:
			children := make([]nodeProg, len(node.Considers))
			for i, c := range node.Considers {
				children[i] = resolve(c)
			}
			// An empty considers list behaves as requires == 0.
			requires := node.Requires
			if len(node.Considers) == 0 {
				requires = 0
			}
			return groupProg{
				children: children,
				requires: requires,
				inverse:  node.Inverse,
				words:    words,
			}
		default:
			panic("compile: unknown threshold node type")
		}
	}
	return resolve(root)
}
