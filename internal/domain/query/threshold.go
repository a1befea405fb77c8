package query

// Node is one node of a threshold tree: either a TriggerRef or a nested
// Group. The tree composes per-trigger booleans into the query's match
// decision.
type Node interface {
	isNode()
	walkRefs(fn func(id string) error) error
}

// TriggerRef references a trigger defined in the same query by its id.
type TriggerRef struct {
	ID string
}

func (TriggerRef) isNode() {}

func (r TriggerRef) walkRefs(fn func(id string) error) error { return fn(r.ID) }

// Group is an internal threshold node: it is satisfied when at least
// Requires of its Considers are, flipped by Inverse.
//
// Requires == 0 is always satisfied and Requires > len(Considers) never is;
// both are legal (useful as inverted constants). An empty Considers behaves
// as Requires == 0.
type Group struct {
	Considers []Node
	Requires  uint32
	Inverse   bool
}

func (Group) isNode() {}

func (g Group) walkRefs(fn func(id string) error) error {
	for _, c := range g.Considers {
		if err := c.walkRefs(fn); err != nil {
			return err
		}
	}
	return nil
}
