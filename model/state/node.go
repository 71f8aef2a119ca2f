package state

import (
	"fmt"
	"strings"
	"sync"
)

// Separator separates local ids in a hierarchical id.
const Separator = "/"

// Node holds the identity and hierarchy bookkeeping shared by all states.
// Only the recent child changes while a machine runs.
type Node struct {
	id           string
	localID      string
	parent       State
	children     map[string]State
	order        []string
	defaultChild string
	errorChild   string
	keepHistory  bool

	mux         sync.RWMutex
	recentChild string
}

// NodeOption customises a node.
type NodeOption func(n *Node)

// WithDefaultChild sets the local id entered by default.
func WithDefaultChild(localID string) NodeOption {
	return func(n *Node) { n.defaultChild = localID }
}

// WithErrorChild sets the local id of the fault handler child.
func WithErrorChild(localID string) NodeOption {
	return func(n *Node) { n.errorChild = localID }
}

// WithHistory makes the node remember its most recently exited child.
func WithHistory() NodeOption {
	return func(n *Node) { n.keepHistory = true }
}

// NewNode creates a detached node; a node without parent is a root.
func NewNode(localID string, opts ...NodeOption) *Node {
	ret := &Node{localID: localID, id: localID, children: map[string]State{}}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

// Attach registers child under parent and rebases the child's subtree ids.
func Attach(parent, child State) error {
	p, c := parent.Node(), child.Node()
	if c.localID == "" || strings.Contains(c.localID, Separator) {
		return fmt.Errorf("%w: local id %q", ErrInvalidID, c.localID)
	}
	if c.parent != nil {
		return fmt.Errorf("%w: %v is already attached to %v", ErrInvalidID, c.localID, c.parent.Node().ID())
	}
	if p == c || p.isUnder(child) {
		return fmt.Errorf("%w: cycle at %v", ErrInvalidID, c.localID)
	}
	if _, ok := p.children[c.localID]; ok {
		return fmt.Errorf("%w: child %q of %q", ErrExists, c.localID, p.ID())
	}
	p.children[c.localID] = child
	p.order = append(p.order, c.localID)
	c.parent = parent
	c.rebase(p.ID())
	return nil
}

func (n *Node) isUnder(s State) bool {
	for p := n.parent; p != nil; p = p.Node().parent {
		if p.Node() == s.Node() {
			return true
		}
	}
	return false
}

func (n *Node) rebase(parentID string) {
	n.id = parentID + Separator + n.localID
	for _, luid := range n.order {
		n.children[luid].Node().rebase(n.id)
	}
}

// ID returns the hierarchical id; the root id is empty.
func (n *Node) ID() string {
	if n.parent == nil {
		return ""
	}
	return n.id
}

// LocalID returns the id unique among siblings.
func (n *Node) LocalID() string { return n.localID }

// Parent returns the containing state or nil for the root.
func (n *Node) Parent() State { return n.parent }

// Child returns a child by local id.
func (n *Node) Child(localID string) (State, error) {
	if child, ok := n.children[localID]; ok {
		return child, nil
	}
	return nil, fmt.Errorf("%w: %q has no child %q", ErrNotFound, n.ID(), localID)
}

// Children returns children in registration order.
func (n *Node) Children() []State {
	ret := make([]State, 0, len(n.order))
	for _, luid := range n.order {
		ret = append(ret, n.children[luid])
	}
	return ret
}

// IsComposite returns true when the node has children.
func (n *Node) IsComposite() bool { return len(n.children) > 0 }

// DefaultChildID returns the configured default child local id.
func (n *Node) DefaultChildID() string { return n.defaultChild }

// DefaultChild returns the configured default child or nil.
func (n *Node) DefaultChild() State { return n.children[n.defaultChild] }

// ErrorChildID returns the fault handler child local id.
func (n *Node) ErrorChildID() string { return n.errorChild }

// ErrorChild returns the fault handler child or nil.
func (n *Node) ErrorChild() State {
	if n.errorChild == "" {
		return nil
	}
	return n.children[n.errorChild]
}

// KeepHistory returns true when the node records its recent child.
func (n *Node) KeepHistory() bool { return n.keepHistory }

// RecentChild returns the most recently exited child or nil.
func (n *Node) RecentChild() State {
	if !n.keepHistory {
		return nil
	}
	n.mux.RLock()
	defer n.mux.RUnlock()
	if n.recentChild == "" {
		return nil
	}
	return n.children[n.recentChild]
}

// SetRecentChild records an exited child; it is a no-op without history.
func (n *Node) SetRecentChild(localID string) error {
	if !n.keepHistory {
		return nil
	}
	if _, ok := n.children[localID]; !ok {
		return fmt.Errorf("%w: unknown child %q of %q", ErrNotFound, localID, n.ID())
	}
	n.mux.Lock()
	n.recentChild = localID
	n.mux.Unlock()
	return nil
}

// IsAncestorOf returns true when n is a strict ancestor of s.
func (n *Node) IsAncestorOf(s State) bool {
	if s == nil {
		return false
	}
	for p := s.Node().parent; p != nil; p = p.Node().parent {
		if p.Node() == n {
			return true
		}
	}
	return false
}

func (n *Node) String() string {
	return fmt.Sprintf("State[%s]", n.ID())
}
