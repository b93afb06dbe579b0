// Package props implements the per-object property tree: a balanced binary
// search tree of typed property nodes, keyed case-insensitively by
// slash-delimited path segments, with child-directory nesting (spec 4.B).
//
// The AVL shape (rotations, height bookkeeping, in-order-predecessor
// deletion swap) is carried over from original_source/src/props.c's
// new_prop/remove_propnode/balance_node, translated from the C's
// pointer-to-pointer recursion into idiomatic Go methods on *Node.
package props

import (
	"strings"

	"github.com/fuzzball-muck/muckd/internal/dbref"
	"github.com/fuzzball-muck/muckd/internal/lockexpr"
)

// Type tags the kind of value a property node holds.
type Type int

const (
	DirOnly Type = iota
	Int
	Float
	String
	Dbref
	Lock
	Unloaded
)

// Flags are the permission/state bits carried by a property node.
type Flags uint16

const (
	FlagReadOnly Flags = 1 << iota
	FlagPrivate
	FlagSeeOnly
	FlagHidden
	FlagSystem
	FlagUnloaded
	FlagDirty
	FlagSysPerms
)

// Delimiter separates path segments, matching PROPDIR_DELIMITER.
const Delimiter = '/'

// Naming-convention prefixes: a segment's leading character determines the
// default permission flags a newly-created node gets (grounded on
// props.c's Prop_Check, generalized from "any one flag" to the small table
// below — a documented design decision, see DESIGN.md).
const (
	prefixSystem   = '_'
	prefixHidden   = '~'
	prefixReadOnly = '@'
	prefixSeeOnly  = '-'
)

// Node is one entry in the AVL property tree.
type Node struct {
	name   string
	typ    Type
	flags  Flags
	height int
	left   *Node
	right  *Node
	child  *Node // root of the child directory, if any

	ival int
	fval float64
	sval string
	dval dbref.Dbref
	lval lockexpr.Boolexp

	// diskOffset/diskLength locate an ISUNLOADED node's subtree in the
	// paging store's properties file (component C).
	diskOffset int64
	diskLength int64
}

// Name returns the node's single path segment.
func (n *Node) Name() string { return n.name }

// Type returns the node's value tag.
func (n *Node) Type() Type { return n.typ }

// Flags returns the node's permission/state bits.
func (n *Node) Flags() Flags { return n.flags }

// SetFlags replaces the node's flag bits.
func (n *Node) SetFlags(f Flags) { n.flags = f }

// IsDir reports whether this node has a child directory, independent of
// whether it also carries a value — DIR-ONLY iff it has no value.
func (n *Node) IsDir() bool { return n.child != nil }

// StringValue returns the node's string payload (valid when Type is String).
func (n *Node) StringValue() string { return n.sval }

// IntValue returns the node's integer payload (valid when Type is Int).
func (n *Node) IntValue() int { return n.ival }

// FloatValue returns the node's float payload (valid when Type is Float).
func (n *Node) FloatValue() float64 { return n.fval }

// DbrefValue returns the node's dbref payload (valid when Type is Dbref).
func (n *Node) DbrefValue() dbref.Dbref { return n.dval }

// LockValue returns the node's lock payload (valid when Type is Lock).
func (n *Node) LockValue() lockexpr.Boolexp { return n.lval }

func heightOf(n *Node) int {
	if n == nil {
		return 0
	}
	return n.height
}

func heightDiff(n *Node) int {
	if n == nil {
		return 0
	}
	return heightOf(n.right) - heightOf(n.left)
}

func fixupHeight(n *Node) {
	if n == nil {
		return
	}
	l, r := heightOf(n.left), heightOf(n.right)
	if l > r {
		n.height = l + 1
	} else {
		n.height = r + 1
	}
}

func rotateLeftSingle(a *Node) *Node {
	b := a.right
	a.right = b.left
	b.left = a
	fixupHeight(a)
	fixupHeight(b)
	return b
}

func rotateLeftDouble(a *Node) *Node {
	b, c := a.right, a.right.left
	a.right = c.left
	b.left = c.right
	c.left = a
	c.right = b
	fixupHeight(a)
	fixupHeight(b)
	fixupHeight(c)
	return c
}

func rotateRightSingle(a *Node) *Node {
	b := a.left
	a.left = b.right
	b.right = a
	fixupHeight(a)
	fixupHeight(b)
	return b
}

func rotateRightDouble(a *Node) *Node {
	b, c := a.left, a.left.right
	a.left = c.right
	b.right = c.left
	c.right = a
	c.left = b
	fixupHeight(a)
	fixupHeight(b)
	fixupHeight(c)
	return c
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func balanceNode(a *Node) *Node {
	dh := heightDiff(a)
	if abs(dh) < 2 {
		fixupHeight(a)
		return a
	}
	if dh == 2 {
		if heightDiff(a.right) >= 0 {
			return rotateLeftSingle(a)
		}
		return rotateLeftDouble(a)
	}
	if heightDiff(a.left) <= 0 {
		return rotateRightSingle(a)
	}
	return rotateRightDouble(a)
}

func allocNode(name string) *Node {
	return &Node{name: name, typ: DirOnly, flags: FlagDirty, height: 1}
}

func defaultFlagsFor(name string) Flags {
	var f Flags
	if prop_Check(name, prefixSystem) {
		f |= FlagSystem
	}
	if prop_Check(name, prefixHidden) {
		f |= FlagHidden
	}
	if prop_Check(name, prefixReadOnly) {
		f |= FlagReadOnly
	}
	if prop_Check(name, prefixSeeOnly) {
		f |= FlagSeeOnly
	}
	return f
}

// prop_Check reports whether any slash-delimited segment of name begins
// with what, grounded on props.c's Prop_Check.
func prop_Check(name string, what byte) bool {
	if len(name) > 0 && name[0] == what {
		return true
	}
	for i := 0; i < len(name); i++ {
		if name[i] == Delimiter && i+1 < len(name) && name[i+1] == what {
			return true
		}
	}
	return false
}

// locate finds the node named key directly under avl, or nil.
func locate(avl *Node, key string) *Node {
	for avl != nil {
		cmp := strings.EqualFold(key, avl.name)
		if cmp {
			return avl
		}
		if caseLess(key, avl.name) {
			avl = avl.left
		} else {
			avl = avl.right
		}
	}
	return nil
}

// caseLess performs the case-insensitive ordering props.c gets from strcasecmp.
func caseLess(a, b string) bool {
	return strings.ToLower(a) < strings.ToLower(b)
}

func caseCompare(a, b string) int {
	la, lb := strings.ToLower(a), strings.ToLower(b)
	switch {
	case la < lb:
		return -1
	case la > lb:
		return 1
	default:
		return 0
	}
}

// newProp finds or creates (in tree order) the node named key directly
// under *root, rebalancing on insertion. Mirrors props.c's new_prop.
func newProp(root **Node, key string) *Node {
	p := *root
	if p == nil {
		n := allocNode(key)
		n.flags |= defaultFlagsFor(key)
		*root = n
		return n
	}
	cmp := caseCompare(key, p.name)
	switch {
	case cmp == 0:
		return p
	case cmp > 0:
		ret := newProp(&p.right, key)
		*root = balanceNode(p)
		return ret
	default:
		ret := newProp(&p.left, key)
		*root = balanceNode(p)
		return ret
	}
}

func getmax(n *Node) *Node {
	if n != nil && n.right != nil {
		return getmax(n.right)
	}
	return n
}

// removeNode removes and returns the node named key from *root, or nil if
// absent. Mirrors props.c's remove_propnode, including the in-order-
// predecessor swap for two-child deletions.
func removeNode(root **Node, key string) *Node {
	avl := *root
	if avl == nil {
		return nil
	}
	cmp := caseCompare(key, avl.name)
	var save *Node
	switch {
	case cmp < 0:
		save = removeNode(&avl.left, key)
	case cmp > 0:
		save = removeNode(&avl.right, key)
	default:
		save = avl
		switch {
		case avl.left == nil:
			avl = avl.right
		case avl.right == nil:
			avl = avl.left
		default:
			pred := getmax(avl.left)
			tmp := removeNode(&avl.left, pred.name)
			tmp.left = avl.left
			tmp.right = avl.right
			avl = tmp
		}
	}
	if save != nil {
		save.left = nil
		save.right = nil
	}
	*root = balanceNode(avl)
	return save
}

// firstNode returns the leftmost ("first" in iteration order) node.
func firstNode(list *Node) *Node {
	if list == nil {
		return nil
	}
	for list.left != nil {
		list = list.left
	}
	return list
}

// nextNode returns the node that follows name in in-order traversal of
// ptr, or nil if name was the last. Mirrors props.c's next_node.
func nextNode(ptr *Node, name string) *Node {
	if ptr == nil || name == "" {
		return nil
	}
	cmp := caseCompare(name, ptr.name)
	switch {
	case cmp < 0:
		if from := nextNode(ptr.left, name); from != nil {
			return from
		}
		return ptr
	case cmp > 0:
		return nextNode(ptr.right, name)
	default:
		if ptr.right == nil {
			return nil
		}
		from := ptr.right
		for from.left != nil {
			from = from.left
		}
		return from
	}
}
