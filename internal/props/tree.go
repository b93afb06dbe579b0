package props

import (
	"strings"

	"github.com/fuzzball-muck/muckd/internal/dbref"
	"github.com/fuzzball-muck/muckd/internal/lockexpr"
)

// Tree is one object's property directory — the root of an AVL tree whose
// nodes may themselves hold a nested child directory, giving the familiar
// slash-delimited property path hierarchy (spec 4.B).
type Tree struct {
	root *Node
}

// split breaks a path like "a/b/c" into its segments, dropping any leading
// or trailing delimiter the caller left in, matching how the original
// tolerates both "/a/b" and "a/b" as the same path.
func split(path string) []string {
	path = strings.Trim(path, string(Delimiter))
	if path == "" {
		return nil
	}
	return strings.Split(path, string(Delimiter))
}

// descend walks segs under root, optionally creating directory nodes as it
// goes (new_prop on every intermediate segment, matching locate_prop's
// create-as-you-go behavior used by set_property et al). If create is
// false, it stops and returns nil as soon as a segment is missing.
func descend(root **Node, segs []string, create bool) *Node {
	cur := root
	var node *Node
	for _, seg := range segs {
		if *cur == nil && !create {
			return nil
		}
		if create {
			node = newProp(cur, seg)
		} else {
			node = locate(*cur, seg)
			if node == nil {
				return nil
			}
		}
		cur = &node.child
	}
	return node
}

// Locate finds the node at path without creating anything, or nil.
func (t *Tree) Locate(path string) *Node {
	return descend(&t.root, split(path), false)
}

func (t *Tree) touch(path string) *Node {
	n := descend(&t.root, split(path), true)
	n.flags |= FlagDirty
	return n
}

// SetString sets path to a string value.
func (t *Tree) SetString(path, value string) *Node {
	n := t.touch(path)
	n.typ = String
	n.sval = value
	return n
}

// SetInt sets path to an integer value.
func (t *Tree) SetInt(path string, value int) *Node {
	n := t.touch(path)
	n.typ = Int
	n.ival = value
	return n
}

// SetFloat sets path to a float value.
func (t *Tree) SetFloat(path string, value float64) *Node {
	n := t.touch(path)
	n.typ = Float
	n.fval = value
	return n
}

// SetDbref sets path to a dbref value.
func (t *Tree) SetDbref(path string, value dbref.Dbref) *Node {
	n := t.touch(path)
	n.typ = Dbref
	n.dval = value
	return n
}

// SetLock sets path to a compiled lock value.
func (t *Tree) SetLock(path string, value lockexpr.Boolexp) *Node {
	n := t.touch(path)
	n.typ = Lock
	n.lval = value
	return n
}

// ClearValue removes path's value, leaving it DIR-ONLY if it still has
// children, or removing the node entirely via Remove if it has none.
func (t *Tree) ClearValue(path string) {
	n := t.Locate(path)
	if n == nil {
		return
	}
	if n.IsDir() {
		n.typ = DirOnly
		n.flags |= FlagDirty
		return
	}
	t.Remove(path)
}

// Remove deletes the node at path (and everything beneath it), matching
// delete_prop/delete_proplist.
func (t *Tree) Remove(path string) {
	segs := split(path)
	if len(segs) == 0 {
		return
	}
	parentRoot := &t.root
	for i := 0; i < len(segs)-1; i++ {
		n := locate(*parentRoot, segs[i])
		if n == nil {
			return
		}
		parentRoot = &n.child
	}
	removeNode(parentRoot, segs[len(segs)-1])
}

// First returns the first child node directly under path (or the tree
// root if path is ""), in iteration order, matching first_node.
func (t *Tree) First(path string) *Node {
	dir := t.root
	if path != "" {
		n := t.Locate(path)
		if n == nil {
			return nil
		}
		dir = n.child
	}
	return firstNode(dir)
}

// Next returns the sibling of node that follows it in iteration order
// directly under path, matching next_node.
func (t *Tree) Next(path string, node *Node) *Node {
	dir := t.root
	if path != "" {
		n := t.Locate(path)
		if n == nil {
			return nil
		}
		dir = n.child
	}
	return nextNode(dir, node.name)
}

// EnvProp walks from node upward through env (the caller-supplied chain of
// ancestor locations, nearest first) looking for path, the way MUF's
// envprop primitive inherits properties from a room's environment chain
// when the object itself lacks the property.
func EnvProp(trees []*Tree, path string) (*Node, *Tree) {
	for _, tr := range trees {
		if n := tr.Locate(path); n != nil && !n.IsDir() {
			return n, tr
		}
	}
	return nil, nil
}

// visibleTo reports whether caller may see node given blessed (wizard- or
// sufficiently-mucker-level access) and isOwner (caller owns the holding
// object), implementing the READONLY/PRIVATE/SEEONLY/HIDDEN/SYSTEM/
// SYSPERMS permission filter described in spec 4.B.
func visibleTo(n *Node, blessed, isOwner bool) bool {
	if n.flags&FlagSystem != 0 {
		return blessed
	}
	if n.flags&FlagHidden != 0 && !blessed {
		return false
	}
	if n.flags&FlagPrivate != 0 && !isOwner && !blessed {
		return false
	}
	return true
}

// Visible filters Locate through the permission rules for reading.
func (t *Tree) Visible(path string, blessed, isOwner bool) *Node {
	n := t.Locate(path)
	if n == nil || !visibleTo(n, blessed, isOwner) {
		return nil
	}
	return n
}

// Writable reports whether caller (blessed/isOwner as above) may modify
// node — READONLY additionally blocks non-blessed writers even when they
// would otherwise pass the read filter.
func Writable(n *Node, blessed, isOwner bool) bool {
	if !visibleTo(n, blessed, isOwner) {
		return false
	}
	if n.flags&FlagReadOnly != 0 && !blessed {
		return false
	}
	if n.flags&FlagSeeOnly != 0 && !blessed && !isOwner {
		return false
	}
	return true
}

// EnsureDir creates path as a directory node if absent, without giving it
// a value, and applies flags verbatim — used by database restore to
// recreate a property directory that carries no value of its own.
func (t *Tree) EnsureDir(path string, flags Flags) *Node {
	n := descend(&t.root, split(path), true)
	n.SetFlags(flags)
	return n
}

// Size returns the total node count of the tree, matching size_proplist.
func (t *Tree) Size() int {
	return sizeNode(t.root)
}

func sizeNode(n *Node) int {
	if n == nil {
		return 0
	}
	return 1 + sizeNode(n.left) + sizeNode(n.right) + sizeNode(n.child)
}

// Copy deep-copies the entire tree, matching copy_proplist.
func (t *Tree) Copy() *Tree {
	return &Tree{root: copyNode(t.root)}
}

func copyNode(n *Node) *Node {
	if n == nil {
		return nil
	}
	c := *n
	c.left = copyNode(n.left)
	c.right = copyNode(n.right)
	c.child = copyNode(n.child)
	return &c
}

// Walk calls fn for every node in the tree (pre-order: node before its
// children's children), stopping early if fn returns false. dirPath is the
// slash-joined path to node's parent directory.
func (t *Tree) Walk(fn func(dirPath string, n *Node) bool) {
	walkNode(t.root, "", fn)
}

func walkNode(n *Node, dirPath string, fn func(string, *Node) bool) bool {
	if n == nil {
		return true
	}
	if !walkNode(n.left, dirPath, fn) {
		return false
	}
	if !fn(dirPath, n) {
		return false
	}
	childPath := n.name
	if dirPath != "" {
		childPath = dirPath + string(Delimiter) + n.name
	}
	if !walkNode(n.child, childPath, fn) {
		return false
	}
	return walkNode(n.right, dirPath, fn)
}
