package triedb

import (
	"errors"
	"fmt"

	"github.com/harkal/dash/cryptoutil"
	"github.com/harkal/dash/log"
	"github.com/harkal/dash/nibble"
	"github.com/harkal/dash/types"
)

// CTrieDB is a content-addressed hexary Merkle-Patricia trie: every node is
// serialized, hashed, and stored under its own hash, and every mutation
// produces a new root hash without disturbing nodes reachable from an
// older one. Ported from original_source/src/triedb/triedb.h's CTrieDB.
type CTrieDB struct {
	store   NodeStore
	root    types.Hash
	metrics *Metrics
	log     *log.Logger
}

// Option configures a CTrieDB at construction time.
type Option func(*CTrieDB)

// WithMetrics attaches Prometheus instrumentation to the trie.
func WithMetrics(m *Metrics) Option {
	return func(t *CTrieDB) { t.metrics = m }
}

// WithLogger overrides the trie's logger.
func WithLogger(l *log.Logger) Option {
	return func(t *CTrieDB) { t.log = l }
}

// New constructs a CTrieDB over store, starting in the uninitialized state
// (Root() == types.NullNode) until Init or SetRoot is called.
func New(store NodeStore, opts ...Option) *CTrieDB {
	t := &CTrieDB{
		store: store,
		root:  types.NullNode,
		log:   log.Default().Module("triedb"),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Init moves the trie from the uninitialized state to an initialized,
// empty one: Root() becomes Keccak256 of the serialized empty node,
// distinct from types.NullNode.
func (t *CTrieDB) Init() error {
	if err := t.store.Write(emptyNodeHash, emptyNodeEncoding); err != nil {
		return err
	}
	t.root = emptyNodeHash
	return nil
}

// SetRoot resumes the trie at an existing root hash. types.NullNode resets
// the trie to the uninitialized state; any other hash must already have a
// corresponding node in the store, or ErrBadRoot is returned.
func (t *CTrieDB) SetRoot(hash types.Hash) error {
	if hash == types.NullNode {
		t.root = hash
		return nil
	}
	if _, err := t.store.Read(hash); err != nil {
		return fmt.Errorf("%w: %s", ErrBadRoot, hash.Hex())
	}
	t.root = hash
	return nil
}

// Root returns the trie's current root hash.
func (t *CTrieDB) Root() types.Hash { return t.root }

// IsNull reports whether the trie has never been initialized.
func (t *CTrieDB) IsNull() bool { return t.root == types.NullNode }

// IsEmpty reports whether the trie holds no key-value pairs, whether
// because it was never initialized or because it was initialized and is
// (or has become) empty.
func (t *CTrieDB) IsEmpty() bool {
	return t.root == types.NullNode || t.root == emptyNodeHash
}

// nodeAt resolves a content hash to its decoded node. types.NullNode
// resolves to nil without touching the store, since nothing is ever
// written under it.
func (t *CTrieDB) nodeAt(hash types.Hash) (node, error) {
	if hash == types.NullNode {
		return nil, nil
	}
	data, err := t.store.Read(hash)
	if err != nil {
		return nil, err
	}
	return decodeNode(data)
}

// rawInsertNode serializes and stores n under its own content hash.
func (t *CTrieDB) rawInsertNode(n node) (types.Hash, error) {
	data, err := encodeNode(n)
	if err != nil {
		return types.Hash{}, err
	}
	hash := types.BytesToHash(cryptoutil.Keccak256(data))
	if err := t.store.Write(hash, data); err != nil {
		return types.Hash{}, err
	}
	return hash, nil
}

// killNode erases the node stored under hash. Ported from
// original_source's killNode(), but never called by mergeAt/deleteAt
// here (see DESIGN.md's Open Question decision): a node reachable from
// one root may still be reachable from another, older root that is
// still in use, and this engine keeps no reference count to tell the
// two cases apart. It is exposed for a caller that independently knows
// a hash is unreachable from every root it cares about, e.g. an offline
// pruning pass.
func (t *CTrieDB) killNode(hash types.Hash) error {
	if hash == types.NullNode || hash == emptyNodeHash {
		return nil
	}
	return t.store.Erase(hash)
}

// Get looks up key, returning ErrKeyAbsent if it is not present.
func (t *CTrieDB) Get(key []byte) ([]byte, error) {
	root, err := t.nodeAt(t.root)
	if err != nil {
		return nil, err
	}
	val, err := t.atAux(root, nibble.New(key))
	if t.metrics != nil {
		t.metrics.observeGet(errors.Is(err, ErrKeyAbsent))
	}
	return val, err
}

// Contains reports whether key is present. An absent key yields
// (false, nil); any other lookup failure is returned as an error.
func (t *CTrieDB) Contains(key []byte) (bool, error) {
	_, err := t.Get(key)
	switch {
	case errors.Is(err, ErrKeyAbsent):
		return false, nil
	case err != nil:
		return false, err
	default:
		return true, nil
	}
}

func (t *CTrieDB) atAux(here node, key nibble.View) ([]byte, error) {
	switch n := here.(type) {
	case nil:
		return nil, ErrKeyAbsent
	case *shortNode:
		nk := keyView(n)
		if n.IsLeaf {
			if key.Equal(nk) {
				return []byte(n.Val.(valueNode)), nil
			}
			return nil, ErrKeyAbsent
		}
		if !key.Contains(nk) {
			return nil, ErrKeyAbsent
		}
		child, err := t.resolveRef(n.Val)
		if err != nil {
			return nil, err
		}
		return t.atAux(child, key.Mid(nk.Len()))
	case *fullNode:
		if key.Len() == 0 {
			if v, ok := n.Children[16].(valueNode); ok {
				return []byte(v), nil
			}
			return nil, ErrKeyAbsent
		}
		child, err := t.resolveRef(n.Children[key.At(0)])
		if err != nil {
			return nil, err
		}
		return t.atAux(child, key.Mid(1))
	default:
		return nil, ErrCorruptNode
	}
}

// resolveRef dereferences a branch slot or shortNode value that is either
// nil or a hashNode, into its pointed-to node.
func (t *CTrieDB) resolveRef(ref node) (node, error) {
	h, ok := ref.(hashNode)
	if !ok {
		return nil, nil
	}
	return t.nodeAt(types.BytesToHash([]byte(h)))
}

// Insert sets key to value, creating or overwriting it.
func (t *CTrieDB) Insert(key, value []byte) error {
	root, err := t.nodeAt(t.root)
	if err != nil {
		return err
	}
	updated, err := t.mergeAt(root, nibble.New(key), value)
	if err != nil {
		return err
	}
	hash, err := t.rawInsertNode(updated)
	if err != nil {
		return err
	}
	t.root = hash
	if t.metrics != nil {
		t.metrics.observeInsert()
	}
	return nil
}

// place rebuilds orig (nil, a shortNode, or a fullNode) with v as the
// value stored exactly at this position, leaving everything else in orig
// unchanged. Ported from original_source's place().
func place(orig node, k nibble.View, v []byte) node {
	switch o := orig.(type) {
	case nil:
		return &shortNode{Key: k.Bytes(), IsLeaf: true, Val: valueNode(v)}
	case *shortNode:
		return &shortNode{Key: o.Key, IsLeaf: o.IsLeaf, Val: valueNode(v)}
	case *fullNode:
		cp := o.copy()
		cp.Children[16] = valueNode(v)
		return cp
	default:
		return nil
	}
}

// cleve splits a shortNode at nibble offset s into a non-leaf top segment
// (key[0:s]) pointing at a freshly stored bottom segment (key[s:]) that
// keeps orig's leaf flag and value. Ported from original_source's
// cleve().
func (t *CTrieDB) cleve(orig *shortNode, s int) (*shortNode, error) {
	t.log.Debug("cleve", "split", s, "isLeaf", orig.IsLeaf)
	k := keyView(orig)
	bottom := &shortNode{Key: k.Mid(s).Bytes(), IsLeaf: orig.IsLeaf, Val: orig.Val}
	hash, err := t.rawInsertNode(bottom)
	if err != nil {
		return nil, err
	}
	return &shortNode{Key: k.Bytes()[:s], IsLeaf: false, Val: hashNode(hash.Bytes())}, nil
}

// branch turns a shortNode with no nibbles shared with the incoming key
// into a fullNode, promoting orig's own key/value into the branch slot
// its first remaining nibble selects. A single-nibble extension is
// collapsed away by promoting the child reference directly, rather than
// storing a redundant one-nibble extension node. Ported from
// original_source's branch().
func (t *CTrieDB) branch(orig *shortNode) (*fullNode, error) {
	t.log.Debug("branch", "isLeaf", orig.IsLeaf, "keyLen", keyView(orig).Len())
	k := keyView(orig)
	var fn fullNode
	if k.Len() == 0 {
		fn.Children[16] = orig.Val
		return &fn, nil
	}
	b := k.At(0)
	if orig.IsLeaf || k.Len() > 1 {
		sub := &shortNode{Key: k.Mid(1).Bytes(), IsLeaf: orig.IsLeaf, Val: orig.Val}
		hash, err := t.rawInsertNode(sub)
		if err != nil {
			return nil, err
		}
		fn.Children[b] = hashNode(hash.Bytes())
	} else {
		fn.Children[b] = orig.Val
	}
	return &fn, nil
}

// graft fuses a non-leaf parent's key with child's key into a single
// node, collapsing a parent extension that points directly at another
// short node. Ported from original_source's graft(), which builds the
// fused key via hexPrefixEncode(keyOf(parent), keyOf(child), ...) rather
// than materializing a concatenated nibble buffer directly.
func (t *CTrieDB) graft(parent, child *shortNode) *shortNode {
	t.log.Debug("graft", "parentKeyLen", keyView(parent).Len(), "childKeyLen", keyView(child).Len(), "childIsLeaf", child.IsLeaf)
	joined := joinShortKeys(keyView(parent), keyView(child), child.IsLeaf)
	return &shortNode{Key: joined, IsLeaf: child.IsLeaf, Val: child.Val}
}

// merge collapses a fullNode down to a shortNode once only slot i remains
// occupied: a one-nibble extension if i is a child slot, or a zero-length
// leaf promoting the branch's own value if i is the value slot (16).
// Ported from original_source's merge().
func (t *CTrieDB) merge(orig *fullNode, i byte) node {
	t.log.Debug("merge", "slot", i)
	if i == 16 {
		return &shortNode{Key: []byte{}, IsLeaf: true, Val: orig.Children[16]}
	}
	return &shortNode{Key: []byte{i}, IsLeaf: false, Val: orig.Children[i]}
}

// mergeAt inserts (k, v) under orig, returning the updated node. Ported
// from original_source's mergeAt(): the simplification relative to the
// original is that every child is always resolved and re-stored by hash
// (never inlined), so the original's inLine/isRemovable bookkeeping
// around killNode is unnecessary here and has been dropped.
func (t *CTrieDB) mergeAt(orig node, k nibble.View, v []byte) (node, error) {
	switch o := orig.(type) {
	case nil:
		return place(nil, k, v), nil
	case *shortNode:
		nk := keyView(o)
		if k.Equal(nk) && o.IsLeaf {
			return place(o, k, v), nil
		}
		if k.Contains(nk) && !o.IsLeaf {
			newChild, err := t.mergeAtAux(o.Val, k.Mid(nk.Len()), v)
			if err != nil {
				return nil, err
			}
			return &shortNode{Key: o.Key, IsLeaf: false, Val: newChild}, nil
		}
		if sh := k.Shared(nk); sh > 0 {
			top, err := t.cleve(o, sh)
			if err != nil {
				return nil, err
			}
			return t.mergeAt(top, k, v)
		}
		branched, err := t.branch(o)
		if err != nil {
			return nil, err
		}
		return t.mergeAt(branched, k, v)
	case *fullNode:
		if k.Len() == 0 {
			return place(o, k, v), nil
		}
		n := k.At(0)
		newChild, err := t.mergeAtAux(o.Children[n], k.Mid(1), v)
		if err != nil {
			return nil, err
		}
		cp := o.copy()
		cp.Children[n] = newChild
		return cp, nil
	default:
		return nil, ErrCorruptNode
	}
}

// mergeAtAux dereferences a branch slot or shortNode value (nil or a
// hashNode), recurses mergeAt into it, and stores the result, returning
// its hash ready to be written back into the caller. Ported from
// original_source's mergeAtAux().
func (t *CTrieDB) mergeAtAux(ref node, k nibble.View, v []byte) (hashNode, error) {
	child, err := t.resolveRef(ref)
	if err != nil {
		return nil, err
	}
	updated, err := t.mergeAt(child, k, v)
	if err != nil {
		return nil, err
	}
	hash, err := t.rawInsertNode(updated)
	if err != nil {
		return nil, err
	}
	return hashNode(hash.Bytes()), nil
}

// Remove deletes key if present. Deleting a key that is not present is a
// no-op, not an error. Deleting the trie's last remaining key resets
// Root() to the canonical empty-trie hash, rather than leaving it stale.
func (t *CTrieDB) Remove(key []byte) error {
	root, err := t.nodeAt(t.root)
	if err != nil {
		return err
	}
	updated, found, err := t.deleteAt(root, nibble.New(key))
	if err != nil {
		return err
	}
	if !found {
		return nil
	}
	if updated == nil {
		if err := t.store.Write(emptyNodeHash, emptyNodeEncoding); err != nil {
			return err
		}
		t.root = emptyNodeHash
	} else {
		hash, err := t.rawInsertNode(updated)
		if err != nil {
			return err
		}
		t.root = hash
	}
	if t.metrics != nil {
		t.metrics.observeRemove()
	}
	return nil
}

// deleteAt removes k from under orig, reporting whether k was present.
// Ported from original_source's deleteAt()/deleteAtAux(), restructured
// into a single function pair (deleteAt dispatches on node shape,
// deleteAtAux dereferences a child reference) matching mergeAt/
// mergeAtAux.
func (t *CTrieDB) deleteAt(orig node, k nibble.View) (node, bool, error) {
	switch o := orig.(type) {
	case nil:
		return nil, false, nil
	case *shortNode:
		nk := keyView(o)
		if o.IsLeaf {
			if k.Equal(nk) {
				return nil, true, nil
			}
			return nil, false, nil
		}
		if !k.Contains(nk) {
			return nil, false, nil
		}
		newChild, changed, err := t.deleteAtAux(o.Val, k.Mid(nk.Len()))
		if err != nil || !changed {
			return nil, changed, err
		}
		if newChild == nil {
			return nil, true, nil
		}
		if cs, ok := newChild.(*shortNode); ok {
			return t.graft(o, cs), true, nil
		}
		hash, err := t.rawInsertNode(newChild)
		if err != nil {
			return nil, false, err
		}
		return &shortNode{Key: o.Key, IsLeaf: false, Val: hashNode(hash.Bytes())}, true, nil
	case *fullNode:
		if k.Len() == 0 {
			if o.Children[16] == nil {
				return nil, false, nil
			}
			cp := o.copy()
			cp.Children[16] = nil
			return t.collapseIfUnique(cp, 16)
		}
		n := k.At(0)
		if o.Children[n] == nil {
			return nil, false, nil
		}
		newChild, changed, err := t.deleteAtAux(o.Children[n], k.Mid(1))
		if err != nil || !changed {
			return nil, changed, err
		}
		cp := o.copy()
		if newChild == nil {
			cp.Children[n] = nil
			return t.collapseIfUnique(cp, int(n))
		}
		hash, err := t.rawInsertNode(newChild)
		if err != nil {
			return nil, false, err
		}
		cp.Children[n] = hashNode(hash.Bytes())
		return cp, true, nil
	default:
		return nil, false, ErrCorruptNode
	}
}

func (t *CTrieDB) deleteAtAux(ref node, k nibble.View) (node, bool, error) {
	child, err := t.resolveRef(ref)
	if err != nil {
		return nil, false, err
	}
	return t.deleteAt(child, k)
}

// collapseIfUnique checks, via uniqueInUse, whether cp now has only one
// occupied slot besides touched (already cleared by the caller) and if
// so replaces cp with its merge()d shortNode form, grafting away an
// extension->short chain if merge produced one.
func (t *CTrieDB) collapseIfUnique(cp *fullNode, touched int) (node, bool, error) {
	other := uniqueInUse(cp, touched)
	if other == 255 {
		return cp, true, nil
	}
	merged, err := t.mergeAndCanonicalize(cp, byte(other))
	if err != nil {
		return nil, false, err
	}
	return merged, true, nil
}

// mergeAndCanonicalize calls merge and, if it produced an extension
// pointing at a child that is itself a short node, grafts the two
// together: canonical form forbids an extension whose child is another
// short node (spec invariant 6).
func (t *CTrieDB) mergeAndCanonicalize(cp *fullNode, i byte) (node, error) {
	merged := t.merge(cp, i)
	sn, ok := merged.(*shortNode)
	if !ok || sn.IsLeaf {
		return merged, nil
	}
	h, ok := sn.Val.(hashNode)
	if !ok {
		return merged, nil
	}
	child, err := t.nodeAt(types.BytesToHash([]byte(h)))
	if err != nil {
		return nil, err
	}
	if cs, ok := child.(*shortNode); ok {
		return t.graft(sn, cs), nil
	}
	return merged, nil
}

// uniqueInUse scans a branch's 17 slots excluding except, returning the
// index of the single other occupied slot, or 255 if zero or more than
// one are occupied. Ported from original_source's uniqueInUse().
func uniqueInUse(n *fullNode, except int) int {
	found := 255
	for i := 0; i < 17; i++ {
		if i == except || n.Children[i] == nil {
			continue
		}
		if found != 255 {
			return 255
		}
		found = i
	}
	return found
}
