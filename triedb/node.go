// Package triedb implements CTrieDB, a content-addressed hexary
// Merkle-Patricia trie over a pluggable key-value node store. Ported from
// original_source/src/triedb/triedb.h, with the node representation
// generalized to the teacher's typed node model (trie/node.go) instead of
// the original's raw byte-vector CTrieNode.
package triedb

import "github.com/harkal/dash/nibble"

// node is the interface implemented by every trie node variant held in
// memory. Only *shortNode and *fullNode are ever the root of a stored,
// content-addressed node; hashNode and valueNode only ever occur as the
// value of a shortNode or as an entry in a fullNode's Children.
type node interface {
	isNode()
}

// hashNode is a 32-byte content address of a node stored elsewhere. The
// engine always references children by hash; it never inlines a child's
// encoding into its parent (see DESIGN.md's Open Question decision).
type hashNode []byte

// valueNode is the raw value stored at a leaf, or at a branch's terminal
// slot (index 16).
type valueNode []byte

// shortNode is either a leaf (IsLeaf true, Val is a valueNode) or an
// extension (IsLeaf false, Val is a hashNode pointing at the next node).
// Key holds plain nibbles (values 0-15), never hex-prefix-encoded and
// never carrying a terminator sentinel; the leaf/extension distinction is
// carried explicitly in IsLeaf instead.
type shortNode struct {
	Key    []byte
	IsLeaf bool
	Val    node
}

// fullNode is a 17-ary branch: Children[0..15] are nil or a hashNode
// referencing the child at that nibble, and Children[16] is nil or a
// valueNode holding the value stored exactly at this branch point.
type fullNode struct {
	Children [17]node
}

func (hashNode) isNode()   {}
func (valueNode) isNode()  {}
func (*shortNode) isNode() {}
func (*fullNode) isNode()  {}

// keyView returns a nibble.View over a shortNode's key. Key holds plain,
// already-expanded nibbles (see this file's shortNode doc comment), so it
// must be wrapped with FromNibbles, not New (which would treat it as
// packed real-key bytes and re-split each nibble value in two).
func keyView(n *shortNode) nibble.View { return nibble.FromNibbles(n.Key) }

// copy returns a shallow copy of a fullNode, safe to mutate one child of
// without disturbing the original (matches the teacher's fullNode.copy).
func (n *fullNode) copy() *fullNode {
	cp := *n
	return &cp
}
