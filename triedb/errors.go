package triedb

import "errors"

var (
	// ErrNodeNotFound is returned by a NodeStore when no node is stored
	// under the requested hash.
	ErrNodeNotFound = errors.New("triedb: node not found")

	// ErrCorruptNode is returned when a stored node's bytes do not decode
	// into a valid 0/2/17-element node record.
	ErrCorruptNode = errors.New("triedb: corrupt node encoding")

	// ErrBadRoot is returned by SetRoot when asked to resume at a hash the
	// store has no node for.
	ErrBadRoot = errors.New("triedb: root hash has no corresponding node")

	// ErrKeyAbsent is returned by Get when the key is not present in the
	// trie. It is an ordinary, expected outcome of a lookup, not a fault.
	ErrKeyAbsent = errors.New("triedb: key not present")
)
