package triedb

import (
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/harkal/dash/cryptoutil"
	"github.com/harkal/dash/hexprefix"
	"github.com/harkal/dash/nibble"
	"github.com/harkal/dash/types"
)

// emptyNodeEncoding is the canonical nil-root record: an empty trie node, encoded
// as an empty RLP list. Keccak256 of its encoding is the root of an
// initialized, empty trie (distinct from types.NullNode, the
// not-yet-initialized sentinel).
var emptyNodeEncoding = mustEncodeEmpty()

func mustEncodeEmpty() []byte {
	b, err := encodeNode(nil)
	if err != nil {
		panic(err)
	}
	return b
}

// emptyNodeHash is Keccak256(emptyNodeEncoding), the root of an
// initialized, empty trie.
var emptyNodeHash = types.BytesToHash(cryptoutil.Keccak256(emptyNodeEncoding))

// encodeNode serializes a node into its stored record: an RLP list of 0
// (empty), 2 (short/pair), or 17 (full/branch) byte strings, matching the
// CTrieNode taxonomy in original_source/src/triedb/triedb.h.
func encodeNode(n node) ([]byte, error) {
	switch v := n.(type) {
	case nil:
		return rlp.EncodeToBytes([][]byte{})
	case *shortNode:
		hp := hexprefix.Encode(keyView(v), v.IsLeaf)
		second, err := encodeShortVal(v.Val)
		if err != nil {
			return nil, err
		}
		return rlp.EncodeToBytes([][]byte{hp, second})
	case *fullNode:
		raw := make([][]byte, 17)
		for i := 0; i < 16; i++ {
			switch c := v.Children[i].(type) {
			case nil:
				raw[i] = []byte{}
			case hashNode:
				raw[i] = []byte(c)
			default:
				return nil, fmt.Errorf("triedb: branch child %d is not a hash reference", i)
			}
		}
		switch c := v.Children[16].(type) {
		case nil:
			raw[16] = []byte{}
		case valueNode:
			raw[16] = []byte(c)
		default:
			return nil, fmt.Errorf("triedb: branch value slot is not a raw value")
		}
		return rlp.EncodeToBytes(raw)
	default:
		return nil, fmt.Errorf("triedb: cannot encode node of type %T", n)
	}
}

func encodeShortVal(v node) ([]byte, error) {
	switch c := v.(type) {
	case nil:
		return []byte{}, nil
	case valueNode:
		return []byte(c), nil
	case hashNode:
		return []byte(c), nil
	default:
		return nil, fmt.Errorf("triedb: short node value is not a value or hash reference")
	}
}

// decodeNode parses a stored record back into a node.
func decodeNode(data []byte) (node, error) {
	var raw [][]byte
	if err := rlp.DecodeBytes(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptNode, err)
	}
	switch len(raw) {
	case 0:
		return nil, nil
	case 2:
		key, isLeaf := hexprefix.Decode(raw[0])
		var val node
		if isLeaf {
			val = valueNode(raw[1])
		} else if len(raw[1]) != 0 {
			val = hashNode(raw[1])
		}
		return &shortNode{Key: key.Bytes(), IsLeaf: isLeaf, Val: val}, nil
	case 17:
		var fn fullNode
		for i := 0; i < 16; i++ {
			if len(raw[i]) != 0 {
				fn.Children[i] = hashNode(raw[i])
			}
		}
		if len(raw[16]) != 0 {
			fn.Children[16] = valueNode(raw[16])
		}
		return &fn, nil
	default:
		return nil, fmt.Errorf("%w: record has %d elements", ErrCorruptNode, len(raw))
	}
}

// joinShortKeys fuses a parent extension's key with its child's key during
// graft, going through the hex-prefix codec exactly as
// original_source/src/triedb/triedb.h's graft does (it builds the grafted
// node's key via hexPrefixEncode(keyOf(orig), keyOf(n), isLeaf(n)) rather
// than materializing a concatenated nibble array directly).
func joinShortKeys(parent, child nibble.View, childIsLeaf bool) []byte {
	hp := hexprefix.EncodeJoin(parent, child, childIsLeaf)
	joined, _ := hexprefix.Decode(hp)
	return joined.Bytes()
}
