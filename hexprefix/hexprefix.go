// Package hexprefix implements the hex-prefix (HP) nibble encoding used to
// frame trie node keys: a flag nibble carrying the leaf/extension bit and
// the odd/even length bit, followed by the packed key nibbles. Ported from
// the Yellow-Paper-style codec the teacher implements in trie/encoding.go,
// generalized to operate on nibble.View and to expose the two-view join
// overload original_source's hexPrefixEncode(_s1, _s2, _leaf) uses in graft.
package hexprefix

import "github.com/harkal/dash/nibble"

const (
	flagLeaf = 1 << 5
	flagOdd  = 1 << 4
)

// Encode frames nv as hex-prefix bytes, setting the leaf flag per leaf.
func Encode(nv nibble.View, leaf bool) []byte {
	return encodeNibbles(nv.Bytes(), leaf)
}

// EncodeJoin frames the concatenation of a and b as hex-prefix bytes,
// without requiring the caller to first materialize a combined view.
// Mirrors original_source's hexPrefixEncode(_s1, _s2, _leaf) overload,
// used by graft to fuse a parent's remaining key with a child's.
func EncodeJoin(a, b nibble.View, leaf bool) []byte {
	hex := make([]byte, 0, a.Len()+b.Len())
	hex = append(hex, a.Bytes()...)
	hex = append(hex, b.Bytes()...)
	return encodeNibbles(hex, leaf)
}

// Decode unframes hex-prefix bytes back into a nibble.View and the leaf
// flag carried in its first byte.
func Decode(hp []byte) (nibble.View, bool) {
	if len(hp) == 0 {
		return nibble.View{}, false
	}
	flag := hp[0]
	leaf := flag&flagLeaf != 0
	odd := flag&flagOdd != 0

	var hex []byte
	if odd {
		hex = append([]byte{flag & 0x0f}, unpackNibbles(hp[1:])...)
	} else {
		hex = unpackNibbles(hp[1:])
	}
	return packNibbles(hex), leaf
}

func encodeNibbles(hex []byte, leaf bool) []byte {
	flag := byte(0)
	if leaf {
		flag = flagLeaf
	}
	buf := make([]byte, len(hex)/2+1)
	if len(hex)&1 == 1 {
		flag |= flagOdd
		flag |= hex[0]
		hex = hex[1:]
	}
	buf[0] = flag
	packPairs(hex, buf[1:])
	return buf
}

// packPairs packs an even-length nibble slice two-to-a-byte, high nibble
// first.
func packPairs(hex []byte, out []byte) {
	for bi, ni := 0, 0; ni < len(hex); bi, ni = bi+1, ni+2 {
		out[bi] = hex[ni]<<4 | hex[ni+1]
	}
}

// unpackNibbles expands a packed byte slice into one nibble per byte.
func unpackNibbles(data []byte) []byte {
	out := make([]byte, len(data)*2)
	for i, b := range data {
		out[2*i] = b >> 4
		out[2*i+1] = b & 0x0f
	}
	return out
}

// packNibbles packs a plain nibble slice into a nibble.View, using an
// offset of 1 to absorb the odd leading nibble when the count is odd.
func packNibbles(hex []byte) nibble.View {
	if len(hex)&1 == 0 {
		data := make([]byte, len(hex)/2)
		packPairs(hex, data)
		return nibble.View{Data: data, Offset: 0}
	}
	data := make([]byte, len(hex)/2+1)
	data[0] = hex[0] & 0x0f
	packPairs(hex[1:], data[1:])
	return nibble.View{Data: data, Offset: 1}
}
