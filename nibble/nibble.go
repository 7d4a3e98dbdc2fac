// Package nibble implements a zero-copy, nibble-addressed view over a byte
// buffer, the key representation used throughout the trie engine. A View
// shares its backing data: Mid only adjusts an offset and Shared only
// compares nibbles in place (Bytes is the one method that copies),
// matching the original CNibbleView(buf, offset) class this is
// ported from.
package nibble

// nibbleAt returns the i-th nibble (4-bit group) of data, high nibble of
// byte i/2 first.
func nibbleAt(data []byte, i int) byte {
	if i&1 != 0 {
		return data[i/2] & 0x0f
	}
	return data[i/2] >> 4
}

// View is a nibble-addressed window into data, starting at the offset-th
// nibble and running to the end of data. Data normally packs two nibbles
// per byte (a real key's bytes); Expanded marks a View whose Data already
// holds one nibble value (0-15) per byte, as produced by Bytes() and
// stored directly in a shortNode's Key (see FromNibbles).
type View struct {
	Data     []byte
	Offset   int
	Expanded bool
}

// New returns a View over the whole of data, treating data as packed
// bytes (two nibbles per byte) — the representation a real trie key
// arrives in.
func New(data []byte) View { return View{Data: data} }

// FromNibbles returns a View over nibbles, treating each byte as a
// single already-expanded nibble value (0-15). Use this to wrap a
// shortNode's Key, which Bytes() previously materialized in exactly this
// form; wrapping it with New would instead re-split each nibble value
// into two nibbles of packed data, corrupting the key.
func FromNibbles(nibbles []byte) View { return View{Data: nibbles, Expanded: true} }

// Len returns the number of nibbles remaining in the view.
func (v View) Len() int {
	if v.Expanded {
		return len(v.Data) - v.Offset
	}
	return len(v.Data)*2 - v.Offset
}

// Empty reports whether the view has no nibbles left.
func (v View) Empty() bool { return v.Len() == 0 }

// At returns the i-th nibble of the view.
func (v View) At(i int) byte {
	if v.Expanded {
		return v.Data[v.Offset+i]
	}
	return nibbleAt(v.Data, v.Offset+i)
}

// Mid returns the suffix of v starting at its i-th nibble.
func (v View) Mid(i int) View { return View{Data: v.Data, Offset: v.Offset + i, Expanded: v.Expanded} }

// Shared returns the number of nibbles v and k share as a common prefix.
func (v View) Shared(k View) int {
	n := 0
	for n < v.Len() && n < k.Len() && v.At(n) == k.At(n) {
		n++
	}
	return n
}

// Contains reports whether k is a prefix of v.
func (v View) Contains(k View) bool { return v.Shared(k) == k.Len() }

// Equal reports whether v and k denote the same nibble sequence.
func (v View) Equal(k View) bool { return v.Len() == k.Len() && v.Shared(k) == k.Len() }

// Less reports whether v orders strictly before k, comparing nibble by
// nibble and treating a shorter sequence that is a prefix of the longer
// one as lexicographically smaller.
func (v View) Less(k View) bool {
	n := v.Len()
	if k.Len() < n {
		n = k.Len()
	}
	for i := 0; i < n; i++ {
		a, b := v.At(i), k.At(i)
		if a != b {
			return a < b
		}
	}
	return v.Len() < k.Len()
}

// IsPriorToPrefix reports whether v, treated as a full key, sits strictly
// before the key-prefix k: ported from CNibbleView::isEarlierThan. A key
// equal to the prefix for the prefix's whole length is NOT prior to it;
// a key that runs out before the prefix does IS prior to it.
func (v View) IsPriorToPrefix(k View) bool {
	i := 0
	for ; i < k.Len() && i < v.Len(); i++ {
		if v.At(i) < k.At(i) {
			return true
		}
		if v.At(i) > k.At(i) {
			return false
		}
	}
	if i >= k.Len() {
		return false
	}
	return true
}

// Bytes materializes the view as a freshly-allocated plain nibble slice,
// one byte per nibble, values 0-15.
func (v View) Bytes() []byte {
	out := make([]byte, v.Len())
	for i := range out {
		out[i] = v.At(i)
	}
	return out
}
