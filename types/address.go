package types

import "encoding/hex"

// Address is the 20-byte (160-bit) account identifier used as the trie's
// account-map key domain.
type Address [AddressLength]byte

// BytesToAddress left-pads or truncates b to AddressLength.
func BytesToAddress(b []byte) Address {
	var a Address
	if len(b) > AddressLength {
		b = b[len(b)-AddressLength:]
	}
	copy(a[AddressLength-len(b):], b)
	return a
}

// HexToAddress parses a big-endian hex string into an Address.
func HexToAddress(s string) (Address, error) {
	b, err := decodeHex(s)
	if err != nil {
		return Address{}, err
	}
	return BytesToAddress(b), nil
}

// Bytes returns the big-endian byte representation of a.
func (a Address) Bytes() []byte { return a[:] }

// Hex renders a as lowercase big-endian hex with no "0x" prefix.
func (a Address) Hex() string { return hex.EncodeToString(a[:]) }

// String implements fmt.Stringer.
func (a Address) String() string { return a.Hex() }

// IsZero reports whether a is the all-zero address.
func (a Address) IsZero() bool { return a == Address{} }
