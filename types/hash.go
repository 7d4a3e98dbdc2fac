// Package types defines the fixed-width value types shared by the trie
// engine and the account-state façade: 32-byte content hashes, 20-byte
// account addresses, and the account record itself.
package types

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/sha3"
)

// HashLength is the byte length of an H256 content hash.
const HashLength = 32

// AddressLength is the byte length of an account address.
const AddressLength = 20

// NullNode is the Keccak256 hash of the empty byte string. It is the
// sentinel root value of an uninitialized trie (spec.md §3, §9), kept
// distinct from the root of an initialized-but-empty trie, which is the
// Keccak256 hash of the serialized empty node instead.
var NullNode = func() Hash {
	sum := sha3.NewLegacyKeccak256().Sum(nil)
	return BytesToHash(sum)
}()

// Hash is a 32-byte big-endian value, used as the content address of trie
// nodes and of stored account records. Accounts themselves are keyed in
// the trie by their 20-byte Address, not by a Hash.
type Hash [HashLength]byte

// BytesToHash left-pads or truncates b to HashLength and returns the
// resulting Hash. Truncation keeps the trailing bytes, matching the
// convention used throughout the pack for fixed-width values.
func BytesToHash(b []byte) Hash {
	var h Hash
	if len(b) > HashLength {
		b = b[len(b)-HashLength:]
	}
	copy(h[HashLength-len(b):], b)
	return h
}

// HexToHash parses a big-endian hex string (optionally "0x"-prefixed,
// optionally surrounded by whitespace) into a Hash.
func HexToHash(s string) (Hash, error) {
	b, err := decodeHex(s)
	if err != nil {
		return Hash{}, err
	}
	return BytesToHash(b), nil
}

// Bytes returns the big-endian byte representation of h.
func (h Hash) Bytes() []byte { return h[:] }

// Hex renders h as lowercase big-endian hex with no "0x" prefix, byte 0
// first, exactly as spec.md §6 requires.
func (h Hash) Hex() string { return hex.EncodeToString(h[:]) }

// String implements fmt.Stringer.
func (h Hash) String() string { return h.Hex() }

// IsZero reports whether h is the all-zero hash.
func (h Hash) IsZero() bool { return h == Hash{} }

// Cmp returns -1, 0, or 1 as h is numerically less than, equal to, or
// greater than other, comparing bytes in big-endian (most significant
// byte first) order.
func (h Hash) Cmp(other Hash) int { return bytes.Compare(h[:], other[:]) }

// Less reports whether h orders strictly before other.
func (h Hash) Less(other Hash) bool { return h.Cmp(other) < 0 }

func decodeHex(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "0x")
	s = strings.TrimPrefix(s, "0X")
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("types: invalid hex hash %q: %w", s, err)
	}
	return b, nil
}
