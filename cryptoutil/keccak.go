// Package cryptoutil provides the content-addressing hash and the
// signature-recovery primitives the trie engine and account-state façade
// depend on. Ported from the teacher's crypto package.
package cryptoutil

import (
	"golang.org/x/crypto/sha3"

	"github.com/harkal/dash/types"
)

// Keccak256 calculates the Keccak-256 hash of the concatenation of data.
func Keccak256(data ...[]byte) []byte {
	d := sha3.NewLegacyKeccak256()
	for _, b := range data {
		d.Write(b)
	}
	return d.Sum(nil)
}

// Keccak256Hash calculates Keccak-256 and returns it as a types.Hash, the
// content address used for every trie node.
func Keccak256Hash(data ...[]byte) types.Hash {
	return types.BytesToHash(Keccak256(data...))
}
