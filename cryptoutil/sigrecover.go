package cryptoutil

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"errors"
	"math/big"

	"github.com/harkal/dash/types"
)

// TODO: replace elliptic.P256() with actual secp256k1 curve parameters.
// Go stdlib does not include secp256k1; P256 stands in for it here, same
// as the teacher's own placeholder.
var curve = elliptic.P256()

// curveOrder is the order of the secp256k1 curve, used for signature
// component range checks regardless of which curve actually backs
// recovery.
var curveOrder, _ = new(big.Int).SetString("fffffffffffffffffffffffffffffffebaaedce6af48a03bbfd25e8cd0364141", 16)

var curveHalfOrder = new(big.Int).Div(curveOrder, big.NewInt(2))

// CompactSignature is a 65-byte ECDSA signature: R (32) || S (32) || V (1),
// the wire form spec.md's apply_transaction expects a signature in.
type CompactSignature struct {
	R [32]byte
	S [32]byte
	V byte
}

var (
	ErrSigInvalidLength = errors.New("cryptoutil: signature must be 65 bytes")
	ErrSigInvalidV      = errors.New("cryptoutil: invalid V value")
	ErrSigInvalidR      = errors.New("cryptoutil: R must be in [1, n-1]")
	ErrSigInvalidS      = errors.New("cryptoutil: S must be in [1, n-1]")
	ErrSigMalleable     = errors.New("cryptoutil: S is in upper half (malleable)")
	ErrSigHashLength    = errors.New("cryptoutil: message hash must be 32 bytes")
	ErrSigRecoverFailed = errors.New("cryptoutil: public key recovery failed")
)

// ParseCompactSignature parses a 65-byte signature into a CompactSignature.
func ParseCompactSignature(sig []byte) (*CompactSignature, error) {
	if len(sig) != 65 {
		return nil, ErrSigInvalidLength
	}
	cs := &CompactSignature{V: sig[64]}
	copy(cs.R[:], sig[:32])
	copy(cs.S[:], sig[32:64])
	return cs, nil
}

// Bytes encodes the compact signature as 65 bytes: R || S || V.
func (cs *CompactSignature) Bytes() []byte {
	buf := make([]byte, 65)
	copy(buf[:32], cs.R[:])
	copy(buf[32:64], cs.S[:])
	buf[64] = cs.V
	return buf
}

// Validate checks R, S are in [1, n-1], S is in the lower half of the
// curve order (non-malleable, EIP-2 style), and V is 0 or 1.
func (cs *CompactSignature) Validate() error {
	r := new(big.Int).SetBytes(cs.R[:])
	s := new(big.Int).SetBytes(cs.S[:])
	if cs.V > 1 {
		return ErrSigInvalidV
	}
	if r.Sign() <= 0 || r.Cmp(curveOrder) >= 0 {
		return ErrSigInvalidR
	}
	if s.Sign() <= 0 || s.Cmp(curveOrder) >= 0 {
		return ErrSigInvalidS
	}
	if s.Cmp(curveHalfOrder) > 0 {
		return ErrSigMalleable
	}
	return nil
}

// SigToPub checks the hash length and the signature (see Validate) and
// then returns ErrSigRecoverFailed for every input: recovering a public
// key from R, S and V is not implemented here, so it never returns a key.
// The account-state façade does not call it; state.Transaction carries
// its sender address directly.
func SigToPub(hash []byte, sig *CompactSignature) (*ecdsa.PublicKey, error) {
	if len(hash) != 32 {
		return nil, ErrSigHashLength
	}
	if err := sig.Validate(); err != nil {
		return nil, err
	}
	return nil, ErrSigRecoverFailed
}

// FromECDSAPub marshals a public key to 65-byte uncompressed format.
func FromECDSAPub(pub *ecdsa.PublicKey) []byte {
	if pub == nil || pub.X == nil || pub.Y == nil {
		return nil
	}
	return elliptic.Marshal(pub.Curve, pub.X, pub.Y)
}

// PubkeyToAddress derives the account address from a public key:
// Keccak256(pubkey[1:])[12:].
func PubkeyToAddress(pub ecdsa.PublicKey) types.Address {
	pubBytes := FromECDSAPub(&pub)
	if pubBytes == nil {
		return types.Address{}
	}
	hash := Keccak256(pubBytes[1:])
	return types.BytesToAddress(hash[12:])
}

// RecoverSender derives the sending address from the public key SigToPub
// returns. Because SigToPub never returns a key, RecoverSender always
// returns an error.
func RecoverSender(hash []byte, sig *CompactSignature) (types.Address, error) {
	pub, err := SigToPub(hash, sig)
	if err != nil {
		return types.Address{}, err
	}
	return PubkeyToAddress(*pub), nil
}

// GenerateKey generates a new key pair over the recovery curve, useful for
// tests that need a signer without a real chain's key material.
func GenerateKey() (*ecdsa.PrivateKey, error) {
	return ecdsa.GenerateKey(curve, rand.Reader)
}
