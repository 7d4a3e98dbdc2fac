package types

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/holiman/uint256"
)

// Account is the record stored under an address's trie key: balance and
// sequence number as 256-bit unsigned integers, the account's storage
// trie root, and its code.
type Account struct {
	Balance     *uint256.Int
	Sequence    *uint256.Int
	StorageRoot Hash
	Code        []byte
}

// NewAccount returns a zero-valued account: zero balance, zero sequence,
// empty storage root, no code.
func NewAccount() *Account {
	return &Account{
		Balance:  new(uint256.Int),
		Sequence: new(uint256.Int),
	}
}

// Clone returns a deep copy of the account, safe to mutate independently
// of the original.
func (a *Account) Clone() *Account {
	return &Account{
		Balance:     new(uint256.Int).Set(a.Balance),
		Sequence:    new(uint256.Int).Set(a.Sequence),
		StorageRoot: a.StorageRoot,
		Code:        append([]byte(nil), a.Code...),
	}
}

// AddBalance credits amount to the account's balance.
func (a *Account) AddBalance(amount *uint256.Int) {
	a.Balance.Add(a.Balance, amount)
}

// SubBalance debits amount from the account's balance. The caller is
// responsible for checking sufficiency first; SubBalance does not guard
// against underflow.
func (a *Account) SubBalance(amount *uint256.Int) {
	a.Balance.Sub(a.Balance, amount)
}

// IncSequence increments the account's sequence number by one, mirroring
// a transaction counter.
func (a *Account) IncSequence() {
	a.Sequence.AddUint64(a.Sequence, 1)
}

// errTruncated is returned by decodeVarint and DeserializeAccount when the
// input ends mid-field.
var errTruncated = errors.New("types: truncated account record")

// Serialize encodes the account as
// [ varint(balance), varint(sequence), 32-byte storage_root, code ]
// per spec.md §6.
func (a *Account) Serialize() []byte {
	var buf bytes.Buffer
	buf.Write(encodeVarint(a.Balance))
	buf.Write(encodeVarint(a.Sequence))
	buf.Write(a.StorageRoot[:])
	buf.Write(a.Code)
	return buf.Bytes()
}

// DeserializeAccount decodes an account record produced by Serialize.
func DeserializeAccount(data []byte) (*Account, error) {
	r := bytes.NewReader(data)

	balance, err := decodeVarint(r)
	if err != nil {
		return nil, fmt.Errorf("types: decode balance: %w", err)
	}
	sequence, err := decodeVarint(r)
	if err != nil {
		return nil, fmt.Errorf("types: decode sequence: %w", err)
	}

	var root Hash
	if n, _ := r.Read(root[:]); n != HashLength {
		return nil, fmt.Errorf("types: decode storage root: %w", errTruncated)
	}

	code := make([]byte, r.Len())
	r.Read(code)

	return &Account{
		Balance:     balance,
		Sequence:    sequence,
		StorageRoot: root,
		Code:        code,
	}, nil
}

// encodeVarint encodes v as an unsigned LEB128-style varint: each byte
// carries 7 payload bits, low-order group first, with the high bit set
// on every byte but the last.
func encodeVarint(v *uint256.Int) []byte {
	if v.IsZero() {
		return []byte{0}
	}
	x := new(uint256.Int).Set(v)
	mask := uint256.NewInt(0x7f)
	var buf []byte
	for !x.IsZero() {
		group := new(uint256.Int).And(x, mask).Uint64()
		x.Rsh(x, 7)
		if !x.IsZero() {
			group |= 0x80
		}
		buf = append(buf, byte(group))
	}
	return buf
}

// decodeVarint is the inverse of encodeVarint. It rejects any encoding
// whose payload bits would not fit in 256 bits, rather than silently
// truncating them: the last group straddling bit 255 only has room for
// its low bits (e.g. at shift 252, only 4 of its 7 payload bits fit), and
// a value that sets any of the higher bits is corrupt, not merely large.
func decodeVarint(r *bytes.Reader) (*uint256.Int, error) {
	const maxBits = 256
	result := new(uint256.Int)
	var shift uint
	for {
		b, err := r.ReadByte()
		if err != nil {
			return nil, errTruncated
		}
		group := uint64(b & 0x7f)
		var avail uint
		if shift < maxBits {
			avail = maxBits - shift
		}
		if avail < 7 && group>>avail != 0 {
			return nil, fmt.Errorf("types: varint exceeds 256 bits")
		}
		part := uint256.NewInt(group)
		part.Lsh(part, shift)
		result.Or(result, part)
		if b&0x80 == 0 {
			return result, nil
		}
		shift += 7
	}
}
