package state

import (
	"github.com/harkal/dash/cryptoutil"
	"github.com/harkal/dash/types"
	"github.com/holiman/uint256"
)

// Transaction is a single balance transfer. Sender is carried directly
// rather than recovered from Sig inside ApplyTransaction: spec.md §4.4
// treats sender recovery as the job of an external crypto collaborator,
// and cryptoutil.RecoverSender (see cryptoutil/sigrecover.go) is a
// deliberately honest stub that never succeeds, same as the teacher's own
// secp256k1 placeholder. Sig is still validated for shape when present.
type Transaction struct {
	Sender types.Address
	To     types.Address
	Amount *uint256.Int
	Hash   []byte
	Sig    *cryptoutil.CompactSignature
}

// Block is an ordered sequence of transactions to apply to a State.
type Block struct {
	Transactions []*Transaction
}

// ApplyTransaction verifies tx.Sig's shape (if present), checks the
// sender has sufficient balance, and on success credits the receiver and
// debits the sender in the write cache. It reports (false, nil) for any
// ordinary failure (bad signature shape, unknown sender, insufficient
// balance) and a non-nil error only for a node-store malfunction.
func (s *State) ApplyTransaction(tx *Transaction) (bool, error) {
	if tx.Amount == nil {
		return false, nil
	}
	if tx.Sig != nil {
		if err := tx.Sig.Validate(); err != nil {
			return false, nil
		}
	}

	// A sender that is neither staged in the cache nor committed to the
	// trie is unknown, and fails even for a zero amount.
	if _, cached := s.cache[tx.Sender]; !cached {
		known, err := s.IsAddressInUse(tx.Sender)
		if err != nil {
			return false, err
		}
		if !known {
			return false, nil
		}
	}

	sender, err := s.GetAccount(tx.Sender)
	if err != nil {
		return false, err
	}
	if sender.Balance.Cmp(tx.Amount) < 0 {
		return false, nil
	}

	// A self-transfer must apply both halves to the same account object:
	// fetching the receiver independently would give sender and receiver
	// distinct *Account copies of the same address, and whichever
	// SetAccount call ran last would silently discard the other's update.
	receiver := sender
	if tx.To != tx.Sender {
		receiver, err = s.GetAccount(tx.To)
		if err != nil {
			return false, err
		}
	}

	sender.SubBalance(tx.Amount)
	sender.IncSequence()
	receiver.AddBalance(tx.Amount)

	s.SetAccount(tx.Sender, sender)
	if tx.To != tx.Sender {
		s.SetAccount(tx.To, receiver)
	}
	return true, nil
}

// AdvanceState applies every transaction in block, in order. A failing
// transaction does not halt the block; it simply has no effect, matching
// original_source's AdvaceState, which likewise ignores each
// transaction's outcome.
func (s *State) AdvanceState(block *Block) error {
	for _, tx := range block.Transactions {
		if _, err := s.ApplyTransaction(tx); err != nil {
			return err
		}
	}
	return nil
}
