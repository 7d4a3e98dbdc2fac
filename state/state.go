// Package state implements the account-state façade over a CTrieDB: a
// read-through cache of account records keyed by address, committed to
// the trie in first-write insertion order so that logically equivalent
// sequences of writes produce identical roots. Ported from
// original_source/src/state.{h,cpp}, generalized to the teacher's
// cache-with-order-slice idiom (core/state_cache.go).
package state

import (
	"errors"
	"fmt"

	"github.com/harkal/dash/cryptoutil"
	"github.com/harkal/dash/log"
	"github.com/harkal/dash/triedb"
	"github.com/harkal/dash/types"
)

// State holds a trie of address -> account-record-hash, a node store the
// trie and the account records themselves share, and an in-memory
// read/write cache that Commit flushes.
type State struct {
	trie  *triedb.CTrieDB
	store triedb.NodeStore

	cache map[types.Address]*types.Account
	order []types.Address

	log *log.Logger
}

// New constructs a State over trie and store, which must be the same
// store the trie itself is backed by (account records are stored
// alongside trie nodes, addressed the same way).
func New(trie *triedb.CTrieDB, store triedb.NodeStore) *State {
	return &State{
		trie:  trie,
		store: store,
		cache: make(map[types.Address]*types.Account),
		log:   log.Default().Module("state"),
	}
}

// IsAddressInUse reports whether address has ever been committed to the
// trie (a pending, uncommitted SetAccount does not count).
func (s *State) IsAddressInUse(address types.Address) (bool, error) {
	return s.trie.Contains(address.Bytes())
}

// GetAccount returns address's account record: from the write cache if
// present, else dereferenced through the trie and node store. An address
// never written and never committed yields a fresh zero-value account.
func (s *State) GetAccount(address types.Address) (*types.Account, error) {
	if acc, ok := s.cache[address]; ok {
		return acc, nil
	}

	hashBytes, err := s.trie.Get(address.Bytes())
	if errors.Is(err, triedb.ErrKeyAbsent) {
		return types.NewAccount(), nil
	}
	if err != nil {
		return nil, err
	}

	data, err := s.store.Read(types.BytesToHash(hashBytes))
	if err != nil {
		return nil, fmt.Errorf("state: read account record for %s: %w", address.Hex(), err)
	}
	return types.DeserializeAccount(data)
}

// SetAccount stages acc for address in the write cache only; it becomes
// visible in the trie at the next Commit.
func (s *State) SetAccount(address types.Address, acc *types.Account) {
	if _, ok := s.cache[address]; !ok {
		s.order = append(s.order, address)
	}
	s.cache[address] = acc
}

// Commit writes every cached account record to the node store, inserts
// its hash into the trie under the account's address, and clears the
// cache. Accounts are committed in the order their address was first
// written, so that two sessions performing the same logical writes in
// different orders produce identical roots.
func (s *State) Commit() error {
	s.log.Info("commit", "accounts", len(s.order))
	for _, address := range s.order {
		acc := s.cache[address]
		data := acc.Serialize()
		hash := types.BytesToHash(cryptoutil.Keccak256(data))
		if err := s.store.Write(hash, data); err != nil {
			return fmt.Errorf("state: write account record for %s: %w", address.Hex(), err)
		}
		if err := s.trie.Insert(address.Bytes(), hash.Bytes()); err != nil {
			return fmt.Errorf("state: insert account index for %s: %w", address.Hex(), err)
		}
	}
	s.cache = make(map[types.Address]*types.Account)
	s.order = nil
	s.log.Info("commit done", "root", s.trie.Root().Hex())
	return nil
}
