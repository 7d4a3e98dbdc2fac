package triedb

import (
	"errors"

	"github.com/harkal/dash/types"
	"github.com/syndtr/goleveldb/leveldb"
)

// LevelStore is a NodeStore backed by a LevelDB database on disk, for
// tries that must survive a process restart.
type LevelStore struct {
	db *leveldb.DB
}

// OpenLevelStore opens (creating if absent) a LevelDB database at path.
func OpenLevelStore(path string) (*LevelStore, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, err
	}
	return &LevelStore{db: db}, nil
}

func (s *LevelStore) Read(hash types.Hash) ([]byte, error) {
	data, err := s.db.Get(hash[:], nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, ErrNodeNotFound
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (s *LevelStore) Write(hash types.Hash, data []byte) error {
	return s.db.Put(hash[:], data, nil)
}

func (s *LevelStore) Erase(hash types.Hash) error {
	return s.db.Delete(hash[:], nil)
}

// Close releases the underlying database handle.
func (s *LevelStore) Close() error {
	return s.db.Close()
}
