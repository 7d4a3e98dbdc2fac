package triedb

import (
	"bytes"
	"errors"
	"testing"

	"github.com/harkal/dash/cryptoutil"
	"github.com/harkal/dash/types"
)

func TestMemStoreReadMiss(t *testing.T) {
	s := NewMemStore()
	if _, err := s.Read(types.Hash{}); !errors.Is(err, ErrNodeNotFound) {
		t.Fatalf("Read err = %v, want ErrNodeNotFound", err)
	}
}

func TestMemStoreWriteReadRoundTrip(t *testing.T) {
	s := NewMemStore()
	data := []byte("a node's worth of bytes")
	hash := types.BytesToHash(cryptoutil.Keccak256(data))

	if err := s.Write(hash, data); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read(hash)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("Read = %q, want %q", got, data)
	}
	if s.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", s.Len())
	}
}

func TestMemStoreWriteIsDefensiveCopy(t *testing.T) {
	s := NewMemStore()
	data := []byte("mutate me")
	hash := types.BytesToHash(cryptoutil.Keccak256(data))
	if err := s.Write(hash, data); err != nil {
		t.Fatalf("Write: %v", err)
	}
	data[0] = 'X'

	got, err := s.Read(hash)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got[0] == 'X' {
		t.Fatal("Write did not defensively copy its input")
	}
}

func TestMemStoreErase(t *testing.T) {
	s := NewMemStore()
	data := []byte("gone soon")
	hash := types.BytesToHash(cryptoutil.Keccak256(data))
	if err := s.Write(hash, data); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := s.Erase(hash); err != nil {
		t.Fatalf("Erase: %v", err)
	}
	if _, err := s.Read(hash); !errors.Is(err, ErrNodeNotFound) {
		t.Fatalf("Read after Erase err = %v, want ErrNodeNotFound", err)
	}
}

func TestCachedStoreServesFromCacheOnHit(t *testing.T) {
	back := NewMemStore()
	cached := NewCachedStore(back, 1<<20)

	data := []byte("cached value")
	hash := types.BytesToHash(cryptoutil.Keccak256(data))
	if err := cached.Write(hash, data); err != nil {
		t.Fatalf("Write: %v", err)
	}

	// Erase from the backing store directly; CachedStore must still
	// serve the value from its cache.
	if err := back.Erase(hash); err != nil {
		t.Fatalf("Erase: %v", err)
	}
	got, err := cached.Read(hash)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("Read = %q, want %q", got, data)
	}
}

func TestCachedStoreFillsCacheOnMiss(t *testing.T) {
	back := NewMemStore()
	data := []byte("written directly to backing store")
	hash := types.BytesToHash(cryptoutil.Keccak256(data))
	if err := back.Write(hash, data); err != nil {
		t.Fatalf("Write: %v", err)
	}

	cached := NewCachedStore(back, 1<<20)
	got, err := cached.Read(hash)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("Read = %q, want %q", got, data)
	}

	if err := back.Erase(hash); err != nil {
		t.Fatalf("Erase: %v", err)
	}
	got2, err := cached.Read(hash)
	if err != nil {
		t.Fatalf("Read (post backing erase) : %v", err)
	}
	if !bytes.Equal(got2, data) {
		t.Fatalf("Read after backing erase = %q, want %q (should have been cached on first read)", got2, data)
	}
}
