package triedb

import (
	"bytes"
	"errors"
	"testing"

	"github.com/harkal/dash/types"
)

func newTestTrie(t *testing.T) *CTrieDB {
	t.Helper()
	tr := New(NewMemStore())
	if err := tr.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	return tr
}

// S1: init() => root = Keccak256(serialize(empty_node)); get("a") returns empty.
func TestS1Empty(t *testing.T) {
	tr := newTestTrie(t)
	if tr.Root() != emptyNodeHash {
		t.Fatalf("root = %s, want %s", tr.Root().Hex(), emptyNodeHash.Hex())
	}
	if _, err := tr.Get([]byte("a")); !errors.Is(err, ErrKeyAbsent) {
		t.Fatalf("Get(a) err = %v, want ErrKeyAbsent", err)
	}
}

// S2: insert/get/remove round-trips back to S1's root.
func TestS2SingleLeaf(t *testing.T) {
	tr := newTestTrie(t)
	emptyRoot := tr.Root()

	if err := tr.Insert([]byte("doe"), []byte("reindeer")); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	got, err := tr.Get([]byte("doe"))
	if err != nil {
		t.Fatalf("Get(doe): %v", err)
	}
	if !bytes.Equal(got, []byte("reindeer")) {
		t.Fatalf("Get(doe) = %q, want reindeer", got)
	}
	if _, err := tr.Get([]byte("dog")); !errors.Is(err, ErrKeyAbsent) {
		t.Fatalf("Get(dog) err = %v, want ErrKeyAbsent", err)
	}

	if err := tr.Remove([]byte("doe")); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if tr.Root() != emptyRoot {
		t.Fatalf("root after remove = %s, want %s (S1 root)", tr.Root().Hex(), emptyRoot.Hex())
	}
}

func insertS3(t *testing.T, tr *CTrieDB, order []int) {
	t.Helper()
	pairs := []struct{ k, v string }{
		{"do", "verb"},
		{"dog", "puppy"},
		{"doge", "coin"},
		{"horse", "stallion"},
	}
	for _, i := range order {
		p := pairs[i]
		if err := tr.Insert([]byte(p.k), []byte(p.v)); err != nil {
			t.Fatalf("Insert(%s): %v", p.k, err)
		}
	}
}

// S3: cleve — all four values readable, a non-existent sibling key is absent.
func TestS3Cleve(t *testing.T) {
	tr := newTestTrie(t)
	insertS3(t, tr, []int{0, 1, 2, 3})

	want := map[string]string{
		"do": "verb", "dog": "puppy", "doge": "coin", "horse": "stallion",
	}
	for k, v := range want {
		got, err := tr.Get([]byte(k))
		if err != nil {
			t.Fatalf("Get(%s): %v", k, err)
		}
		if string(got) != v {
			t.Fatalf("Get(%s) = %q, want %q", k, got, v)
		}
	}
	ok, err := tr.Contains([]byte("dogs"))
	if err != nil {
		t.Fatalf("Contains(dogs): %v", err)
	}
	if ok {
		t.Fatal("Contains(dogs) = true, want false")
	}
}

// S4: order independence — reverse insertion order yields the identical root.
func TestS4OrderIndependence(t *testing.T) {
	forward := newTestTrie(t)
	insertS3(t, forward, []int{0, 1, 2, 3})

	reverse := newTestTrie(t)
	insertS3(t, reverse, []int{3, 2, 1, 0})

	if forward.Root() != reverse.Root() {
		t.Fatalf("forward root %s != reverse root %s", forward.Root().Hex(), reverse.Root().Hex())
	}
}

// S5: branch collapse — after removing "doge" then "dog", "do" is still
// readable and no branch node has a unique live slot.
func TestS5BranchCollapse(t *testing.T) {
	tr := newTestTrie(t)
	insertS3(t, tr, []int{0, 1, 2, 3})

	if err := tr.Remove([]byte("doge")); err != nil {
		t.Fatalf("Remove(doge): %v", err)
	}
	if err := tr.Remove([]byte("dog")); err != nil {
		t.Fatalf("Remove(dog): %v", err)
	}

	got, err := tr.Get([]byte("do"))
	if err != nil {
		t.Fatalf("Get(do): %v", err)
	}
	if string(got) != "verb" {
		t.Fatalf("Get(do) = %q, want verb", got)
	}

	assertNoUniqueBranches(t, tr)
}

// S6: deep overwrite — re-inserting an earlier value restores the earlier root.
func TestS6DeepOverwrite(t *testing.T) {
	tr := newTestTrie(t)
	if err := tr.Insert([]byte("k"), []byte("v1")); err != nil {
		t.Fatalf("Insert v1: %v", err)
	}
	r1 := tr.Root()

	if err := tr.Insert([]byte("k"), []byte("v2")); err != nil {
		t.Fatalf("Insert v2: %v", err)
	}
	r2 := tr.Root()
	if r2 == r1 {
		t.Fatal("root unchanged after overwriting with a different value")
	}

	if err := tr.Insert([]byte("k"), []byte("v1")); err != nil {
		t.Fatalf("Insert v1 again: %v", err)
	}
	if tr.Root() != r1 {
		t.Fatalf("root after reverting to v1 = %s, want %s", tr.Root().Hex(), r1.Hex())
	}
}

// Invariant 4: delete-insert inverse.
func TestDeleteInsertInverse(t *testing.T) {
	tr := newTestTrie(t)
	insertS3(t, tr, []int{0, 1, 3})
	before := tr.Root()

	if err := tr.Insert([]byte("doge"), []byte("coin")); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := tr.Remove([]byte("doge")); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if tr.Root() != before {
		t.Fatalf("root = %s, want %s (pre-insert root)", tr.Root().Hex(), before.Hex())
	}
}

// Invariant 7: content addressing — identical multisets of (key, value)
// produce identical roots regardless of which store instance built them.
func TestContentAddressingAcrossStores(t *testing.T) {
	a := newTestTrie(t)
	insertS3(t, a, []int{2, 0, 3, 1})

	b := New(NewMemStore())
	if err := b.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	insertS3(t, b, []int{0, 1, 2, 3})

	if a.Root() != b.Root() {
		t.Fatalf("root a = %s, root b = %s", a.Root().Hex(), b.Root().Hex())
	}
}

func TestRemoveAbsentKeyIsNoop(t *testing.T) {
	tr := newTestTrie(t)
	insertS3(t, tr, []int{0, 1})
	before := tr.Root()

	if err := tr.Remove([]byte("nonexistent")); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if tr.Root() != before {
		t.Fatalf("root changed removing an absent key: %s != %s", tr.Root().Hex(), before.Hex())
	}
}

func TestSetRootRoundTrip(t *testing.T) {
	store := NewMemStore()
	a := New(store)
	if err := a.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	insertS3(t, a, []int{0, 1, 2, 3})
	root := a.Root()

	b := New(store)
	if err := b.SetRoot(root); err != nil {
		t.Fatalf("SetRoot: %v", err)
	}
	got, err := b.Get([]byte("dog"))
	if err != nil {
		t.Fatalf("Get(dog): %v", err)
	}
	if string(got) != "puppy" {
		t.Fatalf("Get(dog) = %q, want puppy", got)
	}
}

func TestSetRootUnresolvableIsBadRoot(t *testing.T) {
	tr := New(NewMemStore())
	bogus, err := types.HexToHash("deadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeef")
	if err != nil {
		t.Fatalf("HexToHash: %v", err)
	}
	if err := tr.SetRoot(bogus); !errors.Is(err, ErrBadRoot) {
		t.Fatalf("SetRoot err = %v, want ErrBadRoot", err)
	}
}

// assertNoUniqueBranches walks every reachable node from the trie's root
// and fails if any branch has fewer than two live slots, per invariant 6.
func assertNoUniqueBranches(t *testing.T, tr *CTrieDB) {
	t.Helper()
	root, err := tr.nodeAt(tr.root)
	if err != nil {
		t.Fatalf("nodeAt(root): %v", err)
	}
	walkCanonical(t, tr, root)
}

func walkCanonical(t *testing.T, tr *CTrieDB, n node) {
	t.Helper()
	switch v := n.(type) {
	case nil:
		return
	case *shortNode:
		if !v.IsLeaf {
			child, err := tr.resolveRef(v.Val)
			if err != nil {
				t.Fatalf("resolveRef: %v", err)
			}
			if _, ok := child.(*shortNode); ok {
				t.Fatal("extension points directly at a short node (not grafted)")
			}
			walkCanonical(t, tr, child)
		}
	case *fullNode:
		live := 0
		for i := 0; i < 17; i++ {
			if v.Children[i] != nil {
				live++
			}
		}
		if live < 2 {
			t.Fatalf("branch has %d live slots, want >= 2", live)
		}
		for i := 0; i < 16; i++ {
			child, err := tr.resolveRef(v.Children[i])
			if err != nil {
				t.Fatalf("resolveRef: %v", err)
			}
			walkCanonical(t, tr, child)
		}
	}
}

// killNode is never called by Insert/Remove (see DESIGN.md), but it must
// still behave correctly as a standalone primitive: erase a stored
// node's record, and treat the two sentinel roots as already-safe no-ops.
func TestKillNodeErasesAndIgnoresSentinels(t *testing.T) {
	tr := newTestTrie(t)
	if err := tr.Insert([]byte("doe"), []byte("reindeer")); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	root := tr.Root()

	if err := tr.killNode(types.NullNode); err != nil {
		t.Fatalf("killNode(NullNode): %v", err)
	}
	if err := tr.killNode(emptyNodeHash); err != nil {
		t.Fatalf("killNode(emptyNodeHash): %v", err)
	}

	if err := tr.killNode(root); err != nil {
		t.Fatalf("killNode(root): %v", err)
	}
	if _, err := tr.store.Read(root); !errors.Is(err, ErrNodeNotFound) {
		t.Fatalf("store.Read(root) after killNode err = %v, want ErrNodeNotFound", err)
	}
}
