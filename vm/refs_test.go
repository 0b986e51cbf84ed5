package vm

import (
	"testing"

	"github.com/jhlagado/ts-tacitus-sub002/errs"
)

func TestGlobalRefFetchStore(t *testing.T) {
	i := newTestInstance()
	if err := i.Push(FromInt(0)); err != nil {
		t.Fatal(err)
	}
	if err := i.globalRef(); err != nil {
		t.Fatal(err)
	}
	ref, err := i.Peek(0)
	if err != nil {
		t.Fatal(err)
	}
	cell, ok := RefCell(ref)
	if !ok || cell != GlobalBaseCell {
		t.Fatalf("global_ref(0) = %v, want REF(%d)", ref, GlobalBaseCell)
	}

	if err := i.Push(FromInt(42)); err != nil {
		t.Fatal(err)
	}
	if err := i.store(); err != nil {
		t.Fatal(err)
	}
	if err := i.Push(ref); err != nil {
		t.Fatal(err)
	}
	if err := i.fetch(); err != nil {
		t.Fatal(err)
	}
	v, err := i.Pop()
	if err != nil {
		t.Fatal(err)
	}
	if Float(v) != 42 {
		t.Fatalf("fetch = %v, want 42", Float(v))
	}
}

func TestStoreIncompatibleListRejected(t *testing.T) {
	i := newTestInstance()
	pushList(t, i, 1, 2, 3)
	ref, err := i.transfer(i.global)
	if err != nil {
		t.Fatal(err)
	}
	if err := i.Push(ref); err != nil {
		t.Fatal(err)
	}
	pushList(t, i, 9, 9) // wrong slot count
	if err := i.store(); !errs.Is(err, errs.IncompatibleStore) {
		t.Fatalf("store mismatched list size: got %v, want INCOMPATIBLE_STORE", err)
	}
}

func TestStoreCompatibleListAccepted(t *testing.T) {
	i := newTestInstance()
	pushList(t, i, 1, 2, 3)
	ref, err := i.transfer(i.global)
	if err != nil {
		t.Fatal(err)
	}
	if err := i.Push(ref); err != nil {
		t.Fatal(err)
	}
	pushList(t, i, 9, 9, 9) // same slot count
	if err := i.store(); err != nil {
		t.Fatalf("store with matching list size: %v", err)
	}
	if err := i.Push(ref); err != nil {
		t.Fatal(err)
	}
	if err := i.load(); err != nil {
		t.Fatal(err)
	}
	header, n, _, err := i.listBounds()
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Fatalf("loaded length after store = %d, want 3", n)
	}
	for k := 0; k < n; k++ {
		v, err := i.Mem.ReadCell(header + 1 + k)
		if err != nil {
			t.Fatal(err)
		}
		if Float(v) != 9 {
			t.Fatalf("element %d after store = %v, want 9", k, Float(v))
		}
	}
}

func TestLoadMaterializesList(t *testing.T) {
	i := newTestInstance()
	pushList(t, i, 11, 22)
	ref, err := i.transfer(i.global)
	if err != nil {
		t.Fatal(err)
	}
	if err := i.Push(ref); err != nil {
		t.Fatal(err)
	}
	if err := i.load(); err != nil {
		t.Fatal(err)
	}
	_, n, _, err := i.listBounds()
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Fatalf("loaded length = %d, want 2", n)
	}
}
