package dict

import (
	"testing"

	"github.com/jhlagado/ts-tacitus-sub002/vm"
)

func TestDefineLookupShadowing(t *testing.T) {
	d := New()
	d.Define("x", vm.FromInt(1), false)
	d.Define("x", vm.FromInt(2), false)
	v, ok := d.Lookup("x")
	if !ok {
		t.Fatal("lookup(x) not found")
	}
	if vm.Float(v) != 2 {
		t.Fatalf("lookup(x) = %v, want most recent binding 2", vm.Float(v))
	}
}

func TestLookupMissing(t *testing.T) {
	d := New()
	if _, ok := d.Lookup("nope"); ok {
		t.Fatal("lookup of undefined name should fail")
	}
}

func TestFindEntryImmediateFlag(t *testing.T) {
	d := New()
	d.Define("if", vm.Encode(0, vm.CODE), true)
	_, immediate, ok := d.FindEntry("if")
	if !ok || !immediate {
		t.Fatalf("FindEntry(if) = (_, %v, %v), want (_, true, true)", immediate, ok)
	}
}

func TestMarkForget(t *testing.T) {
	d := New()
	d.Define("a", vm.FromInt(1), false)
	cp := d.Mark()
	d.Define("b", vm.FromInt(2), false)
	d.Define("c", vm.FromInt(3), false)
	if d.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", d.Len())
	}
	d.Forget(cp)
	if d.Len() != 1 {
		t.Fatalf("Len() after forget = %d, want 1", d.Len())
	}
	if _, ok := d.Lookup("b"); ok {
		t.Fatal("b should be forgotten")
	}
	if _, ok := d.Lookup("a"); !ok {
		t.Fatal("a should survive forget")
	}
}
