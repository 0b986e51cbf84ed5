package vm

import "testing"

func TestCallReturnRestoresIPAndBP(t *testing.T) {
	i := newTestInstance()
	i.IP = 200
	i.BP = 0

	savedIP, savedBP := i.IP, i.BP
	if err := i.call(savedIP, 9000); err != nil {
		t.Fatal(err)
	}
	if i.IP != 9000 {
		t.Fatalf("IP after call = %d, want 9000", i.IP)
	}
	if i.BP != i.ret.cursor {
		t.Fatalf("BP after call = %d, want %d", i.BP, i.ret.cursor)
	}
	if err := i.reserveLocals(2); err != nil {
		t.Fatal(err)
	}
	if i.ret.depth(i.BP) != 2 {
		t.Fatalf("locals depth = %d, want 2", i.ret.depth(i.BP))
	}
	ref := i.varRef(1)
	cell, ok := RefCell(ref)
	if !ok || cell != i.BP+1 {
		t.Fatalf("varRef(1) = %v, want REF(%d)", ref, i.BP+1)
	}

	if err := i.doReturn(); err != nil {
		t.Fatal(err)
	}
	if i.IP != savedIP || i.BP != savedBP {
		t.Fatalf("after return: IP=%d BP=%d, want IP=%d BP=%d", i.IP, i.BP, savedIP, savedBP)
	}
}

func TestReserveLocalsInitializesSentinel(t *testing.T) {
	i := newTestInstance()
	if err := i.reserveLocals(3); err != nil {
		t.Fatal(err)
	}
	for k := 0; k < 3; k++ {
		v, err := i.Mem.ReadCell(i.ret.base + k)
		if err != nil {
			t.Fatal(err)
		}
		if v != SentinelNil {
			t.Fatalf("local slot %d = %v, want SENTINEL_NIL", k, v)
		}
	}
}
