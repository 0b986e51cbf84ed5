package compiler

import (
	"testing"

	"github.com/jhlagado/ts-tacitus-sub002/vm"
)

func TestEmitLiteralInteger(t *testing.T) {
	mem := vm.NewMemory()
	c := New(mem)
	start := c.Here()
	if err := c.EmitLiteral(vm.Encode(42, vm.INTEGER)); err != nil {
		t.Fatal(err)
	}
	op, err := mem.ReadU8(start)
	if err != nil {
		t.Fatal(err)
	}
	if vm.Opcode(op) != vm.OpLitI16 {
		t.Fatalf("opcode = %v, want OpLitI16", vm.Opcode(op))
	}
	n, err := mem.ReadI16(start + 1)
	if err != nil {
		t.Fatal(err)
	}
	if n != 42 {
		t.Fatalf("immediate = %d, want 42", n)
	}
}

func TestEmitCallRoundTrip(t *testing.T) {
	mem := vm.NewMemory()
	c := New(mem)
	start := c.Here()
	if err := c.EmitCall(300); err != nil {
		t.Fatal(err)
	}
	b1, err := mem.ReadU8(start)
	if err != nil {
		t.Fatal(err)
	}
	b2, err := mem.ReadU8(start + 1)
	if err != nil {
		t.Fatal(err)
	}
	if b1&0x80 == 0 {
		t.Fatal("expected extended-call high bit set")
	}
	target := int(b1&0x7F) | (int(b2) << 7)
	if target != 300 {
		t.Fatalf("decoded target = %d, want 300", target)
	}
}

func TestBranchPatchForward(t *testing.T) {
	mem := vm.NewMemory()
	c := New(mem)
	p, err := c.EmitBranch(vm.OpBranch)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.EmitOpcode(vm.OpNop); err != nil {
		t.Fatal(err)
	}
	dest := c.Here()
	if err := c.PatchHere(p); err != nil {
		t.Fatal(err)
	}
	off, err := mem.ReadI16(p.addr)
	if err != nil {
		t.Fatal(err)
	}
	if p.addr+2+int(off) != dest {
		t.Fatalf("patched destination = %d, want %d", p.addr+2+int(off), dest)
	}
}

func TestScopeLocals(t *testing.T) {
	mem := vm.NewMemory()
	c := New(mem)
	c.OpenScope()
	if slot := c.DeclareLocal("x"); slot != 0 {
		t.Fatalf("first local slot = %d, want 0", slot)
	}
	if slot := c.DeclareLocal("y"); slot != 1 {
		t.Fatalf("second local slot = %d, want 1", slot)
	}
	if slot, ok := c.ResolveLocal("x"); !ok || slot != 0 {
		t.Fatalf("ResolveLocal(x) = (%d, %v), want (0, true)", slot, ok)
	}
	n := c.CloseScope()
	if n != 2 {
		t.Fatalf("CloseScope() = %d, want 2", n)
	}
	if c.InScope() {
		t.Fatal("InScope() after CloseScope should be false")
	}
}
