package vm

import (
	"testing"

	"github.com/jhlagado/ts-tacitus-sub002/errs"
)

func TestStackPushPopPeek(t *testing.T) {
	mem := NewMemory()
	s := newStack(RegionData)
	if err := s.push(mem, FromInt(1)); err != nil {
		t.Fatal(err)
	}
	if err := s.push(mem, FromInt(2)); err != nil {
		t.Fatal(err)
	}
	if d := s.depth(s.base); d != 2 {
		t.Fatalf("depth = %d, want 2", d)
	}
	top, err := s.peek(mem, s.base, 0)
	if err != nil {
		t.Fatal(err)
	}
	if Float(top) != 2 {
		t.Fatalf("peek top = %v, want 2", Float(top))
	}
	v, err := s.pop(mem, s.base)
	if err != nil {
		t.Fatal(err)
	}
	if Float(v) != 2 {
		t.Fatalf("pop = %v, want 2", Float(v))
	}
	if d := s.depth(s.base); d != 1 {
		t.Fatalf("depth after pop = %d, want 1", d)
	}
}

func TestStackUnderflow(t *testing.T) {
	mem := NewMemory()
	s := newStack(RegionData)
	if _, err := s.pop(mem, s.base); !errs.Is(err, errs.StackUnderflow) {
		t.Fatalf("pop on empty stack: got %v, want STACK_UNDERFLOW", err)
	}
}

func TestReturnStackUnderflowKind(t *testing.T) {
	mem := NewMemory()
	s := newStack(RegionReturn)
	if _, err := s.pop(mem, s.base); !errs.Is(err, errs.RStackUnderflow) {
		t.Fatalf("pop on empty return stack: got %v, want RSTACK_UNDERFLOW", err)
	}
}

func TestStackOverflow(t *testing.T) {
	mem := NewMemory()
	s := newStack(RegionData)
	for s.cursor < s.limit {
		if err := s.push(mem, FromInt(0)); err != nil {
			t.Fatalf("unexpected error before overflow: %v", err)
		}
	}
	if err := s.push(mem, FromInt(0)); !errs.Is(err, errs.StackOverflow) {
		t.Fatalf("push on full stack: got %v, want STACK_OVERFLOW", err)
	}
}

func TestAreaOf(t *testing.T) {
	cases := []struct {
		cell int
		want Region
		ok   bool
	}{
		{StackBaseCell, RegionData, true},
		{StackBaseCell + DataSizeCells - 1, RegionData, true},
		{RStackBaseCell, RegionReturn, true},
		{GlobalBaseCell, RegionGlobal, true},
		{NumCells - 1, RegionGlobal, true},
		{CodeBaseCell, 0, false},
		{-1, 0, false},
	}
	for _, c := range cases {
		got, ok := AreaOf(c.cell)
		if ok != c.ok || (ok && got != c.want) {
			t.Errorf("AreaOf(%d) = (%v, %v), want (%v, %v)", c.cell, got, ok, c.want, c.ok)
		}
	}
}
