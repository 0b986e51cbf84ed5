// Package compiler emits bytecode into a vm.Memory's code segment: opcodes,
// inline immediates, literal pushes, extended calls, and patched branches,
// plus the per-definition local-slot bookkeeping that resolves names to
// either a local slot or a dictionary entry.
package compiler

import (
	"github.com/jhlagado/ts-tacitus-sub002/errs"
	"github.com/jhlagado/ts-tacitus-sub002/vm"
)

// reservedPrologue is how many bytes of the code segment are reserved before
// the first user definition may be placed, so that every builtin opcode
// value (0..MaxBuiltin-1) can never collide with a user call address.
const reservedPrologue = vm.MaxBuiltin

// Compiler accumulates bytecode into mem, tracking the compile pointer and
// the open local-variable scopes; branch patches are handed back to the
// caller as Patch values. The zero value is not usable; use New.
type Compiler struct {
	mem    *vm.Memory
	pc     int
	scopes []scope
}

// scope tracks the local-variable table for one in-progress definition.
type scope struct {
	locals map[string]int
	next   int
}

// Patch records a forward or backward branch whose 16-bit offset immediate
// is filled in once the destination address is known.
type Patch struct {
	addr int // byte address of the 16-bit offset immediate
}

// New returns a Compiler that emits into mem starting at the reserved
// prologue boundary.
func New(mem *vm.Memory) *Compiler {
	return &Compiler{mem: mem, pc: reservedPrologue}
}

// Here returns the current compile address, e.g. to remember a definition's
// entry point for the dictionary.
func (c *Compiler) Here() int { return c.pc }

// EmitOpcode emits a single builtin opcode byte.
func (c *Compiler) EmitOpcode(op vm.Opcode) error {
	if err := c.mem.WriteU8(c.pc, uint8(op)); err != nil {
		return err
	}
	c.pc++
	return nil
}

// EmitCall emits the two-byte extended call form addressing target, per
// §6.1: byte 1 is 0x80|(target&0x7F), byte 2 is (target>>7)&0xFF.
func (c *Compiler) EmitCall(target int) error {
	if target < 0 || target > 0x7FFF {
		return errs.New(errs.InvalidOpcode, "emit_call").WithIndex(target)
	}
	b1 := uint8(0x80 | target&0x7F)
	b2 := uint8((target >> 7) & 0xFF)
	if err := c.mem.WriteU8(c.pc, b1); err != nil {
		return err
	}
	if err := c.mem.WriteU8(c.pc+1, b2); err != nil {
		return err
	}
	c.pc += 2
	return nil
}

// EmitU8 emits one raw byte immediate.
func (c *Compiler) EmitU8(v uint8) error {
	if err := c.mem.WriteU8(c.pc, v); err != nil {
		return err
	}
	c.pc++
	return nil
}

// EmitI16 emits a little-endian signed 16-bit immediate.
func (c *Compiler) EmitI16(v int16) error {
	if err := c.mem.WriteI16(c.pc, v); err != nil {
		return err
	}
	c.pc += 2
	return nil
}

// EmitU16 emits a little-endian unsigned 16-bit immediate.
func (c *Compiler) EmitU16(v uint16) error {
	if err := c.mem.WriteU16(c.pc, v); err != nil {
		return err
	}
	c.pc += 2
	return nil
}

// EmitF32 emits a little-endian IEEE-754 single immediate.
func (c *Compiler) EmitF32(v float32) error {
	if err := c.mem.WriteF32(c.pc, v); err != nil {
		return err
	}
	c.pc += 4
	return nil
}

// EmitLiteral emits a literal push of a tagged value, choosing the most
// compact opcode: small integers use the 2-byte lit.i16 form, everything
// else the 4-byte lit form that carries the raw word.
func (c *Compiler) EmitLiteral(v vm.Value) error {
	if t, p := vm.Decode(v); t == vm.INTEGER {
		if err := c.EmitOpcode(vm.OpLitI16); err != nil {
			return err
		}
		return c.EmitI16(int16(p))
	}
	if err := c.EmitOpcode(vm.OpLitNumber); err != nil {
		return err
	}
	bits := uint32(v)
	if err := c.EmitU16(uint16(bits)); err != nil {
		return err
	}
	return c.EmitU16(uint16(bits >> 16))
}

// EmitBranch emits a branch opcode (or/branch_if_zero) with a placeholder
// offset, returning a Patch to resolve once the destination is known.
func (c *Compiler) EmitBranch(op vm.Opcode) (Patch, error) {
	if err := c.EmitOpcode(op); err != nil {
		return Patch{}, err
	}
	addr := c.pc
	if err := c.EmitI16(0); err != nil {
		return Patch{}, err
	}
	return Patch{addr: addr}, nil
}

// PatchHere resolves p's offset to the current compile address (a forward
// branch: the offset is relative to the byte immediately after the 16-bit
// immediate itself, matching how the interpreter computes its base).
func (c *Compiler) PatchHere(p Patch) error {
	return c.patchTo(p, c.pc)
}

// PatchTo resolves p's offset to an arbitrary destination address (a
// backward branch, e.g. the top of a while loop).
func (c *Compiler) PatchTo(p Patch, dest int) error {
	return c.patchTo(p, dest)
}

func (c *Compiler) patchTo(p Patch, dest int) error {
	base := p.addr + 2
	offset := dest - base
	if offset < -32768 || offset > 32767 {
		return errs.New(errs.InvalidOpcode, "patch").WithIndex(offset)
	}
	return c.mem.WriteI16(p.addr, int16(offset))
}

// PatchLocalCount overwrites the reserve_locals immediate byte at addr with
// n, once a definition's body has finished compiling and its local count is
// known.
func (c *Compiler) PatchLocalCount(addr, n int) error {
	if n < 0 || n > 255 {
		return errs.New(errs.InvalidOpcode, "patch_local_count").WithIndex(n)
	}
	return c.mem.WriteU8(addr, uint8(n))
}

// OpenScope begins a new definition's local-variable table.
func (c *Compiler) OpenScope() {
	c.scopes = append(c.scopes, scope{locals: make(map[string]int)})
}

// CloseScope ends the innermost definition and returns how many local slots
// it used, for the reserve_locals prologue the caller emits at the
// definition's entry point.
func (c *Compiler) CloseScope() int {
	n := len(c.scopes)
	s := c.scopes[n-1]
	c.scopes = c.scopes[:n-1]
	return s.next
}

// DeclareLocal allocates the next free slot in the innermost scope for name,
// returning its index.
func (c *Compiler) DeclareLocal(name string) int {
	s := &c.scopes[len(c.scopes)-1]
	slot := s.next
	s.locals[name] = slot
	s.next++
	return slot
}

// ResolveLocal reports whether name is bound to a local slot in the
// innermost open scope.
func (c *Compiler) ResolveLocal(name string) (slot int, ok bool) {
	if len(c.scopes) == 0 {
		return 0, false
	}
	slot, ok = c.scopes[len(c.scopes)-1].locals[name]
	return slot, ok
}

// InScope reports whether a definition is currently open.
func (c *Compiler) InScope() bool { return len(c.scopes) > 0 }
