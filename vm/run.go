package vm

import "github.com/jhlagado/ts-tacitus-sub002/errs"

// Run executes the fetch-decode-dispatch loop starting at IP (defaulting to
// 128, the first byte past the reserved builtin-opcode prologue, if IP is
// still zero) until it executes OpBye or hits an error. Any panic raised by
// a Memory bounds failure deep in a helper is recovered here and reported as
// a structured *errs.Error, the way the teacher's core interpreter turns Go
// runtime faults into VM-level faults.
func (i *Instance) Run() (err error) {
	if i.IP == 0 {
		i.IP = MaxBuiltin
	}
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = i.fail(e)
				return
			}
			err = i.fail(errs.New(errs.MemoryBounds, "run"))
		}
	}()
	for {
		isCall, opOrTarget, err := i.fetchOpcode()
		if err != nil {
			return i.fail(err)
		}
		if !isCall && Opcode(opOrTarget) == OpBye {
			return nil
		}
		if isCall {
			err = i.call(i.IP, opOrTarget)
		} else {
			err = i.executeBuiltin(Opcode(opOrTarget))
		}
		if err != nil {
			return i.fail(err)
		}
		i.insCount++
	}
}

// fetchOpcode reads one instruction at IP, per §6.1: a byte with the high
// bit clear (0..127) selects a builtin opcode directly; a byte with the high
// bit set, combined with the next byte, addresses a 15-bit user call target.
// The extended form is little-endian: byte 1 holds 0x80|(addr&0x7F) (the
// low 7 bits), byte 2 holds (addr>>7)&0xFF (the high 8 bits). A call target
// can exceed what an Opcode (uint8) holds, so it is returned separately
// rather than folded into the Opcode range.
func (i *Instance) fetchOpcode() (isCall bool, opOrTarget int, err error) {
	b, err := i.Mem.ReadU8(i.IP)
	if err != nil {
		return false, 0, err
	}
	if b&0x80 == 0 {
		i.IP++
		return false, int(b), nil
	}
	hi, err := i.Mem.ReadU8(i.IP + 1)
	if err != nil {
		return false, 0, err
	}
	target := int(b&0x7F) | (int(hi) << 7)
	i.IP += 2
	return true, target, nil
}

// executeBuiltin dispatches a single builtin opcode. It is shared between
// the main loop and eval, which resolves a CODE value to either a builtin or
// a user call at runtime rather than compile time.
func (i *Instance) executeBuiltin(op Opcode) error {
	switch op {
	case OpNop:
		return nil

	case OpLitNumber:
		bits, err := i.Mem.ReadU16(i.IP)
		if err != nil {
			return err
		}
		hi, err := i.Mem.ReadU16(i.IP + 2)
		if err != nil {
			return err
		}
		i.IP += 4
		return i.data.push(i.Mem, Value(uint32(bits)|uint32(hi)<<16))

	case OpLitI16:
		n, err := i.Mem.ReadI16(i.IP)
		if err != nil {
			return err
		}
		i.IP += 2
		return i.data.push(i.Mem, Encode(int32(n), INTEGER))

	case OpLitCode:
		n, err := i.Mem.ReadU16(i.IP)
		if err != nil {
			return err
		}
		i.IP += 2
		return i.data.push(i.Mem, Encode(int32(n), CODE))

	case OpLitString:
		n, err := i.Mem.ReadU16(i.IP)
		if err != nil {
			return err
		}
		i.IP += 2
		return i.data.push(i.Mem, Encode(int32(n), STRING))

	case OpBranch:
		off, err := i.Mem.ReadI16(i.IP)
		if err != nil {
			return err
		}
		i.IP += 2
		i.IP += int(off)
		return nil

	case OpBranchIfZero:
		off, err := i.Mem.ReadI16(i.IP)
		if err != nil {
			return err
		}
		i.IP += 2
		base := i.IP
		v, err := i.data.pop(i.Mem, i.data.base)
		if err != nil {
			return err
		}
		if IsFalsy(v) {
			i.IP = base + int(off)
		}
		return nil

	case OpReserveLocals:
		n, err := i.Mem.ReadU8(i.IP)
		if err != nil {
			return err
		}
		i.IP++
		return i.reserveLocals(int(n))

	case OpSlotLoad:
		n, err := i.Mem.ReadU8(i.IP)
		if err != nil {
			return err
		}
		i.IP++
		v, err := i.Mem.ReadCell(i.BP + int(n))
		if err != nil {
			return err
		}
		return i.data.push(i.Mem, v)

	case OpSlotStore:
		n, err := i.Mem.ReadU8(i.IP)
		if err != nil {
			return err
		}
		i.IP++
		v, err := i.data.pop(i.Mem, i.data.base)
		if err != nil {
			return err
		}
		return i.Mem.WriteCell(i.BP+int(n), v)

	case OpReturn:
		return i.doReturn()

	case OpEval:
		return i.eval()

	case OpDup:
		return i.listDup()
	case OpDrop:
		return i.listDrop()
	case OpSwap:
		return i.listSwap()

	case OpOpenList:
		return i.openList()
	case OpCloseList:
		return i.closeList()
	case OpLength:
		return i.length()
	case OpListSlot:
		return i.listSlot()
	case OpElem:
		return i.elem()
	case OpHead:
		return i.head()
	case OpTail:
		return i.tail()
	case OpReverse:
		return i.reverse()
	case OpConcat:
		return i.concat()
	case OpPack:
		return i.pack()
	case OpUnpack:
		return i.unpack()

	case OpVarRef:
		n, err := i.Mem.ReadU8(i.IP)
		if err != nil {
			return err
		}
		i.IP++
		return i.data.push(i.Mem, i.varRef(int(n)))

	case OpGlobalRef:
		return i.globalRef()
	case OpFetch:
		return i.fetch()
	case OpStore:
		return i.store()
	case OpLoad:
		return i.load()

	case OpTransferData:
		ref, err := i.transfer(i.data)
		if err != nil {
			return err
		}
		return i.data.push(i.Mem, ref)
	case OpTransferReturn:
		ref, err := i.transfer(i.ret)
		if err != nil {
			return err
		}
		return i.data.push(i.Mem, ref)
	case OpTransferGlobal:
		ref, err := i.transfer(i.global)
		if err != nil {
			return err
		}
		return i.data.push(i.Mem, ref)

	case OpAdd, OpSub, OpMul, OpDiv, OpMod, OpLt, OpGt, OpEq:
		return i.arith(op)

	default:
		return errs.New(errs.InvalidOpcode, op.String()).WithIndex(int(op))
	}
}

// eval pops a CODE value and performs the call or builtin dispatch it
// addresses: payloads below MaxBuiltin are builtins, executed directly;
// higher payloads are user bytecode addresses, invoked with the same
// call/return convention as a compiled-in extended call.
func (i *Instance) eval() error {
	v, err := i.data.pop(i.Mem, i.data.base)
	if err != nil {
		return err
	}
	t, p := Decode(v)
	if t != CODE {
		return errs.New(errs.TypeError, "eval").WithName(t.String())
	}
	if int(p) < MaxBuiltin {
		return i.executeBuiltin(Opcode(p))
	}
	return i.call(i.IP, int(p))
}

// arith pops two NUMBER operands and pushes the result of the requested
// arithmetic or comparison opcode. These opcodes exist so the interpreter
// can execute self-contained bytecode programs end to end; the language
// frontend's own arithmetic words are expected to compile down to them.
func (i *Instance) arith(op Opcode) error {
	b, err := i.data.pop(i.Mem, i.data.base)
	if err != nil {
		return err
	}
	a, err := i.data.pop(i.Mem, i.data.base)
	if err != nil {
		return err
	}
	if !IsNumber(a) || !IsNumber(b) {
		return errs.New(errs.TypeError, op.String())
	}
	x, y := Float(a), Float(b)
	switch op {
	case OpAdd:
		return i.data.push(i.Mem, FromFloat(x+y))
	case OpSub:
		return i.data.push(i.Mem, FromFloat(x-y))
	case OpMul:
		return i.data.push(i.Mem, FromFloat(x*y))
	case OpDiv:
		if y == 0 {
			return errs.New(errs.TypeError, "/").WithName("division by zero")
		}
		return i.data.push(i.Mem, FromFloat(x/y))
	case OpMod:
		if y == 0 {
			return errs.New(errs.TypeError, "mod").WithName("division by zero")
		}
		return i.data.push(i.Mem, FromFloat(float32(int32(x)%int32(y))))
	case OpLt:
		return i.data.push(i.Mem, boolValue(x < y))
	case OpGt:
		return i.data.push(i.Mem, boolValue(x > y))
	case OpEq:
		return i.data.push(i.Mem, boolValue(x == y))
	}
	return nil
}

func boolValue(b bool) Value {
	if b {
		return FromInt(1)
	}
	return Encode(0, INTEGER)
}
