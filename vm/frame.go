package vm

// call pushes the current (already-advanced) IP and BP onto the return
// stack, then transfers control to target. retAddr is the byte address
// execution resumes at once the callee returns — callers must advance IP
// past the call's own encoding before invoking call.
func (i *Instance) call(retAddr, target int) error {
	if err := i.ret.push(i.Mem, Value(uint32(retAddr))); err != nil {
		return err
	}
	if err := i.ret.push(i.Mem, Value(uint32(i.BP))); err != nil {
		return err
	}
	i.BP = i.ret.cursor
	i.IP = target
	return nil
}

// doReturn tears down the active frame's locals, then restores the caller's
// BP and IP: RP <- BP, pop BP, pop IP.
func (i *Instance) doReturn() error {
	i.ret.cursor = i.BP
	bpVal, err := i.ret.pop(i.Mem, i.ret.base)
	if err != nil {
		return err
	}
	ipVal, err := i.ret.pop(i.Mem, i.ret.base)
	if err != nil {
		return err
	}
	i.BP = int(uint32(bpVal))
	i.IP = int(uint32(ipVal))
	return nil
}

// reserveLocals advances RP by n cells, initializing each fresh slot to
// SENTINEL_NIL, per the reserve_locals prologue opcode.
func (i *Instance) reserveLocals(n int) error {
	for k := 0; k < n; k++ {
		if err := i.ret.push(i.Mem, SentinelNil); err != nil {
			return err
		}
	}
	return nil
}

// varRef produces a REF to local slot index within the active frame.
func (i *Instance) varRef(slot int) Value {
	return MakeRef(i.BP + slot)
}
