package vm

import "github.com/jhlagado/ts-tacitus-sub002/errs"

// globalRef pops an offset and pushes a REF to that cell index within the
// global heap region (offset is relative to GlobalBaseCell).
func (i *Instance) globalRef() error {
	offVal, err := i.data.pop(i.Mem, i.data.base)
	if err != nil {
		return err
	}
	off := int(numberOrInt(offVal))
	cell := GlobalBaseCell + off
	if r, ok := AreaOf(cell); !ok || r != RegionGlobal {
		return errs.New(errs.MemoryBounds, "global_ref").WithIndex(cell)
	}
	return i.data.push(i.Mem, MakeRef(cell))
}

// fetch pops a REF and pushes the single raw cell it addresses.
func (i *Instance) fetch() error {
	refVal, err := i.data.pop(i.Mem, i.data.base)
	if err != nil {
		return err
	}
	cell, ok := RefCell(refVal)
	if !ok {
		return errs.New(errs.TypeError, "fetch").WithName(GetTag(refVal).String())
	}
	v, err := i.Mem.ReadCell(cell)
	if err != nil {
		return err
	}
	return i.data.push(i.Mem, v)
}

// store pops a value and a REF (value on top, per the concatenative
// "ref value store" call convention) and writes the value into the cell the
// REF addresses. When the value is a whole list (its top-of-stack cell is a
// LINK footer), the store is a whole-block operation: the LIST header
// beneath the footer must carry the same slot count as the occupant LIST
// header, and the header plus every element is copied over; any other
// occupant accepts any single-cell value, and a LIST-headed occupant rejects
// a non-list or differently-sized value outright.
func (i *Instance) store() error {
	top, err := i.data.peek(i.Mem, i.data.base, 0)
	if err != nil {
		return err
	}
	if nt, np := Decode(top); nt == LINK {
		footer := i.data.cursor - 1
		header := footer - int(np)
		refIdx := header - 1
		if refIdx < i.data.base {
			return errs.New(errs.StackUnderflow, "store").WithIndex(refIdx)
		}
		srcHeader, err := i.Mem.ReadCell(header)
		if err != nil {
			return err
		}
		st, sn := Decode(srcHeader)
		if st != LIST {
			return errs.New(errs.MalformedList, "store").WithIndex(header)
		}
		refVal, err := i.Mem.ReadCell(refIdx)
		if err != nil {
			return err
		}
		cell, ok := RefCell(refVal)
		if !ok {
			return errs.New(errs.TypeError, "store").WithName(GetTag(refVal).String())
		}
		occupant, err := i.Mem.ReadCell(cell)
		if err != nil {
			return err
		}
		if ot, op := Decode(occupant); ot != LIST || op != sn {
			return errs.New(errs.IncompatibleStore, "store").WithIndex(cell)
		}
		for k := int32(0); k <= sn; k++ {
			v, err := i.Mem.ReadCell(header + int(k))
			if err != nil {
				return err
			}
			if err := i.Mem.WriteCell(cell+int(k), v); err != nil {
				return err
			}
		}
		i.data.cursor = refIdx
		return nil
	}
	newVal, err := i.data.pop(i.Mem, i.data.base)
	if err != nil {
		return err
	}
	refVal, err := i.data.pop(i.Mem, i.data.base)
	if err != nil {
		return err
	}
	cell, ok := RefCell(refVal)
	if !ok {
		return errs.New(errs.TypeError, "store").WithName(GetTag(refVal).String())
	}
	occupant, err := i.Mem.ReadCell(cell)
	if err != nil {
		return err
	}
	if ot, _ := Decode(occupant); ot == LIST {
		return errs.New(errs.IncompatibleStore, "store").WithIndex(cell)
	}
	return i.Mem.WriteCell(cell, newVal)
}

// load pops a REF to a LIST header and materializes the full structure
// (header, elements, and a fresh LINK footer) onto the data stack, the
// inverse of transfer.
func (i *Instance) load() error {
	refVal, err := i.data.pop(i.Mem, i.data.base)
	if err != nil {
		return err
	}
	cell, ok := RefCell(refVal)
	if !ok {
		return errs.New(errs.TypeError, "load").WithName(GetTag(refVal).String())
	}
	header, err := i.Mem.ReadCell(cell)
	if err != nil {
		return err
	}
	t, n := Decode(header)
	if t != LIST {
		return errs.New(errs.TypeError, "load").WithName(t.String())
	}
	if err := i.data.ensure(i.data.base, 0, "load"); err != nil {
		return err
	}
	if err := i.data.push(i.Mem, header); err != nil {
		return err
	}
	for k := int32(0); k < n; k++ {
		v, err := i.Mem.ReadCell(cell + 1 + int(k))
		if err != nil {
			return err
		}
		if err := i.data.push(i.Mem, v); err != nil {
			return err
		}
	}
	return i.data.push(i.Mem, Encode(n+1, LINK))
}
