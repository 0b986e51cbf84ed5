package vm

import "github.com/jhlagado/ts-tacitus-sub002/errs"

// openList begins a new list construction: it pushes a placeholder LIST(0)
// header onto the data stack and records its cell index on the return stack
// side-marker, per the open_list/close_list convention.
func (i *Instance) openList() error {
	header := i.data.cursor
	if err := i.data.push(i.Mem, Encode(0, LIST)); err != nil {
		return err
	}
	if err := i.ret.push(i.Mem, MakeRef(header)); err != nil {
		return err
	}
	i.listDepth++
	return nil
}

// closeList finishes the innermost open list: it computes the slot count
// from how far the data stack has grown since the header was placed,
// overwrites the header in place, and — only for the outermost list —
// appends the LINK footer that makes it a single stack-top unit.
func (i *Instance) closeList() error {
	if i.listDepth == 0 {
		return errs.New(errs.MalformedList, "close_list")
	}
	markerVal, err := i.ret.pop(i.Mem, i.ret.base)
	if err != nil {
		return errs.New(errs.MalformedList, "close_list")
	}
	header, ok := RefCell(markerVal)
	if !ok {
		return errs.New(errs.MalformedList, "close_list")
	}
	n := i.data.cursor - header - 1
	if n < 0 {
		return errs.New(errs.MalformedList, "close_list").WithIndex(n)
	}
	if err := i.Mem.WriteCell(header, Encode(int32(n), LIST)); err != nil {
		return err
	}
	i.listDepth--
	if i.listDepth == 0 {
		if err := i.data.push(i.Mem, Encode(int32(n+1), LINK)); err != nil {
			return err
		}
	}
	return nil
}

// topBlockSize returns the number of cells (including a LINK footer, when
// present) occupied by the value at the top of the data stack.
func (i *Instance) topBlockSize() (int, error) {
	top, err := i.data.peek(i.Mem, i.data.base, 0)
	if err != nil {
		return 0, err
	}
	if t, p := Decode(top); t == LINK {
		return int(p) + 1, nil
	}
	return 1, nil
}

// blockSizeAt is like topBlockSize but for the block whose top cell is at
// index topIdx (topIdx is itself part of the block).
func (i *Instance) blockSizeAt(topIdx int) (int, error) {
	v, err := i.Mem.ReadCell(topIdx)
	if err != nil {
		return 0, err
	}
	if t, p := Decode(v); t == LINK {
		return int(p) + 1, nil
	}
	return 1, nil
}

// listDup duplicates the stack top: a whole list block if top is a LINK
// footer, else a single scalar cell.
func (i *Instance) listDup() error {
	size, err := i.topBlockSize()
	if err != nil {
		return err
	}
	if err := i.data.ensure(i.data.base, size, "dup"); err != nil {
		return err
	}
	src := i.data.cursor - size
	for k := 0; k < size; k++ {
		v, err := i.Mem.ReadCell(src + k)
		if err != nil {
			return err
		}
		if err := i.data.push(i.Mem, v); err != nil {
			return err
		}
	}
	return nil
}

// listDrop discards the stack top as a whole unit.
func (i *Instance) listDrop() error {
	size, err := i.topBlockSize()
	if err != nil {
		return err
	}
	if i.data.cursor-size < i.data.base {
		return errs.New(errs.StackUnderflow, "drop")
	}
	i.data.cursor -= size
	return nil
}

// listSwap exchanges the top two stack items, each of which may be a scalar
// cell or a whole list block.
func (i *Instance) listSwap() error {
	topSize, err := i.topBlockSize()
	if err != nil {
		return err
	}
	secondTop := i.data.cursor - topSize - 1
	if secondTop < i.data.base {
		return errs.New(errs.StackUnderflow, "swap")
	}
	secondSize, err := i.blockSizeAt(secondTop)
	if err != nil {
		return err
	}
	start := i.data.cursor - topSize - secondSize
	if start < i.data.base {
		return errs.New(errs.StackUnderflow, "swap")
	}
	top := make([]Value, topSize)
	second := make([]Value, secondSize)
	for k := 0; k < secondSize; k++ {
		if second[k], err = i.Mem.ReadCell(start + k); err != nil {
			return err
		}
	}
	for k := 0; k < topSize; k++ {
		if top[k], err = i.Mem.ReadCell(start + secondSize + k); err != nil {
			return err
		}
	}
	pos := start
	for _, v := range top {
		if err := i.Mem.WriteCell(pos, v); err != nil {
			return err
		}
		pos++
	}
	for _, v := range second {
		if err := i.Mem.WriteCell(pos, v); err != nil {
			return err
		}
		pos++
	}
	return nil
}

// listBounds reads the header cell index, slot count N, and total block
// size (N+2, including the footer) of the list currently at the data stack
// top, without popping anything.
func (i *Instance) listBounds() (header, n, blockSize int, err error) {
	top, err := i.data.peek(i.Mem, i.data.base, 0)
	if err != nil {
		return 0, 0, 0, err
	}
	t, l := Decode(top)
	if t != LINK {
		return 0, 0, 0, errs.New(errs.TypeError, "list").WithName(t.String())
	}
	header = i.data.cursor - 1 - int(l)
	n = int(l) - 1
	return header, n, int(l) + 1, nil
}

// length consumes the list at the data stack top and pushes its slot count.
func (i *Instance) length() error {
	_, n, blockSize, err := i.listBounds()
	if err != nil {
		return err
	}
	i.data.cursor -= blockSize
	return i.data.push(i.Mem, FromInt(n))
}

// listSlot peeks the list under the top-of-stack index and pushes slot i's
// raw value, leaving the list in place.
func (i *Instance) listSlot() error {
	idxVal, err := i.data.pop(i.Mem, i.data.base)
	if err != nil {
		return err
	}
	idx := int(numberOrInt(idxVal))
	header, n, _, err := i.listBounds()
	if err != nil {
		return err
	}
	if idx < 0 || idx >= n {
		return errs.New(errs.IndexOutOfRange, "slot").WithIndex(idx)
	}
	v, err := i.Mem.ReadCell(header + 1 + idx)
	if err != nil {
		return err
	}
	return i.data.push(i.Mem, v)
}

// elem is listSlot, except a nested LIST slot yields a REF to that
// sublist's header rather than its raw header value.
func (i *Instance) elem() error {
	idxVal, err := i.data.pop(i.Mem, i.data.base)
	if err != nil {
		return err
	}
	idx := int(numberOrInt(idxVal))
	header, n, _, err := i.listBounds()
	if err != nil {
		return err
	}
	if idx < 0 || idx >= n {
		return errs.New(errs.IndexOutOfRange, "elem").WithIndex(idx)
	}
	cell := header + 1 + idx
	v, err := i.Mem.ReadCell(cell)
	if err != nil {
		return err
	}
	if IsTag(v, LIST) {
		return i.data.push(i.Mem, MakeRef(cell))
	}
	return i.data.push(i.Mem, v)
}

// head pushes the first element (or a REF to it, if it's a nested list),
// leaving the list in place.
func (i *Instance) head() error {
	_, n, _, err := i.listBounds()
	if err != nil {
		return err
	}
	if n == 0 {
		return errs.New(errs.IndexOutOfRange, "head").WithIndex(0)
	}
	if err := i.data.push(i.Mem, FromInt(0)); err != nil {
		return err
	}
	return i.elem()
}

// tail consumes the list at the top and pushes a new list of its slots
// 1..N-1, built by copy.
func (i *Instance) tail() error {
	header, n, blockSize, err := i.listBounds()
	if err != nil {
		return err
	}
	if n == 0 {
		return errs.New(errs.IndexOutOfRange, "tail").WithIndex(0)
	}
	newN := n - 1
	i.data.cursor -= blockSize
	base := i.data.cursor
	if err := i.data.ensure(i.data.base, 0, "tail"); err != nil {
		return err
	}
	if err := i.Mem.WriteCell(base, Encode(int32(newN), LIST)); err != nil {
		return err
	}
	for k := 0; k < newN; k++ {
		v, err := i.Mem.ReadCell(header + 2 + k)
		if err != nil {
			return err
		}
		if err := i.Mem.WriteCell(base+1+k, v); err != nil {
			return err
		}
	}
	i.data.cursor = base + 1 + newN
	return i.data.push(i.Mem, Encode(int32(newN+1), LINK))
}

// reverse reverses the element range of the list at the top, in place.
func (i *Instance) reverse() error {
	header, n, _, err := i.listBounds()
	if err != nil {
		return err
	}
	for k := 0; k < n/2; k++ {
		a, err := i.Mem.ReadCell(header + 1 + k)
		if err != nil {
			return err
		}
		b, err := i.Mem.ReadCell(header + n - k)
		if err != nil {
			return err
		}
		if err := i.Mem.WriteCell(header+1+k, b); err != nil {
			return err
		}
		if err := i.Mem.WriteCell(header+n-k, a); err != nil {
			return err
		}
	}
	return nil
}

// concat consumes two lists (b on top of a) and pushes a new list of size
// Na+Nb, built by copy.
func (i *Instance) concat() error {
	headerB, nb, blockB, err := i.listBounds()
	if err != nil {
		return err
	}
	valsB := make([]Value, nb)
	for k := 0; k < nb; k++ {
		if valsB[k], err = i.Mem.ReadCell(headerB + 1 + k); err != nil {
			return err
		}
	}
	i.data.cursor -= blockB
	headerA, na, blockA, err := i.listBounds()
	if err != nil {
		return err
	}
	valsA := make([]Value, na)
	for k := 0; k < na; k++ {
		if valsA[k], err = i.Mem.ReadCell(headerA + 1 + k); err != nil {
			return err
		}
	}
	i.data.cursor -= blockA
	base := headerA
	n := na + nb
	pos := base
	if err := i.Mem.WriteCell(pos, Encode(int32(n), LIST)); err != nil {
		return err
	}
	pos++
	for _, v := range valsA {
		if err := i.Mem.WriteCell(pos, v); err != nil {
			return err
		}
		pos++
	}
	for _, v := range valsB {
		if err := i.Mem.WriteCell(pos, v); err != nil {
			return err
		}
		pos++
	}
	if err := i.Mem.WriteCell(pos, Encode(int32(n+1), LINK)); err != nil {
		return err
	}
	i.data.cursor = pos + 1
	return nil
}

// pack consumes a count popped from the top, then that many scalar cells
// below it, and wraps them as a list of that size with a footer.
func (i *Instance) pack() error {
	countVal, err := i.data.pop(i.Mem, i.data.base)
	if err != nil {
		return err
	}
	n := int(numberOrInt(countVal))
	if n < 0 {
		return errs.New(errs.IndexOutOfRange, "pack").WithIndex(n)
	}
	if err := i.data.ensure(i.data.base, n, "pack"); err != nil {
		return err
	}
	base := i.data.cursor - n
	for k := n - 1; k >= 0; k-- {
		v, err := i.Mem.ReadCell(base + k)
		if err != nil {
			return err
		}
		if err := i.Mem.WriteCell(base+1+k, v); err != nil {
			return err
		}
	}
	if err := i.Mem.WriteCell(base, Encode(int32(n), LIST)); err != nil {
		return err
	}
	i.data.cursor = base + 1 + n
	return i.data.push(i.Mem, Encode(int32(n+1), LINK))
}

// unpack consumes the list at the top and pushes each of its slots in
// order, dropping the header and footer.
func (i *Instance) unpack() error {
	header, n, blockSize, err := i.listBounds()
	if err != nil {
		return err
	}
	for k := 0; k < n; k++ {
		v, err := i.Mem.ReadCell(header + 1 + k)
		if err != nil {
			return err
		}
		if err := i.Mem.WriteCell(header+k, v); err != nil {
			return err
		}
	}
	i.data.cursor = header + n
	_ = blockSize
	return nil
}

// transfer moves the list at the data stack top into region dst, omitting
// the LINK footer when dst is the global heap (globals are not stack-top
// structures), and returns a REF to the destination header cell.
func (i *Instance) transfer(dst *stack) (Value, error) {
	header, n, blockSize, err := i.listBounds()
	if err != nil {
		return 0, err
	}
	vals := make([]Value, n+1) // header + elements
	for k := 0; k <= n; k++ {
		if vals[k], err = i.Mem.ReadCell(header + k); err != nil {
			return 0, err
		}
	}
	i.data.cursor -= blockSize
	destHeader := dst.cursor
	for _, v := range vals {
		if err := dst.push(i.Mem, v); err != nil {
			return 0, err
		}
	}
	if dst.region != RegionGlobal {
		if err := dst.push(i.Mem, Encode(int32(n+1), LINK)); err != nil {
			return 0, err
		}
	}
	return MakeRef(destHeader), nil
}

// numberOrInt extracts an integral index from a NUMBER or INTEGER tagged
// value, for operations like slot/elem/pack that take an index argument.
func numberOrInt(v Value) int32 {
	t, p := Decode(v)
	if t == INTEGER {
		return p
	}
	return int32(Float(v))
}
