package vm

// MakeRef encodes a cell index as a REF tagged value. The payload is the
// cell index itself; the owning region is recovered later via AreaOf.
func MakeRef(cell int) Value {
	return Encode(int32(cell), REF)
}

// RefCell extracts the cell index carried by a REF value. ok is false if v
// does not decode as a REF.
func RefCell(v Value) (cell int, ok bool) {
	t, p := Decode(v)
	if t != REF {
		return 0, false
	}
	return int(p), true
}

// RefArea classifies a REF by the region its cell index falls in.
func RefArea(v Value) (Region, bool) {
	cell, ok := RefCell(v)
	if !ok {
		return 0, false
	}
	return AreaOf(cell)
}
