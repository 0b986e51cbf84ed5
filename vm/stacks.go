package vm

import "github.com/jhlagado/ts-tacitus-sub002/errs"

// Region identifies one of the three stack areas overlaid on Memory.
type Region int

// The three stack regions, plus the code segment (never addressed as a
// Region by push/pop, but part of the same cell-index space for REF
// classification).
const (
	RegionData Region = iota
	RegionReturn
	RegionGlobal
)

// Segment layout, in cells, per the persisted-state table: code, then data
// stack, then return stack, then global heap, ascending. REF area
// classification (§3.3) uses the same three boundary cells.
const (
	CodeBaseCell = 0
	CodeSizeCells = 8192

	StackBaseCell = CodeBaseCell + CodeSizeCells // 8192
	DataSizeCells = 2048

	RStackBaseCell = StackBaseCell + DataSizeCells // 10240
	ReturnSizeCells = 2048

	GlobalBaseCell = RStackBaseCell + ReturnSizeCells // 12288
	GlobalSizeCells = NumCells - GlobalBaseCell        // 4096
)

// regionBounds returns the [base, limit) cell range of a region.
func regionBounds(r Region) (base, limit int) {
	switch r {
	case RegionData:
		return StackBaseCell, StackBaseCell + DataSizeCells
	case RegionReturn:
		return RStackBaseCell, RStackBaseCell + ReturnSizeCells
	case RegionGlobal:
		return GlobalBaseCell, GlobalBaseCell + GlobalSizeCells
	default:
		panic("vm: invalid region")
	}
}

func (r Region) String() string {
	switch r {
	case RegionData:
		return "data"
	case RegionReturn:
		return "return"
	case RegionGlobal:
		return "global"
	default:
		return "region(?)"
	}
}

// AreaOf classifies a cell index into the region it falls within, per the
// REF area-classification rule. It returns false if cell falls in the code
// segment or outside memory entirely (no stack region owns it).
func AreaOf(cell int) (Region, bool) {
	switch {
	case cell >= StackBaseCell && cell < RStackBaseCell:
		return RegionData, true
	case cell >= RStackBaseCell && cell < GlobalBaseCell:
		return RegionReturn, true
	case cell >= GlobalBaseCell && cell < NumCells:
		return RegionGlobal, true
	default:
		return 0, false
	}
}

// stack is a cursor into one region of Memory. cursor is the cell index of
// the next free slot (i.e. depth = cursor - base).
type stack struct {
	region Region
	base   int
	limit  int
	cursor int
}

func newStack(r Region) *stack {
	base, limit := regionBounds(r)
	return &stack{region: r, base: base, limit: limit, cursor: base}
}

// depth returns the number of cells currently in use, relative to floor.
func (s *stack) depth(floor int) int {
	return s.cursor - floor
}

// push writes v at the cursor and advances it, failing STACK_OVERFLOW (or
// RSTACK_OVERFLOW for the return region) if the region is full.
func (s *stack) push(m *Memory, v Value) error {
	if s.cursor >= s.limit {
		return errs.New(s.overflowKind(), "push").WithIndex(s.cursor)
	}
	if err := m.WriteCell(s.cursor, v); err != nil {
		return err
	}
	s.cursor++
	return nil
}

// pop retreats the cursor and returns the cell it vacates, failing underflow
// if cursor is already at floor (the region base, or the active frame's base
// for the return/data stacks during a call body).
func (s *stack) pop(m *Memory, floor int) (Value, error) {
	if s.cursor <= floor {
		return 0, errs.New(s.underflowKind(), "pop").WithIndex(s.cursor)
	}
	s.cursor--
	return m.ReadCell(s.cursor)
}

// peek performs a non-destructive read offset cells below the current top
// (offset 0 = top of stack).
func (s *stack) peek(m *Memory, floor, offset int) (Value, error) {
	idx := s.cursor - 1 - offset
	if idx < floor || idx >= s.cursor {
		return 0, errs.New(s.underflowKind(), "peek").WithIndex(idx)
	}
	return m.ReadCell(idx)
}

// ensure fails with the region's underflow kind unless at least n cells are
// available above floor; it is the precondition helper operations call
// before touching the stack, so that error context names the caller's op.
func (s *stack) ensure(floor, n int, op string) error {
	if s.cursor-floor < n {
		return errs.New(s.underflowKind(), op).WithIndex(s.cursor)
	}
	return nil
}

func (s *stack) overflowKind() errs.Kind {
	if s.region == RegionReturn {
		return errs.RStackOverflow
	}
	return errs.StackOverflow
}

func (s *stack) underflowKind() errs.Kind {
	if s.region == RegionReturn {
		return errs.RStackUnderflow
	}
	return errs.StackUnderflow
}
