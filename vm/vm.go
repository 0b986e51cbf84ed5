package vm

import "github.com/jhlagado/ts-tacitus-sub002/errs"

// Instance is one running virtual machine: a code segment, three stack
// regions sharing one Memory, and the cursors the fetch-decode-dispatch loop
// advances. Not safe for concurrent use — see Run.
type Instance struct {
	Mem *Memory

	IP int // byte address into the code segment
	BP int // cell index into the return stack: base of the active frame

	data   *stack
	ret    *stack
	global *stack

	// retFloor is the return-stack cell ReturnDepth counts from: the region
	// base at construction, and the saved BP after LoadImage. call and
	// doReturn do not move it, and return-stack pops are bounded by the
	// region base, not by the active frame's BP, so a word body is not
	// stopped from popping below its own frame. The data stack floor is
	// always the region base (data values are not frame-scoped).
	retFloor int

	listDepth int

	// Strings is the interned string table addressed by STRING tag payloads.
	Strings []string

	insCount int64
}

// Option configures an Instance at construction time.
type Option func(*Instance)

// WithStrings installs the interned string table a compiled image expects
// STRING-tagged payloads to index into.
func WithStrings(table []string) Option {
	return func(i *Instance) { i.Strings = table }
}

// New creates a fresh Instance over mem, with code already compiled into
// mem's code segment by the caller (typically through lang.Compile).
func New(mem *Memory, opts ...Option) *Instance {
	i := &Instance{
		Mem:    mem,
		data:   newStack(RegionData),
		ret:    newStack(RegionReturn),
		global: newStack(RegionGlobal),
	}
	i.retFloor = i.ret.base
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// DataDepth returns the number of cells live on the data stack.
func (i *Instance) DataDepth() int { return i.data.depth(i.data.base) }

// ReturnDepth returns the number of cells live on the return stack above
// retFloor.
func (i *Instance) ReturnDepth() int { return i.ret.depth(i.retFloor) }

// ListDepth returns the current open_list/close_list nesting depth.
func (i *Instance) ListDepth() int { return i.listDepth }

// InstructionCount returns the number of instructions executed so far by Run.
func (i *Instance) InstructionCount() int64 { return i.insCount }

// Push pushes a tagged value onto the data stack.
func (i *Instance) Push(v Value) error { return i.data.push(i.Mem, v) }

// Pop pops the top tagged value off the data stack.
func (i *Instance) Pop() (Value, error) { return i.data.pop(i.Mem, i.data.base) }

// Peek reads the data stack without popping, offset cells below the top.
func (i *Instance) Peek(offset int) (Value, error) { return i.data.peek(i.Mem, i.data.base, offset) }

// DataSnapshot returns every live cell of the data stack, bottom first, for
// error context; errs.Error.WithContext keeps only the top 8 of them.
func (i *Instance) DataSnapshot() []int32 {
	n := i.DataDepth()
	out := make([]int32, 0, n)
	for c := i.data.base; c < i.data.cursor; c++ {
		v, err := i.Mem.ReadCell(c)
		if err != nil {
			break
		}
		out = append(out, int32(v))
	}
	return out
}

// fail wraps a *errs.Error (or any error) with the current IP and an
// abbreviated data-stack snapshot, the way the interpreter annotates every
// failure before returning control to the host.
func (i *Instance) fail(err error) error {
	if e, ok := err.(*errs.Error); ok {
		return e.WithContext(i.IP, i.DataSnapshot())
	}
	return errs.Wrap(err, errs.MemoryBounds, "run").WithContext(i.IP, i.DataSnapshot())
}
