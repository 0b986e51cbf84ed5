package vm

// Opcode is a builtin instruction selector. Builtins occupy 0..127 of the
// CODE tag's payload space (§4.1); addresses 128..32767 are user bytecode
// addresses. A compiled image therefore never places user code before byte
// offset 128 in the code segment (see compiler.reservedPrologue).
type Opcode uint8

// MaxBuiltin is one past the highest opcode value a builtin may use; CODE
// payloads at or above this threshold are user bytecode addresses.
const MaxBuiltin = 128

// Builtin opcodes. Order is part of the bytecode format: do not reorder
// without bumping an image format version.
const (
	OpNop Opcode = iota
	OpLitNumber
	OpLitI16
	OpLitCode
	OpLitString
	OpBranch
	OpBranchIfZero
	OpReserveLocals
	OpSlotLoad
	OpSlotStore
	OpReturn
	OpEval
	OpDup
	OpDrop
	OpSwap
	OpOpenList
	OpCloseList
	OpLength
	OpListSlot
	OpElem
	OpHead
	OpTail
	OpReverse
	OpConcat
	OpPack
	OpUnpack
	OpVarRef
	OpGlobalRef
	OpFetch
	OpStore
	OpLoad
	OpTransferData
	OpTransferReturn
	OpTransferGlobal
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpLt
	OpGt
	OpEq
	OpBye
	numOpcodes
)

var opcodeNames = [...]string{
	"nop", "lit", "lit.i16", "lit.code", "lit.string",
	"branch", "branch0", "reserve", "slot@", "slot!",
	"ret", "eval", "dup", "drop", "swap",
	"(", ")", "length", "slot", "elem",
	"head", "tail", "reverse", "concat", "pack",
	"unpack", "var_ref", "global_ref", "fetch", "store",
	"load", "transfer.data", "transfer.return", "transfer.global",
	"+", "-", "*", "/", "mod", "<", ">", "=", "bye",
}

func (op Opcode) String() string {
	if int(op) < 0 || int(op) >= len(opcodeNames) {
		return "call"
	}
	return opcodeNames[op]
}

// immediateWidth returns how many bytes of inline immediate follow op, not
// counting the opcode byte itself.
func immediateWidth(op Opcode) int {
	switch op {
	case OpLitNumber:
		return 4
	case OpLitI16, OpLitCode, OpLitString, OpBranch, OpBranchIfZero:
		return 2
	case OpReserveLocals, OpSlotLoad, OpSlotStore, OpVarRef:
		return 1
	default:
		return 0
	}
}
