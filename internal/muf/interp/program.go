package interp

import "github.com/fuzzball-muck/muckd/internal/muf/value"

// Op names one opcode. Using mnemonic strings rather than a dense integer
// enum keeps the primitive dispatch table (spec 4.F "look up primitive,
// call it") a direct map lookup, mirroring how the original source
// resolves a compiled word to a function pointer by name.
type Op string

// Control-flow opcodes the interpreter itself manages (pc, call stack,
// for-stack, try-stack). Every other Op is a primitive looked up in the
// primitives table.
const (
	OpPush    Op = "PUSH"
	OpExecute Op = "EXECUTE"
	OpCall    Op = "CALL"
	OpReturn  Op = "RET"
	OpJmp     Op = "JMP"
	OpIfNot   Op = "IFNOT"
	OpFor     Op = "FOR"
	OpForeach Op = "FOREACH"
	OpForIter Op = "FORITER"
	OpForPop  Op = "FORPOP"
	OpTry     Op = "TRY"
	OpTryPop  Op = "TRYPOP"
	OpSetMode Op = "SETMODE"
)

// Instr is one compiled bytecode instruction: an opcode plus its
// (optionally absent) operand.
type Instr struct {
	Op  Op
	Arg value.Value
}

// Program is a compiled MUF program: a flat instruction stream, matching
// object.ProgramData.Code's expected dynamic type.
type Program struct {
	Instrs []Instr
}

// PC returns an operand-less instruction for op, a helper for
// hand-assembling programs.
func PC(op Op) Instr { return Instr{Op: op} }
