// Package insts provides the instruction model for the simulated machine.
//
// The machine has ten opcodes over an eight-register file (R0-R7, with R0
// hard-wired to zero) and a word-addressed memory. Instructions are
// represented as tagged records: the opcode determines which of the
// destination, source, and immediate fields are meaningful.
//
// Usage:
//
//	inst, err := insts.Parse("ADD R1, R2, R3")
//	fmt.Printf("Op: %v, Rd: %v, Rs1: %v, Rs2: %v\n", inst.Op, inst.Rd, inst.Rs1, inst.Rs2)
package insts

import "fmt"

// Op identifies one of the ten machine opcodes.
type Op uint8

// Opcodes, in the machine's canonical order. This order is also the
// common-data-bus arbitration order: when several stations are ready to
// write in the same cycle, the first station in (opcode, index) order wins.
const (
	OpLOAD Op = iota
	OpSTORE
	OpBNE
	OpJAL
	OpRET
	OpADD
	OpADDI
	OpNEG
	OpNAND
	OpSLL

	// NumOps is the number of distinct opcodes.
	NumOps = 10
)

// AllOps lists every opcode in canonical (arbitration) order.
var AllOps = [NumOps]Op{
	OpLOAD, OpSTORE, OpBNE, OpJAL, OpRET,
	OpADD, OpADDI, OpNEG, OpNAND, OpSLL,
}

var opNames = [NumOps]string{
	"LOAD", "STORE", "BNE", "JAL", "RET",
	"ADD", "ADDI", "NEG", "NAND", "SLL",
}

// String returns the opcode mnemonic.
func (op Op) String() string {
	if int(op) < len(opNames) {
		return opNames[op]
	}
	return fmt.Sprintf("Op(%d)", uint8(op))
}

// OpFromString resolves a mnemonic to its opcode.
func OpFromString(name string) (Op, bool) {
	for i, n := range opNames {
		if n == name {
			return Op(i), true
		}
	}
	return 0, false
}

// HasDest reports whether the opcode produces a register result. JAL's
// destination is the implicit link register R1.
func (op Op) HasDest() bool {
	switch op {
	case OpLOAD, OpJAL, OpADD, OpADDI, OpNEG, OpNAND, OpSLL:
		return true
	default:
		return false
	}
}

// HasRs1 reports whether the opcode reads a first source register. RET reads
// the link register R1, but implicitly; it carries no Rs1 field.
func (op Op) HasRs1() bool {
	switch op {
	case OpJAL, OpRET:
		return false
	default:
		return true
	}
}

// HasRs2 reports whether the opcode reads a second source register.
func (op Op) HasRs2() bool {
	switch op {
	case OpSTORE, OpBNE, OpADD, OpNAND, OpSLL:
		return true
	default:
		return false
	}
}

// HasImm reports whether the opcode carries an immediate.
func (op Op) HasImm() bool {
	switch op {
	case OpLOAD, OpSTORE, OpBNE, OpJAL, OpADDI:
		return true
	default:
		return false
	}
}

// IsMemOp reports whether the opcode accesses memory.
func (op Op) IsMemOp() bool {
	return op == OpLOAD || op == OpSTORE
}

// IsBranchLike reports whether the opcode resolves by redirecting the
// program counter and serializes younger instructions behind it. JAL is not
// included: it serializes by stalling issue outright instead.
func (op Op) IsBranchLike() bool {
	return op == OpBNE || op == OpRET
}

// Reg names one of the eight architectural registers R0-R7.
type Reg uint8

// NumRegs is the size of the architectural register file.
const NumRegs = 8

// LinkReg is R1, the implicit destination of JAL and source of RET.
const LinkReg Reg = 1

// String returns the register name, e.g. "R3".
func (r Reg) String() string {
	return fmt.Sprintf("R%d", uint8(r))
}

// RegFromString resolves a register name ("R0".."R7").
func RegFromString(name string) (Reg, bool) {
	if len(name) != 2 || name[0] != 'R' || name[1] < '0' || name[1] > '7' {
		return 0, false
	}
	return Reg(name[1] - '0'), true
}

// Instruction is one fetched instruction. Field presence depends on Op:
//
//	LOAD          Rd, Rs1, Imm
//	STORE         Rs1 (base), Rs2 (value), Imm
//	BNE           Rs1, Rs2, Imm (PC-relative offset)
//	JAL           Imm (PC-relative offset; link goes to R1)
//	RET           (target read from R1)
//	ADD/NAND/SLL  Rd, Rs1, Rs2
//	ADDI          Rd, Rs1, Imm
//	NEG           Rd, Rs1
type Instruction struct {
	Op  Op
	Rd  Reg
	Rs1 Reg
	Rs2 Reg
	Imm int64
}

// String renders the instruction in assembly syntax.
func (i Instruction) String() string {
	switch i.Op {
	case OpLOAD:
		return fmt.Sprintf("LOAD %v, %d(%v)", i.Rd, i.Imm, i.Rs1)
	case OpSTORE:
		return fmt.Sprintf("STORE %v, %d(%v)", i.Rs2, i.Imm, i.Rs1)
	case OpBNE:
		return fmt.Sprintf("BNE %v, %v, %d", i.Rs1, i.Rs2, i.Imm)
	case OpJAL:
		return fmt.Sprintf("JAL %d", i.Imm)
	case OpRET:
		return "RET"
	case OpADDI:
		return fmt.Sprintf("ADDI %v, %v, %d", i.Rd, i.Rs1, i.Imm)
	case OpNEG:
		return fmt.Sprintf("NEG %v, %v", i.Rd, i.Rs1)
	default:
		return fmt.Sprintf("%v %v, %v, %v", i.Op, i.Rd, i.Rs1, i.Rs2)
	}
}
