package emu

import (
	"fmt"

	"github.com/nadabadawi/TomasuloSim/insts"
)

// StepResult reports the outcome of executing one instruction.
type StepResult struct {
	// Exited is true once the program has run off the end of the
	// instruction sequence.
	Exited bool

	// Err is set if the instruction could not be executed.
	Err error
}

// Emulator executes programs sequentially, one instruction at a time, with
// no timing model. It is the functional reference for the timing simulator:
// both must produce the same final register file and memory.
type Emulator struct {
	regFile *RegFile
	memory  *Memory
	program []insts.Instruction
	pc      int64

	instructionCount uint64
	maxInstructions  uint64 // 0 means no limit
}

// EmulatorOption is a functional option for configuring the Emulator.
type EmulatorOption func(*Emulator)

// WithRegFile supplies a register file instead of the power-on default.
func WithRegFile(r *RegFile) EmulatorOption {
	return func(e *Emulator) {
		e.regFile = r
	}
}

// WithMemory supplies a memory instead of the default-sized one.
func WithMemory(m *Memory) EmulatorOption {
	return func(e *Emulator) {
		e.memory = m
	}
}

// WithMaxInstructions bounds the number of instructions Run will execute.
// A value of 0 means no limit.
func WithMaxInstructions(max uint64) EmulatorOption {
	return func(e *Emulator) {
		e.maxInstructions = max
	}
}

// NewEmulator creates an emulator for the given program.
func NewEmulator(program []insts.Instruction, opts ...EmulatorOption) *Emulator {
	e := &Emulator{program: program}
	for _, opt := range opts {
		opt(e)
	}
	if e.regFile == nil {
		e.regFile = NewRegFile()
	}
	if e.memory == nil {
		e.memory = NewMemory(DefaultMemWords)
	}
	return e
}

// RegFile returns the emulator's register file.
func (e *Emulator) RegFile() *RegFile {
	return e.regFile
}

// Memory returns the emulator's memory.
func (e *Emulator) Memory() *Memory {
	return e.memory
}

// PC returns the current program counter (an instruction index).
func (e *Emulator) PC() int64 {
	return e.pc
}

// InstructionCount returns the number of instructions executed so far.
func (e *Emulator) InstructionCount() uint64 {
	return e.instructionCount
}

// Step executes the instruction at the current PC.
func (e *Emulator) Step() StepResult {
	if e.pc < 0 {
		return StepResult{Err: fmt.Errorf("program counter out of range: %d", e.pc)}
	}
	if e.pc >= int64(len(e.program)) {
		return StepResult{Exited: true}
	}

	inst := e.program[e.pc]
	nextPC := e.pc + 1

	switch inst.Op {
	case insts.OpADD:
		e.regFile.Write(inst.Rd, e.regFile.Read(inst.Rs1)+e.regFile.Read(inst.Rs2))

	case insts.OpADDI:
		e.regFile.Write(inst.Rd, e.regFile.Read(inst.Rs1)+inst.Imm)

	case insts.OpNEG:
		e.regFile.Write(inst.Rd, -e.regFile.Read(inst.Rs1))

	case insts.OpNAND:
		e.regFile.Write(inst.Rd, ^(e.regFile.Read(inst.Rs1) & e.regFile.Read(inst.Rs2)))

	case insts.OpSLL:
		e.regFile.Write(inst.Rd, shiftLeft(e.regFile.Read(inst.Rs1), e.regFile.Read(inst.Rs2)))

	case insts.OpLOAD:
		addr := e.regFile.Read(inst.Rs1) + inst.Imm
		value, err := e.memory.Read(addr)
		if err != nil {
			return StepResult{Err: err}
		}
		e.regFile.Write(inst.Rd, value)

	case insts.OpSTORE:
		addr := e.regFile.Read(inst.Rs1) + inst.Imm
		if err := e.memory.Write(addr, e.regFile.Read(inst.Rs2)); err != nil {
			return StepResult{Err: err}
		}

	case insts.OpBNE:
		if e.regFile.Read(inst.Rs1) != e.regFile.Read(inst.Rs2) {
			nextPC = e.pc + inst.Imm
		}

	case insts.OpJAL:
		e.regFile.Write(insts.LinkReg, e.pc+1)
		nextPC = e.pc + inst.Imm

	case insts.OpRET:
		nextPC = e.regFile.Read(insts.LinkReg)

	default:
		return StepResult{Err: fmt.Errorf("unknown opcode %v at pc %d", inst.Op, e.pc)}
	}

	e.pc = nextPC
	e.instructionCount++
	return StepResult{}
}

// Run executes until the program exits, an error occurs, or the instruction
// limit is reached.
func (e *Emulator) Run() StepResult {
	for {
		if e.maxInstructions > 0 && e.instructionCount >= e.maxInstructions {
			return StepResult{Err: fmt.Errorf("instruction limit reached: %d", e.maxInstructions)}
		}
		result := e.Step()
		if result.Exited || result.Err != nil {
			return result
		}
	}
}

// shiftLeft implements SLL. Shift counts outside [0, 63] yield zero, the
// behavior of an unsigned shift wider than the word.
func shiftLeft(v, count int64) int64 {
	if count < 0 || count > 63 {
		return 0
	}
	return v << uint(count)
}
