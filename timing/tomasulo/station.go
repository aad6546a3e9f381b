// Package tomasulo implements the out-of-order execution core: a pool of
// reservation stations driven through issue, execute, and write-back phases
// by a tick-based scheduler, with register renaming, common-data-bus
// forwarding, and speculative-branch flushing.
package tomasulo

import (
	"fmt"

	"github.com/nadabadawi/TomasuloSim/insts"
)

// Tag identifies a reservation station, e.g. "ADD2" or "LOAD1". Stations
// reference each other only through tags; the register-status table is the
// single point of indirection.
type Tag string

// NoTag marks an operand slot whose value is already present.
const NoTag Tag = ""

// Station is one reservation-station entry. Op and Index are fixed at
// construction; everything else describes the in-flight instruction
// currently occupying the slot.
type Station struct {
	// Op is the opcode this station serves.
	Op insts.Op

	// Index is the 0-based slot number within the opcode's station group.
	Index int

	// Busy is true while an instruction occupies the slot.
	Busy bool

	// Vj and Vk are the operand values, valid only when the matching Q
	// field is NoTag.
	Vj int64
	Vk int64

	// Qj and Qk name the stations producing the operands that are not yet
	// available.
	Qj Tag
	Qk Tag

	// A holds the immediate at issue. For LOAD and STORE it becomes the
	// effective address on the first execute cycle and stays an address
	// from then on.
	A int64

	// Dest is the renamed destination register, for producing opcodes.
	Dest insts.Reg

	// PC is the program index of the instruction, used by branches and JAL
	// to compute targets and identify flush victims.
	PC int64

	// Seq is the issue ticket, a monotonically increasing program-order
	// stamp. Memory operations execute in Seq order.
	Seq int64

	// Result is the value to broadcast (or the redirect target for BNE,
	// RET, and JAL; JAL broadcasts its link value pc+1 instead).
	Result int64

	// Taken records a BNE that resolved taken at execute time.
	Taken bool

	// Executed is true once all latency cycles have elapsed.
	Executed bool

	// RemainingCycles counts down the execution latency.
	RemainingCycles int

	// IssueCycle and ExecuteCycle are same-cycle guards: a station never
	// executes in its issue cycle and never writes in the cycle its last
	// execute step ran. Zero means "never".
	IssueCycle   uint64
	ExecuteCycle uint64
}

// Tag returns the station's identifier, opcode name plus 1-based index.
func (s *Station) Tag() Tag {
	return Tag(fmt.Sprintf("%v%d", s.Op, s.Index+1))
}

// Ready reports whether the operands the opcode needs at execute time are
// all present. STORE only needs its address operand to execute; the value
// operand is checked at write-back.
func (s *Station) Ready() bool {
	switch s.Op {
	case insts.OpJAL:
		return true
	case insts.OpLOAD, insts.OpSTORE, insts.OpADDI, insts.OpNEG, insts.OpRET:
		return s.Qj == NoTag
	default: // ADD, NAND, SLL, BNE
		return s.Qj == NoTag && s.Qk == NoTag
	}
}

// Clear empties the slot, keeping only the fixed Op and Index.
func (s *Station) Clear() {
	s.Busy = false
	s.Vj = 0
	s.Vk = 0
	s.Qj = NoTag
	s.Qk = NoTag
	s.A = 0
	s.Dest = 0
	s.PC = 0
	s.Seq = 0
	s.Result = 0
	s.Taken = false
	s.Executed = false
	s.RemainingCycles = 0
	s.IssueCycle = 0
	s.ExecuteCycle = 0
}
