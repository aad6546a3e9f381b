// Package emu provides the architectural state of the simulated machine and
// a sequential reference interpreter for it.
package emu

import (
	"github.com/nadabadawi/TomasuloSim/insts"
)

// RegFile is the eight-entry architectural register file.
// R0 always reads as zero; writes to it are ignored.
type RegFile struct {
	regs [insts.NumRegs]int64
}

// NewRegFile creates a register file with every register initialized to its
// own index (R1=1, R2=2, ...), the power-on state the original machine uses.
// R0 is zero regardless.
func NewRegFile() *RegFile {
	r := &RegFile{}
	for i := 1; i < insts.NumRegs; i++ {
		r.regs[i] = int64(i)
	}
	return r
}

// Read returns the value of a register. R0 reads as 0.
func (r *RegFile) Read(reg insts.Reg) int64 {
	if reg == 0 || int(reg) >= insts.NumRegs {
		return 0
	}
	return r.regs[reg]
}

// Write sets a register value. Writes to R0 are ignored.
func (r *RegFile) Write(reg insts.Reg, value int64) {
	if reg == 0 || int(reg) >= insts.NumRegs {
		return
	}
	r.regs[reg] = value
}

// Snapshot returns a copy of all eight register values.
func (r *RegFile) Snapshot() [insts.NumRegs]int64 {
	return r.regs
}
