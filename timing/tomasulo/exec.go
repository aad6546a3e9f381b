package tomasulo

import (
	"github.com/nadabadawi/TomasuloSim/insts"
)

// computeResult fills in the station's Result on the cycle its latency
// expires. LOAD is handled separately by the scheduler because it touches
// memory.
func computeResult(st *Station) {
	switch st.Op {
	case insts.OpADD:
		st.Result = st.Vj + st.Vk

	case insts.OpADDI:
		st.Result = st.Vj + st.A

	case insts.OpNEG:
		st.Result = -st.Vj

	case insts.OpNAND:
		st.Result = ^(st.Vj & st.Vk)

	case insts.OpSLL:
		st.Result = shiftLeft(st.Vj, st.Vk)

	case insts.OpBNE:
		// Taken/not-taken is decided here; the PC redirect and flush
		// happen at write-back.
		st.Taken = st.Vj != st.Vk
		if st.Taken {
			st.Result = st.PC + st.A
		}

	case insts.OpJAL:
		// Result holds the jump target. The link value committed to R1 is
		// derived from PC at write-back.
		st.Result = st.PC + st.A

	case insts.OpRET:
		// The renamed R1 flow: Vj carries the latest committed link value.
		st.Result = st.Vj
	}
}

// shiftLeft implements SLL. Counts outside [0, 63] yield zero, matching an
// unsigned shift wider than the word.
func shiftLeft(v, count int64) int64 {
	if count < 0 || count > 63 {
		return 0
	}
	return v << uint(count)
}
