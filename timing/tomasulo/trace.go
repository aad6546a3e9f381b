package tomasulo

import (
	"github.com/sarchlab/akita/v4/sim"

	"github.com/nadabadawi/TomasuloSim/insts"
)

// Hook positions published by the scheduler. Observers register through the
// standard sim.Hookable interface; the HookCtx item is always a TraceEvent.
var (
	// HookPosIssue fires when an instruction enters a reservation station.
	HookPosIssue = &sim.HookPos{Name: "TomasuloIssue"}

	// HookPosExecute fires for every execute cycle a station advances; the
	// event's Completed field marks the cycle its latency expires.
	HookPosExecute = &sim.HookPos{Name: "TomasuloExecute"}

	// HookPosWriteBack fires when a station wins the CDB and retires.
	HookPosWriteBack = &sim.HookPos{Name: "TomasuloWriteBack"}

	// HookPosFlush fires for every station emptied by a taken branch.
	HookPosFlush = &sim.HookPos{Name: "TomasuloFlush"}

	// HookPosStall fires on cycles where an instruction was available but
	// could not issue.
	HookPosStall = &sim.HookPos{Name: "TomasuloStall"}
)

// TraceEvent describes one pipeline event. Not every field is meaningful at
// every hook position; Cycle, Tag, Op, and PC always are.
type TraceEvent struct {
	// Cycle is the clock value when the event fired.
	Cycle uint64

	// Tag identifies the station involved.
	Tag Tag

	// Op is the station's opcode.
	Op insts.Op

	// PC is the program index of the instruction.
	PC int64

	// Completed marks the execute cycle on which latency expired.
	Completed bool

	// Value is the broadcast value for write-back events.
	Value int64

	// Target is the redirect target for branch-like write-backs.
	Target int64
}

func (s *Scheduler) publish(pos *sim.HookPos, ev TraceEvent) {
	s.InvokeHook(sim.HookCtx{
		Domain: s,
		Pos:    pos,
		Item:   ev,
	})
}
