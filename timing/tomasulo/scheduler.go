package tomasulo

import (
	"fmt"

	"github.com/sarchlab/akita/v4/sim"

	"github.com/nadabadawi/TomasuloSim/emu"
	"github.com/nadabadawi/TomasuloSim/insts"
	"github.com/nadabadawi/TomasuloSim/timing/latency"
)

// Stats holds scheduler performance counters.
type Stats struct {
	// Cycles is the current clock value; once the program has terminated,
	// the clock value at termination.
	Cycles uint64

	// Instructions is the number of instructions issued, including ones
	// later flushed.
	Instructions uint64

	// Stalls counts cycles where an instruction was available but could
	// not issue.
	Stalls uint64

	// Flushes counts taken-branch resolutions.
	Flushes uint64

	// FlushedStations counts speculative stations discarded by flushes.
	FlushedStations uint64
}

// Scheduler drives a program through the reservation-station pool one
// clock cycle at a time. Per cycle, in order: the clock advances, the CDB
// is released, at most one instruction is fetched and issued, every
// eligible station advances its execution, and at most one executed
// station writes back on the CDB.
//
// Scheduler is a sim.Hookable domain; see the HookPos values in this
// package for the events it publishes.
type Scheduler struct {
	sim.HookableBase

	program []insts.Instruction
	table   *latency.Table
	regFile *emu.RegFile
	memory  *emu.Memory

	stations  [insts.NumOps][]*Station
	regStatus [insts.NumRegs]Tag

	clock    uint64
	pc       int64
	issueSeq int64
	ctrl     controlState

	stats Stats
	done  bool
}

// NewScheduler creates a scheduler for the given program and machine
// configuration. The register file and memory are the scheduler's
// architectural state; the caller keeps them for inspection afterwards.
func NewScheduler(
	program []insts.Instruction,
	table *latency.Table,
	regFile *emu.RegFile,
	memory *emu.Memory,
) (*Scheduler, error) {
	for i, inst := range program {
		if table.Stations(inst.Op) <= 0 {
			return nil, fmt.Errorf(
				"instruction %d (%v): no reservation stations configured for %v",
				i, inst, inst.Op)
		}
	}

	s := &Scheduler{
		program: program,
		table:   table,
		regFile: regFile,
		memory:  memory,
	}
	for _, op := range insts.AllOps {
		group := make([]*Station, table.Stations(op))
		for i := range group {
			group[i] = &Station{Op: op, Index: i}
		}
		s.stations[op] = group
	}
	return s, nil
}

// Clock returns the current clock value.
func (s *Scheduler) Clock() uint64 {
	return s.clock
}

// PC returns the fetch program counter.
func (s *Scheduler) PC() int64 {
	return s.pc
}

// Done reports whether the program has terminated: every instruction
// issued and every station drained.
func (s *Scheduler) Done() bool {
	return s.done
}

// Stats returns the scheduler's performance counters.
func (s *Scheduler) Stats() Stats {
	st := s.stats
	st.Cycles = s.clock
	return st
}

// StationAt exposes a station for inspection. Mutating it corrupts the
// simulation; tests and tracing only.
func (s *Scheduler) StationAt(op insts.Op, index int) *Station {
	return s.stations[op][index]
}

// StationCount returns the number of stations serving an opcode.
func (s *Scheduler) StationCount(op insts.Op) int {
	return len(s.stations[op])
}

// RegisterStatus returns the producer tag renamed over a register, or
// NoTag.
func (s *Scheduler) RegisterStatus(reg insts.Reg) Tag {
	return s.regStatus[reg]
}

// Tick advances the simulation by one clock cycle, then verifies the
// structural invariants; a violation is returned as an error.
func (s *Scheduler) Tick() error {
	if s.done {
		return nil
	}

	s.clock++
	s.ctrl.beginCycle()

	if err := s.issue(); err != nil {
		return err
	}
	if err := s.executeAll(); err != nil {
		return err
	}
	if err := s.writeAll(); err != nil {
		return err
	}

	s.checkDone()
	return s.CheckInvariants()
}

// Run ticks until the program terminates or a fatal error occurs. The
// cycle limit guards against non-terminating programs; 0 means no limit.
func (s *Scheduler) Run(maxCycles uint64) error {
	for !s.done {
		if maxCycles > 0 && s.clock >= maxCycles {
			return fmt.Errorf("cycle limit reached: %d", maxCycles)
		}
		if err := s.Tick(); err != nil {
			return err
		}
	}
	return nil
}

// RunCycles ticks at most n times, stopping early on termination. It
// reports whether the program is still running.
func (s *Scheduler) RunCycles(n uint64) (bool, error) {
	for i := uint64(0); i < n && !s.done; i++ {
		if err := s.Tick(); err != nil {
			return false, err
		}
	}
	return !s.done, nil
}

// issue performs the fetch+issue phase: at most one instruction per cycle.
func (s *Scheduler) issue() error {
	if s.ctrl.takeFetchBubble() {
		return nil
	}
	if s.pc < 0 {
		return fmt.Errorf("program counter out of range: %d", s.pc)
	}
	if s.pc >= int64(len(s.program)) {
		return nil
	}

	inst := s.program[s.pc]

	// JAL serializes issue entirely until its own write-back, and two
	// branch-like ops are never in flight together: the branch queue has a
	// single owner.
	if s.ctrl.jalIssued || (s.ctrl.branchIssued && inst.Op.IsBranchLike()) {
		s.recordStall(inst)
		return nil
	}

	st := s.freeStation(inst.Op)
	if st == nil {
		s.recordStall(inst)
		return nil
	}

	s.fillOperands(st, inst)

	if inst.Op.HasDest() {
		dest := inst.Rd
		if inst.Op == insts.OpJAL {
			dest = insts.LinkReg
		}
		st.Dest = dest
		s.regStatus[dest] = st.Tag()
	}

	st.A = inst.Imm
	st.PC = s.pc
	st.Seq = s.issueSeq
	st.Busy = true
	st.RemainingCycles = s.table.Latency(inst.Op)
	st.IssueCycle = s.clock
	s.issueSeq++

	switch {
	case inst.Op.IsBranchLike():
		s.ctrl.branchIssued = true
	case s.ctrl.branchIssued:
		s.ctrl.enqueue(st.Op, st.Index)
	}
	if inst.Op == insts.OpJAL {
		s.ctrl.jalIssued = true
	}

	s.pc++
	s.stats.Instructions++
	s.publish(HookPosIssue, TraceEvent{
		Cycle: s.clock, Tag: st.Tag(), Op: st.Op, PC: st.PC,
	})
	return nil
}

func (s *Scheduler) recordStall(inst insts.Instruction) {
	s.stats.Stalls++
	s.publish(HookPosStall, TraceEvent{
		Cycle: s.clock, Op: inst.Op, PC: s.pc,
	})
}

func (s *Scheduler) freeStation(op insts.Op) *Station {
	for _, st := range s.stations[op] {
		if !st.Busy {
			return st
		}
	}
	return nil
}

// fillOperands applies rename-or-read to each source operand: a pending
// producer's tag goes into Q, otherwise the register value goes into V.
func (s *Scheduler) fillOperands(st *Station, inst insts.Instruction) {
	switch inst.Op {
	case insts.OpLOAD, insts.OpADDI, insts.OpNEG:
		s.renameOrRead(&st.Vj, &st.Qj, inst.Rs1)
	case insts.OpSTORE, insts.OpBNE, insts.OpADD, insts.OpNAND, insts.OpSLL:
		s.renameOrRead(&st.Vj, &st.Qj, inst.Rs1)
		s.renameOrRead(&st.Vk, &st.Qk, inst.Rs2)
	case insts.OpRET:
		s.renameOrRead(&st.Vj, &st.Qj, insts.LinkReg)
	case insts.OpJAL:
		// No source operands.
	}
}

func (s *Scheduler) renameOrRead(v *int64, q *Tag, reg insts.Reg) {
	if tag := s.regStatus[reg]; tag != NoTag {
		*q = tag
		return
	}
	*v = s.regFile.Read(reg)
	*q = NoTag
}

// executeAll advances every eligible station by one execute cycle.
func (s *Scheduler) executeAll() error {
	for _, op := range insts.AllOps {
		for _, st := range s.stations[op] {
			if !st.Busy || st.Executed {
				continue
			}
			if err := s.executeStation(st); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Scheduler) executeStation(st *Station) error {
	if st.RemainingCycles <= 0 {
		return nil
	}
	if st.IssueCycle >= s.clock {
		return nil
	}
	if s.ctrl.branchIssued && s.ctrl.inQueue(st.Op, st.Index) {
		return nil
	}
	if !st.Ready() {
		return nil
	}
	if st.Op.IsMemOp() && s.olderMemOpInFlight(st.Seq) {
		return nil
	}

	// The effective address is computed once, on the first execute cycle:
	// A stops being an immediate and becomes an address.
	if st.Op.IsMemOp() && st.ExecuteCycle == 0 {
		st.A = st.Vj + st.A
	}

	st.RemainingCycles--
	st.ExecuteCycle = s.clock

	if st.RemainingCycles == 0 {
		st.Executed = true
		if st.Op == insts.OpLOAD {
			value, err := s.memory.Read(st.A)
			if err != nil {
				return fmt.Errorf("%s at pc %d: %w", st.Tag(), st.PC, err)
			}
			st.Result = value
		} else {
			computeResult(st)
		}
	}

	s.publish(HookPosExecute, TraceEvent{
		Cycle: s.clock, Tag: st.Tag(), Op: st.Op, PC: st.PC,
		Completed: st.Executed,
	})
	return nil
}

// olderMemOpInFlight reports whether a LOAD or STORE with an earlier issue
// ticket still occupies a station. Memory operations serialize in program
// order: no aliasing analysis, the younger op simply waits.
func (s *Scheduler) olderMemOpInFlight(seq int64) bool {
	for _, op := range []insts.Op{insts.OpLOAD, insts.OpSTORE} {
		for _, st := range s.stations[op] {
			if st.Busy && st.Seq < seq {
				return true
			}
		}
	}
	return false
}

// writeAll grants the CDB to the first eligible executed station in
// (opcode, index) order. At most one station writes per cycle.
func (s *Scheduler) writeAll() error {
	for _, op := range insts.AllOps {
		for _, st := range s.stations[op] {
			if !s.ctrl.cdbFree {
				return nil
			}
			if !st.Busy || !st.Executed {
				continue
			}
			if st.ExecuteCycle >= s.clock {
				continue
			}
			if st.Op == insts.OpSTORE && st.Qk != NoTag {
				// Address is known but the value operand is still in
				// flight; yield the CDB slot.
				continue
			}
			if err := s.writeStation(st); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Scheduler) writeStation(st *Station) error {
	ev := TraceEvent{Cycle: s.clock, Tag: st.Tag(), Op: st.Op, PC: st.PC}

	switch st.Op {
	case insts.OpSTORE:
		if err := s.memory.Write(st.A, st.Vk); err != nil {
			return fmt.Errorf("%s at pc %d: %w", st.Tag(), st.PC, err)
		}
		ev.Value = st.Vk

	case insts.OpBNE:
		if st.Taken {
			s.resolveTaken(st.Result, st.PC)
			ev.Target = st.Result
		} else {
			s.ctrl.drainQueue()
		}
		s.ctrl.branchIssued = false

	case insts.OpRET:
		// Unconditionally taken.
		s.resolveTaken(st.Result, st.PC)
		s.ctrl.branchIssued = false
		ev.Target = st.Result

	case insts.OpJAL:
		// The link value pc+1 is what reaches R1 and any waiting
		// consumers; Result carries the jump target.
		link := st.PC + 1
		s.broadcast(st.Tag(), link)
		s.pc = st.Result
		s.ctrl.jalIssued = false
		ev.Value = link
		ev.Target = st.Result

	default: // LOAD and the arithmetic opcodes
		s.broadcast(st.Tag(), st.Result)
		ev.Value = st.Result
	}

	s.emptyStation(st)
	s.ctrl.cdbFree = false
	s.publish(HookPosWriteBack, ev)
	return nil
}

// resolveTaken applies a taken branch: speculative stations are flushed
// per the direction-sensitive policy, and fetch is redirected to the
// target. A forward branch whose speculation has already fetched into the
// taken path keeps its fetch PC — the retained stations are exactly the
// taken-path instructions already issued, and re-fetching them would
// duplicate work.
func (s *Scheduler) resolveTaken(target, branchPC int64) {
	s.flushQueue(target, branchPC)
	if !(target > branchPC && s.pc >= target) {
		s.pc = target
		s.ctrl.flushPending = true
	}
	s.stats.Flushes++
}

// broadcast puts (tag, value) on the CDB: every register renamed to the
// tag is committed (R0's value excepted) and every station waiting on the
// tag captures the value.
func (s *Scheduler) broadcast(tag Tag, value int64) {
	for reg := insts.Reg(0); reg < insts.NumRegs; reg++ {
		if s.regStatus[reg] != tag {
			continue
		}
		s.regStatus[reg] = NoTag
		s.regFile.Write(reg, value) // ignores R0
	}

	for _, op := range insts.AllOps {
		for _, st := range s.stations[op] {
			if !st.Busy {
				continue
			}
			if st.Qj == tag {
				st.Vj = value
				st.Qj = NoTag
			}
			if st.Qk == tag {
				st.Vk = value
				st.Qk = NoTag
			}
		}
	}
}

// flushQueue discards speculative work after a taken branch. A backward
// target discards every queued station; a forward target keeps stations
// whose instructions also lie on the taken path (pc >= target).
func (s *Scheduler) flushQueue(target, branchPC int64) {
	type victim struct {
		tag  Tag
		dest insts.Reg
		prod bool
	}
	var victims []victim

	for _, ref := range s.ctrl.branchQueue {
		st := s.stations[ref.Op][ref.Index]
		if !st.Busy {
			continue
		}
		if target > branchPC && st.PC >= target {
			continue
		}
		victims = append(victims, victim{tag: st.Tag(), dest: st.Dest, prod: st.Op.HasDest()})
		s.stats.FlushedStations++
		s.publish(HookPosFlush, TraceEvent{
			Cycle: s.clock, Tag: st.Tag(), Op: st.Op, PC: st.PC,
		})
		s.emptyStation(st)
	}
	s.ctrl.branchQueue = s.ctrl.branchQueue[:0]

	// A retained station may be waiting on a producer that was just
	// discarded. On the taken path that producer never runs, so the
	// operand is the committed register value.
	for _, v := range victims {
		if !v.prod {
			continue
		}
		for _, op := range insts.AllOps {
			for _, st := range s.stations[op] {
				if !st.Busy {
					continue
				}
				if st.Qj == v.tag {
					st.Vj = s.regFile.Read(v.dest)
					st.Qj = NoTag
				}
				if st.Qk == v.tag {
					st.Vk = s.regFile.Read(v.dest)
					st.Qk = NoTag
				}
			}
		}
	}
}

// emptyStation frees the slot and drops any rename still pointing at it.
// A flushed JAL also releases the issue stall it held.
func (s *Scheduler) emptyStation(st *Station) {
	if st.Op == insts.OpJAL {
		s.ctrl.jalIssued = false
	}
	tag := st.Tag()
	for reg := insts.Reg(0); reg < insts.NumRegs; reg++ {
		if s.regStatus[reg] == tag {
			s.regStatus[reg] = NoTag
		}
	}
	st.Clear()
}

func (s *Scheduler) checkDone() {
	if s.pc < int64(len(s.program)) {
		return
	}
	for _, op := range insts.AllOps {
		for _, st := range s.stations[op] {
			if st.Busy {
				return
			}
		}
	}
	s.done = true
	s.stats.Cycles = s.clock
}

// CheckInvariants verifies the structural invariants the design promises:
// R0 reads as zero, every rename points at exactly one busy station with
// the matching destination, and no station shares a cycle between issue
// and execute. Tick runs it after every cycle; a failure is an
// implementation bug.
func (s *Scheduler) CheckInvariants() error {
	if v := s.regFile.Read(0); v != 0 {
		return fmt.Errorf("R0 reads %d, want 0", v)
	}

	for reg := insts.Reg(0); reg < insts.NumRegs; reg++ {
		tag := s.regStatus[reg]
		if tag == NoTag {
			continue
		}
		owners := 0
		for _, op := range insts.AllOps {
			for _, st := range s.stations[op] {
				if st.Busy && st.Tag() == tag {
					owners++
					if st.Dest != reg {
						return fmt.Errorf(
							"register status %v -> %s, but station destination is %v",
							reg, tag, st.Dest)
					}
				}
			}
		}
		if owners != 1 {
			return fmt.Errorf("register status %v -> %s held by %d busy stations", reg, tag, owners)
		}
	}

	for _, op := range insts.AllOps {
		for _, st := range s.stations[op] {
			if st.Busy && st.ExecuteCycle != 0 && st.IssueCycle == st.ExecuteCycle {
				return fmt.Errorf("%s issued and executed in cycle %d", st.Tag(), st.IssueCycle)
			}
		}
	}
	return nil
}
