package tomasulo

import "github.com/nadabadawi/TomasuloSim/insts"

// queueRef points at a station by (opcode, index). The branch queue holds
// refs rather than station pointers.
type queueRef struct {
	Op    insts.Op
	Index int
}

// controlState gathers the pipeline's global control flags and the branch
// queue. Transitions:
//
//   - cdbFree is raised at the top of every cycle and lowered by the first
//     write-back of the cycle.
//   - branchIssued rises when a BNE or RET issues and falls when it
//     resolves at write-back. While it is up, every newly issued
//     instruction enters the branch queue and is barred from execute.
//   - jalIssued rises when a JAL issues and falls at its write-back; while
//     up, issue stalls entirely.
//   - flushPending rises when a resolved branch redirects the PC and is
//     consumed by the next issue phase as a one-cycle fetch bubble.
type controlState struct {
	cdbFree      bool
	branchIssued bool
	jalIssued    bool
	flushPending bool
	branchQueue  []queueRef
}

// beginCycle releases the CDB for the new cycle.
func (c *controlState) beginCycle() {
	c.cdbFree = true
}

// takeFetchBubble consumes a pending flush, reporting whether this cycle's
// fetch should be skipped.
func (c *controlState) takeFetchBubble() bool {
	if !c.flushPending {
		return false
	}
	c.flushPending = false
	return true
}

// enqueue records a station issued while a branch-like op is in flight.
func (c *controlState) enqueue(op insts.Op, index int) {
	c.branchQueue = append(c.branchQueue, queueRef{Op: op, Index: index})
}

// inQueue reports whether the station is deferred behind the in-flight
// branch.
func (c *controlState) inQueue(op insts.Op, index int) bool {
	for _, ref := range c.branchQueue {
		if ref.Op == op && ref.Index == index {
			return true
		}
	}
	return false
}

// drainQueue empties the branch queue and clears branchIssued; the queued
// stations become free-running. Used when a branch resolves not-taken.
func (c *controlState) drainQueue() {
	c.branchQueue = c.branchQueue[:0]
	c.branchIssued = false
}
