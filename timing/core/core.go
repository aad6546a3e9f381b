// Package core bundles the architectural state and the out-of-order
// scheduler into a single simulated machine with a simple run interface.
package core

import (
	"github.com/nadabadawi/TomasuloSim/emu"
	"github.com/nadabadawi/TomasuloSim/insts"
	"github.com/nadabadawi/TomasuloSim/timing/latency"
	"github.com/nadabadawi/TomasuloSim/timing/tomasulo"
)

// Result is the machine state reported at termination.
type Result struct {
	// Registers is the final register file, R0 through R7.
	Registers [insts.NumRegs]int64

	// Memory is the final memory contents, word-indexed.
	Memory []int64

	// Cycles is the total clock cycles consumed.
	Cycles uint64
}

// Core is a simulated machine: register file, memory, and the
// reservation-station scheduler driving a loaded program.
type Core struct {
	// Scheduler is the underlying pipeline engine, exported so callers
	// can register trace hooks and inspect stations.
	Scheduler *tomasulo.Scheduler

	regFile *emu.RegFile
	memory  *emu.Memory

	maxCycles uint64
}

// CoreOption is a functional option for configuring the Core.
type CoreOption func(*coreConfig)

type coreConfig struct {
	table     *latency.Table
	regFile   *emu.RegFile
	memory    *emu.Memory
	maxCycles uint64
}

// WithTable supplies a machine configuration table instead of the default.
func WithTable(t *latency.Table) CoreOption {
	return func(c *coreConfig) {
		c.table = t
	}
}

// WithRegFile supplies a register file instead of the power-on default.
func WithRegFile(r *emu.RegFile) CoreOption {
	return func(c *coreConfig) {
		c.regFile = r
	}
}

// WithMemory supplies a memory instead of the default-sized one.
func WithMemory(m *emu.Memory) CoreOption {
	return func(c *coreConfig) {
		c.memory = m
	}
}

// WithMaxCycles bounds Run; 0 means no limit.
func WithMaxCycles(n uint64) CoreOption {
	return func(c *coreConfig) {
		c.maxCycles = n
	}
}

// NewCore creates a machine for the given program.
func NewCore(program []insts.Instruction, opts ...CoreOption) (*Core, error) {
	cfg := coreConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.table == nil {
		cfg.table = latency.NewTable()
	}
	if cfg.regFile == nil {
		cfg.regFile = emu.NewRegFile()
	}
	if cfg.memory == nil {
		cfg.memory = emu.NewMemory(emu.DefaultMemWords)
	}

	sched, err := tomasulo.NewScheduler(program, cfg.table, cfg.regFile, cfg.memory)
	if err != nil {
		return nil, err
	}

	return &Core{
		Scheduler: sched,
		regFile:   cfg.regFile,
		memory:    cfg.memory,
		maxCycles: cfg.maxCycles,
	}, nil
}

// RegFile returns the machine's register file.
func (c *Core) RegFile() *emu.RegFile {
	return c.regFile
}

// Memory returns the machine's memory.
func (c *Core) Memory() *emu.Memory {
	return c.memory
}

// Tick advances the machine by one clock cycle.
func (c *Core) Tick() error {
	return c.Scheduler.Tick()
}

// Stats returns the scheduler's performance counters.
func (c *Core) Stats() tomasulo.Stats {
	return c.Scheduler.Stats()
}

// Run executes the program to termination and reports the final state.
func (c *Core) Run() (Result, error) {
	if err := c.Scheduler.Run(c.maxCycles); err != nil {
		return Result{}, err
	}
	return Result{
		Registers: c.regFile.Snapshot(),
		Memory:    c.memory.Snapshot(),
		Cycles:    c.Scheduler.Stats().Cycles,
	}, nil
}
