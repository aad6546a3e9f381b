// Package latency provides the machine configuration for the timing
// simulator: per-opcode reservation-station counts and execution latencies.
//
// Values can be loaded from JSON or TOML files or taken from
// DefaultConfig; Table provides the lookups the scheduler uses.
package latency

import (
	"github.com/nadabadawi/TomasuloSim/insts"
)

// Table provides per-opcode lookups backed by a validated Config.
type Table struct {
	config    *Config
	stations  [insts.NumOps]int
	latencies [insts.NumOps]int
}

// NewTable creates a table with the default machine configuration.
func NewTable() *Table {
	t, _ := NewTableWithConfig(DefaultConfig())
	return t
}

// NewTableWithConfig creates a table from a custom configuration.
func NewTableWithConfig(config *Config) (*Table, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	t := &Table{config: config.Clone()}
	for _, op := range insts.AllOps {
		t.stations[op] = config.Stations[op.String()]
		t.latencies[op] = config.Latencies[op.String()]
	}
	return t, nil
}

// Stations returns the reservation-station count for an opcode.
func (t *Table) Stations(op insts.Op) int {
	return t.stations[op]
}

// Latency returns the execution latency in cycles for an opcode.
func (t *Table) Latency(op insts.Op) int {
	return t.latencies[op]
}

// Config returns a copy of the underlying configuration.
func (t *Table) Config() *Config {
	return t.config.Clone()
}
