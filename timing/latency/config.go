package latency

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/naoina/toml"

	"github.com/nadabadawi/TomasuloSim/insts"
)

// Config holds the machine configuration: how many reservation stations
// serve each opcode and how many cycles each opcode spends in execute.
// Both maps must cover all ten opcodes with positive values.
type Config struct {
	// Stations maps each opcode mnemonic to its reservation-station count.
	Stations map[string]int `json:"stations" toml:"Stations"`

	// Latencies maps each opcode mnemonic to its execution latency in
	// cycles.
	Latencies map[string]int `json:"latencies" toml:"Latencies"`
}

// DefaultConfig returns the default machine: two ADD stations, one station
// for every other opcode, unit latency everywhere.
func DefaultConfig() *Config {
	stations := make(map[string]int, insts.NumOps)
	latencies := make(map[string]int, insts.NumOps)
	for _, op := range insts.AllOps {
		stations[op.String()] = 1
		latencies[op.String()] = 1
	}
	stations[insts.OpADD.String()] = 2
	return &Config{Stations: stations, Latencies: latencies}
}

// LoadConfig reads a Config from a JSON or TOML file, chosen by extension.
// Missing opcodes keep their default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var overlay Config
	if strings.HasSuffix(path, ".toml") {
		err = toml.Unmarshal(data, &overlay)
	} else {
		err = json.Unmarshal(data, &overlay)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	config := DefaultConfig()
	for name, count := range overlay.Stations {
		config.Stations[name] = count
	}
	for name, cycles := range overlay.Latencies {
		config.Latencies[name] = cycles
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// SaveConfig writes the Config to a JSON file.
func (c *Config) SaveConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate checks that every opcode has a positive station count and a
// positive latency, and that no unknown opcode names appear.
func (c *Config) Validate() error {
	for _, op := range insts.AllOps {
		name := op.String()
		if c.Stations[name] <= 0 {
			return fmt.Errorf("station count for %s must be > 0", name)
		}
		if c.Latencies[name] <= 0 {
			return fmt.Errorf("latency for %s must be > 0", name)
		}
	}
	for name := range c.Stations {
		if _, ok := insts.OpFromString(name); !ok {
			return fmt.Errorf("unknown opcode %q in station config", name)
		}
	}
	for name := range c.Latencies {
		if _, ok := insts.OpFromString(name); !ok {
			return fmt.Errorf("unknown opcode %q in latency config", name)
		}
	}
	return nil
}

// Clone returns a deep copy of the Config.
func (c *Config) Clone() *Config {
	stations := make(map[string]int, len(c.Stations))
	for k, v := range c.Stations {
		stations[k] = v
	}
	latencies := make(map[string]int, len(c.Latencies))
	for k, v := range c.Latencies {
		latencies[k] = v
	}
	return &Config{Stations: stations, Latencies: latencies}
}
