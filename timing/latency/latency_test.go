package latency_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/nadabadawi/TomasuloSim/insts"
	"github.com/nadabadawi/TomasuloSim/timing/latency"
)

var _ = Describe("Config", func() {
	It("should default to two ADD stations and one of everything else", func() {
		cfg := latency.DefaultConfig()
		Expect(cfg.Validate()).To(Succeed())
		Expect(cfg.Stations["ADD"]).To(Equal(2))
		Expect(cfg.Stations["LOAD"]).To(Equal(1))
		for _, op := range insts.AllOps {
			Expect(cfg.Latencies[op.String()]).To(Equal(1))
		}
	})

	It("should reject a zero station count", func() {
		cfg := latency.DefaultConfig()
		cfg.Stations["BNE"] = 0
		Expect(cfg.Validate()).To(MatchError(ContainSubstring("station count for BNE")))
	})

	It("should reject a non-positive latency", func() {
		cfg := latency.DefaultConfig()
		cfg.Latencies["SLL"] = -1
		Expect(cfg.Validate()).To(MatchError(ContainSubstring("latency for SLL")))
	})

	It("should reject unknown opcode names", func() {
		cfg := latency.DefaultConfig()
		cfg.Latencies["MUL"] = 3
		Expect(cfg.Validate()).To(MatchError(ContainSubstring("unknown opcode")))
	})

	It("should clone deeply", func() {
		cfg := latency.DefaultConfig()
		clone := cfg.Clone()
		clone.Stations["ADD"] = 7
		Expect(cfg.Stations["ADD"]).To(Equal(2))
	})

	It("should load JSON files over the defaults", func() {
		dir := GinkgoT().TempDir()
		path := filepath.Join(dir, "machine.json")
		data := []byte(`{"stations": {"ADD": 4}, "latencies": {"LOAD": 3}}`)
		Expect(os.WriteFile(path, data, 0644)).To(Succeed())

		cfg, err := latency.LoadConfig(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Stations["ADD"]).To(Equal(4))
		Expect(cfg.Latencies["LOAD"]).To(Equal(3))
		Expect(cfg.Latencies["ADD"]).To(Equal(1))
	})

	It("should load TOML files by extension", func() {
		dir := GinkgoT().TempDir()
		path := filepath.Join(dir, "machine.toml")
		data := []byte("[Stations]\nADD = 3\n\n[Latencies]\nNAND = 2\n")
		Expect(os.WriteFile(path, data, 0644)).To(Succeed())

		cfg, err := latency.LoadConfig(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Stations["ADD"]).To(Equal(3))
		Expect(cfg.Latencies["NAND"]).To(Equal(2))
	})

	It("should round-trip through SaveConfig", func() {
		dir := GinkgoT().TempDir()
		path := filepath.Join(dir, "machine.json")

		cfg := latency.DefaultConfig()
		cfg.Latencies["BNE"] = 4
		Expect(cfg.SaveConfig(path)).To(Succeed())

		loaded, err := latency.LoadConfig(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(loaded.Latencies["BNE"]).To(Equal(4))
	})
})

var _ = Describe("Table", func() {
	It("should expose per-opcode lookups", func() {
		cfg := latency.DefaultConfig()
		cfg.Stations["LOAD"] = 2
		cfg.Latencies["LOAD"] = 5

		table, err := latency.NewTableWithConfig(cfg)
		Expect(err).NotTo(HaveOccurred())
		Expect(table.Stations(insts.OpLOAD)).To(Equal(2))
		Expect(table.Latency(insts.OpLOAD)).To(Equal(5))
		Expect(table.Stations(insts.OpADD)).To(Equal(2))
	})

	It("should reject invalid configurations", func() {
		cfg := latency.DefaultConfig()
		cfg.Stations["RET"] = 0
		_, err := latency.NewTableWithConfig(cfg)
		Expect(err).To(HaveOccurred())
	})

	It("should snapshot its configuration", func() {
		table := latency.NewTable()
		cfg := table.Config()
		cfg.Stations["ADD"] = 9
		Expect(table.Stations(insts.OpADD)).To(Equal(2))
	})
})
