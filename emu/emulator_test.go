package emu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/nadabadawi/TomasuloSim/emu"
	"github.com/nadabadawi/TomasuloSim/insts"
)

func mustParse(lines ...string) []insts.Instruction {
	program := make([]insts.Instruction, 0, len(lines))
	for _, line := range lines {
		inst, err := insts.Parse(line)
		Expect(err).NotTo(HaveOccurred())
		program = append(program, inst)
	}
	return program
}

var _ = Describe("RegFile", func() {
	It("should power on with each register holding its index", func() {
		r := emu.NewRegFile()
		for i := 0; i < insts.NumRegs; i++ {
			Expect(r.Read(insts.Reg(i))).To(Equal(int64(i)))
		}
	})

	It("should keep R0 at zero through writes", func() {
		r := emu.NewRegFile()
		r.Write(0, 42)
		Expect(r.Read(0)).To(Equal(int64(0)))
	})
})

var _ = Describe("Memory", func() {
	It("should read back written words", func() {
		m := emu.NewMemory(16)
		Expect(m.Write(3, 99)).To(Succeed())
		v, err := m.Read(3)
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(Equal(int64(99)))
	})

	It("should reject out-of-range accesses", func() {
		m := emu.NewMemory(16)
		_, err := m.Read(16)
		Expect(err).To(MatchError(ContainSubstring("out of range")))
		Expect(m.Write(-1, 5)).To(MatchError(ContainSubstring("out of range")))
	})
})

var _ = Describe("Emulator", func() {
	Context("arithmetic instructions", func() {
		It("should execute ADD", func() {
			e := emu.NewEmulator(mustParse("ADD R1, R2, R3"))
			Expect(e.Run().Err).To(BeNil())
			Expect(e.RegFile().Read(1)).To(Equal(int64(5)))
		})

		It("should execute ADDI", func() {
			e := emu.NewEmulator(mustParse("ADDI R4, R2, 6"))
			Expect(e.Run().Err).To(BeNil())
			Expect(e.RegFile().Read(4)).To(Equal(int64(8)))
		})

		It("should execute NEG as arithmetic negation", func() {
			e := emu.NewEmulator(mustParse("NEG R4, R3"))
			Expect(e.Run().Err).To(BeNil())
			Expect(e.RegFile().Read(4)).To(Equal(int64(-3)))
		})

		It("should execute NAND", func() {
			e := emu.NewEmulator(mustParse("NAND R4, R5, R6"))
			Expect(e.Run().Err).To(BeNil())
			Expect(e.RegFile().Read(4)).To(Equal(int64(^(int64(5) & int64(6)))))
		})

		It("should execute SLL with the second register as shift count", func() {
			e := emu.NewEmulator(mustParse("SLL R4, R3, R2"))
			Expect(e.Run().Err).To(BeNil())
			Expect(e.RegFile().Read(4)).To(Equal(int64(12)))
		})

		It("should never write R0", func() {
			e := emu.NewEmulator(mustParse("ADDI R0, R2, 6"))
			Expect(e.Run().Err).To(BeNil())
			Expect(e.RegFile().Read(0)).To(Equal(int64(0)))
		})
	})

	Context("memory instructions", func() {
		It("should store then load through memory", func() {
			e := emu.NewEmulator(
				mustParse("STORE R5, 2(R0)", "LOAD R7, 2(R0)"),
				emu.WithMemory(emu.NewMemory(8)),
			)
			Expect(e.Run().Err).To(BeNil())
			v, err := e.Memory().Read(2)
			Expect(err).NotTo(HaveOccurred())
			Expect(v).To(Equal(int64(5)))
			Expect(e.RegFile().Read(7)).To(Equal(int64(5)))
		})

		It("should fail on out-of-range addresses", func() {
			e := emu.NewEmulator(
				mustParse("LOAD R4, 100(R0)"),
				emu.WithMemory(emu.NewMemory(8)),
			)
			Expect(e.Run().Err).To(MatchError(ContainSubstring("out of range")))
		})
	})

	Context("control flow", func() {
		It("should fall through a not-taken BNE", func() {
			e := emu.NewEmulator(mustParse(
				"BNE R2, R2, 2",
				"ADDI R4, R0, 9",
			))
			Expect(e.Run().Err).To(BeNil())
			Expect(e.RegFile().Read(4)).To(Equal(int64(9)))
		})

		It("should take a BNE when operands differ", func() {
			e := emu.NewEmulator(mustParse(
				"BNE R2, R3, 2",
				"ADDI R4, R0, 9",
				"ADDI R5, R0, 7",
			))
			Expect(e.Run().Err).To(BeNil())
			Expect(e.RegFile().Read(4)).To(Equal(int64(4))) // skipped
			Expect(e.RegFile().Read(5)).To(Equal(int64(7)))
		})

		It("should link pc+1 into R1 on JAL", func() {
			e := emu.NewEmulator(mustParse(
				"JAL 2",
				"ADDI R4, R0, 9",
				"ADDI R5, R0, 7",
			))
			Expect(e.Run().Err).To(BeNil())
			Expect(e.RegFile().Read(1)).To(Equal(int64(1)))
			Expect(e.RegFile().Read(4)).To(Equal(int64(4))) // skipped
			Expect(e.RegFile().Read(5)).To(Equal(int64(7)))
		})

		It("should return through R1 on RET", func() {
			e := emu.NewEmulator(mustParse(
				"ADDI R1, R0, 3", // return address
				"RET",            // jumps to pc 3
				"ADDI R5, R0, 7", // skipped
				"ADDI R4, R0, 9",
			))
			Expect(e.Run().Err).To(BeNil())
			Expect(e.RegFile().Read(4)).To(Equal(int64(9)))
			Expect(e.RegFile().Read(5)).To(Equal(int64(5))) // untouched
		})

		It("should stop at the instruction limit on runaway loops", func() {
			e := emu.NewEmulator(
				mustParse("BNE R2, R3, 0"),
				emu.WithMaxInstructions(100),
			)
			Expect(e.Run().Err).To(MatchError(ContainSubstring("instruction limit")))
		})
	})
})
