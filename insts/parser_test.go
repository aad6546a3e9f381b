package insts_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/nadabadawi/TomasuloSim/insts"
)

var _ = Describe("Parse", func() {
	It("should parse register-register arithmetic", func() {
		inst, err := insts.Parse("ADD R1, R2, R3")
		Expect(err).NotTo(HaveOccurred())
		Expect(inst.Op).To(Equal(insts.OpADD))
		Expect(inst.Rd).To(Equal(insts.Reg(1)))
		Expect(inst.Rs1).To(Equal(insts.Reg(2)))
		Expect(inst.Rs2).To(Equal(insts.Reg(3)))
	})

	It("should parse ADDI with a negative immediate", func() {
		inst, err := insts.Parse("ADDI R1, R2, -7")
		Expect(err).NotTo(HaveOccurred())
		Expect(inst.Op).To(Equal(insts.OpADDI))
		Expect(inst.Imm).To(Equal(int64(-7)))
	})

	It("should parse NEG with two operands", func() {
		inst, err := insts.Parse("NEG R4, R5")
		Expect(err).NotTo(HaveOccurred())
		Expect(inst.Rd).To(Equal(insts.Reg(4)))
		Expect(inst.Rs1).To(Equal(insts.Reg(5)))
	})

	It("should parse LOAD memory operands", func() {
		inst, err := insts.Parse("LOAD R4, 12(R2)")
		Expect(err).NotTo(HaveOccurred())
		Expect(inst.Op).To(Equal(insts.OpLOAD))
		Expect(inst.Rd).To(Equal(insts.Reg(4)))
		Expect(inst.Rs1).To(Equal(insts.Reg(2)))
		Expect(inst.Imm).To(Equal(int64(12)))
	})

	It("should parse STORE with the value register first", func() {
		inst, err := insts.Parse("STORE R3, 4(R1)")
		Expect(err).NotTo(HaveOccurred())
		Expect(inst.Rs2).To(Equal(insts.Reg(3)))
		Expect(inst.Rs1).To(Equal(insts.Reg(1)))
		Expect(inst.Imm).To(Equal(int64(4)))
	})

	It("should parse a memory operand with an omitted displacement", func() {
		inst, err := insts.Parse("LOAD R4, (R2)")
		Expect(err).NotTo(HaveOccurred())
		Expect(inst.Imm).To(Equal(int64(0)))
	})

	It("should parse BNE with a backward offset", func() {
		inst, err := insts.Parse("BNE R2, R3, -2")
		Expect(err).NotTo(HaveOccurred())
		Expect(inst.Op).To(Equal(insts.OpBNE))
		Expect(inst.Imm).To(Equal(int64(-2)))
	})

	It("should parse JAL and RET", func() {
		inst, err := insts.Parse("JAL 5")
		Expect(err).NotTo(HaveOccurred())
		Expect(inst.Op).To(Equal(insts.OpJAL))
		Expect(inst.Imm).To(Equal(int64(5)))

		inst, err = insts.Parse("RET")
		Expect(err).NotTo(HaveOccurred())
		Expect(inst.Op).To(Equal(insts.OpRET))
	})

	It("should be case-insensitive for mnemonics and registers", func() {
		inst, err := insts.Parse("add r1, r2, r3")
		Expect(err).NotTo(HaveOccurred())
		Expect(inst.Op).To(Equal(insts.OpADD))
	})

	It("should reject unknown opcodes", func() {
		_, err := insts.Parse("MUL R1, R2, R3")
		Expect(err).To(MatchError(ContainSubstring("unknown opcode")))
	})

	It("should reject wrong operand counts", func() {
		_, err := insts.Parse("ADD R1, R2")
		Expect(err).To(MatchError(ContainSubstring("expects 3 operands")))

		_, err = insts.Parse("RET R1")
		Expect(err).To(MatchError(ContainSubstring("expects 0 operands")))
	})

	It("should reject bad registers and immediates", func() {
		_, err := insts.Parse("ADD R1, R9, R3")
		Expect(err).To(MatchError(ContainSubstring("invalid register")))

		_, err = insts.Parse("ADDI R1, R2, seven")
		Expect(err).To(MatchError(ContainSubstring("invalid immediate")))

		_, err = insts.Parse("LOAD R1, R2")
		Expect(err).To(MatchError(ContainSubstring("memory operand")))
	})
})
