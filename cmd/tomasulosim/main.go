// Package main provides the TomasuloSim command line interface.
package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/sarchlab/akita/v4/sim"
	"gopkg.in/urfave/cli.v1"

	"github.com/nadabadawi/TomasuloSim/emu"
	"github.com/nadabadawi/TomasuloSim/insts"
	"github.com/nadabadawi/TomasuloSim/loader"
	"github.com/nadabadawi/TomasuloSim/timing/core"
	"github.com/nadabadawi/TomasuloSim/timing/latency"
	"github.com/nadabadawi/TomasuloSim/timing/tomasulo"
)

func main() {
	app := cli.NewApp()
	app.Name = "tomasulosim"
	app.Usage = "cycle-accurate simulator of Tomasulo's out-of-order algorithm"
	app.ArgsUsage = "<program.asm>"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "config, c",
			Usage: "machine configuration file (JSON or TOML): station counts and latencies",
		},
		cli.IntFlag{
			Name:  "mem-words",
			Usage: "memory size in words",
			Value: emu.DefaultMemWords,
		},
		cli.Uint64Flag{
			Name:  "max-cycles",
			Usage: "abort if the program has not terminated after this many cycles, or instructions with -functional (0 = no limit)",
			Value: 1_000_000,
		},
		cli.BoolFlag{
			Name:  "trace",
			Usage: "print per-cycle issue/execute/write-back events",
		},
		cli.BoolFlag{
			Name:  "functional",
			Usage: "run the sequential reference interpreter instead of the timing model",
		},
		cli.BoolFlag{
			Name:  "dump-memory",
			Usage: "include non-zero memory words in the final report",
		},
	}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(ctx *cli.Context) error {
	if ctx.NArg() < 1 {
		return cli.NewExitError("usage: tomasulosim [options] <program.asm>", 1)
	}

	prog, err := loader.Load(ctx.Args().First())
	if err != nil {
		return err
	}

	cfg := latency.DefaultConfig()
	if path := ctx.String("config"); path != "" {
		cfg, err = latency.LoadConfig(path)
		if err != nil {
			return err
		}
	}
	table, err := latency.NewTableWithConfig(cfg)
	if err != nil {
		return err
	}

	memory := emu.NewMemory(ctx.Int("mem-words"))

	if ctx.Bool("functional") {
		return runFunctional(ctx, prog, memory)
	}
	return runTiming(ctx, prog, table, memory)
}

func runFunctional(ctx *cli.Context, prog *loader.Program, memory *emu.Memory) error {
	emulator := emu.NewEmulator(prog.Instructions,
		emu.WithMemory(memory),
		emu.WithMaxInstructions(ctx.Uint64("max-cycles")),
	)
	if result := emulator.Run(); result.Err != nil {
		return result.Err
	}

	reportRegisters(emulator.RegFile().Snapshot())
	if ctx.Bool("dump-memory") {
		reportMemory(memory)
	}
	fmt.Printf("Instructions executed: %d\n", emulator.InstructionCount())
	return nil
}

func runTiming(ctx *cli.Context, prog *loader.Program, table *latency.Table, memory *emu.Memory) error {
	machine, err := core.NewCore(prog.Instructions,
		core.WithTable(table),
		core.WithMemory(memory),
		core.WithMaxCycles(ctx.Uint64("max-cycles")),
	)
	if err != nil {
		return err
	}

	if ctx.Bool("trace") {
		machine.Scheduler.AcceptHook(&traceHook{})
	}

	result, err := machine.Run()
	if err != nil {
		return err
	}

	reportRegisters(result.Registers)
	if ctx.Bool("dump-memory") {
		reportMemory(memory)
	}

	stats := machine.Stats()
	fmt.Printf("Clock cycles: %d\n", result.Cycles)
	fmt.Printf("Instructions issued: %d, stalls: %d, flushes: %d\n",
		stats.Instructions, stats.Stalls, stats.Flushes)
	return nil
}

func reportRegisters(regs [insts.NumRegs]int64) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Register", "Value"})
	for i, v := range regs {
		table.Append([]string{insts.Reg(i).String(), fmt.Sprintf("%d", v)})
	}
	table.Render()
}

func reportMemory(memory *emu.Memory) {
	nonZero := memory.NonZero()
	addrs := make([]int64, 0, len(nonZero))
	for addr := range nonZero {
		addrs = append(addrs, addr)
	}
	sort.Slice(addrs, func(i, j int) bool { return addrs[i] < addrs[j] })

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Address", "Value"})
	for _, addr := range addrs {
		table.Append([]string{fmt.Sprintf("%d", addr), fmt.Sprintf("%d", nonZero[addr])})
	}
	table.Render()
}

// traceHook renders scheduler events, one line per event.
type traceHook struct{}

var (
	issueColor = color.New(color.FgCyan)
	execColor  = color.New(color.FgYellow)
	writeColor = color.New(color.FgGreen)
	flushColor = color.New(color.FgRed)
)

// Func implements sim.Hook.
func (h *traceHook) Func(ctx sim.HookCtx) {
	ev, ok := ctx.Item.(tomasulo.TraceEvent)
	if !ok {
		return
	}

	switch ctx.Pos {
	case tomasulo.HookPosIssue:
		issueColor.Printf("[%4d] issue     %-6s pc=%d\n", ev.Cycle, ev.Tag, ev.PC)
	case tomasulo.HookPosExecute:
		marker := ""
		if ev.Completed {
			marker = " done"
		}
		execColor.Printf("[%4d] execute   %-6s pc=%d%s\n", ev.Cycle, ev.Tag, ev.PC, marker)
	case tomasulo.HookPosWriteBack:
		if ev.Op.IsBranchLike() || ev.Op == insts.OpJAL {
			writeColor.Printf("[%4d] writeback %-6s pc=%d target=%d\n", ev.Cycle, ev.Tag, ev.PC, ev.Target)
		} else {
			writeColor.Printf("[%4d] writeback %-6s pc=%d value=%d\n", ev.Cycle, ev.Tag, ev.PC, ev.Value)
		}
	case tomasulo.HookPosFlush:
		flushColor.Printf("[%4d] flush     %-6s pc=%d\n", ev.Cycle, ev.Tag, ev.PC)
	}
}
