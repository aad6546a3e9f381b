// Package loader reads instruction files into programs the simulator can
// run.
//
// A program file is line-oriented assembly: one instruction per line,
// blank lines ignored, comments from '#' or "//" to end of line. Syntactic
// validation (opcode recognition, register names, immediate format, operand
// counts) happens here; the core assumes well-formed programs.
package loader

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/nadabadawi/TomasuloSim/insts"
)

// Program is a loaded instruction sequence ready for execution.
type Program struct {
	// Instructions is the ordered instruction sequence; the program
	// counter indexes into it.
	Instructions []insts.Instruction
}

// Load reads and validates a program file.
func Load(path string) (*Program, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open program file: %w", err)
	}
	defer func() { _ = f.Close() }()

	prog, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", path, err)
	}
	return prog, nil
}

// Read parses a program from a reader. Errors are prefixed with the
// 1-based line number.
func Read(r io.Reader) (*Program, error) {
	var prog Program
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := stripComment(scanner.Text())
		if strings.TrimSpace(line) == "" {
			continue
		}
		inst, err := insts.Parse(line)
		if err != nil {
			return nil, fmt.Errorf("%d: %w", lineNo, err)
		}
		prog.Instructions = append(prog.Instructions, inst)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%d: read failed: %w", lineNo, err)
	}
	if len(prog.Instructions) == 0 {
		return nil, fmt.Errorf("%d: program is empty", lineNo)
	}
	return &prog, nil
}

func stripComment(line string) string {
	if i := strings.Index(line, "#"); i >= 0 {
		line = line[:i]
	}
	if i := strings.Index(line, "//"); i >= 0 {
		line = line[:i]
	}
	return line
}
