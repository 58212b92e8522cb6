package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario describes a program and what must hold for it.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario checks.
	Description string `yaml:"description"`

	// Functions lists the program's functions, main first.
	Functions []FunctionSpec `yaml:"functions"`

	// ErrorTypes maps error selectors to their type description.
	ErrorTypes map[uint64]string `yaml:"error_types,omitempty"`

	// Assertions are evaluated against the built program.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// FunctionSpec describes one function.
type FunctionSpec struct {
	Name string `yaml:"name"`
	ID   uint32 `yaml:"id"`

	// Runtime defaults to acir(inline).
	Runtime string `yaml:"runtime,omitempty"`

	// Blocks lists the function's blocks, entry block first.
	Blocks []BlockSpec `yaml:"blocks"`

	// UsedGlobals lists value names recorded as the function's globals.
	UsedGlobals []string `yaml:"used_globals,omitempty"`
}

// BlockSpec describes one basic block.
type BlockSpec struct {
	Name         string            `yaml:"name"`
	Params       []ParamSpec       `yaml:"params,omitempty"`
	Instructions []InstructionSpec `yaml:"instructions,omitempty"`

	// Terminator is nil for a block left unterminated.
	Terminator *TerminatorSpec `yaml:"terminator,omitempty"`
}

// ParamSpec names a block parameter and its type.
type ParamSpec struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

// InstructionSpec describes one instruction, or an array literal when Op
// is "make_array".
type InstructionSpec struct {
	// Results names the values the instruction yields.
	Results []string `yaml:"results,omitempty"`

	// Op is a binary operator name or one of the instruction keywords.
	Op string `yaml:"op"`

	// Args are the operands in printed order.
	Args []string `yaml:"args,omitempty"`

	// Type is the cast target, allocated element type, loaded type,
	// array element type or array literal type.
	Type string `yaml:"type,omitempty"`

	// Types are the result types of a call.
	Types []string `yaml:"types,omitempty"`

	BitSize    uint32 `yaml:"bit_size,omitempty"`
	MaxBitSize uint32 `yaml:"max_bit_size,omitempty"`
	Mutable    bool   `yaml:"mutable,omitempty"`

	// Message is the static constrain error or range check message.
	Message string `yaml:"message,omitempty"`

	// Error is a dynamic constrain error payload.
	Error *ErrorSpec `yaml:"error,omitempty"`
}

// ErrorSpec is a dynamic constrain error.
type ErrorSpec struct {
	Selector uint64   `yaml:"selector"`
	Values   []string `yaml:"values"`
}

// TerminatorSpec ends a block.
type TerminatorSpec struct {
	// Kind is "jmp", "jmpif" or "return".
	Kind string `yaml:"kind"`

	// Block is the jmp destination.
	Block string `yaml:"block,omitempty"`

	// Condition, Then and Else describe a jmpif.
	Condition string `yaml:"condition,omitempty"`
	Then      string `yaml:"then,omitempty"`
	Else      string `yaml:"else,omitempty"`

	// Args are the jmp arguments or the returned values.
	Args []string `yaml:"args,omitempty"`
}

// Assertion checks a property of the built program.
type Assertion struct {
	// Type specifies the assertion type:
	// - "validation": validation codes equal Codes
	// - "entry_points": the entry-point index equals Expect
	// - "loops": loops of Function render as Loops
	// - "contains": the rendering contains every entry of Lines
	// - "round_trip": persisted form round-trips
	Type string `yaml:"type"`

	// Codes are the expected validation codes, in report order.
	Codes []string `yaml:"codes,omitempty"`

	// Expect maps "fN" to its entry-point index.
	Expect map[string]uint32 `yaml:"expect,omitempty"`

	// Function names the function for loops, as "fN".
	Function string `yaml:"function,omitempty"`

	// Loops are the expected loop renderings.
	Loops []string `yaml:"loops,omitempty"`

	// Lines are substrings the rendering must contain.
	Lines []string `yaml:"lines,omitempty"`
}

// Assertion type constants.
const (
	AssertValidation  = "validation"
	AssertEntryPoints = "entry_points"
	AssertLoops       = "loops"
	AssertContains    = "contains"
	AssertRoundTrip   = "round_trip"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Reject unknown fields so "assertion:" vs "assertions:" is caught
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Functions) == 0 {
		return fmt.Errorf("functions list is required and must be non-empty")
	}

	ids := make(map[uint32]bool)
	for i, fn := range s.Functions {
		if fn.Name == "" {
			return fmt.Errorf("functions[%d]: name is required", i)
		}
		if ids[fn.ID] {
			return fmt.Errorf("functions[%d]: duplicate id %d", i, fn.ID)
		}
		ids[fn.ID] = true
		if len(fn.Blocks) == 0 {
			return fmt.Errorf("functions[%d]: blocks list is required and must be non-empty", i)
		}
		blocks := make(map[string]bool)
		for j, b := range fn.Blocks {
			if b.Name == "" {
				return fmt.Errorf("functions[%d].blocks[%d]: name is required", i, j)
			}
			if blocks[b.Name] {
				return fmt.Errorf("functions[%d].blocks[%d]: duplicate block %q", i, j, b.Name)
			}
			blocks[b.Name] = true
			for k, instr := range b.Instructions {
				if instr.Op == "" {
					return fmt.Errorf("functions[%d].blocks[%d].instructions[%d]: op is required", i, j, k)
				}
			}
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertValidation, AssertRoundTrip:
	case AssertEntryPoints:
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for entry_points", index)
		}
	case AssertLoops:
		if a.Function == "" {
			return fmt.Errorf("assertions[%d]: function is required for loops", index)
		}
	case AssertContains:
		if len(a.Lines) == 0 {
			return fmt.Errorf("assertions[%d]: lines list is required for contains", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
