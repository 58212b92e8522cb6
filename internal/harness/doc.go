// Package harness runs SSA program scenarios described in YAML.
//
// A scenario lists the functions of a program block by block. The
// harness builds the program through the builder package, renders it and
// evaluates the scenario's assertions against the result.
//
// # Scenario Format
//
//	name: add_mul
//	description: "What this scenario checks"
//	functions:
//	  - name: main
//	    id: 0
//	    runtime: acir(inline)
//	    blocks:
//	      - name: entry
//	        params: [{name: x, type: Field}]
//	        instructions:
//	          - {results: [sum], op: add, args: [x, "Field 1"]}
//	          - {results: [prod], op: mul, args: [sum, "Field 3"]}
//	        terminator: {kind: return, args: [prod]}
//	assertions:
//	  - type: validation
//	  - type: entry_points
//	    expect: {f0: 0}
//
// The first function is main and the first block of each function is
// its entry block. Block parameters are created before any instruction,
// so jumps may pass values to blocks declared further down.
//
// # Operands
//
// An operand is one of:
//
//   - a value name bound by a parameter or an instruction result
//   - a numeric constant written as "<type> <decimal>", e.g. "u32 7"
//   - a function reference "fN"
//   - "@name" for an intrinsic, or a foreign function when no intrinsic
//     has that name
//
// # Assertion Types
//
//   - validation: the program validates with exactly the listed codes
//     (none when codes is omitted)
//   - entry_points: the finalized entry-point index equals expect
//   - loops: the loops of one function render as expect
//   - contains: the rendering contains every line of lines
//   - round_trip: the persisted form decodes to the same rendering and hash
//
// # Golden Files
//
// RunWithGolden compares the rendering with
// testdata/golden/<name>.golden. To regenerate golden files, run:
//
//	go test ./internal/harness -update
package harness
