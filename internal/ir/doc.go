// Package ir provides the SSA intermediate representation for zkssa.
//
// This package owns the per-function data model: identifiers, types,
// values, instructions, terminators, basic blocks and the DataFlowGraph
// that is the only mutation surface for a function. It also renders the
// canonical textual form and provides canonical JSON for hashing.
//
// All other internal packages import ir; ir imports nothing internal.
//
// Key design constraints:
//   - Every instruction result is defined by exactly one instruction
//   - Aliased values are resolved through DataFlowGraph.Resolve, never by
//     rewriting handles in place
//   - Block graphs may contain cycles; every traversal keeps a visited set
//   - All JSON tags use snake_case
package ir
