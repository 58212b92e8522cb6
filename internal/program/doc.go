// Package program holds the multi-function SSA Program container.
//
// A Program owns its functions keyed by id and iterated in ascending id
// order, the designated main function, a program-wide function id
// counter, the per-function used-globals sets and the error selector
// metadata used when rendering dynamic constrain errors.
//
// Lifecycle:
//   - New builds a Program from a non-empty function list; the first
//     function is main and the counter is seeded past the largest id.
//   - AddFunction inserts further functions with ids drawn from Counter.
//   - GenerateEntryPointIndex finalizes the entry-point index. Reading the
//     index before that is a programming error and panics.
//
// Only functions, used globals and the main id are persisted; see
// Marshal and Unmarshal.
package program
