package validate

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/zkssa/internal/ir"
)

// Loop is a strongly connected set of blocks reachable from the entry
// block. A single block is a loop only when it jumps to itself.
type Loop struct {
	// Header is the first block of the loop reached by a depth-first
	// walk from the entry block.
	Header ir.BlockID

	// Blocks lists every block in the loop in ascending id order.
	Blocks []ir.BlockID
}

// String renders the loop as "b1: [b1, b2]".
func (l Loop) String() string {
	names := make([]string, len(l.Blocks))
	for i, b := range l.Blocks {
		names[i] = b.String()
	}
	return fmt.Sprintf("%s: [%s]", l.Header, strings.Join(names, ", "))
}

// Loops finds the loops of fn using Tarjan's strongly connected
// components algorithm over the reachable block graph.
//
// The algorithm:
//  1. Walk reachable blocks depth-first from the entry block
//  2. Use Tarjan's algorithm to find strongly connected components
//  3. Report each SCC with size > 1 or a self-loop
//
// Loops are returned in the walk order of their headers. An acyclic
// function returns an empty list.
func Loops(fn *ir.Function) []Loop {
	dfg := fn.DFG()
	if !dfg.HasBlock(fn.EntryBlock()) {
		return []Loop{}
	}

	order := fn.ReachableBlocks()
	position := make(map[ir.BlockID]int, len(order))
	for i, b := range order {
		position[b] = i
	}
	successors := func(b ir.BlockID) []ir.BlockID {
		block := dfg.Block(b)
		if block == nil {
			return nil
		}
		return block.Successors()
	}

	loops := []Loop{}
	for _, scc := range tarjanSCC(order, successors) {
		if len(scc) == 1 && !slices.Contains(successors(scc[0]), scc[0]) {
			continue
		}
		header := scc[0]
		for _, b := range scc[1:] {
			if position[b] < position[header] {
				header = b
			}
		}
		slices.Sort(scc)
		loops = append(loops, Loop{Header: header, Blocks: scc})
	}

	slices.SortFunc(loops, func(a, b Loop) int {
		return position[a.Header] - position[b.Header]
	})
	return loops
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm.
// Nodes are visited in the order given so the result is deterministic.
func tarjanSCC(nodes []ir.BlockID, successors func(ir.BlockID) []ir.BlockID) [][]ir.BlockID {
	var (
		index   = 0
		stack   []ir.BlockID
		indices = make(map[ir.BlockID]int)
		lowlink = make(map[ir.BlockID]int)
		onStack = make(map[ir.BlockID]bool)
		sccs    [][]ir.BlockID
	)

	var strongConnect func(ir.BlockID)
	strongConnect = func(v ir.BlockID) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range successors(v) {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		// v is a root node: pop the stack and emit an SCC
		if lowlink[v] == indices[v] {
			var scc []ir.BlockID
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	for _, node := range nodes {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}
	return sccs
}
