package program

import (
	"fmt"
	"math"
	"sync/atomic"

	"github.com/roach88/zkssa/internal/ir"
)

// FunctionIDCounter allocates program-wide function ids.
//
// Every call to Next returns an id strictly greater than any id handed
// out before it and greater than the seed, so independent builders that
// share one counter never collide.
//
// Thread-safety: FunctionIDCounter is safe for concurrent use (atomic
// operations).
type FunctionIDCounter struct {
	last atomic.Uint32
}

// NewFunctionIDCounterAfter creates a counter whose first Next returns
// seed+1.
func NewFunctionIDCounterAfter(seed ir.FunctionID) *FunctionIDCounter {
	c := &FunctionIDCounter{}
	c.last.Store(uint32(seed))
	return c
}

// Next returns the next function id and advances the counter.
// Calls are linearizable - each call returns a unique, increasing value.
// Next panics with ErrCodeFunctionIDOverflow once the id space is used up;
// the counter is left at the maximum id.
func (c *FunctionIDCounter) Next() ir.FunctionID {
	for {
		last := c.last.Load()
		if last == math.MaxUint32 {
			panic(&InvariantError{
				Code:    ErrCodeFunctionIDOverflow,
				Message: fmt.Sprintf("no function id after %s", ir.FunctionID(last)),
			})
		}
		if c.last.CompareAndSwap(last, last+1) {
			return ir.FunctionID(last + 1)
		}
	}
}

// Current returns the most recently allocated id (or the seed) without
// advancing.
func (c *FunctionIDCounter) Current() ir.FunctionID {
	return ir.FunctionID(c.last.Load())
}
