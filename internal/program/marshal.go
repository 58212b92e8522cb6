package program

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"

	"github.com/roach88/zkssa/internal/ir"
)

// programJSON is the persisted form. The entry-point index and error
// types are deliberately absent.
type programJSON struct {
	MainID      ir.FunctionID                  `json:"main_id"`
	Functions   []*ir.Function                 `json:"functions"`
	UsedGlobals map[ir.FunctionID][]ir.ValueID `json:"used_globals"`
}

// MarshalJSON implements json.Marshaler. Functions are written in
// ascending id order.
func (p *Program) MarshalJSON() ([]byte, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := programJSON{
		MainID:      p.mainID,
		Functions:   make([]*ir.Function, len(p.order)),
		UsedGlobals: make(map[ir.FunctionID][]ir.ValueID, len(p.usedGlobals)),
	}
	for i, id := range p.order {
		out.Functions[i] = p.functions[id]
	}
	for fn, values := range p.usedGlobals {
		out.UsedGlobals[fn] = append([]ir.ValueID{}, values...)
	}
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler. The payload is validated
// against the program schema first. The decoded Program has its counter
// seeded past the largest id, an unfinalized entry-point index and no
// error types.
func (p *Program) UnmarshalJSON(data []byte) error {
	if err := ValidateSchema(data); err != nil {
		return fmt.Errorf("program: %w", err)
	}

	var raw programJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("program: %w", err)
	}

	decoded := &Program{
		functions:   make(map[ir.FunctionID]*ir.Function, len(raw.Functions)),
		mainID:      raw.MainID,
		usedGlobals: make(map[ir.FunctionID][]ir.ValueID, len(raw.UsedGlobals)),
		errorTypes:  make(map[ir.ErrorSelector]ErrorType),
		logger:      p.logger,
	}
	if decoded.logger == nil {
		decoded.logger = slog.Default()
	}

	var maxID ir.FunctionID
	for i, f := range raw.Functions {
		if f == nil {
			return fmt.Errorf("program: functions[%d] is null", i)
		}
		if _, dup := decoded.functions[f.ID()]; dup {
			return fmt.Errorf("program: function %s appears twice", f.ID())
		}
		decoded.functions[f.ID()] = f
		decoded.order = append(decoded.order, f.ID())
		maxID = max(maxID, f.ID())
	}
	slices.Sort(decoded.order)

	if _, ok := decoded.functions[raw.MainID]; !ok {
		return fmt.Errorf("program: main function %s is missing", raw.MainID)
	}
	for fn, values := range raw.UsedGlobals {
		f, ok := decoded.functions[fn]
		if !ok {
			return fmt.Errorf("program: used globals recorded for unknown function %s", fn)
		}
		decoded.usedGlobals[fn] = normalizeGlobals(f.DFG(), values)
	}
	decoded.counter = NewFunctionIDCounterAfter(maxID)

	// assign field by field; Program holds a lock and must not be copied
	p.functions = decoded.functions
	p.order = decoded.order
	p.mainID = decoded.mainID
	p.counter = decoded.counter
	p.usedGlobals = decoded.usedGlobals
	p.errorTypes = decoded.errorTypes
	p.finalized = false
	p.entryPoints = nil
	p.logger = decoded.logger

	p.logger.Debug("program decoded",
		"functions", len(p.order),
		"main", p.mainID.String(),
	)
	return nil
}

// Marshal encodes p in its persisted form.
func Marshal(p *Program) ([]byte, error) {
	return json.Marshal(p)
}

// Unmarshal decodes a persisted Program. The entry-point index must be
// generated again and error types supplied again before use.
func Unmarshal(data []byte, opts ...Option) (*Program, error) {
	p := &Program{}
	for _, opt := range opts {
		opt(p)
	}
	errorTypes := p.errorTypes
	if err := p.UnmarshalJSON(data); err != nil {
		return nil, err
	}
	if errorTypes != nil {
		p.errorTypes = errorTypes
	}
	return p, nil
}
