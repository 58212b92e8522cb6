package harness

import (
	"fmt"
	"log/slog"
)

// Run builds the scenario's program, renders it and evaluates every
// assertion. An error is returned only when the program cannot be
// built; failed assertions are reported on the Result.
func Run(scenario *Scenario) (*Result, error) {
	return RunWithLogger(scenario, slog.Default())
}

// RunWithLogger is Run with an explicit logger.
func RunWithLogger(scenario *Scenario, logger *slog.Logger) (*Result, error) {
	logger.Debug("running scenario", "scenario", scenario.Name, "functions", len(scenario.Functions))

	p, err := scenario.Build()
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}

	hash, err := p.Hash()
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}

	result := NewResult()
	result.Program = p
	result.Text = p.String()
	result.Hash = hash

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}

	logger.Info("scenario complete",
		"scenario", scenario.Name,
		"pass", result.Pass,
		"errors", len(result.Errors),
	)
	return result, nil
}
