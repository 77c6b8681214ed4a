// Package resolver implements the pipeline engine behind every read and
// write operation: an ordered, statically declared chain of stages sharing
// one request-scoped context, with short-circuiting on failure.
package resolver

import (
	"context"
	"fmt"
)

// Outcome tells the pipeline what to do after a stage returns.
type Outcome uint8

const (
	// Continue passes the (possibly mutated) context to the next stage.
	Continue Outcome = iota
	// Stop short-circuits the pipeline. The stage has already placed the
	// final result on the context; no further stages run.
	Stop
)

// A failing stage returns the zero Continue outcome together with its
// error; a stage never reports both a result and an error.

// Stage is one unit of pipeline work. Stage values are declared once and
// shared across concurrent requests, so Run must be stateless per call:
// everything request-scoped lives on the context value rc.
type Stage[C any] struct {
	// Name identifies the stage in configuration errors and logs.
	Name string
	// Writes lists the criteria or payload fragment keys this stage owns.
	// Two stages of one pipeline claiming the same key is a construction
	// error.
	Writes []string
	Run    func(ctx context.Context, rc C) (Outcome, error)
}

// Pipeline is an ordered sequence of stages bound to a single named
// operation. The stage list is fixed at construction and never mutated.
type Pipeline[C any] struct {
	operation string
	stages    []Stage[C]
}

// New builds a pipeline for the named operation. It rejects an empty stage
// list, duplicate stage names and conflicting fragment-key claims, so a
// misdeclared pipeline fails at wiring time rather than on first request.
func New[C any](operation string, stages ...Stage[C]) (*Pipeline[C], error) {
	if operation == "" {
		return nil, fmt.Errorf("pipeline: operation name is empty")
	}
	if len(stages) == 0 {
		return nil, fmt.Errorf("pipeline %s: no stages declared", operation)
	}

	names := make(map[string]struct{}, len(stages))
	keys := make(map[string]string)
	for _, s := range stages {
		if s.Name == "" {
			return nil, fmt.Errorf("pipeline %s: stage with empty name", operation)
		}
		if s.Run == nil {
			return nil, fmt.Errorf("pipeline %s: stage %s has no Run", operation, s.Name)
		}
		if _, ok := names[s.Name]; ok {
			return nil, fmt.Errorf("pipeline %s: duplicate stage %s", operation, s.Name)
		}
		names[s.Name] = struct{}{}

		for _, key := range s.Writes {
			if owner, ok := keys[key]; ok {
				return nil, fmt.Errorf(
					"pipeline %s: fragment %q claimed by both %s and %s",
					operation, key, owner, s.Name,
				)
			}
			keys[key] = s.Name
		}
	}

	return &Pipeline[C]{operation: operation, stages: stages}, nil
}

// Operation returns the operation name the pipeline was declared for.
func (p *Pipeline[C]) Operation() string {
	return p.operation
}

// Run executes the stages strictly in declared order. A stage error aborts
// the run and propagates to the caller unchanged. A Stop outcome ends the
// run successfully with whatever result the stage left on rc. Cancellation
// is checked between stages: the stage that is currently running finishes
// its unit of work, but no further stage starts.
func (p *Pipeline[C]) Run(ctx context.Context, rc C) error {
	for i := range p.stages {
		if err := ctx.Err(); err != nil {
			return err
		}

		outcome, err := p.stages[i].Run(ctx, rc)
		if err != nil {
			return err
		}
		if outcome == Stop {
			return nil
		}
	}

	return nil
}
