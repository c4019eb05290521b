package pipeline

import (
	"fmt"
	"reflect"
	"time"

	"github.com/google/uuid"
)

// Processor is a stage's unit of work. Arguments arrive in the order
// declared by Stage.Inputs. It returns a single value, or a slice whose
// elements are bound element-wise when the stage declares several outputs.
type Processor func(args ...any) (any, error)

// Stage is one named step in a plan.
type Stage struct {
	Name      string
	Processor Processor

	// Inputs are the value-store keys required by the processor; their
	// order matches the processor's positional arguments.
	Inputs []string

	// Outputs are the value-store keys the stage's result is bound to.
	Outputs []string

	// Cache is reserved for external memoization layers. The runner never
	// consults it.
	Cache bool

	// Retries is the number of extra attempts permitted after an initial
	// processor failure (total attempts = Retries + 1).
	Retries int
}

// Failure records the stage that aborted a run and why.
type Failure struct {
	Stage   string
	Message string
}

// RunResult is the terminal report of one Run invocation. On failure,
// Failures holds exactly one entry and Values reflects every stage that
// committed before the failing one.
type RunResult struct {
	Success  bool
	RunID    string
	Values   map[string]any
	Failures []Failure
}

// Logger receives one line per runner event. The default logger discards.
type Logger func(msg string)

// DefaultRetryDelay is the fixed pause between retry attempts.
const DefaultRetryDelay = 500 * time.Millisecond

// Runner executes a plan of stages. A Runner is immutable after
// construction and may be reused across many runs.
type Runner struct {
	stages  []Stage
	log     Logger
	sleeper Sleeper
	delay   time.Duration
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger installs a line logger for stage starts and failed attempts.
func WithLogger(log Logger) Option {
	return func(r *Runner) {
		if log != nil {
			r.log = log
		}
	}
}

// WithSleeper replaces the pause strategy used between retry attempts.
func WithSleeper(s Sleeper) Option {
	return func(r *Runner) {
		if s != nil {
			r.sleeper = s
		}
	}
}

// WithRetryDelay sets the fixed pause between retry attempts.
func WithRetryDelay(d time.Duration) Option {
	return func(r *Runner) { r.delay = d }
}

// NewRunner builds a Runner for the given plan. Stage names should be
// unique within a plan; duplicates are not rejected but produce ambiguous
// log output and failure reports.
func NewRunner(stages []Stage, opts ...Option) *Runner {
	r := &Runner{
		stages:  stages,
		log:     func(string) {},
		sleeper: DefaultSleeper,
		delay:   DefaultRetryDelay,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes every stage in declared order against a value store seeded
// from initial. It stops at the first failure and never attempts a stage
// after the failing one.
func (r *Runner) Run(initial map[string]any) RunResult {
	values := make(map[string]any, len(initial))
	for k, v := range initial {
		values[k] = v
	}
	runID := uuid.New().String()

	for _, stage := range r.stages {
		r.log("Running stage: " + stage.Name)

		missing := missingInputs(stage.Inputs, values)
		if len(missing) > 0 {
			return failure(runID, values, stage.Name, fmt.Sprintf("Missing inputs: %v", missing))
		}

		args := make([]any, len(stage.Inputs))
		for i, key := range stage.Inputs {
			args[i] = values[key]
		}

		result, err := r.runWithRetries(stage, args)
		if err != nil {
			return failure(runID, values, stage.Name, err.Error())
		}

		if err := bindOutputs(stage, result, values); err != nil {
			return failure(runID, values, stage.Name, err.Error())
		}
	}

	return RunResult{Success: true, RunID: runID, Values: values, Failures: []Failure{}}
}

func failure(runID string, values map[string]any, stage, message string) RunResult {
	return RunResult{
		RunID:    runID,
		Values:   values,
		Failures: []Failure{{Stage: stage, Message: message}},
	}
}

func missingInputs(inputs []string, values map[string]any) []string {
	var missing []string
	for _, key := range inputs {
		if _, ok := values[key]; !ok {
			missing = append(missing, key)
		}
	}
	return missing
}

// bindOutputs commits a successful result to the value store. A stage with
// one output key receives the whole result, even when the result is itself
// a slice. Multi-output stages require a slice or array whose length equals
// the number of output keys. A stage either commits all its outputs or
// none.
func bindOutputs(stage Stage, result any, values map[string]any) error {
	if len(stage.Outputs) == 1 {
		values[stage.Outputs[0]] = result
		return nil
	}
	if result != nil {
		rv := reflect.ValueOf(result)
		if (rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array) && rv.Len() == len(stage.Outputs) {
			for i, key := range stage.Outputs {
				values[key] = rv.Index(i).Interface()
			}
			return nil
		}
	}
	return fmt.Errorf("stage %s returned unexpected output format: %v", stage.Name, result)
}
