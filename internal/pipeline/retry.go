package pipeline

import (
	"fmt"
	"time"
)

// Sleeper pauses between retry attempts, allowing tests to override delays.
type Sleeper interface {
	Sleep(d time.Duration)
}

type realSleeper struct{}

func (realSleeper) Sleep(d time.Duration) { time.Sleep(d) }

// DefaultSleeper blocks the calling goroutine with time.Sleep.
var DefaultSleeper Sleeper = realSleeper{}

// NopSleeper skips the retry pause entirely.
type NopSleeper struct{}

// Sleep returns immediately.
func (NopSleeper) Sleep(time.Duration) {}

// runWithRetries invokes the stage's processor up to Retries+1 times,
// strictly sequentially, pausing after every failed attempt. Only the final
// attempt's error survives; any successful attempt returns immediately.
func (r *Runner) runWithRetries(stage Stage, args []any) (any, error) {
	attempts := stage.Retries + 1
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		value, err := callProcessor(stage.Processor, args)
		if err == nil {
			return value, nil
		}
		lastErr = err
		r.log(fmt.Sprintf("Attempt %d/%d failed for stage %s: %v", attempt, attempts, stage.Name, err))
		r.sleeper.Sleep(r.delay)
	}
	return nil, lastErr
}

// callProcessor converts a processor panic into an error so a misbehaving
// collaborator burns a retry attempt instead of crashing the run.
func callProcessor(p Processor, args []any) (value any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("processor panic: %v", rec)
		}
	}()
	return p(args...)
}
