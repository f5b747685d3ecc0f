package host

import (
	"context"
	"time"

	"github.com/adbctl/adbctl/lib/pacer"
)

// NewPacer returns a pacer trying calls up to LowLevelRetries times,
// sleeping between tries as c says. Retries and sleep changes are
// logged at debug level and an error given up on is a RetryError.
func NewPacer(ctx context.Context, c pacer.Calculator) *pacer.Pacer {
	retries := GetConfig(ctx).LowLevelRetries
	if retries < 1 {
		retries = 1
	}
	if c == nil {
		c = pacer.NewDefault()
	}
	return pacer.New(
		pacer.RetriesOption(retries),
		pacer.CalculatorOption(loggedCalculator{c}),
		pacer.InvokerOption(func(try, tries int, f pacer.Paced) (bool, error) {
			retry, err := f()
			if !retry {
				return false, err
			}
			Debugf(nil, "Try %d/%d failed: %v", try, tries, err)
			return true, RetryError(err)
		}),
	)
}

// loggedCalculator logs when the wrapped Calculator changes the sleep
type loggedCalculator struct {
	pacer.Calculator
}

func (lc loggedCalculator) Calculate(state pacer.State) time.Duration {
	sleep := lc.Calculator.Calculate(state)
	if sleep != state.SleepTime {
		Debugf("pacer", "Sleep between tries now %v", sleep)
	}
	return sleep
}
