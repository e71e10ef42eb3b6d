package scenario

import (
	"context"
	"fmt"
	"time"

	"github.com/Aman-CERP/dichotomy/pkg/dichotomy"
)

// Evaluator runs a linear load flow on the active view of a Network and
// checks every line against its thermal limit.
type Evaluator struct {
	// Latency simulates the cost of a load flow. The wait honours ctx.
	Latency time.Duration
}

var _ dichotomy.Evaluator[Assessment] = (*Evaluator)(nil)

// Evaluate implements dichotomy.Evaluator.
//
// An exchange inside a failure band yields an EVALUATION_FAILED outcome, or a
// fatal error when the band is marked fatal.
func (e *Evaluator) Evaluate(ctx context.Context, sc dichotomy.Scenario, previous *dichotomy.Outcome[Assessment]) (dichotomy.Outcome[Assessment], error) {
	var zero dichotomy.Outcome[Assessment]
	network, ok := sc.(*Network)
	if !ok {
		return zero, fmt.Errorf("evaluate: unsupported scenario type %T", sc)
	}
	if err := e.wait(ctx); err != nil {
		return zero, err
	}

	exchange := network.Exchange()
	for _, band := range network.model.Bands {
		if !band.contains(exchange[band.Key]) {
			continue
		}
		msg := band.Message
		if msg == "" {
			msg = fmt.Sprintf("load flow diverged at %s=%g", band.Key, exchange[band.Key])
		}
		if band.Fatal {
			return zero, fmt.Errorf("load flow crashed: %s", msg)
		}
		return dichotomy.Failure[Assessment](dichotomy.ReasonEvaluationFailed, msg), nil
	}

	a := network.model.assess(exchange)
	a.WarmStart = previous != nil
	if a.Secure() {
		return dichotomy.Valid(a), nil
	}
	return dichotomy.Invalid(dichotomy.ReasonUnsecureAfterEvaluation, a), nil
}

func (e *Evaluator) wait(ctx context.Context) error {
	if e.Latency <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(e.Latency)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", dichotomy.ErrInterrupted, ctx.Err())
	case <-timer.C:
		return nil
	}
}
