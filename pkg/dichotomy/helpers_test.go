package dichotomy

import (
	"context"
	"fmt"
)

// memScenario is an in-memory Scenario whose views hold the last shifted value.
type memScenario struct {
	current string
	views   map[string]any
	clones  int
	removes int
}

func newMemScenario() *memScenario {
	return &memScenario{current: "base", views: map[string]any{"base": nil}}
}

func (m *memScenario) CurrentView() string { return m.current }

func (m *memScenario) CloneView(source, target string) error {
	v, ok := m.views[source]
	if !ok {
		return fmt.Errorf("unknown view %q", source)
	}
	if _, exists := m.views[target]; exists {
		return fmt.Errorf("view %q already exists", target)
	}
	m.views[target] = v
	m.clones++
	return nil
}

func (m *memScenario) SwitchView(id string) error {
	if _, ok := m.views[id]; !ok {
		return fmt.Errorf("unknown view %q", id)
	}
	m.current = id
	return nil
}

func (m *memScenario) RemoveView(id string) error {
	if id == m.current {
		return fmt.Errorf("cannot remove current view %q", id)
	}
	delete(m.views, id)
	m.removes++
	return nil
}

func (m *memScenario) value() any { return m.views[m.current] }

// storeShifter writes the target into the active view and records every call.
func storeShifter[V Variable[V]](calls *[]V) ShifterFunc[V] {
	return func(_ context.Context, target V, s Scenario) error {
		if calls != nil {
			*calls = append(*calls, target)
		}
		m := s.(*memScenario)
		m.views[m.current] = target
		return nil
	}
}

// below returns an evaluator that is valid iff the shifted scalar is below threshold.
func below(threshold Scalar) EvaluatorFunc[string] {
	return func(_ context.Context, s Scenario, _ *Outcome[string]) (Outcome[string], error) {
		v := s.(*memScenario).value().(Scalar)
		if v < threshold {
			return Valid(fmt.Sprintf("secure at %s", v)), nil
		}
		return Invalid(ReasonUnsecureAfterEvaluation, fmt.Sprintf("unsecure at %s", v)), nil
	}
}

func always(valid bool) EvaluatorFunc[string] {
	return func(context.Context, Scenario, *Outcome[string]) (Outcome[string], error) {
		if valid {
			return Valid("ok"), nil
		}
		return Invalid(ReasonUnsecureAfterEvaluation, "ko"), nil
	}
}

// scriptedStrategy probes a fixed list of values and converges when it runs out.
type scriptedStrategy struct {
	values []Scalar
}

func (s *scriptedStrategy) Converged(view View[Scalar]) bool { return view.Len() >= len(s.values) }

func (s *scriptedStrategy) NextValue(view View[Scalar]) (Scalar, error) {
	if s.Converged(view) {
		return 0, preconditionError("scripted")
	}
	return s.values[view.Len()], nil
}

// recordingObserver keeps every event it receives.
type recordingObserver struct {
	started  []RunInfo
	probes   []ProbeEvent
	finished []Summary
}

func (r *recordingObserver) RunStarted(_ context.Context, info RunInfo) {
	r.started = append(r.started, info)
}

func (r *recordingObserver) ProbeCompleted(_ context.Context, e ProbeEvent) {
	r.probes = append(r.probes, e)
}

func (r *recordingObserver) RunFinished(_ context.Context, s Summary) {
	r.finished = append(r.finished, s)
}

func scalars(steps []Step[string, Scalar]) []Scalar {
	out := make([]Scalar, len(steps))
	for i, s := range steps {
		out[i] = s.Value
	}
	return out
}

func validity(steps []Step[string, Scalar]) []bool {
	out := make([]bool, len(steps))
	for i, s := range steps {
		out[i] = s.Outcome.IsValid()
	}
	return out
}
