package scenario

import (
	"fmt"
	"math"
	"sort"
)

// DefaultKey names the exchange of a scalar search.
const DefaultKey = "exchange"

// Line is a monitored branch.
type Line struct {
	ID string `yaml:"id" json:"id" validate:"required"`
	// BaseFlow is the flow at zero exchange, in MW.
	BaseFlow float64 `yaml:"base_flow" json:"base_flow"`
	// Sensitivity is the flow change per MW of exchange, per exchange key.
	Sensitivity map[string]float64 `yaml:"sensitivity" json:"sensitivity" validate:"required,min=1"`
	// Limit is the thermal limit in MW, applied to the absolute flow.
	Limit float64 `yaml:"limit" json:"limit" validate:"gt=0"`
}

// Band is an exchange interval on one key where the load flow does not
// converge. A fatal band aborts the search instead of failing the probe.
type Band struct {
	Key     string  `yaml:"key" json:"key" validate:"required"`
	From    float64 `yaml:"from" json:"from"`
	To      float64 `yaml:"to" json:"to" validate:"gtefield=From"`
	Fatal   bool    `yaml:"fatal,omitempty" json:"fatal,omitempty"`
	Message string  `yaml:"message,omitempty" json:"message,omitempty"`
}

func (b Band) contains(v float64) bool { return v >= b.From && v <= b.To }

// Range bounds the exchange a shifter can realize on one key.
type Range struct {
	Min float64 `yaml:"min" json:"min"`
	Max float64 `yaml:"max" json:"max" validate:"gtefield=Min"`
}

// Model is the static description of a network.
type Model struct {
	Name  string `yaml:"name" json:"name"`
	Lines []Line `yaml:"lines" json:"lines" validate:"required,min=1,dive"`
	// ShiftLimits restricts the realizable exchange per key. Keys without a
	// limit are unbounded.
	ShiftLimits map[string]Range `yaml:"shift_limits,omitempty" json:"shift_limits,omitempty" validate:"dive"`
	Bands       []Band           `yaml:"failure_bands,omitempty" json:"failure_bands,omitempty" validate:"dive"`
}

// Keys returns the sorted exchange keys used by the line sensitivities.
func (m Model) Keys() []string {
	seen := make(map[string]bool)
	for _, l := range m.Lines {
		for k := range l.Sensitivity {
			seen[k] = true
		}
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// CheckKeys reports an error when the model references a key outside keys.
func (m Model) CheckKeys(keys []string) error {
	allowed := make(map[string]bool, len(keys))
	for _, k := range keys {
		allowed[k] = true
	}
	for _, l := range m.Lines {
		for k := range l.Sensitivity {
			if !allowed[k] {
				return fmt.Errorf("line %s: sensitivity key %q is not a search key %v", l.ID, k, keys)
			}
		}
	}
	for k := range m.ShiftLimits {
		if !allowed[k] {
			return fmt.Errorf("shift limit key %q is not a search key %v", k, keys)
		}
	}
	for _, b := range m.Bands {
		if !allowed[b.Key] {
			return fmt.Errorf("failure band key %q is not a search key %v", b.Key, keys)
		}
	}
	return nil
}

// Flows computes every line flow for an exchange.
func (m Model) Flows(exchange map[string]float64) map[string]float64 {
	flows := make(map[string]float64, len(m.Lines))
	for _, l := range m.Lines {
		f := l.BaseFlow
		for k, s := range l.Sensitivity {
			f += s * exchange[k]
		}
		flows[l.ID] = f
	}
	return flows
}

// Assessment is the evaluation payload: the limiting line and its margin.
type Assessment struct {
	LimitingLine string             `yaml:"limiting_line" json:"limiting_line"`
	Margin       float64            `yaml:"margin" json:"margin"`
	Flows        map[string]float64 `yaml:"flows" json:"flows"`
	WarmStart    bool               `yaml:"warm_start" json:"warm_start"`
}

// Secure reports whether every line is within its limit.
func (a Assessment) Secure() bool { return a.Margin >= 0 }

// assess evaluates the model at an exchange.
func (m Model) assess(exchange map[string]float64) Assessment {
	a := Assessment{Flows: m.Flows(exchange), Margin: math.Inf(1)}
	for _, l := range m.Lines {
		margin := l.Limit - math.Abs(a.Flows[l.ID])
		if margin < a.Margin {
			a.Margin, a.LimitingLine = margin, l.ID
		}
	}
	return a
}
