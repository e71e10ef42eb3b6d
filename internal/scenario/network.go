package scenario

import (
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/Aman-CERP/dichotomy/pkg/dichotomy"
)

// BaseView is the ID of the view a new Network starts on.
const BaseView = "base"

// Network is an in-memory scenario over a Model. Each view holds the exchange
// applied to it; the base view starts at zero exchange.
//
// Network is safe for concurrent use.
type Network struct {
	model Model

	mu      sync.Mutex
	current string
	views   map[string]map[string]float64
}

var _ dichotomy.Scenario = (*Network)(nil)

// NewNetwork returns a network positioned on BaseView.
func NewNetwork(model Model) *Network {
	return &Network{
		model:   model,
		current: BaseView,
		views:   map[string]map[string]float64{BaseView: {}},
	}
}

// Model returns the static network description.
func (n *Network) Model() Model { return n.model }

// CurrentView implements dichotomy.Scenario.
func (n *Network) CurrentView() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}

// CloneView implements dichotomy.Scenario.
func (n *Network) CloneView(source, target string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	src, ok := n.views[source]
	if !ok {
		return fmt.Errorf("clone view: unknown source %q", source)
	}
	if _, exists := n.views[target]; exists {
		return fmt.Errorf("clone view: target %q already exists", target)
	}
	n.views[target] = maps.Clone(src)
	return nil
}

// SwitchView implements dichotomy.Scenario.
func (n *Network) SwitchView(id string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if _, ok := n.views[id]; !ok {
		return fmt.Errorf("switch view: unknown view %q", id)
	}
	n.current = id
	return nil
}

// RemoveView implements dichotomy.Scenario.
func (n *Network) RemoveView(id string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if id == n.current {
		return fmt.Errorf("remove view: %q is the active view", id)
	}
	if _, ok := n.views[id]; !ok {
		return fmt.Errorf("remove view: unknown view %q", id)
	}
	delete(n.views, id)
	return nil
}

// Views returns the sorted IDs of every view.
func (n *Network) Views() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return slices.Sorted(maps.Keys(n.views))
}

// Exchange returns a copy of the exchange applied to the active view.
func (n *Network) Exchange() map[string]float64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return maps.Clone(n.views[n.current])
}

// setExchange replaces the exchange of the active view.
func (n *Network) setExchange(exchange map[string]float64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.views[n.current] = maps.Clone(exchange)
}
