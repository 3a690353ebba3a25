package simulation

import (
	"github.com/pkg/errors"

	"bftsim_demo/types"
)

// Fault injection. Status transitions are operator/test triggered, never
// emergent: the engine only reads the status when issuing and delivering.

// SetNodeStatus switches one node between good, lagging and crashed.
func (m *Model) SetNodeStatus(id types.NodeID, status types.NodeStatus) error {
	node := m.getNode(id)
	if node == nil {
		return errors.Errorf("unknown node: %v", id)
	}
	if node.Status == status {
		return nil
	}
	node.Status = status
	m.logEvent("%v is now %v", node.ID, status)
	m.fireEvent(EventNodeStatus, node.ID)
	return nil
}

// SetDropProbability overrides the per-message drop chance of lagging nodes.
// Out-of-range and NaN values fall back to the configured one rather than
// erroring.
func (m *Model) SetDropProbability(p float64) {
	if !(p >= 0 && p <= 1) {
		p = m.cfg.DropProbability
	}
	m.dropProbability = p
}

// DropProbability returns the currently effective drop chance.
func (m *Model) DropProbability() float64 {
	return m.dropProbability
}
