package types

import "sort"

// NodeIDSet is a set of node ids. The protocol only ever asks three things of
// it: membership, cardinality and a deterministic listing.
//
// NOTE: Not goroutine-safe.
type NodeIDSet map[NodeID]struct{}

func NewNodeIDSet() NodeIDSet {
	return make(NodeIDSet)
}

// Add inserts the id and reports whether it was not present before.
func (s NodeIDSet) Add(id NodeID) bool {
	if _, exist := s[id]; exist {
		return false
	}
	s[id] = struct{}{}
	return true
}

func (s NodeIDSet) Has(id NodeID) bool {
	_, exist := s[id]
	return exist
}

func (s NodeIDSet) Size() int {
	return len(s)
}

// Clear removes every id, keeping the allocated map.
func (s NodeIDSet) Clear() {
	for id := range s {
		delete(s, id)
	}
}

// List returns the ids in ascending order.
func (s NodeIDSet) List() []NodeID {
	ids := make([]NodeID, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Copy returns an independent set with the same members.
func (s NodeIDSet) Copy() NodeIDSet {
	cp := make(NodeIDSet, len(s))
	for id := range s {
		cp[id] = struct{}{}
	}
	return cp
}
