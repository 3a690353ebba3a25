package types

// ProposerPriority computes the proposer priority of a node for a round.
// Lower is preferred. The mapping rotates by one position every round so that
// leadership moves through the whole node list; it is a plain rotation, not a
// stake-weighted schedule.
func ProposerPriority(round int64, index, total int32) int32 {
	if total <= 0 {
		return 0
	}
	p := (int64(index) - round) % int64(total)
	if p < 0 {
		p += int64(total)
	}
	return int32(p)
}

// InProposerWindow reports whether a node proposes this round: only nodes
// whose priority falls inside the window of size window are active proposers.
func InProposerWindow(round int64, index, total, window int32) bool {
	return ProposerPriority(round, index, total) < window
}
