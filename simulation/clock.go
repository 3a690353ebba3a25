package simulation

import (
	"time"

	"bftsim_demo/types"
)

// taskKind tags a scheduled callback. Tasks are plain records dispatched by
// executeTask rather than captured closures, so a queue snapshot is
// inspectable and a stale task can be recognized by its round/attempt stamp.
type taskKind uint8

const (
	taskSubmit         = taskKind(0x01) // proposer broadcasts its candidate
	taskSelfApprove    = taskKind(0x02) // proposer approves its own candidate
	taskAutoApprove    = taskKind(0x03) // fast-attempt automatic approval
	taskNullApprove    = taskKind(0x04) // liveness fallback approval
	taskAttemptTimeout = taskKind(0x05)
	taskVoteFor        = taskKind(0x06) // slow-attempt coordinator broadcast
	taskNextRound      = taskKind(0x07)
)

func (k taskKind) String() string {
	switch k {
	case taskSubmit:
		return "submit"
	case taskSelfApprove:
		return "self-approve"
	case taskAutoApprove:
		return "auto-approve"
	case taskNullApprove:
		return "null-approve"
	case taskAttemptTimeout:
		return "attempt-timeout"
	case taskVoteFor:
		return "vote-for"
	case taskNextRound:
		return "next-round"
	default:
		return "unknown"
	}
}

type task struct {
	fireAt    time.Duration
	kind      taskKind
	node      types.NodeID
	candidate types.CandidateID
	round     int64
	attempt   int32
}

// scheduleTask enqueues a task to fire at Now+delay, stamped with the current
// round and attempt so stale tasks can be dropped when they fire.
func (m *Model) scheduleTask(delay time.Duration, kind taskKind, node types.NodeID, candidate types.CandidateID) {
	m.tasks = append(m.tasks, task{
		fireAt:    m.Now + delay,
		kind:      kind,
		node:      node,
		candidate: candidate,
		round:     m.Round,
		attempt:   m.Attempt,
	})
}

// Advance moves the simulated clock forward by delta and processes everything
// that became due: first all due tasks, then all due messages, each in
// insertion order. The partition happens before execution, so work scheduled
// while draining never fires within the same step even if its fire time is
// already past. This is a deliberate simplification - within one step events
// are insertion-ordered, not sorted by fire time.
func (m *Model) Advance(delta time.Duration) {
	if delta < 0 {
		return
	}
	m.Now += delta

	var pendingTasks, dueTasks []task
	for _, t := range m.tasks {
		if t.fireAt <= m.Now {
			dueTasks = append(dueTasks, t)
		} else {
			pendingTasks = append(pendingTasks, t)
		}
	}
	m.tasks = pendingTasks
	for _, t := range dueTasks {
		m.executeTask(t)
	}

	var pendingMsgs, dueMsgs []*types.Message
	for _, msg := range m.messages {
		if msg.ReceiveAt <= m.Now {
			dueMsgs = append(dueMsgs, msg)
		} else {
			pendingMsgs = append(pendingMsgs, msg)
		}
	}
	m.messages = pendingMsgs
	for _, msg := range dueMsgs {
		m.deliverMessage(msg)
	}
}

// executeTask dispatches one due task. A panic inside a task is confined to
// that task: it is recovered, surfaced in the event log, and the remaining
// due tasks still run.
func (m *Model) executeTask(t task) {
	defer func() {
		if r := recover(); r != nil {
			m.logEvent("task %v failed: %v", t.kind, r)
			m.logger.Error("task panicked", "kind", t.kind, "err", r)
		}
	}()

	switch t.kind {
	case taskSubmit:
		if t.round != m.Round {
			return
		}
		m.submitCandidate(t.node, t.candidate)

	case taskSelfApprove, taskAutoApprove, taskNullApprove:
		if t.round != m.Round {
			return
		}
		node := m.getNode(t.node)
		cand := m.getCandidate(t.candidate)
		if node == nil || cand == nil {
			return
		}
		m.approve(node, cand)

	case taskAttemptTimeout:
		m.attemptTimeout(t.round, t.attempt)

	case taskVoteFor:
		m.coordinatorVoteFor(t.round, t.attempt, t.node)

	case taskNextRound:
		if t.round != m.Round {
			return
		}
		m.startRound()

	default:
		m.logger.Error("unhandled task", "kind", t.kind)
	}
}

// broadcast fans actions out to every other node. A crashed sender issues
// nothing; a lagging sender drops each outgoing message independently with
// the configured probability. The sender does not message itself - it
// records its own actions directly when issuing them.
func (m *Model) broadcast(from *types.Node, actions ...types.Action) {
	if from.Status == types.StatusCrashed {
		return
	}
	for _, to := range m.nodes {
		if to.ID == from.ID {
			continue
		}
		if from.Status == types.StatusLagging && m.rng.Float64() < m.dropProbability {
			m.droppedCount++
			continue
		}
		m.messages = append(m.messages, &types.Message{
			From:      from.ID,
			To:        to.ID,
			SentAt:    m.Now,
			ReceiveAt: m.Now + m.latency(),
			Actions:   actions,
		})
	}
}

// deliverMessage hands a due message to its recipient. Malformed messages
// are rejected with a log line; a crashed recipient processes nothing; a
// lagging recipient drops the delivery independently with the configured
// probability.
func (m *Model) deliverMessage(msg *types.Message) {
	if err := msg.ValidateBasic(); err != nil {
		m.logEvent("malformed message dropped: %v", err)
		return
	}
	node := m.getNode(msg.To)
	if node == nil || node.Status == types.StatusCrashed {
		return
	}
	if node.Status == types.StatusLagging && m.rng.Float64() < m.dropProbability {
		m.droppedCount++
		return
	}
	m.deliveredCount++
	for _, action := range msg.Actions {
		m.handleAction(node, msg.From, action)
	}
}
