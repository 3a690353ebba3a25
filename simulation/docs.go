package simulation

//
//            +--------+  quorum approvals   +------+
// Submit --> | Approve| ------------------> | Vote |
//            +--------+  (global + local)   +--+---+
//                                              | quorum votes, own vote
//                                              v
//                                        +-----------+
//                                        | Precommit |  (acquires lock)
//                                        +-----+-----+
//                                              | quorum precommits, own precommit
//                                              v
//                                        +-----------+
//                                        |  Commit   |  terminal per node
//                                        +-----------+
//
// Model - the aggregate root, stepped by Advance(delta) from an external
// driver. One Advance call drains all due tasks (insertion order), then all
// due messages (insertion order). Nothing here runs concurrently.
//	- RoundState - round/attempt progression, fast/slow flag, history
//	- Node/Candidate registries - global ground truth plus per-node observed
//	  counters that gate each node's own transitions
//	- Fault model - good/lagging/crashed, operator-triggered
