package types

import (
	"fmt"
	"time"
)

// Message is an in-flight broadcast carrying one or more actions from one
// node to another. ReceiveAt is fixed at send time (send time plus randomized
// latency); the clock delivers the message once simulated time passes it.
type Message struct {
	From      NodeID        `json:"from"`
	To        NodeID        `json:"to"`
	SentAt    time.Duration `json:"sent_at"`
	ReceiveAt time.Duration `json:"receive_at"`
	Actions   []Action      `json:"actions"`
}

func (m *Message) String() string {
	return fmt.Sprintf("Message{%v->%v %v @%v}", m.From, m.To, m.Actions, m.ReceiveAt)
}

func (m *Message) ValidateBasic() error {
	if m.From == "" || m.To == "" {
		return fmt.Errorf("message without endpoints")
	}
	if m.ReceiveAt < m.SentAt {
		return fmt.Errorf("message delivered before sent: %v < %v", m.ReceiveAt, m.SentAt)
	}
	if len(m.Actions) == 0 {
		return fmt.Errorf("empty message")
	}
	for _, a := range m.Actions {
		if err := a.ValidateBasic(); err != nil {
			return err
		}
	}
	return nil
}
