package types

import (
	"fmt"
	"time"
)

// LogEntry is one line of the simulation's bounded diagnostic log.
type LogEntry struct {
	Seq  int64         `json:"seq"`
	At   time.Duration `json:"at"`
	Text string        `json:"text"`
}

func (e LogEntry) String() string {
	return fmt.Sprintf("[%8v] %s", e.At, e.Text)
}

// EventLog keeps the newest maxEntries log lines; older entries are dropped.
//
// NOTE: Not goroutine-safe. The model owns it and mutates it only inside
// Advance.
type EventLog struct {
	max     int
	nextSeq int64
	entries []LogEntry
}

func NewEventLog(max int) *EventLog {
	if max <= 0 {
		max = 1
	}
	return &EventLog{max: max}
}

func (l *EventLog) Append(at time.Duration, format string, args ...interface{}) {
	l.entries = append(l.entries, LogEntry{
		Seq:  l.nextSeq,
		At:   at,
		Text: fmt.Sprintf(format, args...),
	})
	l.nextSeq++
	if len(l.entries) > l.max {
		l.entries = l.entries[len(l.entries)-l.max:]
	}
}

func (l *EventLog) Len() int {
	return len(l.entries)
}

// Entries returns a copy, newest first.
func (l *EventLog) Entries() []LogEntry {
	out := make([]LogEntry, len(l.entries))
	for i, e := range l.entries {
		out[len(l.entries)-1-i] = e
	}
	return out
}
