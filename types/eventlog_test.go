package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEventLogBounded(t *testing.T) {
	l := NewEventLog(3)
	for i := 0; i < 5; i++ {
		l.Append(time.Duration(i)*time.Second, "entry %d", i)
	}

	entries := l.Entries()
	assert.Equal(t, 3, len(entries), "oldest entries are dropped")
	assert.Equal(t, "entry 4", entries[0].Text, "newest first")
	assert.Equal(t, "entry 2", entries[2].Text)
}

func TestEventLogSeqMonotonic(t *testing.T) {
	l := NewEventLog(2)
	l.Append(0, "a")
	l.Append(0, "b")
	l.Append(0, "c")

	entries := l.Entries()
	assert.Equal(t, int64(2), entries[0].Seq)
	assert.Equal(t, int64(1), entries[1].Seq)
}
