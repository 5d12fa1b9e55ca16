package history

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entry(id int64) Entry {
	return Entry{ID: id, Timestamp: 1000 + id, ResumeFileName: "resume.pdf", JDFileName: "jd.txt", Score: 50, Coverage: 40}
}

func ids(entries []Entry) []int64 {
	out := make([]int64, len(entries))
	for i, e := range entries {
		out[i] = e.ID
	}
	return out
}

func TestAppend_MostRecentFirst(t *testing.T) {
	l := New(DefaultCapacity).Append(entry(1)).Append(entry(2)).Append(entry(3))

	assert.Equal(t, []int64{3, 2, 1}, ids(l.Entries()))
}

func TestAppend_EvictsOldestBeyondCapacity(t *testing.T) {
	const capacity = 10
	l := New(capacity)
	for i := int64(1); i <= capacity+5; i++ {
		l = l.Append(entry(i))
	}

	require.Equal(t, capacity, l.Len())
	assert.Equal(t, []int64{15, 14, 13, 12, 11, 10, 9, 8, 7, 6}, ids(l.Entries()))
}

func TestAppend_DoesNotMutateReceiver(t *testing.T) {
	base := New(3).Append(entry(1))
	next := base.Append(entry(2))

	assert.Equal(t, []int64{1}, ids(base.Entries()))
	assert.Equal(t, []int64{2, 1}, ids(next.Entries()))

	full := New(2).Append(entry(1)).Append(entry(2))
	_ = full.Append(entry(3))
	assert.Equal(t, []int64{2, 1}, ids(full.Entries()))
}

func TestEntries_ReturnsCopy(t *testing.T) {
	l := New(DefaultCapacity).Append(entry(1))
	got := l.Entries()
	got[0].Score = 99

	assert.Equal(t, 50, l.Entries()[0].Score)
}

func TestClear(t *testing.T) {
	l := New(5).Append(entry(1)).Append(entry(2))
	cleared := l.Clear()

	assert.Equal(t, 0, cleared.Len())
	assert.Equal(t, 5, cleared.Capacity())
	assert.Equal(t, 2, l.Len())
}

func TestNew_NormalizesCapacity(t *testing.T) {
	tests := []struct {
		name     string
		input    int
		expected int
	}{
		{"zero uses default", 0, DefaultCapacity},
		{"negative uses default", -3, DefaultCapacity},
		{"too large is capped", 500, MaxCapacity},
		{"in range kept", 25, 25},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, New(tt.input).Capacity())
		})
	}

	var zero Ledger
	assert.Equal(t, 1, zero.Append(entry(1)).Len())
}

func TestRestore(t *testing.T) {
	persisted := []Entry{
		entry(7),
		{ID: 0, Score: 10},
		entry(6),
		entry(6),
		{ID: 5, Score: 140},
		entry(4),
		entry(3),
	}

	l := Restore(3, persisted)
	assert.Equal(t, []int64{7, 6, 4}, ids(l.Entries()))
	assert.Equal(t, int64(8), l.NextID(0))
	assert.Equal(t, int64(21), l.NextID(20))
}
