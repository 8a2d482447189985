package haptic

import (
	"container/heap"
	"time"

	"github.com/offlinefirst/tactile/pkg/actuator"
)

// Entry is one pending pulse.
type Entry struct {
	Due      time.Time
	Kind     actuator.Kind
	Playback *Playback
	seq      uint64
}

// Queue orders pending pulses by due time, then by insertion. Entries are
// never merged, so pattern order survives even when due times tie.
type Queue struct {
	items entryHeap
	seq   uint64
}

// Push enqueues a pulse.
func (q *Queue) Push(due time.Time, kind actuator.Kind, pb *Playback) {
	q.seq++
	heap.Push(&q.items, Entry{Due: due, Kind: kind, Playback: pb, seq: q.seq})
}

// Next returns the due time of the earliest entry.
func (q *Queue) Next() (time.Time, bool) {
	if len(q.items) == 0 {
		return time.Time{}, false
	}
	return q.items[0].Due, true
}

// PopDue removes and returns, in order, every entry due at or before now.
func (q *Queue) PopDue(now time.Time) []Entry {
	var out []Entry
	for len(q.items) > 0 && !q.items[0].Due.After(now) {
		out = append(out, heap.Pop(&q.items).(Entry))
	}
	return out
}

// Drain removes and returns every entry in order.
func (q *Queue) Drain() []Entry {
	out := make([]Entry, 0, len(q.items))
	for len(q.items) > 0 {
		out = append(out, heap.Pop(&q.items).(Entry))
	}
	return out
}

// Len reports the number of pending entries.
func (q *Queue) Len() int { return len(q.items) }

type entryHeap []Entry

func (h entryHeap) Len() int { return len(h) }

func (h entryHeap) Less(i, j int) bool {
	if h[i].Due.Equal(h[j].Due) {
		return h[i].seq < h[j].seq
	}
	return h[i].Due.Before(h[j].Due)
}

func (h entryHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *entryHeap) Push(x any) { *h = append(*h, x.(Entry)) }

func (h *entryHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = Entry{}
	*h = old[:n-1]
	return item
}
