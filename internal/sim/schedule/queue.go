// Package schedule is the deduplicated delayed-update queue that drives fluid ticks.
package schedule

import (
	"container/heap"
	"sort"

	"voxelflow.ai/internal/sim/fluid"
	"voxelflow.ai/internal/sim/voxel"
)

// Update is a pending fluid update. At most one exists per position.
type Update struct {
	Pos   voxel.Pos
	Fluid fluid.Type
	Due   uint64

	seq uint64
}

type entry struct {
	Update
	index int
}

// Queue orders updates by due tick, then schedule order, then position.
// All access happens on the world goroutine.
type Queue struct {
	now   uint64
	seq   uint64
	h     updateHeap
	byPos map[voxel.Pos]*entry
}

func NewQueue() *Queue {
	return &Queue{byPos: map[voxel.Pos]*entry{}}
}

// Now is the tick delays are measured from.
func (q *Queue) Now() uint64 { return q.now }

// SetNow moves the clock. Drain does this itself.
func (q *Queue) SetNow(tick uint64) { q.now = tick }

func (q *Queue) Len() int { return len(q.h) }

// Schedule queues an update delayTicks after Now, replacing any pending update for pos.
func (q *Queue) Schedule(pos voxel.Pos, t fluid.Type, delayTicks uint64) {
	q.ScheduleAt(pos, t, q.now+delayTicks)
}

// ScheduleAt queues an update for an absolute tick, replacing any pending update for pos.
func (q *Queue) ScheduleAt(pos voxel.Pos, t fluid.Type, due uint64) {
	q.seq++
	if e := q.byPos[pos]; e != nil {
		e.Fluid = t
		e.Due = due
		e.seq = q.seq
		heap.Fix(&q.h, e.index)
		return
	}
	e := &entry{Update: Update{Pos: pos, Fluid: t, Due: due, seq: q.seq}}
	q.byPos[pos] = e
	heap.Push(&q.h, e)
}

// Cancel drops the pending update for pos. It reports whether one existed.
func (q *Queue) Cancel(pos voxel.Pos) bool {
	e := q.byPos[pos]
	if e == nil {
		return false
	}
	heap.Remove(&q.h, e.index)
	delete(q.byPos, pos)
	return true
}

// Scheduled reports whether pos has a pending update.
func (q *Queue) Scheduled(pos voxel.Pos) bool {
	_, ok := q.byPos[pos]
	return ok
}

func (q *Queue) Pending(pos voxel.Pos) (Update, bool) {
	e := q.byPos[pos]
	if e == nil {
		return Update{}, false
	}
	return e.Update, true
}

// Drain sets Now to tick and runs fn for every update due at or before it, in order.
// Updates scheduled by fn that are already due run in the same drain.
func (q *Queue) Drain(tick uint64, fn func(Update)) int {
	q.now = tick
	n := 0
	for len(q.h) > 0 && q.h[0].Due <= tick {
		e := heap.Pop(&q.h).(*entry)
		delete(q.byPos, e.Pos)
		fn(e.Update)
		n++
	}
	return n
}

// Snapshot returns all pending updates in firing order.
func (q *Queue) Snapshot() []Update {
	out := make([]Update, 0, len(q.h))
	for _, e := range q.h {
		out = append(out, e.Update)
	}
	sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

// Restore replaces the queue contents. Order within equal due ticks follows the slice order.
func (q *Queue) Restore(now uint64, updates []Update) {
	q.now = now
	q.seq = 0
	q.h = q.h[:0]
	q.byPos = make(map[voxel.Pos]*entry, len(updates))
	for _, u := range updates {
		q.ScheduleAt(u.Pos, u.Fluid, u.Due)
	}
}

func less(a, b Update) bool {
	if a.Due != b.Due {
		return a.Due < b.Due
	}
	if a.seq != b.seq {
		return a.seq < b.seq
	}
	return a.Pos.Less(b.Pos)
}

type updateHeap []*entry

func (h updateHeap) Len() int           { return len(h) }
func (h updateHeap) Less(i, j int) bool { return less(h[i].Update, h[j].Update) }
func (h updateHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *updateHeap) Push(x any) {
	e := x.(*entry)
	e.index = len(*h)
	*h = append(*h, e)
}

func (h *updateHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*h = old[:n-1]
	return e
}
