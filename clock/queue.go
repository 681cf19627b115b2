package clock

import (
	"container/heap"
	"sync/atomic"
	"time"
)

// task is a scheduled action. It is the Handle returned to callers.
type task struct {
	fireAt time.Time
	period time.Duration
	seq    uint64
	index  int
	action func()

	cancelled atomic.Bool
	onCancel  func(*task)
}

func (t *task) Cancel() {
	if t.cancelled.CompareAndSwap(false, true) && t.onCancel != nil {
		t.onCancel(t)
	}
}

func (t *task) Cancelled() bool { return t.cancelled.Load() }

func (t *task) periodic() bool { return t.period > 0 }

// taskHeap orders tasks by fireAt, then by submission sequence.
type taskHeap []*task

func (h taskHeap) Len() int { return len(h) }

func (h taskHeap) Less(i, j int) bool {
	if h[i].fireAt.Equal(h[j].fireAt) {
		return h[i].seq < h[j].seq
	}
	return h[i].fireAt.Before(h[j].fireAt)
}

func (h taskHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *taskHeap) Push(x any) {
	t := x.(*task)
	t.index = len(*h)
	*h = append(*h, t)
}

func (h *taskHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*h = old[:n-1]
	return t
}

// queue is the ordered task store shared by Virtual and Real. Not safe for
// concurrent use; owners guard it with their own mutex.
type queue struct {
	tasks taskHeap
	seq   uint64
}

// push inserts t with the next submission sequence.
func (q *queue) push(t *task) {
	t.seq = q.seq
	q.seq++
	heap.Push(&q.tasks, t)
}

func (q *queue) peek() *task {
	if len(q.tasks) == 0 {
		return nil
	}
	return q.tasks[0]
}

func (q *queue) pop() *task {
	if len(q.tasks) == 0 {
		return nil
	}
	return heap.Pop(&q.tasks).(*task)
}

func (q *queue) remove(t *task) {
	if t.index >= 0 && t.index < len(q.tasks) && q.tasks[t.index] == t {
		heap.Remove(&q.tasks, t.index)
	}
}

func (q *queue) len() int { return len(q.tasks) }

// drain empties the queue and returns its tasks in no particular order.
func (q *queue) drain() []*task {
	tasks := q.tasks
	for _, t := range tasks {
		t.index = -1
	}
	q.tasks = nil
	return tasks
}

// rearm moves a periodic task that just fired to its next deadline.
func (q *queue) rearm(t *task) {
	t.fireAt = t.fireAt.Add(t.period)
	q.push(t)
}

func newTask(fireAt time.Time, period time.Duration, action func(), onCancel func(*task)) *task {
	return &task{fireAt: fireAt, period: period, action: action, index: -1, onCancel: onCancel}
}

func clampDelay(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	return d
}
