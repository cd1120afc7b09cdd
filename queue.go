package maelstrom

import "sync"

// task is one accepted message paired with the handler that will process it.
type task struct {
	msg     *Message
	handler HandlerFunc
}

// taskQueue is an unbounded FIFO shared by the reader and the workers.
//
// Workers block in pop until a task is available or the queue is closed.
// pop releases the lock before returning, so no task ever runs under it.
type taskQueue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	tasks  []task
	closed bool
}

func newTaskQueue() *taskQueue {
	q := &taskQueue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// push appends t and wakes one waiting worker. Returns false once the queue
// has been closed.
func (q *taskQueue) push(t task) bool {
	invariant(t.msg != nil && t.handler != nil, "incomplete task")

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return false
	}
	q.tasks = append(q.tasks, t)
	q.mu.Unlock()

	q.cond.Signal()
	return true
}

// pop removes the oldest task, waiting while the queue is empty and open.
// Returns false when the queue is closed and fully drained.
func (q *taskQueue) pop() (task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.tasks) == 0 && !q.closed {
		q.cond.Wait()
	}
	if len(q.tasks) == 0 {
		return task{}, false
	}

	t := q.tasks[0]
	q.tasks[0] = task{}
	q.tasks = q.tasks[1:]
	return t, true
}

// close stops accepting tasks and wakes every worker. Tasks already queued are
// still handed out by pop.
func (q *taskQueue) close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()

	q.cond.Broadcast()
}

// len returns the number of queued tasks.
func (q *taskQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}
