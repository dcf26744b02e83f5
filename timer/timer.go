// timer/timer.go
package timer

import (
	"container/heap"
	"sync"
	"time"
)

type Task struct {
	ID       int64
	RunAt    time.Time
	Interval time.Duration
	Callback func()
	index    int
}

type taskQueue []*Task

func (q taskQueue) Len() int { return len(q) }

func (q taskQueue) Less(i, j int) bool {
	return q[i].RunAt.Before(q[j].RunAt)
}

func (q taskQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *taskQueue) Push(x interface{}) {
	n := len(*q)
	task := x.(*Task)
	task.index = n
	*q = append(*q, task)
}

func (q *taskQueue) Pop() interface{} {
	old := *q
	n := len(old)
	task := old[n-1]
	task.index = -1
	*q = old[0 : n-1]
	return task
}

// Scheduler runs delayed and repeating tasks off a single heap. Callbacks
// run on their own goroutines, so a slow one never delays the next task.
type Scheduler struct {
	queue    taskQueue
	mutex    sync.Mutex
	nextID   int64
	stopChan chan struct{}
}

func NewScheduler() *Scheduler {
	s := &Scheduler{
		queue:    make(taskQueue, 0),
		nextID:   1,
		stopChan: make(chan struct{}),
	}
	heap.Init(&s.queue)
	go s.run()
	return s
}

// Schedule queues a task. A non-zero interval makes it repeat.
func (s *Scheduler) Schedule(delay, interval time.Duration, callback func()) int64 {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	task := &Task{
		ID:       s.nextID,
		RunAt:    time.Now().Add(delay),
		Interval: interval,
		Callback: callback,
	}
	s.nextID++

	heap.Push(&s.queue, task)
	return task.ID
}

func (s *Scheduler) Cancel(taskID int64) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for i, task := range s.queue {
		if task.ID == taskID {
			heap.Remove(&s.queue, i)
			break
		}
	}
}

func (s *Scheduler) Stop() {
	close(s.stopChan)
}

func (s *Scheduler) run() {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.runDue()
		case <-s.stopChan:
			return
		}
	}
}

func (s *Scheduler) runDue() {
	s.mutex.Lock()
	now := time.Now()

	var due []*Task
	for s.queue.Len() > 0 {
		task := s.queue[0]
		if task.RunAt.After(now) {
			break
		}

		heap.Pop(&s.queue)
		due = append(due, task)

		if task.Interval > 0 {
			task.RunAt = now.Add(task.Interval)
			heap.Push(&s.queue, task)
		}
	}
	s.mutex.Unlock()

	for _, task := range due {
		go task.Callback()
	}
}
