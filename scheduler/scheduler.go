package scheduler

import (
	"sort"
	"time"

	"lightful/debug"
)

// Clock returns the current time in seconds
type Clock func() float64

// WallClock returns seconds since the clock was created
func WallClock() Clock {
	t0 := time.Now()
	return func() float64 {
		return time.Since(t0).Seconds()
	}
}

// ScheduledTask is a task plus its bookkeeping inside a Scheduler
type ScheduledTask struct {
	Task      Task
	StartTime float64 // clock time when added
	Priority  int     // higher ticks first
	Tag       string  // at most one task per non-empty tag

	seq     uint64
	removed bool
}

type Option func(*ScheduledTask)

func WithPriority(p int) Option {
	return func(st *ScheduledTask) { st.Priority = p }
}

// WithTag replaces any task already scheduled under tag
func WithTag(tag string) Option {
	return func(st *ScheduledTask) { st.Tag = tag }
}

// Scheduler ticks a set of tasks once per call to Tick. It is not safe for
// concurrent use: one control loop owns it.
type Scheduler struct {
	name  string
	clock Clock
	tasks []*ScheduledTask
	seq   uint64
}

func New(name string, clock Clock) *Scheduler {
	return &Scheduler{name: name, clock: clock}
}

func (s *Scheduler) Name() string { return s.name }

// Now reads the scheduler's clock
func (s *Scheduler) Now() float64 {
	return s.clock()
}

// Add schedules task, starting its timeline now. A tagged task replaces the
// previous holder of the tag; no hook runs on the replaced task.
func (s *Scheduler) Add(task Task, opts ...Option) *ScheduledTask {
	st := &ScheduledTask{Task: task}
	for _, opt := range opts {
		opt(st)
	}
	if st.Tag != "" {
		s.RemoveByTag(st.Tag)
	}

	st.StartTime = s.clock()
	s.seq++
	st.seq = s.seq
	s.tasks = append(s.tasks, st)
	task.Start(0)
	return st
}

// Remove unschedules task. Absent tasks are ignored.
func (s *Scheduler) Remove(task Task) {
	for i, st := range s.tasks {
		if st.Task == task {
			s.removeAt(i)
			return
		}
	}
}

// RemoveByTag unschedules the task holding tag, if any
func (s *Scheduler) RemoveByTag(tag string) {
	if tag == "" {
		return
	}
	for i, st := range s.tasks {
		if st.Tag == tag {
			s.removeAt(i)
			return
		}
	}
}

func (s *Scheduler) removeAt(i int) {
	s.tasks[i].removed = true
	s.tasks = append(s.tasks[:i:i], s.tasks[i+1:]...)
}

// Clear unschedules everything without calling any hook
func (s *Scheduler) Clear() {
	for _, st := range s.tasks {
		st.removed = true
	}
	s.tasks = nil
}

// Has reports whether a task holds tag
func (s *Scheduler) Has(tag string) bool {
	return s.Get(tag) != nil
}

// Get returns the task holding tag, or nil
func (s *Scheduler) Get(tag string) Task {
	if tag == "" {
		return nil
	}
	for _, st := range s.tasks {
		if st.Tag == tag {
			return st.Task
		}
	}
	return nil
}

// Contains reports whether task is scheduled
func (s *Scheduler) Contains(task Task) bool {
	for _, st := range s.tasks {
		if st.Task == task {
			return true
		}
	}
	return false
}

func (s *Scheduler) Len() int {
	return len(s.tasks)
}

// Tasks returns the scheduled tasks in tick order
func (s *Scheduler) Tasks() []ScheduledTask {
	s.sort()
	out := make([]ScheduledTask, len(s.tasks))
	for i, st := range s.tasks {
		out[i] = *st
	}
	return out
}

// Tick reads the clock once, evicts finished tasks, then ticks the rest by
// priority (high first), then start time, then insertion order. Every task
// sees the same now. Tasks added during the tick first run on the next one;
// tasks removed during the tick are not ticked again. A task that panics is
// logged and evicted; the others still run.
func (s *Scheduler) Tick() {
	now := s.clock()

	active := s.tasks[:0]
	for _, st := range s.tasks {
		finished, ok := s.checkFinished(st, now-st.StartTime)
		if finished || !ok {
			st.removed = true
			continue
		}
		active = append(active, st)
	}
	for i := len(active); i < len(s.tasks); i++ {
		s.tasks[i] = nil
	}
	s.tasks = active
	s.sort()

	snapshot := make([]*ScheduledTask, len(s.tasks))
	copy(snapshot, s.tasks)

	for _, st := range snapshot {
		if st.removed {
			continue
		}
		if !s.tick(st, now-st.StartTime) {
			s.Remove(st.Task)
		}
	}
}

func (s *Scheduler) sort() {
	sort.SliceStable(s.tasks, func(i, j int) bool {
		a, b := s.tasks[i], s.tasks[j]
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
		if a.StartTime != b.StartTime {
			return a.StartTime < b.StartTime
		}
		return a.seq < b.seq
	})
}

func (s *Scheduler) tick(st *ScheduledTask, elapsed float64) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			debug.Error("sched", "%s: %T (tag %q) panicked, evicting: %v", s.name, st.Task, st.Tag, r)
			ok = false
		}
	}()
	st.Task.Tick(elapsed)
	return true
}

func (s *Scheduler) checkFinished(st *ScheduledTask, elapsed float64) (finished, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			debug.Error("sched", "%s: %T (tag %q) panicked in IsFinished, evicting: %v", s.name, st.Task, st.Tag, r)
			ok = false
		}
	}()
	return st.Task.IsFinished(elapsed), true
}
