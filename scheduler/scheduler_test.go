package scheduler

import (
	"math"
	"reflect"
	"testing"
)

// manualClock is advanced by tests
type manualClock struct {
	now   float64
	reads int
}

func (c *manualClock) Clock() Clock {
	return func() float64 {
		c.reads++
		return c.now
	}
}

// traceTask records every call it receives
type traceTask struct {
	name     string
	log      *[]string
	started  []float64
	ticks    []float64
	finishAt float64 // 0 means never
	panics   bool
}

func (tt *traceTask) Start(t float64) { tt.started = append(tt.started, t) }

func (tt *traceTask) Tick(t float64) {
	if tt.panics {
		panic("boom")
	}
	tt.ticks = append(tt.ticks, t)
	if tt.log != nil {
		*tt.log = append(*tt.log, tt.name)
	}
}

func (tt *traceTask) IsFinished(t float64) bool {
	return tt.finishAt > 0 && t >= tt.finishAt
}

func TestPriorityThenInsertionOrder(t *testing.T) {
	clock := &manualClock{}
	s := New("test", clock.Clock())
	var order []string

	s.Add(&traceTask{name: "A", log: &order})
	s.Add(&traceTask{name: "B", log: &order})
	s.Add(&traceTask{name: "C", log: &order}, WithPriority(1))

	s.Tick()

	if want := []string{"C", "A", "B"}; !reflect.DeepEqual(order, want) {
		t.Errorf("order = %v, want %v", order, want)
	}
}

func TestStartTimeOrdersWithinPriority(t *testing.T) {
	clock := &manualClock{}
	s := New("test", clock.Clock())
	var order []string

	clock.now = 5
	late := &traceTask{name: "late", log: &order}
	s.Add(late)
	clock.now = 1
	early := &traceTask{name: "early", log: &order}
	s.Add(early)
	clock.now = 6

	s.Tick()
	if want := []string{"early", "late"}; !reflect.DeepEqual(order, want) {
		t.Errorf("order = %v, want %v", order, want)
	}
}

func TestTagReplaces(t *testing.T) {
	s := New("test", (&manualClock{}).Clock())
	first := &traceTask{name: "first"}
	second := &traceTask{name: "second"}

	s.Add(first, WithPriority(3), WithTag("T"))
	s.Add(second, WithTag("T"))

	if s.Len() != 1 {
		t.Fatalf("len = %d, want 1", s.Len())
	}
	if got := s.Get("T"); got != Task(second) {
		t.Errorf("tag T holds %v, want second", got)
	}
	s.Tick()
	if len(first.ticks) != 0 {
		t.Error("replaced task still ticked")
	}
}

func TestAddStartsAtZeroAndTicksElapsed(t *testing.T) {
	clock := &manualClock{now: 10}
	s := New("test", clock.Clock())
	task := &traceTask{}
	st := s.Add(task)

	if st.StartTime != 10 {
		t.Errorf("StartTime = %v, want 10", st.StartTime)
	}
	if !reflect.DeepEqual(task.started, []float64{0}) {
		t.Errorf("started = %v", task.started)
	}

	clock.now = 12.5
	s.Tick()
	if task.ticks[0] != 2.5 {
		t.Errorf("tick time = %v, want 2.5", task.ticks[0])
	}
}

func TestTickReadsClockOnce(t *testing.T) {
	clock := &manualClock{}
	s := New("test", clock.Clock())
	for i := 0; i < 5; i++ {
		s.Add(&traceTask{})
	}
	clock.reads = 0
	s.Tick()
	if clock.reads != 1 {
		t.Errorf("clock read %d times in one tick", clock.reads)
	}
}

func TestFinishedTasksEvictedBeforeTicking(t *testing.T) {
	clock := &manualClock{}
	s := New("test", clock.Clock())
	done := &traceTask{finishAt: 1}
	alive := &traceTask{}
	s.Add(done)
	s.Add(alive)

	clock.now = 0.5
	s.Tick()
	clock.now = 1
	s.Tick()

	if len(done.ticks) != 1 {
		t.Errorf("finished task ticked %d times, want 1", len(done.ticks))
	}
	if len(alive.ticks) != 2 {
		t.Errorf("alive task ticked %d times, want 2", len(alive.ticks))
	}
	if s.Len() != 1 {
		t.Errorf("len = %d, want 1", s.Len())
	}
}

func TestRemoveAbsentIsNoop(t *testing.T) {
	s := New("test", (&manualClock{}).Clock())
	s.Remove(&traceTask{})
	s.RemoveByTag("missing")
	s.RemoveByTag("")
	if s.Len() != 0 {
		t.Fatal("expected empty scheduler")
	}
}

func TestClear(t *testing.T) {
	s := New("test", (&manualClock{}).Clock())
	a := &traceTask{}
	s.Add(a, WithTag("a"))
	s.Add(&traceTask{})
	s.Clear()
	s.Tick()
	if s.Len() != 0 || len(a.ticks) != 0 || s.Has("a") {
		t.Error("Clear left tasks behind")
	}
}

func TestPanickingTaskIsEvicted(t *testing.T) {
	s := New("test", (&manualClock{}).Clock())
	var order []string
	bad := &traceTask{name: "bad", panics: true}
	good := &traceTask{name: "good", log: &order}
	s.Add(bad, WithPriority(1))
	s.Add(good)

	s.Tick()
	s.Tick()

	if len(good.ticks) != 2 {
		t.Errorf("good task ticked %d times, want 2", len(good.ticks))
	}
	if s.Contains(bad) {
		t.Error("panicking task not evicted")
	}
}

// remover removes another task when ticked
type remover struct {
	s      *Scheduler
	target Task
	add    Task
}

func (r *remover) Start(t float64) {}
func (r *remover) Tick(t float64) {
	if r.target != nil {
		r.s.Remove(r.target)
	}
	if r.add != nil {
		r.s.Add(r.add)
		r.add = nil
	}
}
func (r *remover) IsFinished(t float64) bool { return false }

func TestMutationDuringTick(t *testing.T) {
	s := New("test", (&manualClock{}).Clock())
	victim := &traceTask{}
	added := &traceTask{}
	s.Add(&remover{s: s, target: victim, add: added}, WithPriority(1))
	s.Add(victim)

	s.Tick()
	if len(victim.ticks) != 0 {
		t.Error("task removed mid-tick was still ticked")
	}
	if len(added.ticks) != 0 {
		t.Error("task added mid-tick ran in the same tick")
	}

	s.Tick()
	if len(added.ticks) != 1 {
		t.Errorf("added task ticked %d times on next tick, want 1", len(added.ticks))
	}
}

func TestRepeatingTaskIsPeriodic(t *testing.T) {
	const d = 2.0
	inner := &traceTask{}
	r := NewRepeatingTask(inner, d, 0)
	r.Start(0)

	for _, eps := range []float64{0, 0.1, 0.75, 1.9} {
		r.Tick(eps)
		r.Tick(d + eps)
		r.Tick(3*d + eps)
		n := len(inner.ticks)
		a, b, c := inner.ticks[n-3], inner.ticks[n-2], inner.ticks[n-1]
		if math.Abs(a-b) > 1e-9 || math.Abs(a-c) > 1e-9 {
			t.Errorf("eps=%v: inner times %v %v %v differ", eps, a, b, c)
		}
	}
	if r.IsFinished(1e6) {
		t.Error("repeating task should never finish")
	}
}

func TestRepeatingTaskOffset(t *testing.T) {
	inner := &traceTask{}
	r := NewRepeatingTask(inner, 10, 0.3)
	r.Start(0)
	r.Tick(0)
	r.Tick(8)
	if math.Abs(inner.ticks[0]-3) > 1e-9 {
		t.Errorf("offset start = %v, want 3", inner.ticks[0])
	}
	if math.Abs(inner.ticks[1]-1) > 1e-9 {
		t.Errorf("wrapped = %v, want 1", inner.ticks[1])
	}
}

func TestGatedTaskFreezesUntilRelease(t *testing.T) {
	inner := &traceTask{finishAt: 1}
	g := NewGatedTask(inner)
	g.Start(0)

	g.Tick(0.5)
	g.Tick(3)
	if !reflect.DeepEqual(inner.ticks, []float64{0, 0}) {
		t.Fatalf("armed ticks = %v, want frozen at 0", inner.ticks)
	}
	if g.IsFinished(100) {
		t.Fatal("armed gate finished")
	}

	g.Release()
	if g.State() != Armed {
		t.Fatal("release should apply on next tick")
	}
	g.Tick(4)
	g.Tick(4.5)
	if g.State() != Releasing {
		t.Fatal("gate not releasing")
	}
	if inner.ticks[2] != 0 || inner.ticks[3] != 0.5 {
		t.Errorf("released ticks = %v, want 0 then 0.5", inner.ticks[2:])
	}
	if g.IsFinished(4.9) {
		t.Error("finished too early")
	}
	if !g.IsFinished(5) {
		t.Error("inner finished one second after release")
	}

	g.Release()
	g.Tick(6)
	if inner.ticks[4] != 2 {
		t.Errorf("second release rebased timeline: %v", inner.ticks[4])
	}
}

func TestGatedTaskInScheduler(t *testing.T) {
	clock := &manualClock{}
	s := New("test", clock.Clock())
	g := NewGatedTask(&traceTask{finishAt: 1})
	s.Add(g)

	clock.now = 10
	s.Tick()
	if s.Len() != 1 {
		t.Fatal("armed gate evicted")
	}
	g.Release()
	s.Tick() // release time 10
	clock.now = 11
	s.Tick()
	if s.Len() != 0 {
		t.Error("gate not evicted after inner finished")
	}
}
