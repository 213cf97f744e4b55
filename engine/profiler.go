package engine

import (
	"fmt"
	"strings"
	"time"

	"lightful/debug"
)

type sample struct {
	total time.Duration
	count int
	max   time.Duration
}

// Profiler averages how long each section of the control loop takes and
// logs the averages every interval. A disabled profiler only runs fn.
type Profiler struct {
	Enabled  bool
	Interval time.Duration

	now     func() time.Time
	order   []string
	samples map[string]*sample
	printed time.Time
}

func NewProfiler(enabled bool) *Profiler {
	return &Profiler{
		Enabled:  enabled,
		Interval: 2 * time.Second,
		now:      time.Now,
		samples:  make(map[string]*sample),
	}
}

// Measure runs fn and records its duration under id
func (p *Profiler) Measure(id string, fn func()) {
	if !p.Enabled {
		fn()
		return
	}
	start := p.now()
	fn()
	p.record(id, p.now().Sub(start))
}

func (p *Profiler) record(id string, d time.Duration) {
	s, ok := p.samples[id]
	if !ok {
		s = &sample{}
		p.samples[id] = s
		p.order = append(p.order, id)
	}
	s.total += d
	s.count++
	s.max = max(s.max, d)
}

// Report logs and resets the averages once per interval. It returns the
// report it logged, or "" when it is not time yet.
func (p *Profiler) Report() string {
	if !p.Enabled {
		return ""
	}
	now := p.now()
	if p.printed.IsZero() {
		p.printed = now
		return ""
	}
	if now.Sub(p.printed) < p.Interval {
		return ""
	}
	p.printed = now

	var b strings.Builder
	for _, id := range p.order {
		s := p.samples[id]
		if s.count == 0 {
			continue
		}
		avg := s.total / time.Duration(s.count)
		fmt.Fprintf(&b, "%-20.20s avg %.3fms max %.3fms (%d)\n", id, ms(avg), ms(s.max), s.count)
		// keep the key so the report order stays stable
		*s = sample{}
	}
	report := b.String()
	if report != "" {
		debug.Info("profile", "loop averages\n%s", report)
	}
	return report
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
