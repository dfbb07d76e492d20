package app

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Profiler accumulates CPU time per named frame phase and reports averages
// once every Interval frames.
type Profiler struct {
	Interval int

	totals  map[string]time.Duration
	frame   map[string]time.Duration
	started map[string]time.Time
	counts  map[string]int
	order   []string
	frames  int
	now     func() time.Time
}

func NewProfiler(interval int) *Profiler {
	if interval <= 0 {
		interval = 1
	}
	return &Profiler{
		Interval: interval,
		totals:   make(map[string]time.Duration),
		frame:    make(map[string]time.Duration),
		started:  make(map[string]time.Time),
		counts:   make(map[string]int),
		now:      time.Now,
	}
}

func (p *Profiler) BeginScope(name string) {
	if _, seen := p.totals[name]; !seen {
		p.order = append(p.order, name)
		p.totals[name] = 0
	}
	p.started[name] = p.now()
}

func (p *Profiler) EndScope(name string) {
	start, ok := p.started[name]
	if !ok {
		return
	}
	delete(p.started, name)
	p.frame[name] += p.now().Sub(start)
}

func (p *Profiler) SetCount(name string, count int) {
	p.counts[name] = count
}

// EndFrame closes the current frame. It returns the report and true when
// the interval is complete, after which the timings start over.
func (p *Profiler) EndFrame() (string, bool) {
	for name, d := range p.frame {
		p.totals[name] += d
	}
	clear(p.frame)
	clear(p.started)
	p.frames++
	if p.frames < p.Interval {
		return "", false
	}
	report := p.String()
	p.Reset()
	return report, true
}

// SkipFrame drops the timings of the current frame without counting it.
func (p *Profiler) SkipFrame() {
	clear(p.frame)
	clear(p.started)
}

// Reset drops accumulated timings. Scope order and counters are kept.
func (p *Profiler) Reset() {
	for k := range p.totals {
		p.totals[k] = 0
	}
	clear(p.frame)
	clear(p.started)
	p.frames = 0
}

// Average is the mean time of a scope over the frames ended so far.
func (p *Profiler) Average(name string) time.Duration {
	if p.frames == 0 {
		return p.totals[name]
	}
	return p.totals[name] / time.Duration(p.frames)
}

func (p *Profiler) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d frames, avg CPU:", p.frames)
	for _, name := range p.order {
		ms := float64(p.Average(name).Microseconds()) / 1000.0
		fmt.Fprintf(&sb, " %s=%.2fms", name, ms)
	}

	keys := make([]string, 0, len(p.counts))
	for k := range p.counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&sb, " %s=%d", k, p.counts[k])
	}
	return sb.String()
}
