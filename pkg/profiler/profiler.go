package profiler

import (
	"fmt"
	"io"
	"sort"
	"sync"
	"time"
)

// Pipeline stage names recorded by the train and benchmark commands
const (
	StageLoad     = "load"
	StageSplit    = "split"
	StageFit      = "fit"
	StageEvaluate = "evaluate"
	StageSave     = "save"
	StagePredict  = "predict"
)

// Profiler tracks durations per pipeline stage
type Profiler struct {
	mu    sync.RWMutex
	times map[string][]time.Duration
}

// NewProfiler creates a new profiler
func NewProfiler() *Profiler {
	return &Profiler{
		times: make(map[string][]time.Duration),
	}
}

// Timer measures one run of a stage
type Timer struct {
	profiler *Profiler
	stage    string
	start    time.Time
}

// Start begins timing a stage
func (p *Profiler) Start(stage string) *Timer {
	return &Timer{
		profiler: p,
		stage:    stage,
		start:    time.Now(),
	}
}

// Stop records the elapsed time for the stage
func (t *Timer) Stop() time.Duration {
	d := time.Since(t.start)
	t.profiler.Record(t.stage, d)
	return d
}

// Record adds a measured duration for stage
func (p *Profiler) Record(stage string, d time.Duration) {
	p.mu.Lock()
	p.times[stage] = append(p.times[stage], d)
	p.mu.Unlock()
}

// Measure runs fn under a timer and returns its error
func (p *Profiler) Measure(stage string, fn func() error) error {
	timer := p.Start(stage)
	defer timer.Stop()
	return fn()
}

// Stats summarizes the runs of one stage
type Stats struct {
	Stage   string
	Count   int
	Total   time.Duration
	Average time.Duration
	Min     time.Duration
	Max     time.Duration
	Median  time.Duration
	P95     time.Duration
	P99     time.Duration
}

// PerSecond returns how many runs of the stage fit in a second of wall time
// spent in it
func (s *Stats) PerSecond() float64 {
	if s.Total <= 0 {
		return 0
	}
	return float64(s.Count) / s.Total.Seconds()
}

// GetStats returns statistics for stage
func (p *Profiler) GetStats(stage string) *Stats {
	p.mu.RLock()
	times := p.times[stage]
	sorted := make([]time.Duration, len(times))
	copy(sorted, times)
	p.mu.RUnlock()

	if len(sorted) == 0 {
		return &Stats{Stage: stage}
	}

	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var total time.Duration
	for _, d := range sorted {
		total += d
	}

	n := len(sorted)
	return &Stats{
		Stage:   stage,
		Count:   n,
		Total:   total,
		Average: total / time.Duration(n),
		Min:     sorted[0],
		Max:     sorted[n-1],
		Median:  sorted[n/2],
		P95:     sorted[percentileIndex(n, 0.95)],
		P99:     sorted[percentileIndex(n, 0.99)],
	}
}

// percentileIndex returns the nearest-rank index for q in a sorted slice of n
func percentileIndex(n int, q float64) int {
	i := int(float64(n) * q)
	if i >= n {
		i = n - 1
	}
	return i
}

// GetAllStats returns statistics for every recorded stage, sorted by name
func (p *Profiler) GetAllStats() []*Stats {
	p.mu.RLock()
	stages := make([]string, 0, len(p.times))
	for stage := range p.times {
		stages = append(stages, stage)
	}
	p.mu.RUnlock()

	sort.Strings(stages)

	stats := make([]*Stats, 0, len(stages))
	for _, stage := range stages {
		stats = append(stats, p.GetStats(stage))
	}
	return stats
}

// Reset clears all timing data
func (p *Profiler) Reset() {
	p.mu.Lock()
	p.times = make(map[string][]time.Duration)
	p.mu.Unlock()
}

// PrintReport writes a timing table for all stages to w
func (p *Profiler) PrintReport(w io.Writer) {
	stats := p.GetAllStats()

	if len(stats) == 0 {
		fmt.Fprintln(w, "No timing data available")
		return
	}

	fmt.Fprintf(w, "⏱️  Pipeline Profile\n")
	fmt.Fprintf(w, "═══════════════════════════════════════════════════════════════\n")
	fmt.Fprintf(w, "%-12s %8s %10s %8s %8s %8s %8s %8s\n",
		"Stage", "Count", "Total", "Avg", "Min", "Max", "P95", "P99")
	fmt.Fprintf(w, "─────────────────────────────────────────────────────────────────\n")

	for _, s := range stats {
		if s.Count == 0 {
			continue
		}
		fmt.Fprintf(w, "%-12s %8d %10s %8s %8s %8s %8s %8s\n",
			truncate(s.Stage, 12),
			s.Count,
			FormatDuration(s.Total),
			FormatDuration(s.Average),
			FormatDuration(s.Min),
			FormatDuration(s.Max),
			FormatDuration(s.P95),
			FormatDuration(s.P99),
		)
	}

	fmt.Fprintf(w, "═══════════════════════════════════════════════════════════════\n")
}

// FormatDuration formats a duration with a unit suited to its size
func FormatDuration(d time.Duration) string {
	switch {
	case d < time.Microsecond:
		return fmt.Sprintf("%dns", d.Nanoseconds())
	case d < time.Millisecond:
		return fmt.Sprintf("%.1fμs", float64(d.Nanoseconds())/1000)
	case d < time.Second:
		return fmt.Sprintf("%.2fms", float64(d.Nanoseconds())/1e6)
	default:
		return fmt.Sprintf("%.3fs", d.Seconds())
	}
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
