// Package budget supervises the per-frame processing time of the feature
// pipeline against soft real-time limits.
package budget

import (
	"fmt"
	"sync"
	"time"

	"github.com/DataDog/datadog-go/v5/statsd"
	"github.com/RyanBlaney/latency-benchmark-common/logging"

	"github.com/cwbudde/guardian-dsp/dsp/frontend"
)

// Metric names, relative to the client namespace.
const (
	MetricFilter   = "frame.filter"
	MetricFeatures = "frame.features"
	MetricFrame    = "frame.total"
	MetricOverrun  = "frame.overrun"
	MetricFrames   = "frame.count"
)

// Limits are the per-stage time budgets of one frame.
type Limits struct {
	Filter   time.Duration `mapstructure:"filter" yaml:"filter"`
	Features time.Duration `mapstructure:"features" yaml:"features"`
	Frame    time.Duration `mapstructure:"frame" yaml:"frame"`
}

// DefaultLimits returns 5 ms filtering, 2 ms feature extraction and a
// 20 ms frame, the duration of one frame of audio.
func DefaultLimits() Limits {
	return Limits{
		Filter:   5 * time.Millisecond,
		Features: 2 * time.Millisecond,
		Frame:    20 * time.Millisecond,
	}
}

// Timing is the measured cost of one frame.
type Timing struct {
	Filter   time.Duration
	Features time.Duration
	Total    time.Duration // zero means Filter + Features
}

func (t Timing) frame() time.Duration {
	if t.Total > 0 {
		return t.Total
	}

	return t.Filter + t.Features
}

// Verdict flags the stages of one frame that exceeded their limit.
type Verdict struct {
	Filter   bool
	Features bool
	Frame    bool
}

// OK reports whether the frame stayed within every limit.
func (v Verdict) OK() bool {
	return !v.Filter && !v.Features && !v.Frame
}

// Stats accumulates observations since the last reset.
type Stats struct {
	Frames          uint64
	FilterOverruns  uint64
	FeatureOverruns uint64
	FrameOverruns   uint64
	MaxFilter       time.Duration
	MaxFeatures     time.Duration
	MaxFrame        time.Duration
	TotalFilter     time.Duration
	TotalFeatures   time.Duration
	TotalFrame      time.Duration
}

// Pass reports whether no frame overran.
func (s Stats) Pass() bool {
	return s.FilterOverruns == 0 && s.FeatureOverruns == 0 && s.FrameOverruns == 0
}

// MeanFrame returns the average frame time.
func (s Stats) MeanFrame() time.Duration {
	if s.Frames == 0 {
		return 0
	}

	return s.TotalFrame / time.Duration(s.Frames)
}

// MeanFilter returns the average filter time.
func (s Stats) MeanFilter() time.Duration {
	if s.Frames == 0 {
		return 0
	}

	return s.TotalFilter / time.Duration(s.Frames)
}

// MeanFeatures returns the average feature extraction time.
func (s Stats) MeanFeatures() time.Duration {
	if s.Frames == 0 {
		return 0
	}

	return s.TotalFeatures / time.Duration(s.Frames)
}

// Supervisor checks frame timings against Limits. It is safe for
// concurrent use so several streams can share one supervisor.
type Supervisor struct {
	limits  Limits
	metrics statsd.ClientInterface
	logger  logging.Logger
	tags    []string
	now     func() time.Time

	mu    sync.Mutex
	stats Stats
}

// Option configures a Supervisor.
type Option func(*Supervisor)

// WithLimits replaces the default limits. Zero fields keep their default.
func WithLimits(l Limits) Option {
	return func(s *Supervisor) {
		if l.Filter > 0 {
			s.limits.Filter = l.Filter
		}

		if l.Features > 0 {
			s.limits.Features = l.Features
		}

		if l.Frame > 0 {
			s.limits.Frame = l.Frame
		}
	}
}

// WithMetrics sends timings and overrun counters to client.
func WithMetrics(client statsd.ClientInterface) Option {
	return func(s *Supervisor) {
		if client != nil {
			s.metrics = client
		}
	}
}

// WithLogger sets the logger overruns are reported to.
func WithLogger(l logging.Logger) Option {
	return func(s *Supervisor) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithTags adds statsd tags to every metric.
func WithTags(tags ...string) Option {
	return func(s *Supervisor) { s.tags = append(s.tags, tags...) }
}

// New returns a supervisor with default limits, no metrics and the
// default logger.
func New(opts ...Option) *Supervisor {
	s := &Supervisor{
		limits:  DefaultLimits(),
		metrics: &statsd.NoOpClient{},
		now:     time.Now,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	if s.logger == nil {
		s.logger = logging.NewDefaultLogger()
	}

	return s
}

// Limits returns the configured limits.
func (s *Supervisor) Limits() Limits {
	return s.limits
}

// Observe records one frame timing and returns which limits it broke.
func (s *Supervisor) Observe(t Timing) Verdict {
	total := t.frame()

	v := Verdict{
		Filter:   t.Filter > s.limits.Filter,
		Features: t.Features > s.limits.Features,
		Frame:    total > s.limits.Frame,
	}

	s.mu.Lock()
	st := &s.stats
	st.Frames++
	st.TotalFilter += t.Filter
	st.TotalFeatures += t.Features
	st.TotalFrame += total
	st.MaxFilter = max(st.MaxFilter, t.Filter)
	st.MaxFeatures = max(st.MaxFeatures, t.Features)
	st.MaxFrame = max(st.MaxFrame, total)

	if v.Filter {
		st.FilterOverruns++
	}

	if v.Features {
		st.FeatureOverruns++
	}

	if v.Frame {
		st.FrameOverruns++
	}

	frames := st.Frames
	s.mu.Unlock()

	s.emit(t, total, v)

	if !v.OK() {
		s.logger.Warn("Frame budget exceeded", logging.Fields{
			"frame":        frames,
			"filter":       t.Filter.String(),
			"features":     t.Features.String(),
			"total":        total.String(),
			"filter_over":  v.Filter,
			"feature_over": v.Features,
			"frame_over":   v.Frame,
		})
	}

	return v
}

func (s *Supervisor) emit(t Timing, total time.Duration, v Verdict) {
	// Metric delivery is best effort; a failing client never fails a frame.
	_ = s.metrics.Incr(MetricFrames, s.tags, 1)
	_ = s.metrics.Timing(MetricFilter, t.Filter, s.tags, 1)
	_ = s.metrics.Timing(MetricFeatures, t.Features, s.tags, 1)
	_ = s.metrics.Timing(MetricFrame, total, s.tags, 1)

	stages := [...]struct {
		name string
		over bool
	}{
		{"filter", v.Filter},
		{"features", v.Features},
		{"frame", v.Frame},
	}

	for _, st := range stages {
		if st.over {
			_ = s.metrics.Incr(MetricOverrun, append(s.tagsCopy(), "stage:"+st.name), 1)
		}
	}
}

func (s *Supervisor) tagsCopy() []string {
	return append(make([]string, 0, len(s.tags)+1), s.tags...)
}

// Run processes frame through fe, timing the filter and feature stages
// separately, and observes the result. Frame errors are returned without
// being observed.
func (s *Supervisor) Run(fe *frontend.Frontend, frame []int16) (frontend.Vector, Verdict, error) {
	start := s.now()

	if err := fe.Filter(frame); err != nil {
		return frontend.Vector{}, Verdict{}, err
	}

	filtered := s.now()

	vec, err := fe.Extract()
	if err != nil {
		return frontend.Vector{}, Verdict{}, fmt.Errorf("budget: %w", err)
	}

	done := s.now()

	v := s.Observe(Timing{
		Filter:   filtered.Sub(start),
		Features: done.Sub(filtered),
		Total:    done.Sub(start),
	})

	return vec, v, nil
}

// Stats returns a snapshot of the accumulated statistics.
func (s *Supervisor) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.stats
}

// Reset clears the accumulated statistics.
func (s *Supervisor) Reset() {
	s.mu.Lock()
	s.stats = Stats{}
	s.mu.Unlock()
}
