// Package risk implements the crisis risk analysis engine: temporal pattern analysis,
// trigger extraction, intervention ranking, the composite and trend risk scorers, and
// the keyword-tier content classifier.
//
// Everything in this package is stateless. Analyzer values only carry immutable
// configuration (time zone and clock) and every result is recomputed from the records
// passed in, so all functions are safe for concurrent use.
package risk

import (
	"log/slog"
	"math"
	"time"
)

// Opts holds configuration shared by Analyzer and Engine.
type Opts struct {
	Location *time.Location
	Now      func() time.Time
	Logger   *slog.Logger
}

// Option configures an Analyzer or Engine.
type Option func(*Opts)

// WithLocation sets the time zone used to bucket crisis start times by hour of day.
func WithLocation(loc *time.Location) Option {
	return func(o *Opts) {
		o.Location = loc
	}
}

// WithClock overrides the clock used for "current hour" and recency windows.
func WithClock(now func() time.Time) Option {
	return func(o *Opts) {
		o.Now = now
	}
}

// WithLogger sets the logger used by the Engine. Analyzer ignores it.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Opts) {
		o.Logger = logger
	}
}

// Analyzer runs the pure sub-analyses over caller-supplied records.
// The zero value uses time.Local and time.Now.
type Analyzer struct {
	loc *time.Location
	now func() time.Time
}

// NewAnalyzer creates an Analyzer from the given options.
func NewAnalyzer(opts ...Option) Analyzer {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	return Analyzer{loc: cfg.Location, now: cfg.Now}
}

// Location returns the time zone used for hour-of-day bucketing.
func (a Analyzer) Location() *time.Location {
	if a.loc == nil {
		return time.Local
	}
	return a.loc
}

// Now returns the analyzer's current time.
func (a Analyzer) Now() time.Time {
	if a.now == nil {
		return time.Now()
	}
	return a.now()
}

// CurrentHour returns the current hour of day in the analyzer's time zone.
func (a Analyzer) CurrentHour() int {
	return a.Now().In(a.Location()).Hour()
}

// hourOf returns the hour of day of t in the analyzer's time zone, or false for a zero time.
func (a Analyzer) hourOf(t time.Time) (int, bool) {
	if t.IsZero() {
		return 0, false
	}
	return t.In(a.Location()).Hour(), true
}

// clamp restricts v to [lo, hi]. NaN collapses to lo.
func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clamp01(v float64) float64 {
	return clamp(v, 0, 1)
}
