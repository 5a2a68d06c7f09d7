package frame

import (
	"log/slog"
	"time"

	"github.com/loov/hrtime"
)

// Reason says why the surface set was rebuilt.
type Reason int

const (
	ReasonAcquireOutOfDate Reason = iota
	ReasonPresentOutOfDate
	ReasonSuboptimal
	ReasonResize
	reasonCount
)

func (r Reason) String() string {
	switch r {
	case ReasonAcquireOutOfDate:
		return "acquire_out_of_date"
	case ReasonPresentOutOfDate:
		return "present_out_of_date"
	case ReasonSuboptimal:
		return "suboptimal"
	case ReasonResize:
		return "resize"
	}
	return "unknown"
}

// Stats counts scheduler activity. CPU frame time covers fence wait through
// present.
type Stats struct {
	Ticks     int
	Presented int
	LastFrame time.Duration

	recreations [reasonCount]int
	frameTotal  time.Duration
	frames      int
	frameStart  time.Duration
}

func (s *Stats) beginFrame() {
	s.Ticks++
	s.frameStart = hrtime.Now()
}

func (s *Stats) endFrame() {
	s.Presented++
	s.LastFrame = hrtime.Since(s.frameStart)
	s.frameTotal += s.LastFrame
	s.frames++
}

func (s *Stats) recreated(reason Reason) {
	s.recreations[reason]++
}

// Recreations returns how many rebuilds happened for reason.
func (s *Stats) Recreations(reason Reason) int {
	return s.recreations[reason]
}

func (s *Stats) TotalRecreations() int {
	total := 0
	for _, n := range s.recreations {
		total += n
	}
	return total
}

// AverageFrame is the mean CPU time of presented frames.
func (s *Stats) AverageFrame() time.Duration {
	if s.frames == 0 {
		return 0
	}
	return s.frameTotal / time.Duration(s.frames)
}

func (s *Stats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int("ticks", s.Ticks),
		slog.Int("presented", s.Presented),
		slog.Duration("last_frame", s.LastFrame),
		slog.Duration("average_frame", s.AverageFrame()),
	}
	for reason := Reason(0); reason < reasonCount; reason++ {
		attrs = append(attrs, slog.Int("recreate_"+reason.String(), s.recreations[reason]))
	}
	return slog.GroupValue(attrs...)
}
