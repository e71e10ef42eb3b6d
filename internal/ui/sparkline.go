package ui

import "strings"

// SparklineChars are the eight bar heights, lowest first.
var SparklineChars = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// Sparkline is a fixed-width bar chart of the most recent samples.
type Sparkline struct {
	samples []float64
	head    int
	count   int
}

// NewSparkline creates a sparkline keeping width samples.
func NewSparkline(width int) *Sparkline {
	if width <= 0 {
		width = 60
	}
	return &Sparkline{samples: make([]float64, width)}
}

// Add appends a sample, dropping the oldest when full.
func (s *Sparkline) Add(value float64) {
	s.samples[s.head] = value
	s.head = (s.head + 1) % len(s.samples)
	s.count++
}

// Count returns the number of samples added.
func (s *Sparkline) Count() int { return s.count }

// Clear resets the sparkline.
func (s *Sparkline) Clear() {
	clear(s.samples)
	s.head, s.count = 0, 0
}

// recent returns up to n samples, oldest first.
func (s *Sparkline) recent(n int) []float64 {
	size := min(s.count, len(s.samples))
	n = min(n, size)
	start := 0
	if s.count >= len(s.samples) {
		start = s.head
	}
	out := make([]float64, 0, n)
	for i := size - n; i < size; i++ {
		out = append(out, s.samples[(start+i)%len(s.samples)])
	}
	return out
}

// Max returns the largest sample currently kept.
func (s *Sparkline) Max() float64 {
	var m float64
	for _, v := range s.recent(len(s.samples)) {
		m = max(m, v)
	}
	return m
}

// Render draws the most recent width samples scaled to the largest one,
// padded with spaces on the right. width <= 0 uses the sparkline capacity.
func (s *Sparkline) Render(width int) string {
	if width <= 0 {
		width = len(s.samples)
	}
	if s.count == 0 {
		return strings.Repeat(string(SparklineChars[0]), width)
	}

	values := s.recent(width)
	peak := 0.0
	for _, v := range values {
		peak = max(peak, v)
	}

	var sb strings.Builder
	sb.Grow(width * 3)
	for _, v := range values {
		idx := 0
		if peak > 0 {
			idx = int(v / peak * float64(len(SparklineChars)-1))
			idx = max(0, min(idx, len(SparklineChars)-1))
		}
		sb.WriteRune(SparklineChars[idx])
	}
	sb.WriteString(strings.Repeat(" ", width-len(values)))
	return sb.String()
}
