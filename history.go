package main

import "math"

// Income-history sampling cadence and retention
const (
	SampleIntervalSeconds = 1.0
	MaxHistoryPoints      = 600 // 10 minutes at one sample per second
)

// IncomeHistory is a fixed-cadence downsampled series of the income rate,
// kept in a capped FIFO buffer for trend display. Sampling is driven by
// simulated time, never by the rendering layer's draw cadence.
type IncomeHistory struct {
	points      []float64
	accumulator float64
}

// NewIncomeHistory creates an empty history buffer
func NewIncomeHistory() *IncomeHistory {
	return &IncomeHistory{points: make([]float64, 0, MaxHistoryPoints)}
}

// Record accrues elapsed simulated seconds and appends one sample of the
// current income rate per whole interval crossed. A single large delta (a
// tick hitch or a suspended host) may produce several samples at once; the
// fractional remainder carries over. Samples beyond the buffer cap would
// only evict each other, so at most MaxHistoryPoints are written per call.
func (h *IncomeHistory) Record(elapsedSeconds, incomePerSec float64) {
	if elapsedSeconds < 0 {
		return
	}
	h.accumulator += elapsedSeconds
	whole := math.Floor(h.accumulator / SampleIntervalSeconds)
	if whole < 1 {
		return
	}
	h.accumulator -= whole * SampleIntervalSeconds

	n := MaxHistoryPoints
	if whole < MaxHistoryPoints {
		n = int(whole)
	}
	for i := 0; i < n; i++ {
		h.append(incomePerSec)
	}
}

// Append adds one sample directly, bypassing the accumulator. Used to seed
// the chart with the current rate on load.
func (h *IncomeHistory) Append(incomePerSec float64) {
	h.append(incomePerSec)
}

func (h *IncomeHistory) append(v float64) {
	h.points = append(h.points, v)
	if len(h.points) > MaxHistoryPoints {
		// Evict oldest; copy keeps the backing array from growing unbounded
		copy(h.points, h.points[1:])
		h.points = h.points[:MaxHistoryPoints]
	}
}

// Points returns a copy of the sampled values, oldest first
func (h *IncomeHistory) Points() []float64 {
	out := make([]float64, len(h.points))
	copy(out, h.points)
	return out
}

// Len returns the number of retained samples
func (h *IncomeHistory) Len() int {
	return len(h.points)
}

// Reset clears all samples and the sub-interval accumulator
func (h *IncomeHistory) Reset() {
	h.points = h.points[:0]
	h.accumulator = 0
}
