package metrics

import "math"

const (
	Peak5MinWindow  = 300
	Peak20MinWindow = 1200

	// maxResampleSeconds bounds the 1 Hz buffer for corrupt time series.
	maxResampleSeconds = 7 * 24 * 3600
)

// PeakPower returns the highest mean power over a rolling window of windowSec seconds.
// Samples are placed on a 1 Hz grid using the time series; gaps count as 0 W.
// Returns 0 when the recording is shorter than the window.
func PeakPower(watts, times []float64, windowSec int) float64 {
	if windowSec <= 0 {
		return 0
	}
	grid := resample(watts, times)
	if len(grid) < windowSec {
		return 0
	}

	var windowSum float64
	for i := 0; i < windowSec; i++ {
		windowSum += grid[i]
	}
	maxSum := windowSum

	for i := windowSec; i < len(grid); i++ {
		windowSum += grid[i] - grid[i-windowSec]
		if windowSum > maxSum {
			maxSum = windowSum
		}
	}

	return math.Round(maxSum / float64(windowSec))
}

// resample spreads power samples over one slot per elapsed second.
func resample(watts, times []float64) []float64 {
	n := len(watts)
	if len(times) < n {
		n = len(times)
	}
	if n == 0 {
		return nil
	}

	start := times[0]
	span := int(times[n-1]-start) + 1
	if span < n {
		// Non-monotonic or sub-second timestamps: fall back to sample order.
		span = n
	}
	if span > maxResampleSeconds {
		span = maxResampleSeconds
	}

	grid := make([]float64, span)
	for i := 0; i < n; i++ {
		slot := int(times[i] - start)
		if slot < 0 || slot >= span {
			continue
		}
		if watts[i] > 0 {
			grid[slot] = watts[i]
		}
	}
	return grid
}
