package services

import (
	"fmt"
	"math"
)

// FormatDuration renders seconds as zero-padded HH:MM:SS using integer
// division. Negative input clamps to zero.
func FormatDuration(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	hours := seconds / 3600
	minutes := (seconds / 60) % 60
	secs := seconds % 60
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, secs)
}

func formatDurationStats(avg, min, max int) DurationStats {
	return DurationStats{
		AverageSeconds: avg,
		MinSeconds:     min,
		MaxSeconds:     max,
		Average:        FormatDuration(avg),
		Min:            FormatDuration(min),
		Max:            FormatDuration(max),
	}
}

// roundedAverage averages a sum over a count to whole numbers, returning 0
// for an empty group instead of dividing by zero.
func roundedAverage(sum, count int) int {
	if count == 0 {
		return 0
	}
	return int(math.Round(float64(sum) / float64(count)))
}
