// Package aggregate folds reconstructed intervals into windowed duration statistics.
package aggregate

import "fmt"

// FormatMillis renders a duration as zero-padded HH:MM:SS, truncating to whole
// seconds. Hours do not wrap at a day. Negative input renders as 00:00:00.
func FormatMillis(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	seconds := ms / 1000
	return fmt.Sprintf("%02d:%02d:%02d", seconds/3600, (seconds/60)%60, seconds%60)
}

// FormatMinutes renders durations kept in minutes by older reports.
func FormatMinutes(minutes float64) string {
	return FormatMillis(int64(minutes * 60 * 1000))
}
