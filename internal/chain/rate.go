package chain

import "math"

const (
	// Buffered "streams" report nearly all latency as TTFB, which inflates
	// tokens/sec. Rates above this are suspect when generation time is tiny.
	anomalousRateThreshold = 5000
	minGenerationRatio     = 0.1
)

// CalculateOutputRate returns output tokens per second of generation time
// (duration minus TTFB). ok is false when the rate is undefined.
func CalculateOutputRate(outputTokens int64, durationMs, ttfbMs *int64) (rate float64, ok bool) {
	if outputTokens <= 0 || durationMs == nil || ttfbMs == nil || *ttfbMs >= *durationMs {
		return 0, false
	}
	seconds := float64(*durationMs-*ttfbMs) / 1000
	if seconds <= 0 {
		return 0, false
	}
	return float64(outputTokens) / seconds, true
}

// ShouldHideOutputRate reports whether a computed rate is a display artifact.
func ShouldHideOutputRate(rate float64, durationMs, ttfbMs *int64) bool {
	if math.IsNaN(rate) || math.IsInf(rate, 0) {
		return false
	}
	if durationMs == nil || *durationMs <= 0 || ttfbMs == nil {
		return false
	}
	generationMs := *durationMs - *ttfbMs
	if generationMs <= 0 {
		return false
	}
	return float64(generationMs)/float64(*durationMs) < minGenerationRatio && rate > anomalousRateThreshold
}
