// SPDX-License-Identifier: EPL-2.0

// Package detect estimates where audible content starts in a clip.
//
// The estimate compares every sample against a fraction of the clip's overall
// RMS level. Samples are peak normalized first, so the result does not depend
// on how loud the clip was mastered.
package detect

import (
	"fmt"
	"math"
	"time"

	"github.com/ik5/audpool/audio"
)

// DefaultThreshold is the fraction of the RMS level a sample must exceed.
const DefaultThreshold = 0.025

// Options tune detection. The zero value uses DefaultThreshold and no offset.
type Options struct {
	// Threshold is the RMS fraction. Zero selects DefaultThreshold.
	Threshold float64
	// OffsetSamples moves the result earlier by this many interleaved
	// samples. The result never goes below zero.
	OffsetSamples int
}

// DetectStartTime returns the offset of the first sample whose normalized
// magnitude exceeds threshold times the RMS level of the raw buffer. Samples
// are normalized by the buffer's peak magnitude and interleaved. A zero
// threshold selects DefaultThreshold.
func DetectStartTime(samples []float32, channels, sampleRate int, threshold float64, offsetSamples int) (time.Duration, error) {
	if channels <= 0 || sampleRate <= 0 {
		return 0, fmt.Errorf("%w: %d channels at %d Hz", ErrInvalidFormat, channels, sampleRate)
	}
	if threshold < 0 || math.IsNaN(threshold) || math.IsInf(threshold, 0) {
		return 0, fmt.Errorf("%w: %v", ErrInvalidThreshold, threshold)
	}
	if threshold == 0 {
		threshold = DefaultThreshold
	}

	index, ok := onset(samples, threshold)
	if !ok {
		return 0, ErrNoOnset
	}

	pos := max(index-offsetSamples, 0)
	seconds := float64(pos) / float64(sampleRate) / float64(channels)
	return time.Duration(math.Round(seconds * float64(time.Second))), nil
}

// onset returns the interleaved index of the first sample above the threshold.
func onset(samples []float32, threshold float64) (int, bool) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, s := range samples {
		v := float64(s)
		lo = min(lo, v)
		hi = max(hi, v)
	}
	peak := max(math.Abs(lo), math.Abs(hi))
	if len(samples) == 0 || peak == 0 || math.IsNaN(peak) {
		return 0, false
	}

	// the level is taken from the raw samples, the comparison from the
	// normalized ones
	var sum float64
	for _, s := range samples {
		v := float64(s)
		sum += v * v
	}
	limit := math.Sqrt(sum/float64(len(samples))) * threshold

	for i, s := range samples {
		if math.Abs(float64(s)/peak) > limit {
			return i, true
		}
	}
	return 0, false
}

// Detect runs DetectStartTime over a decoded buffer.
func Detect(buf *audio.Buffer, opts Options) (time.Duration, error) {
	return DetectStartTime(buf.Samples, buf.Channels, buf.SampleRate, opts.Threshold, opts.OffsetSamples)
}

// DetectSource drains src and runs DetectStartTime over its samples. src is
// not closed.
func DetectSource(src audio.Source, opts Options) (time.Duration, error) {
	buf, err := audio.ReadAll(src)
	if err != nil {
		return 0, fmt.Errorf("reading source: %w", err)
	}
	return Detect(buf, opts)
}

// Trim drops everything before the detected start. A buffer without an onset
// is returned unchanged together with ErrNoOnset.
func Trim(buf *audio.Buffer, opts Options) (*audio.Buffer, time.Duration, error) {
	start, err := Detect(buf, opts)
	if err != nil {
		return buf, 0, err
	}
	return buf.Slice(start), start, nil
}
