// SPDX-License-Identifier: EPL-2.0

package transition

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/ik5/audpool/utils"
)

// Curve maps progress in [0,1] to a gain factor in [0,1].
type Curve func(t float64) float64

// Linear ramps at a constant rate.
func Linear(t float64) float64 { return clamp01(t) }

// EaseInOut is the smoothstep polynomial.
func EaseInOut(t float64) float64 {
	t = clamp01(t)
	return t * t * (3 - 2*t)
}

// EqualPower keeps the summed power of a crossfade constant.
func EqualPower(t float64) float64 {
	return math.Sin(clamp01(t) * math.Pi / 2)
}

var curves = map[string]Curve{
	"linear":      Linear,
	"ease":        EaseInOut,
	"ease-in-out": EaseInOut,
	"equal-power": EqualPower,
}

// ParseCurve returns the curve registered under name.
func ParseCurve(name string) (Curve, error) {
	c, ok := curves[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCurve, name)
	}
	return c, nil
}

func clamp01(t float64) float64 {
	return utils.Clamp(t, 0, 1)
}

// Fade interpolates a gain from From to To over Duration.
type Fade struct {
	From, To float64
	Duration time.Duration
	Curve    Curve
}

// Progress returns elapsed as a fraction of the duration in [0,1].
func (f Fade) Progress(elapsed time.Duration) float64 {
	if f.Duration <= 0 {
		return 1
	}
	return clamp01(float64(elapsed) / float64(f.Duration))
}

// At returns the gain after elapsed. A falling fade runs the curve backwards,
// so an EqualPower fade-out pairs with an EqualPower fade-in.
func (f Fade) At(elapsed time.Duration) float64 {
	curve := f.Curve
	if curve == nil {
		curve = Linear
	}
	p := f.Progress(elapsed)
	if f.To < f.From {
		return utils.Lerp(f.To, f.From, curve(1-p))
	}
	return utils.Lerp(f.From, f.To, curve(p))
}

// Done reports whether the fade has reached its target.
func (f Fade) Done(elapsed time.Duration) bool {
	return elapsed >= f.Duration
}

// Crossfade returns the outgoing and incoming gains at progress t.
func Crossfade(curve Curve, t float64) (out, in float64) {
	if curve == nil {
		curve = Linear
	}
	t = clamp01(t)
	return curve(1 - t), curve(t)
}
