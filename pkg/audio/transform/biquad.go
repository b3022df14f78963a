package transform

import "math"

// biquad is a direct-form-I second-order IIR filter section.
// Coefficients follow the RBJ audio EQ cookbook.
type biquad struct {
	b0, b1, b2 float64
	a1, a2     float64
}

// process filters a channel in place over its own state.
func (f *biquad) process(samples []float64) {
	var x1, x2, y1, y2 float64
	for i, x := range samples {
		y := f.b0*x + f.b1*x1 + f.b2*x2 - f.a1*y1 - f.a2*y2
		x2, x1 = x1, x
		y2, y1 = y1, y
		samples[i] = y
	}
}

// shelfSlope keeps the shelf transition maximally steep without
// overshoot (S = 1 in the cookbook formulation).
const shelfSlope = 1.0

// newLowShelf creates a low-shelf filter with the given corner
// frequency and gain in dB.
func newLowShelf(sampleRate int, freq, gainDB float64) *biquad {
	a := math.Pow(10, gainDB/40)
	w0 := 2 * math.Pi * freq / float64(sampleRate)
	cosW0 := math.Cos(w0)
	sinW0 := math.Sin(w0)
	alpha := sinW0 / 2 * math.Sqrt((a+1/a)*(1/shelfSlope-1)+2)
	sqrtA2Alpha := 2 * math.Sqrt(a) * alpha

	b0 := a * ((a + 1) - (a-1)*cosW0 + sqrtA2Alpha)
	b1 := 2 * a * ((a - 1) - (a+1)*cosW0)
	b2 := a * ((a + 1) - (a-1)*cosW0 - sqrtA2Alpha)
	a0 := (a + 1) + (a-1)*cosW0 + sqrtA2Alpha
	a1 := -2 * ((a - 1) + (a+1)*cosW0)
	a2 := (a + 1) + (a-1)*cosW0 - sqrtA2Alpha

	return &biquad{b0: b0 / a0, b1: b1 / a0, b2: b2 / a0, a1: a1 / a0, a2: a2 / a0}
}

// newHighShelf creates a high-shelf filter with the given corner
// frequency and gain in dB.
func newHighShelf(sampleRate int, freq, gainDB float64) *biquad {
	a := math.Pow(10, gainDB/40)
	w0 := 2 * math.Pi * freq / float64(sampleRate)
	cosW0 := math.Cos(w0)
	sinW0 := math.Sin(w0)
	alpha := sinW0 / 2 * math.Sqrt((a+1/a)*(1/shelfSlope-1)+2)
	sqrtA2Alpha := 2 * math.Sqrt(a) * alpha

	b0 := a * ((a + 1) + (a-1)*cosW0 + sqrtA2Alpha)
	b1 := -2 * a * ((a - 1) + (a+1)*cosW0)
	b2 := a * ((a + 1) + (a-1)*cosW0 - sqrtA2Alpha)
	a0 := (a + 1) - (a-1)*cosW0 + sqrtA2Alpha
	a1 := 2 * ((a - 1) - (a+1)*cosW0)
	a2 := (a + 1) - (a-1)*cosW0 - sqrtA2Alpha

	return &biquad{b0: b0 / a0, b1: b1 / a0, b2: b2 / a0, a1: a1 / a0, a2: a2 / a0}
}

// newPeaking creates a peaking EQ filter centered on freq with the
// given bandwidth quality and gain in dB.
func newPeaking(sampleRate int, freq, q, gainDB float64) *biquad {
	a := math.Pow(10, gainDB/40)
	w0 := 2 * math.Pi * freq / float64(sampleRate)
	cosW0 := math.Cos(w0)
	alpha := math.Sin(w0) / (2 * q)

	b0 := 1 + alpha*a
	b1 := -2 * cosW0
	b2 := 1 - alpha*a
	a0 := 1 + alpha/a
	a1 := -2 * cosW0
	a2 := 1 - alpha/a

	return &biquad{b0: b0 / a0, b1: b1 / a0, b2: b2 / a0, a1: a1 / a0, a2: a2 / a0}
}
