package loudness

import "math"

// biquad is a normalized second-order IIR section (a0 == 1).
type biquad struct {
	b0, b1, b2 float64
	a1, a2     float64
}

func (f biquad) apply(x []float64) {
	var x1, x2, y1, y2 float64
	for i, v := range x {
		y := f.b0*v + f.b1*x1 + f.b2*x2 - f.a1*y1 - f.a2*y2
		x2, x1 = x1, v
		y2, y1 = y1, y
		x[i] = y
	}
}

// highShelf is the K-weighting pre-filter modelling the acoustic effect
// of the head.
func highShelf(rate int) biquad {
	const (
		gainDB = 3.99984385397
		q      = 0.7071752369554193
		fc     = 1681.9744509555319
	)
	a := math.Pow(10, gainDB/40)
	w0 := 2 * math.Pi * fc / float64(rate)
	alpha := math.Sin(w0) / (2 * q)
	cosw := math.Cos(w0)
	sqa := 2 * math.Sqrt(a) * alpha

	a0 := (a + 1) - (a-1)*cosw + sqa
	return biquad{
		b0: a * ((a + 1) + (a-1)*cosw + sqa) / a0,
		b1: -2 * a * ((a - 1) + (a+1)*cosw) / a0,
		b2: a * ((a + 1) + (a-1)*cosw - sqa) / a0,
		a1: 2 * ((a - 1) - (a+1)*cosw) / a0,
		a2: ((a + 1) - (a-1)*cosw - sqa) / a0,
	}
}

// highPass is the RLB weighting curve.
func highPass(rate int) biquad {
	const (
		q  = 0.5003270373253953
		fc = 38.13547087613982
	)
	w0 := 2 * math.Pi * fc / float64(rate)
	alpha := math.Sin(w0) / (2 * q)
	cosw := math.Cos(w0)

	a0 := 1 + alpha
	return biquad{
		b0: (1 + cosw) / 2 / a0,
		b1: -(1 + cosw) / a0,
		b2: (1 + cosw) / 2 / a0,
		a1: -2 * cosw / a0,
		a2: (1 - alpha) / a0,
	}
}

func kWeight(samples []float32, rate int) []float64 {
	x := make([]float64, len(samples))
	for i, s := range samples {
		x[i] = float64(s)
	}
	highShelf(rate).apply(x)
	highPass(rate).apply(x)
	return x
}
