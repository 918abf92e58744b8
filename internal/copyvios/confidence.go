package copyvios

import "math"

// articleDeltaKnee is the ratio at which the article/delta confidence curve
// switches from exponential growth to its polynomial tail.
const articleDeltaKnee = 0.52763

// confArticleDelta scores a violation by the ratio of the intersection size
// to the article fingerprint size. Below the knee the curve is ln(1/(1-r));
// above it a quadratic tail approaches 1 as r approaches 1.
func confArticleDelta(article, delta float64) float64 {
	if article <= 0 {
		return 0
	}
	ratio := delta / article
	if ratio <= articleDeltaKnee {
		return math.Log(1 / (1 - ratio))
	}
	return -0.8939*(ratio*ratio) + 1.8948*ratio - 0.0009
}

// confDelta scores a violation by the absolute intersection size alone, so a
// large overlap stays suspicious even against a huge article. Reference
// points: (0, 0), (100, 0.5), (250, 0.75), (500, 0.9), approaching 1 as
// delta grows.
func confDelta(delta float64) float64 {
	switch {
	case delta <= 0:
		return 0
	case delta <= 100:
		return delta / (delta + 100)
	case delta <= 250:
		return (delta - 25) / (delta + 50)
	case delta <= 500:
		return (10.5*delta - 750) / (10 * delta)
	default:
		return (delta - 50) / delta
	}
}

// confidence is the maximum of the two curves, clamped to [0, 1]. Either
// curve alone underestimates some cases: short articles with near-total
// overlap, or long articles with a large absolute overlap.
func confidence(article, delta float64) float64 {
	c := math.Max(confArticleDelta(article, delta), confDelta(delta))
	switch {
	case c < 0:
		return 0
	case c > 1:
		return 1
	default:
		return c
	}
}
