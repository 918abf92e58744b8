package copyvios

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConfArticleDelta_ContinuousAtKnee(t *testing.T) {
	t.Parallel()

	const eps = 1e-9
	below := confArticleDelta(1, articleDeltaKnee-eps)
	above := confArticleDelta(1, articleDeltaKnee+eps)
	require.InDelta(t, below, above, 1e-3)
}

func TestConfArticleDelta_ZeroAndMonotonic(t *testing.T) {
	t.Parallel()

	require.Zero(t, confArticleDelta(1000, 0))

	prev := -1.0
	for delta := 0.0; delta <= 1000; delta += 5 {
		c := confArticleDelta(1000, delta)
		require.GreaterOrEqual(t, c, prev, "not monotonic at delta=%v", delta)
		prev = c
	}
}

func TestConfDelta_ContinuousAtBreakpoints(t *testing.T) {
	t.Parallel()

	for _, breakpoint := range []float64{100, 250, 500} {
		below := confDelta(breakpoint)
		above := confDelta(breakpoint + 1e-9)
		require.InDelta(t, below, above, 1e-3, "discontinuity at %v", breakpoint)
	}
}

func TestConfDelta_Bounds(t *testing.T) {
	t.Parallel()

	require.Zero(t, confDelta(0))
	require.InDelta(t, 0.5, confDelta(100), 1e-9)
	require.InDelta(t, 0.75, confDelta(250), 1e-9)
	require.InDelta(t, 0.9, confDelta(500), 1e-9)
	require.InDelta(t, 1.0, confDelta(1e9), 1e-6)
}

func TestConfidence_TakesMaxOfBothCurves(t *testing.T) {
	t.Parallel()

	// Short article with near-total overlap: the ratio curve dominates.
	shortArticle := confidence(50, 48)
	require.GreaterOrEqual(t, shortArticle, confArticleDelta(50, 48))
	require.GreaterOrEqual(t, shortArticle, confDelta(48))
	require.Equal(t, shortArticle, confArticleDelta(50, 48))

	// Long article with a large absolute overlap: the delta curve dominates.
	longArticle := confidence(100000, 600)
	require.Equal(t, longArticle, confDelta(600))
}

func TestConfidence_ClampedToUnitInterval(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct{ article, delta float64 }{
		{0, 0},
		{10, 10},
		{1000, 1000},
		{1, 1000000},
	} {
		c := confidence(tc.article, tc.delta)
		require.GreaterOrEqual(t, c, 0.0)
		require.LessOrEqual(t, c, 1.0)
	}
}

func TestConfidence_ReferenceScenario(t *testing.T) {
	t.Parallel()

	// A=1000, delta=600: the ratio curve is on its polynomial tail and the
	// delta curve wins with (600-50)/600.
	c := confidence(1000, 600)
	require.InDelta(t, 550.0/600.0, c, 1e-9)
}
