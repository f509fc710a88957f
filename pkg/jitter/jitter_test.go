package jitter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDurationRange(t *testing.T) {
	base := 100 * time.Millisecond
	for i := 0; i < 100; i++ {
		d := Duration(base, DefaultJitter)
		require.GreaterOrEqual(t, d, base)
		require.LessOrEqual(t, d, base+base/2)
	}
}

func TestExponentialBackoffCapped(t *testing.T) {
	base := 1 * time.Second
	max := 4 * time.Second

	// attempt 10 должен упереться в max, джиттер сверху
	d := ExponentialBackoff(base, max, 10, DefaultJitter)
	require.GreaterOrEqual(t, d, max)
	require.LessOrEqual(t, d, max+max/2)
}

func TestExponentialBackoffGrows(t *testing.T) {
	base := 1 * time.Second
	max := 30 * time.Second

	d0 := ExponentialBackoff(base, max, 0, 0)
	d2 := ExponentialBackoff(base, max, 2, 0)
	require.Equal(t, base, d0)
	require.Equal(t, 4*base, d2)
}
