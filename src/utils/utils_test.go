package utils

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestResetTime(t *testing.T) {
	loc := time.FixedZone("UTC+8", 8*3600)
	in := time.Date(2025, 3, 1, 9, 30, 15, 123456789, loc)

	require.Equal(t, time.Date(2025, 3, 1, 1, 30, 15, 0, time.UTC), ResetTime(in, "second"))
	require.Equal(t, time.Date(2025, 3, 1, 1, 30, 15, 123000000, time.UTC), ResetTime(in, "millisecond"))
	require.Equal(t, time.Date(2025, 3, 1, 1, 30, 15, 123456000, time.UTC), ResetTime(in, "microsecond"))
	require.Equal(t, time.Date(2025, 3, 1, 1, 30, 0, 0, time.UTC), ResetTime(in, "minute"))
	require.Equal(t, time.Date(2025, 3, 1, 1, 0, 0, 0, time.UTC), ResetTime(in, "hour"))
	require.Equal(t, ResetTime(in, "microsecond"), ResetTime(in, "fortnight"))
}

func TestIsFinite(t *testing.T) {
	require.True(t, IsFinite(0))
	require.True(t, IsFinite(-12.5))
	require.False(t, IsFinite(math.NaN()))
	require.False(t, IsFinite(math.Inf(1)))
	require.False(t, IsFinite(math.Inf(-1)))
}
