package metrics_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pmacedo/dispatchproxy/internal/metrics"
	"github.com/pmacedo/dispatchproxy/internal/policy"
)

func TestMeterRunningMean(t *testing.T) {
	m := metrics.NewMeter()
	for _, ms := range []int64{100, 200, 300} {
		m.Record(policy.RoundRobin, ms)
	}
	avg, ok := m.Average(policy.RoundRobin)
	require.True(t, ok)
	require.Equal(t, int64(200), avg)
}

func TestMeterAverageAbsentBeforeFirstRecord(t *testing.T) {
	m := metrics.NewMeter()
	_, ok := m.Average(policy.RoundRobin)
	require.False(t, ok)
}

func TestMeterResetClearsKindAndCounter(t *testing.T) {
	m := metrics.NewMeter()
	m.Record(policy.RoundRobin, 500)
	m.Reset(policy.RoundRobin)

	_, ok := m.Average(policy.RoundRobin)
	require.False(t, ok)

	// n was zeroed too: a fresh single sample is the mean outright.
	m.Record(policy.RoundRobin, 42)
	avg, ok := m.Average(policy.RoundRobin)
	require.True(t, ok)
	require.Equal(t, int64(42), avg)
}

func TestMeterSharedCounterBoundsCrossKindInterference(t *testing.T) {
	m := metrics.NewMeter()
	m.Record(policy.RoundRobin, 1000)
	m.Reset(policy.RoundRobin)
	// LeastConnections starts fresh with n=0 even though RoundRobin had
	// accumulated a sample before the reset.
	m.Record(policy.LeastConnections, 50)
	avg, ok := m.Average(policy.LeastConnections)
	require.True(t, ok)
	require.Equal(t, int64(50), avg)
}

func TestMeterShouldSwitchRespectsDebounce(t *testing.T) {
	m := metrics.NewMeter()
	require.False(t, m.ShouldSwitch())

	m.Backdate(metrics.Debounce + time.Second)
	require.True(t, m.ShouldSwitch())
}

func TestMeterResetRestartsDebounceClock(t *testing.T) {
	m := metrics.NewMeter()
	m.Backdate(metrics.Debounce + time.Second)
	require.True(t, m.ShouldSwitch())

	m.Reset(policy.RoundRobin)
	require.False(t, m.ShouldSwitch())
}
