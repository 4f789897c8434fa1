package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fitglue/strava-ingest/pkg/integrations/strava"
	"github.com/fitglue/strava-ingest/pkg/types"
)

func TestTransform(t *testing.T) {
	raw := &strava.Activity{
		ID:                   987,
		Name:                 "Threshold intervals",
		Type:                 "Ride",
		SportType:            "VirtualRide",
		StartDate:            time.Date(2024, 3, 1, 17, 0, 0, 0, time.UTC),
		StartDateLocal:       time.Date(2024, 3, 1, 18, 0, 0, 0, time.UTC),
		MovingTime:           3600,
		ElapsedTime:          3700,
		AverageWatts:         190,
		WeightedAverageWatts: 210,
		MaxWatts:             540,
		AverageHeartrate:     148,
		MaxHeartrate:         176,
	}

	got, err := Transform(raw, 250, "user-1")
	require.NoError(t, err)

	assert.Equal(t, int64(987), got.SourceActivityID)
	assert.Equal(t, "user-1", got.UserID)
	assert.Equal(t, "VirtualRide", got.Type)
	assert.Equal(t, types.SourceStrava, got.Source)
	assert.Equal(t, 60, got.DurationMinutes)
	assert.Equal(t, 210.0, got.NormalizedPower)
	assert.Equal(t, 0.84, got.IntensityFactor)
	// 3600 * 210 * 0.84 / (250 * 3600) * 100 = 70.56
	assert.Equal(t, 70.6, got.TSS)
	assert.Equal(t, raw.StartDateLocal, got.Date)
	assert.Nil(t, got.Peak5MinPower)
}

func TestTransform_Fallbacks(t *testing.T) {
	raw := &strava.Activity{
		ID:           1,
		Type:         "Ride",
		StartDate:    time.Date(2024, 3, 1, 17, 0, 0, 0, time.UTC),
		ElapsedTime:  1800,
		AverageWatts: 200,
	}

	got, err := Transform(raw, DefaultFTP, "u")
	require.NoError(t, err)

	assert.Equal(t, "Ride", got.Type)
	assert.Equal(t, 30, got.DurationMinutes)
	assert.Equal(t, 200.0, got.NormalizedPower)
	assert.Equal(t, 1.0, got.IntensityFactor)
	assert.Equal(t, 50.0, got.TSS)
	assert.Equal(t, raw.StartDate, got.Date)
}

func TestTransform_NoPower(t *testing.T) {
	got, err := Transform(&strava.Activity{ID: 2, MovingTime: 600}, 250, "u")
	require.NoError(t, err)
	assert.Zero(t, got.TSS)
	assert.Zero(t, got.IntensityFactor)
}

func TestTransform_Nil(t *testing.T) {
	_, err := Transform(nil, 250, "u")
	assert.ErrorIs(t, err, ErrNilActivity)
}

func TestPeakPower(t *testing.T) {
	watts := make([]float64, 600)
	times := make([]float64, 600)
	for i := range watts {
		times[i] = float64(i)
		watts[i] = 150
		if i >= 100 && i < 400 {
			watts[i] = 300
		}
	}

	assert.Equal(t, 300.0, PeakPower(watts, times, Peak5MinWindow))
	assert.Equal(t, 0.0, PeakPower(watts, times, Peak20MinWindow))
}

func TestPeakPower_GapsCountAsZero(t *testing.T) {
	// 10 samples at 100 W recorded every other second: the 1 Hz grid is half empty.
	var watts, times []float64
	for i := 0; i < 10; i++ {
		watts = append(watts, 100)
		times = append(times, float64(i*2))
	}

	// grid spans 19 s; best 4 s window holds two samples.
	assert.Equal(t, 50.0, PeakPower(watts, times, 4))
}

func TestPeakPower_Empty(t *testing.T) {
	assert.Zero(t, PeakPower(nil, nil, Peak5MinWindow))
	assert.Zero(t, PeakPower([]float64{100}, nil, 1))
	assert.Zero(t, PeakPower([]float64{100}, []float64{0}, 0))
}

func TestHRCompleteness(t *testing.T) {
	assert.Equal(t, 0.75, HRCompleteness([]float64{120, 0, 130, 140}, 4))
	assert.Equal(t, 0.5, HRCompleteness([]float64{120, 130}, 4))
	assert.Equal(t, 1.0, HRCompleteness([]float64{120, 130}, 0))
	assert.Equal(t, 0.333, HRCompleteness([]float64{120, 0, 0}, 3))
	assert.Zero(t, HRCompleteness(nil, 0))
}

func TestEstimateVO2Max(t *testing.T) {
	// 10.8 * 300 / 75 + 7 = 50.2
	assert.Equal(t, 50.2, EstimateVO2Max(300, 75))
	assert.Zero(t, EstimateVO2Max(0, 75))
	assert.Zero(t, EstimateVO2Max(300, 0))
}
