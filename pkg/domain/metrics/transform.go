package metrics

import (
	"errors"
	"math"

	"github.com/fitglue/strava-ingest/pkg/domain/activity"
	"github.com/fitglue/strava-ingest/pkg/integrations/strava"
	"github.com/fitglue/strava-ingest/pkg/types"
)

// DefaultFTP is used when the user has not set a functional threshold power.
const DefaultFTP = 200

var ErrNilActivity = errors.New("nil upstream activity")

// Transform converts a Strava activity into an activity record and computes
// intensity factor and training stress from the power and duration fields.
func Transform(raw *strava.Activity, ftp int, userID string) (*types.Activity, error) {
	if raw == nil {
		return nil, ErrNilActivity
	}

	seconds := raw.MovingTime
	if seconds <= 0 {
		seconds = raw.ElapsedTime
	}

	np := raw.WeightedAverageWatts
	if np <= 0 {
		np = raw.AverageWatts
	}

	date := raw.StartDateLocal
	if date.IsZero() {
		date = raw.StartDate
	}

	intensity, tss := TrainingLoad(seconds, np, ftp)

	return &types.Activity{
		SourceActivityID: raw.ID,
		UserID:           userID,
		Name:             raw.Name,
		Date:             date,
		DurationMinutes:  int(math.Round(float64(seconds) / 60)),
		AvgPower:         raw.AverageWatts,
		NormalizedPower:  np,
		MaxPower:         raw.MaxWatts,
		AvgHeartRate:     raw.AverageHeartrate,
		MaxHeartRate:     raw.MaxHeartrate,
		TSS:              tss,
		IntensityFactor:  intensity,
		Type:             activity.ResolveType(raw.SportType, raw.Type),
		Source:           types.SourceStrava,
	}, nil
}

// TrainingLoad returns intensity factor (NP / FTP) and TSS for a ride of the given length.
// TSS = (seconds x NP x IF) / (FTP x 3600) x 100
func TrainingLoad(seconds int, normalizedPower float64, ftp int) (intensityFactor, tss float64) {
	if ftp <= 0 || normalizedPower <= 0 || seconds <= 0 {
		return 0, 0
	}
	intensityFactor = normalizedPower / float64(ftp)
	tss = (float64(seconds) * normalizedPower * intensityFactor) / (float64(ftp) * 3600) * 100
	return round(intensityFactor, 3), round(tss, 1)
}

// HRCompleteness is the fraction of samples carrying a heart rate reading.
// sampleCount is the activity's total sample count; the HR series length is used when it is zero.
func HRCompleteness(heartrate []float64, sampleCount int) float64 {
	if sampleCount <= 0 {
		sampleCount = len(heartrate)
	}
	if sampleCount == 0 {
		return 0
	}
	valid := 0
	for _, hr := range heartrate {
		if hr > 0 {
			valid++
		}
	}
	ratio := float64(valid) / float64(sampleCount)
	if ratio > 1 {
		ratio = 1
	}
	return round(ratio, 3)
}

// EstimateVO2Max uses the 5-minute power relationship VO2max = 10.8 x W/kg + 7.
func EstimateVO2Max(peak5MinPower, weightKg float64) float64 {
	if peak5MinPower <= 0 || weightKg <= 0 {
		return 0
	}
	return round(10.8*peak5MinPower/weightKg+7, 1)
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
