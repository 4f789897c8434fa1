package firestore

import (
	"time"

	"github.com/fitglue/strava-ingest/pkg/types"
)

// AthleteMapping links an upstream athlete to an internal user.
type AthleteMapping struct {
	AthleteID int64
	UserID    string
	UpdatedAt time.Time
}

// Helper to safely get string from map
func getString(m map[string]interface{}, key string) string {
	if v, ok := m[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// Helper to safely get an integer from map.
// Firestore returns integers as int64 but values written by other clients may be doubles.
func getInt64(m map[string]interface{}, key string) int64 {
	switch v := m[key].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	}
	return 0
}

func getFloat(m map[string]interface{}, key string) float64 {
	switch v := m[key].(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	case int:
		return float64(v)
	}
	return 0
}

// getFloatPtr returns nil when the field is absent so optional metrics stay unset.
func getFloatPtr(m map[string]interface{}, key string) *float64 {
	if _, ok := m[key]; !ok {
		return nil
	}
	f := getFloat(m, key)
	return &f
}

// Helper to safely get time from map (handles time.Time from Firestore)
func getTime(m map[string]interface{}, key string) time.Time {
	if v, ok := m[key]; ok {
		if t, ok := v.(time.Time); ok {
			return t
		}
	}
	return time.Time{}
}

func getFloatSlice(m map[string]interface{}, key string) []float64 {
	raw, ok := m[key].([]interface{})
	if !ok {
		return nil
	}
	out := make([]float64, 0, len(raw))
	for _, v := range raw {
		switch n := v.(type) {
		case float64:
			out = append(out, n)
		case int64:
			out = append(out, float64(n))
		}
	}
	return out
}

// --- UserProfile Converters ---

func UserProfileToFirestore(p *types.UserProfile) map[string]interface{} {
	return map[string]interface{}{
		"ftp":       p.FTP,
		"weight_kg": p.WeightKg,
	}
}

func FirestoreToUserProfile(m map[string]interface{}) *types.UserProfile {
	return &types.UserProfile{
		FTP:      int(getInt64(m, "ftp")),
		WeightKg: getFloat(m, "weight_kg"),
	}
}

// --- Credentials Converters ---

func CredentialsToFirestore(c *types.Credentials) map[string]interface{} {
	return map[string]interface{}{
		"access_token":  c.AccessToken,
		"refresh_token": c.RefreshToken,
		"expires_at":    c.ExpiresAt,
		"athlete_id":    c.AthleteID,
	}
}

func FirestoreToCredentials(m map[string]interface{}) *types.Credentials {
	return &types.Credentials{
		AccessToken:  getString(m, "access_token"),
		RefreshToken: getString(m, "refresh_token"),
		ExpiresAt:    getInt64(m, "expires_at"),
		AthleteID:    getInt64(m, "athlete_id"),
	}
}

// --- AthleteMapping Converters ---

func AthleteMappingToFirestore(a *AthleteMapping) map[string]interface{} {
	return map[string]interface{}{
		"athlete_id": a.AthleteID,
		"user_id":    a.UserID,
		"updated_at": a.UpdatedAt,
	}
}

func FirestoreToAthleteMapping(m map[string]interface{}) *AthleteMapping {
	return &AthleteMapping{
		AthleteID: getInt64(m, "athlete_id"),
		UserID:    getString(m, "user_id"),
		UpdatedAt: getTime(m, "updated_at"),
	}
}

// --- Activity Converters ---

func ActivityToFirestore(a *types.Activity) map[string]interface{} {
	m := map[string]interface{}{
		"source_activity_id": a.SourceActivityID,
		"user_id":            a.UserID,
		"name":               a.Name,
		"date":               a.Date,
		"duration_minutes":   a.DurationMinutes,
		"avg_power":          a.AvgPower,
		"normalized_power":   a.NormalizedPower,
		"max_power":          a.MaxPower,
		"avg_heart_rate":     a.AvgHeartRate,
		"max_heart_rate":     a.MaxHeartRate,
		"tss":                a.TSS,
		"intensity_factor":   a.IntensityFactor,
		"type":               a.Type,
		"source":             a.Source,
		"created_at":         a.CreatedAt,
	}
	for k, v := range ActivityPatchToFirestore(types.ActivityPatch{
		Peak5MinPower:  a.Peak5MinPower,
		Peak20MinPower: a.Peak20MinPower,
		HRCompleteness: a.HRCompleteness,
	}) {
		m[k] = v
	}
	return m
}

// ActivityPatchToFirestore returns only the fields the patch sets.
func ActivityPatchToFirestore(p types.ActivityPatch) map[string]interface{} {
	m := map[string]interface{}{}
	if p.Peak5MinPower != nil {
		m["peak_5min_power"] = *p.Peak5MinPower
	}
	if p.Peak20MinPower != nil {
		m["peak_20min_power"] = *p.Peak20MinPower
	}
	if p.HRCompleteness != nil {
		m["hr_completeness"] = *p.HRCompleteness
	}
	return m
}

func FirestoreToActivity(m map[string]interface{}) *types.Activity {
	return &types.Activity{
		SourceActivityID: getInt64(m, "source_activity_id"),
		UserID:           getString(m, "user_id"),
		Name:             getString(m, "name"),
		Date:             getTime(m, "date"),
		DurationMinutes:  int(getInt64(m, "duration_minutes")),
		AvgPower:         getFloat(m, "avg_power"),
		NormalizedPower:  getFloat(m, "normalized_power"),
		MaxPower:         getFloat(m, "max_power"),
		AvgHeartRate:     getFloat(m, "avg_heart_rate"),
		MaxHeartRate:     getFloat(m, "max_heart_rate"),
		TSS:              getFloat(m, "tss"),
		IntensityFactor:  getFloat(m, "intensity_factor"),
		Type:             getString(m, "type"),
		Source:           getString(m, "source"),
		CreatedAt:        getTime(m, "created_at"),
		Peak5MinPower:    getFloatPtr(m, "peak_5min_power"),
		Peak20MinPower:   getFloatPtr(m, "peak_20min_power"),
		HRCompleteness:   getFloatPtr(m, "hr_completeness"),
	}
}

// --- StreamSet Converters ---

func StreamSetToFirestore(s *types.StreamSet) map[string]interface{} {
	m := map[string]interface{}{
		"sample_count": s.SampleCount,
	}
	if len(s.Watts) > 0 {
		m["watts"] = s.Watts
	}
	if len(s.HeartRate) > 0 {
		m["heartrate"] = s.HeartRate
	}
	if len(s.Time) > 0 {
		m["time"] = s.Time
	}
	if len(s.Cadence) > 0 {
		m["cadence"] = s.Cadence
	}
	return m
}

func FirestoreToStreamSet(m map[string]interface{}) *types.StreamSet {
	return &types.StreamSet{
		Watts:       getFloatSlice(m, "watts"),
		HeartRate:   getFloatSlice(m, "heartrate"),
		Time:        getFloatSlice(m, "time"),
		Cadence:     getFloatSlice(m, "cadence"),
		SampleCount: int(getInt64(m, "sample_count")),
	}
}

// --- FitnessEstimate Converters ---

func FitnessEstimateToFirestore(e *types.FitnessEstimate) map[string]interface{} {
	return map[string]interface{}{
		"user_id":         e.UserID,
		"activity_id":     e.ActivityID,
		"vo2max":          e.VO2Max,
		"peak_5min_power": e.Peak5MinPower,
		"weight_kg":       e.WeightKg,
		"source":          e.Source,
		"created_at":      e.CreatedAt,
	}
}

func FirestoreToFitnessEstimate(m map[string]interface{}) *types.FitnessEstimate {
	return &types.FitnessEstimate{
		UserID:        getString(m, "user_id"),
		ActivityID:    getString(m, "activity_id"),
		VO2Max:        getFloat(m, "vo2max"),
		Peak5MinPower: getFloat(m, "peak_5min_power"),
		WeightKg:      getFloat(m, "weight_kg"),
		Source:        getString(m, "source"),
		CreatedAt:     getTime(m, "created_at"),
	}
}
