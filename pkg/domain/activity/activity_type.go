package activity

// rideTypes is the allow-list of Strava sport types ingested by the pipeline.
// Power-based training load only makes sense for ride-like activities.
var rideTypes = map[string]bool{
	"Ride":              true,
	"VirtualRide":       true,
	"GravelRide":        true,
	"MountainBikeRide":  true,
	"EBikeRide":         true,
	"EMountainBikeRide": true,
	"Velomobile":        true,
	"Handcycle":         true,
}

// ResolveType returns the Strava sport_type, falling back to the legacy type field
// for activities created before sport_type existed.
func ResolveType(sportType, legacyType string) string {
	if sportType != "" {
		return sportType
	}
	return legacyType
}

// IsRide reports whether a Strava activity type is on the ride allow-list.
func IsRide(activityType string) bool {
	return rideTypes[activityType]
}
