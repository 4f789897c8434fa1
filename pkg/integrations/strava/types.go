package strava

import "time"

// Activity is the subset of Strava's DetailedActivity the pipeline consumes.
type Activity struct {
	ID                   int64     `json:"id"`
	Name                 string    `json:"name"`
	Type                 string    `json:"type"`
	SportType            string    `json:"sport_type"`
	StartDate            time.Time `json:"start_date"`
	StartDateLocal       time.Time `json:"start_date_local"`
	MovingTime           int       `json:"moving_time"`  // seconds
	ElapsedTime          int       `json:"elapsed_time"` // seconds
	Distance             float64   `json:"distance"`     // meters
	AverageWatts         float64   `json:"average_watts"`
	WeightedAverageWatts float64   `json:"weighted_average_watts"`
	MaxWatts             float64   `json:"max_watts"`
	DeviceWatts          bool      `json:"device_watts"`
	HasHeartrate         bool      `json:"has_heartrate"`
	AverageHeartrate     float64   `json:"average_heartrate"`
	MaxHeartrate         float64   `json:"max_heartrate"`
	Athlete              struct {
		ID int64 `json:"id"`
	} `json:"athlete"`
}

// Stream is one time series as returned with key_by_type=true.
type Stream struct {
	Data         []float64 `json:"data"`
	SeriesType   string    `json:"series_type"`
	OriginalSize int       `json:"original_size"`
	Resolution   string    `json:"resolution"`
}

// Streams holds the series requested by GetStreams. Absent series are nil.
type Streams struct {
	Watts     *Stream `json:"watts"`
	Heartrate *Stream `json:"heartrate"`
	Time      *Stream `json:"time"`
	Cadence   *Stream `json:"cadence"`
}

// Values returns the series data, or nil for an absent stream.
func (s *Stream) Values() []float64 {
	if s == nil {
		return nil
	}
	return s.Data
}

// StreamKeys are the series the enrichment stage requests.
var StreamKeys = []string{"watts", "heartrate", "time", "cadence"}
