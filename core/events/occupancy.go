package events

import "time"

// Occupancy is published when a station's bay assignment was replaced.
type Occupancy struct {
	ExperimentID string
	StationID    string
	Cars         []int
	Time         time.Time
}
