package profile

import "strconv"

const (
	// SecondsPerDay is the period of the profile time axis.
	SecondsPerDay = 86400
	// SummerStart and SummerEnd bound the summer season, in seconds since
	// the start of the year. Both bounds are exclusive.
	SummerStart = 6739200
	SummerEnd   = 22809600
)

// Season selects the seasonal load and PV columns.
type Season string

const (
	Summer Season = "S"
	Winter Season = "W"
)

// SeasonOf returns the season of an experiment starting at startAt.
func SeasonOf(startAt int64) Season {
	if startAt > SummerStart && startAt < SummerEnd {
		return Summer
	}
	return Winter
}

// DataTime maps an experiment time onto the profile time axis.
func DataTime(startAt, simulationAt int64) int64 {
	t := (startAt + simulationAt) % SecondsPerDay
	if t < 0 {
		t += SecondsPerDay
	}
	return t
}

// Column names used by the simulation.
const (
	ColumnEV      = "EV"
	CarSlotPrefix = "EV-ID_Slot"
)

// LoadColumn returns the seasonal load column.
func LoadColumn(s Season) string { return "LD-" + string(s) }

// PVColumn returns the seasonal PV column.
func PVColumn(s Season) string { return "PV-" + string(s) }

// CarSlotColumn returns the column holding the car identifier of the given
// 1-based slot.
func CarSlotColumn(slot int) string { return CarSlotPrefix + strconv.Itoa(slot) }
