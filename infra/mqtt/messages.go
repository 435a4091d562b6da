package mqtt

import (
	"fmt"
	"strings"

	"github.com/kilianp07/assetsim/core/model"
)

// Topic suffixes below <prefix>/<experiment>/.
const (
	SuffixSetup     = "setup"
	SuffixTick      = "tick"
	SuffixOccupancy = "occupancy"
	SuffixOutput    = "output"
	SuffixError     = "error"
	// ModuleTopic is published retained below the prefix on connect.
	ModuleTopic = "module"
)

// TickRequest asks the engine to run the next phase at SimulationAt.
type TickRequest struct {
	StartAt      int64        `json:"start_at"`
	SimulationAt int64        `json:"simulation_at"`
	Inputs       model.Inputs `json:"inputs"`
}

// OccupancyReport lists the car in each bay of a charging station.
type OccupancyReport struct {
	StationID string `json:"station_id"`
	Cars      []int  `json:"cars"`
}

// Output carries the batch produced for a request. Phase 0 is the setup
// output.
type Output struct {
	SimulationAt int64          `json:"simulation_at"`
	Phase        int            `json:"phase"`
	Series       []model.Series `json:"series"`
	Errors       []string       `json:"errors,omitempty"`
}

// ErrorReport is published when a request could not be processed at all.
type ErrorReport struct {
	Request string `json:"request"`
	Error   string `json:"error"`
}

// Descriptor announces the module to hosts.
type Descriptor struct {
	Name         string  `json:"name"`
	ClientID     string  `json:"client_id"`
	SamplingRate float64 `json:"sampling_rate"`
	Hooks        []int   `json:"hooks"`
}

// Topic joins prefix, experiment and suffix.
func Topic(prefix, experimentID, suffix string) string {
	return prefix + "/" + experimentID + "/" + suffix
}

// parseTopic returns the experiment and suffix of a topic below prefix.
func parseTopic(prefix, topic string) (experimentID, suffix string, err error) {
	rest, ok := strings.CutPrefix(topic, prefix+"/")
	if !ok {
		return "", "", fmt.Errorf("topic %q outside prefix %q", topic, prefix)
	}
	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[0] == "" {
		return "", "", fmt.Errorf("malformed topic %q", topic)
	}
	return parts[0], parts[1], nil
}
