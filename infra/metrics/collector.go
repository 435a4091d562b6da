package metrics

import (
	"context"

	"github.com/kilianp07/assetsim/core/events"
	"github.com/kilianp07/assetsim/core/logger"
	coremetrics "github.com/kilianp07/assetsim/core/metrics"
	"github.com/kilianp07/assetsim/internal/eventbus"
)

// StartEventCollector subscribes to the tick and occupancy buses and
// forwards their events to sink. Either bus may be nil. It stops when the
// context is canceled or both buses are closed.
func StartEventCollector(ctx context.Context, ticks *eventbus.TypedBus[events.Tick], occ *eventbus.TypedBus[events.Occupancy], sink coremetrics.MetricsSink, log logger.Logger) {
	if sink == nil || (ticks == nil && occ == nil) {
		return
	}
	if log == nil {
		log = logger.Nop{}
	}
	var tickSub <-chan events.Tick
	var occSub <-chan events.Occupancy
	if ticks != nil {
		tickSub = ticks.Subscribe()
	}
	if occ != nil {
		occSub = occ.Subscribe()
	}
	go func() {
		defer func() {
			if ticks != nil {
				ticks.Unsubscribe(tickSub)
			}
			if occ != nil {
				occ.Unsubscribe(occSub)
			}
		}()
		for tickSub != nil || occSub != nil {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-tickSub:
				if !ok {
					tickSub = nil
					continue
				}
				if err := sink.RecordTick(ev); err != nil {
					log.Warnf("record tick %s/%d: %v", ev.ExperimentID, ev.SimulationAt, err)
				}
			case ev, ok := <-occSub:
				if !ok {
					occSub = nil
					continue
				}
				if r, ok := sink.(coremetrics.OccupancyRecorder); ok {
					if err := r.RecordOccupancy(ev); err != nil {
						log.Warnf("record occupancy %s/%s: %v", ev.ExperimentID, ev.StationID, err)
					}
				}
			}
		}
	}()
}
