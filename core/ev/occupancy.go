package ev

import (
	"errors"
	"fmt"

	"github.com/kilianp07/assetsim/core/model"
)

// ErrInvalidOccupancy is returned for malformed occupancy reports.
var ErrInvalidOccupancy = errors.New("invalid occupancy report")

// ApplyOccupancy returns a new assignment reflecting the reported cars. The
// previous assignment is never modified. A missing previous assignment is
// created with slots bays; otherwise the existing bays are kept. Either way
// the report must cover every bay, and entries beyond the last bay are
// ignored. Slots whose car changed are reset, including their ledger.
func ApplyOccupancy(prev *model.CarAssignment, stationID string, slots int, cars []int, cat Catalog, p Params) (*model.CarAssignment, error) {
	if len(cars) == 0 {
		return nil, fmt.Errorf("%w: no slots reported", ErrInvalidOccupancy)
	}
	next := prev.Clone()
	if next == nil {
		if slots <= 0 {
			return nil, fmt.Errorf("%w: station %s has no charging slots", ErrInvalidOccupancy, stationID)
		}
		next = &model.CarAssignment{StationID: stationID, Slots: make([]model.CarSlot, slots)}
		for i := range next.Slots {
			next.Slots[i].CarID = model.EmptyBay
		}
	}
	if len(cars) < len(next.Slots) {
		return nil, fmt.Errorf("%w: %d cars reported for %d slots", ErrInvalidOccupancy, len(cars), len(next.Slots))
	}
	for i := range next.Slots {
		if cars[i] < model.EmptyBay {
			return nil, fmt.Errorf("%w: car id %d", ErrInvalidOccupancy, cars[i])
		}
		if next.Slots[i].CarID == cars[i] && prev != nil {
			continue
		}
		Plug(&next.Slots[i], cars[i], cat, p)
	}
	return next, nil
}
