// Package export writes engine outputs to files for offline analysis.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"

	"github.com/kilianp07/assetsim/core/model"
)

// Header is the first CSV record. Every value of a series is written on
// its own line, indexed from zero; text series use the text column.
var Header = []string{"simulation_at", "phase", "dynamic_id", "kind", "index", "value", "text"}

// WriteJSON writes v to w as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteCSV writes the batches to w in long format.
func WriteCSV(w io.Writer, batches []model.Batch) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, b := range batches {
		at := strconv.FormatInt(b.SimulationAt, 10)
		phase := strconv.Itoa(b.Phase)
		for _, s := range b.Series {
			if s.Kind == model.KindText {
				if err := cw.Write([]string{at, phase, s.DynamicID, string(s.Kind), "0", "", s.Text}); err != nil {
					return err
				}
				continue
			}
			for i, v := range s.Values {
				rec := []string{
					at,
					phase,
					s.DynamicID,
					string(s.Kind),
					strconv.Itoa(i),
					strconv.FormatFloat(v, 'f', -1, 64),
					"",
				}
				if err := cw.Write(rec); err != nil {
					return err
				}
			}
		}
	}
	cw.Flush()
	return cw.Error()
}
