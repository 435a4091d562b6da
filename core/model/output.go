package model

// ValueKind describes the shape of a series value.
type ValueKind string

const (
	KindScalar ValueKind = "scalar"
	KindVector ValueKind = "vector"
	KindText   ValueKind = "text"
)

// Series is a single output value addressed to a dynamic.
type Series struct {
	DynamicID string    `json:"dynamic_id"`
	Kind      ValueKind `json:"kind"`
	Values    []float64 `json:"values,omitempty"`
	Text      string    `json:"text,omitempty"`
}

// Scalar returns the first value of a scalar series.
func (s Series) Scalar() float64 {
	if len(s.Values) == 0 {
		return 0
	}
	return s.Values[0]
}

// Batch groups the series produced by one call into the engine.
type Batch struct {
	SimulationAt int64    `json:"simulation_at"`
	Phase        int      `json:"phase"`
	Series       []Series `json:"series"`
}

// AddScalar appends a scalar series. Empty identifiers are ignored.
func (b *Batch) AddScalar(id string, v float64) {
	if id == "" {
		return
	}
	b.Series = append(b.Series, Series{DynamicID: id, Kind: KindScalar, Values: []float64{v}})
}

// AddVector appends a vector series. Empty identifiers are ignored.
func (b *Batch) AddVector(id string, v ...float64) {
	if id == "" {
		return
	}
	vals := make([]float64, len(v))
	copy(vals, v)
	b.Series = append(b.Series, Series{DynamicID: id, Kind: KindVector, Values: vals})
}

// AddText appends a text series. Empty identifiers are ignored.
func (b *Batch) AddText(id, s string) {
	if id == "" {
		return
	}
	b.Series = append(b.Series, Series{DynamicID: id, Kind: KindText, Text: s})
}

// Append adds all series of o to b.
func (b *Batch) Append(o Batch) {
	b.Series = append(b.Series, o.Series...)
}

// Len returns the number of series.
func (b Batch) Len() int { return len(b.Series) }

// Find returns the last series addressed to id.
func (b Batch) Find(id string) (Series, bool) {
	for i := len(b.Series) - 1; i >= 0; i-- {
		if b.Series[i].DynamicID == id {
			return b.Series[i], true
		}
	}
	return Series{}, false
}
