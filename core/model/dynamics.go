package model

// Inputs carries the dynamic values supplied by the host for one tick,
// keyed by dynamic identifier.
type Inputs struct {
	Scalars map[string]float64   `json:"scalars,omitempty" yaml:"scalars,omitempty"`
	Vectors map[string][]float64 `json:"vectors,omitempty" yaml:"vectors,omitempty"`
	Texts   map[string]string    `json:"texts,omitempty" yaml:"texts,omitempty"`
}

// Scalar returns the scalar value for id.
func (in Inputs) Scalar(id string) (float64, bool) {
	if id == "" {
		return 0, false
	}
	v, ok := in.Scalars[id]
	return v, ok
}

// Vector returns the vector value for id.
func (in Inputs) Vector(id string) ([]float64, bool) {
	if id == "" {
		return nil, false
	}
	v, ok := in.Vectors[id]
	return v, ok
}

// Text returns the text value for id.
func (in Inputs) Text(id string) (string, bool) {
	if id == "" {
		return "", false
	}
	v, ok := in.Texts[id]
	return v, ok
}

// Merge returns a copy of in overlaid with the values of o.
func (in Inputs) Merge(o Inputs) Inputs {
	out := Inputs{
		Scalars: make(map[string]float64, len(in.Scalars)+len(o.Scalars)),
		Vectors: make(map[string][]float64, len(in.Vectors)+len(o.Vectors)),
		Texts:   make(map[string]string, len(in.Texts)+len(o.Texts)),
	}
	for k, v := range in.Scalars {
		out.Scalars[k] = v
	}
	for k, v := range o.Scalars {
		out.Scalars[k] = v
	}
	for k, v := range in.Vectors {
		out.Vectors[k] = v
	}
	for k, v := range o.Vectors {
		out.Vectors[k] = v
	}
	for k, v := range in.Texts {
		out.Texts[k] = v
	}
	for k, v := range o.Texts {
		out.Texts[k] = v
	}
	return out
}
