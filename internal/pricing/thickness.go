package pricing

import (
	"strconv"
	"strings"
)

// Thickness is a parsed glass thickness. Laminated glass is written "A+B"
// (e.g. "4+4"); monolithic glass is a single number of millimetres.
type Thickness struct {
	Spec      string
	Layers    []float64
	Laminated bool
}

// Total is the summed thickness of every layer in millimetres.
func (t Thickness) Total() float64 {
	var sum float64
	for _, l := range t.Layers {
		sum += l
	}
	return sum
}

// ParseThickness normalizes spec ("6", "6mm", "6,5", "4+4", "5 + 5 mm").
func ParseThickness(spec string) (Thickness, bool) {
	s := strings.ToLower(strings.TrimSpace(spec))
	s = strings.TrimSuffix(s, "mm")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, ",", ".")
	if s == "" {
		return Thickness{}, false
	}

	parts := strings.Split(s, "+")
	layers := make([]float64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSuffix(p, "mm")
		v, err := strconv.ParseFloat(p, 64)
		if err != nil || v <= 0 {
			return Thickness{}, false
		}
		layers = append(layers, v)
	}

	return Thickness{
		Spec:      s,
		Layers:    layers,
		Laminated: len(layers) > 1,
	}, true
}

// sameThickness compares a requested thickness against a catalog one: exact
// notation for laminated glass, numeric equality for monolithic glass.
func sameThickness(requested Thickness, catalogSpec string) bool {
	candidate, ok := ParseThickness(catalogSpec)
	if !ok {
		return false
	}
	if requested.Laminated || candidate.Laminated {
		return requested.Spec == candidate.Spec
	}
	return requested.Layers[0] == candidate.Layers[0]
}
