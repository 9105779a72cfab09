package core

import (
	"fmt"
	"regexp"

	"gonum.org/v1/gonum/floats"
)

// Affine plot parameters.
const (
	AffineSamples      = 400
	AffineCoefMin      = -10.0
	AffineCoefMax      = 10.0
	AffineXMinLow      = -50.0
	AffineXMaxHigh     = 50.0
	DefaultAffineColor = "#1f77b4"
)

var hexColor = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// AffineParams describe y = A*x + B drawn over [XMin, XMax].
type AffineParams struct {
	A     float64 `json:"a"`
	B     float64 `json:"b"`
	XMin  float64 `json:"xmin"`
	XMax  float64 `json:"xmax"`
	Color string  `json:"color"`
}

// DefaultAffineParams are the values the affine page opens with.
func DefaultAffineParams() AffineParams {
	return AffineParams{A: 1, B: 0, XMin: -10, XMax: 10, Color: DefaultAffineColor}
}

// AffineLine is the sampled line.
type AffineLine struct {
	AffineParams
	Equation string    `json:"equation"`
	X        []float64 `json:"x"`
	Y        []float64 `json:"y"`
}

// Validate checks every parameter against its allowed range. An empty color
// is replaced with DefaultAffineColor. NaN is outside every range.
func (p *AffineParams) Validate() error {
	if !within(p.A, AffineCoefMin, AffineCoefMax) {
		return fmt.Errorf("%w: a = %g not in [%g, %g]", ErrInvalidParam, p.A, AffineCoefMin, AffineCoefMax)
	}
	if !within(p.B, AffineCoefMin, AffineCoefMax) {
		return fmt.Errorf("%w: b = %g not in [%g, %g]", ErrInvalidParam, p.B, AffineCoefMin, AffineCoefMax)
	}
	if !within(p.XMin, AffineXMinLow, 0) {
		return fmt.Errorf("%w: xmin = %g not in [%g, 0]", ErrInvalidParam, p.XMin, AffineXMinLow)
	}
	if !within(p.XMax, 0, AffineXMaxHigh) {
		return fmt.Errorf("%w: xmax = %g not in [0, %g]", ErrInvalidParam, p.XMax, AffineXMaxHigh)
	}
	if p.Color == "" {
		p.Color = DefaultAffineColor
	}
	if !hexColor.MatchString(p.Color) {
		return fmt.Errorf("%w: color %q is not #rrggbb", ErrInvalidParam, p.Color)
	}
	return nil
}

// Affine samples y = a*x + b at AffineSamples evenly spaced points.
func Affine(p AffineParams) (*AffineLine, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	x := make([]float64, AffineSamples)
	floats.Span(x, p.XMin, p.XMax)
	x[len(x)-1] = p.XMax

	y := make([]float64, AffineSamples)
	for i, xv := range x {
		y[i] = p.A*xv + p.B
	}

	return &AffineLine{
		AffineParams: p,
		Equation:     fmt.Sprintf("y = %gx + %g", p.A, p.B),
		X:            x,
		Y:            y,
	}, nil
}

func within(v, low, high float64) bool {
	return v >= low && v <= high
}
