package fit

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"elastic-fit/internal/meshops"
)

// Field enumerates the settings a ParameterChanged event can carry.
type Field int

const (
	FieldFitAmount Field = iota
	FieldOffset
	FieldProxyTriangles
	FieldPreserveUVs
	FieldPreserveGroup
	FieldCleanup
	FieldDispSmoothPasses
	FieldDispSmoothThreshold
	FieldDispSmoothMin
	FieldDispSmoothMax
	FieldFollowStrength
	FieldFollowNeighbors
	FieldSmoothFactor
	FieldSmoothIterations
	FieldPostSymmetrize
	FieldSymmetrizeAxis
	FieldPostLaplacian
	FieldLaplacianFactor
	FieldLaplacianIterations
)

// Fields lists every Field in declaration order.
var Fields = []Field{
	FieldFitAmount, FieldOffset, FieldProxyTriangles, FieldPreserveUVs,
	FieldPreserveGroup, FieldCleanup, FieldDispSmoothPasses,
	FieldDispSmoothThreshold, FieldDispSmoothMin, FieldDispSmoothMax,
	FieldFollowStrength, FieldFollowNeighbors, FieldSmoothFactor,
	FieldSmoothIterations, FieldPostSymmetrize, FieldSymmetrizeAxis,
	FieldPostLaplacian, FieldLaplacianFactor, FieldLaplacianIterations,
}

var fieldNames = map[Field]string{
	FieldFitAmount:           "fit_amount",
	FieldOffset:              "offset",
	FieldProxyTriangles:      "proxy_triangles",
	FieldPreserveUVs:         "preserve_uvs",
	FieldPreserveGroup:       "preserve_group",
	FieldCleanup:             "cleanup",
	FieldDispSmoothPasses:    "disp_smooth_passes",
	FieldDispSmoothThreshold: "disp_smooth_threshold",
	FieldDispSmoothMin:       "disp_smooth_min",
	FieldDispSmoothMax:       "disp_smooth_max",
	FieldFollowStrength:      "follow_strength",
	FieldFollowNeighbors:     "follow_neighbors",
	FieldSmoothFactor:        "smooth_factor",
	FieldSmoothIterations:    "smooth_iterations",
	FieldPostSymmetrize:      "post_symmetrize",
	FieldSymmetrizeAxis:      "symmetrize_axis",
	FieldPostLaplacian:       "post_laplacian",
	FieldLaplacianFactor:     "laplacian_factor",
	FieldLaplacianIterations: "laplacian_iterations",
}

func (f Field) String() string {
	if s, ok := fieldNames[f]; ok {
		return s
	}
	return fmt.Sprintf("Field(%d)", int(f))
}

// ParseField maps a setting name such as "fit_amount" to its Field.
func ParseField(name string) (Field, error) {
	for f, s := range fieldNames {
		if s == name {
			return f, nil
		}
	}
	return 0, fmt.Errorf("fit: unknown parameter %q", name)
}

// Preview reports whether a change to f re-renders an active preview.
// The others only take effect on the next fit or on commit.
func (f Field) Preview() bool {
	switch f {
	case FieldFitAmount, FieldOffset,
		FieldDispSmoothPasses, FieldDispSmoothThreshold, FieldDispSmoothMin, FieldDispSmoothMax,
		FieldFollowStrength, FieldFollowNeighbors:
		return true
	}
	return false
}

// ParameterChanged is emitted by a host when the user edits a setting.
type ParameterChanged struct {
	Field Field
	Value any
}

// ParseSetting parses "name=value" into an event. The value is read as the
// field's kind: a number for ranged fields, a boolean for flags and the raw
// string otherwise.
func ParseSetting(s string) (ParameterChanged, error) {
	name, raw, ok := strings.Cut(s, "=")
	if !ok {
		return ParameterChanged{}, fmt.Errorf("fit: setting %q is not name=value", s)
	}
	f, err := ParseField(strings.TrimSpace(name))
	if err != nil {
		return ParameterChanged{}, err
	}
	raw = strings.TrimSpace(raw)

	ev := ParameterChanged{Field: f, Value: raw}
	if _, ok := Ranges[f]; ok {
		x, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return ParameterChanged{}, fmt.Errorf("fit: setting %s: %q is not a number", f, raw)
		}
		ev.Value = x
		return ev, nil
	}
	switch f {
	case FieldPreserveUVs, FieldCleanup, FieldPostSymmetrize, FieldPostLaplacian:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return ParameterChanged{}, fmt.Errorf("fit: setting %s: %q is not a boolean", f, raw)
		}
		ev.Value = b
	}
	return ev, nil
}

// Set applies one field change. Numbers are clamped into the field's
// range; a value of the wrong kind is a *ValidationError.
func (p *Params) Set(f Field, value any) error {
	bad := func() error {
		return &ValidationError{Subject: f.String(), Reason: fmt.Sprintf("unexpected value %v (%T)", value, value)}
	}

	if r, ok := Ranges[f]; ok {
		var v float64
		switch x := value.(type) {
		case float64:
			v = x
		case float32:
			v = float64(x)
		case int:
			v = float64(x)
		case int64:
			v = float64(x)
		default:
			return bad()
		}
		if math.IsNaN(v) {
			return bad()
		}
		p.setNumber(f, r.clamp(v))
		return nil
	}

	switch f {
	case FieldPreserveUVs, FieldCleanup, FieldPostSymmetrize, FieldPostLaplacian:
		b, ok := value.(bool)
		if !ok {
			return bad()
		}
		switch f {
		case FieldPreserveUVs:
			p.PreserveUVs = b
		case FieldCleanup:
			p.Cleanup = b
		case FieldPostSymmetrize:
			p.PostSymmetrize = b
		case FieldPostLaplacian:
			p.PostLaplacian = b
		}
	case FieldPreserveGroup:
		s, ok := value.(string)
		if !ok {
			return bad()
		}
		p.PreserveGroup = s
	case FieldSymmetrizeAxis:
		var a meshops.Axis
		switch x := value.(type) {
		case meshops.Axis:
			a = x
		case string:
			a = meshops.Axis(x)
		default:
			return bad()
		}
		if !a.Valid() {
			return bad()
		}
		p.SymmetrizeAxis = a
	default:
		return bad()
	}
	return nil
}
