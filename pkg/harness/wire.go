// Package harness implements the ConformanceHarness: packet-scoped
// fixture execution against an in-process kernel and an external
// legacy oracle, divergence classification, fail-closed gate
// enforcement, per-packet artifact emission, and a cross-run drift
// ledger. It follows the teacher's cmd/nebula run/report/log loop
// (load config, run, measure, report) and pkg/json's goccy/go-json
// wrapper idiom for fixture and artifact encoding.
package harness

import (
	"fmt"

	gojson "github.com/goccy/go-json"

	"github.com/joyshmitz/frankenpandas/pkg/column"
	"github.com/joyshmitz/frankenpandas/pkg/dtype"
	"github.com/joyshmitz/frankenpandas/pkg/frame"
	"github.com/joyshmitz/frankenpandas/pkg/nebulaerrors"
	"github.com/joyshmitz/frankenpandas/pkg/rindex"
)

// RawMessage is the harness's JSON document type, aliased onto
// goccy/go-json's so fixture/artifact encoding goes through the same
// faster encoder the rest of the engine uses instead of encoding/json.
type RawMessage = gojson.RawMessage

// WireScalar is §6's column/dtype wire encoding for one Scalar: a
// typed value or {"null": kind}.
type WireScalar struct {
	Null    *string  `json:"null,omitempty"`
	Bool    *bool    `json:"bool,omitempty"`
	Int64   *int64   `json:"int64,omitempty"`
	Float64 *float64 `json:"float64,omitempty"`
	Utf8    *string  `json:"utf8,omitempty"`
}

// ScalarToWire converts a dtype.Scalar into its wire form.
func ScalarToWire(s dtype.Scalar) WireScalar {
	if s.IsMissing() {
		kind := s.NullKind().String()
		return WireScalar{Null: &kind}
	}
	switch s.DType() {
	case dtype.Bool:
		v := s.Bool()
		return WireScalar{Bool: &v}
	case dtype.Int64:
		v := s.Int64()
		return WireScalar{Int64: &v}
	case dtype.Float64:
		v := s.Float64()
		return WireScalar{Float64: &v}
	case dtype.Utf8:
		v := s.Utf8()
		return WireScalar{Utf8: &v}
	default:
		kind := dtype.KindNull.String()
		return WireScalar{Null: &kind}
	}
}

// WireToScalar converts a wire scalar back into a dtype.Scalar.
func WireToScalar(w WireScalar) (dtype.Scalar, error) {
	switch {
	case w.Null != nil:
		return dtype.NewNull(nullKindFromString(*w.Null)), nil
	case w.Bool != nil:
		return dtype.NewBool(*w.Bool), nil
	case w.Int64 != nil:
		return dtype.NewInt64(*w.Int64), nil
	case w.Float64 != nil:
		return dtype.NewFloat64(*w.Float64), nil
	case w.Utf8 != nil:
		return dtype.NewUtf8(*w.Utf8), nil
	default:
		return dtype.Scalar{}, nebulaerrors.Newf(nebulaerrors.DomainHarness, "FixtureMalformed",
			"wire scalar has no recognized variant set")
	}
}

func nullKindFromString(s string) dtype.NullKind {
	switch s {
	case "NaN":
		return dtype.KindNaN
	case "NaT":
		return dtype.KindNaT
	default:
		return dtype.KindNull
	}
}

// WireLabel is §6's index wire encoding: {"int64": n} or {"utf8": s}.
type WireLabel struct {
	Int64 *int64  `json:"int64,omitempty"`
	Utf8  *string `json:"utf8,omitempty"`
}

// LabelToWire converts an rindex.Label into its wire form.
func LabelToWire(l rindex.Label) WireLabel {
	if l.Kind() == rindex.LabelInt64 {
		v := l.Int64()
		return WireLabel{Int64: &v}
	}
	v := l.Utf8()
	return WireLabel{Utf8: &v}
}

// WireToLabel converts a wire label back into an rindex.Label.
func WireToLabel(w WireLabel) (rindex.Label, error) {
	switch {
	case w.Int64 != nil:
		return rindex.Int64Label(*w.Int64), nil
	case w.Utf8 != nil:
		return rindex.Utf8Label(*w.Utf8), nil
	default:
		return rindex.Label{}, nebulaerrors.Newf(nebulaerrors.DomainHarness, "FixtureMalformed",
			"wire label has no recognized variant set")
	}
}

// WireColumn is the `(dtype_tag, sequence<scalar>)` column encoding.
type WireColumn struct {
	DType  string       `json:"dtype"`
	Values []WireScalar `json:"values"`
}

// ColumnToWire converts a Column into its wire form.
func ColumnToWire(c *column.Column) WireColumn {
	values := make([]WireScalar, c.Len())
	for i := 0; i < c.Len(); i++ {
		values[i] = ScalarToWire(c.At(i))
	}
	return WireColumn{DType: c.DType().String(), Values: values}
}

// WireToColumn converts a wire column back into a Column, re-inferring
// dtype from the decoded scalars rather than trusting the DType tag
// blindly (closed-fixture contract: unrecognized shapes fail closed).
func WireToColumn(w WireColumn) (*column.Column, error) {
	scalars := make([]dtype.Scalar, len(w.Values))
	for i, v := range w.Values {
		s, err := WireToScalar(v)
		if err != nil {
			return nil, err
		}
		scalars[i] = s
	}
	return column.NewFromScalars(scalars)
}

// WireSeries is the wire form of a Series: name, label sequence, and
// column.
type WireSeries struct {
	Name   string      `json:"name"`
	Index  []WireLabel `json:"index"`
	Column WireColumn  `json:"column"`
}

// SeriesToWire converts a Series into its wire form.
func SeriesToWire(s *frame.Series) WireSeries {
	labels := make([]WireLabel, s.Index.Len())
	for i := 0; i < s.Index.Len(); i++ {
		labels[i] = LabelToWire(s.Index.At(i))
	}
	return WireSeries{Name: s.Name, Index: labels, Column: ColumnToWire(s.Column)}
}

// WireToSeries converts a wire series back into a Series.
func WireToSeries(w WireSeries) (*frame.Series, error) {
	labels := make([]rindex.Label, len(w.Index))
	for i, wl := range w.Index {
		l, err := WireToLabel(wl)
		if err != nil {
			return nil, err
		}
		labels[i] = l
	}
	idx, err := rindex.New(labels)
	if err != nil {
		return nil, err
	}
	col, err := WireToColumn(w.Column)
	if err != nil {
		return nil, err
	}
	return frame.NewSeries(w.Name, idx, col)
}

// WireAlignmentPlan is the wire form of an AlignmentPlan, for
// index_align_union/index_align_inner fixtures.
type WireAlignmentPlan struct {
	UnionLabels    []WireLabel `json:"union_labels"`
	LeftPositions  []*int      `json:"left_positions"`
	RightPositions []*int      `json:"right_positions"`
}

// AlignmentPlanToWire converts an rindex.AlignmentPlan into wire form.
func AlignmentPlanToWire(plan *rindex.AlignmentPlan) WireAlignmentPlan {
	labels := make([]WireLabel, len(plan.UnionLabels))
	for i, l := range plan.UnionLabels {
		labels[i] = LabelToWire(l)
	}
	return WireAlignmentPlan{
		UnionLabels:    labels,
		LeftPositions:  plan.LeftPositions,
		RightPositions: plan.RightPositions,
	}
}

// Marshal encodes v with the harness's goccy/go-json codec.
func Marshal(v interface{}) ([]byte, error) {
	b, err := gojson.Marshal(v)
	if err != nil {
		return nil, nebulaerrors.Wrap(err, nebulaerrors.DomainHarness, "EncodeError", "marshaling wire value")
	}
	return b, nil
}

// MarshalIndent encodes v with indentation, for on-disk artifacts.
func MarshalIndent(v interface{}) ([]byte, error) {
	b, err := gojson.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, nebulaerrors.Wrap(err, nebulaerrors.DomainHarness, "EncodeError", "marshaling artifact")
	}
	return b, nil
}

// Unmarshal decodes data into v with the harness's goccy/go-json codec.
func Unmarshal(data []byte, v interface{}) error {
	if err := gojson.Unmarshal(data, v); err != nil {
		return nebulaerrors.Wrap(err, nebulaerrors.DomainHarness, "FixtureMalformed", fmt.Sprintf("decoding %T", v))
	}
	return nil
}
