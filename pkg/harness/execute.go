package harness

import (
	"github.com/joyshmitz/frankenpandas/pkg/config"
	"github.com/joyshmitz/frankenpandas/pkg/frame"
	"github.com/joyshmitz/frankenpandas/pkg/groupby"
	"github.com/joyshmitz/frankenpandas/pkg/join"
	"github.com/joyshmitz/frankenpandas/pkg/nebulaerrors"
	"github.com/joyshmitz/frankenpandas/pkg/policy"
	"github.com/joyshmitz/frankenpandas/pkg/rindex"
)

// seriesPairInputs is the structured-record shape series_add/sub/mul/
// div/compare_gt fixtures decode their `inputs` field into.
type seriesPairInputs struct {
	Left  WireSeries `json:"left"`
	Right WireSeries `json:"right"`
}

// joinInputs is the structured-record shape series_join_* fixtures
// decode into.
type joinInputs struct {
	Left  WireSeries `json:"left"`
	Right WireSeries `json:"right"`
}

// groupByInputs is the structured-record shape groupby_* fixtures
// decode into.
type groupByInputs struct {
	Keys   WireSeries `json:"keys"`
	Values WireSeries `json:"values"`
	DropNA *bool      `json:"dropna,omitempty"`
}

// alignInputs is the structured-record shape index_align_* fixtures
// decode into.
type alignInputs struct {
	Left  []WireLabel `json:"left"`
	Right []WireLabel `json:"right"`
}

// duplicatesInputs is the structured-record shape
// index_has_duplicates fixtures decode into.
type duplicatesInputs struct {
	Labels []WireLabel `json:"labels"`
}

// firstPositionsInputs is the structured-record shape
// index_first_positions fixtures decode into: the source index's
// labels and a sequence of target labels to resolve positions for.
type firstPositionsInputs struct {
	Labels  []WireLabel `json:"labels"`
	Targets []WireLabel `json:"targets"`
}

func decodeSeriesPair(raw RawMessage) (*frame.Series, *frame.Series, error) {
	var in seriesPairInputs
	if err := Unmarshal(raw, &in); err != nil {
		return nil, nil, err
	}
	left, err := WireToSeries(in.Left)
	if err != nil {
		return nil, nil, err
	}
	right, err := WireToSeries(in.Right)
	if err != nil {
		return nil, nil, err
	}
	return left, right, nil
}

func decodeLabels(wire []WireLabel) ([]rindex.Label, error) {
	labels := make([]rindex.Label, len(wire))
	for i, w := range wire {
		l, err := WireToLabel(w)
		if err != nil {
			return nil, err
		}
		labels[i] = l
	}
	return labels, nil
}

// Execute runs fixture's operation against the in-process kernel
// surface and returns its wire-encoded result. This is the "execute"
// state of §4.9's run_packet state machine.
func Execute(fixture Fixture, p *policy.RuntimePolicy, ledger *policy.EvidenceLedger) (interface{}, error) {
	switch fixture.Operation {
	case OpSeriesAdd, OpSeriesSub, OpSeriesMul, OpSeriesDiv:
		left, right, err := decodeSeriesPair(fixture.Inputs)
		if err != nil {
			return nil, err
		}
		result, err := frame.Arith(left, right, arithOpFor(fixture.Operation), p, ledger)
		if err != nil {
			return nil, err
		}
		return SeriesToWire(result), nil

	case OpSeriesCompareGt:
		left, right, err := decodeSeriesPair(fixture.Inputs)
		if err != nil {
			return nil, err
		}
		result, err := frame.Compare(left, right, frame.OpGt, p, ledger)
		if err != nil {
			return nil, err
		}
		return SeriesToWire(result), nil

	case OpSeriesJoinInner, OpSeriesJoinLeft, OpSeriesJoinRight, OpSeriesJoinOuter:
		var in joinInputs
		if err := Unmarshal(fixture.Inputs, &in); err != nil {
			return nil, err
		}
		left, err := WireToSeries(in.Left)
		if err != nil {
			return nil, err
		}
		right, err := WireToSeries(in.Right)
		if err != nil {
			return nil, err
		}
		leftOut, rightOut, err := join.SeriesJoin(left, right, joinTypeFor(fixture.Operation), p, ledger)
		if err != nil {
			return nil, err
		}
		return struct {
			Left  WireSeries `json:"left"`
			Right WireSeries `json:"right"`
		}{SeriesToWire(leftOut), SeriesToWire(rightOut)}, nil

	case OpGroupBySum, OpGroupByMean, OpGroupByCount:
		var in groupByInputs
		if err := Unmarshal(fixture.Inputs, &in); err != nil {
			return nil, err
		}
		keys, err := WireToSeries(in.Keys)
		if err != nil {
			return nil, err
		}
		values, err := WireToSeries(in.Values)
		if err != nil {
			return nil, err
		}
		opts := groupby.DefaultOptions()
		if in.DropNA != nil {
			opts.DropNA = *in.DropNA
		}
		result, err := groupByAgg(fixture.Operation, keys, values, opts, p, ledger)
		if err != nil {
			return nil, err
		}
		return SeriesToWire(result), nil

	case OpIndexAlignUnion, OpIndexAlignInner:
		var in alignInputs
		if err := Unmarshal(fixture.Inputs, &in); err != nil {
			return nil, err
		}
		leftLabels, err := decodeLabels(in.Left)
		if err != nil {
			return nil, err
		}
		rightLabels, err := decodeLabels(in.Right)
		if err != nil {
			return nil, err
		}
		leftIdx, err := rindex.New(leftLabels)
		if err != nil {
			return nil, err
		}
		rightIdx, err := rindex.New(rightLabels)
		if err != nil {
			return nil, err
		}
		var plan *rindex.AlignmentPlan
		if fixture.Operation == OpIndexAlignUnion {
			plan = rindex.AlignUnion(leftIdx, rightIdx)
		} else {
			plan = rindex.AlignInner(leftIdx, rightIdx)
		}
		return AlignmentPlanToWire(plan), nil

	case OpIndexHasDuplicates:
		var in duplicatesInputs
		if err := Unmarshal(fixture.Inputs, &in); err != nil {
			return nil, err
		}
		labels, err := decodeLabels(in.Labels)
		if err != nil {
			return nil, err
		}
		idx, err := rindex.New(labels)
		if err != nil {
			return nil, err
		}
		return idx.HasDuplicates(), nil

	case OpIndexFirstPositions:
		var in firstPositionsInputs
		if err := Unmarshal(fixture.Inputs, &in); err != nil {
			return nil, err
		}
		labels, err := decodeLabels(in.Labels)
		if err != nil {
			return nil, err
		}
		targets, err := decodeLabels(in.Targets)
		if err != nil {
			return nil, err
		}
		idx, err := rindex.New(labels)
		if err != nil {
			return nil, err
		}
		return idx.GetIndexer(targets), nil

	default:
		return nil, nebulaerrors.Newf(nebulaerrors.DomainHarness, "UnknownOperation",
			"fixture %s/%s names unrecognized operation %q", fixture.PacketID, fixture.CaseID, fixture.Operation)
	}
}

func arithOpFor(op Operation) frame.BinaryOp {
	switch op {
	case OpSeriesSub:
		return frame.OpSub
	case OpSeriesMul:
		return frame.OpMul
	case OpSeriesDiv:
		return frame.OpDiv
	default:
		return frame.OpAdd
	}
}

func joinTypeFor(op Operation) join.Type {
	switch op {
	case OpSeriesJoinLeft:
		return join.Left
	case OpSeriesJoinRight:
		return join.Right
	case OpSeriesJoinOuter:
		return join.Outer
	default:
		return join.Inner
	}
}

func groupByAgg(op Operation, keys, values *frame.Series, opts groupby.Options, p *policy.RuntimePolicy, ledger *policy.EvidenceLedger) (*frame.Series, error) {
	switch op {
	case OpGroupByMean:
		return groupby.GroupByMean(keys, values, opts, p, ledger)
	case OpGroupByCount:
		return groupby.GroupByCount(keys, values, opts, p, ledger)
	default:
		return groupby.GroupBySum(keys, values, opts, p, ledger)
	}
}

// modeForFixture resolves a RuntimePolicy for fixture's declared mode,
// cloning base so per-fixture mode never leaks across fixtures sharing
// a packet run.
func modeForFixture(base *config.PolicyConfig, mode config.Mode) *policy.RuntimePolicy {
	cfg := *base
	cfg.Mode = mode
	return policy.New(&cfg)
}
