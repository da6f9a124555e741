package harness

import (
	"github.com/joyshmitz/frankenpandas/pkg/config"
)

// Operation is the harness's closed enum of fixture-supported
// operations (§4.9 names series_add, series_join, groupby_sum,
// index_align_union, index_has_duplicates, index_first_positions as
// representative members; the set below rounds that out to the
// operations this repo's kernels actually expose without attempting to
// cover the whole API surface).
type Operation string

const (
	OpSeriesAdd        Operation = "series_add"
	OpSeriesSub        Operation = "series_sub"
	OpSeriesMul        Operation = "series_mul"
	OpSeriesDiv        Operation = "series_div"
	OpSeriesCompareGt  Operation = "series_compare_gt"
	OpSeriesJoinInner  Operation = "series_join_inner"
	OpSeriesJoinLeft   Operation = "series_join_left"
	OpSeriesJoinRight  Operation = "series_join_right"
	OpSeriesJoinOuter  Operation = "series_join_outer"
	OpGroupBySum       Operation = "groupby_sum"
	OpGroupByMean      Operation = "groupby_mean"
	OpGroupByCount     Operation = "groupby_count"
	OpIndexAlignUnion  Operation = "index_align_union"
	OpIndexAlignInner  Operation = "index_align_inner"
	OpIndexHasDuplicates Operation = "index_has_duplicates"
	OpIndexFirstPositions Operation = "index_first_positions"
)

// Fixture is one packet case: an operation, its mode, structured
// inputs, and exactly one of an expected output or an expected-error
// substring, per §6's per-fixture file format.
type Fixture struct {
	PacketID              string      `json:"packet_id"`
	CaseID                string      `json:"case_id"`
	Operation             Operation   `json:"operation"`
	Mode                  config.Mode `json:"mode"`
	Inputs                RawMessage  `json:"inputs"`
	Expected              RawMessage  `json:"expected,omitempty"`
	ExpectedErrorContains string      `json:"expected_error_contains,omitempty"`
}

// IsErrorFixture reports whether this fixture expects a failure rather
// than a value.
func (f Fixture) IsErrorFixture() bool {
	return f.ExpectedErrorContains != ""
}

// Packet is a set of Fixtures sharing a packet_id.
type Packet struct {
	PacketID string    `json:"packet_id"`
	Fixtures []Fixture `json:"fixtures"`
}

// MismatchSummary is one entry in a ParityReport's mismatch list.
type MismatchSummary struct {
	CaseID   string           `json:"case_id"`
	Mode     config.Mode      `json:"mode"`
	Category MismatchCategory `json:"category"`
	Severity Severity         `json:"severity"`
	Detail   string           `json:"detail"`
}

// ParityReport is the per-packet result of running all its fixtures
// against the kernel/oracle.
type ParityReport struct {
	Suite        string            `json:"suite"`
	PacketID     string            `json:"packet_id"`
	FixtureCount int               `json:"fixture_count"`
	PassCount    int               `json:"pass_count"`
	FailCount    int               `json:"fail_count"`
	Mismatches   []MismatchSummary `json:"mismatches"`
}

// StrictFailures returns the strict-mode mismatch summaries.
func (r *ParityReport) StrictFailures() []MismatchSummary {
	return r.filterByMode(config.ModeStrict)
}

// HardenedFailures returns the hardened-mode mismatch summaries.
func (r *ParityReport) HardenedFailures() []MismatchSummary {
	return r.filterByMode(config.ModeHardened)
}

func (r *ParityReport) filterByMode(mode config.Mode) []MismatchSummary {
	var out []MismatchSummary
	for _, m := range r.Mismatches {
		if m.Mode == mode {
			out = append(out, m)
		}
	}
	return out
}

// PacketGateResult is the pass/fail verdict for one packet's gate.
type PacketGateResult struct {
	PacketID          string   `json:"packet_id"`
	Pass              bool     `json:"pass"`
	StrictFailures    int      `json:"strict_failures"`
	HardenedFailures  int      `json:"hardened_failures"`
	Reasons           []string `json:"reasons"`
}

// DriftHistoryEntry is one row of the cross-run drift ledger, per §6.
type DriftHistoryEntry struct {
	TimestampUnixMs int64       `json:"ts_unix_ms"`
	PacketID        string      `json:"packet_id"`
	Suite           string      `json:"suite"`
	FixtureCount    int         `json:"fixture_count"`
	Passed          int         `json:"passed"`
	Failed          int         `json:"failed"`
	GatePass        bool        `json:"gate_pass"`
	ReportHash      string      `json:"report_hash"`
}
