package harness

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joyshmitz/frankenpandas/pkg/column"
	"github.com/joyshmitz/frankenpandas/pkg/config"
	"github.com/joyshmitz/frankenpandas/pkg/dtype"
	"github.com/joyshmitz/frankenpandas/pkg/frame"
	"github.com/joyshmitz/frankenpandas/pkg/policy"
	"github.com/joyshmitz/frankenpandas/pkg/rindex"
)

func mustWireSeries(t *testing.T, name string, labels []int64, values []int64) WireSeries {
	t.Helper()
	idxLabels := make([]rindex.Label, len(labels))
	for i, l := range labels {
		idxLabels[i] = rindex.Int64Label(l)
	}
	idx, err := rindex.New(idxLabels)
	require.NoError(t, err)

	scalars := make([]dtype.Scalar, len(values))
	for i, v := range values {
		scalars[i] = dtype.NewInt64(v)
	}
	col, err := column.NewFromScalars(scalars)
	require.NoError(t, err)

	s, err := frame.NewSeries(name, idx, col)
	require.NoError(t, err)
	return SeriesToWire(s)
}

func TestWireScalarRoundTripAcrossKinds(t *testing.T) {
	scalars := []dtype.Scalar{
		dtype.NewInt64(42),
		dtype.NewFloat64(3.5),
		dtype.NewBool(true),
		dtype.NewUtf8("x"),
		dtype.NewNull(dtype.KindNull),
		dtype.NewNull(dtype.KindNaT),
	}
	for _, s := range scalars {
		w := ScalarToWire(s)
		back, err := WireToScalar(w)
		require.NoError(t, err)
		assert.True(t, s.Equal(back), "roundtrip mismatch for %v", s)
	}
}

func TestExecuteSeriesAdd(t *testing.T) {
	left := mustWireSeries(t, "a", []int64{1, 2, 3}, []int64{10, 20, 30})
	right := mustWireSeries(t, "a", []int64{1, 2, 3}, []int64{1, 1, 1})
	inputs, err := Marshal(seriesPairInputs{Left: left, Right: right})
	require.NoError(t, err)

	fixture := Fixture{
		PacketID:  "series_add_basic",
		CaseID:    "c1",
		Operation: OpSeriesAdd,
		Mode:      config.ModeStrict,
		Inputs:    inputs,
	}

	cfg := config.NewDefaultPolicyConfig()
	p := modeForFixture(cfg, fixture.Mode)
	ledger := policy.NewEvidenceLedger()

	result, err := Execute(fixture, p, ledger)
	require.NoError(t, err)
	wire, ok := result.(WireSeries)
	require.True(t, ok)
	assert.Equal(t, 3, len(wire.Column.Values))
	assert.Equal(t, int64(11), *wire.Column.Values[0].Int64)
}

func TestRunPacketPassAndFailGate(t *testing.T) {
	cfg := config.NewDefaultPolicyConfig()
	h := NewHarness("unit-suite", cfg, t.TempDir())

	left := mustWireSeries(t, "a", []int64{1, 2}, []int64{10, 20})
	right := mustWireSeries(t, "a", []int64{1, 2}, []int64{1, 2})
	goodInputs, err := Marshal(seriesPairInputs{Left: left, Right: right})
	require.NoError(t, err)

	goodExpected, err := Marshal(mustWireSeries(t, "a", []int64{1, 2}, []int64{11, 22}))
	require.NoError(t, err)

	badExpected, err := Marshal(mustWireSeries(t, "a", []int64{1, 2}, []int64{99, 99}))
	require.NoError(t, err)

	packet := Packet{
		PacketID: "series_add_gate",
		Fixtures: []Fixture{
			{PacketID: "series_add_gate", CaseID: "pass", Operation: OpSeriesAdd, Mode: config.ModeStrict,
				Inputs: goodInputs, Expected: goodExpected},
			{PacketID: "series_add_gate", CaseID: "fail", Operation: OpSeriesAdd, Mode: config.ModeStrict,
				Inputs: goodInputs, Expected: badExpected},
		},
	}

	report, gate, err := h.RunPacket(context.Background(), packet)
	require.NoError(t, err)
	assert.Equal(t, 1, report.PassCount)
	assert.Equal(t, 1, report.FailCount)
	assert.False(t, gate.Pass)
	assert.NotEmpty(t, gate.Reasons)
}

func TestRunPacketAllGreenPasses(t *testing.T) {
	cfg := config.NewDefaultPolicyConfig()
	h := NewHarness("unit-suite", cfg, t.TempDir())
	h.WriteArtifacts = true

	left := mustWireSeries(t, "a", []int64{1, 2}, []int64{10, 20})
	right := mustWireSeries(t, "a", []int64{1, 2}, []int64{1, 2})
	inputs, err := Marshal(seriesPairInputs{Left: left, Right: right})
	require.NoError(t, err)
	expected, err := Marshal(mustWireSeries(t, "a", []int64{1, 2}, []int64{11, 22}))
	require.NoError(t, err)

	packet := Packet{
		PacketID: "series_add_green",
		Fixtures: []Fixture{
			{PacketID: "series_add_green", CaseID: "c1", Operation: OpSeriesAdd, Mode: config.ModeStrict,
				Inputs: inputs, Expected: expected},
		},
	}

	report, gate, err := h.RunPacket(context.Background(), packet)
	require.NoError(t, err)
	assert.Equal(t, 1, report.PassCount)
	assert.True(t, gate.Pass)

	paths := PacketArtifactPaths(h.ArtifactRoot, packet.PacketID)
	assert.FileExists(t, paths.ParityReport)
	assert.FileExists(t, paths.SidecarEnvelope)
	assert.FileExists(t, paths.DecodeProof)
	assert.FileExists(t, DriftHistoryPath(h.ArtifactRoot))

	require.NoError(t, EnforcePacketGates([]*PacketGateResult{gate}))
}

func TestAppendAndReadDriftHistoryTolerantOfTornLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "drift_history.jsonl")
	require.NoError(t, AppendPhase2cDriftHistory(path, DriftHistoryEntry{PacketID: "p1", Suite: "s", FixtureCount: 2, Passed: 2}))
	require.NoError(t, AppendPhase2cDriftHistory(path, DriftHistoryEntry{PacketID: "p2", Suite: "s", FixtureCount: 1, Passed: 0, Failed: 1}))

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString(`{"packet_id":"p3","suite":"s","fixture_count`)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	entries, err := ReadDriftHistory(path)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "p1", entries[0].PacketID)
	assert.Equal(t, "p2", entries[1].PacketID)
}

func TestClassifyValueMismatchDetectsNullnessDivergence(t *testing.T) {
	actual := map[string]interface{}{"null": "Null"}
	expected := map[string]interface{}{"int64": float64(5)}
	div := classifyValueMismatch(actual, expected)
	require.NotNil(t, div)
	assert.Equal(t, CategoryNullness, div.Category)
}

func TestEvaluateParityGateStrictCriticalFailsClosed(t *testing.T) {
	report := &ParityReport{PacketID: "p", FixtureCount: 10, PassCount: 9, FailCount: 1,
		Mismatches: []MismatchSummary{{CaseID: "c1", Mode: config.ModeStrict, Category: CategoryValue, Severity: SeverityCritical}}}
	gateCfg := config.DefaultGateConfig("p")
	result := EvaluateParityGate(report, gateCfg)
	assert.False(t, result.Pass)
}
