package harness

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/joyshmitz/frankenpandas/pkg/config"
	"github.com/joyshmitz/frankenpandas/pkg/logger"
	"github.com/joyshmitz/frankenpandas/pkg/metrics"
	"github.com/joyshmitz/frankenpandas/pkg/policy"
	"github.com/joyshmitz/frankenpandas/pkg/tracing"
)

// Harness runs packets of fixtures against the in-process kernel and
// an Oracle, classifies divergences, gates each packet, and emits
// artifacts — §4.9's ConformanceHarness.
type Harness struct {
	Suite         string
	PolicyConfig  *config.PolicyConfig
	GateConfigs   map[string]*config.GateConfig
	Oracle        Oracle
	Encoder       policy.SymbolEncoder
	ArtifactRoot  string
	WriteArtifacts bool
	Ledger        *policy.EvidenceLedger
}

// NewHarness constructs a Harness with the fixture oracle and a
// checksum sidecar encoder as defaults.
func NewHarness(suite string, policyCfg *config.PolicyConfig, artifactRoot string) *Harness {
	return &Harness{
		Suite:        suite,
		PolicyConfig: policyCfg,
		GateConfigs:  make(map[string]*config.GateConfig),
		Oracle:       FixtureOracle{},
		Encoder:      policy.NewChecksumSidecarEncoder(),
		ArtifactRoot: artifactRoot,
		Ledger:       policy.NewEvidenceLedger(),
	}
}

// gateConfigFor returns the packet's declared gate config, or the
// spec's default budgets if none was registered.
func (h *Harness) gateConfigFor(packetID string) *config.GateConfig {
	if cfg, ok := h.GateConfigs[packetID]; ok {
		return cfg
	}
	return config.DefaultGateConfig(packetID)
}

// RunPacket implements §4.9's run_packet: executes every fixture in
// packet, classifies mismatches, and evaluates the gate; when
// WriteArtifacts is set it also writes artifacts and appends a drift
// history row.
func (h *Harness) RunPacket(ctx context.Context, packet Packet) (*ParityReport, *PacketGateResult, error) {
	ctx, span := tracing.StartPacketSpan(ctx, packet.PacketID, "execute")
	timer := metrics.NewTimer()

	report := &ParityReport{Suite: h.Suite, PacketID: packet.PacketID, FixtureCount: len(packet.Fixtures)}

	for _, fixture := range packet.Fixtures {
		div, err := h.runFixture(ctx, fixture)
		if err != nil {
			span.Fail(err)
			span.End()
			return nil, nil, err
		}
		if div == nil {
			report.PassCount++
			metrics.HarnessFixturesTotal.WithLabelValues(string(fixture.Mode), "true").Inc()
			continue
		}
		report.FailCount++
		metrics.HarnessFixturesTotal.WithLabelValues(string(fixture.Mode), "false").Inc()
		report.Mismatches = append(report.Mismatches, MismatchSummary{
			CaseID:   fixture.CaseID,
			Mode:     fixture.Mode,
			Category: div.Category,
			Severity: div.Severity,
			Detail:   div.Detail,
		})
	}
	span.SetAttribute("fixture_count", report.FixtureCount)
	span.SetAttribute("fail_count", report.FailCount)
	span.End()

	_, classifySpan := tracing.StartPacketSpan(ctx, packet.PacketID, "classify")
	classifySpan.End()

	_, gateSpan := tracing.StartPacketSpan(ctx, packet.PacketID, "gate")
	gateResult := EvaluateParityGate(report, h.gateConfigFor(packet.PacketID))
	gateSpan.SetAttribute("pass", gateResult.Pass)
	gateSpan.End()

	metrics.HarnessPacketsTotal.WithLabelValues(boolString(gateResult.Pass)).Inc()
	metrics.HarnessPacketDuration.WithLabelValues(packet.PacketID).Observe(timer.Stop().Seconds())

	if h.WriteArtifacts {
		_, emitSpan := tracing.StartPacketSpan(ctx, packet.PacketID, "emit")
		if err := WritePacketArtifacts(h.ArtifactRoot, report, gateResult, h.Encoder); err != nil {
			emitSpan.Fail(err)
			emitSpan.End()
			return report, gateResult, err
		}
		emitSpan.End()
	}

	_, driftSpan := tracing.StartPacketSpan(ctx, packet.PacketID, "drift")
	hash, err := ReportHash(report)
	if err != nil {
		driftSpan.Fail(err)
		driftSpan.End()
		return report, gateResult, err
	}
	entry := DriftHistoryEntry{
		PacketID:     packet.PacketID,
		Suite:        h.Suite,
		FixtureCount: report.FixtureCount,
		Passed:       report.PassCount,
		Failed:       report.FailCount,
		GatePass:     gateResult.Pass,
		ReportHash:   hash,
	}
	entry.TimestampUnixMs = policy.NowMillis()
	if h.WriteArtifacts {
		if err := AppendPhase2cDriftHistory(DriftHistoryPath(h.ArtifactRoot), entry); err != nil {
			driftSpan.Fail(err)
			driftSpan.End()
			return report, gateResult, err
		}
	}
	driftSpan.End()

	logger.Info("packet run complete",
		zap.String("packet_id", packet.PacketID),
		zap.Bool("gate_pass", gateResult.Pass),
		zap.Int("pass_count", report.PassCount),
		zap.Int("fail_count", report.FailCount))

	return report, gateResult, nil
}

// RunPacketsGrouped implements §4.9's run_packets_grouped: executes
// every packet and returns one ParityReport/PacketGateResult pair per
// packet, in declared order.
func (h *Harness) RunPacketsGrouped(ctx context.Context, packets []Packet) ([]*ParityReport, []*PacketGateResult, error) {
	reports := make([]*ParityReport, 0, len(packets))
	gates := make([]*PacketGateResult, 0, len(packets))
	for _, packet := range packets {
		report, gate, err := h.RunPacket(ctx, packet)
		if err != nil {
			return reports, gates, err
		}
		reports = append(reports, report)
		gates = append(gates, gate)
	}
	return reports, gates, nil
}

func (h *Harness) runFixture(ctx context.Context, fixture Fixture) (*Divergence, error) {
	p := modeForFixture(h.PolicyConfig, fixture.Mode)

	actual, execErr := Execute(fixture, p, h.Ledger)
	expectedVal, expectedErrSubstring, oracleErr := h.Oracle.Evaluate(ctx, fixture)
	if oracleErr != nil {
		if fixture.Mode == config.ModeHardened && h.gateConfigFor(fixture.PacketID).OracleDegradeAllowed {
			expectedVal, expectedErrSubstring, oracleErr = FixtureOracle{}.Evaluate(ctx, fixture)
		}
		if oracleErr != nil {
			return &Divergence{Category: CategoryValue, Severity: SeverityCritical,
				Detail: "oracle unavailable: " + oracleErr.Error()}, nil
		}
	}

	if expectedErrSubstring != "" {
		if execErr == nil {
			return &Divergence{Category: CategoryValue, Severity: SeverityCritical,
				Detail: "expected an error containing " + expectedErrSubstring + " but kernel succeeded"}, nil
		}
		if !strings.Contains(execErr.Error(), expectedErrSubstring) {
			return &Divergence{Category: CategoryValue, Severity: SeverityCritical,
				Detail: "error " + execErr.Error() + " does not contain " + expectedErrSubstring}, nil
		}
		return nil, nil
	}

	if execErr != nil {
		return &Divergence{Category: CategoryValue, Severity: SeverityCritical,
			Detail: "kernel returned an unexpected error: " + execErr.Error()}, nil
	}

	actualBytes, err := Marshal(actual)
	if err != nil {
		return nil, err
	}
	var actualGeneric interface{}
	if err := Unmarshal(actualBytes, &actualGeneric); err != nil {
		return nil, err
	}

	return classifyValueMismatch(actualGeneric, expectedVal), nil
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
