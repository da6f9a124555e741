package harness

import (
	"fmt"

	"github.com/joyshmitz/frankenpandas/pkg/config"
	"github.com/joyshmitz/frankenpandas/pkg/nebulaerrors"
)

// EvaluateParityGate implements §4.9's evaluate_parity_gate: a packet
// passes iff strict_failures_critical == 0, the strict noncritical
// ratio is within budget, and the hardened failure ratio is within
// budget and confined to allowlisted categories.
func EvaluateParityGate(report *ParityReport, gateCfg *config.GateConfig) *PacketGateResult {
	result := &PacketGateResult{PacketID: report.PacketID, Pass: true}

	strict := report.StrictFailures()
	strictCritical := 0
	strictNonCritical := 0
	for _, m := range strict {
		if m.Severity == SeverityCritical {
			strictCritical++
		} else {
			strictNonCritical++
		}
	}
	result.StrictFailures = len(strict)

	if strictCritical > gateCfg.StrictBudgetCritical {
		result.Pass = false
		result.Reasons = append(result.Reasons, fmt.Sprintf(
			"strict_failures_critical %d exceeds budget %d", strictCritical, gateCfg.StrictBudgetCritical))
	}

	if report.FixtureCount > 0 {
		strictNonCriticalRatio := float64(strictNonCritical) / float64(report.FixtureCount)
		if strictNonCriticalRatio > gateCfg.StrictBudgetNonCriticalRatio {
			result.Pass = false
			result.Reasons = append(result.Reasons, fmt.Sprintf(
				"strict_failures_noncritical_ratio %.4f exceeds budget %.4f",
				strictNonCriticalRatio, gateCfg.StrictBudgetNonCriticalRatio))
		}
	}

	hardened := report.HardenedFailures()
	result.HardenedFailures = len(hardened)
	if report.FixtureCount > 0 {
		hardenedRatio := float64(len(hardened)) / float64(report.FixtureCount)
		if hardenedRatio > gateCfg.HardenedBudgetRatio {
			result.Pass = false
			result.Reasons = append(result.Reasons, fmt.Sprintf(
				"hardened_failures ratio %.4f exceeds budget %.4f", hardenedRatio, gateCfg.HardenedBudgetRatio))
		}
	}

	allowlist := gateCfg.AllowlistSet()
	for _, m := range hardened {
		if !allowlist[m.Category] {
			result.Pass = false
			result.Reasons = append(result.Reasons, fmt.Sprintf(
				"hardened failure in non-allowlisted category %q (case %s)", m.Category, m.CaseID))
		}
	}

	return result
}

// EnforcePacketGates implements §4.9's enforce_packet_gates: returns a
// fail-closed error naming every failing packet's reasons, or nil if
// every packet passed.
func EnforcePacketGates(results []*PacketGateResult) error {
	var failing []*PacketGateResult
	for _, r := range results {
		if !r.Pass {
			failing = append(failing, r)
		}
	}
	if len(failing) == 0 {
		return nil
	}

	err := nebulaerrors.Newf(nebulaerrors.DomainHarness, "GateViolated",
		"%d of %d packets failed their gate", len(failing), len(results))
	for _, r := range failing {
		err = err.WithDetail(r.PacketID, r.Reasons)
	}
	return err
}
