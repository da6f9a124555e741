package harness

import (
	"os"
	"path/filepath"

	"github.com/joyshmitz/frankenpandas/pkg/nebulaerrors"
	"github.com/joyshmitz/frankenpandas/pkg/policy"
)

// ArtifactPaths names the five per-packet files §6 specifies, rooted
// at artifacts/phase2c/{packet_id}/.
type ArtifactPaths struct {
	ParityReport    string
	ParityGateResult string
	MismatchCorpus  string
	SidecarEnvelope string
	DecodeProof     string
}

// PacketArtifactPaths computes the artifact paths for packetID under root.
func PacketArtifactPaths(root, packetID string) ArtifactPaths {
	dir := filepath.Join(root, "phase2c", packetID)
	return ArtifactPaths{
		ParityReport:     filepath.Join(dir, "parity_report.json"),
		ParityGateResult: filepath.Join(dir, "parity_gate_result.json"),
		MismatchCorpus:   filepath.Join(dir, "parity_mismatch_corpus.json"),
		SidecarEnvelope:  filepath.Join(dir, "parity_report.raptorq.json"),
		DecodeProof:      filepath.Join(dir, "parity_report.decode_proof.json"),
	}
}

// DriftHistoryPath returns the cross-run drift ledger path under root.
func DriftHistoryPath(root string) string {
	return filepath.Join(root, "phase2c", "drift_history.jsonl")
}

func writeJSONFile(path string, v interface{}) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nebulaerrors.Wrap(err, nebulaerrors.DomainHarness, "ArtifactWriteFailed",
			"creating artifact directory")
	}
	b, err := MarshalIndent(v)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return nebulaerrors.Wrap(err, nebulaerrors.DomainHarness, "ArtifactWriteFailed",
			"writing artifact "+path)
	}
	return nil
}

// WritePacketArtifacts emits the five per-packet artifacts §6 names:
// the parity report, the gate result, the mismatch corpus, the sidecar
// envelope, and its decode-proof envelope.
func WritePacketArtifacts(root string, report *ParityReport, gateResult *PacketGateResult, encoder policy.SymbolEncoder) error {
	paths := PacketArtifactPaths(root, report.PacketID)

	if err := writeJSONFile(paths.ParityReport, report); err != nil {
		return err
	}
	if err := writeJSONFile(paths.ParityGateResult, gateResult); err != nil {
		return err
	}
	if err := writeJSONFile(paths.MismatchCorpus, report.Mismatches); err != nil {
		return err
	}

	reportBytes, err := Marshal(report)
	if err != nil {
		return err
	}
	sidecar, err := policy.NewErasureSidecar("parity_report", reportBytes, encoder)
	if err != nil {
		return err
	}
	if err := writeJSONFile(paths.SidecarEnvelope, sidecar); err != nil {
		return err
	}

	if err := sidecar.VerifyDecode(encoder); err != nil {
		return err
	}
	if err := writeJSONFile(paths.DecodeProof, sidecar.DecodeProofs); err != nil {
		return err
	}

	return nil
}
