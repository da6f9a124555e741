package harness

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"os"

	"go.uber.org/zap"

	"github.com/joyshmitz/frankenpandas/pkg/logger"
	"github.com/joyshmitz/frankenpandas/pkg/nebulaerrors"
)

// ReportHash computes the drift ledger's report_hash field: a SHA-256
// digest of the report's canonical wire encoding.
func ReportHash(report *ParityReport) (string, error) {
	b, err := Marshal(report)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}

// AppendPhase2cDriftHistory implements §4.9's
// append_phase2c_drift_history: appends one JSONL row to path, opened
// append-only so concurrent/sequential runs never clobber prior rows.
func AppendPhase2cDriftHistory(path string, row DriftHistoryEntry) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nebulaerrors.Wrap(err, nebulaerrors.DomainHarness, "ArtifactWriteFailed",
			"opening drift history file")
	}
	defer f.Close()

	line, err := Marshal(row)
	if err != nil {
		return err
	}
	if _, err := f.Write(append(line, '\n')); err != nil {
		return nebulaerrors.Wrap(err, nebulaerrors.DomainHarness, "ArtifactWriteFailed",
			"writing drift history row")
	}
	return nil
}

// ReadDriftHistory reads every well-formed row from path, tolerating a
// torn final line (the spec's append-only-readers-must-tolerate-a-torn-
// last-line contract): a trailing line that fails to parse is logged
// at Warn, not treated as an error.
func ReadDriftHistory(path string) ([]DriftHistoryEntry, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, nebulaerrors.Wrap(err, nebulaerrors.DomainHarness, "ArtifactWriteFailed",
			"opening drift history file for read")
	}
	defer f.Close()

	var entries []DriftHistoryEntry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}

	for i, line := range lines {
		if line == "" {
			continue
		}
		var entry DriftHistoryEntry
		if err := Unmarshal([]byte(line), &entry); err != nil {
			if i == len(lines)-1 {
				logger.Warn("drift history last line failed to parse, tolerating torn write",
					zap.String("path", path), zap.Error(err))
				continue
			}
			return nil, nebulaerrors.Wrap(err, nebulaerrors.DomainHarness, "ArtifactWriteFailed",
				"drift history row malformed before the final line")
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
