package harness

import (
	"bytes"
	"context"
	"os/exec"
	"time"

	"github.com/joyshmitz/frankenpandas/pkg/nebulaerrors"
)

// Oracle supplies the "expected" side of a fixture comparison: either
// the fixture's own declared expectation, or a live external process's
// normalized answer, per §4.9's oracle-selection contract.
type Oracle interface {
	// Evaluate returns the expected result for fixture, decoded into
	// the same generic interface{} shape Execute's result is decoded
	// into for comparison, or an error substring it expects (mutually
	// exclusive with a value).
	Evaluate(ctx context.Context, fixture Fixture) (value interface{}, expectedErrSubstring string, err error)
}

// FixtureOracle reads expectations straight from the fixture's own
// declared `expected`/`expected_error_contains` fields — the default,
// no-subprocess oracle.
type FixtureOracle struct{}

// Evaluate implements Oracle by decoding fixture's declared expectation.
func (FixtureOracle) Evaluate(_ context.Context, fixture Fixture) (interface{}, string, error) {
	if fixture.IsErrorFixture() {
		return nil, fixture.ExpectedErrorContains, nil
	}
	if len(fixture.Expected) == 0 {
		return nil, "", nebulaerrors.Newf(nebulaerrors.DomainHarness, "FixtureMalformed",
			"fixture %s/%s has neither expected nor expected_error_contains", fixture.PacketID, fixture.CaseID)
	}
	var decoded interface{}
	if err := Unmarshal(fixture.Expected, &decoded); err != nil {
		return nil, "", err
	}
	return decoded, "", nil
}

// LiveOracle spawns the external legacy oracle as a subprocess per
// fixture, writing the fixture's wire-encoded inputs to its stdin and
// reading its normalized wire-encoded output from stdout, per §4.9's
// live oracle protocol and §6's subprocess contract.
type LiveOracle struct {
	// Command is the oracle binary path.
	Command string
	// Args are extra arguments passed before the fixture operation name.
	Args []string
	// Timeout bounds the subprocess wall-clock time; exceeding it
	// produces a packet-level failure in Strict mode.
	Timeout time.Duration
}

// NewLiveOracle returns a LiveOracle with the spec's default timeout.
func NewLiveOracle(command string, args ...string) *LiveOracle {
	return &LiveOracle{Command: command, Args: args, Timeout: 30 * time.Second}
}

// Evaluate spawns the oracle subprocess, feeds it fixture.Inputs, and
// decodes its stdout as the expected value.
func (o *LiveOracle) Evaluate(ctx context.Context, fixture Fixture) (interface{}, string, error) {
	timeout := o.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	args := append(append([]string(nil), o.Args...), string(fixture.Operation))
	cmd := exec.CommandContext(ctx, o.Command, args...)

	payload, err := Marshal(fixture.Inputs)
	if err != nil {
		return nil, "", err
	}
	cmd.Stdin = bytes.NewReader(payload)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, "", nebulaerrors.Wrap(err, nebulaerrors.DomainHarness, "OracleUnavailable",
			"live oracle subprocess failed: "+stderr.String())
	}

	var decoded interface{}
	if err := Unmarshal(stdout.Bytes(), &decoded); err != nil {
		return nil, "", nebulaerrors.Wrap(err, nebulaerrors.DomainHarness, "OracleUnavailable",
			"live oracle emitted an unrecognized output shape")
	}
	return decoded, "", nil
}
