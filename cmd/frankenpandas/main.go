package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/joyshmitz/frankenpandas/pkg/config"
	"github.com/joyshmitz/frankenpandas/pkg/harness"
	"github.com/joyshmitz/frankenpandas/pkg/logger"
)

var version = "0.1.0"

// runFlags holds the flags shared by run and run-all.
type runFlags struct {
	fixturesDir    string
	policyConfig   string
	gateConfigDir  string
	writeArtifacts bool
	artifactRoot   string
	requireGreen   bool
	oracleKind     string
	oracleCommand  string
	oracleArgs     []string
}

func main() {
	_ = godotenv.Load() // ignore error if .env doesn't exist

	root := &cobra.Command{
		Use:   "frankenpandas",
		Short: "frankenpandas - a scoped columnar dataframe engine and its conformance harness",
		Long: `frankenpandas is a columnar dataframe engine with an alignment-aware
arithmetic/groupby/join kernel, a Bayesian runtime policy, and a
differential conformance harness that checks the kernel against
fixtures or a live oracle subprocess.`,
	}

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("frankenpandas v%s\n", version)
			fmt.Printf("Go version: %s\n", runtime.Version())
			fmt.Printf("OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	})

	root.AddCommand(newRunCmd())
	root.AddCommand(newRunAllCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRunCmd() *cobra.Command {
	flags := &runFlags{}
	cmd := &cobra.Command{
		Use:   "run <packet-id>",
		Short: "Run a single conformance packet and enforce its gate",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOne(args[0], flags)
		},
	}
	bindRunFlags(cmd, flags)
	return cmd
}

func newRunAllCmd() *cobra.Command {
	flags := &runFlags{}
	cmd := &cobra.Command{
		Use:   "run-all",
		Short: "Run every conformance packet under the fixture root and enforce all gates",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAll(flags)
		},
	}
	bindRunFlags(cmd, flags)
	return cmd
}

func bindRunFlags(cmd *cobra.Command, flags *runFlags) {
	cmd.Flags().StringVar(&flags.fixturesDir, "fixtures", "fixtures/packets", "Directory of packet fixture JSON files")
	cmd.Flags().StringVar(&flags.policyConfig, "policy-config", "", "Path to a policy config YAML file (defaults built in if empty)")
	cmd.Flags().StringVar(&flags.gateConfigDir, "gate-config-dir", "", "Directory of per-packet gate config YAML files (defaults built in if empty)")
	cmd.Flags().BoolVar(&flags.writeArtifacts, "write-artifacts", false, "Write parity report/gate/sidecar/decode-proof artifacts and append drift history")
	cmd.Flags().StringVar(&flags.artifactRoot, "artifact-root", "artifacts", "Root directory for --write-artifacts output")
	cmd.Flags().BoolVar(&flags.requireGreen, "require-green", true, "Exit non-zero if any packet's gate fails")
	cmd.Flags().StringVar(&flags.oracleKind, "oracle", "fixture", "Oracle to compare against: fixture or live")
	cmd.Flags().StringVar(&flags.oracleCommand, "oracle-cmd", "", "Path to the live oracle subprocess binary (required when --oracle=live)")
	cmd.Flags().StringArrayVar(&flags.oracleArgs, "oracle-arg", nil, "Extra argument passed to the live oracle subprocess before the operation name (repeatable)")
}

func buildHarness(flags *runFlags, suite string) (*harness.Harness, error) {
	policyCfg, err := config.LoadPolicyConfig(flags.policyConfig)
	if err != nil {
		return nil, fmt.Errorf("loading policy config: %w", err)
	}

	h := harness.NewHarness(suite, policyCfg, flags.artifactRoot)
	h.WriteArtifacts = flags.writeArtifacts

	if flags.gateConfigDir != "" {
		gateCfgs, err := config.LoadGateConfigDir(flags.gateConfigDir)
		if err != nil {
			return nil, fmt.Errorf("loading gate configs: %w", err)
		}
		h.GateConfigs = gateCfgs
	}

	switch flags.oracleKind {
	case "fixture":
		h.Oracle = harness.FixtureOracle{}
	case "live":
		if flags.oracleCommand == "" {
			return nil, fmt.Errorf("--oracle-cmd is required when --oracle=live")
		}
		h.Oracle = harness.NewLiveOracle(flags.oracleCommand, flags.oracleArgs...)
	default:
		return nil, fmt.Errorf("unrecognized --oracle %q, want fixture or live", flags.oracleKind)
	}

	return h, nil
}

func runOne(packetID string, flags *runFlags) error {
	log := logger.Get().With(zap.String("component", "frankenpandas-cli"), zap.String("packet_id", packetID))

	packet, err := loadPacketByID(flags.fixturesDir, packetID)
	if err != nil {
		return fmt.Errorf("loading packet %s: %w", packetID, err)
	}

	h, err := buildHarness(flags, packetID)
	if err != nil {
		return err
	}

	log.Info("running packet", zap.Int("fixture_count", len(packet.Fixtures)))
	report, gate, err := h.RunPacket(context.Background(), packet)
	if err != nil {
		return fmt.Errorf("packet %s execution failed: %w", packetID, err)
	}

	printReport(report, gate)

	if flags.requireGreen {
		return harness.EnforcePacketGates([]*harness.PacketGateResult{gate})
	}
	return nil
}

func runAll(flags *runFlags) error {
	log := logger.Get().With(zap.String("component", "frankenpandas-cli"))

	packets, err := loadPacketsFromDir(flags.fixturesDir)
	if err != nil {
		return fmt.Errorf("loading packets from %s: %w", flags.fixturesDir, err)
	}
	if len(packets) == 0 {
		return fmt.Errorf("no packet fixture files found under %s", flags.fixturesDir)
	}

	h, err := buildHarness(flags, "run-all")
	if err != nil {
		return err
	}

	log.Info("running all packets", zap.Int("packet_count", len(packets)))
	reports, gates, err := h.RunPacketsGrouped(context.Background(), packets)
	for i, report := range reports {
		if report != nil {
			printReport(report, gates[i])
		}
	}
	if err != nil {
		return fmt.Errorf("packet run aborted: %w", err)
	}

	if flags.requireGreen {
		return harness.EnforcePacketGates(gates)
	}
	return nil
}

func printReport(report *harness.ParityReport, gate *harness.PacketGateResult) {
	status := "PASS"
	if !gate.Pass {
		status = "FAIL"
	}
	fmt.Printf("[%s] %s: %d/%d fixtures passed (strict_failures=%d hardened_failures=%d)\n",
		status, report.PacketID, report.PassCount, report.FixtureCount, gate.StrictFailures, gate.HardenedFailures)
	for _, reason := range gate.Reasons {
		fmt.Printf("       - %s\n", reason)
	}
}

// loadPacketByID reads every packet fixture file under dir and returns
// the one whose packet_id matches. Fixture files are named freely; the
// packet_id inside the JSON is authoritative.
func loadPacketByID(dir, packetID string) (harness.Packet, error) {
	packets, err := loadPacketsFromDir(dir)
	if err != nil {
		return harness.Packet{}, err
	}
	for _, p := range packets {
		if p.PacketID == packetID {
			return p, nil
		}
	}
	return harness.Packet{}, fmt.Errorf("no fixture file under %s declares packet_id %q", dir, packetID)
}

// loadPacketsFromDir reads every *.json file under dir, each holding one
// harness.Packet, sorted by filename for reproducible run order.
func loadPacketsFromDir(dir string) ([]harness.Packet, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("globbing %s: %w", dir, err)
	}
	sort.Strings(matches)

	packets := make([]harness.Packet, 0, len(matches))
	for _, path := range matches {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		var packet harness.Packet
		if err := harness.Unmarshal(data, &packet); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
		packets = append(packets, packet)
	}
	return packets, nil
}
