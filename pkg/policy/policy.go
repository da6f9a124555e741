// Package policy implements the Bayesian RuntimePolicy decision engine,
// its append-only EvidenceLedger, the conformal calibration guard, and
// the erasure-sidecar envelope. The decision-record/ledger shape
// follows the teacher's pkg/metrics.Timer/event-recording idiom
// (explicit value types appended to an owned slice, no ambient
// singleton), generalized to the spec's Bayesian accounting.
package policy

import (
	"math"
	"time"

	"github.com/joyshmitz/frankenpandas/pkg/config"
	"github.com/joyshmitz/frankenpandas/pkg/metrics"
	"github.com/joyshmitz/frankenpandas/pkg/nebulaerrors"
)

// Action is the decision engine's output.
type Action string

const (
	Allow  Action = "allow"
	Reject Action = "reject"
	Repair Action = "repair"
)

// IssueKind classifies the issue a decision is being made about.
type IssueKind string

const (
	IssueUnknownFeature IssueKind = "unknown_feature"
	IssueMalformedInput IssueKind = "malformed_input"
	IssueJoinCardinality IssueKind = "join_cardinality"
	IssuePolicyOverride IssueKind = "policy_override"
)

// Issue describes the subject of a policy decision.
type Issue struct {
	Kind          IssueKind
	Subject       string
	Detail        string
	EstimatedRows int64 // only meaningful for IssueJoinCardinality
}

// Evidence is one term in the Bayesian update: log-likelihood of the
// observation under the compatible and incompatible hypotheses.
type Evidence struct {
	Name                string
	LogLikelihoodCompat   float64
	LogLikelihoodIncompat float64
}

// DecisionRecord is one append-only entry in the EvidenceLedger.
type DecisionRecord struct {
	Timestamp        int64
	Mode             config.Mode
	Action           Action
	Issue            Issue
	Prior            float64
	Posterior        float64
	ExpectedLosses   map[Action]float64
	Evidence         []Evidence
}

// EvidenceLedger is an append-only sequence of DecisionRecord, owned by
// the caller and passed by exclusive reference into decide-invoking
// APIs.
type EvidenceLedger struct {
	records []DecisionRecord
}

// NewEvidenceLedger returns an empty ledger.
func NewEvidenceLedger() *EvidenceLedger {
	return &EvidenceLedger{}
}

// Append adds a record. The ledger never deletes or updates entries.
func (l *EvidenceLedger) Append(r DecisionRecord) {
	l.records = append(l.records, r)
}

// Records returns the ledger's entries in append order. Callers must
// not mutate the returned slice.
func (l *EvidenceLedger) Records() []DecisionRecord {
	return l.records
}

// nowMillis is the single clock-skew-to-0 sentinel function in this
// codebase: every timestamp a DecisionRecord or DriftHistoryEntry
// carries flows through here (via the exported NowMillis), so the
// "on clock-skew failure the record carries timestamp 0" rule has
// exactly one implementation to audit.
func nowMillis() int64 {
	now := time.Now()
	if now.Unix() < 0 {
		return 0
	}
	return now.UnixMilli()
}

// NowMillis exposes nowMillis to other packages (e.g. pkg/harness's
// drift history rows) that need the same clock-skew-tolerant
// timestamp without re-implementing the sentinel rule.
func NowMillis() int64 { return nowMillis() }

// RuntimePolicy is the strict/hardened decision gate threaded through
// Frame/Groupby/Join admission checks.
type RuntimePolicy struct {
	cfg *config.PolicyConfig
}

// New constructs a RuntimePolicy from cfg.
func New(cfg *config.PolicyConfig) *RuntimePolicy {
	return &RuntimePolicy{cfg: cfg}
}

// Mode returns the policy's operating mode.
func (p *RuntimePolicy) Mode() config.Mode { return p.cfg.Mode }

// ArenaBudgetBytes returns the configured intermediate-allocation
// budget groupby/join consult before choosing arena vs. heap storage.
func (p *RuntimePolicy) ArenaBudgetBytes() int64 { return p.cfg.ArenaBudgetBytes }

// Decide runs the Bayesian decision engine over issue and evidence,
// applies the Strict/Hardened overrides, appends a DecisionRecord to
// ledger, and returns the chosen action.
func (p *RuntimePolicy) Decide(issue Issue, evidence []Evidence, ledger *EvidenceLedger) Action {
	lm := p.cfg.LossMatrix
	if issue.Kind == IssueJoinCardinality {
		lm = p.cfg.JoinLossMatrix
	}

	posterior := posteriorProbability(p.cfg.Prior, evidence)
	losses := expectedLosses(posterior, lm)
	action := argminAction(losses)

	if p.cfg.Mode == config.ModeStrict && issue.Kind == IssueUnknownFeature && p.cfg.FailClosedUnknownFeatures {
		action = Reject
	}
	if p.cfg.Mode == config.ModeHardened && issue.Kind == IssueJoinCardinality &&
		p.cfg.HardenedJoinRowCap != nil && issue.EstimatedRows > *p.cfg.HardenedJoinRowCap {
		action = Repair
	}

	record := DecisionRecord{
		Timestamp:      nowMillis(),
		Mode:           p.cfg.Mode,
		Action:         action,
		Issue:          issue,
		Prior:          p.cfg.Prior,
		Posterior:      posterior,
		ExpectedLosses: losses,
		Evidence:       evidence,
	}
	ledger.Append(record)
	metrics.PolicyDecisionsTotal.WithLabelValues(string(p.cfg.Mode), string(action)).Inc()

	return action
}

// AdmitCardinality applies the §4.4 step-4 admission rule used by
// arithmetic/groupby/join: an estimated output cardinality over the
// configured hardened_join_row_cap is Repaired in Hardened (accepted,
// logged) or rejected in Strict. A nil cap means no bound is
// configured and the cardinality is always admitted.
func (p *RuntimePolicy) AdmitCardinality(subject string, estimatedRows int64, ledger *EvidenceLedger) (Action, error) {
	cap := p.cfg.HardenedJoinRowCap
	issue := Issue{Kind: IssueJoinCardinality, Subject: subject, EstimatedRows: estimatedRows}
	p.Decide(issue, nil, ledger)

	if cap == nil || estimatedRows <= *cap {
		return Allow, nil
	}
	if p.cfg.Mode == config.ModeHardened {
		return Repair, nil
	}
	return Reject, nebulaerrors.Newf(nebulaerrors.DomainRuntime, "CompatibilityRejected",
		"%s: estimated cardinality %d exceeds cap %d in strict mode", subject, estimatedRows, *cap)
}

func posteriorProbability(prior float64, evidence []Evidence) float64 {
	logOdds := math.Log(prior / (1 - prior))
	for _, e := range evidence {
		logOdds += e.LogLikelihoodCompat - e.LogLikelihoodIncompat
	}
	return 1 / (1 + math.Exp(-logOdds))
}

func expectedLosses(posterior float64, lm config.LossMatrix) map[Action]float64 {
	pIncompat := 1 - posterior
	return map[Action]float64{
		Allow:  posterior*lm.AllowIfCompatible + pIncompat*lm.AllowIfIncompatible,
		Reject: posterior*lm.RejectIfCompatible + pIncompat*lm.RejectIfIncompatible,
		Repair: posterior*lm.RepairIfCompatible + pIncompat*lm.RepairIfIncompatible,
	}
}

func argminAction(losses map[Action]float64) Action {
	best := Allow
	bestLoss := losses[Allow]
	for _, a := range []Action{Reject, Repair} {
		if losses[a] < bestLoss {
			best = a
			bestLoss = losses[a]
		}
	}
	return best
}
