// Package orchestrator implements the Orchestrator (C6): the sequential
// stage driver that takes a pipeline of Stages, runs each through
// preflight assertions, cache lookup, execution, and commit, and
// classifies and propagates the first failure.
//
// Grounded on the teacher's pkg/proof.ProofLifecycleManager state machine
// (pkg/proof/lifecycle.go: pending -> batched -> anchored -> attested ->
// verified, plus a failed terminal state and a registered
// StateChangeListener), generalized from a fixed proof lifecycle to an
// arbitrary stage's Ready -> PreflightOk -> Executing ->
// Committed|Failed|Skipped states, and from
// pkg/execution.UnifiedOrchestratorConfig's OnCycleComplete /
// OnCycleFailed / OnPhaseComplete callback trio, generalized to one
// OnStageComplete/OnStageFailed pair per stage.
package orchestrator

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"go.uber.org/zap"

	"dxcore/internal/cache"
	"dxcore/internal/diagnostic"
	"dxcore/internal/factstore"
	"dxcore/internal/fingerprint"
	"dxcore/internal/intent"
	"dxcore/internal/logging"
	"dxcore/internal/stage"
	"dxcore/internal/telemetry"
	"dxcore/internal/txn"
)

// State is a stage's position in its run-to-completion lifecycle.
type State string

const (
	StateReady       State = "ready"
	StatePreflightOk State = "preflight-ok"
	StateExecuting   State = "executing"
	StateCommitted   State = "committed"
	StateFailed      State = "failed"
	StateSkipped     State = "skipped"
)

// Listener receives stage lifecycle notifications, mirroring the teacher's
// StateChangeListener.
type Listener interface {
	OnStageComplete(stageName string, st State)
	OnStageFailed(stageName string, diag *diagnostic.Diagnostic)
}

// Config wires an Orchestrator's collaborators.
type Config struct {
	Store            *factstore.Store
	Cache            *cache.Cache
	Telemetry        telemetry.Counters
	Logger           *zap.Logger
	GeneratorVersion string

	// PolicyVersions are folded into every stage's fingerprint and, by
	// extension, the cache key, per spec.md §4.7: a policy-version bump
	// must invalidate the cache even when no other input byte changed.
	PolicyVersions []string

	Listener Listener
}

// Orchestrator sequentially drives a fixed pipeline of stages.
type Orchestrator struct {
	cfg Config
}

// New constructs an Orchestrator, filling in no-op defaults for any
// collaborator the caller left unset.
func New(cfg Config) *Orchestrator {
	if cfg.Telemetry == nil {
		cfg.Telemetry = telemetry.Noop{}
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Noop()
	}
	return &Orchestrator{cfg: cfg}
}

// StageOutcome summarizes one stage's run for the caller.
type StageOutcome struct {
	StageName string
	State     State
	Diagnostic *diagnostic.Diagnostic
}

// CanonicalInputs are the already-canonicalized byte forms a fingerprint is
// computed over. The orchestrator does not canonicalize — that is C1's
// job, run upstream — it only folds the result into each stage's
// fingerprint together with the stage's own name and version.
type CanonicalInputs struct {
	Intent   []byte
	Manifest []byte
	Policies [][]byte
}

// Run drives stages in order, stopping at the first failure. It returns the
// outcome of every stage attempted (a failure ends the slice early, per
// spec.md §4.6's "subsequent stages are not attempted" rule).
func (o *Orchestrator) Run(ctx context.Context, stages []stage.Stage, inputs CanonicalInputs) []StageOutcome {
	outcomes := make([]StageOutcome, 0, len(stages))
	for _, s := range stages {
		outcome := o.runStage(ctx, s, inputs)
		outcomes = append(outcomes, outcome)
		if outcome.State == StateFailed {
			break
		}
	}
	return outcomes
}

func (o *Orchestrator) runStage(ctx context.Context, s stage.Stage, inputs CanonicalInputs) StageOutcome {
	logger := logging.ForStage(o.cfg.Logger, s.Name())

	if diag := o.checkAssertions(s); diag != nil {
		return o.fail(s.Name(), diag)
	}

	fp := fingerprint.Compute(fingerprint.Inputs{
		Intent:           inputs.Intent,
		Manifest:         inputs.Manifest,
		Policies:         inputs.Policies,
		PolicyVersions:   o.cfg.PolicyVersions,
		GeneratorVersion: o.cfg.GeneratorVersion,
		StageName:        s.Name() + "@" + s.Version(),
	})

	// spec.md §8's sandbox property: a stage declaring cacheable=true
	// alongside any external-input capability is a design error, not a
	// runtime condition to silently resolve by picking one or the other.
	if s.Cacheable() && stage.HasExternalInput(s.Capabilities()) {
		diag := diagnostic.New(diagnostic.ClassCacheViolation, diagnostic.Code(diagnostic.ClassCacheViolation, 1),
			s.Name(), string(fp), "stage declares cacheable=true together with an external-input capability")
		return o.fail(s.Name(), diag)
	}
	cacheable := o.cfg.Cache != nil && s.Cacheable()

	if cacheable {
		if proposals, hit := o.cfg.Cache.Lookup(s.Name(), fp); hit {
			conflicts, diag := o.cfg.Store.AtomicCommit(s.Name(), proposals)
			if diag != nil {
				_ = conflicts
				return o.fail(s.Name(), diag)
			}
			o.notifyComplete(s.Name(), StateSkipped)
			return StageOutcome{StageName: s.Name(), State: StateSkipped}
		}
	}

	sctx := stage.NewContext(s.Name(), fp, inputs.Manifest, inputs.Policies, o.cfg.Store.View(), time.Now)

	t := txn.New(o.cfg.Store, s.Name())
	res, diag := o.invoke(ctx, s, sctx, t)
	if diag != nil {
		t.Dispose()
		return o.fail(s.Name(), diag)
	}
	_ = res

	proposals := t.Snapshot()
	conflicts, commitDiag := o.cfg.Store.AtomicCommit(s.Name(), proposals)
	t.Dispose()
	if commitDiag != nil {
		_ = conflicts
		return o.fail(s.Name(), commitDiag)
	}

	if cacheable {
		if alreadyPresent := o.cfg.Cache.Store(fp, proposals); alreadyPresent {
			logger.Debug("cache entry already present for fingerprint", zap.String("fingerprint", string(fp)))
		}
	}

	o.cfg.Telemetry.StageSucceeded(s.Name())
	o.notifyComplete(s.Name(), StateCommitted)
	return StageOutcome{StageName: s.Name(), State: StateCommitted}
}

// checkAssertions evaluates a stage's preconditions against already
// committed facts. spec.md §4.6 step 1 classifies a failing precondition as
// an intent-violation, impact breaking: the declared Intent Model does not
// satisfy what a downstream stage requires, not a policy the input merely
// happens to violate.
func (o *Orchestrator) checkAssertions(s stage.Stage) *diagnostic.Diagnostic {
	for _, a := range s.Assertions() {
		fact, present := o.cfg.Store.TryGet(a.Key)
		var v intent.Value
		if present {
			v = fact.Value
		}
		if !a.Check(v, present) {
			diag := diagnostic.New(diagnostic.ClassIntentViolation, diagnostic.Code(diagnostic.ClassIntentViolation, 1),
				s.Name(), "", fmt.Sprintf("precondition failed: %s", a.Description))
			diag.Impact = diagnostic.ImpactBreaking
			return diag
		}
	}
	return nil
}

// invoke calls a stage's Execute, converting an unexpected panic into a
// system diagnostic instead of letting it escape — the single
// panic/recover boundary spec.md §7 describes.
func (o *Orchestrator) invoke(ctx context.Context, s stage.Stage, sctx stage.Context, t *txn.Transaction) (res stage.Success, diag *diagnostic.Diagnostic) {
	defer func() {
		if r := recover(); r != nil {
			diag = diagnostic.New(diagnostic.ClassSystem, diagnostic.Code(diagnostic.ClassSystem, 9),
				s.Name(), string(sctx.Fingerprint), "stage panicked").WithFixPreview(fmt.Sprintf("%v\n%s", r, debug.Stack()))
		}
	}()
	result := s.Execute(ctx, sctx, t)
	if v, ok := result.Value(); ok {
		return v, nil
	}
	f, _ := result.Failure()
	return stage.Success{}, f
}

func (o *Orchestrator) fail(stageName string, diag *diagnostic.Diagnostic) StageOutcome {
	o.cfg.Telemetry.StageFailed(stageName, string(diag.Class))
	if o.cfg.Listener != nil {
		o.cfg.Listener.OnStageFailed(stageName, diag)
	}
	return StageOutcome{StageName: stageName, State: StateFailed, Diagnostic: diag}
}

func (o *Orchestrator) notifyComplete(stageName string, st State) {
	if o.cfg.Listener != nil {
		o.cfg.Listener.OnStageComplete(stageName, st)
	}
}
