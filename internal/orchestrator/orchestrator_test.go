package orchestrator

import (
	"context"
	"testing"

	"dxcore/internal/cache"
	"dxcore/internal/diagnostic"
	"dxcore/internal/factstore"
	"dxcore/internal/intent"
	"dxcore/internal/kvstore"
	"dxcore/internal/result"
	"dxcore/internal/stage"
	"dxcore/internal/telemetry"
	"dxcore/internal/txn"
)

// writeStage proposes a single fact without reading anything, so it
// carries no preconditions.
type writeStage struct {
	name  string
	key   string
	value intent.Value
	fail  bool
}

func (w writeStage) Name() string                     { return w.name }
func (w writeStage) Version() string                  { return "1" }
func (w writeStage) Capabilities() []stage.Capability { return nil }
func (w writeStage) Cacheable() bool                  { return true }
func (w writeStage) Assertions() []stage.Assertion    { return nil }

func (w writeStage) Execute(_ context.Context, _ stage.Context, t *txn.Transaction) result.Result[stage.Success, *diagnostic.Diagnostic] {
	if w.fail {
		diag := diagnostic.New(diagnostic.ClassIntentViolation, "DX2001", w.name, "", "forced failure")
		return result.Err[stage.Success, *diagnostic.Diagnostic](diag)
	}
	_ = t.Propose(w.key, w.value)
	return result.Ok[stage.Success, *diagnostic.Diagnostic](stage.Success{})
}

func newHarness() (*Orchestrator, *factstore.Store) {
	store := factstore.New(kvstore.NewMemAdapter(), telemetry.Noop{})
	orch := New(Config{
		Store:     store,
		Cache:     cache.New(telemetry.Noop{}),
		Telemetry: telemetry.Noop{},
	})
	return orch, store
}

func TestRunCommitsEachStageInOrder(t *testing.T) {
	orch, store := newHarness()
	stages := []stage.Stage{
		writeStage{name: "s1", key: "k1", value: intent.Number(1)},
		writeStage{name: "s2", key: "k2", value: intent.Number(2)},
	}
	outcomes := orch.Run(context.Background(), stages, CanonicalInputs{})
	if len(outcomes) != 2 {
		t.Fatalf("expected 2 outcomes, got %d", len(outcomes))
	}
	for _, o := range outcomes {
		if o.State != StateCommitted {
			t.Fatalf("stage %s: state = %s, want committed", o.StageName, o.State)
		}
	}
	if _, ok := store.TryGet("k1"); !ok {
		t.Fatalf("expected k1 committed")
	}
	if _, ok := store.TryGet("k2"); !ok {
		t.Fatalf("expected k2 committed")
	}
}

func TestRunStopsAtFirstFailure(t *testing.T) {
	orch, store := newHarness()
	stages := []stage.Stage{
		writeStage{name: "s1", key: "k1", value: intent.Number(1)},
		writeStage{name: "s2", fail: true},
		writeStage{name: "s3", key: "k3", value: intent.Number(3)},
	}
	outcomes := orch.Run(context.Background(), stages, CanonicalInputs{})
	if len(outcomes) != 2 {
		t.Fatalf("expected the pipeline to stop after the failing stage, got %d outcomes", len(outcomes))
	}
	if outcomes[1].State != StateFailed {
		t.Fatalf("expected s2 to be marked failed, got %s", outcomes[1].State)
	}
	if _, ok := store.TryGet("k3"); ok {
		t.Fatalf("s3 must never run once s2 has failed")
	}
}

func TestRunSkipsOnCacheHit(t *testing.T) {
	orch, store := newHarness()
	s := writeStage{name: "cacheable", key: "k1", value: intent.Number(1)}

	first := orch.Run(context.Background(), []stage.Stage{s}, CanonicalInputs{Intent: []byte("same")})
	if first[0].State != StateCommitted {
		t.Fatalf("first run: state = %s, want committed", first[0].State)
	}

	store2 := factstore.New(kvstore.NewMemAdapter(), telemetry.Noop{})
	orch2 := New(Config{Store: store2, Cache: orch.cfg.Cache, Telemetry: telemetry.Noop{}})
	second := orch2.Run(context.Background(), []stage.Stage{s}, CanonicalInputs{Intent: []byte("same")})
	if second[0].State != StateSkipped {
		t.Fatalf("second run with identical inputs: state = %s, want skipped (cache hit)", second[0].State)
	}
	if _, ok := store2.TryGet("k1"); !ok {
		t.Fatalf("a skipped stage's cached proposals must still be committed")
	}
	_ = store
}

func TestPreflightAssertionFailureIsIntentViolation(t *testing.T) {
	orch, _ := newHarness()
	gated := gatedStage{requiredKey: "never-committed"}
	outcomes := orch.Run(context.Background(), []stage.Stage{gated}, CanonicalInputs{})
	if outcomes[0].State != StateFailed {
		t.Fatalf("expected preflight failure to fail the stage")
	}
	if outcomes[0].Diagnostic.Class != diagnostic.ClassIntentViolation {
		t.Fatalf("expected an intent-violation diagnostic, got %s", outcomes[0].Diagnostic.Class)
	}
	if outcomes[0].Diagnostic.Impact != diagnostic.ImpactBreaking {
		t.Fatalf("expected impact breaking, got %s", outcomes[0].Diagnostic.Impact)
	}
}

func TestCacheableStageWithExternalInputIsDX7001(t *testing.T) {
	orch, _ := newHarness()
	s := cacheableWithCapabilityStage{}
	outcomes := orch.Run(context.Background(), []stage.Stage{s}, CanonicalInputs{})
	if outcomes[0].State != StateFailed {
		t.Fatalf("expected the design error to fail the stage")
	}
	if outcomes[0].Diagnostic.Class != diagnostic.ClassCacheViolation {
		t.Fatalf("expected a cache-violation diagnostic, got %s", outcomes[0].Diagnostic.Class)
	}
	if outcomes[0].Diagnostic.Code != "DX7001" {
		t.Fatalf("expected code DX7001, got %s", outcomes[0].Diagnostic.Code)
	}
}

type gatedStage struct {
	requiredKey string
}

func (g gatedStage) Name() string                     { return "gated" }
func (g gatedStage) Version() string                  { return "1" }
func (g gatedStage) Capabilities() []stage.Capability { return nil }
func (g gatedStage) Cacheable() bool                  { return true }

func (g gatedStage) Assertions() []stage.Assertion {
	return []stage.Assertion{
		{Key: g.requiredKey, Description: "required", Check: func(v intent.Value, present bool) bool { return present }},
	}
}

func (g gatedStage) Execute(_ context.Context, _ stage.Context, t *txn.Transaction) result.Result[stage.Success, *diagnostic.Diagnostic] {
	return result.Ok[stage.Success, *diagnostic.Diagnostic](stage.Success{})
}

// cacheableWithCapabilityStage declares cacheable=true alongside a
// network capability — the DX7001 design error spec.md §8 describes.
type cacheableWithCapabilityStage struct{}

func (cacheableWithCapabilityStage) Name() string    { return "bad-cache" }
func (cacheableWithCapabilityStage) Version() string { return "1" }
func (cacheableWithCapabilityStage) Capabilities() []stage.Capability {
	return []stage.Capability{stage.CapNetwork}
}
func (cacheableWithCapabilityStage) Cacheable() bool               { return true }
func (cacheableWithCapabilityStage) Assertions() []stage.Assertion { return nil }

func (cacheableWithCapabilityStage) Execute(_ context.Context, _ stage.Context, t *txn.Transaction) result.Result[stage.Success, *diagnostic.Diagnostic] {
	return result.Ok[stage.Success, *diagnostic.Diagnostic](stage.Success{})
}
