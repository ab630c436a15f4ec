// Package stage defines the Stage Contract (C5): the interface every
// pipeline stage implements, its declared capabilities, and the assertion
// set the orchestrator checks before invoking it.
//
// Grounded on the teacher's pkg/execution.ChainedProofGenerator interface
// (pkg/execution/unified_orchestrator.go), a narrow single-method interface
// the orchestrator drives by name; dxcore generalizes it to an arbitrary
// pipeline stage with declared capabilities and a result channel instead of
// a fixed proof-generation signature.
package stage

import (
	"context"
	"time"

	"github.com/google/uuid"

	"dxcore/internal/diagnostic"
	"dxcore/internal/fingerprint"
	"dxcore/internal/intent"
	"dxcore/internal/result"
	"dxcore/internal/txn"
)

// Capability is one external-interaction permission a stage may declare.
// Per spec.md §5's sandbox model, a stage with any of these beyond none is
// not eligible for caching.
type Capability string

const (
	CapFileRead    Capability = "file-read"
	CapFileWrite   Capability = "file-write"
	CapNetwork     Capability = "network"
	CapDatabase    Capability = "database"
	CapEnvironment Capability = "environment"
)

// HasExternalInput reports whether any capability in the set implies the
// stage can observe input outside its declared arguments — the condition
// that makes caching it a design error (DX7001).
func HasExternalInput(caps []Capability) bool {
	return len(caps) > 0
}

// Assertion is one precondition the orchestrator checks against committed
// facts before invoking a stage, per spec.md §4.5.
type Assertion struct {
	Key         string
	Description string
	Check       func(value intent.Value, present bool) bool
}

// Success marks a stage's successful completion. The facts it produced are
// read back from its Transaction via Snapshot — Success itself carries no
// payload, since the transaction is the single channel a stage writes
// output through.
type Success struct{}

// FactView is the read-only projection of the Fact Store a Context exposes
// to a running stage. Per spec.md §9's open question on whether the
// projection's key set may be enumerated, dxcore resolves it as forbidden:
// a stage may only look up a key it already knows the name of.
type FactView interface {
	TryGet(key string) (intent.Value, bool)
}

// Context is the per-invocation execution context the orchestrator
// constructs and passes into Execute, per spec.md §4.6 step 3: the input
// fingerprint, a read-only view of the manifest and policy documents, a
// read-only fact-store projection, a clock, and a deterministic identity
// derived from the fingerprint and stage name (so a stage can mint stable
// sub-identifiers without calling time.Now or a random source itself).
type Context struct {
	Fingerprint fingerprint.Fingerprint
	Manifest    []byte
	Policies    [][]byte
	Facts       FactView
	Clock       func() time.Time
	Identity    uuid.UUID
}

// NewContext builds a Context, deriving Identity deterministically from fp
// and stageName via a name-based (version 5) UUID, so the same inputs
// always mint the same identity across runs and hosts.
func NewContext(stageName string, fp fingerprint.Fingerprint, manifest []byte, policies [][]byte, facts FactView, clock func() time.Time) Context {
	if clock == nil {
		clock = time.Now
	}
	return Context{
		Fingerprint: fp,
		Manifest:    manifest,
		Policies:    policies,
		Facts:       facts,
		Clock:       clock,
		Identity:    uuid.NewSHA1(uuid.NameSpaceOID, []byte(string(fp)+"|"+stageName)),
	}
}

// Stage is the contract every pipeline component implements.
type Stage interface {
	// Name is the stable identifier used in fingerprints, cache keys, and
	// diagnostics.
	Name() string

	// Version is folded into the stage's fingerprint input so a stage
	// behavior change invalidates any cached result.
	Version() string

	// Capabilities declares what this stage may touch beyond its
	// arguments and the Fact Store.
	Capabilities() []Capability

	// Cacheable declares whether this stage's result may be reused across
	// runs with an identical fingerprint. This is an independent
	// declaration from Capabilities, per spec.md §3's Stage Declaration —
	// it is not inferred from an empty capability set, since that would
	// make declaring cacheable=true alongside an external-input
	// capability (the DX7001 design error, spec.md §8) structurally
	// unreachable.
	Cacheable() bool

	// Assertions lists the preconditions the orchestrator evaluates
	// against committed facts before calling Execute.
	Assertions() []Assertion

	// Execute runs the stage's logic against the given transaction. The
	// transaction's Propose calls are the stage's only way to produce
	// output; Result carries either Success or a single Diagnostic.
	Execute(ctx context.Context, sc Context, t *txn.Transaction) result.Result[Success, *diagnostic.Diagnostic]
}
