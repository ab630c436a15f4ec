// Package diagnostic implements the failure classification taxonomy (C9):
// diagnostic records, remediation records, and resolution requests.
//
// Grounded on the teacher's "F.4 remediation: explicit errors instead of
// nil, nil" convention (pkg/execution/errors.go) generalized from Go
// sentinel errors to a value-level diagnostic record, since dxcore's
// failures are data, never panics.
package diagnostic

import (
	"fmt"

	"github.com/google/uuid"
)

// Class is the failure classification taxonomy from spec.md §4.9.
type Class string

const (
	ClassIntentViolation  Class = "intent-violation"  // DX2xxx
	ClassPolicyViolation  Class = "policy-violation"  // DX3xxx
	ClassInferenceFailure Class = "inference-failure" // DX4xxx
	ClassCompatibility    Class = "compatibility"     // DX5xxx
	ClassSystem           Class = "system"            // DX6xxx
	ClassCacheViolation   Class = "cache-violation"   // DX7xxx
	ClassTrustViolation   Class = "trust-violation"   // DX8xxx
)

// codePrefix maps a Class to its DX code range prefix.
var codePrefix = map[Class]string{
	ClassIntentViolation:  "DX2",
	ClassPolicyViolation:  "DX3",
	ClassInferenceFailure: "DX4",
	ClassCompatibility:    "DX5",
	ClassSystem:           "DX6",
	ClassCacheViolation:   "DX7",
	ClassTrustViolation:   "DX8",
}

// Impact is the blast-radius level of a diagnostic or a remediation.
type Impact string

const (
	ImpactSafe       Impact = "safe"
	ImpactBehavioral Impact = "behavioral"
	ImpactBreaking   Impact = "breaking"
)

// Remediation is one ordered candidate fix for a diagnostic. At most one
// remediation in a Diagnostic's list may be AutoApplicable, and only when
// its Impact is safe.
type Remediation struct {
	Name            string
	Description     string
	RecommendedStep string
	Impact          Impact
	AutoApplicable  bool
}

// Location optionally pinpoints where in the input a diagnostic applies.
type Location struct {
	Path string
	Line int
	Col  int
}

// Diagnostic is the single structured failure record every stage may
// produce on its failing path (never more than one, per spec.md §7).
type Diagnostic struct {
	ID               uuid.UUID
	Class            Class
	Code             string
	Title            string
	Message          string
	InputFingerprint string
	StageName        string
	Location         *Location
	Remediations     []Remediation
	FixPreview       string
	Impact           Impact
	Resolution       *ResolutionRequest
}

// Code returns a stable DX code for a class and a numeric suffix (e.g.
// ClassIntentViolation, 2 -> "DX-DIM-002" style codes are constructed by
// callers that know the specific sub-domain; this helper produces the bare
// "DX2NNN" form used when no sub-domain code exists yet).
func Code(class Class, n int) string {
	prefix, ok := codePrefix[class]
	if !ok {
		prefix = "DX0"
	}
	return fmt.Sprintf("%s%03d", prefix, n)
}

// New constructs a Diagnostic with a fresh correlation ID. Class and Code
// are required; everything else may be filled in by the caller afterward.
func New(class Class, code, stageName, fingerprint, message string) *Diagnostic {
	return &Diagnostic{
		ID:               uuid.New(),
		Class:            class,
		Code:             code,
		Message:          message,
		StageName:        stageName,
		InputFingerprint: fingerprint,
		Impact:           ImpactBreaking,
	}
}

// WithLocation attaches a source location and returns the Diagnostic for
// chaining, mirroring the teacher's Builder-with-chaining idiom
// (pkg/anchor_proof.Builder).
func (d *Diagnostic) WithLocation(loc Location) *Diagnostic {
	d.Location = &loc
	return d
}

// WithRemediations appends ordered remediations, enforcing the "at most one
// auto-applicable, and only if safe" invariant by demoting any violator.
func (d *Diagnostic) WithRemediations(rs ...Remediation) *Diagnostic {
	autoSeen := false
	for _, existing := range d.Remediations {
		if existing.AutoApplicable {
			autoSeen = true
		}
	}
	for i := range rs {
		if rs[i].AutoApplicable {
			if autoSeen || rs[i].Impact != ImpactSafe {
				rs[i].AutoApplicable = false
			} else {
				autoSeen = true
			}
		}
	}
	d.Remediations = append(d.Remediations, rs...)
	return d
}

// WithFixPreview attaches a fix preview (also used to carry an unexpected
// exception's message and stack, per spec.md §7).
func (d *Diagnostic) WithFixPreview(preview string) *Diagnostic {
	d.FixPreview = preview
	return d
}

// WithResolution attaches a resolution request. Only meaningful for
// ClassInferenceFailure diagnostics, but the setter does not enforce that —
// callers decide.
func (d *Diagnostic) WithResolution(r *ResolutionRequest) *Diagnostic {
	d.Resolution = r
	return d
}

// Error implements the error interface so a Diagnostic can be logged or
// wrapped with fmt.Errorf("%w", ...) without an adapter type.
func (d *Diagnostic) Error() string {
	return fmt.Sprintf("%s [%s/%s]: %s", d.Code, d.Class, d.StageName, d.Message)
}
