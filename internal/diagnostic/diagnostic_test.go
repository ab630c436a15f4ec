package diagnostic

import (
	"strings"
	"testing"
)

func TestCodeUsesClassPrefix(t *testing.T) {
	got := Code(ClassCacheViolation, 1)
	if got != "DX7001" {
		t.Fatalf("Code(ClassCacheViolation, 1) = %s, want DX7001", got)
	}
}

func TestNewAssignsFreshIDs(t *testing.T) {
	a := New(ClassSystem, "DX6001", "stageA", "fp", "boom")
	b := New(ClassSystem, "DX6001", "stageA", "fp", "boom")
	if a.ID == b.ID {
		t.Fatalf("each Diagnostic should get a distinct correlation ID")
	}
}

func TestWithRemediationsDemotesSecondAutoApplicable(t *testing.T) {
	d := New(ClassIntentViolation, "DX2001", "stageA", "fp", "boom")
	d.WithRemediations(
		Remediation{Name: "first", Impact: ImpactSafe, AutoApplicable: true},
		Remediation{Name: "second", Impact: ImpactSafe, AutoApplicable: true},
	)
	autoCount := 0
	for _, r := range d.Remediations {
		if r.AutoApplicable {
			autoCount++
		}
	}
	if autoCount != 1 {
		t.Fatalf("expected exactly one auto-applicable remediation, got %d", autoCount)
	}
	if !d.Remediations[0].AutoApplicable {
		t.Fatalf("expected the first remediation to keep auto-applicable status")
	}
}

func TestWithRemediationsDemotesUnsafeAutoApplicable(t *testing.T) {
	d := New(ClassIntentViolation, "DX2001", "stageA", "fp", "boom")
	d.WithRemediations(Remediation{Name: "risky", Impact: ImpactBreaking, AutoApplicable: true})
	if d.Remediations[0].AutoApplicable {
		t.Fatalf("a breaking-impact remediation must never be auto-applicable")
	}
}

func TestErrorIncludesCodeClassAndStage(t *testing.T) {
	d := New(ClassPolicyViolation, "DX3001", "stageA", "fp", "boom")
	msg := d.Error()
	if msg == "" {
		t.Fatalf("Error() should not be empty")
	}
	for _, want := range []string{"DX3001", string(ClassPolicyViolation), "stageA"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("Error() = %q, want it to include %q", msg, want)
		}
	}
}
