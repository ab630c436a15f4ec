package fingerprint

import "testing"

func TestComputeIsDeterministic(t *testing.T) {
	in := Inputs{Intent: []byte("a"), Manifest: []byte("b"), GeneratorVersion: "1", StageName: "render"}
	a := Compute(in)
	b := Compute(in)
	if a != b {
		t.Fatalf("Compute() is not deterministic: %s vs %s", a, b)
	}
}

func TestComputeDistinguishesFramedConcatenation(t *testing.T) {
	a := Compute(Inputs{Intent: []byte("ab"), Manifest: []byte("c"), StageName: "s"})
	b := Compute(Inputs{Intent: []byte("a"), Manifest: []byte("bc"), StageName: "s"})
	if a == b {
		t.Fatalf("framing should prevent concatenation ambiguity, got equal fingerprints: %s", a)
	}
}

func TestComputeChangesWithStageName(t *testing.T) {
	a := Compute(Inputs{Intent: []byte("x"), StageName: "render"})
	b := Compute(Inputs{Intent: []byte("x"), StageName: "emit"})
	if a == b {
		t.Fatalf("different stage names should produce different fingerprints")
	}
}

func TestComputeAcceptsNilAndEmptyInputs(t *testing.T) {
	fp := Compute(Inputs{})
	if len(fp) != 64 {
		t.Fatalf("fingerprint should be a 64-char hex string, got %d chars: %s", len(fp), fp)
	}
}
