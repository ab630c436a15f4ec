package emitter

import (
	"strings"
	"testing"
)

func newBuilder() *Builder {
	return NewBuilder("dxgen", "1.0.0").WithModel("1.0").WithTemplate("v1.0.0").WithFingerprint("fp")
}

func TestBuildProducesStableHash(t *testing.T) {
	a, diag := newBuilder().WithBody([]byte("hello\n")).Build()
	if diag != nil {
		t.Fatalf("Build() diagnostic: %v", diag)
	}
	b, diag := newBuilder().WithBody([]byte("hello\n")).Build()
	if diag != nil {
		t.Fatalf("Build() diagnostic: %v", diag)
	}
	if a.Hash != b.Hash {
		t.Fatalf("identical bodies should hash identically: %s vs %s", a.Hash, b.Hash)
	}
}

func TestBuildNormalizesLineEndingsBeforeHashing(t *testing.T) {
	a, _ := newBuilder().WithBody([]byte("line1\nline2\n")).Build()
	b, _ := newBuilder().WithBody([]byte("line1\r\nline2\r\n")).Build()
	if a.Hash != b.Hash {
		t.Fatalf("CRLF and LF bodies should normalize to the same hash")
	}
}

func TestHeaderIsBitExactProvenanceFormat(t *testing.T) {
	artifact, diag := newBuilder().WithBody([]byte("body\n")).Build()
	if diag != nil {
		t.Fatalf("Build() diagnostic: %v", diag)
	}
	want := "// dxcore:provenance generator=dxgen; model=1.0; template=v1.0.0; fingerprint=fp; content-hash=" + artifact.Hash
	if artifact.Header != want {
		t.Fatalf("unexpected header:\n got:  %s\n want: %s", artifact.Header, want)
	}
	if !strings.Contains(string(artifact.Bytes()), artifact.Hash) {
		t.Fatalf("rendered artifact should cite its own hash in the header")
	}
}

func TestBuildRejectsMissingFingerprint(t *testing.T) {
	_, diag := NewBuilder("dxgen", "1.0.0").WithModel("1.0").WithTemplate("v1.0.0").WithBody([]byte("body")).Build()
	if diag == nil {
		t.Fatalf("expected a diagnostic when fingerprint is missing")
	}
}

func TestBuildRejectsMissingModel(t *testing.T) {
	_, diag := NewBuilder("dxgen", "1.0.0").WithTemplate("v1.0.0").WithFingerprint("fp").WithBody([]byte("body")).Build()
	if diag == nil {
		t.Fatalf("expected a diagnostic when model version is missing")
	}
}

func TestBuildRejectsMissingTemplate(t *testing.T) {
	_, diag := NewBuilder("dxgen", "1.0.0").WithModel("1.0").WithFingerprint("fp").WithBody([]byte("body")).Build()
	if diag == nil {
		t.Fatalf("expected a diagnostic when template version is missing")
	}
}

func TestBuildRejectsMissingBody(t *testing.T) {
	_, diag := newBuilder().Build()
	if diag == nil {
		t.Fatalf("expected a diagnostic when body is missing")
	}
}
