package result

import "testing"

func TestOkCarriesValue(t *testing.T) {
	r := Ok[int, string](42)
	if !r.IsOk() {
		t.Fatalf("expected IsOk to be true")
	}
	if r.IsErr() {
		t.Fatalf("expected IsErr to be false")
	}
	v, ok := r.Value()
	if !ok || v != 42 {
		t.Fatalf("Value() = (%v, %v), want (42, true)", v, ok)
	}
}

func TestErrCarriesFailure(t *testing.T) {
	r := Err[int, string]("boom")
	if r.IsOk() {
		t.Fatalf("expected IsOk to be false")
	}
	if !r.IsErr() {
		t.Fatalf("expected IsErr to be true")
	}
	f, ok := r.Failure()
	if !ok || f != "boom" {
		t.Fatalf("Failure() = (%q, %v), want (\"boom\", true)", f, ok)
	}
}

func TestMapTransformsSuccess(t *testing.T) {
	r := Ok[int, string](10)
	mapped := Map(r, func(v int) int { return v * 2 })
	v, ok := mapped.Value()
	if !ok || v != 20 {
		t.Fatalf("Map() on Ok = (%v, %v), want (20, true)", v, ok)
	}
}

func TestMapPassesThroughFailure(t *testing.T) {
	r := Err[int, string]("boom")
	mapped := Map(r, func(v int) int { return v * 2 })
	if mapped.IsOk() {
		t.Fatalf("expected Map() on Err to stay an error")
	}
	f, ok := mapped.Failure()
	if !ok || f != "boom" {
		t.Fatalf("Failure() = (%q, %v), want (\"boom\", true)", f, ok)
	}
}
