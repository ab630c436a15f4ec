package main

import (
	"context"

	"dxcore/internal/diagnostic"
	"dxcore/internal/emitter"
	"dxcore/internal/intent"
	"dxcore/internal/result"
	"dxcore/internal/stage"
	"dxcore/internal/txn"
)

// renderStage turns the committed canonical intent into an artifact body.
// It declares no capabilities and declares itself cacheable.
type renderStage struct{}

func (renderStage) Name() string    { return "render" }
func (renderStage) Version() string { return "1" }

func (renderStage) Capabilities() []stage.Capability { return nil }
func (renderStage) Cacheable() bool                  { return true }

func (renderStage) Assertions() []stage.Assertion {
	return []stage.Assertion{
		{
			Key:         "intent.canonical",
			Description: "canonical intent must already be committed",
			Check:       func(v intent.Value, present bool) bool { return present },
		},
	}
}

func (renderStage) Execute(_ context.Context, _ stage.Context, t *txn.Transaction) result.Result[stage.Success, *diagnostic.Diagnostic] {
	canonical, ok := t.GetCommitted("intent.canonical")
	if !ok {
		diag := diagnostic.New(diagnostic.ClassSystem, diagnostic.Code(diagnostic.ClassSystem, 5), "render", "",
			"canonical intent missing at execution time despite passing preflight")
		return result.Err[stage.Success, *diagnostic.Diagnostic](diag)
	}
	raw, ok := canonical.(intent.Raw)
	if !ok {
		diag := diagnostic.New(diagnostic.ClassSystem, diagnostic.Code(diagnostic.ClassSystem, 6), "render", "",
			"intent.canonical fact is not a raw byte payload")
		return result.Err[stage.Success, *diagnostic.Diagnostic](diag)
	}

	body := append([]byte("// rendered from canonical intent\n"), raw.Bytes...)
	if err := t.Propose("artifact.body", intent.Raw{Bytes: body}); err != nil {
		diag := diagnostic.New(diagnostic.ClassSystem, diagnostic.Code(diagnostic.ClassSystem, 7), "render", "", err.Error())
		return result.Err[stage.Success, *diagnostic.Diagnostic](diag)
	}
	return result.Ok[stage.Success, *diagnostic.Diagnostic](stage.Success{})
}

// emitStage signs the rendered body into a final artifact. It reads the
// run's input fingerprint from the stage.Context the orchestrator
// constructs — never from a value the stage invents itself.
type emitStage struct {
	generatorName    string
	generatorVersion string
	modelVersion     string
	templateVersion  string
}

func (emitStage) Name() string                     { return "emit" }
func (emitStage) Version() string                  { return "1" }
func (emitStage) Capabilities() []stage.Capability { return nil }
func (emitStage) Cacheable() bool                  { return true }

func (emitStage) Assertions() []stage.Assertion {
	return []stage.Assertion{
		{
			Key:         "artifact.body",
			Description: "rendered artifact body must already be committed",
			Check:       func(v intent.Value, present bool) bool { return present },
		},
	}
}

func (e emitStage) Execute(_ context.Context, sc stage.Context, t *txn.Transaction) result.Result[stage.Success, *diagnostic.Diagnostic] {
	committed, ok := t.GetCommitted("artifact.body")
	if !ok {
		diag := diagnostic.New(diagnostic.ClassSystem, diagnostic.Code(diagnostic.ClassSystem, 5), "emit", "",
			"artifact.body missing at execution time despite passing preflight")
		return result.Err[stage.Success, *diagnostic.Diagnostic](diag)
	}
	raw, ok := committed.(intent.Raw)
	if !ok {
		diag := diagnostic.New(diagnostic.ClassSystem, diagnostic.Code(diagnostic.ClassSystem, 6), "emit", "",
			"artifact.body fact is not a raw byte payload")
		return result.Err[stage.Success, *diagnostic.Diagnostic](diag)
	}

	artifact, diag := emitter.NewBuilder(e.generatorName, e.generatorVersion).
		WithModel(e.modelVersion).
		WithTemplate(e.templateVersion).
		WithFingerprint(string(sc.Fingerprint)).
		WithBody(raw.Bytes).
		Build()
	if diag != nil {
		return result.Err[stage.Success, *diagnostic.Diagnostic](diag)
	}

	if err := t.Propose("artifact.signed", intent.Raw{Bytes: artifact.Bytes()}); err != nil {
		diag := diagnostic.New(diagnostic.ClassSystem, diagnostic.Code(diagnostic.ClassSystem, 7), "emit", "", err.Error())
		return result.Err[stage.Success, *diagnostic.Diagnostic](diag)
	}
	return result.Ok[stage.Success, *diagnostic.Diagnostic](stage.Success{})
}
