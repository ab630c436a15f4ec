// Command dxgen is a minimal example wiring of the dxcore pipeline: read an
// intent document, canonicalize it, run it through a two-stage pipeline
// (render, emit), and write the signed artifact to a file or stdout.
//
// This is wiring, not a product CLI — dxcore's command surface is out of
// scope per the specification's Non-goals; dxgen exists only to exercise
// the library end to end, in the same spirit as the teacher's own main.go.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"dxcore/internal/canon"
	"dxcore/internal/cache"
	"dxcore/internal/dxconfig"
	"dxcore/internal/factstore"
	"dxcore/internal/intent"
	"dxcore/internal/kvstore"
	"dxcore/internal/logging"
	"dxcore/internal/orchestrator"
	"dxcore/internal/stage"
	"dxcore/internal/telemetry"

	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	intentPath := flag.String("intent", "", "path to the intent document (yaml)")
	outPath := flag.String("out", "", "path to write the signed artifact (default: stdout)")
	flag.Parse()

	if *intentPath == "" {
		log.Fatal("dxgen: -intent is required")
	}

	cfg, err := dxconfig.FromEnv()
	if err != nil {
		log.Fatalf("dxgen: %v", err)
	}

	if err := run(*intentPath, *outPath, cfg); err != nil {
		log.Fatalf("dxgen: %v", err)
	}
}

func run(intentPath, outPath string, cfg dxconfig.Config) error {
	raw, err := os.ReadFile(intentPath)
	if err != nil {
		return fmt.Errorf("reading intent document: %w", err)
	}

	canonResult, diag := canon.Canonicalize(raw, "canonicalize")
	if diag != nil {
		return fmt.Errorf("canonicalization failed: %s", diag.Error())
	}

	level := logging.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		level = logging.LevelDebug
	case "warn":
		level = logging.LevelWarn
	case "error":
		level = logging.LevelError
	}
	logger, err := logging.New(level)
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	defer logger.Sync()

	var tele telemetry.Counters = telemetry.Noop{}
	if cfg.MetricsEnabled {
		tele = telemetry.NewPrometheus(prometheus.DefaultRegisterer)
	}

	kv := kvstore.NewMemAdapter()
	store := factstore.New(kv, tele)

	if _, diag := store.AtomicCommit("canonicalize", []factstore.Proposal{
		{Key: "intent.canonical", Value: intent.Raw{Bytes: canonResult.Canonical}, StageName: "canonicalize"},
	}); diag != nil {
		return fmt.Errorf("seeding canonical intent: %s", diag.Error())
	}

	pipeline := []stage.Stage{
		renderStage{},
		emitStage{
			generatorName:    cfg.GeneratorName,
			generatorVersion: cfg.GeneratorVersion,
			modelVersion:     cfg.ModelVersion,
			templateVersion:  cfg.TemplateVersion,
		},
	}

	orch := orchestrator.New(orchestrator.Config{
		Store:            store,
		Cache:            cache.New(tele),
		Telemetry:        tele,
		Logger:           logger,
		GeneratorVersion: cfg.GeneratorVersion,
		PolicyVersions:   cfg.PolicyVersions,
	})

	outcomes := orch.Run(context.Background(), pipeline, orchestrator.CanonicalInputs{
		Intent: canonResult.Canonical,
	})

	for _, o := range outcomes {
		if o.State == orchestrator.StateFailed {
			return fmt.Errorf("stage %s failed: %s", o.StageName, o.Diagnostic.Error())
		}
	}

	signed, ok := store.TryGet("artifact.signed")
	if !ok {
		return fmt.Errorf("pipeline completed without producing a signed artifact")
	}
	artifact, ok := signed.Value.(intent.Raw)
	if !ok {
		return fmt.Errorf("artifact.signed fact has unexpected shape")
	}

	if outPath == "" {
		_, err := os.Stdout.Write(artifact.Bytes)
		return err
	}
	return os.WriteFile(outPath, artifact.Bytes, 0o644)
}
