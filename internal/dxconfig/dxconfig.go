// Package dxconfig is the orchestrator's wiring configuration: a flat
// struct of the values a deployment supplies, grouped by comment section.
//
// Grounded on the teacher's pkg/config.Config (pkg/config/config.go): a
// flat struct with grouped fields rather than a nested options tree,
// loaded here from environment variables the way the teacher's own
// deployment does, instead of a config file the spec's Non-goals exclude.
package dxconfig

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config is the minimal set of values the dxgen entrypoint needs to wire
// an Orchestrator.
type Config struct {
	// Generator identity: GeneratorName is cited in every emitted
	// artifact's provenance header; GeneratorVersion is folded into every
	// stage fingerprint.
	GeneratorName    string
	GeneratorVersion string

	// ModelVersion and TemplateVersion are cited verbatim in every emitted
	// artifact's provenance header (spec.md §6).
	ModelVersion    string
	TemplateVersion string

	// PolicyVersions are folded into every stage's fingerprint and, by
	// extension, its cache key (spec.md §4.7): a policy-version bump
	// invalidates the cache even when no other input byte changed.
	PolicyVersions []string

	// LogLevel controls the zap logger's minimum level: "debug", "info",
	// "warn", or "error".
	LogLevel string

	// MetricsEnabled toggles whether Prometheus counters are registered on
	// the default registerer and wired into the orchestrator's
	// telemetry.Counters.
	MetricsEnabled bool
}

// Default returns the configuration dxgen falls back to when an
// environment variable is unset.
func Default() Config {
	return Config{
		GeneratorName:    "dxgen",
		GeneratorVersion: "0.1.0",
		ModelVersion:     "1.0",
		TemplateVersion:  "v1.0.0",
		LogLevel:         "info",
		MetricsEnabled:   false,
	}
}

// FromEnv overlays DXGEN_* environment variables onto Default(), returning
// an error for any value it cannot parse.
func FromEnv() (Config, error) {
	cfg := Default()

	if v := os.Getenv("DXGEN_GENERATOR_NAME"); v != "" {
		cfg.GeneratorName = v
	}
	if v := os.Getenv("DXGEN_GENERATOR_VERSION"); v != "" {
		cfg.GeneratorVersion = v
	}
	if v := os.Getenv("DXGEN_MODEL_VERSION"); v != "" {
		cfg.ModelVersion = v
	}
	if v := os.Getenv("DXGEN_TEMPLATE_VERSION"); v != "" {
		cfg.TemplateVersion = v
	}
	if v := os.Getenv("DXGEN_POLICY_VERSIONS"); v != "" {
		cfg.PolicyVersions = strings.Split(v, ",")
	}
	if v := os.Getenv("DXGEN_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("DXGEN_METRICS_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return cfg, fmt.Errorf("dxconfig: DXGEN_METRICS_ENABLED: %w", err)
		}
		cfg.MetricsEnabled = enabled
	}

	return cfg, nil
}
