// Package canon implements the Canonicalizer (C1): it parses a raw textual
// intent document, normalizes it into the typed Intent Model, and renders a
// deterministic canonical byte form used as fingerprint input.
//
// The loose-tree deserialization step is grounded on the teacher's
// pkg/commitment.CanonicalizeJSON (recursive map-key sort, then
// encoding/json.Marshal); the surface format is gopkg.in/yaml.v3 rather
// than JSON, since yaml.v3 unmarshals mappings directly into
// map[string]interface{} (no map[interface{}]interface{} indirection, a
// JSON-equivalent loose tree with friendlier declarative authoring).
package canon

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"dxcore/internal/diagnostic"
	"dxcore/internal/intent"
)

// SupportedMajorVersion is the model-version major dxcore understands.
const SupportedMajorVersion = "1"

// Result is the outcome of canonicalizing one intent document: either a
// canonical byte form paired with the typed Model, or a failure diagnostic.
type Result struct {
	Canonical []byte
	Model     *intent.Model
}

// Canonicalize implements spec.md §4.1's six-step algorithm.
func Canonicalize(raw []byte, stageName string) (*Result, *diagnostic.Diagnostic) {
	loose, err := deserialize(raw)
	if err != nil {
		return nil, intentViolation(stageName, "DX-DIM-000", "could not parse intent document: "+err.Error())
	}

	if diag := checkModelVersion(loose, stageName); diag != nil {
		return nil, diag
	}

	model, diag := buildModel(loose, stageName)
	if diag != nil {
		return nil, diag
	}

	if dup, ok := model.DuplicateNames(); ok {
		return nil, intentViolation(stageName, "DX-DIM-001", "duplicate entry name: "+dup)
	}

	model.SortEntries()

	canonical, cerr := renderCanonical(model)
	if cerr != nil {
		return nil, systemFailure(stageName, "failed to render canonical form: "+cerr.Error())
	}

	return &Result{Canonical: canonical, Model: model}, nil
}

func deserialize(raw []byte) (map[string]interface{}, error) {
	var loose map[string]interface{}
	if err := yaml.Unmarshal(raw, &loose); err != nil {
		return nil, err
	}
	if loose == nil {
		loose = map[string]interface{}{}
	}
	return loose, nil
}

func checkModelVersion(loose map[string]interface{}, stageName string) *diagnostic.Diagnostic {
	raw, ok := loose["modelVersion"]
	if !ok {
		return intentViolation(stageName, "DX-DIM-002", "modelVersion is required")
	}
	version := fmt.Sprintf("%v", raw)
	major := strings.SplitN(version, ".", 2)[0]
	if major != SupportedMajorVersion {
		return intentViolation(stageName, "DX-DIM-002", "unsupported model version: "+version)
	}
	return nil
}

// entryKindFields maps each of the seven admitted sequence keys to the Kind
// tag its entries receive.
var entryKindFields = []struct {
	Key  string
	Kind intent.Kind
}{
	{"valueObjects", intent.KindValueObject},
	{"entities", intent.KindEntity},
	{"aggregates", intent.KindAggregate},
	{"snapshots", intent.KindSnapshot},
	{"events", intent.KindEvent},
	{"repositories", intent.KindRepository},
	{"collections", intent.KindCollection},
}

func buildModel(loose map[string]interface{}, stageName string) (*intent.Model, *diagnostic.Diagnostic) {
	model := &intent.Model{
		ModelVersion: fmt.Sprintf("%v", loose["modelVersion"]),
	}

	metaEntries := map[string]intent.Value{}
	for k, v := range asStringMap(loose["metadata"]) {
		metaEntries[k] = intent.String(strings.TrimSpace(v))
	}
	for k, v := range asStringMap(loose["templateOptions"]) {
		metaEntries["opt:"+k] = intent.String(strings.TrimSpace(v))
	}
	model.Metadata = intent.NewMap(metaEntries)

	for _, kf := range entryKindFields {
		entries, diag := buildEntries(loose[kf.Key], kf.Kind, stageName)
		if diag != nil {
			return nil, diag
		}
		switch kf.Kind {
		case intent.KindValueObject:
			model.ValueObjects = entries
		case intent.KindEntity:
			model.Entities = entries
		case intent.KindAggregate:
			model.Aggregates = entries
		case intent.KindSnapshot:
			model.Snapshots = entries
		case intent.KindEvent:
			model.Events = entries
		case intent.KindRepository:
			model.Repositories = entries
		case intent.KindCollection:
			model.Collections = entries
		}
	}

	return model, nil
}

func buildEntries(raw interface{}, kind intent.Kind, stageName string) ([]intent.Entry, *diagnostic.Diagnostic) {
	entries := make([]intent.Entry, 0)
	items, ok := raw.([]interface{})
	if !ok {
		return entries, nil
	}
	for _, item := range items {
		m, ok := item.(map[string]interface{})
		if !ok {
			return nil, intentViolation(stageName, "DX-DIM-003", fmt.Sprintf("%s entry must be a mapping", kind))
		}
		name, _ := m["name"].(string)
		if name == "" {
			return nil, intentViolation(stageName, "DX-DIM-004", fmt.Sprintf("%s entry missing name", kind))
		}
		fields := buildFields(m["fields"])
		entries = append(entries, intent.Entry{
			Kind:   kind,
			Name:   strings.TrimSpace(name),
			Fields: fields,
		})
	}
	return entries, nil
}

func buildFields(raw interface{}) []intent.Field {
	items, ok := raw.([]interface{})
	if !ok {
		return nil
	}
	fields := make([]intent.Field, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		name, _ := m["name"].(string)
		typ, _ := m["type"].(string)
		fields = append(fields, intent.Field{
			Name: strings.TrimSpace(name),
			Type: strings.TrimSpace(typ),
		})
	}
	return fields
}

func asStringMap(raw interface{}) map[string]string {
	out := map[string]string{}
	m, ok := raw.(map[string]interface{})
	if !ok {
		return out
	}
	for k, v := range m {
		out[k] = fmt.Sprintf("%v", v)
	}
	return out
}

// renderCanonical serializes the Model into the canonical byte form: sorted
// keys, no insignificant whitespace, stable number formatting, Unix line
// endings.
func renderCanonical(model *intent.Model) ([]byte, error) {
	tree := map[string]interface{}{
		"modelVersion": model.ModelVersion,
		"metadata":     mapToOrdered(model.Metadata),
	}
	for _, kf := range entryKindFields {
		var entries []intent.Entry
		switch kf.Kind {
		case intent.KindValueObject:
			entries = model.ValueObjects
		case intent.KindEntity:
			entries = model.Entities
		case intent.KindAggregate:
			entries = model.Aggregates
		case intent.KindSnapshot:
			entries = model.Snapshots
		case intent.KindEvent:
			entries = model.Events
		case intent.KindRepository:
			entries = model.Repositories
		case intent.KindCollection:
			entries = model.Collections
		}
		tree[kf.Key] = entriesToOrdered(entries)
	}

	canonical := canonicalizeValue(tree)
	body, err := json.Marshal(canonical)
	if err != nil {
		return nil, err
	}
	return append(body, '\n'), nil
}

func mapToOrdered(m intent.Map) map[string]interface{} {
	out := map[string]interface{}{}
	for _, k := range m.Keys() {
		v, _ := m.Get(k)
		out[k] = valueToPlain(v)
	}
	return out
}

func valueToPlain(v intent.Value) interface{} {
	b, err := v.AsJSON()
	if err != nil {
		return nil
	}
	var out interface{}
	_ = json.Unmarshal(b, &out)
	return out
}

func entriesToOrdered(entries []intent.Entry) []interface{} {
	out := make([]interface{}, 0, len(entries))
	for _, e := range entries {
		fields := make([]interface{}, 0, len(e.Fields))
		for _, f := range e.Fields {
			fields = append(fields, map[string]interface{}{
				"name": f.Name,
				"type": f.Type,
			})
		}
		out = append(out, map[string]interface{}{
			"name":   e.Name,
			"fields": fields,
		})
	}
	return out
}

// canonicalizeValue recursively sorts map keys; arrays retain order. Ported
// from the teacher's pkg/commitment.canonicalizeValue.
func canonicalizeValue(v interface{}) interface{} {
	switch vv := v.(type) {
	case map[string]interface{}:
		keys := make([]string, 0, len(vv))
		for k := range vv {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		ordered := make(map[string]interface{}, len(vv))
		for _, k := range keys {
			ordered[k] = canonicalizeValue(vv[k])
		}
		return ordered
	case []interface{}:
		out := make([]interface{}, len(vv))
		for i, e := range vv {
			out[i] = canonicalizeValue(e)
		}
		return out
	case float64:
		// Stable number formatting: render without exponent noise by
		// round-tripping through strconv when the value is integral.
		if vv == float64(int64(vv)) {
			return json.Number(strconv.FormatInt(int64(vv), 10))
		}
		return vv
	default:
		return vv
	}
}

func intentViolation(stageName, code, message string) *diagnostic.Diagnostic {
	return diagnostic.New(diagnostic.ClassIntentViolation, code, stageName, "", message)
}

func systemFailure(stageName, message string) *diagnostic.Diagnostic {
	return diagnostic.New(diagnostic.ClassSystem, diagnostic.Code(diagnostic.ClassSystem, 1), stageName, "", message)
}
