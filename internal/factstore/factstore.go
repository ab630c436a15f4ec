// Package factstore implements the Monotonic Fact Store (C3): a key→fact
// map that never overwrites a committed value, only ever adds new keys or
// confirms an identical re-proposal.
//
// Grounded on the teacher's pkg/ledger.LedgerStore (key-layout over a KV,
// JSON marshal/unmarshal into storage) and pkg/kvdb.KVAdapter for the
// backing store; the "never overwrite, detect conflicting re-proposals"
// rule is new to dxcore's domain and is built from spec.md §4.3 directly,
// since the teacher's ledger is append-by-height rather than
// commit-once-per-key.
package factstore

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"dxcore/internal/diagnostic"
	"dxcore/internal/intent"
	"dxcore/internal/kvstore"
	"dxcore/internal/telemetry"
)

// schemaVersionKey is the well-known fact key spec.md §8's "monotonic
// knowledge across stages" property exercises: a later stage proposing a
// different schemaVersion than one already committed is an inference
// failure a human must resolve, not a bare commit-conflict.
const schemaVersionKey = "schemaVersion"

// Fact is one committed key→value pair, tagged with the stage that
// committed it.
type Fact struct {
	Key       string
	Value     intent.Value
	StageName string
}

// Store is the monotonic fact store. Safe for concurrent use.
type Store struct {
	mu    sync.Mutex
	kv    kvstore.KV
	facts map[string]Fact
	tele  telemetry.Counters
}

// New constructs an empty Store over the given KV backend. Pass
// telemetry.Noop{} when no counters are wired.
func New(kv kvstore.KV, tele telemetry.Counters) *Store {
	if tele == nil {
		tele = telemetry.Noop{}
	}
	return &Store{
		kv:    kv,
		facts: make(map[string]Fact),
		tele:  tele,
	}
}

// TryGet returns the committed fact at key, if any. It never blocks on a
// commit in progress longer than the time to acquire the store's lock.
func (s *Store) TryGet(key string) (Fact, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.facts[key]
	return f, ok
}

// Proposal is one key→value pair a stage wants committed.
type Proposal struct {
	Key       string
	Value     intent.Value
	StageName string
}

// AtomicCommit attempts to commit every proposal as a single all-or-nothing
// unit, per spec.md §4.3 step 2: for each key already committed, the
// proposed value must be structurally equal to the committed one or the
// whole commit is rejected; only keys with no prior commit are actually
// written. Returns the list of conflicting keys (empty on success) and, on
// conflict, a diagnostic: inference-failure with a ForSchemaConflict
// resolution request when the schemaVersion key is among the conflicts,
// otherwise system with a resolution request enumerating the keys.
func (s *Store) AtomicCommit(stageName string, proposals []Proposal) ([]string, *diagnostic.Diagnostic) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var conflicts []string
	var schemaConflict *Proposal
	var schemaExisting Fact
	for _, p := range proposals {
		existing, ok := s.facts[p.Key]
		if ok && !intent.Equal(existing.Value, p.Value) {
			conflicts = append(conflicts, p.Key)
			if p.Key == schemaVersionKey && schemaConflict == nil {
				proposal := p
				schemaConflict = &proposal
				schemaExisting = existing
			}
		}
	}

	if len(conflicts) > 0 {
		s.tele.FactConflict(stageName)
		if schemaConflict != nil {
			diag := diagnostic.New(diagnostic.ClassInferenceFailure, diagnostic.Code(diagnostic.ClassInferenceFailure, 1), stageName, "",
				fmt.Sprintf("commit rejected: %s changed between stages", schemaConflict.Key)).
				WithResolution(diagnostic.ForSchemaConflict(schemaConflict.Key, valueString(schemaExisting.Value), valueString(schemaConflict.Value)))
			return conflicts, diag
		}
		diag := diagnostic.New(diagnostic.ClassSystem, diagnostic.Code(diagnostic.ClassSystem, 2), stageName, "",
			fmt.Sprintf("commit rejected: %d conflicting key(s)", len(conflicts))).
			WithResolution(diagnostic.ForConflictingKeys(conflicts))
		return conflicts, diag
	}

	for _, p := range proposals {
		if _, already := s.facts[p.Key]; already {
			continue
		}
		s.facts[p.Key] = Fact{Key: p.Key, Value: p.Value, StageName: stageName}
		if s.kv != nil {
			if raw, err := p.Value.AsJSON(); err == nil {
				_ = s.kv.Set([]byte(p.Key), raw)
			}
		}
	}
	s.tele.FactCommitted(stageName)
	return nil, nil
}

// View is a read-only projection of a Store, passed to running stages
// through stage.Context. It deliberately exposes only TryGet, never key
// enumeration — see spec.md §9's open question on the read-only
// projection's iterator, resolved here as forbidden.
type View struct {
	store *Store
}

// TryGet reads through to the underlying Store.
func (v View) TryGet(key string) (intent.Value, bool) {
	f, ok := v.store.TryGet(key)
	return f.Value, ok
}

// View returns a read-only projection of s.
func (s *Store) View() View {
	return View{store: s}
}

// Snapshot returns a shallow copy of every committed fact, for operator
// diagnostics (see marshalDebug).
func (s *Store) Snapshot() map[string]Fact {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]Fact, len(s.facts))
	for k, v := range s.facts {
		out[k] = v
	}
	return out
}

// marshalDebug renders the store's committed facts as JSON, for operator
// diagnostics; not on any hot path.
func (s *Store) marshalDebug() ([]byte, error) {
	return json.Marshal(s.Snapshot())
}

// valueString renders a Value as a short human-readable string for a
// resolution request's candidate descriptions, stripping the surrounding
// quotes AsJSON adds to a string scalar.
func valueString(v intent.Value) string {
	b, err := v.AsJSON()
	if err != nil {
		return "?"
	}
	return strings.Trim(string(b), `"`)
}
