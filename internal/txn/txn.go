// Package txn implements the Stage Transaction (C4): the single-owner,
// single-thread staging buffer a stage writes proposals into before the
// orchestrator attempts to commit them to the Fact Store.
//
// Grounded on the teacher's pkg/ledger.LedgerStore in spirit (stage,
// then persist), adapted to dxcore's propose/getCommitted/snapshot
// lifecycle, since the teacher itself has no transaction-scoped staging
// concept — ledger writes commit immediately.
package txn

import (
	"fmt"
	"sort"

	"dxcore/internal/factstore"
	"dxcore/internal/intent"
)

// Transaction is a stage's private view onto the Fact Store: reads see
// already-committed facts; writes accumulate in a staging buffer until the
// orchestrator calls Snapshot to collect them for AtomicCommit.
//
// A Transaction is not safe for concurrent use — spec.md §4.4 assigns
// exactly one stage, running on exactly one goroutine, per Transaction.
type Transaction struct {
	store   *factstore.Store
	staged  map[string]intent.Value
	order   []string
	stage   string
	disposed bool
}

// New opens a Transaction scoped to a single stage's execution.
func New(store *factstore.Store, stageName string) *Transaction {
	return &Transaction{
		store:  store,
		staged: make(map[string]intent.Value),
		stage:  stageName,
	}
}

// GetCommitted reads a fact already committed to the backing Fact Store.
// It never sees this transaction's own uncommitted proposals.
func (t *Transaction) GetCommitted(key string) (intent.Value, bool) {
	t.mustBeOpen()
	f, ok := t.store.TryGet(key)
	if !ok {
		return nil, false
	}
	return f.Value, true
}

// ErrConflictingProposal is returned by Propose when key is already staged
// in this transaction with a value that is not structurally equal to the
// one being proposed now.
var ErrConflictingProposal = fmt.Errorf("txn: conflicting-proposal")

// Propose stages a key→value write. The staging buffer is monotonic, the
// same as the Fact Store it feeds: proposing a key that is not yet staged
// always succeeds; re-proposing an already-staged key succeeds as a no-op
// when the new value is structurally equal to the staged one, and fails
// with ErrConflictingProposal when it is not, per spec.md §4.4.
func (t *Transaction) Propose(key string, value intent.Value) error {
	t.mustBeOpen()
	existing, already := t.staged[key]
	if !already {
		t.order = append(t.order, key)
		t.staged[key] = value
		return nil
	}
	if intent.Equal(existing, value) {
		return nil
	}
	return ErrConflictingProposal
}

// Snapshot returns the staged proposals in ordinal (byte-wise) key order,
// without committing them.
func (t *Transaction) Snapshot() []factstore.Proposal {
	t.mustBeOpen()
	keys := append([]string(nil), t.order...)
	sort.Strings(keys)
	out := make([]factstore.Proposal, 0, len(keys))
	for _, k := range keys {
		out = append(out, factstore.Proposal{Key: k, Value: t.staged[k], StageName: t.stage})
	}
	return out
}

// Dispose releases the transaction. After Dispose, GetCommitted, Propose
// and Snapshot panic — the orchestrator calls Dispose once a stage's
// execution has failed or its commit has been attempted (successful or
// rejected), so a disposed-transaction access is always a programming
// error in the orchestrator itself.
func (t *Transaction) Dispose() {
	t.disposed = true
	t.staged = nil
	t.order = nil
}

func (t *Transaction) mustBeOpen() {
	if t.disposed {
		panic(fmt.Sprintf("txn: use of disposed transaction for stage %q", t.stage))
	}
}
