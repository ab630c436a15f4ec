// Package fingerprint implements the Fingerprint component (C2): a pure,
// total function from a stage's canonicalized inputs to a stable content
// identifier.
//
// Grounded on the teacher's pkg/commitment.HashConcat / SHA256Hex
// (pkg/commitment/commitment.go), which hashes the concatenation of several
// canonical byte strings rather than hashing each independently and
// combining digests.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
)

// Fingerprint is a lowercase hex-encoded SHA-256 digest with no separators.
type Fingerprint string

// Inputs bundles the canonicalized byte forms a stage's fingerprint is
// computed over, per spec.md §4.2 and §4.7's cache-key formula
// H(input-fingerprint ‖ stage-name ‖ stage-version ‖ policy-versions).
// PolicyVersions is distinct from Policies: Policies are the policy
// documents' own canonical bytes (so a content edit changes the
// fingerprint even if the declared version string didn't change yet);
// PolicyVersions are the declared version identifiers, folded in
// separately so a bare version bump invalidates the cache even when a
// policy's content bytes are not reproduced byte-for-byte at fingerprint
// time.
type Inputs struct {
	Intent           []byte
	Manifest         []byte
	Policies         [][]byte
	PolicyVersions   []string
	GeneratorVersion string
	StageName        string
}

// Compute derives a Fingerprint from Inputs. It is pure: the same Inputs
// always yield the same Fingerprint, on any host, in any process. It has no
// failure mode — every byte slice, including nil or empty, is a valid
// input.
func Compute(in Inputs) Fingerprint {
	h := sha256.New()
	writeFramed(h, []byte(in.StageName))
	writeFramed(h, []byte(in.GeneratorVersion))
	writeFramed(h, in.Intent)
	writeFramed(h, in.Manifest)
	for _, p := range in.Policies {
		writeFramed(h, p)
	}
	for _, v := range in.PolicyVersions {
		writeFramed(h, []byte(v))
	}
	return Fingerprint(hex.EncodeToString(h.Sum(nil)))
}

// writeFramed feeds a length-prefixed frame into the hash so that
// concatenation ambiguity (e.g. ["ab","c"] vs ["a","bc"]) cannot collide.
func writeFramed(h interface{ Write([]byte) (int, error) }, b []byte) {
	var lenBuf [8]byte
	n := uint64(len(b))
	for i := 0; i < 8; i++ {
		lenBuf[i] = byte(n >> (8 * (7 - i)))
	}
	_, _ = h.Write(lenBuf[:])
	_, _ = h.Write(b)
}

// String implements fmt.Stringer.
func (f Fingerprint) String() string { return string(f) }
