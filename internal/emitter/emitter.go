// Package emitter implements the Signed Emitter (C8): two-phase artifact
// construction — generate the body, normalize it, hash it, then prepend a
// single-line provenance header that is itself excluded from the hash.
//
// Grounded on the teacher's pkg/anchor_proof.Builder (chained With*()
// methods culminating in Build()/validate()) for the construction pattern,
// and pkg/commitment.SHA256Hex/HashBytes for the hashing step.
package emitter

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"dxcore/internal/diagnostic"
)

// Artifact is a generated file body prefixed with a provenance header.
type Artifact struct {
	Header string
	Body   []byte
	Hash   string
}

// Bytes renders the full artifact: the provenance header line followed by
// the (already line-ending-normalized) body.
func (a Artifact) Bytes() []byte {
	var buf bytes.Buffer
	buf.WriteString(a.Header)
	buf.WriteByte('\n')
	buf.Write(a.Body)
	return buf.Bytes()
}

// provenanceMarker is the stable marker token that opens every provenance
// header line. spec.md §9 leaves the header's overall serialization style
// (prefix comment vs. a structured record serialized separately) an open
// question; dxcore resolves it as a single comment-line preamble, and this
// token is what makes that line recognizable without parsing the
// key=value pairs first.
const provenanceMarker = "// dxcore:provenance"

// Builder assembles an Artifact through the teacher's chained With*()
// idiom. Phase A (WithBody) and Phase B (Build: hash, header prepend) are kept as
// distinct steps so the hash is always computed over exactly the
// normalized body, never over a header-containing buffer.
type Builder struct {
	generatorName    string
	generatorVersion string
	model            string
	template         string
	fingerprint      string
	body             []byte
	err              error
}

// NewBuilder starts an artifact build for the named generator.
func NewBuilder(generatorName, generatorVersion string) *Builder {
	return &Builder{generatorName: generatorName, generatorVersion: generatorVersion}
}

// WithFingerprint records the input fingerprint the provenance header
// cites.
func (b *Builder) WithFingerprint(fp string) *Builder {
	b.fingerprint = fp
	return b
}

// WithModel records the model version the provenance header cites.
func (b *Builder) WithModel(version string) *Builder {
	b.model = version
	return b
}

// WithTemplate records the template version the provenance header cites.
func (b *Builder) WithTemplate(version string) *Builder {
	b.template = version
	return b
}

// WithBody sets the artifact's generated body (Phase A), normalizing line
// endings to "\n" before storing it so Phase B's hash is computed over a
// canonical byte sequence regardless of the generator's own line-ending
// habits.
func (b *Builder) WithBody(body []byte) *Builder {
	b.body = normalizeLineEndings(body)
	return b
}

// Build runs Phase B: hash the normalized body, then render the single
// comment-line provenance header that is the authoritative format per
// spec.md §9's resolved open question, and assemble the final Artifact.
func (b *Builder) Build() (*Artifact, *diagnostic.Diagnostic) {
	if b.err != nil {
		return nil, diagnostic.New(diagnostic.ClassSystem, diagnostic.Code(diagnostic.ClassSystem, 3), b.generatorName, b.fingerprint, b.err.Error())
	}
	if err := b.validate(); err != nil {
		return nil, diagnostic.New(diagnostic.ClassSystem, diagnostic.Code(diagnostic.ClassSystem, 4), b.generatorName, b.fingerprint, err.Error())
	}

	sum := sha256.Sum256(b.body)
	hash := hex.EncodeToString(sum[:])

	// Bit-exact per spec.md §6: a single comment-style line beginning
	// with the stable marker token, then key=value pairs in this exact
	// order, joined by "; ".
	header := fmt.Sprintf("%s generator=%s; model=%s; template=%s; fingerprint=%s; content-hash=%s",
		provenanceMarker, b.generatorName, b.model, b.template, b.fingerprint, hash)

	return &Artifact{Header: header, Body: b.body, Hash: hash}, nil
}

func (b *Builder) validate() error {
	if b.generatorName == "" {
		return fmt.Errorf("emitter: generator name is required")
	}
	if b.model == "" {
		return fmt.Errorf("emitter: model version is required")
	}
	if b.template == "" {
		return fmt.Errorf("emitter: template version is required")
	}
	if b.fingerprint == "" {
		return fmt.Errorf("emitter: fingerprint is required")
	}
	if b.body == nil {
		return fmt.Errorf("emitter: body is required")
	}
	return nil
}

// normalizeLineEndings rewrites CRLF and bare CR into LF, so the hash in
// Build is stable across a generator that emits either convention.
func normalizeLineEndings(body []byte) []byte {
	body = bytes.ReplaceAll(body, []byte("\r\n"), []byte("\n"))
	body = bytes.ReplaceAll(body, []byte("\r"), []byte("\n"))
	return body
}
