// Package docfmt converts parsed oracle text documents into an
// identity-free canonical form with a stable binary encoding.
//
// Two documents are structurally identical exactly when their canonical forms
// are equal, which is what makes the encoding usable as a fingerprint: the
// same text always parses to the same bytes.
package docfmt

import (
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/go-cmp/cmp"
	"golang.org/x/crypto/blake2b"

	"github.com/opal-lang/oracle/core/invariant"
	"github.com/opal-lang/oracle/core/tree"
	"github.com/opal-lang/oracle/runtime/parser"
)

// FormatVersion is the canonical format version written by Encode.
const FormatVersion uint8 = 1

// ErrUnsupportedVersion is returned by Decode for data written by a different
// format version.
var ErrUnsupportedVersion = errors.New("unsupported canonical format version")

// CanonicalDoc is the intermediate form for deterministic hashing.
type CanonicalDoc struct {
	Version uint8         `cbor:"1,keyasint"`
	Root    CanonicalNode `cbor:"2,keyasint"`
}

// CanonicalNode is a node with its children inlined. Node identity (arena
// indices) is dropped; only kind, value and order remain.
type CanonicalNode struct {
	Kind     parser.NodeKind `cbor:"1,keyasint"`
	Value    string          `cbor:"2,keyasint,omitempty"`
	Children []CanonicalNode `cbor:"3,keyasint,omitempty"`
}

// Canonicalize converts doc into canonical form. doc must hold a valid tree.
func Canonicalize(doc *parser.Document) *CanonicalDoc {
	// Same frame-stack fold the renderers use: one frame of finished children
	// per open node.
	frames := [][]CanonicalNode{nil}
	for ev := range doc.Walk().Events() {
		if ev.Entering {
			frames = append(frames, nil)
			continue
		}

		children := frames[len(frames)-1]
		frames = frames[:len(frames)-1]

		n := doc.Node(ev.Node)
		top := len(frames) - 1
		frames[top] = append(frames[top], CanonicalNode{Kind: n.Kind, Value: n.Value, Children: children})
	}

	invariant.Postcondition(len(frames) == 1 && len(frames[0]) == 1,
		"canonical fold must end with exactly one root, got %d frames", len(frames))

	return &CanonicalDoc{Version: FormatVersion, Root: frames[0][0]}
}

// MarshalBinary produces deterministic CBOR encoding of the canonical document.
func (cd *CanonicalDoc) MarshalBinary() ([]byte, error) {
	encMode, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		return nil, fmt.Errorf("failed to create CBOR encoder: %w", err)
	}

	// Alias so the encoder does not call MarshalBinary again
	type canonicalDocAlias CanonicalDoc
	data, err := encMode.Marshal((*canonicalDocAlias)(cd))
	if err != nil {
		return nil, fmt.Errorf("CBOR encoding failed: %w", err)
	}
	return data, nil
}

// Encode returns the canonical CBOR encoding of doc.
func Encode(doc *parser.Document) ([]byte, error) {
	return Canonicalize(doc).MarshalBinary()
}

// Decode parses a canonical encoding produced by Encode.
func Decode(data []byte) (*CanonicalDoc, error) {
	type canonicalDocAlias CanonicalDoc
	var alias canonicalDocAlias
	if err := cbor.Unmarshal(data, &alias); err != nil {
		return nil, fmt.Errorf("CBOR decoding failed: %w", err)
	}
	if alias.Version != FormatVersion {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrUnsupportedVersion, alias.Version, FormatVersion)
	}
	cd := CanonicalDoc(alias)
	return &cd, nil
}

// Fingerprint returns the BLAKE2b-256 digest of the canonical encoding as
// "blake2b:<hex>".
func Fingerprint(doc *parser.Document) (string, error) {
	data, err := Encode(doc)
	if err != nil {
		return "", fmt.Errorf("failed to encode document for fingerprint: %w", err)
	}
	return fmt.Sprintf("blake2b:%x", blake2b.Sum256(data)), nil
}

// Equal reports whether a and b are structurally identical: same node kinds,
// values and child order, regardless of how their arenas are laid out.
func Equal(a, b *parser.Document) bool {
	return cmp.Equal(Canonicalize(a), Canonicalize(b))
}

// Diff returns a human-readable structural diff (-a +b), or "" when Equal.
func Diff(a, b *parser.Document) string {
	return cmp.Diff(Canonicalize(a), Canonicalize(b))
}

// Document rebuilds a parser document from canonical form. The result has no
// source text or tokens.
func (cd *CanonicalDoc) Document() *parser.Document {
	t := tree.New[parser.Node]()

	var build func(cn CanonicalNode) tree.NodeID
	build = func(cn CanonicalNode) tree.NodeID {
		id := t.NewNode(parser.Node{Kind: cn.Kind, Value: cn.Value})
		for _, child := range cn.Children {
			t.AppendChild(id, build(child))
		}
		return id
	}

	return &parser.Document{Tree: t, Root: build(cd.Root)}
}
