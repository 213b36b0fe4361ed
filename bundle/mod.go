// Package bundle implements the shipping container of schema artifacts.
//
// A bundle wraps the serialized bytes of one artifact together with its kind
// and an optional developer signature. It exists in two forms: a raw binary
// stream for storage, and an ASCII-armored text for distribution in places
// where binary is impractical. The identifier of the contained artifact is
// advertised in the armor header for convenience, but it is never trusted:
// consumers recompute it from the payload.
package bundle

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"os"
	"strings"

	"go.dedis.ch/crest/crypto"
	"go.dedis.ch/crest/crypto/ed25519"
	"go.dedis.ch/crest/schema/types"
	"go.dedis.ch/crest/serde"
	"golang.org/x/xerrors"
)

// Kind is the kind of artifact contained in a bundle.
type Kind byte

const (
	// KindSchema marks a bundle containing a schema.
	KindSchema Kind = iota

	// KindImplementation marks a bundle containing an implementation record.
	KindImplementation
)

func (k Kind) String() string {
	switch k {
	case KindSchema:
		return "SCHEMA"
	case KindImplementation:
		return "IMPLEMENTATION"
	default:
		return "UNKNOWN"
	}
}

var magic = []byte("CRST")

// Bundle is a container of one serialized artifact.
type Bundle struct {
	kind    Kind
	id      types.Digest
	payload []byte
	pubkey  []byte
	sig     []byte
}

// FromSchema returns a bundle containing the schema serialized in the
// context.
func FromSchema(schema types.Schema, ctx serde.Context) (Bundle, error) {
	payload, err := schema.Serialize(ctx)
	if err != nil {
		return Bundle{}, xerrors.Errorf("couldn't serialize schema: %v", err)
	}

	return Bundle{
		kind:    KindSchema,
		id:      schema.GetHash(),
		payload: payload,
	}, nil
}

// FromImplementation returns a bundle containing the implementation record
// serialized in the context.
func FromImplementation(impl types.Implementation, ctx serde.Context) (Bundle, error) {
	payload, err := impl.Serialize(ctx)
	if err != nil {
		return Bundle{}, xerrors.Errorf("couldn't serialize implementation: %v", err)
	}

	return Bundle{
		kind:    KindImplementation,
		id:      impl.GetHash(),
		payload: payload,
	}, nil
}

// GetKind returns the kind of the contained artifact.
func (b Bundle) GetKind() Kind {
	return b.kind
}

// GetID returns the advertised identifier of the contained artifact.
func (b Bundle) GetID() types.Digest {
	return b.id
}

// GetPayload returns a copy of the serialized artifact.
func (b Bundle) GetPayload() []byte {
	return append([]byte{}, b.payload...)
}

// IsSigned returns true when the bundle carries a developer signature.
func (b Bundle) IsSigned() bool {
	return len(b.sig) > 0
}

// Sign returns the bundle with a developer signature over the payload.
func (b Bundle) Sign(signer crypto.Signer) (Bundle, error) {
	sig, err := signer.Sign(b.payload)
	if err != nil {
		return Bundle{}, xerrors.Errorf("couldn't sign: %v", err)
	}

	sigData, err := sig.MarshalBinary()
	if err != nil {
		return Bundle{}, xerrors.Errorf("couldn't marshal signature: %v", err)
	}

	pubkey, err := signer.GetPublicKey().MarshalBinary()
	if err != nil {
		return Bundle{}, xerrors.Errorf("couldn't marshal public key: %v", err)
	}

	b.sig = sigData
	b.pubkey = pubkey

	return b, nil
}

// Verify returns nil when the bundle is unsigned, or when its signature
// matches the payload.
func (b Bundle) Verify() error {
	if !b.IsSigned() {
		return nil
	}

	pubkey, err := ed25519.NewPublicKey(b.pubkey)
	if err != nil {
		return xerrors.Errorf("couldn't parse public key: %v", err)
	}

	err = pubkey.Verify(b.payload, ed25519.NewSignature(b.sig))
	if err != nil {
		return xerrors.Errorf("invalid signature: %v", err)
	}

	return nil
}

// AsSchema decodes the contained schema and verifies that its recomputed
// identifier matches the advertised one.
func (b Bundle) AsSchema(ctx serde.Context) (types.Schema, error) {
	if b.kind != KindSchema {
		return types.Schema{}, xerrors.Errorf("bundle contains a %v", b.kind)
	}

	msg, err := types.SchemaFactory{}.Deserialize(ctx, b.payload)
	if err != nil {
		return types.Schema{}, xerrors.Errorf("couldn't deserialize schema: %v", err)
	}

	schema, ok := msg.(types.Schema)
	if !ok {
		return types.Schema{}, xerrors.Errorf("invalid message of type '%T'", msg)
	}

	if schema.GetHash() != b.id {
		return types.Schema{}, xerrors.Errorf(
			"content mismatch: advertised %v, recomputed %v", b.id, schema.GetHash())
	}

	return schema, nil
}

// AsImplementation decodes the contained implementation record and verifies
// that its recomputed identifier matches the advertised one.
func (b Bundle) AsImplementation(ctx serde.Context) (types.Implementation, error) {
	if b.kind != KindImplementation {
		return types.Implementation{}, xerrors.Errorf("bundle contains a %v", b.kind)
	}

	msg, err := types.ImplementationFactory{}.Deserialize(ctx, b.payload)
	if err != nil {
		return types.Implementation{}, xerrors.Errorf("couldn't deserialize implementation: %v", err)
	}

	impl, ok := msg.(types.Implementation)
	if !ok {
		return types.Implementation{}, xerrors.Errorf("invalid message of type '%T'", msg)
	}

	if impl.GetHash() != b.id {
		return types.Implementation{}, xerrors.Errorf(
			"content mismatch: advertised %v, recomputed %v", b.id, impl.GetHash())
	}

	return impl, nil
}

// Bytes returns the raw binary form of the bundle. The stream starts with a
// magic and the format version tag, followed by the kind, the advertised
// identifier, the payload and the optional signature material.
func (b Bundle) Bytes() []byte {
	buf := new(bytes.Buffer)

	buf.Write(magic)
	buf.WriteByte(types.FormatVersion)
	buf.WriteByte(byte(b.kind))
	buf.Write(b.id.Bytes())

	writeChunk(buf, b.payload)
	writeChunk(buf, b.pubkey)
	writeChunk(buf, b.sig)

	return buf.Bytes()
}

// Decode parses the raw binary form of a bundle.
func Decode(data []byte) (Bundle, error) {
	buf := bytes.NewBuffer(data)

	if buf.Len() < len(magic)+2 {
		return Bundle{}, types.MalformedEncodingError{Reason: "truncated header"}
	}

	head := buf.Next(len(magic) + 2)
	if !bytes.Equal(head[:len(magic)], magic) {
		return Bundle{}, types.MalformedEncodingError{Reason: "bad magic"}
	}

	if head[len(magic)] != types.FormatVersion {
		return Bundle{}, types.MalformedEncodingError{Reason: "unsupported format version"}
	}

	kind := Kind(head[len(magic)+1])
	if kind != KindSchema && kind != KindImplementation {
		return Bundle{}, types.MalformedEncodingError{Reason: "unknown kind"}
	}

	b := Bundle{kind: kind}

	if buf.Len() < len(b.id) {
		return Bundle{}, types.MalformedEncodingError{Reason: "truncated identifier"}
	}

	copy(b.id[:], buf.Next(len(b.id)))

	payload, err := readChunk(buf)
	if err != nil {
		return Bundle{}, err
	}

	pubkey, err := readChunk(buf)
	if err != nil {
		return Bundle{}, err
	}

	sig, err := readChunk(buf)
	if err != nil {
		return Bundle{}, err
	}

	b.payload = payload
	b.pubkey = pubkey
	b.sig = sig

	return b, nil
}

// String returns the ASCII-armored form of the bundle.
func (b Bundle) String() string {
	sb := new(strings.Builder)

	fmt.Fprintf(sb, "-----BEGIN CREST %v-----\n", b.kind)
	fmt.Fprintf(sb, "Id: %s\n\n", b.id.Hex())

	encoded := base64.StdEncoding.EncodeToString(b.Bytes())
	for len(encoded) > 64 {
		sb.WriteString(encoded[:64])
		sb.WriteByte('\n')
		encoded = encoded[64:]
	}
	sb.WriteString(encoded)
	sb.WriteByte('\n')

	fmt.Fprintf(sb, "-----END CREST %v-----\n", b.kind)

	return sb.String()
}

// Parse parses the ASCII-armored form of a bundle. The identifier of the
// header is ignored: the advertised identifier comes from the binary stream
// and the artifact identifier is recomputed from the payload when decoded.
func Parse(text string) (Bundle, error) {
	lines := strings.Split(strings.TrimSpace(text), "\n")

	if len(lines) < 3 || !strings.HasPrefix(lines[0], "-----BEGIN CREST ") {
		return Bundle{}, types.MalformedEncodingError{Reason: "missing armor header"}
	}

	body := new(strings.Builder)

	inBody := false
	for _, line := range lines[1 : len(lines)-1] {
		if line == "" {
			inBody = true
			continue
		}

		if inBody {
			body.WriteString(strings.TrimSpace(line))
		}
	}

	data, err := base64.StdEncoding.DecodeString(body.String())
	if err != nil {
		return Bundle{}, types.MalformedEncodingError{Reason: "invalid armor body"}
	}

	return Decode(data)
}

// Save writes the raw binary form of the bundle to the path.
func (b Bundle) Save(path string) error {
	err := os.WriteFile(path, b.Bytes(), 0644)
	if err != nil {
		return xerrors.Errorf("couldn't write bundle: %v", err)
	}

	return nil
}

// Load reads a bundle from the path, accepting both the raw binary and the
// armored form.
func Load(path string) (Bundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Bundle{}, xerrors.Errorf("couldn't read bundle: %v", err)
	}

	if bytes.HasPrefix(data, []byte("-----BEGIN")) {
		return Parse(string(data))
	}

	return Decode(data)
}

func writeChunk(buf *bytes.Buffer, data []byte) {
	size := make([]byte, 4)
	binary.LittleEndian.PutUint32(size, uint32(len(data)))

	buf.Write(size)
	buf.Write(data)
}

func readChunk(buf *bytes.Buffer) ([]byte, error) {
	if buf.Len() < 4 {
		return nil, types.MalformedEncodingError{Reason: "truncated chunk"}
	}

	size := binary.LittleEndian.Uint32(buf.Next(4))
	if uint32(buf.Len()) < size {
		return nil, types.MalformedEncodingError{Reason: "truncated chunk"}
	}

	if size == 0 {
		return nil, nil
	}

	return append([]byte{}, buf.Next(int(size))...), nil
}
