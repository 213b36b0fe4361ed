// Package fake provides fake implementations for the interfaces of the
// module.
//
// The implementations offer the ability to return an error when appropriate
// so that the error paths of the production code can be tested. The package
// also provides a call counter to assert the interactions with the fakes.
package fake

import (
	"encoding/json"
	"hash"
	"io"
	"sync"

	"go.dedis.ch/crest/crypto"
	"go.dedis.ch/crest/serde"
	"golang.org/x/xerrors"
)

// Err is the error used by the bad fakes.
var Err = xerrors.New("fake error")

// Call is a tool to keep track of a function calls.
type Call struct {
	sync.Mutex
	calls [][]interface{}
}

// Get returns the nth call ith parameter.
func (c *Call) Get(n, i int) interface{} {
	c.Lock()
	defer c.Unlock()

	return c.calls[n][i]
}

// Len returns the number of calls.
func (c *Call) Len() int {
	c.Lock()
	defer c.Unlock()

	return len(c.calls)
}

// Add adds a call to the list.
func (c *Call) Add(args ...interface{}) {
	if c == nil {
		return
	}

	c.Lock()
	defer c.Unlock()

	c.calls = append(c.calls, args)
}

// Message is a fake implementation of a serde message.
//
// - implements serde.Message
type Message struct {
	Digest []byte
}

// Serialize implements serde.Message.
func (m Message) Serialize(ctx serde.Context) ([]byte, error) {
	return []byte("fake format"), nil
}

// Fingerprint implements serde.Fingerprinter.
func (m Message) Fingerprint(writer io.Writer) error {
	writer.Write(m.Digest)

	return nil
}

// MessageFactory is a fake implementation of a serde factory.
//
// - implements serde.Factory
type MessageFactory struct {
	err error
}

// NewBadMessageFactory returns a factory that always returns an error.
func NewBadMessageFactory() MessageFactory {
	return MessageFactory{err: Err}
}

// Deserialize implements serde.Factory.
func (f MessageFactory) Deserialize(ctx serde.Context, data []byte) (serde.Message, error) {
	return Message{}, f.err
}

// Format is a fake implementation of a format engine.
//
// - implements serde.FormatEngine
type Format struct {
	err  error
	Msg  serde.Message
	Call *Call
}

// GoodFormat is always working.
var GoodFormat = Format{Msg: Message{}}

// BadFormat always returns an error.
var BadFormat = Format{err: Err}

// NewBadFormat returns a format engine always returning an error.
func NewBadFormat() Format {
	return Format{err: Err}
}

// Encode implements serde.FormatEngine.
func (f Format) Encode(ctx serde.Context, m serde.Message) ([]byte, error) {
	f.Call.Add(ctx, m)

	return []byte(`fake format`), f.err
}

// Decode implements serde.FormatEngine.
func (f Format) Decode(ctx serde.Context, data []byte) (serde.Message, error) {
	f.Call.Add(ctx, data)

	return f.Msg, f.err
}

// ContextEngine is a fake implementation of a serde context engine.
//
// - implements serde.ContextEngine
type ContextEngine struct {
	format serde.Format
	err    error
}

// NewContext returns a fake serde context.
func NewContext() serde.Context {
	return serde.NewContext(ContextEngine{})
}

// NewContextWithFormat returns a fake serde context that answers with the
// given format.
func NewContextWithFormat(f serde.Format) serde.Context {
	return serde.NewContext(ContextEngine{format: f})
}

// NewBadContext returns a fake serde context that produces errors.
func NewBadContext() serde.Context {
	return serde.NewContext(ContextEngine{err: Err})
}

// GetFormat implements serde.ContextEngine.
func (ctx ContextEngine) GetFormat() serde.Format {
	return ctx.format
}

// Marshal implements serde.ContextEngine.
func (ctx ContextEngine) Marshal(m interface{}) ([]byte, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}

	return data, ctx.err
}

// Unmarshal implements serde.ContextEngine.
func (ctx ContextEngine) Unmarshal(data []byte, m interface{}) error {
	if ctx.err != nil {
		return ctx.err
	}

	return json.Unmarshal(data, m)
}

// Hash is a fake implementation of a hash.
//
// - implements hash.Hash
type Hash struct {
	hash.Hash
	delay int
	err   error
	Call  *Call
}

// NewBadHash returns a hash that returns an error when writing.
func NewBadHash() *Hash {
	return &Hash{err: Err}
}

// NewBadHashWithDelay returns a hash that returns an error after a given
// number of writes.
func NewBadHashWithDelay(delay int) *Hash {
	return &Hash{err: Err, delay: delay}
}

// Write implements hash.Hash.
func (h *Hash) Write(in []byte) (int, error) {
	h.Call.Add(in)

	if h.delay > 0 {
		h.delay--
		return len(in), nil
	}

	return 0, h.err
}

// Size implements hash.Hash.
func (h *Hash) Size() int {
	return 32
}

// Sum implements hash.Hash.
func (h *Hash) Sum(in []byte) []byte {
	return make([]byte, 32)
}

// Reset implements hash.Hash.
func (h *Hash) Reset() {}

// HashFactory is a fake implementation of a hash factory.
//
// - implements crypto.HashFactory
type HashFactory struct {
	hash *Hash
}

// NewHashFactory returns a fake hash factory.
func NewHashFactory(h *Hash) HashFactory {
	return HashFactory{hash: h}
}

// New implements crypto.HashFactory.
func (f HashFactory) New() hash.Hash {
	return f.hash
}

// Signature is a fake implementation of a signature.
//
// - implements crypto.Signature
type Signature struct {
	err error
}

// NewBadSignature returns a signature that cannot be marshaled.
func NewBadSignature() Signature {
	return Signature{err: Err}
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (s Signature) MarshalBinary() ([]byte, error) {
	return []byte("fake signature"), s.err
}

// Equal implements crypto.Signature.
func (s Signature) Equal(other crypto.Signature) bool {
	_, ok := other.(Signature)
	return ok
}

// PublicKey is a fake implementation of a public key.
//
// - implements crypto.PublicKey
type PublicKey struct {
	err       error
	verifyErr error
}

// NewBadPublicKey returns a public key that cannot be marshaled.
func NewBadPublicKey() PublicKey {
	return PublicKey{err: Err}
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (pk PublicKey) MarshalBinary() ([]byte, error) {
	return []byte("fake public key"), pk.err
}

// Verify implements crypto.PublicKey.
func (pk PublicKey) Verify(msg []byte, sig crypto.Signature) error {
	return pk.verifyErr
}

// Equal implements crypto.PublicKey.
func (pk PublicKey) Equal(other crypto.PublicKey) bool {
	_, ok := other.(PublicKey)
	return ok
}

// Signer is a fake implementation of a signer.
//
// - implements crypto.Signer
type Signer struct {
	err    error
	pubkey PublicKey
}

// NewSigner returns a fake signer.
func NewSigner() Signer {
	return Signer{}
}

// NewBadSigner returns a signer that fails to sign.
func NewBadSigner() Signer {
	return Signer{err: Err}
}

// GetPublicKey implements crypto.Signer.
func (s Signer) GetPublicKey() crypto.PublicKey {
	return s.pubkey
}

// Sign implements crypto.Signer.
func (s Signer) Sign(msg []byte) (crypto.Signature, error) {
	return Signature{}, s.err
}
