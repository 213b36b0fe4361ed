// Package crypto defines the cryptographic primitives needed to produce and
// verify the contract schema artifacts: hash factories for the
// content-addressed identifiers and signature schemes for the developer
// signatures of shipped bundles.
package crypto

import (
	"encoding"
	"hash"
)

// HashFactory is an interface to produce a hash digest.
type HashFactory interface {
	New() hash.Hash
}

// PublicKey is a public identity that can be used to verify a signature.
type PublicKey interface {
	encoding.BinaryMarshaler

	// Verify returns nil if the signature matches the message for this public
	// key.
	Verify(msg []byte, signature Signature) error

	// Equal returns true when both public keys are equal.
	Equal(other PublicKey) bool
}

// Signature is a verifiable element for a unique message.
type Signature interface {
	encoding.BinaryMarshaler

	// Equal returns true when both signatures are equal.
	Equal(other Signature) bool
}

// Signer provides the primitives to sign a message.
type Signer interface {
	// GetPublicKey returns the public key of the signer.
	GetPublicKey() PublicKey

	// Sign returns a signature of the message that the public key of the
	// signer will accept.
	Sign(msg []byte) (Signature, error)
}
