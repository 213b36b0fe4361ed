// Package types implements the immutable artifacts of the contract schema
// model: the state field declarations, the operation declarations, the
// validation scripts, the assembled schema and the implementation records
// that bind a schema to an interface standard.
//
// The types of this package are values. Once created they never mutate, and
// the aggregates carry a content-addressed identifier computed over their
// canonical fingerprint so that shipping, storing and re-verifying an
// artifact always refer to the exact same content.
package types

import "fmt"

// Digest defines the result of a fingerprint. It expects a digest of 256
// bits.
type Digest [32]byte

func (d Digest) String() string {
	return fmt.Sprintf("%x", d[:])[:8]
}

// Bytes returns the slice of bytes of the digest.
func (d Digest) Bytes() []byte {
	return d[:]
}

// Hex returns the full hexadecimal representation of the digest.
func (d Digest) Hex() string {
	return fmt.Sprintf("%x", d[:])
}
