// Package serde defines the primitives to serialize and deserialize (serde)
// the contract schema artifacts.
//
// A data model implements the Message interface so that it can serialize
// itself in the format of the context, and provides a factory to instantiate
// the model from raw bytes. The actual encoding is delegated to a format
// engine registered for the pair of message and format, which allows the
// artifacts to support multiple wire formats without touching the model.
//
// Artifacts that participate in content addressing additionally implement the
// Fingerprinter interface to write a deterministic binary representation of
// themselves, which is the only input of their digest.
package serde

import "io"

// Message is the interface that a data model should implement to be
// serialized.
type Message interface {
	// Serialize returns the bytes of the message according to the context.
	Serialize(ctx Context) ([]byte, error)
}

// Factory is the interface to implement to instantiate a data model from raw
// bytes.
type Factory interface {
	// Deserialize returns the message instantiated from the data.
	Deserialize(ctx Context, data []byte) (Message, error)
}

// Fingerprinter is an interface to write a deterministic binary
// representation of a data model into a writer. Two values with the same
// content must write the very same bytes.
type Fingerprinter interface {
	Fingerprint(writer io.Writer) error
}

// Format is the identifier of a serialization format.
type Format string

const (
	// FormatJSON is the identifier of the JSON format.
	FormatJSON Format = "JSON"
)

// FormatEngine is the interface to implement to encode and decode a specific
// message in a specific format.
type FormatEngine interface {
	// Encode returns the bytes of the message in the format of the engine.
	Encode(ctx Context, message Message) ([]byte, error)

	// Decode returns the message instantiated from the data in the format of
	// the engine.
	Decode(ctx Context, data []byte) (Message, error)
}
