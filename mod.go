// Package crest defines a toolkit to declare, assemble and bind
// client-side-validated contract schemata.
//
// A schema is the formal definition of a contract family: the semantic types
// of its state, the state fields a contract of that family may hold, the
// operations allowed to transform that state and the validation scripts that
// every operation must satisfy. Once assembled, a schema is immutable and
// identified by the digest of its canonical encoding, so that independent
// parties can verify that they talk about the very same definition.
package crest

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

var logout = zerolog.ConsoleWriter{
	Out:        os.Stdout,
	TimeFormat: time.RFC3339,
}

// Logger is a globally available logger instance.
var Logger = zerolog.New(logout).
	With().Timestamp().Logger().
	With().Caller().Logger().
	Level(zerolog.InfoLevel)
