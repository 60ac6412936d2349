// Package formflow manages the identity, state and lifecycle of multi-step
// "journey" (wizard-style) interactions on behalf of web request handlers.
//
// A journey type is described by a Descriptor, registered once at startup. On
// each request a Provider derives an InstanceID from the request's route and
// query data, resolves the matching persisted entry through a
// persistence.Store, and wraps it in a lifecycle-aware Instance that gates all
// further mutation.
package formflow

import (
	"reflect"

	"github.com/dogmatiq/dodeca/logging"
	"github.com/dogmatiq/marshalkit"
	"github.com/dogmatiq/marshalkit/codec"
	"github.com/dogmatiq/marshalkit/codec/json"
)

// UniqueKeyName is the reserved request data key that carries an instance's
// unique token.
//
// It must not appear in any descriptor's dependent keys.
const UniqueKeyName = "uniqueKey"

// DefaultLogger is the default target for log messages produced by a Provider.
var DefaultLogger = logging.DefaultLogger

// NewMarshaler returns a marshaler that encodes journey state payloads of the
// given types using JSON.
//
// Every state type used by a registered journey must be known to the
// provider's marshaler before the first request referencing that journey
// arrives; the marshaler doubles as the type registry used to reconstruct
// state payloads from their persisted type tags.
func NewMarshaler(types ...reflect.Type) (marshalkit.Marshaler, error) {
	return codec.NewMarshaler(
		types,
		[]codec.Codec{
			&json.Codec{},
		},
	)
}
