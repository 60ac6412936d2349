package formflow

import (
	"sync/atomic"
)

// RequestContext carries the journey-related state of a single inbound
// request.
//
// Its lifetime is exactly one request; it must be built when the request
// arrives and discarded when the response is sent, never shared across
// requests.
type RequestContext struct {
	// JourneyName is the name of the journey attached to the request's
	// matched handler, or empty if the handler declares no journey metadata.
	JourneyName string

	// Data is the read-only key/value view of the request, built from its
	// route values merged with its query string.
	Data *RequestData

	instance atomic.Pointer[Instance]
}

// cachedInstance returns the instance already resolved for this request, if
// any.
func (c *RequestContext) cachedInstance() *Instance {
	return c.instance.Load()
}

// cacheInstance caches inst for the remainder of the request.
//
// Concurrent callers racing to populate the cache all converge on the single
// instance that won the race: the slot is populated with an insert-if-absent
// followed by a re-read, so two divergent in-memory copies are never observed
// through the cache. Which racer wins is best-effort, not linearizable.
func (c *RequestContext) cacheInstance(inst *Instance) *Instance {
	if c.instance.CompareAndSwap(nil, inst) {
		return inst
	}

	return c.instance.Load()
}
