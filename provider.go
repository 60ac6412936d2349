package formflow

import (
	"context"
	"reflect"

	"github.com/dogmatiq/dodeca/logging"
	"github.com/dogmatiq/marshalkit"
	"github.com/google/uuid"
	"github.com/gunndabad/formflow-sub000/persistence"
)

// Provider resolves, creates and caches journey instances for inbound
// requests.
//
// A provider owns no per-request state of its own; everything scoped to a
// request lives on the RequestContext passed to each operation.
type Provider struct {
	store     persistence.Store
	marshaler marshalkit.Marshaler
	registry  *Registry
	logger    logging.Logger
	newToken  func() string
}

// New returns a provider that persists journey instances via the given store.
//
// The marshaler must know every state type used by the journeys that will be
// registered with the provider; see NewMarshaler().
func New(
	s persistence.Store,
	m marshalkit.Marshaler,
	options ...ProviderOption,
) *Provider {
	p := &Provider{
		store:     s,
		marshaler: m,
		registry:  &Registry{},
		logger:    DefaultLogger,
		newToken:  uuid.NewString,
	}

	for _, opt := range options {
		opt(p)
	}

	if p.logger == nil {
		p.logger = DefaultLogger
	}

	return p
}

// Register adds a journey descriptor to the provider's registry.
func (p *Provider) Register(d Descriptor) error {
	return p.registry.Register(d)
}

// ResolveDescriptor returns the descriptor for the journey attached to the
// current request's handler.
//
// If the handler declares no journey metadata, it returns ErrNoJourneyMetadata
// when required is true, or ok == false otherwise. Metadata naming an
// unregistered journey is always an error, regardless of required; a missing
// registry entry is a configuration bug, never silently tolerated.
func (p *Provider) ResolveDescriptor(
	rctx *RequestContext,
	required bool,
) (_ Descriptor, ok bool, _ error) {
	if rctx == nil {
		return Descriptor{}, false, ErrNoRequestContext
	}

	if rctx.JourneyName == "" {
		if required {
			return Descriptor{}, false, ErrNoJourneyMetadata
		}

		return Descriptor{}, false, nil
	}

	d, ok := p.registry.Get(rctx.JourneyName)
	if !ok {
		return Descriptor{}, false, UnknownJourneyError{
			Name: rctx.JourneyName,
		}
	}

	return d, true, nil
}

// TryResolveExistingInstance locates the existing instance that satisfies the
// current request's identity, if there is one.
//
// A miss of any kind - no journey metadata, identity not present in the
// request data, no persisted entry, or an entry that does not belong to this
// journey - yields ok == false, never an error. A stale or foreign identifier
// is commonly the result of query string tampering or cross-journey link
// reuse and must be treated as absent.
//
// The result is cached on rctx; subsequent calls within the same request
// return the same instance without consulting the store.
func (p *Provider) TryResolveExistingInstance(
	ctx context.Context,
	rctx *RequestContext,
) (_ *Instance, ok bool, _ error) {
	if rctx == nil {
		return nil, false, ErrNoRequestContext
	}

	if inst := rctx.cachedInstance(); inst != nil {
		return inst, true, nil
	}

	d, ok, err := p.ResolveDescriptor(rctx, false)
	if !ok || err != nil {
		return nil, false, err
	}

	id, ok := ResolveInstanceID(d, rctx.Data)
	if !ok {
		return nil, false, nil
	}

	e, ok, err := p.store.LoadInstance(ctx, id.String())
	if !ok || err != nil {
		return nil, false, err
	}

	inst, err := p.validateEntry(d, id, e)
	if err != nil {
		return nil, false, err
	}
	if inst == nil {
		return nil, false, nil
	}

	inst = rctx.cacheInstance(inst)

	logging.Debug(
		p.logger,
		"resolved existing instance of the '%s' journey: %s",
		d.Name,
		id,
	)

	return inst, true, nil
}

// CreateInstance creates, persists and caches a new instance of the journey
// attached to the current request's handler.
//
// A fresh identifier is minted, including a fresh unique token if the journey
// requires one; the caller is responsible for propagating the new token (for
// example, by embedding the identifier in a follow-up redirect), otherwise
// the new instance is unreachable by subsequent requests.
func (p *Provider) CreateInstance(
	ctx context.Context,
	rctx *RequestContext,
	state interface{},
	properties map[string]string,
) (*Instance, error) {
	if rctx == nil {
		return nil, ErrNoRequestContext
	}

	d, _, err := p.ResolveDescriptor(rctx, true)
	if err != nil {
		return nil, err
	}

	if t := reflect.TypeOf(state); t != d.StateType {
		return nil, IncompatibleStateTypeError{
			Requested: typeName(t),
			Declared:  typeName(d.StateType),
		}
	}

	id, err := newInstanceID(d, rctx.Data, p.newToken())
	if err != nil {
		return nil, err
	}

	key := id.String()

	// Freshly minted identifiers should never collide, but an existing entry
	// under the same key would otherwise be silently overwritten, so check
	// anyway. There is no transactional guarantee between this check and the
	// create below; see the store contract.
	if _, ok, err := p.store.LoadInstance(ctx, key); err != nil {
		return nil, err
	} else if ok {
		return nil, persistence.AlreadyExistsError{Key: key}
	}

	packet, err := p.marshaler.Marshal(state)
	if err != nil {
		return nil, err
	}

	stateType, err := p.marshaler.MarshalType(d.StateType)
	if err != nil {
		return nil, err
	}

	props := make(map[string]string, len(properties))
	for k, v := range properties {
		props[k] = v
	}

	err = p.store.CreateInstance(
		ctx,
		persistence.Entry{
			JourneyName: d.Name,
			Key:         key,
			StateType:   stateType,
			State:       packet,
			Properties:  props,
		},
	)
	if err != nil {
		return nil, err
	}

	inst := &Instance{
		journeyName: d.Name,
		id:          id,
		stateType:   d.StateType,
		properties:  props,
		store:       p.store,
		marshaler:   p.marshaler,
		state:       state,
	}

	rctx.cacheInstance(inst)

	logging.Log(
		p.logger,
		"created instance of the '%s' journey: %s",
		d.Name,
		id,
	)

	return inst, nil
}

// GetOrCreateInstance returns the existing instance satisfying the current
// request's identity, or creates a new one if there is none.
//
// newState is invoked at most once per resolution, and only when no existing
// instance is found.
func (p *Provider) GetOrCreateInstance(
	ctx context.Context,
	rctx *RequestContext,
	newState func(ctx context.Context) (interface{}, error),
	properties map[string]string,
) (*Instance, error) {
	inst, ok, err := p.TryResolveExistingInstance(ctx, rctx)
	if err != nil {
		return nil, err
	}
	if ok {
		return inst, nil
	}

	state, err := newState(ctx)
	if err != nil {
		return nil, err
	}

	return p.CreateInstance(ctx, rctx, state, properties)
}

// IsCurrentInstance returns true if the instance satisfying the current
// request's identity is the one identified by id.
//
// It is typically used after CreateInstance() to detect that the new
// instance's identifier (carrying a freshly minted unique token) differs from
// the identity the inbound request arrived with, and that a redirect is
// therefore required.
func (p *Provider) IsCurrentInstance(
	ctx context.Context,
	rctx *RequestContext,
	id InstanceID,
) (bool, error) {
	inst, ok, err := p.TryResolveExistingInstance(ctx, rctx)
	if !ok || err != nil {
		return false, err
	}

	return inst.InstanceID().Equal(id), nil
}

// validateEntry checks that a loaded entry actually belongs to the journey
// being resolved, and reconstitutes it as an Instance.
//
// A mismatched journey name or state type yields a nil instance and no error;
// such entries are treated as absent.
func (p *Provider) validateEntry(
	d Descriptor,
	id InstanceID,
	e persistence.Entry,
) (*Instance, error) {
	if e.JourneyName != d.Name {
		return nil, nil
	}

	stateType, err := p.marshaler.MarshalType(d.StateType)
	if err != nil {
		return nil, err
	}

	if e.StateType != stateType {
		if logging.IsDebug(p.logger) {
			logging.Debug(
				p.logger,
				"ignoring entry for '%s': persisted state type '%s' does not match declared type '%s'",
				e.Key,
				e.StateType,
				stateType,
			)
		}

		return nil, nil
	}

	state, err := p.marshaler.Unmarshal(e.State)
	if err != nil {
		return nil, err
	}

	return &Instance{
		journeyName: e.JourneyName,
		id:          id,
		stateType:   d.StateType,
		properties:  e.Properties,
		store:       p.store,
		marshaler:   p.marshaler,
		state:       state,
		completed:   e.Completed,
	}, nil
}
