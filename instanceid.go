package formflow

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

// InstanceID is the canonical, order-sensitive identity of a single journey
// instance.
//
// It is a value type; once constructed it is never modified.
type InstanceID struct {
	journeyName string
	pairs       []idPair
}

type idPair struct {
	key    string
	values []string
}

// NewInstanceID deterministically mints the identifier for a new instance of
// the journey described by d.
//
// Every dependent key declared by d must be present in data, otherwise a
// MissingDependentKeyError is returned. If d requires a unique token a fresh
// one is generated, overriding any token value the request data already
// carried; a new instance always gets a new token so that identity is never
// accidentally reused across distinct instances.
func NewInstanceID(d Descriptor, data *RequestData) (InstanceID, error) {
	return newInstanceID(d, data, uuid.NewString())
}

func newInstanceID(d Descriptor, data *RequestData, token string) (InstanceID, error) {
	pairs := make([]idPair, 0, len(d.DependentKeys)+1)

	for _, k := range d.DependentKeys {
		values, ok := data.Get(k)
		if !ok {
			return InstanceID{}, MissingDependentKeyError{
				JourneyName: d.Name,
				Key:         k,
			}
		}

		pairs = append(pairs, idPair{k, cloneValues(values)})
	}

	if d.RequiresUniqueToken {
		pairs = append(pairs, idPair{UniqueKeyName, []string{token}})
	}

	return InstanceID{d.Name, pairs}, nil
}

// ResolveInstanceID attempts to recover the identifier of an existing
// instance of the journey described by d from the ambient request data.
//
// Unlike NewInstanceID, absence of a dependent key (or of the unique token,
// when d requires one) is not an error; it simply means the request does not
// carry an identity for this journey, and ok is false.
func ResolveInstanceID(d Descriptor, data *RequestData) (_ InstanceID, ok bool) {
	pairs := make([]idPair, 0, len(d.DependentKeys)+1)

	for _, k := range d.DependentKeys {
		values, ok := data.Get(k)
		if !ok {
			return InstanceID{}, false
		}

		pairs = append(pairs, idPair{k, cloneValues(values)})
	}

	if d.RequiresUniqueToken {
		values, ok := data.Get(UniqueKeyName)
		if !ok {
			return InstanceID{}, false
		}

		pairs = append(pairs, idPair{UniqueKeyName, cloneValues(values)})
	}

	return InstanceID{d.Name, pairs}, true
}

// ParseInstanceID parses an identifier from its canonical string form, as
// produced by String().
func ParseInstanceID(s string) (InstanceID, error) {
	name := s
	query := ""

	if i := strings.IndexByte(s, '?'); i != -1 {
		name = s[:i]
		query = s[i+1:]
	}

	name, err := url.QueryUnescape(name)
	if err != nil || name == "" {
		return InstanceID{}, fmt.Errorf("'%s' is not a valid instance identifier", s)
	}

	data, err := ParseRequestData(query)
	if err != nil {
		return InstanceID{}, fmt.Errorf("'%s' is not a valid instance identifier", s)
	}

	pairs := make([]idPair, len(data.pairs))
	for i, p := range data.pairs {
		pairs[i] = idPair{p.key, p.values}
	}

	return InstanceID{name, pairs}, nil
}

// JourneyName returns the name of the journey the identifier belongs to.
func (id InstanceID) JourneyName() string {
	return id.journeyName
}

// UniqueToken returns the identifier's unique token, if it has one.
func (id InstanceID) UniqueToken() (string, bool) {
	for _, p := range id.pairs {
		if p.key == UniqueKeyName && len(p.values) > 0 {
			return p.values[0], true
		}
	}

	return "", false
}

// String returns the canonical serialization of the identifier.
//
// The result is both the persistence key used by the store and the external
// representation embedded in outgoing links, so it must be byte-stable:
// identical identifiers always serialize to identical strings.
func (id InstanceID) String() string {
	var w strings.Builder

	w.WriteString(url.QueryEscape(id.journeyName))

	sep := byte('?')
	for _, p := range id.pairs {
		for _, v := range p.values {
			w.WriteByte(sep)
			sep = '&'

			w.WriteString(p.key)
			w.WriteByte('=')
			w.WriteString(url.QueryEscape(v))
		}
	}

	return w.String()
}

// Equal returns true if id and other identify the same instance.
//
// Equality is order-sensitive: two identifiers with the same key/value pairs
// in a different order are not equal, because their canonical serializations
// differ.
func (id InstanceID) Equal(other InstanceID) bool {
	if id.journeyName != other.journeyName {
		return false
	}

	if len(id.pairs) != len(other.pairs) {
		return false
	}

	for i, p := range id.pairs {
		o := other.pairs[i]

		if p.key != o.key || len(p.values) != len(o.values) {
			return false
		}

		for j, v := range p.values {
			if v != o.values[j] {
				return false
			}
		}
	}

	return true
}

// IsZero returns true if the identifier is the zero value.
func (id InstanceID) IsZero() bool {
	return id.journeyName == "" && id.pairs == nil
}

func cloneValues(values []string) []string {
	c := make([]string, len(values))
	copy(c, values)
	return c
}
